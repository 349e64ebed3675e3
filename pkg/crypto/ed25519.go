// ed25519.go implements Ed25519 digital signatures, the classical half of
// the hybrid signature scheme.
//
// Ed25519 (RFC 8032) provides approximately 128 bits of security against
// classical computers and is NOT quantum-resistant: in the hybrid
// signature scheme it provides defense-in-depth and preserves
// unforgeability if ML-DSA-65 is ever broken.
package crypto

import (
	"crypto/ed25519"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// Ed25519KeyPair represents an Ed25519 signing key pair.
type Ed25519KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateEd25519KeyPair generates a new Ed25519 key pair using the OS CSPRNG.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(Reader)
	if err != nil {
		return nil, cerrors.NewCryptoError("Ed25519KeyPair.Generate", err)
	}
	return &Ed25519KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// NewEd25519KeyPairFromSeed derives a key pair from a 32-byte seed.
func NewEd25519KeyPairFromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, cerrors.ErrInvalidKeySize
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Ed25519KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// Ed25519Sign signs data with the private key, producing a 64-byte signature.
func Ed25519Sign(priv ed25519.PrivateKey, data []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}
	return ed25519.Sign(priv, data), nil
}

// Ed25519Verify verifies a 64-byte signature against data and a public key.
func Ed25519Verify(pub ed25519.PublicKey, data, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return cerrors.ErrInvalidKeySize
	}
	if len(sig) != constants.Ed25519SignatureSize {
		return cerrors.ErrInvalidSignature
	}
	if !ed25519.Verify(pub, data, sig) {
		return cerrors.ErrInvalidSignature
	}
	return nil
}

// ParseEd25519PublicKey parses an Ed25519 public key from its encoded form.
func ParseEd25519PublicKey(data []byte) (ed25519.PublicKey, error) {
	if len(data) != ed25519.PublicKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}
	out := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(out, data)
	return out, nil
}

// Zeroize overwrites the private key bytes in place.
func (kp *Ed25519KeyPair) Zeroize() {
	Zeroize(kp.PrivateKey)
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
