// x25519.go implements X25519 Elliptic Curve Diffie-Hellman operations,
// the classical half of the hybrid KEM.
//
// X25519 (RFC 7748) is an elliptic curve Diffie-Hellman function using
// Curve25519. It provides approximately 128 bits of security against
// classical computers and is NOT quantum-resistant: in the hybrid KEM it
// provides defense-in-depth and preserves confidentiality if ML-KEM-768
// is ever broken.
package crypto

import (
	"crypto/ecdh"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// X25519KeyPair represents an X25519 key pair for classical ECDH.
type X25519KeyPair struct {
	// PublicKey is the public component for sharing.
	PublicKey *ecdh.PublicKey

	// PrivateKey is the secret component.
	PrivateKey *ecdh.PrivateKey
}

// GenerateX25519KeyPair generates a new X25519 key pair using the OS CSPRNG.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	curve := ecdh.X25519()

	privateKey, err := curve.GenerateKey(Reader)
	if err != nil {
		return nil, cerrors.NewCryptoError("X25519KeyPair.Generate", err)
	}

	return &X25519KeyPair{
		PublicKey:  privateKey.PublicKey(),
		PrivateKey: privateKey,
	}, nil
}

// NewX25519KeyPairFromBytes creates an X25519 key pair from a 32-byte
// private key. This is deterministic: the same private key bytes always
// produce the same key pair.
func NewX25519KeyPairFromBytes(privateKeyBytes []byte) (*X25519KeyPair, error) {
	if len(privateKeyBytes) != constants.X25519PrivateKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}

	curve := ecdh.X25519()
	privateKey, err := curve.NewPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, cerrors.NewCryptoError("X25519KeyPair.FromBytes", err)
	}

	return &X25519KeyPair{
		PublicKey:  privateKey.PublicKey(),
		PrivateKey: privateKey,
	}, nil
}

// X25519 performs X25519 Diffie-Hellman shared secret computation.
//
// The result must never be used directly as a key: always derive keys
// through the KDF chain (see kdf.go).
func X25519(privateKey *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	if privateKey == nil || peerPublic == nil {
		return nil, cerrors.ErrInvalidArgument
	}

	sharedSecret, err := privateKey.ECDH(peerPublic)
	if err != nil {
		return nil, cerrors.NewCryptoError("X25519", err)
	}

	return sharedSecret, nil
}

// PublicKeyBytes returns the encoded bytes of the public key.
func (kp *X25519KeyPair) PublicKeyBytes() []byte {
	return kp.PublicKey.Bytes()
}

// PrivateKeyBytes returns the encoded bytes of the private key.
// Warning: handle with care, this exposes the secret key material.
func (kp *X25519KeyPair) PrivateKeyBytes() []byte {
	return kp.PrivateKey.Bytes()
}

// ParseX25519PublicKey parses an X25519 public key from its encoded form.
func ParseX25519PublicKey(data []byte) (*ecdh.PublicKey, error) {
	if len(data) != constants.X25519PublicKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}

	curve := ecdh.X25519()
	publicKey, err := curve.NewPublicKey(data)
	if err != nil {
		return nil, cerrors.NewCryptoError("ParseX25519PublicKey", err)
	}

	return publicKey, nil
}

// Zeroize drops the key pair's references so the underlying key material
// becomes eligible for garbage collection.
//
// Note: ecdh.PrivateKey does not expose its raw bytes for explicit
// overwriting, so this cannot scrub memory the way Zeroize does for raw
// byte slices elsewhere in this package.
func (kp *X25519KeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
