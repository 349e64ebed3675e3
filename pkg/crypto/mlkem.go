// mlkem.go implements ML-KEM-768 key encapsulation, the post-quantum half
// of the hybrid KEM.
//
// ML-KEM (Module-Lattice-based Key-Encapsulation Mechanism) is standardized
// in NIST FIPS 203. Its security rests on the computational hardness of the
// Module Learning With Errors (MLWE) problem. ML-KEM-768 targets NIST
// Category 3, roughly the security margin of AES-192 against a quantum
// adversary.
package crypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// MLKEMPublicKey wraps an ML-KEM-768 public key.
type MLKEMPublicKey struct {
	key *mlkem768.PublicKey
}

// MLKEMPrivateKey wraps an ML-KEM-768 private key.
type MLKEMPrivateKey struct {
	key *mlkem768.PrivateKey
}

// MLKEMKeyPair represents an ML-KEM-768 key pair for post-quantum key
// encapsulation.
type MLKEMKeyPair struct {
	// EncapsulationKey is the public key used by others to encapsulate secrets.
	EncapsulationKey *MLKEMPublicKey

	// DecapsulationKey is the private key used to decapsulate secrets.
	DecapsulationKey *MLKEMPrivateKey
}

// GenerateMLKEMKeyPair generates a new ML-KEM-768 key pair.
func GenerateMLKEMKeyPair() (*MLKEMKeyPair, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(Reader)
	if err != nil {
		return nil, cerrors.NewCryptoError("MLKEMKeyPair.Generate", err)
	}

	return &MLKEMKeyPair{
		EncapsulationKey: &MLKEMPublicKey{key: pk},
		DecapsulationKey: &MLKEMPrivateKey{key: sk},
	}, nil
}

// MLKEMEncapsulate performs key encapsulation using ML-KEM-768.
//
// Returns the 1088-byte ciphertext and the 32-byte shared secret.
func MLKEMEncapsulate(ek *MLKEMPublicKey) (ciphertext, sharedSecret []byte, err error) {
	if ek == nil || ek.key == nil {
		return nil, nil, cerrors.ErrInvalidArgument
	}

	ct := make([]byte, mlkem768.CiphertextSize)
	ss := make([]byte, mlkem768.SharedKeySize)

	seed := make([]byte, mlkem768.EncapsulationSeedSize)
	if err := SecureRandom(seed); err != nil {
		return nil, nil, cerrors.NewCryptoError("MLKEMEncapsulate", err)
	}

	ek.key.EncapsulateTo(ct, ss, seed)

	return ct, ss, nil
}

// MLKEMDecapsulate performs key decapsulation using ML-KEM-768.
//
// Decapsulation is IND-CCA2 secure via the Fujisaki-Okamoto transform: a
// correctly sized but malformed ciphertext does not cause an error, it
// causes decapsulation to return an indistinguishable pseudorandom value
// (implicit rejection), which prevents an adversary from using
// decapsulation as an oracle. A ciphertext of the wrong length is
// rejected with ErrInvalidCiphertext.
func MLKEMDecapsulate(dk *MLKEMPrivateKey, ciphertext []byte) ([]byte, error) {
	if dk == nil || dk.key == nil {
		return nil, cerrors.ErrInvalidArgument
	}

	if len(ciphertext) != constants.MLKEMCiphertextSize {
		return nil, cerrors.ErrInvalidCiphertext
	}

	ss := make([]byte, mlkem768.SharedKeySize)
	dk.key.DecapsulateTo(ss, ciphertext)

	return ss, nil
}

// Bytes returns the encoded bytes of the public key.
func (pk *MLKEMPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// PublicKeyBytes returns the encoded bytes of the encapsulation key.
func (kp *MLKEMKeyPair) PublicKeyBytes() []byte {
	return kp.EncapsulationKey.Bytes()
}

// Bytes returns the encoded bytes of the private (decapsulation) key.
// Warning: handle with care, this exposes secret key material.
func (pk *MLKEMPrivateKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PrivateKeySize)
	pk.key.Pack(buf)
	return buf
}

// ParseMLKEMPrivateKey parses an ML-KEM-768 private key from its encoded form.
func ParseMLKEMPrivateKey(data []byte) (*MLKEMPrivateKey, error) {
	if len(data) != constants.MLKEMPrivateKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}

	sk := new(mlkem768.PrivateKey)
	if err := sk.Unpack(data); err != nil {
		return nil, cerrors.NewCryptoError("ParseMLKEMPrivateKey", err)
	}

	return &MLKEMPrivateKey{key: sk}, nil
}

// ParseMLKEMPublicKey parses an ML-KEM-768 public key from its encoded form.
func ParseMLKEMPublicKey(data []byte) (*MLKEMPublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}

	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, cerrors.NewCryptoError("ParseMLKEMPublicKey", err)
	}

	return &MLKEMPublicKey{key: pk}, nil
}

// Zeroize drops the key pair's references so the underlying key material
// becomes eligible for garbage collection.
//
// Note: CIRCL does not expose in-place zeroization for ML-KEM keys.
func (kp *MLKEMKeyPair) Zeroize() {
	kp.DecapsulationKey = nil
	kp.EncapsulationKey = nil
}
