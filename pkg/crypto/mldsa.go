// mldsa.go implements ML-DSA-65 digital signatures, the post-quantum half
// of the hybrid signature scheme.
//
// ML-DSA (Module-Lattice-based Digital Signature Algorithm) is standardized
// in NIST FIPS 204. ML-DSA-65 targets NIST Category 3, the same security
// margin as ML-KEM-768.
package crypto

import (
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// MLDSAKeyPair represents an ML-DSA-65 signing key pair.
type MLDSAKeyPair struct {
	PublicKey  *mldsa65.PublicKey
	PrivateKey *mldsa65.PrivateKey
}

// GenerateMLDSAKeyPair generates a new ML-DSA-65 key pair.
func GenerateMLDSAKeyPair() (*MLDSAKeyPair, error) {
	pub, priv, err := mldsa65.GenerateKey(Reader)
	if err != nil {
		return nil, cerrors.NewCryptoError("MLDSAKeyPair.Generate", err)
	}
	return &MLDSAKeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// MLDSASign signs data with the private key, producing a 3309-byte signature.
// ctx is an optional domain-separation context, matched on verification.
func MLDSASign(priv *mldsa65.PrivateKey, data, ctx []byte) ([]byte, error) {
	if priv == nil {
		return nil, cerrors.ErrInvalidArgument
	}
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(priv, data, ctx, false, sig); err != nil {
		return nil, cerrors.NewCryptoError("MLDSASign", err)
	}
	return sig, nil
}

// MLDSAVerify verifies a signature against data, a context, and a public key.
func MLDSAVerify(pub *mldsa65.PublicKey, data, ctx, sig []byte) error {
	if pub == nil {
		return cerrors.ErrInvalidArgument
	}
	if len(sig) != constants.MLDSASignatureSize {
		return cerrors.ErrInvalidSignature
	}
	if !mldsa65.Verify(pub, data, ctx, sig) {
		return cerrors.ErrInvalidSignature
	}
	return nil
}

// PublicKeyBytes returns the encoded bytes of the public key.
func (kp *MLDSAKeyPair) PublicKeyBytes() ([]byte, error) {
	b, err := kp.PublicKey.MarshalBinary()
	if err != nil {
		return nil, cerrors.NewCryptoError("MLDSAKeyPair.PublicKeyBytes", err)
	}
	return b, nil
}

// PrivateKeyBytes returns the encoded bytes of the private key.
// Warning: handle with care, this exposes secret key material.
func (kp *MLDSAKeyPair) PrivateKeyBytes() ([]byte, error) {
	b, err := kp.PrivateKey.MarshalBinary()
	if err != nil {
		return nil, cerrors.NewCryptoError("MLDSAKeyPair.PrivateKeyBytes", err)
	}
	return b, nil
}

// ParseMLDSAPublicKey parses an ML-DSA-65 public key from its encoded form.
func ParseMLDSAPublicKey(data []byte) (*mldsa65.PublicKey, error) {
	if len(data) != constants.MLDSAPublicKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}
	pub := new(mldsa65.PublicKey)
	if err := pub.UnmarshalBinary(data); err != nil {
		return nil, cerrors.NewCryptoError("ParseMLDSAPublicKey", err)
	}
	return pub, nil
}

// ParseMLDSAPrivateKey parses an ML-DSA-65 private key from its encoded form.
func ParseMLDSAPrivateKey(data []byte) (*mldsa65.PrivateKey, error) {
	if len(data) != constants.MLDSAPrivateKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}
	priv := new(mldsa65.PrivateKey)
	if err := priv.UnmarshalBinary(data); err != nil {
		return nil, cerrors.NewCryptoError("ParseMLDSAPrivateKey", err)
	}
	return priv, nil
}

// Zeroize drops the key pair's references so the underlying key material
// becomes eligible for garbage collection.
//
// Note: CIRCL does not expose in-place zeroization for ML-DSA keys.
func (kp *MLDSAKeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
