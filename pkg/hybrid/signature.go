// signature.go implements the hybrid Ed25519/ML-DSA-65 signature scheme:
// a message is unforgeable unless BOTH the classical and post-quantum
// signature components are forged.
//
// Wire format is fixed-length regardless of which components a signer
// actually holds: ed25519Sig[64] || second[3309], total 3373 bytes. When a
// signer has no ML-DSA key (a classical-only, "legacy" signer), the second
// slot carries a SECOND Ed25519 signature over the same message, zero-padded
// out to 3309 bytes, rather than shrinking the signature — this keeps the
// wire length invariant so verifiers never need an out-of-band algorithm
// tag. Verification infers which case applies from the verifier's own
// public key, not from anything embedded in the signature.
package hybrid

import (
	"crypto/ed25519"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/crypto"
)

// SignatureKeyPair represents a hybrid signing key pair. mldsa is nil for a
// classical-only (legacy) signer that never generated a post-quantum key.
type SignatureKeyPair struct {
	ed25519Public  ed25519.PublicKey
	ed25519Private ed25519.PrivateKey
	mldsa          *crypto.MLDSAKeyPair
}

// SignaturePublicKey represents a hybrid signature public key for
// verification. mldsa is nil for a classical-only (legacy) public key.
type SignaturePublicKey struct {
	ed25519 ed25519.PublicKey
	mldsa   *crypto.MLDSAKeyPair // only PublicKey is populated
}

// GenerateSignatureKeyPair generates a new hybrid signing key pair with
// both the Ed25519 and ML-DSA-65 components.
func GenerateSignatureKeyPair() (*SignatureKeyPair, error) {
	edKP, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.GenerateSignatureKeyPair", err)
	}

	mldsaKP, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.GenerateSignatureKeyPair", err)
	}

	return &SignatureKeyPair{
		ed25519Public:  edKP.PublicKey,
		ed25519Private: edKP.PrivateKey,
		mldsa:          mldsaKP,
	}, nil
}

// GenerateClassicalOnlySignatureKeyPair generates a signing key pair with
// no ML-DSA component, for legacy signers that never adopted the
// post-quantum half.
func GenerateClassicalOnlySignatureKeyPair() (*SignatureKeyPair, error) {
	edKP, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.GenerateClassicalOnlySignatureKeyPair", err)
	}
	return &SignatureKeyPair{ed25519Public: edKP.PublicKey, ed25519Private: edKP.PrivateKey}, nil
}

// PublicKey returns the public component of the key pair.
func (kp *SignatureKeyPair) PublicKey() *SignaturePublicKey {
	pub := &SignaturePublicKey{ed25519: kp.ed25519Public}
	if kp.mldsa != nil {
		pub.mldsa = &crypto.MLDSAKeyPair{PublicKey: kp.mldsa.PublicKey}
	}
	return pub
}

// Sign produces a fixed-length hybrid signature: ed25519Sig[64] ||
// second[3309], always 3373 bytes. ctx is an optional domain-separation
// context for the ML-DSA component.
func Sign(kp *SignatureKeyPair, data, ctx []byte) ([]byte, error) {
	if kp == nil || kp.ed25519Private == nil {
		return nil, cerrors.ErrInvalidArgument
	}

	edSig, err := crypto.Ed25519Sign(kp.ed25519Private, data)
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.Sign", err)
	}

	second := make([]byte, constants.HybridSignatureSize-constants.Ed25519SignatureSize)

	if kp.mldsa != nil && kp.mldsa.PrivateKey != nil {
		mldsaSig, err := crypto.MLDSASign(kp.mldsa.PrivateKey, data, ctx)
		if err != nil {
			return nil, cerrors.NewCryptoError("hybrid.Sign", err)
		}
		copy(second, mldsaSig)
	} else {
		legacySig, err := crypto.Ed25519Sign(kp.ed25519Private, data)
		if err != nil {
			return nil, cerrors.NewCryptoError("hybrid.Sign", err)
		}
		copy(second, legacySig)
	}

	sig := make([]byte, 0, constants.HybridSignatureSize)
	sig = append(sig, edSig...)
	sig = append(sig, second...)
	return sig, nil
}

// Verify checks a hybrid signature and reports the security level the
// verification achieved.
//
// Signatures whose total length is not exactly HybridSignatureSize are
// rejected before any verification work, per the length invariant. If the
// public key carries a non-empty ML-DSA component, verification demands
// both halves validate (SecurityFull). Otherwise the second half is
// interpreted as a second Ed25519 signature over the same message (a
// degraded, classical-only signature) and verification reports
// SecurityClassicalOnly — unless the build is FIPS-mode, in which case a
// degraded signature is always rejected, since strict PQ assurance is
// required there.
func Verify(pub *SignaturePublicKey, data, ctx, sig []byte) (constants.SecurityLevel, error) {
	if pub == nil || pub.ed25519 == nil {
		return constants.SecurityFailed, cerrors.ErrInvalidArgument
	}
	if len(sig) != constants.HybridSignatureSize {
		return constants.SecurityFailed, cerrors.ErrInvalidSignature
	}

	edSig := sig[:constants.Ed25519SignatureSize]
	second := sig[constants.Ed25519SignatureSize:]

	if err := crypto.Ed25519Verify(pub.ed25519, data, edSig); err != nil {
		return constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Verify", err)
	}

	if pub.mldsa != nil && pub.mldsa.PublicKey != nil {
		if err := crypto.MLDSAVerify(pub.mldsa.PublicKey, data, ctx, second); err != nil {
			return constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Verify", err)
		}
		return constants.SecurityFull, nil
	}

	if crypto.FIPSMode() {
		return constants.SecurityFailed, cerrors.ErrInvalidSignature
	}

	legacySig := second[:constants.Ed25519SignatureSize]
	if err := crypto.Ed25519Verify(pub.ed25519, data, legacySig); err != nil {
		return constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Verify", err)
	}

	return constants.SecurityClassicalOnly, nil
}

// Bytes serializes the public key to bytes. A classical-only key is
// Ed25519PublicKeySize bytes; a full hybrid key appends the ML-DSA public
// key.
func (pk *SignaturePublicKey) Bytes() ([]byte, error) {
	if pk.mldsa == nil || pk.mldsa.PublicKey == nil {
		return append([]byte(nil), pk.ed25519...), nil
	}

	mldsaBytes, err := pk.mldsa.PublicKey.MarshalBinary()
	if err != nil {
		return nil, cerrors.NewCryptoError("SignaturePublicKey.Bytes", err)
	}

	result := make([]byte, 0, constants.Ed25519PublicKeySize+constants.MLDSAPublicKeySize)
	result = append(result, pk.ed25519...)
	result = append(result, mldsaBytes...)
	return result, nil
}

// ParseSignaturePublicKey parses a hybrid signature public key from bytes.
// A value of exactly Ed25519PublicKeySize bytes parses as a classical-only
// (legacy) key with no ML-DSA component.
func ParseSignaturePublicKey(data []byte) (*SignaturePublicKey, error) {
	full := constants.Ed25519PublicKeySize + constants.MLDSAPublicKeySize

	switch len(data) {
	case constants.Ed25519PublicKeySize:
		edPublic, err := crypto.ParseEd25519PublicKey(data)
		if err != nil {
			return nil, err
		}
		return &SignaturePublicKey{ed25519: edPublic}, nil
	case full:
		edPublic, err := crypto.ParseEd25519PublicKey(data[:constants.Ed25519PublicKeySize])
		if err != nil {
			return nil, err
		}
		mldsaPublic, err := crypto.ParseMLDSAPublicKey(data[constants.Ed25519PublicKeySize:])
		if err != nil {
			return nil, err
		}
		return &SignaturePublicKey{
			ed25519: edPublic,
			mldsa:   &crypto.MLDSAKeyPair{PublicKey: mldsaPublic},
		}, nil
	default:
		return nil, cerrors.ErrInvalidKeySize
	}
}

// PrivateBytes serializes the key pair's private key material: the
// Ed25519 private key, followed by the ML-DSA-65 private key when the
// pair is not classical-only.
func (kp *SignatureKeyPair) PrivateBytes() ([]byte, error) {
	if kp.mldsa == nil || kp.mldsa.PrivateKey == nil {
		return append([]byte(nil), kp.ed25519Private...), nil
	}

	mldsaBytes, err := kp.mldsa.PrivateKeyBytes()
	if err != nil {
		return nil, cerrors.NewCryptoError("SignatureKeyPair.PrivateBytes", err)
	}

	out := make([]byte, 0, len(kp.ed25519Private)+len(mldsaBytes))
	out = append(out, kp.ed25519Private...)
	out = append(out, mldsaBytes...)
	return out, nil
}

// RebuildSignatureKeyPair reconstructs a SignatureKeyPair from its public
// key and serialized private key, for restoring a signer recovered from a
// sealed backup rather than freshly generated. privBytes of exactly
// Ed25519PrivateKeySize rebuilds a classical-only key pair; the longer
// form also carries the ML-DSA-65 private key and requires pub to carry
// a matching ML-DSA public component.
func RebuildSignatureKeyPair(pub *SignaturePublicKey, privBytes []byte) (*SignatureKeyPair, error) {
	if pub == nil || pub.ed25519 == nil {
		return nil, cerrors.ErrInvalidArgument
	}

	switch len(privBytes) {
	case ed25519.PrivateKeySize:
		return &SignatureKeyPair{
			ed25519Public:  pub.ed25519,
			ed25519Private: ed25519.PrivateKey(append([]byte(nil), privBytes...)),
		}, nil
	case ed25519.PrivateKeySize + constants.MLDSAPrivateKeySize:
		if pub.mldsa == nil || pub.mldsa.PublicKey == nil {
			return nil, cerrors.ErrInvalidKeySize
		}
		mldsaPriv, err := crypto.ParseMLDSAPrivateKey(privBytes[ed25519.PrivateKeySize:])
		if err != nil {
			return nil, err
		}
		return &SignatureKeyPair{
			ed25519Public:  pub.ed25519,
			ed25519Private: ed25519.PrivateKey(append([]byte(nil), privBytes[:ed25519.PrivateKeySize]...)),
			mldsa:          &crypto.MLDSAKeyPair{PublicKey: pub.mldsa.PublicKey, PrivateKey: mldsaPriv},
		}, nil
	default:
		return nil, cerrors.ErrInvalidKeySize
	}
}

// Zeroize drops the key pair's references so the underlying key material
// becomes eligible for garbage collection.
func (kp *SignatureKeyPair) Zeroize() {
	if kp.ed25519Private != nil {
		crypto.Zeroize(kp.ed25519Private)
	}
	kp.ed25519Private = nil
	kp.ed25519Public = nil
	kp.mldsa = nil
}
