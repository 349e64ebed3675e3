// Package hybrid implements the hybrid post-quantum primitives exposed to
// the identity vault: a combined X25519/ML-KEM-768 key encapsulation
// mechanism and a combined Ed25519/ML-DSA-65 signature scheme.
//
// # Security Model
//
// Hybrid KEM provides IND-CCA2 security if EITHER X25519 OR ML-KEM-768 is
// secure, under the random oracle model for the HKDF-SHA-256 combiner:
//
//  1. Quantum resistance: ML-KEM-768 resists attacks from quantum computers.
//  2. Classical security: X25519 provides defense if ML-KEM is broken.
//  3. Defense in depth: both must fail for the system to be compromised.
//
// Key generation:
//
//	(sk_x, pk_x) <- X25519.KeyGen()
//	(sk_m, pk_m) <- ML-KEM-768.KeyGen()
//	pk = pk_x || pk_m
//
// Encapsulation:
//
//	(ct_m, K_m) <- ML-KEM-768.Encaps(pk_m)
//	(sk_x_eph, pk_x_eph) <- X25519.KeyGen()
//	K_x <- X25519.DH(sk_x_eph, pk_x)
//	ct = u32_le(len(ct_m)) || ct_m || pk_x_eph
//	K <- HKDF-SHA-256(K_x || K_m)
//
// Decapsulation parses ct, recomputes K_x and K_m, and rederives K the
// same way. If ML-KEM decapsulation fails or the ciphertext carries a
// zero-length pq component, decapsulation falls back to X25519-only and
// reports SecurityClassicalOnly, unless the build is FIPS-mode, in which
// case the post-quantum component is mandatory and the operation fails.
package hybrid

import (
	"crypto/ecdh"
	"encoding/binary"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/crypto"
)

// KEMKeyPair represents a hybrid KEM key pair combining X25519 and ML-KEM-768.
type KEMKeyPair struct {
	x25519Public  *ecdh.PublicKey
	x25519Private *ecdh.PrivateKey
	mlkemPublic   *crypto.MLKEMPublicKey
	mlkemPrivate  *crypto.MLKEMPrivateKey
}

// KEMPublicKey represents a hybrid KEM public key for encapsulation.
type KEMPublicKey struct {
	x25519 *ecdh.PublicKey
	mlkem  *crypto.MLKEMPublicKey
}

// Ciphertext represents a hybrid KEM ciphertext.
type Ciphertext struct {
	x25519Ephemeral []byte
	mlkemCiphertext []byte
}

// GenerateKEMKeyPair generates a new hybrid KEM key pair.
func GenerateKEMKeyPair() (*KEMKeyPair, error) {
	x25519KP, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.GenerateKEMKeyPair", err)
	}

	mlkemKP, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.GenerateKEMKeyPair", err)
	}

	return &KEMKeyPair{
		x25519Public:  x25519KP.PublicKey,
		x25519Private: x25519KP.PrivateKey,
		mlkemPublic:   mlkemKP.EncapsulationKey,
		mlkemPrivate:  mlkemKP.DecapsulationKey,
	}, nil
}

// PublicKey returns the public component of the key pair.
func (kp *KEMKeyPair) PublicKey() *KEMPublicKey {
	return &KEMPublicKey{x25519: kp.x25519Public, mlkem: kp.mlkemPublic}
}

// Encapsulate performs hybrid KEM encapsulation, producing a wire-format
// ciphertext and the derived 32-byte shared secret.
func Encapsulate(recipientPublic *KEMPublicKey) (*Ciphertext, []byte, error) {
	if recipientPublic == nil || recipientPublic.x25519 == nil || recipientPublic.mlkem == nil {
		return nil, nil, cerrors.ErrInvalidArgument
	}

	ephemeralKP, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, nil, cerrors.NewCryptoError("hybrid.Encapsulate", err)
	}

	x25519Secret, err := crypto.X25519(ephemeralKP.PrivateKey, recipientPublic.x25519)
	if err != nil {
		return nil, nil, cerrors.NewCryptoError("hybrid.Encapsulate", err)
	}

	mlkemCiphertext, mlkemSecret, err := crypto.MLKEMEncapsulate(recipientPublic.mlkem)
	if err != nil {
		return nil, nil, cerrors.NewCryptoError("hybrid.Encapsulate", err)
	}

	ct := &Ciphertext{
		x25519Ephemeral: ephemeralKP.PublicKeyBytes(),
		mlkemCiphertext: mlkemCiphertext,
	}

	sharedSecret, err := crypto.DeriveHybridSecret(x25519Secret, mlkemSecret)
	if err != nil {
		return nil, nil, err
	}

	crypto.ZeroizeMultiple(x25519Secret, mlkemSecret)

	return ct, sharedSecret, nil
}

// Decapsulate performs hybrid KEM decapsulation, recovering the shared
// secret and reporting which components contributed to it.
func Decapsulate(ct *Ciphertext, kp *KEMKeyPair) ([]byte, constants.SecurityLevel, error) {
	if ct == nil || len(ct.x25519Ephemeral) == 0 {
		return nil, constants.SecurityFailed, cerrors.ErrInvalidCiphertext
	}
	if kp == nil || kp.x25519Private == nil {
		return nil, constants.SecurityFailed, cerrors.ErrInvalidArgument
	}

	ephemeralPublic, err := crypto.ParseX25519PublicKey(ct.x25519Ephemeral)
	if err != nil {
		return nil, constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Decapsulate", err)
	}

	x25519Secret, err := crypto.X25519(kp.x25519Private, ephemeralPublic)
	if err != nil {
		return nil, constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Decapsulate", err)
	}

	if len(ct.mlkemCiphertext) == 0 {
		if crypto.FIPSMode() {
			return nil, constants.SecurityFailed, cerrors.ErrKemFailed
		}
		secret, err := crypto.DeriveSubkey(x25519Secret, "classical")
		if err != nil {
			return nil, constants.SecurityFailed, err
		}
		crypto.Zeroize(x25519Secret)
		return secret, constants.SecurityClassicalOnly, nil
	}

	mlkemSecret, err := crypto.MLKEMDecapsulate(kp.mlkemPrivate, ct.mlkemCiphertext)
	if err != nil {
		if crypto.FIPSMode() {
			return nil, constants.SecurityFailed, cerrors.NewCryptoError("hybrid.Decapsulate", err)
		}
		secret, derr := crypto.DeriveSubkey(x25519Secret, "classical")
		if derr != nil {
			return nil, constants.SecurityFailed, derr
		}
		crypto.Zeroize(x25519Secret)
		return secret, constants.SecurityClassicalOnly, nil
	}

	sharedSecret, err := crypto.DeriveHybridSecret(x25519Secret, mlkemSecret)
	if err != nil {
		return nil, constants.SecurityFailed, err
	}

	crypto.ZeroizeMultiple(x25519Secret, mlkemSecret)

	return sharedSecret, constants.SecurityFull, nil
}

// Bytes serializes the public key to bytes: x25519[32] || mlkem[1184].
func (pk *KEMPublicKey) Bytes() []byte {
	result := make([]byte, constants.X25519PublicKeySize+constants.MLKEMPublicKeySize)
	copy(result[:constants.X25519PublicKeySize], pk.x25519.Bytes())
	copy(result[constants.X25519PublicKeySize:], pk.mlkem.Bytes())
	return result
}

// ParseKEMPublicKey parses a hybrid KEM public key from bytes.
func ParseKEMPublicKey(data []byte) (*KEMPublicKey, error) {
	want := constants.X25519PublicKeySize + constants.MLKEMPublicKeySize
	if len(data) != want {
		return nil, cerrors.ErrInvalidKeySize
	}

	x25519Public, err := crypto.ParseX25519PublicKey(data[:constants.X25519PublicKeySize])
	if err != nil {
		return nil, err
	}
	mlkemPublic, err := crypto.ParseMLKEMPublicKey(data[constants.X25519PublicKeySize:])
	if err != nil {
		return nil, err
	}

	return &KEMPublicKey{x25519: x25519Public, mlkem: mlkemPublic}, nil
}

// Bytes serializes the ciphertext to wire format:
// u32_le pqLen || pq[pqLen] || ephX25519[32].
func (ct *Ciphertext) Bytes() []byte {
	out := make([]byte, constants.HybridCiphertextLenPrefixSize+len(ct.mlkemCiphertext)+len(ct.x25519Ephemeral))
	binary.LittleEndian.PutUint32(out, uint32(len(ct.mlkemCiphertext)))
	offset := constants.HybridCiphertextLenPrefixSize
	copy(out[offset:], ct.mlkemCiphertext)
	offset += len(ct.mlkemCiphertext)
	copy(out[offset:], ct.x25519Ephemeral)
	return out
}

// ParseCiphertext parses a hybrid KEM ciphertext from wire format.
// A pqLen of zero is valid and denotes a degraded, classical-only
// ciphertext (see the Decapsulate fallback above). A bare 32-byte input
// with no length prefix is also accepted as a legacy classical-only
// ciphertext, for interoperability with callers that predate the hybrid
// wire format.
func ParseCiphertext(data []byte) (*Ciphertext, error) {
	if len(data) == constants.X25519PublicKeySize {
		return &Ciphertext{x25519Ephemeral: append([]byte(nil), data...)}, nil
	}

	if len(data) < constants.HybridCiphertextLenPrefixSize+constants.X25519PublicKeySize {
		return nil, cerrors.ErrInvalidCiphertext
	}

	pqLen := int(binary.LittleEndian.Uint32(data[:constants.HybridCiphertextLenPrefixSize]))
	if pqLen != 0 && pqLen != constants.MLKEMCiphertextSize {
		return nil, cerrors.ErrInvalidCiphertext
	}

	expected := constants.HybridCiphertextLenPrefixSize + pqLen + constants.X25519PublicKeySize
	if len(data) != expected {
		return nil, cerrors.ErrInvalidCiphertext
	}

	offset := constants.HybridCiphertextLenPrefixSize
	pq := append([]byte(nil), data[offset:offset+pqLen]...)
	offset += pqLen
	eph := append([]byte(nil), data[offset:]...)

	return &Ciphertext{x25519Ephemeral: eph, mlkemCiphertext: pq}, nil
}

// Zeroize drops the key pair's references so the underlying key material
// becomes eligible for garbage collection.
func (kp *KEMKeyPair) Zeroize() {
	kp.x25519Private = nil
	kp.x25519Public = nil
	kp.mlkemPrivate = nil
	kp.mlkemPublic = nil
}

// X25519PrivateBytes returns the raw 32-byte X25519 private scalar.
// Warning: handle with care, this exposes secret key material.
func (kp *KEMKeyPair) X25519PrivateBytes() []byte {
	return kp.x25519Private.Bytes()
}

// MLKEMPrivateBytes returns the encoded ML-KEM-768 decapsulation key.
// Warning: handle with care, this exposes secret key material.
func (kp *KEMKeyPair) MLKEMPrivateBytes() []byte {
	return kp.mlkemPrivate.Bytes()
}

// RebuildKEMKeyPair reconstructs a KEMKeyPair from its public key and raw
// private-key material, for restoring a key pair recovered from a sealed
// backup rather than freshly generated.
func RebuildKEMKeyPair(pub *KEMPublicKey, x25519PrivBytes, mlkemPrivBytes []byte) (*KEMKeyPair, error) {
	if pub == nil {
		return nil, cerrors.ErrInvalidArgument
	}
	x25519KP, err := crypto.NewX25519KeyPairFromBytes(x25519PrivBytes)
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.RebuildKEMKeyPair", err)
	}
	mlkemPriv, err := crypto.ParseMLKEMPrivateKey(mlkemPrivBytes)
	if err != nil {
		return nil, cerrors.NewCryptoError("hybrid.RebuildKEMKeyPair", err)
	}
	return &KEMKeyPair{
		x25519Public:  pub.x25519,
		x25519Private: x25519KP.PrivateKey,
		mlkemPublic:   pub.mlkem,
		mlkemPrivate:  mlkemPriv,
	}, nil
}

// X25519PublicKey returns the X25519 component of the public key.
func (pk *KEMPublicKey) X25519PublicKey() *ecdh.PublicKey {
	return pk.x25519
}

// MLKEMPublicKey returns the ML-KEM component of the public key.
func (pk *KEMPublicKey) MLKEMPublicKey() *crypto.MLKEMPublicKey {
	return pk.mlkem
}
