// aead.go implements Authenticated Encryption with Associated Data (AEAD)
// using XChaCha20-Poly1305.
//
// XChaCha20-Poly1305 extends ChaCha20-Poly1305's 96-bit nonce to 192 bits
// (draft-irtf-cfrg-xchacha), which makes random nonce generation safe for
// the lifetime of a key: the birthday bound for random 24-byte nonces is
// about 2^96 messages, and even after 2^64 messages the collision
// probability is about 2^-65, so this package never needs a counter or
// session-resumption state to avoid nonce reuse.
//
// CRITICAL: Nonce reuse under the same key completely breaks
// confidentiality and authenticity. Seal always draws its nonce fresh from
// the OS CSPRNG; SealWithNonce exists only for wire formats that need a
// fixed, externally-supplied nonce and the caller is responsible for
// uniqueness in that case.
package crypto

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// AEAD represents an XChaCha20-Poly1305 authenticated encryption cipher.
type AEAD struct {
	cipher cipher.AEAD
}

// NewAEAD creates a new XChaCha20-Poly1305 AEAD cipher from a 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != constants.AEADKeySize {
		return nil, cerrors.ErrInvalidKeySize
	}

	aeadCipher, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, cerrors.NewCryptoError("NewAEAD", err)
	}

	return &AEAD{cipher: aeadCipher}, nil
}

// Seal encrypts and authenticates plaintext, drawing a fresh random nonce.
//
// Returns nonce || ciphertext || tag.
func (a *AEAD) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce, err := SecureRandomBytes(constants.AEADNonceSize)
	if err != nil {
		return nil, cerrors.NewCryptoError("AEAD.Seal", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+a.cipher.Overhead())
	out = append(out, nonce...)
	out = a.cipher.Seal(out, nonce, plaintext, additionalData)

	return out, nil
}

// SealWithNonce encrypts using an explicit 24-byte nonce.
//
// WARNING: the caller is responsible for nonce uniqueness under this key.
// Prefer Seal for any new record unless the wire format requires a
// specific nonce value.
func (a *AEAD) SealWithNonce(nonce, plaintext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, cerrors.ErrInvalidArgument
	}
	return a.cipher.Seal(nil, nonce, plaintext, additionalData), nil
}

// Open decrypts and verifies a record produced by Seal: nonce || ciphertext || tag.
func (a *AEAD) Open(record, additionalData []byte) ([]byte, error) {
	if len(record) < constants.AEADNonceSize+constants.AEADTagSize {
		return nil, cerrors.ErrInvalidCiphertext
	}

	nonce := record[:constants.AEADNonceSize]
	sealed := record[constants.AEADNonceSize:]

	plaintext, err := a.cipher.Open(nil, nonce, sealed, additionalData)
	if err != nil {
		return nil, cerrors.ErrDecrypt
	}

	return plaintext, nil
}

// OpenWithNonce decrypts ciphertext||tag using an explicit nonce (no nonce
// prefix expected in ciphertext).
func (a *AEAD) OpenWithNonce(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, cerrors.ErrInvalidArgument
	}
	if len(ciphertext) < constants.AEADTagSize {
		return nil, cerrors.ErrInvalidCiphertext
	}

	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, cerrors.ErrDecrypt
	}

	return plaintext, nil
}

// Overhead returns the number of bytes of overhead added by Seal: nonce
// size plus the Poly1305 authentication tag.
func (a *AEAD) Overhead() int {
	return constants.AEADNonceSize + a.cipher.Overhead()
}

// NonceSize returns the required nonce size in bytes.
func (a *AEAD) NonceSize() int {
	return a.cipher.NonceSize()
}
