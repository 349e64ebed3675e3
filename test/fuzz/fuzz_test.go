// Package fuzz fuzzes the wire-format parsers and AEAD boundary that
// handle untrusted input: hybrid public keys and ciphertexts recovered
// from a portable backup, and the AEAD record an attacker-controlled
// backup file feeds into Open.
//
// Run fuzz tests with:
//
//	go test -fuzz=FuzzParseKEMPublicKey -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzParseCiphertext -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzParseSignaturePublicKey -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzVerify -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzAEADOpen -fuzztime=30s ./test/fuzz/
package fuzz

import (
	"testing"

	"github.com/volli/core/internal/constants"
	"github.com/volli/core/pkg/crypto"
	"github.com/volli/core/pkg/hybrid"
)

// FuzzParseKEMPublicKey fuzzes the hybrid KEM public key parser.
func FuzzParseKEMPublicKey(f *testing.F) {
	kp, _ := hybrid.GenerateKEMKeyPair()
	f.Add(kp.PublicKey().Bytes())

	kemPublicKeySize := constants.X25519PublicKeySize + constants.MLKEMPublicKeySize
	f.Add([]byte{})
	f.Add(make([]byte, kemPublicKeySize-1))
	f.Add(make([]byte, kemPublicKeySize+1))
	f.Add(make([]byte, kemPublicKeySize))

	f.Fuzz(func(t *testing.T, data []byte) {
		pk, err := hybrid.ParseKEMPublicKey(data)
		if err != nil {
			return
		}
		if pk != nil && len(pk.Bytes()) != kemPublicKeySize {
			t.Errorf("reserialized public key has wrong size: %d", len(pk.Bytes()))
		}
	})
}

// FuzzParseCiphertext fuzzes the hybrid KEM ciphertext parser.
func FuzzParseCiphertext(f *testing.F) {
	kp, _ := hybrid.GenerateKEMKeyPair()
	ct, _, _ := hybrid.Encapsulate(kp.PublicKey())
	f.Add(ct.Bytes())

	f.Add([]byte{})
	f.Add(make([]byte, constants.HybridCiphertextSize-1))
	f.Add(make([]byte, constants.HybridCiphertextSize+1))
	f.Add(make([]byte, constants.HybridCiphertextSize))

	f.Fuzz(func(t *testing.T, data []byte) {
		ct, err := hybrid.ParseCiphertext(data)
		if err != nil {
			return
		}
		classicalOnlySize := constants.HybridCiphertextLenPrefixSize + constants.X25519PublicKeySize
		if ct != nil && len(ct.Bytes()) != constants.HybridCiphertextSize && len(ct.Bytes()) != classicalOnlySize {
			t.Errorf("reserialized ciphertext has wrong size: %d", len(ct.Bytes()))
		}
	})
}

// FuzzDecapsulate fuzzes hybrid decapsulation with arbitrary ciphertext
// bytes, checking it never panics regardless of how a stored or
// transmitted ciphertext has been corrupted.
func FuzzDecapsulate(f *testing.F) {
	kp, _ := hybrid.GenerateKEMKeyPair()
	ct, _, _ := hybrid.Encapsulate(kp.PublicKey())
	f.Add(ct.Bytes())

	f.Add([]byte{})
	f.Add(make([]byte, constants.HybridCiphertextSize))

	f.Fuzz(func(t *testing.T, data []byte) {
		ct, err := hybrid.ParseCiphertext(data)
		if err != nil {
			return
		}
		_, _, _ = hybrid.Decapsulate(ct, kp)
	})
}

// FuzzParseSignaturePublicKey fuzzes the hybrid signature public key parser.
func FuzzParseSignaturePublicKey(f *testing.F) {
	kp, _ := hybrid.GenerateSignatureKeyPair()
	validBytes, _ := kp.PublicKey().Bytes()
	f.Add(validBytes)

	f.Add([]byte{})
	f.Add(make([]byte, 10))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = hybrid.ParseSignaturePublicKey(data)
	})
}

// FuzzVerify fuzzes hybrid signature verification with arbitrary
// signature bytes against a fixed key pair and message.
func FuzzVerify(f *testing.F) {
	kp, _ := hybrid.GenerateSignatureKeyPair()
	msg := []byte("fuzz target message")
	validSig, _ := hybrid.Sign(kp, msg, nil)
	f.Add(validSig)

	f.Add([]byte{})
	f.Add(make([]byte, constants.HybridSignatureSize))
	f.Add(make([]byte, constants.HybridSignatureSize-1))

	f.Fuzz(func(t *testing.T, sig []byte) {
		_, _ = hybrid.Verify(kp.PublicKey(), msg, nil, sig)
	})
}

// FuzzAEADOpen fuzzes the AEAD decryption path that a portable backup's
// encrypted blob is fed through during recovery.
func FuzzAEADOpen(f *testing.F) {
	key, _ := crypto.SecureRandomBytes(constants.AEADKeySize)
	aead, _ := crypto.NewAEAD(key)

	plaintext := []byte("recovered identity bundle")
	validRecord, _ := aead.Seal(plaintext, []byte("identity-id"))
	f.Add(validRecord)

	minLen := constants.AEADNonceSize + constants.AEADTagSize
	f.Add([]byte{})
	f.Add(make([]byte, minLen-1))
	f.Add(make([]byte, minLen))
	f.Add(make([]byte, minLen+100))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = aead.Open(data, []byte("identity-id"))
	})
}

// FuzzX25519ParsePublicKey fuzzes raw X25519 public key parsing, which
// hybrid KEM public key parsing delegates to internally.
func FuzzX25519ParsePublicKey(f *testing.F) {
	kp, _ := crypto.GenerateX25519KeyPair()
	f.Add(kp.PublicKeyBytes())

	f.Add([]byte{})
	f.Add(make([]byte, 31))
	f.Add(make([]byte, 32))
	f.Add(make([]byte, 33))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = crypto.ParseX25519PublicKey(data)
	})
}
