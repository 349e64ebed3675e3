package crypto_test

import (
	"bytes"
	"testing"

	"github.com/volli/core/internal/constants"
	"github.com/volli/core/pkg/crypto"
)

// --- Random Tests ---

func TestSecureRandom(t *testing.T) {
	buf := make([]byte, 32)
	if err := crypto.SecureRandom(buf); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}

	allZeros := true
	for _, b := range buf {
		if b != 0 {
			allZeros = false
			break
		}
	}
	if allZeros {
		t.Error("SecureRandom returned all zeros")
	}
}

func TestSecureRandomBytes(t *testing.T) {
	sizes := []int{16, 32, 64, 128}
	for _, size := range sizes {
		buf, err := crypto.SecureRandomBytes(size)
		if err != nil {
			t.Fatalf("SecureRandomBytes(%d) failed: %v", size, err)
		}
		if len(buf) != size {
			t.Errorf("SecureRandomBytes(%d) returned %d bytes", size, len(buf))
		}
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("hello world")
	b := []byte("hello world")
	c := []byte("hello worle")
	d := []byte("hello")

	if !crypto.ConstantTimeCompare(a, b) {
		t.Error("Equal slices should compare equal")
	}
	if crypto.ConstantTimeCompare(a, c) {
		t.Error("Different slices should not compare equal")
	}
	if crypto.ConstantTimeCompare(a, d) {
		t.Error("Different length slices should not compare equal")
	}
}

func TestZeroize(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	crypto.Zeroize(buf)

	for i, b := range buf {
		if b != 0 {
			t.Errorf("Zeroize failed at index %d: got %d, want 0", i, b)
		}
	}
}

// --- X25519 Tests ---

func TestX25519KeyGeneration(t *testing.T) {
	kp, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed: %v", err)
	}

	if len(kp.PublicKeyBytes()) != constants.X25519PublicKeySize {
		t.Errorf("Public key size: got %d, want %d", len(kp.PublicKeyBytes()), constants.X25519PublicKeySize)
	}
	if len(kp.PrivateKeyBytes()) != constants.X25519PrivateKeySize {
		t.Errorf("Private key size: got %d, want %d", len(kp.PrivateKeyBytes()), constants.X25519PrivateKeySize)
	}
}

func TestX25519KeyExchange(t *testing.T) {
	alice, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed for Alice: %v", err)
	}
	bob, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed for Bob: %v", err)
	}

	secretAlice, err := crypto.X25519(alice.PrivateKey, bob.PublicKey)
	if err != nil {
		t.Fatalf("X25519 failed for Alice: %v", err)
	}
	secretBob, err := crypto.X25519(bob.PrivateKey, alice.PublicKey)
	if err != nil {
		t.Fatalf("X25519 failed for Bob: %v", err)
	}

	if !bytes.Equal(secretAlice, secretBob) {
		t.Error("X25519 shared secrets do not match")
	}
	if len(secretAlice) != constants.X25519SharedSecretSize {
		t.Errorf("Shared secret size: got %d, want %d", len(secretAlice), constants.X25519SharedSecretSize)
	}
}

func TestX25519InvalidArguments(t *testing.T) {
	kp, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed: %v", err)
	}
	if _, err := crypto.X25519(nil, kp.PublicKey); err == nil {
		t.Error("X25519 with nil private key should fail")
	}
	if _, err := crypto.X25519(kp.PrivateKey, nil); err == nil {
		t.Error("X25519 with nil public key should fail")
	}
}

func TestParseX25519PublicKeyWrongSize(t *testing.T) {
	if _, err := crypto.ParseX25519PublicKey([]byte{1, 2, 3}); err == nil {
		t.Error("ParseX25519PublicKey should reject wrong-sized input")
	}
}

// --- Ed25519 Tests ---

func TestEd25519SignVerify(t *testing.T) {
	kp, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair failed: %v", err)
	}

	msg := []byte("sign me")
	sig, err := crypto.Ed25519Sign(kp.PrivateKey, msg)
	if err != nil {
		t.Fatalf("Ed25519Sign failed: %v", err)
	}
	if len(sig) != constants.Ed25519SignatureSize {
		t.Errorf("signature size: got %d, want %d", len(sig), constants.Ed25519SignatureSize)
	}

	if err := crypto.Ed25519Verify(kp.PublicKey, msg, sig); err != nil {
		t.Errorf("Ed25519Verify failed on valid signature: %v", err)
	}
	if err := crypto.Ed25519Verify(kp.PublicKey, []byte("tampered"), sig); err == nil {
		t.Error("Ed25519Verify should reject tampered message")
	}
}

func TestEd25519KeyPairFromSeed(t *testing.T) {
	seed := make([]byte, 32)
	if err := crypto.SecureRandom(seed); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}

	kp1, err := crypto.NewEd25519KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("NewEd25519KeyPairFromSeed failed: %v", err)
	}
	kp2, err := crypto.NewEd25519KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("NewEd25519KeyPairFromSeed failed: %v", err)
	}
	if !bytes.Equal(kp1.PublicKey, kp2.PublicKey) {
		t.Error("same seed should produce same public key")
	}
}

// --- ML-KEM-768 Tests ---

func TestMLKEMKeyGeneration(t *testing.T) {
	kp, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}
	if len(kp.PublicKeyBytes()) != constants.MLKEMPublicKeySize {
		t.Errorf("public key size: got %d, want %d", len(kp.PublicKeyBytes()), constants.MLKEMPublicKeySize)
	}
}

func TestMLKEMEncapsulateDecapsulate(t *testing.T) {
	kp, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}

	ct, ss1, err := crypto.MLKEMEncapsulate(kp.EncapsulationKey)
	if err != nil {
		t.Fatalf("MLKEMEncapsulate failed: %v", err)
	}
	if len(ct) != constants.MLKEMCiphertextSize {
		t.Errorf("ciphertext size: got %d, want %d", len(ct), constants.MLKEMCiphertextSize)
	}

	ss2, err := crypto.MLKEMDecapsulate(kp.DecapsulationKey, ct)
	if err != nil {
		t.Fatalf("MLKEMDecapsulate failed: %v", err)
	}
	if !bytes.Equal(ss1, ss2) {
		t.Error("shared secrets do not match")
	}
}

func TestMLKEMDecapsulateInvalidCiphertext(t *testing.T) {
	kp, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}
	if _, err := crypto.MLKEMDecapsulate(kp.DecapsulationKey, []byte{1, 2, 3}); err == nil {
		t.Error("MLKEMDecapsulate should reject wrong-sized ciphertext")
	}
}

func TestParseMLKEMPublicKeyRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}
	encoded := kp.PublicKeyBytes()
	parsed, err := crypto.ParseMLKEMPublicKey(encoded)
	if err != nil {
		t.Fatalf("ParseMLKEMPublicKey failed: %v", err)
	}
	if !bytes.Equal(parsed.Bytes(), encoded) {
		t.Error("round-tripped public key does not match original")
	}
}

// --- ML-DSA-65 Tests ---

func TestMLDSASignVerify(t *testing.T) {
	kp, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLDSAKeyPair failed: %v", err)
	}

	msg := []byte("sign me")
	sig, err := crypto.MLDSASign(kp.PrivateKey, msg, nil)
	if err != nil {
		t.Fatalf("MLDSASign failed: %v", err)
	}
	if len(sig) != constants.MLDSASignatureSize {
		t.Errorf("signature size: got %d, want %d", len(sig), constants.MLDSASignatureSize)
	}

	if err := crypto.MLDSAVerify(kp.PublicKey, msg, nil, sig); err != nil {
		t.Errorf("MLDSAVerify failed on valid signature: %v", err)
	}
	if err := crypto.MLDSAVerify(kp.PublicKey, []byte("tampered"), nil, sig); err == nil {
		t.Error("MLDSAVerify should reject tampered message")
	}
}

func TestMLDSAPublicKeyRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLDSAKeyPair failed: %v", err)
	}
	encoded, err := kp.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes failed: %v", err)
	}
	parsed, err := crypto.ParseMLDSAPublicKey(encoded)
	if err != nil {
		t.Fatalf("ParseMLDSAPublicKey failed: %v", err)
	}
	reencoded, err := (&crypto.MLDSAKeyPair{PublicKey: parsed}).PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes on parsed key failed: %v", err)
	}
	if !bytes.Equal(reencoded, encoded) {
		t.Error("round-tripped public key does not match original")
	}
}

// --- AEAD Tests ---

func TestAEADSealOpen(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(key); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}

	aead, err := crypto.NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	plaintext := []byte("the quick brown fox")
	aad := []byte("associated-data")

	sealed, err := aead.Seal(plaintext, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) != len(plaintext)+aead.Overhead() {
		t.Errorf("sealed length: got %d, want %d", len(sealed), len(plaintext)+aead.Overhead())
	}

	opened, err := aead.Open(sealed, aad)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Error("round-trip mismatch")
	}
}

func TestAEADOpenRejectsTamperedAAD(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	crypto.MustSecureRandom(key)

	aead, err := crypto.NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	sealed, err := aead.Seal([]byte("data"), []byte("aad-1"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := aead.Open(sealed, []byte("aad-2")); err == nil {
		t.Error("Open should reject mismatched AAD")
	}
}

func TestAEADNonceUniqueness(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	crypto.MustSecureRandom(key)

	aead, err := crypto.NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	s1, _ := aead.Seal([]byte("same plaintext"), nil)
	s2, _ := aead.Seal([]byte("same plaintext"), nil)
	if bytes.Equal(s1[:constants.AEADNonceSize], s2[:constants.AEADNonceSize]) {
		t.Error("two Seal calls produced the same nonce")
	}
}

func TestNewAEADRejectsWrongKeySize(t *testing.T) {
	if _, err := crypto.NewAEAD([]byte{1, 2, 3}); err == nil {
		t.Error("NewAEAD should reject wrong-sized key")
	}
}

// --- KDF Tests ---

func TestDeriveHybridSecretDeterministic(t *testing.T) {
	x := make([]byte, constants.X25519SharedSecretSize)
	p := make([]byte, constants.MLKEMSharedSecretSize)
	crypto.MustSecureRandom(x)
	crypto.MustSecureRandom(p)

	out1, err := crypto.DeriveHybridSecret(x, p)
	if err != nil {
		t.Fatalf("DeriveHybridSecret failed: %v", err)
	}
	out2, err := crypto.DeriveHybridSecret(x, p)
	if err != nil {
		t.Fatalf("DeriveHybridSecret failed: %v", err)
	}
	if !bytes.Equal(out1, out2) {
		t.Error("DeriveHybridSecret is not deterministic for the same inputs")
	}
	if len(out1) != constants.HybridSharedSecretSize {
		t.Errorf("output size: got %d, want %d", len(out1), constants.HybridSharedSecretSize)
	}
}

func TestDeriveSubkeyDomainSeparation(t *testing.T) {
	master := make([]byte, 32)
	crypto.MustSecureRandom(master)

	a, err := crypto.DeriveSubkey(master, "vault-k")
	if err != nil {
		t.Fatalf("DeriveSubkey failed: %v", err)
	}
	b, err := crypto.DeriveSubkey(master, "backup-k")
	if err != nil {
		t.Fatalf("DeriveSubkey failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different contexts should derive different subkeys")
	}
}

func TestDerivePasswordKeyDeterministic(t *testing.T) {
	salt, err := crypto.GenerateSalt(constants.Argon2InteractiveSaltSize)
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}

	params := crypto.EmergencyArgon2Params()
	k1, err := crypto.DerivePasswordKey([]byte("correct horse battery staple"), salt, params)
	if err != nil {
		t.Fatalf("DerivePasswordKey failed: %v", err)
	}
	k2, err := crypto.DerivePasswordKey([]byte("correct horse battery staple"), salt, params)
	if err != nil {
		t.Fatalf("DerivePasswordKey failed: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DerivePasswordKey is not deterministic for the same password and salt")
	}

	k3, err := crypto.DerivePasswordKey([]byte("different password!"), salt, params)
	if err != nil {
		t.Fatalf("DerivePasswordKey failed: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("different passwords should derive different keys")
	}
}

func TestDerivePasswordKeyRejectsShortPassword(t *testing.T) {
	salt, _ := crypto.GenerateSalt(16)
	if _, err := crypto.DerivePasswordKey([]byte("short"), salt, crypto.EmergencyArgon2Params()); err == nil {
		t.Error("DerivePasswordKey should reject passwords shorter than the minimum")
	}
}

func TestFingerprintConsistent(t *testing.T) {
	data := []byte("a public key's worth of bytes")
	f1, err := crypto.Fingerprint(data)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	f2, err := crypto.Fingerprint(data)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if !bytes.Equal(f1, f2) {
		t.Error("Fingerprint is not deterministic")
	}
	if len(f1) != constants.FingerprintHashSize {
		t.Errorf("fingerprint size: got %d, want %d", len(f1), constants.FingerprintHashSize)
	}
}

func TestKeyedFingerprintRequiresKey(t *testing.T) {
	data := []byte("emergency-code")
	f1, err := crypto.KeyedFingerprint([]byte("key-one"), data)
	if err != nil {
		t.Fatalf("KeyedFingerprint failed: %v", err)
	}
	f2, err := crypto.KeyedFingerprint([]byte("key-two"), data)
	if err != nil {
		t.Fatalf("KeyedFingerprint failed: %v", err)
	}
	if bytes.Equal(f1, f2) {
		t.Error("different keys should produce different keyed fingerprints")
	}
}

// --- POST / CST Tests ---

func TestRunPOST(t *testing.T) {
	result := crypto.RunPOST()
	if !result.Passed {
		t.Errorf("RunPOST reported failure: %v", result.Errors)
	}
}

func TestPairwiseConsistencyTestX25519(t *testing.T) {
	kp, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed: %v", err)
	}
	result := crypto.PairwiseConsistencyTestX25519(kp)
	if !result.Passed {
		t.Errorf("pairwise consistency test failed: %v", result.Error)
	}
}

func TestPairwiseConsistencyTestMLKEM(t *testing.T) {
	kp, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}
	result := crypto.PairwiseConsistencyTestMLKEM(kp)
	if !result.Passed {
		t.Errorf("pairwise consistency test failed: %v", result.Error)
	}
}

func TestPairwiseConsistencyTestMLDSA(t *testing.T) {
	kp, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLDSAKeyPair failed: %v", err)
	}
	result := crypto.PairwiseConsistencyTestMLDSA(kp)
	if !result.Passed {
		t.Errorf("pairwise consistency test failed: %v", result.Error)
	}
}

func TestRNGHealthCheck(t *testing.T) {
	result := crypto.RNGHealthCheck()
	if !result.Passed {
		t.Errorf("RNGHealthCheck failed: %v", result.Error)
	}
}

func TestFIPSMode(t *testing.T) {
	// Without the "fips" build tag, FIPSMode must report false.
	if crypto.FIPSMode() {
		t.Error("FIPSMode() should be false without the fips build tag")
	}
}

// --- Buffer Pool Tests ---

func TestBufferPoolGetCiphertext(t *testing.T) {
	pool := crypto.NewBufferPool()
	buf := pool.GetCiphertext(100)
	if len(buf) != 100 {
		t.Errorf("GetCiphertext(100) returned %d bytes", len(buf))
	}
	pool.PutCiphertext(buf)
}

func TestBufferPoolGetNonce(t *testing.T) {
	pool := crypto.NewBufferPool()
	nonce, err := pool.GetNonce()
	if err != nil {
		t.Fatalf("GetNonce failed: %v", err)
	}
	if len(nonce) != constants.AEADNonceSize {
		t.Errorf("nonce size: got %d, want %d", len(nonce), constants.AEADNonceSize)
	}
	pool.PutNonce(nonce)
}

func TestAEADSealPooled(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	crypto.MustSecureRandom(key)
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	sealed, err := aead.SealPooled([]byte("pooled plaintext"), nil)
	if err != nil {
		t.Fatalf("SealPooled failed: %v", err)
	}
	opened, err := aead.Open(sealed, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, []byte("pooled plaintext")) {
		t.Error("pooled seal/open round-trip mismatch")
	}
	crypto.PutCryptoBuffer(sealed)
}
