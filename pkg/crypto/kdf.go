// kdf.go implements the key-derivation chain: HKDF-SHA-256 for combining
// and expanding shared secrets, Argon2id for password-based key
// derivation, and BLAKE2b for fingerprints.
//
// Mathematical Foundation:
//
// HKDF (RFC 5869) is an extract-and-expand construction built on HMAC:
//
//	PRK  = HMAC-SHA256(salt, input_key_material)
//	OKM  = HKDF-Expand(PRK, info, output_len)
//
// Extract collapses non-uniform input entropy (e.g. an X25519/ML-KEM
// shared secret pair) into a uniform pseudorandom key; expand derives
// any number of independent subkeys from it via domain-separated info
// strings, so the hybrid KEM's two component secrets can be combined
// into one key without either secret alone determining the output.
//
// Argon2id (RFC 9106) is a memory-hard password-hashing function: it
// combines Argon2i's side-channel resistance with Argon2d's GPU/ASIC
// resistance, making password-derived vault keys expensive to brute force
// even given the password's full character space.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// DeriveHybridSecret combines the classical and post-quantum component
// secrets of the hybrid KEM into a single 32-byte shared secret.
//
// If EITHER the X25519 or the ML-KEM component remains unbroken, the
// output stays indistinguishable from random: HKDF-Extract binds both
// secrets into the same PRK, so no subset of one component's bits can be
// recovered without knowledge of the whole combined input.
func DeriveHybridSecret(x25519Secret, pqSecret []byte) ([]byte, error) {
	if len(x25519Secret) != constants.X25519SharedSecretSize {
		return nil, cerrors.NewCryptoError("DeriveHybridSecret", cerrors.ErrInvalidKeySize)
	}
	if len(pqSecret) != constants.MLKEMSharedSecretSize {
		return nil, cerrors.NewCryptoError("DeriveHybridSecret", cerrors.ErrInvalidKeySize)
	}

	ikm := make([]byte, 0, len(x25519Secret)+len(pqSecret))
	ikm = append(ikm, x25519Secret...)
	ikm = append(ikm, pqSecret...)

	return hkdfSHA256(ikm, []byte(constants.HybridKEMSalt), []byte(constants.HybridKEMInfo), constants.HybridSharedSecretSize)
}

// DeriveSubkey expands a master key into an independent subkey bound to a
// fixed-width context label, so distinct subsystems sharing one master
// key (vault-encryption key vs. backup-wrapping key, for instance) never
// see each other's key material.
func DeriveSubkey(masterKey []byte, context string) ([]byte, error) {
	if len(context) > constants.SubkeyContextSize {
		return nil, cerrors.NewCryptoError("DeriveSubkey", cerrors.ErrInvalidArgument)
	}

	info := make([]byte, constants.SubkeyContextSize)
	copy(info, context)

	return hkdfSHA256(masterKey, nil, info, constants.HKDFOutputSize)
}

func hkdfSHA256(secret, salt, info []byte, outputLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	out := make([]byte, outputLen)
	if _, err := reader.Read(out); err != nil {
		return nil, cerrors.NewCryptoError("hkdfSHA256", err)
	}
	return out, nil
}

// Argon2Params configures the Argon2id password-hashing work factors.
type Argon2Params struct {
	// OpsLimit is the number of iterations.
	OpsLimit uint32

	// MemLimitKiB is the memory usage in kibibytes.
	MemLimitKiB uint32

	// Threads is the degree of parallelism.
	Threads uint8
}

// InteractiveArgon2Params returns the default work factors used to derive
// a key from a user's interactively-typed passphrase (spec: ~1s, >=64MiB).
func InteractiveArgon2Params() Argon2Params {
	return Argon2Params{
		OpsLimit:    constants.Argon2InteractiveOpsLimit,
		MemLimitKiB: constants.Argon2InteractiveMemLimitKiB,
		Threads:     constants.Argon2InteractiveThreads,
	}
}

// EmergencyArgon2Params returns the relaxed work factors used for
// emergency-code-derived keys (spec: ~0.5s, 16MiB), which trade off some
// brute-force resistance for usability under time pressure.
func EmergencyArgon2Params() Argon2Params {
	return Argon2Params{
		OpsLimit:    constants.Argon2EmergencyOpsLimit,
		MemLimitKiB: constants.Argon2EmergencyMemLimitKiB,
		Threads:     constants.Argon2EmergencyThreads,
	}
}

// DerivePasswordKey derives a 32-byte key from a password and salt using
// Argon2id with the given work factors.
func DerivePasswordKey(password, salt []byte, params Argon2Params) ([]byte, error) {
	if len(password) < constants.MinPasswordLength {
		return nil, cerrors.NewCryptoError("DerivePasswordKey", cerrors.ErrInvalidArgument)
	}
	if len(salt) == 0 {
		return nil, cerrors.NewCryptoError("DerivePasswordKey", cerrors.ErrInvalidArgument)
	}

	key := argon2.IDKey(password, salt, params.OpsLimit, params.MemLimitKiB, params.Threads, constants.AEADKeySize)
	return key, nil
}

// GenerateSalt returns a fresh random Argon2 salt.
func GenerateSalt(size int) ([]byte, error) {
	return SecureRandomBytes(size)
}

// Fingerprint computes a BLAKE2b-256 digest of public key material,
// suitable for human-comparable device/identity fingerprints.
func Fingerprint(data []byte) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, cerrors.NewCryptoError("Fingerprint", err)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// KeyedFingerprint computes a BLAKE2b-256 MAC over data using key, used to
// index emergency codes without storing them in recoverable form.
func KeyedFingerprint(key, data []byte) ([]byte, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return nil, cerrors.NewCryptoError("KeyedFingerprint", err)
	}
	h.Write(data)
	return h.Sum(nil), nil
}
