// Package constants defines security parameters and wire-format sizes for
// the hybrid post-quantum crypto core and offline identity vault.
package constants

// Module identification
const (
	// CoreName is used for domain separation in key derivation.
	CoreName = "volli-core-v1"
)

// ML-KEM-768 Parameters (NIST FIPS 203)
const (
	// MLKEMPublicKeySize is the size of an ML-KEM-768 encapsulation key in bytes.
	MLKEMPublicKeySize = 1184

	// MLKEMPrivateKeySize is the size of an ML-KEM-768 decapsulation key in bytes.
	MLKEMPrivateKeySize = 2400

	// MLKEMCiphertextSize is the size of an ML-KEM-768 ciphertext in bytes.
	MLKEMCiphertextSize = 1088

	// MLKEMSharedSecretSize is the size of the shared secret from ML-KEM in bytes.
	MLKEMSharedSecretSize = 32
)

// ML-DSA-65 Parameters (NIST FIPS 204)
const (
	// MLDSAPublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSAPublicKeySize = 1952

	// MLDSAPrivateKeySize is the size of an ML-DSA-65 private key in bytes.
	MLDSAPrivateKeySize = 4032

	// MLDSASignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSASignatureSize = 3309
)

// X25519 Parameters (RFC 7748)
const (
	X25519PublicKeySize    = 32
	X25519PrivateKeySize   = 32
	X25519SharedSecretSize = 32
)

// Ed25519 Parameters (RFC 8032)
const (
	Ed25519PublicKeySize  = 32
	Ed25519PrivateKeySize = 64 // seed || public, matches crypto/ed25519 convention
	Ed25519SignatureSize  = 64
)

// Hybrid KEM wire format
const (
	// HybridCiphertextLenPrefixSize is the size of the little-endian pqLen prefix.
	HybridCiphertextLenPrefixSize = 4

	// HybridCiphertextSize is the total size of a full hybrid ciphertext:
	// u32_le pqLen || pq[1088] || ephX25519[32].
	HybridCiphertextSize = HybridCiphertextLenPrefixSize + MLKEMCiphertextSize + X25519PublicKeySize

	// HybridLegacyCiphertextSize is the size of a classical-only (legacy)
	// ciphertext with no length prefix.
	HybridLegacyCiphertextSize = X25519PublicKeySize

	// HybridSharedSecretSize is the size of the final derived shared secret.
	HybridSharedSecretSize = 32

	// HybridKEMSalt is the HKDF salt used for hybrid shared-secret extraction.
	HybridKEMSalt = "volly-hybrid-kem-v1"

	// HybridKEMInfo is the HKDF info used for hybrid shared-secret expansion.
	HybridKEMInfo = "shared-secret"
)

// Hybrid signature wire format
const (
	// HybridSignatureSize is the total size of a hybrid signature:
	// ed25519Sig[64] || mldsa65Sig[3309].
	HybridSignatureSize = Ed25519SignatureSize + MLDSASignatureSize
)

// AEAD Parameters (XChaCha20-Poly1305, RFC 8439 / draft-irtf-cfrg-xchacha)
const (
	// AEADKeySize is the size of XChaCha20-Poly1305 keys in bytes.
	AEADKeySize = 32

	// AEADNonceSize is the size of the XChaCha20-Poly1305 extended nonce in bytes.
	AEADNonceSize = 24

	// AEADTagSize is the size of the Poly1305 authentication tag in bytes.
	AEADTagSize = 16
)

// Key Derivation Parameters
const (
	// HKDFOutputSize is the default HKDF-SHA-256 output size in bytes.
	HKDFOutputSize = 32

	// SubkeyContextSize is the zero-padded size of a deriveSubkey context string.
	SubkeyContextSize = 8

	// FingerprintHashSize is the size of the BLAKE2b fingerprint digest in bytes.
	FingerprintHashSize = 32

	// MinPasswordLength is the minimum accepted password/passphrase length.
	MinPasswordLength = 8
)

// Argon2id interactive defaults: target ~1s, >=64MiB.
const (
	Argon2InteractiveOpsLimit    = 3
	Argon2InteractiveMemLimitKiB = 64 * 1024
	Argon2InteractiveThreads     = 4
	Argon2InteractiveSaltSize    = 16
)

// Argon2id emergency-KDF relaxed defaults: ~0.5s, 16MiB.
const (
	Argon2EmergencyOpsLimit    = 2
	Argon2EmergencyMemLimitKiB = 16 * 1024
	Argon2EmergencyThreads     = 2
)

// Identity / device model
const (
	// MaxRecoveryAttemptLogSize bounds the recovery-attempt ring.
	MaxRecoveryAttemptLogSize = 100

	// DefaultCleanupInactivityDays is the default device-cleanup window (§4.6.1).
	DefaultCleanupInactivityDays = 90

	// PortableBackupVersion is the current portable-backup wire version (§6.1).
	PortableBackupVersion = 1

	// VaultExportVersion is the current vault-export wire version (§6.1).
	VaultExportVersion = 1

	// EmergencyCodeMinLength is the minimum length of an emergency code (§4.7).
	EmergencyCodeMinLength = 16

	// EmergencyCodeMaxSkewSeconds bounds how far an emergency code's
	// timestamp may drift from "now" before it is rejected (§4.7).
	EmergencyCodeMaxSkewSeconds = 300
)

// TrustLevel identifies how much a device is trusted within an identity.
type TrustLevel int

const (
	TrustNone TrustLevel = iota
	TrustDevice
	TrustVerified
	TrustTrusted
)

// String returns a human-readable trust level name.
func (t TrustLevel) String() string {
	switch t {
	case TrustNone:
		return "NONE"
	case TrustDevice:
		return "DEVICE"
	case TrustVerified:
		return "VERIFIED"
	case TrustTrusted:
		return "TRUSTED"
	default:
		return "UNKNOWN"
	}
}

// SecurityLevel reports which half(s) of a hybrid primitive contributed.
type SecurityLevel int

const (
	SecurityFull SecurityLevel = iota
	SecurityClassicalOnly
	SecurityPostQuantumOnly
	SecurityFailed
)

// String returns a human-readable security level name.
func (s SecurityLevel) String() string {
	switch s {
	case SecurityFull:
		return "FULL"
	case SecurityClassicalOnly:
		return "CLASSICAL_ONLY"
	case SecurityPostQuantumOnly:
		return "POST_QUANTUM_ONLY"
	case SecurityFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// CircuitState identifies a fallback circuit breaker's state.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String returns a human-readable circuit state name.
func (c CircuitState) String() string {
	switch c {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// HealthStatus identifies the fallback engine's overall health.
type HealthStatus int

const (
	HealthHealthy HealthStatus = iota
	HealthDegraded
	HealthUnhealthy
)

// String returns a human-readable health status name.
func (h HealthStatus) String() string {
	switch h {
	case HealthHealthy:
		return "HEALTHY"
	case HealthDegraded:
		return "DEGRADED"
	case HealthUnhealthy:
		return "UNHEALTHY"
	default:
		return "UNKNOWN"
	}
}

// AccessLevel identifies an emergency session's capability tier.
type AccessLevel int

const (
	AccessMinimal AccessLevel = iota
	AccessLimited
	AccessStandard
	AccessExtended
)

// String returns a human-readable access level name.
func (a AccessLevel) String() string {
	switch a {
	case AccessMinimal:
		return "MINIMAL"
	case AccessLimited:
		return "LIMITED"
	case AccessStandard:
		return "STANDARD"
	case AccessExtended:
		return "EXTENDED"
	default:
		return "UNKNOWN"
	}
}

// Fallback engine defaults.
const (
	DefaultPrimaryTimeoutMs        = 5000
	DefaultFallbackTimeoutMs       = 10000
	DefaultCircuitWindowMs         = 60000
	DefaultCooldownMs              = 30000
	DefaultFailureThreshold        = 5
	DefaultSuccessThreshold        = 3
	DefaultPerformanceThresholdPct = 200
	DefaultMaxRetries              = 3
	DefaultRetryDelayMs            = 1000
	DefaultHealthCheckIntervalMs   = 30000

	DefaultRolloutTimeoutMs = 5000
	DefaultRolloutPercent   = 10
	MetricRingCapacity      = 1000
)
