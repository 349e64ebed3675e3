// Package errors defines custom error types for the hybrid post-quantum
// crypto core and offline identity vault. These errors provide detailed
// information for debugging while maintaining security by not leaking
// sensitive key material in error messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for argument validation and key/ciphertext shapes.
var (
	// ErrInvalidArgument indicates a caller supplied a malformed or
	// out-of-range argument.
	ErrInvalidArgument = errors.New("crypto: invalid argument")

	// ErrInvalidKeySize indicates that a key has an incorrect size.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidCiphertext indicates that ciphertext is malformed, truncated,
	// or carries an unsupported wire tag.
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")

	// ErrInvalidSignature indicates a signature is malformed or failed to
	// verify against the supplied message and public key.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)

// Sentinel errors for cryptographic operations.
var (
	// ErrDecrypt indicates AEAD authentication or decryption failed.
	ErrDecrypt = errors.New("crypto: decryption failed")

	// ErrKemFailed indicates KEM key generation, encapsulation, or
	// decapsulation failed.
	ErrKemFailed = errors.New("crypto: kem operation failed")

	// ErrSigFailed indicates signature generation failed.
	ErrSigFailed = errors.New("crypto: signature operation failed")

	// ErrNonceExhausted indicates nonce space is exhausted for the current key.
	ErrNonceExhausted = errors.New("crypto: nonce space exhausted, rekey required")
)

// Sentinel errors for vault and backup operations.
var (
	// ErrChecksumMismatch indicates a portable backup or vault export failed
	// its integrity check.
	ErrChecksumMismatch = errors.New("vault: checksum mismatch")

	// ErrRecoveryFailed indicates a recovery attempt (passphrase, key-file,
	// or emergency code) failed to unlock a portable backup.
	ErrRecoveryFailed = errors.New("vault: recovery failed")

	// ErrIdentityNotFound indicates no identity exists for the given handle.
	ErrIdentityNotFound = errors.New("vault: identity not found")

	// ErrDeviceNotFound indicates no device key exists for the given handle.
	ErrDeviceNotFound = errors.New("vault: device not found")

	// ErrBackupExpired indicates a portable backup's expiry time has passed.
	ErrBackupExpired = errors.New("vault: backup expired")
)

// Sentinel errors for emergency access.
var (
	// ErrAccessLevelDenied indicates the requested capability exceeds the
	// session's granted access level.
	ErrAccessLevelDenied = errors.New("emergency: access level denied")

	// ErrSessionNotFound indicates no emergency session exists for the
	// given handle.
	ErrSessionNotFound = errors.New("emergency: session not found")

	// ErrSessionExpired indicates the emergency session's time bound has
	// passed.
	ErrSessionExpired = errors.New("emergency: session expired")

	// ErrDeadManSwitchArmed indicates an action was rejected because the
	// dead-man switch has already fired.
	ErrDeadManSwitchArmed = errors.New("emergency: dead-man switch engaged")
)

// Sentinel errors for provider and fallback-engine operations.
var (
	// ErrProviderUnavailable indicates a single provider could not service
	// a request.
	ErrProviderUnavailable = errors.New("provider: unavailable")

	// ErrAllProvidersFailed indicates every provider in a fallback chain
	// failed to service a request.
	ErrAllProvidersFailed = errors.New("provider: all providers failed")

	// ErrCircuitOpen indicates a provider's circuit breaker is open and
	// rejecting requests.
	ErrCircuitOpen = errors.New("provider: circuit open")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("provider: operation timed out")

	// ErrCancelled indicates an operation's context was cancelled.
	ErrCancelled = errors.New("provider: operation cancelled")

	// ErrQueueFull indicates a worker pool's submission queue is at
	// capacity.
	ErrQueueFull = errors.New("provider: queue full")

	// ErrNoProviderRegistered indicates the registry has no provider
	// capable of the requested algorithm/capability pair.
	ErrNoProviderRegistered = errors.New("provider: no provider registered")
)

// ErrInternal indicates an invariant was violated that should be
// unreachable in correct operation.
var ErrInternal = errors.New("internal: invariant violated")

// CryptoError wraps a cryptographic error with operation context.
type CryptoError struct {
	Op  string // Operation that failed, e.g. "hybrid-kem-decapsulate"
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// VaultError wraps a vault or recovery error with operation context.
type VaultError struct {
	Op  string // Operation that failed, e.g. "recover-backup"
	Err error  // Underlying error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// NewVaultError creates a new VaultError.
func NewVaultError(op string, err error) *VaultError {
	return &VaultError{Op: op, Err: err}
}

// ProviderError wraps a provider or fallback-engine error with the
// provider identity that produced it.
type ProviderError struct {
	Provider string // Provider name that failed
	Err      error  // Underlying error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// EmergencyError wraps an emergency-access error with the session that
// produced it.
type EmergencyError struct {
	Session string // Session ID the error pertains to, if any
	Op      string // Operation that failed, e.g. "send-emergency-message"
	Err     error  // Underlying error
}

func (e *EmergencyError) Error() string {
	if e.Session == "" {
		return fmt.Sprintf("emergency %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("emergency %s (session %s): %v", e.Op, e.Session, e.Err)
}

func (e *EmergencyError) Unwrap() error {
	return e.Err
}

// NewEmergencyError creates a new EmergencyError.
func NewEmergencyError(op, session string, err error) *EmergencyError {
	return &EmergencyError{Op: op, Session: session, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
