// Package vault implements the offline identity vault: identities, their
// device keys and trust levels, portable encrypted backups, and recovery
// by passphrase or key file. RecoveryEmergencyCode names an emergency-code
// method, but the package has no emergency-code recovery path.
package vault

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/hybrid"
)

// Identity is a self-contained cryptographic identity: a hybrid key
// bundle plus the set of devices that have been granted some trust level
// under it.
type Identity struct {
	ID          string
	DisplayName string
	Public      *hybrid.PublicBundle
	CreatedAt   time.Time

	Devices map[string]*DeviceKey
}

// DeviceKey is a device's own hybrid key bundle, scoped under an identity
// with a trust level that gates what the device may do on the identity's
// behalf.
type DeviceKey struct {
	DeviceID string
	Label    string
	Public   *hybrid.PublicBundle
	Trust    constants.TrustLevel
	AddedAt  time.Time
	LastSeen time.Time
}

// RecoveryMethod identifies which multi-factor path unlocked a backup.
type RecoveryMethod int

const (
	RecoveryPassphrase RecoveryMethod = iota
	RecoveryKeyFile
	RecoveryEmergencyCode
)

func (m RecoveryMethod) String() string {
	switch m {
	case RecoveryPassphrase:
		return "PASSPHRASE"
	case RecoveryKeyFile:
		return "KEY_FILE"
	case RecoveryEmergencyCode:
		return "EMERGENCY_CODE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes a RecoveryMethod as its name, so a recoveryMethods
// array in a portable backup reads as e.g. ["PASSPHRASE"] rather than a
// bare integer.
func (m RecoveryMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (m *RecoveryMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "PASSPHRASE":
		*m = RecoveryPassphrase
	case "KEY_FILE":
		*m = RecoveryKeyFile
	case "EMERGENCY_CODE":
		*m = RecoveryEmergencyCode
	default:
		return cerrors.ErrInvalidArgument
	}
	return nil
}

// JSONBytes marshals as a JSON array of unsigned integers rather than
// encoding/json's default base64 string, matching a portable backup's
// on-disk byte representation.
type JSONBytes []byte

// MarshalJSON renders b as e.g. [1,2,3], and nil as [].
func (b JSONBytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	out = append(out, ']')
	return out, nil
}

// UnmarshalJSON accepts the array form produced by MarshalJSON.
func (b *JSONBytes) UnmarshalJSON(data []byte) error {
	var ints []uint8
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	*b = ints
	return nil
}

// BackupRecoveryHints is the plaintext, non-secret portion of a portable
// backup: material a caller can inspect to understand how the backup may
// be recovered without attempting any decryption. Salt is the Argon2id
// salt for a passphrase-sealed backup; UnencryptedKey carries the raw
// AEAD key in the clear for a backup sealed under the unencrypted-backup
// convention (physical possession of the backup is the only factor).
type BackupRecoveryHints struct {
	PassphraseHint      string           `json:"passphraseHint,omitempty"`
	KeyFileFingerprint  JSONBytes        `json:"keyFileFingerprint,omitempty"`
	EmergencyCodeExists bool             `json:"emergencyCodeExists"`
	Salt                JSONBytes        `json:"salt,omitempty"`
	UnencryptedKey      JSONBytes        `json:"unencryptedKey,omitempty"`
	RecoveryMethods     []RecoveryMethod `json:"recoveryMethods"`
}

// BackupMetadata is the plaintext descriptive portion of a portable
// backup.
type BackupMetadata struct {
	DisplayName     string    `json:"displayName"`
	DeviceCount     int       `json:"deviceCount"`
	CreatedAt       time.Time `json:"createdAt"`
	FingerprintHash JSONBytes `json:"fingerprintHash"`
}

// PortableBackup is the encrypted, self-contained export of an identity's
// key bundle, suitable for offline storage (paper, USB, a second
// device). The identity and private key are sealed as two independent
// AEAD records (each `nonce(24) || ciphertext`) rather than one combined
// blob, so RecoveryHints and Metadata stay plaintext and readable
// without decrypting anything.
type PortableBackup struct {
	Version    int       `json:"version"`
	IdentityID string    `json:"id"`
	CreatedAt  time.Time `json:"timestamp"`

	EncryptedIdentity   JSONBytes `json:"encryptedIdentity"`
	EncryptedPrivateKey JSONBytes `json:"encryptedPrivateKey"`

	RecoveryHints BackupRecoveryHints `json:"recoveryHints"`
	Metadata      BackupMetadata      `json:"metadata"`

	// Checksum is BLAKE2b-256 over the backup with this field zeroed,
	// computed last and verified first.
	Checksum JSONBytes `json:"checksum"`
}

// RecoveryAttempt records one attempt (successful or not) to recover a
// backup, for the bounded audit ring kept per identity.
type RecoveryAttempt struct {
	Method    RecoveryMethod
	Success   bool
	Timestamp time.Time
	Detail    string
}
