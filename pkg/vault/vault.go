package vault

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/hybrid"
)

// RecoveryConfig describes which multi-factor recovery paths an identity
// was provisioned with at creation time.
type RecoveryConfig struct {
	IdentityID     string
	PassphraseHint string
	HasPassphrase  bool
	HasKeyFile     bool
	EmergencyCodes int
}

// Vault is the in-memory offline identity vault: maps from identity id
// to identity, to the held-in-memory private key bundle, to
// recovery configuration, and to encrypted backups, plus a bounded ring
// of recovery attempts. All mutation goes through a single mutex, matching
// the short-critical-section discipline the fallback engine and provider
// registry use elsewhere in this module.
type Vault struct {
	mu sync.Mutex

	identities  map[string]*Identity
	privateKeys map[string]*hybrid.KeyBundle
	configs     map[string]RecoveryConfig
	backups     map[string]*PortableBackup
	attempts    []RecoveryAttempt
}

// New creates an empty vault.
func New() *Vault {
	return &Vault{
		identities:  make(map[string]*Identity),
		privateKeys: make(map[string]*hybrid.KeyBundle),
		configs:     make(map[string]RecoveryConfig),
		backups:     make(map[string]*PortableBackup),
	}
}

// CreateIdentityWithRecovery generates a fresh hybrid identity, registers
// its first device at TRUSTED trust, and seals a portable backup for it.
// An empty passphrase seals the backup under the unencrypted-backup
// convention instead of a passphrase-derived key.
func (v *Vault) CreateIdentityWithRecovery(deviceName string, metadata map[string]string, passphrase string) (*Identity, *hybrid.KeyBundle, *PortableBackup, error) {
	bundle, err := hybrid.GenerateKeyBundle()
	if err != nil {
		return nil, nil, nil, cerrors.NewVaultError("create-identity", err)
	}

	identity := NewIdentity(deviceName, bundle.PublicBundle())
	identity.AddDevice(deviceName, bundle.PublicBundle(), constants.TrustTrusted)

	var backup *PortableBackup
	cfg := RecoveryConfig{IdentityID: identity.ID}
	if passphrase == "" {
		backup, err = CreateUnencryptedBackup(identity, bundle)
	} else {
		backup, err = CreateBackup(identity, bundle, metadata["passphraseHint"], passphrase)
		cfg.HasPassphrase = true
		cfg.PassphraseHint = metadata["passphraseHint"]
	}
	if err != nil {
		bundle.Zeroize()
		return nil, nil, nil, err
	}

	v.mu.Lock()
	v.identities[identity.ID] = identity
	v.privateKeys[identity.ID] = bundle
	v.backups[identity.ID] = backup
	v.configs[identity.ID] = cfg
	v.mu.Unlock()

	return identity, bundle, backup, nil
}

// GetIdentity returns the identity registered under id.
func (v *Vault) GetIdentity(id string) (*Identity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	identity, ok := v.identities[id]
	if !ok {
		return nil, cerrors.ErrIdentityNotFound
	}
	return identity, nil
}

// PrivateKey returns the in-memory private key bundle for id, if the
// vault currently holds one (recovered identities must be explicitly
// re-derived via a Recover* call).
func (v *Vault) PrivateKey(id string) (*hybrid.KeyBundle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	bundle, ok := v.privateKeys[id]
	if !ok {
		return nil, cerrors.ErrIdentityNotFound
	}
	return bundle, nil
}

// ExportIdentityBackup returns the stored portable backup's encoded form
// for id, the narrow surface the emergency manager consumes without
// depending on the emergency package.
func (v *Vault) ExportIdentityBackup(id string) ([]byte, error) {
	v.mu.Lock()
	backup, ok := v.backups[id]
	v.mu.Unlock()
	if !ok {
		return nil, cerrors.ErrIdentityNotFound
	}
	return json.Marshal(backup)
}

// RecoverFromPassphrase verifies and decrypts id's backup with passphrase,
// validates the recovered identity, records the attempt, and returns the
// restored identity (its original devices, trust levels, and display
// name) with a freshly owned key bundle.
func (v *Vault) RecoverFromPassphrase(id, passphrase string) (*Identity, *hybrid.KeyBundle, error) {
	v.mu.Lock()
	backup, ok := v.backups[id]
	v.mu.Unlock()
	if !ok {
		v.logAttempt(RecoveryAttempt{Method: RecoveryPassphrase, Success: false, Timestamp: time.Now(), Detail: "unknown identity"})
		return nil, nil, cerrors.ErrIdentityNotFound
	}

	identity, bundle, err := RecoverBackup(backup, passphrase)
	if err != nil {
		v.logAttempt(RecoveryAttempt{Method: RecoveryPassphrase, Success: false, Timestamp: time.Now(), Detail: err.Error()})
		return nil, nil, err
	}

	if err := ValidateIdentity(identity); err != nil {
		v.logAttempt(RecoveryAttempt{Method: RecoveryPassphrase, Success: false, Timestamp: time.Now(), Detail: err.Error()})
		return nil, nil, err
	}

	v.logAttempt(RecoveryAttempt{Method: RecoveryPassphrase, Success: true, Timestamp: time.Now()})
	return identity, bundle, nil
}

// RecoverFromKeyFile parses raw key-file bytes as an encoded PortableBackup
// and, when password is non-empty, delegates to passphrase recovery;
// otherwise it decrypts using the unencrypted-backup convention the
// backup's own RecoveryHints advertise.
func (v *Vault) RecoverFromKeyFile(data []byte, password string) (*Identity, *hybrid.KeyBundle, error) {
	var backup PortableBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		v.logAttempt(RecoveryAttempt{Method: RecoveryKeyFile, Success: false, Timestamp: time.Now(), Detail: "malformed key file"})
		return nil, nil, cerrors.NewVaultError("recover-key-file", cerrors.ErrInvalidArgument)
	}

	recoverFn := RecoverUnencryptedBackup
	if password != "" {
		recoverFn = func(b *PortableBackup) (*Identity, *hybrid.KeyBundle, error) {
			return RecoverBackup(b, password)
		}
	}

	identity, bundle, err := recoverFn(&backup)
	if err != nil {
		v.logAttempt(RecoveryAttempt{Method: RecoveryKeyFile, Success: false, Timestamp: time.Now(), Detail: err.Error()})
		return nil, nil, err
	}

	if err := ValidateIdentity(identity); err != nil {
		v.logAttempt(RecoveryAttempt{Method: RecoveryKeyFile, Success: false, Timestamp: time.Now(), Detail: err.Error()})
		return nil, nil, err
	}

	v.logAttempt(RecoveryAttempt{Method: RecoveryKeyFile, Success: true, Timestamp: time.Now()})
	return identity, bundle, nil
}

// logAttempt appends to the bounded recovery-attempt ring, trimming to
// the last MaxRecoveryAttemptLogSize entries.
func (v *Vault) logAttempt(attempt RecoveryAttempt) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attempts = append(v.attempts, attempt)
	if len(v.attempts) > constants.MaxRecoveryAttemptLogSize {
		v.attempts = v.attempts[len(v.attempts)-constants.MaxRecoveryAttemptLogSize:]
	}
}

// RecoveryAttempts returns a copy of the recovery-attempt log.
func (v *Vault) RecoveryAttempts() []RecoveryAttempt {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]RecoveryAttempt, len(v.attempts))
	copy(out, v.attempts)
	return out
}

// ValidateIdentity checks the structural invariants required of an
// identity: required fields populated, every public-key subfield at its
// fixed size, and at least one device present with the same
// per-subfield size check.
func ValidateIdentity(identity *Identity) error {
	if identity == nil || identity.ID == "" || identity.Public == nil {
		return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidArgument)
	}
	if err := validatePublicBundle(identity.Public); err != nil {
		return err
	}
	if len(identity.Devices) == 0 {
		return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidArgument)
	}
	for _, dev := range identity.Devices {
		if dev.Public == nil {
			return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidArgument)
		}
		if err := validatePublicBundle(dev.Public); err != nil {
			return err
		}
	}
	return nil
}

func validatePublicBundle(pb *hybrid.PublicBundle) error {
	if pb.KEM == nil || pb.Signature == nil {
		return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidKeySize)
	}
	kemBytes := pb.KEM.Bytes()
	wantKEM := constants.X25519PublicKeySize + constants.MLKEMPublicKeySize
	if len(kemBytes) != wantKEM {
		return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidKeySize)
	}
	sigBytes, err := pb.Signature.Bytes()
	if err != nil {
		return cerrors.NewVaultError("validate-identity", err)
	}
	if len(sigBytes) != constants.Ed25519PublicKeySize && len(sigBytes) != constants.Ed25519PublicKeySize+constants.MLDSAPublicKeySize {
		return cerrors.NewVaultError("validate-identity", cerrors.ErrInvalidKeySize)
	}
	return nil
}

// vaultExport is the JSON wire shape for ExportVaultData.
// Private keys are never present.
type vaultExport struct {
	VaultID          string            `json:"vaultId"`
	Identities       []*Identity       `json:"identities"`
	RecoveryConfigs  []RecoveryConfig  `json:"recoveryConfigs"`
	EncryptedBackups []*PortableBackup `json:"encryptedBackups"`
	Version          int               `json:"version"`
	ExportedAt       int64             `json:"exportedAt"`
}

// ExportVaultData serializes identities, recovery configs, and encrypted
// backups to JSON. Private keys are never included.
func (v *Vault) ExportVaultData(vaultID string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	export := vaultExport{
		VaultID:    vaultID,
		Version:    constants.VaultExportVersion,
		ExportedAt: time.Now().UnixMilli(),
	}
	for _, identity := range v.identities {
		export.Identities = append(export.Identities, identity)
	}
	for _, cfg := range v.configs {
		export.RecoveryConfigs = append(export.RecoveryConfigs, cfg)
	}
	for _, backup := range v.backups {
		export.EncryptedBackups = append(export.EncryptedBackups, backup)
	}

	return json.Marshal(export)
}

// ImportVaultData restores identities, recovery configs, and encrypted
// backups from a prior ExportVaultData call. Private keys are left empty;
// they must be re-derived via a Recover* call.
func (v *Vault) ImportVaultData(data []byte) (string, error) {
	var export vaultExport
	if err := json.Unmarshal(data, &export); err != nil {
		return "", cerrors.NewVaultError("import-vault", cerrors.ErrInvalidArgument)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.identities = make(map[string]*Identity, len(export.Identities))
	for _, identity := range export.Identities {
		v.identities[identity.ID] = identity
	}
	v.configs = make(map[string]RecoveryConfig, len(export.RecoveryConfigs))
	for _, cfg := range export.RecoveryConfigs {
		v.configs[cfg.IdentityID] = cfg
	}
	v.backups = make(map[string]*PortableBackup, len(export.EncryptedBackups))
	for _, backup := range export.EncryptedBackups {
		v.backups[backup.IdentityID] = backup
	}
	v.privateKeys = make(map[string]*hybrid.KeyBundle)

	return export.VaultID, nil
}
