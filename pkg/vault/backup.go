package vault

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/crypto"
	"github.com/volli/core/pkg/hybrid"
)

// identityJSON is the UTF-8 JSON wire shape of a sealed Identity: byte
// fields are arrays of unsigned integers rather than base64, matching
// the portable backup format.
type identityJSON struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	CreatedAt   time.Time    `json:"createdAt"`
	Public      JSONBytes    `json:"public"`
	Devices     []deviceJSON `json:"devices"`
}

type deviceJSON struct {
	DeviceID string               `json:"deviceId"`
	Label    string               `json:"label"`
	Public   JSONBytes            `json:"public"`
	Trust    constants.TrustLevel `json:"trust"`
	AddedAt  time.Time            `json:"addedAt"`
	LastSeen time.Time            `json:"lastSeen"`
}

// privateKeyJSON is the UTF-8 JSON wire shape of a sealed KeyBundle's
// private half.
type privateKeyJSON struct {
	X25519Private JSONBytes `json:"x25519Private"`
	MLKEMPrivate  JSONBytes `json:"mlkemPrivate"`
	SigPrivate    JSONBytes `json:"sigPrivate"`
}

// CreateBackup seals identity and bundle into a PortableBackup as two
// independent AEAD records (encryptedIdentity, encryptedPrivateKey),
// alongside plaintext RecoveryHints and Metadata a caller can inspect
// without decrypting anything. The sealing key is derived from passphrase
// via Argon2id over a fresh salt.
func CreateBackup(identity *Identity, bundle *hybrid.KeyBundle, passphraseHint, passphrase string) (*PortableBackup, error) {
	salt, err := crypto.GenerateSalt(constants.Argon2InteractiveSaltSize)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}

	key, err := crypto.DerivePasswordKey([]byte(passphrase), salt, crypto.InteractiveArgon2Params())
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	defer crypto.Zeroize(key)

	backup, err := sealBackup(identity, bundle, key)
	if err != nil {
		return nil, err
	}
	backup.RecoveryHints = BackupRecoveryHints{
		PassphraseHint:  passphraseHint,
		Salt:            salt,
		RecoveryMethods: []RecoveryMethod{RecoveryPassphrase},
	}

	return finalizeBackup(backup)
}

// CreateUnencryptedBackup seals identity and bundle with a freshly
// generated random key that travels inside the backup's plaintext
// RecoveryHints rather than behind a passphrase: the unencrypted-backup
// convention, where physical possession of the backup file is the only
// recovery factor.
func CreateUnencryptedBackup(identity *Identity, bundle *hybrid.KeyBundle) (*PortableBackup, error) {
	key, err := crypto.GenerateSalt(constants.AEADKeySize)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	defer crypto.Zeroize(key)

	backup, err := sealBackup(identity, bundle, key)
	if err != nil {
		return nil, err
	}
	backup.RecoveryHints = BackupRecoveryHints{
		UnencryptedKey: key,
	}

	return finalizeBackup(backup)
}

func sealBackup(identity *Identity, bundle *hybrid.KeyBundle, key []byte) (*PortableBackup, error) {
	identityPlain, err := serializeIdentityJSON(identity)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	privatePlain, err := serializePrivateKeyJSON(bundle)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}

	aead, err := crypto.NewAEAD(key)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}

	encryptedIdentity, err := aead.Seal(identityPlain, []byte(identity.ID))
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	encryptedPrivateKey, err := aead.Seal(privatePlain, []byte(identity.ID))
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}

	fingerprint, err := identity.Fingerprint()
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	fingerprintHash, err := crypto.Fingerprint(fingerprint)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}

	return &PortableBackup{
		Version:             constants.PortableBackupVersion,
		IdentityID:          identity.ID,
		CreatedAt:           time.Now(),
		EncryptedIdentity:   encryptedIdentity,
		EncryptedPrivateKey: encryptedPrivateKey,
		Metadata: BackupMetadata{
			DisplayName:     identity.DisplayName,
			DeviceCount:     len(identity.Devices),
			CreatedAt:       identity.CreatedAt,
			FingerprintHash: fingerprintHash[:8],
		},
	}, nil
}

func finalizeBackup(backup *PortableBackup) (*PortableBackup, error) {
	checksum, err := backupChecksum(backup)
	if err != nil {
		return nil, cerrors.NewVaultError("create-backup", err)
	}
	backup.Checksum = checksum
	return backup, nil
}

// VerifyBackup recomputes the backup's checksum over its contents with
// Checksum zeroed and compares it to the stored value, detecting any
// tampering or corruption before an expensive Argon2id derivation is
// attempted.
func VerifyBackup(backup *PortableBackup) error {
	want, err := backupChecksum(backup)
	if err != nil {
		return cerrors.NewVaultError("verify-backup", err)
	}
	if !bytes.Equal(want, backup.Checksum) {
		return cerrors.ErrChecksumMismatch
	}
	return nil
}

// RecoverBackup verifies and decrypts a passphrase-sealed backup,
// returning the restored identity (devices, trust levels, and display
// name intact) and its private key bundle.
func RecoverBackup(backup *PortableBackup, passphrase string) (*Identity, *hybrid.KeyBundle, error) {
	if err := VerifyBackup(backup); err != nil {
		return nil, nil, err
	}

	key, err := crypto.DerivePasswordKey([]byte(passphrase), backup.RecoveryHints.Salt, crypto.InteractiveArgon2Params())
	if err != nil {
		return nil, nil, cerrors.NewVaultError("recover-backup", err)
	}
	defer crypto.Zeroize(key)

	return openBackup(backup, key)
}

// RecoverUnencryptedBackup verifies and decrypts a backup sealed under the
// unencrypted-backup convention, using the raw key the backup's own
// RecoveryHints advertise rather than a passphrase.
func RecoverUnencryptedBackup(backup *PortableBackup) (*Identity, *hybrid.KeyBundle, error) {
	if err := VerifyBackup(backup); err != nil {
		return nil, nil, err
	}
	if len(backup.RecoveryHints.UnencryptedKey) == 0 {
		return nil, nil, cerrors.ErrRecoveryFailed
	}

	key := append([]byte(nil), backup.RecoveryHints.UnencryptedKey...)
	defer crypto.Zeroize(key)

	return openBackup(backup, key)
}

func openBackup(backup *PortableBackup, key []byte) (*Identity, *hybrid.KeyBundle, error) {
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		return nil, nil, cerrors.NewVaultError("recover-backup", err)
	}

	identityPlain, err := aead.Open(backup.EncryptedIdentity, []byte(backup.IdentityID))
	if err != nil {
		// Tag failure surfaces as Decrypt, distinct from RecoveryFailed, so
		// callers can tell "wrong key/tampered ciphertext" apart from
		// other recovery failure modes.
		return nil, nil, cerrors.ErrDecrypt
	}
	identity, err := deserializeIdentityJSON(identityPlain)
	if err != nil {
		return nil, nil, err
	}

	privatePlain, err := aead.Open(backup.EncryptedPrivateKey, []byte(backup.IdentityID))
	if err != nil {
		return nil, nil, cerrors.ErrDecrypt
	}
	bundle, err := deserializePrivateKeyJSON(privatePlain, identity.Public)
	if err != nil {
		return nil, nil, err
	}

	return identity, bundle, nil
}

// backupChecksum computes BLAKE2b-256 over the backup's JSON encoding
// with Checksum treated as empty, regardless of its current value.
func backupChecksum(backup *PortableBackup) ([]byte, error) {
	clone := *backup
	clone.Checksum = nil
	data, err := json.Marshal(clone)
	if err != nil {
		return nil, err
	}
	return crypto.Fingerprint(data)
}

func serializeIdentityJSON(identity *Identity) ([]byte, error) {
	publicBytes, err := identity.Public.Bytes()
	if err != nil {
		return nil, err
	}

	dto := identityJSON{
		ID:          identity.ID,
		DisplayName: identity.DisplayName,
		CreatedAt:   identity.CreatedAt,
		Public:      publicBytes,
		Devices:     make([]deviceJSON, 0, len(identity.Devices)),
	}
	for _, dev := range identity.Devices {
		devPublicBytes, err := dev.Public.Bytes()
		if err != nil {
			return nil, err
		}
		dto.Devices = append(dto.Devices, deviceJSON{
			DeviceID: dev.DeviceID,
			Label:    dev.Label,
			Public:   devPublicBytes,
			Trust:    dev.Trust,
			AddedAt:  dev.AddedAt,
			LastSeen: dev.LastSeen,
		})
	}

	return json.Marshal(dto)
}

func deserializeIdentityJSON(data []byte) (*Identity, error) {
	var dto identityJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, cerrors.NewVaultError("deserialize-identity", cerrors.ErrInvalidArgument)
	}

	public, err := hybrid.ParsePublicBundle(dto.Public)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:          dto.ID,
		DisplayName: dto.DisplayName,
		Public:      public,
		CreatedAt:   dto.CreatedAt,
		Devices:     make(map[string]*DeviceKey, len(dto.Devices)),
	}
	for _, dev := range dto.Devices {
		devPublic, err := hybrid.ParsePublicBundle(dev.Public)
		if err != nil {
			return nil, err
		}
		identity.Devices[dev.DeviceID] = &DeviceKey{
			DeviceID: dev.DeviceID,
			Label:    dev.Label,
			Public:   devPublic,
			Trust:    dev.Trust,
			AddedAt:  dev.AddedAt,
			LastSeen: dev.LastSeen,
		}
	}

	return identity, nil
}

func serializePrivateKeyJSON(bundle *hybrid.KeyBundle) ([]byte, error) {
	sigPrivBytes, err := bundle.Signature.PrivateBytes()
	if err != nil {
		return nil, err
	}

	dto := privateKeyJSON{
		X25519Private: bundle.KEM.X25519PrivateBytes(),
		MLKEMPrivate:  bundle.KEM.MLKEMPrivateBytes(),
		SigPrivate:    sigPrivBytes,
	}
	return json.Marshal(dto)
}

func deserializePrivateKeyJSON(data []byte, public *hybrid.PublicBundle) (*hybrid.KeyBundle, error) {
	var dto privateKeyJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, cerrors.NewVaultError("deserialize-private-key", cerrors.ErrInvalidArgument)
	}

	kemKP, err := hybrid.RebuildKEMKeyPair(public.KEM, dto.X25519Private, dto.MLKEMPrivate)
	if err != nil {
		return nil, err
	}
	sigKP, err := hybrid.RebuildSignatureKeyPair(public.Signature, dto.SigPrivate)
	if err != nil {
		return nil, err
	}

	return &hybrid.KeyBundle{KEM: kemKP, Signature: sigKP}, nil
}
