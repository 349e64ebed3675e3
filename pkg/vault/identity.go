package vault

import (
	"time"

	"github.com/google/uuid"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/crypto"
	"github.com/volli/core/pkg/hybrid"
)

// NewIdentity creates an identity wrapping a fresh hybrid key bundle's
// public half. The caller owns the private KeyBundle and is responsible
// for sealing it into a PortableBackup before it goes out of scope.
func NewIdentity(displayName string, public *hybrid.PublicBundle) *Identity {
	return &Identity{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Public:      public,
		CreatedAt:   time.Now(),
		Devices:     make(map[string]*DeviceKey),
	}
}

// AddDevice registers a device under the identity at the given trust
// level. A device re-added with the same ID updates its label/public key
// and bumps LastSeen rather than creating a duplicate entry.
func (id *Identity) AddDevice(label string, public *hybrid.PublicBundle, trust constants.TrustLevel) *DeviceKey {
	dev := &DeviceKey{
		DeviceID: uuid.NewString(),
		Label:    label,
		Public:   public,
		Trust:    trust,
		AddedAt:  time.Now(),
		LastSeen: time.Now(),
	}
	id.Devices[dev.DeviceID] = dev
	return dev
}

// RemoveDevice revokes a device's standing under the identity. An identity
// must always retain at least one device, so removing the last remaining
// device is rejected rather than leaving the identity device-less.
func (id *Identity) RemoveDevice(deviceID string) error {
	if _, ok := id.Devices[deviceID]; !ok {
		return cerrors.ErrDeviceNotFound
	}
	if len(id.Devices) <= 1 {
		return cerrors.NewVaultError("remove-device", cerrors.ErrInvalidArgument)
	}
	delete(id.Devices, deviceID)
	return nil
}

// UpdateDeviceTrust changes a device's trust level (e.g. promoting a
// device from NONE to VERIFIED after an out-of-band fingerprint check).
func (id *Identity) UpdateDeviceTrust(deviceID string, trust constants.TrustLevel) error {
	dev, ok := id.Devices[deviceID]
	if !ok {
		return cerrors.ErrDeviceNotFound
	}
	dev.Trust = trust
	return nil
}

// TouchDevice updates a device's LastSeen timestamp.
func (id *Identity) TouchDevice(deviceID string) error {
	dev, ok := id.Devices[deviceID]
	if !ok {
		return cerrors.ErrDeviceNotFound
	}
	dev.LastSeen = time.Now()
	return nil
}

// CleanupDevices prunes stale devices, returning the IDs removed. A device
// survives if it is the most recently seen device under the identity, was
// seen within the inactivity window, or holds at least VERIFIED trust. A
// zero value for inactivityDays uses constants.DefaultCleanupInactivityDays.
func (id *Identity) CleanupDevices(inactivityDays int) []string {
	if inactivityDays <= 0 {
		inactivityDays = constants.DefaultCleanupInactivityDays
	}
	cutoff := time.Now().AddDate(0, 0, -inactivityDays)

	var mostRecentID string
	var mostRecentSeen time.Time
	for devID, dev := range id.Devices {
		if dev.LastSeen.After(mostRecentSeen) {
			mostRecentSeen = dev.LastSeen
			mostRecentID = devID
		}
	}

	var removed []string
	for devID, dev := range id.Devices {
		if devID == mostRecentID {
			continue
		}
		if !dev.LastSeen.Before(cutoff) {
			continue
		}
		if dev.Trust >= constants.TrustVerified {
			continue
		}
		removed = append(removed, devID)
	}
	for _, devID := range removed {
		delete(id.Devices, devID)
	}
	return removed
}

// Fingerprint returns a BLAKE2b-256 fingerprint of the identity's public
// key bundle, for human-comparable verification (e.g. displayed as a
// hex string for two users to compare over a voice call).
func (id *Identity) Fingerprint() ([]byte, error) {
	pubBytes, err := id.Public.Bytes()
	if err != nil {
		return nil, err
	}
	return crypto.Fingerprint(pubBytes)
}

// Fingerprint returns a BLAKE2b-256 fingerprint of the device's public
// key bundle.
func (d *DeviceKey) Fingerprint() ([]byte, error) {
	pubBytes, err := d.Public.Bytes()
	if err != nil {
		return nil, err
	}
	return crypto.Fingerprint(pubBytes)
}
