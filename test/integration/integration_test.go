// Package integration provides end-to-end integration tests exercising
// the hybrid primitives, identity vault, and emergency-access manager
// together, the way a caller assembling the whole crypto core would.
package integration

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/emergency"
	"github.com/volli/core/pkg/hybrid"
	"github.com/volli/core/pkg/vault"
)

// TestCreateBackupRecoverAndSign creates an identity, backs it up,
// recovers it by passphrase, and confirms the recovered key can sign a
// message the original public key verifies.
func TestCreateBackupRecoverAndSign(t *testing.T) {
	v := vault.New()

	identity, bundle, backup, err := v.CreateIdentityWithRecovery("Phone", map[string]string{"owner": "Alice"}, "correct horse battery staple")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	defer bundle.Zeroize()

	if backup.IdentityID != identity.ID {
		t.Fatalf("backup identity id %q does not match identity id %q", backup.IdentityID, identity.ID)
	}

	recoveredIdentity, recoveredBundle, err := v.RecoverFromPassphrase(identity.ID, "correct horse battery staple")
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	defer recoveredBundle.Zeroize()

	wantFP, err := identity.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	gotFP, err := recoveredIdentity.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if string(gotFP) != string(wantFP) {
		t.Fatalf("recovered identity fingerprint does not match original")
	}

	sig, err := hybrid.Sign(recoveredBundle.Signature, []byte("ping"), nil)
	if err != nil {
		t.Fatalf("sign with recovered key: %v", err)
	}
	level, err := hybrid.Verify(bundle.Signature.PublicKey(), []byte("ping"), nil, sig)
	if err != nil {
		t.Fatalf("verify against original public key: %v", err)
	}
	if level != constants.SecurityFull {
		t.Fatalf("expected SecurityFull, got %v", level)
	}
}

// TestHybridKEMRoundTripAcrossTwoParties exercises the hybrid KEM as two
// independent identities would use it: Bob encapsulates to Alice's public
// bundle, Alice decapsulates, and both arrive at the same shared secret.
func TestHybridKEMRoundTripAcrossTwoParties(t *testing.T) {
	alice, err := hybrid.GenerateKeyBundle()
	if err != nil {
		t.Fatalf("generate alice: %v", err)
	}
	defer alice.Zeroize()

	ct, aliceSS, err := hybrid.Encapsulate(alice.KEM.PublicKey())
	if err != nil {
		t.Fatalf("encapsulate: %v", err)
	}

	bobSS, level, err := hybrid.Decapsulate(ct, alice.KEM)
	if err != nil {
		t.Fatalf("decapsulate: %v", err)
	}
	if level != constants.SecurityFull {
		t.Fatalf("expected SecurityFull, got %v", level)
	}
	if string(bobSS) != string(aliceSS) {
		t.Fatalf("shared secrets diverge across parties")
	}
}

// TestEmergencyAccessDenialAtMinimal activates DEVICE_LOSS at MINIMAL
// and confirms it rejects sending messages but still allows reading
// emergency-flagged ones.
func TestEmergencyAccessDenialAtMinimal(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	v := vault.New()
	identity, bundle, _, err := v.CreateIdentityWithRecovery("Phone", nil, "correct horse battery staple")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	defer bundle.Zeroize()

	plan := &emergency.Plan{
		OwnerID:           identity.ID,
		EmergencyContacts: []string{"contact-1"},
		Scenarios: map[emergency.Scenario]emergency.ScenarioConfig{
			emergency.ScenarioDeviceLoss: {
				Enabled:     true,
				AccessLevel: constants.AccessMinimal,
				TimeLimitMs: int64(time.Hour / time.Millisecond),
			},
		},
	}
	mgr := emergency.NewManager(plan, store, notifier, v, emergency.WithClock(clock))

	session, err := mgr.ActivateEmergencyRecovery(emergency.ScenarioDeviceLoss, nil, "Alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	if _, err := mgr.SendEmergencyMessage(session.ID, []string{"bob"}, "help", "high"); !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected AccessLevelDenied sending at MINIMAL, got %v", err)
	}

	_ = store.StoreMessage(&emergency.Message{ID: "m1", Content: "routine chatter", Timestamp: clock.now})
	_ = store.StoreMessage(&emergency.Message{ID: "m2", Content: "mayday", Emergency: true, Timestamp: clock.now})

	messages, err := mgr.GetEmergencyMessageAccess(session.ID, "")
	if err != nil {
		t.Fatalf("message access: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "m2" {
		t.Fatalf("expected only the emergency-flagged message, got %v", messages)
	}
}

// TestEmergencySessionExpiry exercises the boundary case where a
// session succeeds one millisecond before expiry and is rejected one
// millisecond after.
func TestEmergencySessionExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := &fakeStore{}
	v := vault.New()

	plan := &emergency.Plan{
		OwnerID: "owner-1",
		Scenarios: map[emergency.Scenario]emergency.ScenarioConfig{
			emergency.ScenarioDeviceLoss: {
				Enabled:     true,
				AccessLevel: constants.AccessStandard,
				TimeLimitMs: 10,
			},
		},
	}
	mgr := emergency.NewManager(plan, store, &fakeNotifier{}, v, emergency.WithClock(clock))

	session, err := mgr.ActivateEmergencyRecovery(emergency.ScenarioDeviceLoss, nil, "Alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	clock.advance(9 * time.Millisecond)
	if _, err := mgr.GetEmergencyMessageAccess(session.ID, ""); err != nil {
		t.Fatalf("expected access to succeed 1ms before expiry: %v", err)
	}

	clock.advance(2 * time.Millisecond)
	if _, err := mgr.GetEmergencyMessageAccess(session.ID, ""); !cerrors.Is(err, cerrors.ErrSessionExpired) {
		t.Fatalf("expected SessionExpired 1ms after expiry, got %v", err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.UnixMilli()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStore struct {
	mu       sync.Mutex
	messages []*emergency.Message
}

func (s *fakeStore) StoreMessage(msg *emergency.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeStore) GetMessages(filter emergency.MessageFilter) ([]*emergency.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*emergency.Message
	for _, msg := range s.messages {
		if filter.EmergencyOnly && !msg.Emergency && !msg.System {
			continue
		}
		if filter.Since != nil && msg.Timestamp.Before(*filter.Since) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *fakeStore) GetMessage(id string) (*emergency.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("message not found")
}

func (s *fakeStore) GetConversationMessages(conversationID string, limit int) ([]*emergency.Message, error) {
	return s.GetMessages(emergency.MessageFilter{ConversationID: conversationID})
}

func (s *fakeStore) SearchMessages(query string, filter *emergency.MessageFilter) ([]*emergency.Message, error) {
	return nil, nil
}

func (s *fakeStore) ExportMessages() ([]byte, error) { return []byte("messages"), nil }

func (s *fakeStore) ImportMessages(batch []byte) error { return nil }

func (s *fakeStore) GetStorageStats() (*emergency.StorageStats, error) {
	return &emergency.StorageStats{MessageCount: len(s.messages)}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) Notify(contactID string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, contactID)
	return nil
}
