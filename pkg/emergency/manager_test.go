package emergency

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

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
	messages []*Message
}

func (s *fakeStore) StoreMessage(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeStore) GetMessages(filter MessageFilter) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Message
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

func (s *fakeStore) GetMessage(id string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeStore) GetConversationMessages(conversationID string, limit int) ([]*Message, error) {
	return s.GetMessages(MessageFilter{ConversationID: conversationID})
}

func (s *fakeStore) SearchMessages(query string, filter *MessageFilter) ([]*Message, error) {
	return nil, nil
}

func (s *fakeStore) ExportMessages() ([]byte, error) { return []byte("messages"), nil }
func (s *fakeStore) ImportMessages(batch []byte) error { return nil }
func (s *fakeStore) GetStorageStats() (*StorageStats, error) { return &StorageStats{}, nil }

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

type fakeVault struct{}

func (fakeVault) ExportIdentityBackup(identityID string) ([]byte, error) {
	return []byte("backup-" + identityID), nil
}

func testPlan() *Plan {
	return &Plan{
		OwnerID:           "alice",
		EmergencyContacts: []string{"bob", "carol"},
		Scenarios: map[Scenario]ScenarioConfig{
			ScenarioDeviceLoss: {
				Enabled:              true,
				AccessLevel:          constants.AccessMinimal,
				TimeLimitMs:          1000,
				VerificationRequired: false,
				NotifyContacts:       true,
			},
			ScenarioAccountCompromise: {
				Enabled:              true,
				AccessLevel:          constants.AccessStandard,
				TimeLimitMs:          60_000,
				VerificationRequired: true,
			},
		},
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, *fakeStore, *fakeNotifier) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	m := NewManager(testPlan(), store, notifier, fakeVault{}, WithClock(clock))
	return m, clock, store, notifier
}

func TestActivateDisabledScenarioDenied(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	_, err := m.ActivateEmergencyRecovery("NO_SUCH_SCENARIO", nil, "alice")
	if !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected ErrAccessLevelDenied, got %v", err)
	}
}

func TestActivateNotifiesContacts(t *testing.T) {
	m, _, _, notifier := newTestManager(t)
	session, err := m.ActivateEmergencyRecovery(ScenarioDeviceLoss, nil, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if session.AccessLevel != constants.AccessMinimal {
		t.Fatalf("expected MINIMAL access, got %v", session.AccessLevel)
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.calls))
	}
}

// Emergency access denial at MINIMAL: sending is rejected, reading is
// restricted to emergency-flagged messages.
func TestMinimalAccessDeniesSendAndRestrictsRead(t *testing.T) {
	m, _, store, _ := newTestManager(t)
	session, err := m.ActivateEmergencyRecovery(ScenarioDeviceLoss, nil, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	store.messages = []*Message{
		{ID: "1", Content: "normal chatter"},
		{ID: "2", Content: "flagged", Emergency: true},
	}

	if _, err := m.SendEmergencyMessage(session.ID, []string{"bob"}, "help", "high"); !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected AccessLevelDenied, got %v", err)
	}

	msgs, err := m.GetEmergencyMessageAccess(session.ID, "")
	if err != nil {
		t.Fatalf("message access: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "2" {
		t.Fatalf("expected only the emergency-flagged message, got %+v", msgs)
	}
}

func TestCreateBackupDeniedAtMinimal(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	session, err := m.ActivateEmergencyRecovery(ScenarioDeviceLoss, nil, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := m.CreateEmergencyBackup(session.ID); !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected AccessLevelDenied, got %v", err)
	}
}

func TestStandardAccessCanBackupAndSend(t *testing.T) {
	m, clock, _, _ := newTestManager(t)
	creds := &Credentials{EmergencyCode: "ABCD-1234-EFGH-5678", Timestamp: time.UnixMilli(clock.NowMillis())}
	session, err := m.ActivateEmergencyRecovery(ScenarioAccountCompromise, creds, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	if _, err := m.SendEmergencyMessage(session.ID, []string{"bob"}, "status update", "normal"); err != nil {
		t.Fatalf("send: %v", err)
	}
	backup, err := m.CreateEmergencyBackup(session.ID)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if len(backup.IdentityBackup) == 0 || len(backup.MessageBackup) == 0 {
		t.Fatalf("expected non-empty backup payloads")
	}
}

func TestActivateRejectsBadCredentials(t *testing.T) {
	m, clock, _, _ := newTestManager(t)
	short := &Credentials{EmergencyCode: "TOO-SHORT", Timestamp: time.UnixMilli(clock.NowMillis())}
	if _, err := m.ActivateEmergencyRecovery(ScenarioAccountCompromise, short, "alice"); !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected denial for short code, got %v", err)
	}

	stale := &Credentials{EmergencyCode: "ABCD-1234-EFGH-5678", Timestamp: time.UnixMilli(clock.NowMillis()).Add(-10 * time.Minute)}
	if _, err := m.ActivateEmergencyRecovery(ScenarioAccountCompromise, stale, "alice"); !cerrors.Is(err, cerrors.ErrAccessLevelDenied) {
		t.Fatalf("expected denial for stale timestamp, got %v", err)
	}
}

// Session used at expiresAt-1ms succeeds; at expiresAt+1ms yields
// SessionExpired.
func TestSessionExpiryBoundary(t *testing.T) {
	m, clock, _, _ := newTestManager(t)
	session, err := m.ActivateEmergencyRecovery(ScenarioDeviceLoss, nil, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	clock.advance(999 * time.Millisecond)
	if _, err := m.GetEmergencyMessageAccess(session.ID, ""); err != nil {
		t.Fatalf("expected success just before expiry, got %v", err)
	}

	clock.advance(2 * time.Millisecond)
	if _, err := m.GetEmergencyMessageAccess(session.ID, ""); !cerrors.Is(err, cerrors.ErrSessionExpired) {
		t.Fatalf("expected SessionExpired, got %v", err)
	}
}

func TestTerminateSessionRemovesIt(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	session, err := m.ActivateEmergencyRecovery(ScenarioDeviceLoss, nil, "alice")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := m.TerminateEmergencySession(session.ID, "resolved"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if _, err := m.GetEmergencyMessageAccess(session.ID, ""); !cerrors.Is(err, cerrors.ErrSessionNotFound) {
		t.Fatalf("expected SessionNotFound after termination, got %v", err)
	}
}

func TestDeadManSwitchAutoActivates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	plan := testPlan()
	plan.Scenarios[ScenarioMedicalEmergency] = ScenarioConfig{
		Enabled:              true,
		AccessLevel:           constants.AccessLimited,
		TimeLimitMs:           60_000,
		VerificationRequired:  true,
	}
	plan.DeadManSwitch = &DeadManSwitchConfig{
		Enabled:          true,
		CheckInInterval:  time.Hour,
		GracePeriod:       time.Minute,
		ActivateRecovery: true,
		Scenario:         ScenarioMedicalEmergency,
	}
	m := NewManager(plan, store, notifier, fakeVault{}, WithClock(clock))

	clock.advance(2 * time.Hour)
	m.checkDeadManSwitch()

	m.mu.Lock()
	n := len(m.sessions)
	m.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected dead-man switch to auto-activate one session, got %d", n)
	}
}
