package emergency

import (
	"crypto/rand"
	"time"
)

// Message is the narrow view of a stored message the emergency manager
// needs: enough to apply a capability filter and to render a reply, never
// the storage engine's own representation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	Timestamp      time.Time
	Emergency      bool // flagged by the sender as emergency-relevant
	System         bool // system-generated (e.g. a join/leave notice)
	Priority       string
}

// MessageFilter narrows a message query. A zero value matches everything.
type MessageFilter struct {
	ConversationID string
	Since          *time.Time
	EmergencyOnly  bool
}

// StorageStats summarizes a message store, exposed for emergency backups
// and diagnostics without requiring the manager to understand the store's
// internal layout.
type StorageStats struct {
	MessageCount      int
	ConversationCount int
	OldestMessage     time.Time
	NewestMessage     time.Time
}

// MessageStore is the narrow interface the emergency manager consumes from
// the storage engine that owns the underlying data. The manager never
// assumes an ordering guarantee beyond the store's own contract.
type MessageStore interface {
	StoreMessage(msg *Message) error
	GetMessages(filter MessageFilter) ([]*Message, error)
	GetMessage(id string) (*Message, error)
	GetConversationMessages(conversationID string, limit int) ([]*Message, error)
	SearchMessages(query string, filter *MessageFilter) ([]*Message, error)
	ExportMessages() ([]byte, error)
	ImportMessages(batch []byte) error
	GetStorageStats() (*StorageStats, error)
}

// IdentityBackupSource is the narrow interface the emergency manager
// consumes from the identity vault: an emergency backup reuses the
// vault's own portable-backup encoding rather than inventing a second
// one.
type IdentityBackupSource interface {
	ExportIdentityBackup(identityID string) ([]byte, error)
}

// Notifier delivers a best-effort, fire-and-forget notification to an
// emergency contact. Failures are recorded as warnings and never
// propagated to the caller.
type Notifier interface {
	Notify(contactID string, payload map[string]interface{}) error
}

// Clock is the injectable time source used throughout the emergency
// manager so tests can control session expiry and dead-man-switch timing
// deterministically.
type Clock interface {
	NowMillis() int64
}

// Random is the injectable randomness source used to mint session and
// automatic emergency-code identifiers.
type Random interface {
	Fill(buf []byte) error
}

// SystemClock is the default Clock backed by the OS wall clock.
type SystemClock struct{}

// NowMillis returns the current Unix time in milliseconds.
func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// SystemRandom is the default Random backed by crypto/rand.
type SystemRandom struct{}

// Fill fills buf with cryptographically secure random bytes.
func (SystemRandom) Fill(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

func now(c Clock) time.Time {
	return time.UnixMilli(c.NowMillis())
}
