// Package emergency implements the time-bounded, capability-tiered
// emergency-access manager: activation of scoped recovery sessions, a
// dead-man switch, and recovery-guidance retrieval, layered over the
// identity vault and a message store it never owns.
package emergency

import (
	"time"

	"github.com/volli/core/internal/constants"
)

// Scenario names the situation an emergency plan is configured to handle.
// Callers may define their own strings; the constants below name the
// scenarios built in here.
type Scenario string

const (
	ScenarioDeviceLoss        Scenario = "DEVICE_LOSS"
	ScenarioMedicalEmergency  Scenario = "MEDICAL_EMERGENCY"
	ScenarioAccountCompromise Scenario = "ACCOUNT_COMPROMISE"
	ScenarioLegalRequest      Scenario = "LEGAL_REQUEST"
)

// ScenarioConfig configures how one scenario may be activated and what it
// grants once activated.
type ScenarioConfig struct {
	Enabled              bool
	AccessLevel          constants.AccessLevel
	TimeLimitMs          int64
	VerificationRequired bool
	AutoActivate         bool
	NotifyContacts       bool
	Instructions         string
}

// DeadManSwitchConfig configures the optional check-in monitor.
type DeadManSwitchConfig struct {
	Enabled          bool
	CheckInInterval  time.Duration
	GracePeriod      time.Duration
	ActivateRecovery bool
	Scenario         Scenario
}

// LegalConfig carries jurisdiction-specific recovery guidance surfaced to
// callers alongside a plan; the core treats its contents opaquely.
type LegalConfig struct {
	Jurisdiction string
	Guidance     string
}

// Plan is one identity owner's emergency-access configuration: who to
// notify, which scenarios are enabled and at what access level, and the
// optional dead-man switch.
type Plan struct {
	OwnerID           string
	EmergencyContacts []string
	Scenarios         map[Scenario]ScenarioConfig
	DeadManSwitch     *DeadManSwitchConfig
	Legal             *LegalConfig
}

// Credentials is what an activation call must present when a scenario
// requires verification: an emergency code and the time it was minted.
type Credentials struct {
	EmergencyCode string
	Timestamp     time.Time
}

// ActionType enumerates the kinds of action an emergency session appends
// to its own append-only log.
type ActionType int

const (
	ActionEmergencyContact ActionType = iota
	ActionMessageRead
	ActionMessageSend
	ActionBackupCreate
	ActionSessionTerminate
)

// String returns a human-readable action type name.
func (a ActionType) String() string {
	switch a {
	case ActionEmergencyContact:
		return "EMERGENCY_CONTACT"
	case ActionMessageRead:
		return "MESSAGE_READ"
	case ActionMessageSend:
		return "MESSAGE_SEND"
	case ActionBackupCreate:
		return "BACKUP_CREATE"
	case ActionSessionTerminate:
		return "SESSION_TERMINATE"
	default:
		return "UNKNOWN"
	}
}

// Action is one append-only entry in a session's audit trail.
type Action struct {
	Type      ActionType
	Timestamp time.Time
	Detail    string
}

// Session is a time-bounded, capability-tiered emergency-access context.
type Session struct {
	ID                 string
	Scenario           Scenario
	AccessLevel        constants.AccessLevel
	StartedAt          time.Time
	ExpiresAt          time.Time
	ActivatedBy        string
	VerificationMethod string
	Actions            []Action
	Restricted         bool
	Terminated         bool
}

func (s *Session) expired(at time.Time) bool {
	return !at.Before(s.ExpiresAt)
}

func (s *Session) append(a Action) {
	s.Actions = append(s.Actions, a)
}

// IdentityBackup bundles the vault and message exports produced by
// CreateEmergencyBackup.
type IdentityBackup struct {
	IdentityBackup []byte
	MessageBackup  []byte
}

// capabilities maps an access level to the operations it permits.
type capability int

const (
	capReadEmergencyMessages capability = iota
	capContactEmergencyContacts
	capReadRecentMessages
	capSendEmergencyMessages
	capReadAllMessages
	capCreateBackup
	capKeyRotation
	capIrreversibleDestruction
)

var levelCapabilities = map[constants.AccessLevel]map[capability]bool{
	constants.AccessMinimal: {
		capReadEmergencyMessages:    true,
		capContactEmergencyContacts: true,
	},
	constants.AccessLimited: {
		capReadEmergencyMessages:    true,
		capContactEmergencyContacts: true,
		capReadRecentMessages:       true,
		capSendEmergencyMessages:    true,
	},
	constants.AccessStandard: {
		capReadEmergencyMessages:    true,
		capContactEmergencyContacts: true,
		capReadRecentMessages:       true,
		capSendEmergencyMessages:    true,
		capReadAllMessages:          true,
		capCreateBackup:             true,
	},
	constants.AccessExtended: {
		capReadEmergencyMessages:    true,
		capContactEmergencyContacts: true,
		capReadRecentMessages:       true,
		capSendEmergencyMessages:    true,
		capReadAllMessages:          true,
		capCreateBackup:             true,
		// capKeyRotation and capIrreversibleDestruction stay false: EXTENDED
		// grants all except key rotation and irreversible destruction.
	},
}

func allows(level constants.AccessLevel, c capability) bool {
	return levelCapabilities[level][c]
}
