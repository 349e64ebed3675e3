package main

import (
	"fmt"
	"os"
	"time"

	"github.com/volli/core/internal/constants"
	"github.com/volli/core/pkg/emergency"
	"github.com/volli/core/pkg/hybrid"
	"github.com/volli/core/pkg/vault"
)

func demoCommand() {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║   Hybrid Post-Quantum Identity Vault Demo                  ║")
	fmt.Println("║   X25519+ML-KEM-768  /  Ed25519+ML-DSA-65                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	const passphrase = "correct horse battery staple"

	fmt.Println("Step 1: generating a hybrid key bundle for identity \"Alice\"...")
	bundle, err := hybrid.GenerateKeyBundle()
	if err != nil {
		fail("generate key bundle", err)
	}
	identity := vault.NewIdentity("Alice", bundle.PublicBundle())
	identity.AddDevice("Phone", bundle.PublicBundle(), constants.TrustTrusted)
	fingerprint, err := identity.Fingerprint()
	if err != nil {
		fail("fingerprint identity", err)
	}
	fmt.Printf("  identity id:  %s\n", identity.ID)
	fmt.Printf("  fingerprint:  %s\n", formatFingerprint(fingerprint))
	fmt.Println()

	fmt.Println("Step 2: sealing a portable encrypted backup...")
	backup, err := vault.CreateBackup(identity, bundle, "my dog's first name + 1979", passphrase)
	if err != nil {
		fail("create backup", err)
	}
	fmt.Printf("  backup version: %d, checksum: %x...\n", backup.Version, backup.Checksum[:8])
	fmt.Println()

	fmt.Println("Step 3: verifying backup integrity and recovering by passphrase...")
	if err := vault.VerifyBackup(backup); err != nil {
		fail("verify backup", err)
	}
	recoveredIdentity, recoveredBundle, err := vault.RecoverBackup(backup, passphrase)
	if err != nil {
		fail("recover backup", err)
	}
	fmt.Printf("  recovered identity %q with %d device(s) (integrity check passed)\n", recoveredIdentity.DisplayName, len(recoveredIdentity.Devices))
	fmt.Println()

	fmt.Println("Step 4: signing \"ping\" with the recovered key and verifying with the original public key...")
	sig, err := hybrid.Sign(recoveredBundle.Signature, []byte("ping"), nil)
	if err != nil {
		fail("sign", err)
	}
	level, err := hybrid.Verify(bundle.Signature.PublicKey(), []byte("ping"), nil, sig)
	if err != nil {
		fail("verify", err)
	}
	fmt.Printf("  signature verified at security level: %s\n", level)
	fmt.Println()

	runEmergencyDemo(identity.ID)

	bundle.Zeroize()
	recoveredBundle.Zeroize()
}

func formatFingerprint(fp []byte) string {
	out := ""
	for i, b := range fp {
		if i > 0 && i%2 == 0 {
			out += " "
		}
		out += fmt.Sprintf("%02X", b)
	}
	return out
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "Error during %s: %v\n", step, err)
	os.Exit(1)
}

// demoMessageStore and demoBackupSource are the narrow collaborator
// implementations the emergency manager expects to be handed; this
// demo's versions are in-memory stand-ins for the storage engine and
// identity vault that own the real data in a full deployment.
type demoMessageStore struct {
	messages []*emergency.Message
}

func (s *demoMessageStore) StoreMessage(msg *emergency.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *demoMessageStore) GetMessages(filter emergency.MessageFilter) ([]*emergency.Message, error) {
	var out []*emergency.Message
	for _, msg := range s.messages {
		if filter.EmergencyOnly && !msg.Emergency && !msg.System {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *demoMessageStore) GetMessage(id string) (*emergency.Message, error) {
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, nil
}

func (s *demoMessageStore) GetConversationMessages(conversationID string, limit int) ([]*emergency.Message, error) {
	return s.GetMessages(emergency.MessageFilter{ConversationID: conversationID})
}

func (s *demoMessageStore) SearchMessages(query string, filter *emergency.MessageFilter) ([]*emergency.Message, error) {
	return nil, nil
}

func (s *demoMessageStore) ExportMessages() ([]byte, error) { return []byte("demo-message-export"), nil }
func (s *demoMessageStore) ImportMessages(batch []byte) error { return nil }
func (s *demoMessageStore) GetStorageStats() (*emergency.StorageStats, error) {
	return &emergency.StorageStats{MessageCount: len(s.messages)}, nil
}

type demoNotifier struct{}

func (demoNotifier) Notify(contactID string, payload map[string]interface{}) error {
	fmt.Printf("  (notified emergency contact %q: %v)\n", contactID, payload["reason"])
	return nil
}

type demoBackupSource struct{}

func (demoBackupSource) ExportIdentityBackup(identityID string) ([]byte, error) {
	return []byte("vault-export-for-" + identityID), nil
}

func runEmergencyDemo(identityID string) {
	fmt.Println("Step 5: walking through an emergency-access session...")

	plan := &emergency.Plan{
		OwnerID:           identityID,
		EmergencyContacts: []string{"bob@example.com"},
		Scenarios: map[emergency.Scenario]emergency.ScenarioConfig{
			emergency.ScenarioDeviceLoss: {
				Enabled:        true,
				AccessLevel:    constants.AccessStandard,
				TimeLimitMs:    int64(5 * time.Minute / time.Millisecond),
				NotifyContacts: true,
				Instructions:   "Contact support with your recovery key file to re-provision a device.",
			},
		},
	}

	manager := emergency.NewManager(plan, &demoMessageStore{}, demoNotifier{}, demoBackupSource{})

	session, err := manager.ActivateEmergencyRecovery(emergency.ScenarioDeviceLoss, nil, identityID)
	if err != nil {
		fail("activate emergency session", err)
	}
	fmt.Printf("  session %s active at %s until %s\n", session.ID, session.AccessLevel, session.ExpiresAt.Format(time.RFC3339))

	backup, err := manager.CreateEmergencyBackup(session.ID)
	if err != nil {
		fail("create emergency backup", err)
	}
	fmt.Printf("  emergency backup captured: %d bytes identity, %d bytes messages\n", len(backup.IdentityBackup), len(backup.MessageBackup))

	if err := manager.TerminateEmergencySession(session.ID, "demo complete"); err != nil {
		fail("terminate emergency session", err)
	}
	fmt.Println("  session terminated")
}
