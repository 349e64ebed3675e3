// Package core is the hybrid post-quantum cryptographic core and offline
// identity vault for a secure-messaging platform: a hybrid classical/
// post-quantum key-encapsulation and signature primitive set
// (X25519+ML-KEM-768, Ed25519+ML-DSA-65), an authenticated-encryption and
// password-based key-derivation layer, an offline identity vault with
// multi-factor recovery and portable encrypted backups, an emergency-
// access session manager, and a pluggable crypto-provider pipeline with
// A/B rollout and circuit-breaker-backed fallback.
//
// # Quick Start
//
// Generating and using a hybrid key bundle directly:
//
//	import "github.com/volli/core/pkg/hybrid"
//
//	bundle, _ := hybrid.GenerateKeyBundle()
//	ct, sharedSecret, _ := hybrid.Encapsulate(bundle.PublicBundle().KEM)
//	recovered, level, _ := hybrid.Decapsulate(ct, bundle.KEM)
//
// Creating and recovering an identity through the vault:
//
//	import "github.com/volli/core/pkg/vault"
//
//	v := vault.New()
//	identity, keys, backup, _ := v.CreateIdentityWithRecovery("Phone", nil, passphrase)
//	recoveredIdentity, recoveredKeys, _ := v.RecoverFromPassphrase(identity.ID, passphrase)
//
// # Package Structure
//
//   - pkg/crypto: primitive bindings (ML-KEM-768, ML-DSA-65, X25519, Ed25519,
//     XChaCha20-Poly1305, Argon2id, HKDF-SHA-256, BLAKE2b)
//   - pkg/hybrid: hybrid KEM and signature composition with explicit
//     security-level reporting
//   - pkg/provider: capability-typed provider interface, registry, and
//     batch worker pool
//   - pkg/fallback: circuit breaker, A/B rollout, and rolling metrics
//     wrapping a (primary, fallback) provider pair
//   - pkg/vault: offline identity vault, portable encrypted backups, and
//     multi-factor recovery
//   - pkg/emergency: time-bounded, capability-tiered emergency-access
//     sessions and the optional dead-man switch
//   - pkg/metrics: structured logging, histograms, Prometheus export, and
//     OpenTelemetry tracing shared across the packages above
//   - internal/constants: wire-format sizes and security parameters
//   - internal/errors: sentinel errors and wrapper types
//
// # Security Properties
//
//   - Hybrid guarantee: each KEM/signature operation is secure if EITHER
//     its classical or post-quantum half is secure
//   - Explicit degradation: FULL / CLASSICAL_ONLY / POST_QUANTUM_ONLY /
//     FAILED security levels are reported to callers, never hidden
//   - Authenticated encryption: XChaCha20-Poly1305 with fresh random
//     nonces, never reused under the same key
//   - Key zeroization: secret byte buffers are wiped on every exit path
//
// # Testing
//
//	go test ./...                            # all tests
//	go test -run TestRunPOST ./pkg/crypto    # power-on self-tests
//	go test -bench=. ./test/benchmark        # benchmarks
//	go test -fuzz=FuzzParseCiphertext ./test/fuzz
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - NIST FIPS 204: Module-Lattice-Based Digital Signature Standard
//   - RFC 7748: Elliptic Curves for Security (X25519)
//   - RFC 8032: Edwards-Curve Digital Signature Algorithm (Ed25519)
//   - RFC 8439: ChaCha20 and Poly1305 for IETF Protocols
//   - RFC 9106: Argon2 Memory-Hard Function
//   - RFC 5869: HMAC-based Extract-and-Expand Key Derivation Function
package core
