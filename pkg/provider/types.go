// Package provider implements the capability-typed provider abstraction and
// registry: algorithm identifiers, the Provider interface family, a
// registry that resolves "best provider for algorithm X", and a bounded
// worker pool for batch operations.
package provider

import "github.com/volli/core/internal/constants"

// AlgorithmType classifies what an AlgorithmID names.
type AlgorithmType int

const (
	AlgorithmKEM AlgorithmType = iota
	AlgorithmSignature
	AlgorithmHash
	AlgorithmSymmetric
	AlgorithmKDF
)

// String returns a human-readable algorithm type name.
func (t AlgorithmType) String() string {
	switch t {
	case AlgorithmKEM:
		return "KEM"
	case AlgorithmSignature:
		return "SIGNATURE"
	case AlgorithmHash:
		return "HASH"
	case AlgorithmSymmetric:
		return "SYMMETRIC"
	case AlgorithmKDF:
		return "KDF"
	default:
		return "UNKNOWN"
	}
}

// AlgorithmID identifies a specific algorithm and version. Equality is
// structural on (Name, Major, Minor) — patch, prerelease, and deprecation
// metadata do not affect identity for provider lookup purposes.
type AlgorithmID struct {
	Name            string
	Major           uint32
	Minor           uint32
	Patch           uint32
	Prerelease      string
	Deprecated      bool
	MigrationTarget *AlgorithmID
	Type            AlgorithmType
}

// Equal reports whether two algorithm identifiers are structurally equal
// on (Name, Major, Minor).
func (a AlgorithmID) Equal(other AlgorithmID) bool {
	return a.Name == other.Name && a.Major == other.Major && a.Minor == other.Minor
}

// Well-known algorithm identifiers this module's providers implement.
var (
	AlgHybridKEM = AlgorithmID{Name: "hybrid-x25519-mlkem768", Major: 1, Minor: 0, Type: AlgorithmKEM}
	AlgHybridSig = AlgorithmID{Name: "hybrid-ed25519-mldsa65", Major: 1, Minor: 0, Type: AlgorithmSignature}
	AlgXChaCha20 = AlgorithmID{Name: "xchacha20-poly1305", Major: 1, Minor: 0, Type: AlgorithmSymmetric}
	AlgArgon2id  = AlgorithmID{Name: "argon2id", Major: 1, Minor: 0, Type: AlgorithmKDF}
	AlgBlake2b   = AlgorithmID{Name: "blake2b-256", Major: 1, Minor: 0, Type: AlgorithmHash}
)

// Capabilities describes what a provider can do: which algorithms it
// implements and which feature flags it advertises.
type Capabilities struct {
	Algorithms    []AlgorithmID
	Batch         bool
	Parallel      bool
	ConstantTime  bool
}

// supports reports whether the capability set advertises an identifier
// structurally equal to id.
func (c Capabilities) supports(id AlgorithmID) bool {
	for _, a := range c.Algorithms {
		if a.Equal(id) {
			return true
		}
	}
	return false
}

// KeyMaterial is an opaque, provider-specific key handle. Public holds
// exportable public key bytes; Private holds secret bytes owned by the
// caller who must zeroize it when done.
type KeyMaterial struct {
	Algorithm AlgorithmID
	Public    []byte
	Private   []byte
}

// SecurityResult pairs a value with the hybrid security level it was
// produced or verified under (constants.SecurityLevel).
type SecurityResult struct {
	Level constants.SecurityLevel
}
