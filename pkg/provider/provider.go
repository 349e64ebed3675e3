package provider

import "context"

// Provider is the minimal surface every crypto backend implements:
// identity, priority, availability, and lifecycle. Concrete primitive
// operations live in separate capability interfaces (KeyPairGenerator,
// Encapsulator, Signer, ...) that a Provider may additionally implement —
// there is no base class to inherit from, so a caller type-asserts for the
// capability it needs, the same way the standard library composes io.Reader
// with io.Closer.
type Provider interface {
	// Name identifies the provider for logging, metrics, and registry
	// lookups.
	Name() string

	// Priority ranks providers when more than one supports the same
	// algorithm; higher wins. Ties are broken by registration order.
	Priority() int

	// IsAvailable probes whether the provider can currently service
	// requests (e.g. a hardware backend that may be absent at runtime).
	IsAvailable(ctx context.Context) bool

	// Initialize prepares the provider for use. Called once by the
	// registry before the provider is considered for lookups.
	Initialize(ctx context.Context) error

	// Destroy releases any resources the provider holds. Called by
	// Registry.Remove when the provider is removed from the registry.
	Destroy(ctx context.Context) error

	// Capabilities reports the algorithms and feature flags this provider
	// advertises.
	Capabilities() Capabilities
}

// KeyPairGenerator is implemented by providers that can generate key pairs
// for one or more of their advertised algorithms.
type KeyPairGenerator interface {
	GenerateKeyPair(ctx context.Context, alg AlgorithmID) (*KeyMaterial, error)
}

// KeyImporter is implemented by providers that can reconstruct a
// KeyMaterial from externally-supplied bytes.
type KeyImporter interface {
	ImportKey(ctx context.Context, alg AlgorithmID, public, private []byte) (*KeyMaterial, error)
}

// KeyExporter is implemented by providers that can serialize a
// KeyMaterial's public component to bytes.
type KeyExporter interface {
	ExportKey(ctx context.Context, km *KeyMaterial) ([]byte, error)
}

// Encapsulator is implemented by KEM providers.
type Encapsulator interface {
	Encapsulate(ctx context.Context, alg AlgorithmID, peerPublic []byte) (ciphertext, sharedSecret []byte, err error)
}

// Decapsulator is implemented by KEM providers.
type Decapsulator interface {
	Decapsulate(ctx context.Context, alg AlgorithmID, ciphertext []byte, km *KeyMaterial) (sharedSecret []byte, level SecurityResult, err error)
}

// Signer is implemented by signature providers.
type Signer interface {
	Sign(ctx context.Context, alg AlgorithmID, km *KeyMaterial, data []byte) ([]byte, error)
}

// Verifier is implemented by signature providers.
type Verifier interface {
	Verify(ctx context.Context, alg AlgorithmID, public, data, sig []byte) (level SecurityResult, err error)
}

// AEADSealer is implemented by symmetric providers.
type AEADSealer interface {
	Seal(ctx context.Context, alg AlgorithmID, key, plaintext, aad []byte) ([]byte, error)
}

// AEADOpener is implemented by symmetric providers.
type AEADOpener interface {
	Open(ctx context.Context, alg AlgorithmID, key, record, aad []byte) ([]byte, error)
}
