package provider

import "context"

// PortableProvider wraps NativeProvider with a lower priority and no
// constant-time claim. It exists as the always-present fallback candidate
// in the registry: when a future hardware-backed or WASM provider is
// registered above it and becomes unavailable, lookups fall through to
// this provider rather than failing outright. Today it delegates to the
// same pure-Go implementation as NativeProvider; the distinction is one of
// registry priority, not algorithm.
type PortableProvider struct {
	delegate *NativeProvider
}

// NewPortableProvider constructs the portable fallback provider.
func NewPortableProvider() *PortableProvider {
	return &PortableProvider{delegate: NewNativeProvider()}
}

func (p *PortableProvider) Name() string { return "portable" }

func (p *PortableProvider) Priority() int { return 10 }

func (p *PortableProvider) IsAvailable(ctx context.Context) bool {
	return p.delegate.IsAvailable(ctx)
}

func (p *PortableProvider) Initialize(ctx context.Context) error {
	return p.delegate.Initialize(ctx)
}

func (p *PortableProvider) Destroy(ctx context.Context) error {
	return p.delegate.Destroy(ctx)
}

func (p *PortableProvider) Capabilities() Capabilities {
	caps := p.delegate.Capabilities()
	caps.ConstantTime = false
	caps.Parallel = false
	return caps
}

func (p *PortableProvider) GenerateKeyPair(ctx context.Context, alg AlgorithmID) (*KeyMaterial, error) {
	return p.delegate.GenerateKeyPair(ctx, alg)
}

func (p *PortableProvider) Encapsulate(ctx context.Context, alg AlgorithmID, peerPublic []byte) ([]byte, []byte, error) {
	return p.delegate.Encapsulate(ctx, alg, peerPublic)
}

func (p *PortableProvider) Decapsulate(ctx context.Context, alg AlgorithmID, ciphertext []byte, km *KeyMaterial) ([]byte, SecurityResult, error) {
	return p.delegate.Decapsulate(ctx, alg, ciphertext, km)
}

func (p *PortableProvider) Sign(ctx context.Context, alg AlgorithmID, km *KeyMaterial, data []byte) ([]byte, error) {
	return p.delegate.Sign(ctx, alg, km, data)
}

func (p *PortableProvider) Verify(ctx context.Context, alg AlgorithmID, public, data, sig []byte) (SecurityResult, error) {
	return p.delegate.Verify(ctx, alg, public, data, sig)
}

func (p *PortableProvider) Seal(ctx context.Context, alg AlgorithmID, key, plaintext, aad []byte) ([]byte, error) {
	return p.delegate.Seal(ctx, alg, key, plaintext, aad)
}

func (p *PortableProvider) Open(ctx context.Context, alg AlgorithmID, key, record, aad []byte) ([]byte, error) {
	return p.delegate.Open(ctx, alg, key, record, aad)
}
