package provider

import (
	"context"
	"sort"
	"sync"

	cerrors "github.com/volli/core/internal/errors"
)

// RegistryObserver receives lifecycle events from a Registry. Implementations
// must return quickly; the registry invokes observers synchronously but
// outside its internal lock.
type RegistryObserver interface {
	OnProviderAdded(name string)
	OnProviderRemoved(name string)
	OnProviderError(name string, err error)
}

// NoopObserver implements RegistryObserver with no-op methods, for callers
// that only care about some of the events.
type NoopObserver struct{}

func (NoopObserver) OnProviderAdded(string)          {}
func (NoopObserver) OnProviderRemoved(string)         {}
func (NoopObserver) OnProviderError(string, error)    {}

type registered struct {
	provider Provider
	order    int
}

// Registry holds the set of providers available to the crypto core and
// resolves, for a given algorithm, the highest-priority provider that
// supports it and is currently available.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registered
	seq       int
	observers []RegistryObserver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*registered)}
}

// Observe registers an observer for add/remove/error events.
func (r *Registry) Observe(obs RegistryObserver) {
	r.mu.Lock()
	r.observers = append(r.observers, obs)
	r.mu.Unlock()
}

func (r *Registry) notify(fn func(RegistryObserver)) {
	r.mu.RLock()
	observers := append([]RegistryObserver(nil), r.observers...)
	r.mu.RUnlock()
	for _, obs := range observers {
		fn(obs)
	}
}

// Register adds a provider to the registry and initializes it. If
// initialization fails, the provider is not added and an error observer
// event fires.
func (r *Registry) Register(ctx context.Context, p Provider) error {
	if err := p.Initialize(ctx); err != nil {
		wrapped := cerrors.NewProviderError(p.Name(), err)
		r.notify(func(o RegistryObserver) { o.OnProviderError(p.Name(), wrapped) })
		return wrapped
	}

	r.mu.Lock()
	r.seq++
	r.providers[p.Name()] = &registered{provider: p, order: r.seq}
	r.mu.Unlock()

	r.notify(func(o RegistryObserver) { o.OnProviderAdded(p.Name()) })
	return nil
}

// Remove destroys and removes a provider by name. It is a no-op if no
// provider with that name is registered.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.providers[name]
	if ok {
		delete(r.providers, name)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if err := entry.provider.Destroy(ctx); err != nil {
		wrapped := cerrors.NewProviderError(name, err)
		r.notify(func(o RegistryObserver) { o.OnProviderError(name, wrapped) })
		return wrapped
	}

	r.notify(func(o RegistryObserver) { o.OnProviderRemoved(name) })
	return nil
}

// BestFor returns the highest-priority available provider that supports
// alg. Ties in priority are broken by registration order (earliest wins).
// Returns ErrNoProviderRegistered if no registered provider qualifies.
func (r *Registry) BestFor(ctx context.Context, alg AlgorithmID) (Provider, error) {
	candidates := r.candidatesFor(alg)

	for _, c := range candidates {
		if c.provider.IsAvailable(ctx) {
			return c.provider, nil
		}
	}

	return nil, cerrors.ErrNoProviderRegistered
}

// All returns every provider supporting alg, ordered best-first by the
// same priority/registration-order rule as BestFor, regardless of current
// availability. Useful for a fallback chain that wants to try several.
func (r *Registry) All(alg AlgorithmID) []Provider {
	candidates := r.candidatesFor(alg)
	out := make([]Provider, len(candidates))
	for i, c := range candidates {
		out[i] = c.provider
	}
	return out
}

func (r *Registry) candidatesFor(alg AlgorithmID) []*registered {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*registered
	for _, entry := range r.providers {
		if entry.provider.Capabilities().supports(alg) {
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].provider.Priority(), candidates[j].provider.Priority()
		if pi != pj {
			return pi > pj
		}
		return candidates[i].order < candidates[j].order
	})

	return candidates
}

// Names returns the names of all registered providers, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
