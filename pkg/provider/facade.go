package provider

import (
	"context"

	cerrors "github.com/volli/core/internal/errors"
)

// Facade combines a Registry with a WorkerPool to offer batch operations
// over whichever provider the registry currently resolves as best for an
// algorithm. It re-resolves the provider on every batch call so a registry
// change (a provider going unavailable, a higher-priority one registering)
// takes effect on the next batch without restarting the facade.
type Facade struct {
	registry *Registry
	pool     *WorkerPool
}

// NewFacade builds a Facade over the given registry and worker-pool
// configuration.
func NewFacade(registry *Registry, poolCfg WorkerPoolConfig) *Facade {
	return &Facade{registry: registry, pool: NewWorkerPool(poolCfg)}
}

// BatchGenerateKeyPairs generates n key pairs for alg in parallel across
// the worker pool, returning results in the order requested.
func (f *Facade) BatchGenerateKeyPairs(ctx context.Context, alg AlgorithmID, n int) ([]*KeyMaterial, error) {
	p, err := f.registry.BestFor(ctx, alg)
	if err != nil {
		return nil, err
	}
	gen, ok := p.(KeyPairGenerator)
	if !ok {
		return nil, cerrors.ErrProviderUnavailable
	}

	raw, err := f.pool.Run(ctx, n, func(ctx context.Context, i int) (interface{}, error) {
		return gen.GenerateKeyPair(ctx, alg)
	})
	if err != nil {
		return nil, err
	}

	out := make([]*KeyMaterial, len(raw))
	for i, r := range raw {
		if r != nil {
			out[i] = r.(*KeyMaterial)
		}
	}
	return out, nil
}

// BatchEncapsulate performs n independent encapsulations against the
// respective recipient public keys in peerPublics, in parallel, preserving
// input order in the returned slices.
func (f *Facade) BatchEncapsulate(ctx context.Context, alg AlgorithmID, peerPublics [][]byte) (ciphertexts, sharedSecrets [][]byte, err error) {
	p, err := f.registry.BestFor(ctx, alg)
	if err != nil {
		return nil, nil, err
	}
	enc, ok := p.(Encapsulator)
	if !ok {
		return nil, nil, cerrors.ErrProviderUnavailable
	}

	type pair struct {
		ct, ss []byte
	}

	raw, err := f.pool.Run(ctx, len(peerPublics), func(ctx context.Context, i int) (interface{}, error) {
		ct, ss, err := enc.Encapsulate(ctx, alg, peerPublics[i])
		if err != nil {
			return nil, err
		}
		return pair{ct: ct, ss: ss}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	ciphertexts = make([][]byte, len(raw))
	sharedSecrets = make([][]byte, len(raw))
	for i, r := range raw {
		if r != nil {
			p := r.(pair)
			ciphertexts[i] = p.ct
			sharedSecrets[i] = p.ss
		}
	}
	return ciphertexts, sharedSecrets, nil
}

// Close releases the facade's worker pool.
func (f *Facade) Close() {
	f.pool.Close()
}
