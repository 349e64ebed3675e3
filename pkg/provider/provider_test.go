package provider_test

import (
	"context"
	"testing"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/provider"
)

func TestRegistryBestForPicksHighestPriority(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()

	if err := reg.Register(ctx, provider.NewPortableProvider()); err != nil {
		t.Fatalf("register portable: %v", err)
	}
	if err := reg.Register(ctx, provider.NewNativeProvider()); err != nil {
		t.Fatalf("register native: %v", err)
	}

	best, err := reg.BestFor(ctx, provider.AlgHybridKEM)
	if err != nil {
		t.Fatalf("BestFor: %v", err)
	}
	if best.Name() != "native" {
		t.Fatalf("expected native (higher priority), got %s", best.Name())
	}
}

func TestRegistryNoProviderRegistered(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()

	_, err := reg.BestFor(ctx, provider.AlgHybridKEM)
	if !cerrors.Is(err, cerrors.ErrNoProviderRegistered) {
		t.Fatalf("expected ErrNoProviderRegistered, got %v", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()
	native := provider.NewNativeProvider()

	if err := reg.Register(ctx, native); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Remove(ctx, native.Name()); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := reg.BestFor(ctx, provider.AlgHybridKEM)
	if !cerrors.Is(err, cerrors.ErrNoProviderRegistered) {
		t.Fatalf("expected ErrNoProviderRegistered after remove, got %v", err)
	}
}

type recordingObserver struct {
	added, removed []string
}

func (r *recordingObserver) OnProviderAdded(name string)   { r.added = append(r.added, name) }
func (r *recordingObserver) OnProviderRemoved(name string) { r.removed = append(r.removed, name) }
func (r *recordingObserver) OnProviderError(name string, err error) {}

func TestRegistryObserverEvents(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()
	obs := &recordingObserver{}
	reg.Observe(obs)

	native := provider.NewNativeProvider()
	if err := reg.Register(ctx, native); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Remove(ctx, native.Name()); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(obs.added) != 1 || obs.added[0] != "native" {
		t.Fatalf("expected OnProviderAdded(native), got %v", obs.added)
	}
	if len(obs.removed) != 1 || obs.removed[0] != "native" {
		t.Fatalf("expected OnProviderRemoved(native), got %v", obs.removed)
	}
}

func TestWorkerPoolRunPreservesOrder(t *testing.T) {
	pool := provider.NewWorkerPool(provider.WorkerPoolConfig{Workers: 4, QueueSize: 100})
	ctx := context.Background()

	results, err := pool.Run(ctx, 20, func(ctx context.Context, i int) (interface{}, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, r := range results {
		if r.(int) != i*i {
			t.Fatalf("result[%d] = %v, want %d", i, r, i*i)
		}
	}
}

func TestWorkerPoolQueueFull(t *testing.T) {
	pool := provider.NewWorkerPool(provider.WorkerPoolConfig{Workers: 2, QueueSize: 4})
	ctx := context.Background()

	_, err := pool.Run(ctx, 5, func(ctx context.Context, i int) (interface{}, error) {
		return i, nil
	})
	if !cerrors.Is(err, cerrors.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestFacadeBatchGenerateKeyPairs(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()
	if err := reg.Register(ctx, provider.NewNativeProvider()); err != nil {
		t.Fatalf("register: %v", err)
	}

	facade := provider.NewFacade(reg, provider.WorkerPoolConfig{Workers: 4, QueueSize: 32})
	defer facade.Close()

	kps, err := facade.BatchGenerateKeyPairs(ctx, provider.AlgHybridKEM, 6)
	if err != nil {
		t.Fatalf("BatchGenerateKeyPairs: %v", err)
	}
	if len(kps) != 6 {
		t.Fatalf("expected 6 key pairs, got %d", len(kps))
	}
	for i, kp := range kps {
		if kp == nil || len(kp.Public) == 0 {
			t.Fatalf("key pair %d missing public bytes", i)
		}
	}
}

func TestFacadeBatchEncapsulateRoundtrip(t *testing.T) {
	ctx := context.Background()
	reg := provider.NewRegistry()
	if err := reg.Register(ctx, provider.NewNativeProvider()); err != nil {
		t.Fatalf("register: %v", err)
	}

	facade := provider.NewFacade(reg, provider.WorkerPoolConfig{Workers: 4, QueueSize: 32})
	defer facade.Close()

	kps, err := facade.BatchGenerateKeyPairs(ctx, provider.AlgHybridKEM, 3)
	if err != nil {
		t.Fatalf("BatchGenerateKeyPairs: %v", err)
	}

	peerPublics := make([][]byte, len(kps))
	for i, kp := range kps {
		peerPublics[i] = kp.Public
	}

	ciphertexts, secrets, err := facade.BatchEncapsulate(ctx, provider.AlgHybridKEM, peerPublics)
	if err != nil {
		t.Fatalf("BatchEncapsulate: %v", err)
	}
	if len(ciphertexts) != 3 || len(secrets) != 3 {
		t.Fatalf("expected 3 ciphertexts/secrets, got %d/%d", len(ciphertexts), len(secrets))
	}

	p, _ := reg.BestFor(ctx, provider.AlgHybridKEM)
	decap := p.(provider.Decapsulator)
	for i, kp := range kps {
		ss, result, err := decap.Decapsulate(ctx, provider.AlgHybridKEM, ciphertexts[i], kp)
		if err != nil {
			t.Fatalf("decapsulate %d: %v", i, err)
		}
		if result.Level != constants.SecurityFull {
			t.Fatalf("decapsulate %d: expected SecurityFull, got %v", i, result.Level)
		}
		if len(ss) != len(secrets[i]) {
			t.Fatalf("decapsulate %d: shared secret length mismatch", i)
		}
		match := true
		for j := range ss {
			if ss[j] != secrets[i][j] {
				match = false
				break
			}
		}
		if !match {
			t.Fatalf("decapsulate %d: shared secret mismatch", i)
		}
	}
}

func TestNativeProviderSignVerifyRoundtrip(t *testing.T) {
	ctx := context.Background()
	p := provider.NewNativeProvider()
	if err := p.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	km, err := p.GenerateKeyPair(ctx, provider.AlgHybridSig)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	msg := []byte("emergency access granted")
	sig, err := p.Sign(ctx, provider.AlgHybridSig, km, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != constants.HybridSignatureSize {
		t.Fatalf("expected signature length %d, got %d", constants.HybridSignatureSize, len(sig))
	}

	result, err := p.Verify(ctx, provider.AlgHybridSig, km.Public, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Level != constants.SecurityFull {
		t.Fatalf("expected SecurityFull, got %v", result.Level)
	}
}

func TestNativeProviderSealOpenRoundtrip(t *testing.T) {
	ctx := context.Background()
	p := provider.NewNativeProvider()
	if err := p.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	key := make([]byte, constants.AEADKeySize)
	plaintext := []byte("vault backup payload")
	aad := []byte("vault-v1")

	record, err := p.Seal(ctx, provider.AlgXChaCha20, key, plaintext, aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	recovered, err := p.Open(ctx, provider.AlgXChaCha20, key, record, aad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(recovered) != string(plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, recovered)
	}
}
