package provider

import (
	"context"
	"sync"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
	"github.com/volli/core/pkg/crypto"
	"github.com/volli/core/pkg/hybrid"
)

// NativeProvider is the high-priority provider backed directly by this
// module's pkg/hybrid and pkg/crypto implementations. It is available
// whenever it has been initialized: there is no external hardware or
// service dependency to probe.
type NativeProvider struct {
	initialized bool
}

// NewNativeProvider constructs the native provider.
func NewNativeProvider() *NativeProvider {
	return &NativeProvider{}
}

func (p *NativeProvider) Name() string { return "native" }

func (p *NativeProvider) Priority() int { return 100 }

func (p *NativeProvider) IsAvailable(ctx context.Context) bool { return p.initialized }

func (p *NativeProvider) Initialize(ctx context.Context) error {
	p.initialized = true
	return nil
}

func (p *NativeProvider) Destroy(ctx context.Context) error {
	p.initialized = false
	return nil
}

func (p *NativeProvider) Capabilities() Capabilities {
	return Capabilities{
		Algorithms:   []AlgorithmID{AlgHybridKEM, AlgHybridSig, AlgXChaCha20},
		Batch:        true,
		Parallel:     true,
		ConstantTime: true,
	}
}

func (p *NativeProvider) GenerateKeyPair(ctx context.Context, alg AlgorithmID) (*KeyMaterial, error) {
	switch {
	case alg.Equal(AlgHybridKEM):
		kp, err := hybrid.GenerateKEMKeyPair()
		if err != nil {
			return nil, err
		}
		return &KeyMaterial{Algorithm: alg, Public: kp.PublicKey().Bytes(), Private: kemHandle(kp)}, nil
	case alg.Equal(AlgHybridSig):
		kp, err := hybrid.GenerateSignatureKeyPair()
		if err != nil {
			return nil, err
		}
		pubBytes, err := kp.PublicKey().Bytes()
		if err != nil {
			return nil, err
		}
		return &KeyMaterial{Algorithm: alg, Public: pubBytes, Private: sigHandle(kp)}, nil
	default:
		return nil, cerrors.ErrInvalidArgument
	}
}

// kemHandle/sigHandle stash a live key-pair pointer behind a private
// wrapper so KeyMaterial.Private can carry it through the capability
// interfaces without serializing secret key material to bytes.
type kemHandleBox struct{ kp *hybrid.KEMKeyPair }
type sigHandleBox struct{ kp *hybrid.SignatureKeyPair }

func kemHandle(kp *hybrid.KEMKeyPair) []byte {
	return boxBytes(&kemHandleBox{kp: kp})
}

func sigHandle(kp *hybrid.SignatureKeyPair) []byte {
	return boxBytes(&sigHandleBox{kp: kp})
}

// boxBytes is a narrow escape hatch: Go has no tagged-union "any as []byte"
// primitive, so in-process handles are carried via a package-level registry
// keyed by a counter rather than pretending a pointer fits in a byte slice.
// The batch facade calls GenerateKeyPair concurrently across workers, so
// the registry is mutex-guarded.
var (
	handlesMu  sync.Mutex
	handles    = map[uint64]interface{}{}
	handleNext uint64
)

func boxBytes(v interface{}) []byte {
	handlesMu.Lock()
	handleNext++
	id := handleNext
	handles[id] = v
	handlesMu.Unlock()

	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(id >> (8 * i))
	}
	return out
}

func unbox(b []byte) interface{} {
	if len(b) != 8 {
		return nil
	}
	var id uint64
	for i := 0; i < 8; i++ {
		id |= uint64(b[i]) << (8 * i)
	}
	handlesMu.Lock()
	defer handlesMu.Unlock()
	return handles[id]
}

func (p *NativeProvider) Encapsulate(ctx context.Context, alg AlgorithmID, peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	if !alg.Equal(AlgHybridKEM) {
		return nil, nil, cerrors.ErrInvalidArgument
	}
	pub, err := hybrid.ParseKEMPublicKey(peerPublic)
	if err != nil {
		return nil, nil, err
	}
	ct, ss, err := hybrid.Encapsulate(pub)
	if err != nil {
		return nil, nil, err
	}
	return ct.Bytes(), ss, nil
}

func (p *NativeProvider) Decapsulate(ctx context.Context, alg AlgorithmID, ciphertext []byte, km *KeyMaterial) ([]byte, SecurityResult, error) {
	if !alg.Equal(AlgHybridKEM) {
		return nil, SecurityResult{Level: constants.SecurityFailed}, cerrors.ErrInvalidArgument
	}
	box, _ := unbox(km.Private).(*kemHandleBox)
	if box == nil {
		return nil, SecurityResult{Level: constants.SecurityFailed}, cerrors.ErrInvalidArgument
	}
	ct, err := hybrid.ParseCiphertext(ciphertext)
	if err != nil {
		return nil, SecurityResult{Level: constants.SecurityFailed}, err
	}
	ss, level, err := hybrid.Decapsulate(ct, box.kp)
	if err != nil {
		return nil, SecurityResult{Level: level}, err
	}
	return ss, SecurityResult{Level: level}, nil
}

func (p *NativeProvider) Sign(ctx context.Context, alg AlgorithmID, km *KeyMaterial, data []byte) ([]byte, error) {
	if !alg.Equal(AlgHybridSig) {
		return nil, cerrors.ErrInvalidArgument
	}
	box, _ := unbox(km.Private).(*sigHandleBox)
	if box == nil {
		return nil, cerrors.ErrInvalidArgument
	}
	return hybrid.Sign(box.kp, data, nil)
}

func (p *NativeProvider) Verify(ctx context.Context, alg AlgorithmID, public, data, sig []byte) (SecurityResult, error) {
	if !alg.Equal(AlgHybridSig) {
		return SecurityResult{Level: constants.SecurityFailed}, cerrors.ErrInvalidArgument
	}
	pub, err := hybrid.ParseSignaturePublicKey(public)
	if err != nil {
		return SecurityResult{Level: constants.SecurityFailed}, err
	}
	level, err := hybrid.Verify(pub, data, nil, sig)
	return SecurityResult{Level: level}, err
}

func (p *NativeProvider) Seal(ctx context.Context, alg AlgorithmID, key, plaintext, aad []byte) ([]byte, error) {
	if !alg.Equal(AlgXChaCha20) {
		return nil, cerrors.ErrInvalidArgument
	}
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(plaintext, aad)
}

func (p *NativeProvider) Open(ctx context.Context, alg AlgorithmID, key, record, aad []byte) ([]byte, error) {
	if !alg.Equal(AlgXChaCha20) {
		return nil, cerrors.ErrInvalidArgument
	}
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(record, aad)
}
