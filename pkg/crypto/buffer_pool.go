// buffer_pool.go provides buffer pooling to reduce allocations during
// encryption/decryption, which matters when the fallback engine and
// vault layers process many small records back to back. The pool uses
// size classes tuned to typical vault-record and backup-blob sizes.
package crypto

import (
	"sync"

	"github.com/volli/core/internal/constants"
)

// BufferPool provides pooled byte slices for cryptographic operations.
type BufferPool struct {
	// nonce holds 24-byte XChaCha20-Poly1305 nonce buffers.
	nonce sync.Pool

	// small holds buffers for typical vault records, up to 1KB.
	small sync.Pool

	// medium holds buffers for portable backups, up to 16KB.
	medium sync.Pool

	// large holds buffers for full vault exports, up to 64KB.
	large sync.Pool
}

// Buffer size class thresholds for crypto operations.
const (
	nonceBufferSize        = constants.AEADNonceSize
	smallCryptoBufferSize  = 1024 + constants.AEADNonceSize + constants.AEADTagSize
	mediumCryptoBufferSize = 16*1024 + constants.AEADNonceSize + constants.AEADTagSize
	largeCryptoBufferSize  = 64*1024 + constants.AEADNonceSize + constants.AEADTagSize
)

// globalCryptoPool is the default crypto buffer pool instance.
var globalCryptoPool = NewBufferPool()

// NewBufferPool creates a new crypto buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		nonce: sync.Pool{
			New: func() any {
				buf := make([]byte, nonceBufferSize)
				return &buf
			},
		},
		small: sync.Pool{
			New: func() any {
				buf := make([]byte, smallCryptoBufferSize)
				return &buf
			},
		},
		medium: sync.Pool{
			New: func() any {
				buf := make([]byte, mediumCryptoBufferSize)
				return &buf
			},
		},
		large: sync.Pool{
			New: func() any {
				buf := make([]byte, largeCryptoBufferSize)
				return &buf
			},
		},
	}
}

// GetNonce returns a random 24-byte nonce in a pooled buffer.
func (p *BufferPool) GetNonce() ([]byte, error) {
	bufPtr := p.nonce.Get().(*[]byte)
	buf := *bufPtr
	if err := SecureRandom(buf); err != nil {
		p.nonce.Put(bufPtr)
		return nil, err
	}
	return buf, nil
}

// PutNonce returns a nonce buffer to the pool, zeroing it first.
func (p *BufferPool) PutNonce(buf []byte) {
	if buf == nil || cap(buf) != nonceBufferSize {
		return
	}
	buf = buf[:cap(buf)]
	Zeroize(buf)
	p.nonce.Put(&buf)
}

// GetCiphertext returns a ciphertext buffer of at least the requested size.
// The size should include space for the nonce and tag overhead.
func (p *BufferPool) GetCiphertext(size int) []byte {
	if size <= 0 {
		return nil
	}

	var bufPtr *[]byte

	switch {
	case size <= smallCryptoBufferSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= mediumCryptoBufferSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= largeCryptoBufferSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	return (*bufPtr)[:size]
}

// PutCiphertext returns a ciphertext buffer to the pool, zeroing any key
// material it may hold first.
func (p *BufferPool) PutCiphertext(buf []byte) {
	if buf == nil {
		return
	}

	bufCap := cap(buf)
	if bufCap == 0 {
		return
	}

	buf = buf[:bufCap]
	Zeroize(buf)

	bufPtr := &buf

	switch bufCap {
	case smallCryptoBufferSize:
		p.small.Put(bufPtr)
	case mediumCryptoBufferSize:
		p.medium.Put(bufPtr)
	case largeCryptoBufferSize:
		p.large.Put(bufPtr)
	}
}

// GetCryptoBuffer returns a buffer from the global crypto pool.
func GetCryptoBuffer(size int) []byte {
	return globalCryptoPool.GetCiphertext(size)
}

// PutCryptoBuffer returns a buffer to the global crypto pool.
func PutCryptoBuffer(buf []byte) {
	globalCryptoPool.PutCiphertext(buf)
}

// GetNonceBuffer returns a random nonce buffer from the global pool.
func GetNonceBuffer() ([]byte, error) {
	return globalCryptoPool.GetNonce()
}

// PutNonceBuffer returns a nonce buffer to the global pool.
func PutNonceBuffer(buf []byte) {
	globalCryptoPool.PutNonce(buf)
}

// SealPooled encrypts using pooled nonce and ciphertext buffers. The
// caller must call PutCryptoBuffer on the returned ciphertext when done.
func (a *AEAD) SealPooled(plaintext, additionalData []byte) ([]byte, error) {
	nonce, err := GetNonceBuffer()
	if err != nil {
		return nil, err
	}
	defer PutNonceBuffer(nonce)

	ciphertextSize := constants.AEADNonceSize + len(plaintext) + a.cipher.Overhead()
	ciphertext := GetCryptoBuffer(ciphertextSize)

	copy(ciphertext[:constants.AEADNonceSize], nonce)
	a.cipher.Seal(ciphertext[constants.AEADNonceSize:constants.AEADNonceSize], nonce, plaintext, additionalData)

	return ciphertext, nil
}
