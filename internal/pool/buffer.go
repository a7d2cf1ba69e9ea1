package pool

import (
	"bytes"
	"sync"
)

const (
	// InitialBufferSize is the minimum capacity of a buffer handed out by the pool (1MB)
	InitialBufferSize = 1024 * 1024
	// DefaultMaxRetainedSize is the largest buffer kept for reuse by default (64MB)
	DefaultMaxRetainedSize = 64 * 1024 * 1024
)

// BufferPool manages reusable growable buffers to reduce allocations.
type BufferPool struct {
	pool        sync.Pool
	maxRetained int
}

// NewBufferPool creates a new buffer pool that keeps buffers up to maxRetained bytes of capacity.
// A non-positive maxRetained selects DefaultMaxRetainedSize.
func NewBufferPool(maxRetained int) *BufferPool {
	if maxRetained <= 0 {
		maxRetained = DefaultMaxRetainedSize
	}
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, InitialBufferSize))
			},
		},
		maxRetained: maxRetained,
	}
}

// Get returns an empty buffer from the pool.
// The caller is responsible for calling Put to return the buffer to the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool.
// Buffers that grew beyond the retention limit are dropped to avoid memory bloat.
// The buffer should not be used after calling Put.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > bp.maxRetained {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}

// MaxRetained returns the largest buffer capacity the pool keeps.
func (bp *BufferPool) MaxRetained() int {
	return bp.maxRetained
}

// Global buffer pool instance for use throughout the module.
var globalBufferPool = NewBufferPool(DefaultMaxRetainedSize)

// GetBuffer returns an empty buffer from the global pool.
func GetBuffer() *bytes.Buffer {
	return globalBufferPool.Get()
}

// PutBuffer returns a buffer to the global pool.
func PutBuffer(buf *bytes.Buffer) {
	globalBufferPool.Put(buf)
}
