package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/staging"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// TrackingStaging wraps a part buffer factory and counts allocations and releases.
type TrackingStaging struct {
	mu       sync.Mutex
	inner    s3types.PartBufferFactory
	Err      error
	Allocs   int
	Releases int
}

// NewTrackingStaging tracks buffers produced by inner; a nil inner uses in-memory buffers.
func NewTrackingStaging(inner s3types.PartBufferFactory) *TrackingStaging {
	if inner == nil {
		inner = staging.MemoryFactory()
	}
	return &TrackingStaging{inner: inner}
}

// Factory returns the tracked factory to hand to a writer.
func (t *TrackingStaging) Factory() s3types.PartBufferFactory {
	return func() (s3types.PartBuffer, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.Err != nil {
			return nil, t.Err
		}
		buf, err := t.inner()
		if err != nil {
			return nil, err
		}
		t.Allocs++
		return &trackedBuffer{PartBuffer: buf, owner: t}, nil
	}
}

// Live returns the number of allocated buffers not yet released.
func (t *TrackingStaging) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Allocs - t.Releases
}

type trackedBuffer struct {
	s3types.PartBuffer
	owner  *TrackingStaging
	closed bool
}

func (b *trackedBuffer) Close() error {
	if !b.closed {
		b.closed = true
		b.owner.mu.Lock()
		b.owner.Releases++
		b.owner.mu.Unlock()
	}
	return b.PartBuffer.Close()
}

// CorruptingBuffer is an in-memory part buffer that flips the first byte of
// the write at offset Offset in the caller's slice before staging it,
// simulating a staging medium that damages data in transit.
type CorruptingBuffer struct {
	*staging.Memory
	Offset  int64
	written int64
}

// CorruptingFactory returns a factory of CorruptingBuffer values that damage
// the write starting at offset.
func CorruptingFactory(offset int64) s3types.PartBufferFactory {
	return func() (s3types.PartBuffer, error) {
		return &CorruptingBuffer{Memory: staging.NewMemory(), Offset: offset}, nil
	}
}

// Write stages p, corrupting it when it covers Offset.
func (c *CorruptingBuffer) Write(p []byte) (int, error) {
	if c.Offset >= c.written && c.Offset < c.written+int64(len(p)) {
		p[c.Offset-c.written] ^= 0xff
	}
	n, err := c.Memory.Write(p)
	c.written += int64(n)
	return n, err
}
