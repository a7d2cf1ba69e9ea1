package staging

import (
	"bytes"
	"errors"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

var (
	// ErrSealed is returned by Write after Reader sealed the buffer.
	ErrSealed = errors.New("staging: buffer sealed")

	// ErrReleased is returned by any operation after Close.
	ErrReleased = errors.New("staging: buffer released")
)

// Memory stages a part in a pooled in-memory buffer.
type Memory struct {
	buf    *bytes.Buffer
	sealed bool
}

// NewMemory returns an empty in-memory part buffer.
func NewMemory() *Memory {
	return &Memory{buf: pool.GetBuffer()}
}

// MemoryFactory returns a factory producing in-memory part buffers.
func MemoryFactory() s3types.PartBufferFactory {
	return func() (s3types.PartBuffer, error) {
		return NewMemory(), nil
	}
}

// Write appends p to the buffer.
func (m *Memory) Write(p []byte) (int, error) {
	if m.buf == nil {
		return 0, ErrReleased
	}
	if m.sealed {
		return 0, ErrSealed
	}
	return m.buf.Write(p)
}

// Len returns the number of staged bytes.
func (m *Memory) Len() int64 {
	if m.buf == nil {
		return 0
	}
	return int64(m.buf.Len())
}

// Reader seals the buffer and returns a reader over the staged bytes.
// The reader is valid until the next Reset or Close.
func (m *Memory) Reader() (io.ReadSeeker, error) {
	if m.buf == nil {
		return nil, ErrReleased
	}
	m.sealed = true
	return bytes.NewReader(m.buf.Bytes()), nil
}

// Reset empties the buffer and reopens it for writing.
func (m *Memory) Reset() error {
	if m.buf == nil {
		return ErrReleased
	}
	m.buf.Reset()
	m.sealed = false
	return nil
}

// Close returns the backing buffer to the pool.
func (m *Memory) Close() error {
	if m.buf == nil {
		return nil
	}
	pool.PutBuffer(m.buf)
	m.buf = nil
	return nil
}

var _ s3types.PartBuffer = (*Memory)(nil)
