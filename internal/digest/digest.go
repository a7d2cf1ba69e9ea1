// Package digest provides the incremental checksums used to verify streamed uploads.
//
// Two kinds of accumulators exist: Stream, a fast non-cryptographic checksum
// over an entire logical stream used for local end-to-end comparison, and
// Part, the MD5 digest of a single part that storage verifies on receipt.
package digest

import (
	"crypto/md5" //nolint:gosec // MD5 is the Content-MD5 integrity digest, not a security primitive.
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
)

// Stream is a running checksum over every byte fed to it, plus a byte count.
type Stream struct {
	h *xxhash.Digest
	n int64
}

// NewStream returns an empty stream checksum.
func NewStream() *Stream {
	return &Stream{h: xxhash.New()}
}

// Write feeds p into the checksum. It never fails.
func (s *Stream) Write(p []byte) (int, error) {
	s.n += int64(len(p))
	return s.h.Write(p)
}

// Len returns the number of bytes fed so far.
func (s *Stream) Len() int64 {
	return s.n
}

// Sum64 returns the current checksum value.
func (s *Stream) Sum64() uint64 {
	return s.h.Sum64()
}

// String returns the checksum and length in a form suitable for error messages.
func (s *Stream) String() string {
	return fmt.Sprintf("%016x/%d", s.h.Sum64(), s.n)
}

// Match reports whether two stream checksums cover identical byte sequences.
func Match(a, b *Stream) bool {
	return a.n == b.n && a.h.Sum64() == b.h.Sum64()
}

// Part is the MD5 accumulator for the part currently being staged.
type Part struct {
	h hash.Hash
}

// NewPart returns an empty part digest.
func NewPart() *Part {
	return &Part{h: md5.New()} //nolint:gosec // see import comment
}

// Write feeds p into the digest. It never fails.
func (p *Part) Write(b []byte) (int, error) {
	return p.h.Write(b)
}

// Sum returns the MD5 of everything written since the last Reset.
func (p *Part) Sum() []byte {
	return p.h.Sum(nil)
}

// Reset clears the digest for the next part.
func (p *Part) Reset() {
	p.h.Reset()
}

// ContentMD5 encodes an MD5 sum the way the Content-MD5 header expects it.
func ContentMD5(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}

// Hex returns the lowercase hexadecimal form of a digest.
func Hex(sum []byte) string {
	return hex.EncodeToString(sum)
}
