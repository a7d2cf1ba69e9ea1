package testutil

import (
	"crypto/md5" //nolint:gosec // Content-MD5 is MD5
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"
)

// GenerateRandomData returns size pseudo-random bytes.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.IntN(256))
	}
	return data
}

// GenerateTestKey returns a unique object key under prefix.
func GenerateTestKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%sstream-%016x", prefix, rand.Uint64())
}

// GenerateTestBucketName returns a unique DNS-compliant bucket name starting with prefix.
func GenerateTestBucketName(prefix string) string {
	name := strings.ReplaceAll(strings.ToLower(prefix), "_", "-")
	name = fmt.Sprintf("%s-%08x", name, rand.Uint32())
	if len(name) > 63 {
		name = name[len(name)-63:]
	}
	return strings.Trim(name, "-")
}

// CalculateMD5 returns the base64 MD5 of data as sent in a Content-MD5 header.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // Content-MD5 is MD5
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PartETag returns the ETag the mock clients assign to a part number.
func PartETag(partNumber int32) string {
	return fmt.Sprintf(`"etag-%d"`, partNumber)
}

// Chunk splits data into consecutive slices of at most size bytes.
// A size <= 0 returns data as a single chunk.
func Chunk(data []byte, size int) [][]byte {
	if size <= 0 || len(data) == 0 {
		return [][]byte{data}
	}
	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}
