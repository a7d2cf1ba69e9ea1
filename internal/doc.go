// Package internal contains private implementation details for the s3stream module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - s3api: The narrow S3 client interface the module depends on
//   - transfer: Storage backends that carry staged parts to S3
//   - staging: Part buffers in memory or on a filesystem
//   - digest: Stream and part checksums
//   - validation: Input validation logic
//   - pool: Memory management optimizations
//   - testutil: Mocks and fixtures shared by the module's tests
package internal
