// Package staging provides the accumulation buffers parts are staged in
// before upload.
//
// Two media are available: Memory keeps the part in a pooled growable buffer,
// File spills it to a temporary file on a go-billy filesystem. Both satisfy
// s3types.PartBuffer.
package staging
