// Package multipart implements the multipart upload session contract on top
// of the S3 API.
//
// The package maps session settings and staged parts onto S3 requests and
// classifies S3 failures, leaving ordering and recovery to the writer.
package multipart
