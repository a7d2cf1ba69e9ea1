// Package validation provides input validation for streaming uploads.
// Bucket names, object keys and writer settings are checked before a
// multipart session is started, so invalid input never costs a remote call.
package validation
