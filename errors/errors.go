// Package errors provides error types and handling for streaming multipart uploads.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the operation that failed.
// It wraps the underlying storage or local error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "beginSession", "uploadPart", "close")
	Op string

	// Bucket is the target bucket name (if applicable)
	Bucket string

	// Key is the target object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3stream.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3stream.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3stream.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3stream.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Kind joins a sentinel error kind with the underlying cause so that both
// errors.Is(err, kind) and errors.Is(err, cause) hold.
// A nil cause returns the kind unchanged.
func Kind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Sentinel errors for upload failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrClosed indicates the writer was already closed or aborted
	ErrClosed = errors.New("s3stream: writer closed")

	// ErrAborted indicates the upload session was aborted explicitly
	ErrAborted = errors.New("s3stream: upload aborted")

	// ErrBeginSession indicates the multipart session could not be started
	ErrBeginSession = errors.New("s3stream: begin session failed")

	// ErrPartUpload indicates the storage service rejected or failed a part upload
	ErrPartUpload = errors.New("s3stream: part upload failed")

	// ErrCompletion indicates the storage service failed to complete the session
	ErrCompletion = errors.New("s3stream: completion failed")

	// ErrChecksumMismatch indicates the bytes written by the caller differ from the bytes staged for upload
	ErrChecksumMismatch = errors.New("s3stream: checksum mismatch")

	// ErrTooManyParts indicates the stream needs more parts than a session allows
	ErrTooManyParts = errors.New("s3stream: too many parts")

	// ErrStaging indicates the local part staging medium failed
	ErrStaging = errors.New("s3stream: staging failed")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3stream: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3stream: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3stream: invalid object key")

	// ErrInvalidPartSize indicates that the configured part size is out of range
	ErrInvalidPartSize = errors.New("s3stream: invalid part size")

	// ErrBucketNotFound indicates that the target bucket does not exist
	ErrBucketNotFound = errors.New("s3stream: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3stream: access denied")

	// ErrUploadNotFound indicates the storage service no longer knows the upload id
	ErrUploadNotFound = errors.New("s3stream: upload not found")
)

// IsClosed checks if an error indicates use of a closed or aborted writer.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsPartUpload checks if an error indicates a failed part upload.
func IsPartUpload(err error) bool {
	return errors.Is(err, ErrPartUpload)
}

// IsCompletion checks if an error indicates a failed session completion.
func IsCompletion(err error) bool {
	return errors.Is(err, ErrCompletion)
}

// IsChecksumMismatch checks if an error indicates a local integrity failure.
func IsChecksumMismatch(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}

// IsInvalidInput checks if an error indicates invalid input.
// Bucket, key and part size validation errors all count as invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBucketName) ||
		errors.Is(err, ErrInvalidObjectKey) ||
		errors.Is(err, ErrInvalidPartSize)
}
