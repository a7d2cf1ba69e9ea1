// Package s3types provides shared type definitions for the s3stream module.
package s3types

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// StorageClass represents the storage class for uploaded objects.
type StorageClass string

// Predefined S3 storage classes
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// SSEType represents the server-side encryption type for objects.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses S3-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses AWS KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"

	// SSEC uses customer-provided encryption keys
	SSEC SSEType = "AES256"
)

// ObjectACL represents the canned access control list applied when a session begins.
// The zero value means no ACL is sent and the bucket default applies.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerRead grants bucket owner read access
	ACLOwnerRead ObjectACL = "bucket-owner-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"
)

// SSEConfig contains server-side encryption configuration.
type SSEConfig struct {
	// Type is the encryption type (S3, KMS, or customer-provided)
	Type SSEType

	// KMSKeyID is the KMS key ID (required for SSE-KMS)
	KMSKeyID string

	// CustomerKey is the customer-provided encryption key (for SSE-C)
	CustomerKey string

	// CustomerKeyMD5 is the MD5 hash of the customer key (for SSE-C)
	CustomerKeyMD5 string
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations receive an update after every acknowledged part.
type ProgressTracker interface {
	// Update is called with the number of bytes acknowledged by storage so far.
	// totalBytes is -1 because the length of a stream is not known up front.
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// Session identifies one in-progress multipart upload.
// It is created by SessionStore.BeginSession and never modified afterwards.
type Session struct {
	// Bucket is the target bucket name
	Bucket string

	// Key is the target object key
	Key string

	// UploadID is the identifier assigned by the storage service
	UploadID string

	// ACL is the canned ACL the session was started with, if any
	ACL ObjectACL
}

// Part is one contiguous byte range of the stream submitted to UploadPart.
type Part struct {
	// Number is the 1-based part sequence number
	Number int32

	// Body holds the staged part bytes, positioned at the start
	Body io.ReadSeeker

	// Size is the number of bytes in Body
	Size int64

	// Last marks the final part of the session
	Last bool

	// MD5 is the digest of the part content, used by storage for per-part verification
	MD5 []byte
}

// PartReceipt is the storage acknowledgment for one uploaded part.
type PartReceipt struct {
	// PartNumber is the sequence number of the acknowledged part
	PartNumber int32

	// ETag is the tag assigned to the part by the storage service
	ETag string

	// Size is the number of bytes in the part
	Size int64
}

// SessionConfig carries the settings applied when a session begins.
type SessionConfig struct {
	ACL          ObjectACL
	ContentType  string
	Metadata     map[string]string
	StorageClass StorageClass
	SSE          *SSEConfig
}

// CompleteOutput is returned by SessionStore.CompleteSession.
type CompleteOutput struct {
	// ETag is the entity tag of the assembled object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Location is the URL of the assembled object, when reported
	Location string
}

// SessionStore is the object storage capability a Writer drives.
// Calls for one session are strictly sequential.
type SessionStore interface {
	// BeginSession starts a multipart upload for bucket/key.
	BeginSession(ctx context.Context, bucket, key string, cfg *SessionConfig) (*Session, error)

	// UploadPart uploads one part and returns its receipt.
	UploadPart(ctx context.Context, session *Session, part *Part) (*PartReceipt, error)

	// CompleteSession assembles the object from receipts ordered by part number.
	CompleteSession(ctx context.Context, session *Session, receipts []PartReceipt) (*CompleteOutput, error)

	// AbortSession discards the session and any uploaded parts.
	AbortSession(ctx context.Context, session *Session) error
}

// PartBuffer is the staging area for the part currently being filled.
// It accepts writes until Reader seals it; Reset makes it writable and empty
// again, and Close releases the backing storage.
type PartBuffer interface {
	io.Writer

	// Len returns the number of bytes written since the last Reset.
	Len() int64

	// Reader seals the buffer and returns its content positioned at the start.
	Reader() (io.ReadSeeker, error)

	// Reset discards the content and reopens the buffer for writing.
	Reset() error

	// Close releases the backing storage. It is safe to call more than once.
	Close() error
}

// PartBufferFactory allocates the PartBuffer a Writer stages parts in.
type PartBufferFactory func() (PartBuffer, error)

// UploadResult contains the result of a completed streaming upload.
type UploadResult struct {
	// Bucket is the bucket the object was written to
	Bucket string

	// Key is the object key that was uploaded
	Key string

	// UploadID is the multipart upload identifier
	UploadID string

	// Size is the size of the uploaded object in bytes
	Size int64

	// Parts is the number of parts the object was assembled from
	Parts int

	// ETag is the entity tag for the uploaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Location is the URL of the object, when reported by storage
	Location string

	// Duration is how long the upload took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the S3 client.
type ClientConfig struct {
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	PartSize         int64
	ForcePathStyle   bool
	CustomAWSConfig  *aws.Config
	RetryMode        string
	CustomHTTPClient *http.Client
	Staging          PartBufferFactory
	Logger           *slog.Logger
}

// WriterConfig holds configuration for a streaming writer.
type WriterConfig struct {
	ACL             ObjectACL
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	SSE             *SSEConfig
	ProgressTracker ProgressTracker
	PartSize        int64
	Staging         PartBufferFactory
	Logger          *slog.Logger
}

// SessionConfig returns the subset of the writer configuration sent when the session begins.
func (c *WriterConfig) SessionConfig() *SessionConfig {
	return &SessionConfig{
		ACL:          c.ACL,
		ContentType:  c.ContentType,
		Metadata:     c.Metadata,
		StorageClass: c.StorageClass,
		SSE:          c.SSE,
	}
}

type (
	// Option is a functional option for configuring the S3 client.
	Option func(*ClientConfig)
	// WriterOption is a functional option for configuring a streaming writer.
	WriterOption func(*WriterConfig)
)
