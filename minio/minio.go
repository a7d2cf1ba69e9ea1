// Package minio provides a session store that drives multipart uploads on
// MinIO and other S3-compatible servers through the minio-go client.
package minio

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/digest"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// aclHeader carries the canned ACL; minio-go sends x-amz-* metadata keys verbatim.
const aclHeader = "x-amz-acl"

// CoreAPI is the subset of *minio.Core used by Store.
type CoreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts miniogo.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts miniogo.PutObjectPartOptions,
	) (miniogo.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []miniogo.CompletePart,
		opts miniogo.PutObjectOptions,
	) (miniogo.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
}

// Config holds connection settings for a MinIO server.
type Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	Region       string `mapstructure:"region"`
}

// Validate checks that the settings needed to connect are present.
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.NewError("minioConfig", errors.ErrInvalidInput).WithMessage("endpoint is required")
	case c.AccessKey == "":
		return errors.NewError("minioConfig", errors.ErrInvalidInput).WithMessage("access key is required")
	case c.SecretKey == "":
		return errors.NewError("minioConfig", errors.ErrInvalidInput).WithMessage("secret key is required")
	}
	return nil
}

// Store drives multipart upload sessions on a MinIO server.
type Store struct {
	core CoreAPI

	mu           sync.Mutex
	customerKeys map[string]encrypt.ServerSide
}

// New connects to the server described by cfg.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core, err := miniogo.NewCore(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NewError("minioConnect", fmt.Errorf("create minio core: %w", err))
	}
	return NewWithCore(core), nil
}

// NewWithCore creates a Store over an existing client.
// This is primarily used for testing with mocked clients.
func NewWithCore(core CoreAPI) *Store {
	return &Store{
		core:         core,
		customerKeys: make(map[string]encrypt.ServerSide),
	}
}

// BeginSession creates a new multipart upload
func (s *Store) BeginSession(
	ctx context.Context,
	bucket, key string,
	cfg *s3types.SessionConfig,
) (*s3types.Session, error) {
	if cfg == nil {
		cfg = &s3types.SessionConfig{}
	}

	opts := miniogo.PutObjectOptions{
		ContentType:  cfg.ContentType,
		StorageClass: string(cfg.StorageClass),
	}
	if len(cfg.Metadata) > 0 || cfg.ACL != "" {
		opts.UserMetadata = make(map[string]string, len(cfg.Metadata)+1)
		for k, v := range cfg.Metadata {
			opts.UserMetadata[k] = v
		}
		if cfg.ACL != "" {
			opts.UserMetadata[aclHeader] = string(cfg.ACL)
		}
	}

	sse, err := serverSide(cfg.SSE)
	if err != nil {
		return nil, errors.NewObjectError("newMultipartUpload", bucket, key, errors.Kind(errors.ErrInvalidInput, err))
	}
	opts.ServerSideEncryption = sse

	uploadID, err := s.core.NewMultipartUpload(ctx, bucket, key, opts)
	if err != nil {
		return nil, errors.NewObjectError("newMultipartUpload", bucket, key, classify(err))
	}

	if sse != nil && sse.Type() == encrypt.SSEC {
		s.mu.Lock()
		s.customerKeys[uploadID] = sse
		s.mu.Unlock()
	}

	return &s3types.Session{
		Bucket:   bucket,
		Key:      key,
		UploadID: uploadID,
		ACL:      cfg.ACL,
	}, nil
}

// UploadPart uploads a single staged part
func (s *Store) UploadPart(
	ctx context.Context,
	session *s3types.Session,
	part *s3types.Part,
) (*s3types.PartReceipt, error) {
	opts := miniogo.PutObjectPartOptions{
		SSE: s.customerKey(session.UploadID),
	}
	if len(part.MD5) > 0 {
		opts.Md5Base64 = digest.ContentMD5(part.MD5)
	}

	uploaded, err := s.core.PutObjectPart(ctx, session.Bucket, session.Key, session.UploadID,
		int(part.Number), part.Body, part.Size, opts)
	if err != nil {
		return nil, errors.NewObjectError("putObjectPart", session.Bucket, session.Key, classify(err))
	}

	return &s3types.PartReceipt{
		PartNumber: part.Number,
		ETag:       uploaded.ETag,
		Size:       part.Size,
	}, nil
}

// CompleteSession completes the multipart upload from receipts ordered by part number
func (s *Store) CompleteSession(
	ctx context.Context,
	session *s3types.Session,
	receipts []s3types.PartReceipt,
) (*s3types.CompleteOutput, error) {
	parts := make([]miniogo.CompletePart, 0, len(receipts))
	for _, receipt := range receipts {
		parts = append(parts, miniogo.CompletePart{
			PartNumber: int(receipt.PartNumber),
			ETag:       receipt.ETag,
		})
	}

	opts := miniogo.PutObjectOptions{
		ServerSideEncryption: s.customerKey(session.UploadID),
	}
	info, err := s.core.CompleteMultipartUpload(ctx, session.Bucket, session.Key, session.UploadID, parts, opts)
	if err != nil {
		return nil, errors.NewObjectError("completeMultipartUpload", session.Bucket, session.Key, classify(err))
	}

	s.forget(session.UploadID)

	return &s3types.CompleteOutput{
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Location:  info.Location,
	}, nil
}

// AbortSession cleans up a failed multipart upload
func (s *Store) AbortSession(ctx context.Context, session *s3types.Session) error {
	s.forget(session.UploadID)
	if err := s.core.AbortMultipartUpload(ctx, session.Bucket, session.Key, session.UploadID); err != nil {
		return errors.NewObjectError("abortMultipartUpload", session.Bucket, session.Key, classify(err))
	}
	return nil
}

func (s *Store) customerKey(uploadID string) encrypt.ServerSide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerKeys[uploadID]
}

func (s *Store) forget(uploadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customerKeys, uploadID)
}

// serverSide converts an SSE configuration into its minio-go form.
func serverSide(cfg *s3types.SSEConfig) (encrypt.ServerSide, error) {
	switch {
	case cfg == nil:
		return nil, nil
	case cfg.CustomerKey != "":
		return encrypt.NewSSEC([]byte(cfg.CustomerKey))
	case cfg.Type == s3types.SSEKMS:
		return encrypt.NewSSEKMS(cfg.KMSKeyID, nil)
	default:
		return encrypt.NewSSE(), nil
	}
}

// classify attaches the matching sentinel to well-known S3 error codes.
func classify(err error) error {
	var resp miniogo.ErrorResponse
	if !stderrors.As(err, &resp) {
		return err
	}

	switch resp.Code {
	case "NoSuchBucket":
		return errors.Kind(errors.ErrBucketNotFound, err)
	case "AccessDenied":
		return errors.Kind(errors.ErrAccessDenied, err)
	case "NoSuchUpload":
		return errors.Kind(errors.ErrUploadNotFound, err)
	}
	return err
}

var (
	_ CoreAPI              = (*miniogo.Core)(nil)
	_ s3types.SessionStore = (*Store)(nil)
)
