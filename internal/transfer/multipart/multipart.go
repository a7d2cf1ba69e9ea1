package multipart

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/digest"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// Store drives multipart upload sessions against S3
type Store struct {
	s3Client s3api.S3API

	// customerKeys holds SSE-C settings per upload id; S3 requires them on every part
	mu           sync.Mutex
	customerKeys map[string]*s3types.SSEConfig
}

// NewStore creates a new S3 session store
func NewStore(s3Client s3api.S3API) *Store {
	return &Store{
		s3Client:     s3Client,
		customerKeys: make(map[string]*s3types.SSEConfig),
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

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	// The ACL is only sent here, never per part
	if cfg.ACL != "" {
		input.ACL = awstypes.ObjectCannedACL(cfg.ACL)
	}

	if cfg.ContentType != "" {
		input.ContentType = aws.String(cfg.ContentType)
	}

	// Set storage class if specified
	if cfg.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(cfg.StorageClass)
	}

	// Set metadata if provided
	if len(cfg.Metadata) > 0 {
		input.Metadata = cfg.Metadata
	}

	// Set SSE if configured
	if sse := cfg.SSE; sse != nil {
		switch {
		case sse.CustomerKey != "":
			input.SSECustomerAlgorithm = aws.String(string(sse.Type))
			input.SSECustomerKey = aws.String(sse.CustomerKey)
			input.SSECustomerKeyMD5 = aws.String(sse.CustomerKeyMD5)
		case sse.Type == s3types.SSEKMS:
			input.ServerSideEncryption = awstypes.ServerSideEncryptionAwsKms
			if sse.KMSKeyID != "" {
				input.SSEKMSKeyId = aws.String(sse.KMSKeyID)
			}
		default:
			input.ServerSideEncryption = awstypes.ServerSideEncryptionAes256
		}
	}

	output, err := s.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, errors.NewObjectError("createMultipartUpload", bucket, key, classify(err))
	}

	session := &s3types.Session{
		Bucket:   bucket,
		Key:      key,
		UploadID: aws.ToString(output.UploadId),
		ACL:      cfg.ACL,
	}
	if cfg.SSE != nil && cfg.SSE.CustomerKey != "" {
		s.mu.Lock()
		s.customerKeys[session.UploadID] = cfg.SSE
		s.mu.Unlock()
	}

	return session, nil
}

// UploadPart uploads a single staged part
func (s *Store) UploadPart(
	ctx context.Context,
	session *s3types.Session,
	part *s3types.Part,
) (*s3types.PartReceipt, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(session.Bucket),
		Key:           aws.String(session.Key),
		UploadId:      aws.String(session.UploadID),
		PartNumber:    aws.Int32(part.Number),
		Body:          part.Body,
		ContentLength: aws.Int64(part.Size),
	}

	if len(part.MD5) > 0 {
		input.ContentMD5 = aws.String(digest.ContentMD5(part.MD5))
	}

	if sse := s.customerKey(session.UploadID); sse != nil {
		input.SSECustomerAlgorithm = aws.String(string(sse.Type))
		input.SSECustomerKey = aws.String(sse.CustomerKey)
		input.SSECustomerKeyMD5 = aws.String(sse.CustomerKeyMD5)
	}

	output, err := s.s3Client.UploadPart(ctx, input)
	if err != nil {
		return nil, errors.NewObjectError("uploadPart", session.Bucket, session.Key, classify(err))
	}

	return &s3types.PartReceipt{
		PartNumber: part.Number,
		ETag:       aws.ToString(output.ETag),
		Size:       part.Size,
	}, nil
}

// CompleteSession completes the multipart upload from receipts ordered by part number
func (s *Store) CompleteSession(
	ctx context.Context,
	session *s3types.Session,
	receipts []s3types.PartReceipt,
) (*s3types.CompleteOutput, error) {
	parts := make([]awstypes.CompletedPart, 0, len(receipts))
	for _, receipt := range receipts {
		parts = append(parts, awstypes.CompletedPart{
			ETag:       aws.String(receipt.ETag),
			PartNumber: aws.Int32(receipt.PartNumber),
		})
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(session.Bucket),
		Key:      aws.String(session.Key),
		UploadId: aws.String(session.UploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: parts,
		},
	}

	if sse := s.customerKey(session.UploadID); sse != nil {
		input.SSECustomerAlgorithm = aws.String(string(sse.Type))
		input.SSECustomerKey = aws.String(sse.CustomerKey)
		input.SSECustomerKeyMD5 = aws.String(sse.CustomerKeyMD5)
	}

	output, err := s.s3Client.CompleteMultipartUpload(ctx, input)
	if err != nil {
		return nil, errors.NewObjectError("completeMultipartUpload", session.Bucket, session.Key, classify(err))
	}

	s.forget(session.UploadID)

	return &s3types.CompleteOutput{
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Location:  aws.ToString(output.Location),
	}, nil
}

// AbortSession cleans up a failed multipart upload
func (s *Store) AbortSession(ctx context.Context, session *s3types.Session) error {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(session.Bucket),
		Key:      aws.String(session.Key),
		UploadId: aws.String(session.UploadID),
	}
	s.forget(session.UploadID)
	if _, err := s.s3Client.AbortMultipartUpload(ctx, input); err != nil {
		return errors.NewObjectError("abortMultipartUpload", session.Bucket, session.Key, classify(err))
	}
	return nil
}

func (s *Store) customerKey(uploadID string) *s3types.SSEConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerKeys[uploadID]
}

func (s *Store) forget(uploadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customerKeys, uploadID)
}

// classify attaches the matching sentinel to well-known S3 error codes.
// The original error stays in the chain.
func classify(err error) error {
	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "NoSuchBucket":
		return errors.Kind(errors.ErrBucketNotFound, err)
	case "AccessDenied", "AllAccessDisabled":
		return errors.Kind(errors.ErrAccessDenied, err)
	case "NoSuchUpload":
		return errors.Kind(errors.ErrUploadNotFound, err)
	}
	return err
}

var _ s3types.SessionStore = (*Store)(nil)
