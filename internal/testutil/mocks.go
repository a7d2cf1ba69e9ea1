// Package testutil provides mocks, fakes and fixtures for testing multipart
// upload sessions. It is only imported by tests.
package testutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/s3api"
)

// MockUploadID is the upload id MockS3Client assigns when CreateMultipartUploadFunc is unset.
const MockUploadID = "mock-upload"

// MockS3Client implements s3api.S3API with one overridable function per call.
// Unset functions fail with Err when it is non-nil and otherwise succeed:
// uploads get MockUploadID and parts get PartETag.
type MockS3Client struct {
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)

	Err error
}

func (m *MockS3Client) CreateMultipartUpload(
	ctx context.Context,
	params *s3.CreateMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	switch {
	case m.CreateMultipartUploadFunc != nil:
		return m.CreateMultipartUploadFunc(ctx, params, optFns...)
	case m.Err != nil:
		return nil, m.Err
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(MockUploadID),
	}, nil
}

func (m *MockS3Client) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	optFns ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	switch {
	case m.UploadPartFunc != nil:
		return m.UploadPartFunc(ctx, params, optFns...)
	case m.Err != nil:
		return nil, m.Err
	}
	return &s3.UploadPartOutput{ETag: aws.String(PartETag(aws.ToInt32(params.PartNumber)))}, nil
}

func (m *MockS3Client) CompleteMultipartUpload(
	ctx context.Context,
	params *s3.CompleteMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	switch {
	case m.CompleteMultipartUploadFunc != nil:
		return m.CompleteMultipartUploadFunc(ctx, params, optFns...)
	case m.Err != nil:
		return nil, m.Err
	}
	return &s3.CompleteMultipartUploadOutput{Bucket: params.Bucket, Key: params.Key}, nil
}

func (m *MockS3Client) AbortMultipartUpload(
	ctx context.Context,
	params *s3.AbortMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	switch {
	case m.AbortMultipartUploadFunc != nil:
		return m.AbortMultipartUploadFunc(ctx, params, optFns...)
	case m.Err != nil:
		return nil, m.Err
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

var _ s3api.S3API = (*MockS3Client)(nil)
