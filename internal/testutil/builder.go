package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithCreateMultipartUpload configures the CreateMultipartUpload behavior.
func (b *MockBuilder) WithCreateMultipartUpload(
	fn func(context.Context, *s3.CreateMultipartUploadInput) (*s3.CreateMultipartUploadOutput, error),
) *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(
		ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options),
	) (*s3.CreateMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithUploadPart configures the UploadPart behavior.
func (b *MockBuilder) WithUploadPart(
	fn func(context.Context, *s3.UploadPartInput) (*s3.UploadPartOutput, error),
) *MockBuilder {
	b.client.UploadPartFunc = func(
		ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options),
	) (*s3.UploadPartOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithCompleteMultipartUpload configures the CompleteMultipartUpload behavior.
func (b *MockBuilder) WithCompleteMultipartUpload(
	fn func(context.Context, *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error),
) *MockBuilder {
	b.client.CompleteMultipartUploadFunc = func(
		ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options),
	) (*s3.CompleteMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithAbortMultipartUpload configures the AbortMultipartUpload behavior.
func (b *MockBuilder) WithAbortMultipartUpload(
	fn func(context.Context, *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error),
) *MockBuilder {
	b.client.AbortMultipartUploadFunc = func(
		ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options),
	) (*s3.AbortMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithSuccessfulMultipart configures every multipart operation to succeed.
// Part bodies are drained so the mock behaves like a real transport, and the
// part ETags are derived from the part number.
func (b *MockBuilder) WithSuccessfulMultipart(uploadID string) *MockBuilder {
	return b.
		WithCreateMultipartUpload(func(_ context.Context, _ *s3.CreateMultipartUploadInput) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String(uploadID)}, nil
		}).
		WithUploadPart(func(_ context.Context, params *s3.UploadPartInput) (*s3.UploadPartOutput, error) {
			if params.Body != nil {
				if _, err := io.Copy(io.Discard, params.Body); err != nil {
					return nil, err
				}
			}
			return &s3.UploadPartOutput{ETag: aws.String(PartETag(*params.PartNumber))}, nil
		}).
		WithCompleteMultipartUpload(func(_ context.Context, _ *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error) {
			return &s3.CompleteMultipartUploadOutput{ETag: aws.String(`"multipart-etag"`)}, nil
		}).
		WithAbortMultipartUpload(func(_ context.Context, _ *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error) {
			return &s3.AbortMultipartUploadOutput{}, nil
		})
}

// MultipartRecorder captures the multipart requests a MockS3Client receives.
type MultipartRecorder struct {
	mu        sync.Mutex
	Creates   []*s3.CreateMultipartUploadInput
	Parts     []*s3.UploadPartInput
	PartData  [][]byte
	Completes []*s3.CompleteMultipartUploadInput
	Aborts    []*s3.AbortMultipartUploadInput
}

// WithRecorder wraps the configured functions so every request is captured by rec.
// Part bodies are read into rec.PartData before the wrapped function runs.
func (b *MockBuilder) WithRecorder(rec *MultipartRecorder) *MockBuilder {
	create := b.client.CreateMultipartUploadFunc
	upload := b.client.UploadPartFunc
	complete := b.client.CompleteMultipartUploadFunc
	abort := b.client.AbortMultipartUploadFunc
	inner := &MockS3Client{
		CreateMultipartUploadFunc:   create,
		UploadPartFunc:              upload,
		CompleteMultipartUploadFunc: complete,
		AbortMultipartUploadFunc:    abort,
		Err:                         b.client.Err,
	}

	b.client.CreateMultipartUploadFunc = func(
		ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options),
	) (*s3.CreateMultipartUploadOutput, error) {
		rec.mu.Lock()
		rec.Creates = append(rec.Creates, params)
		rec.mu.Unlock()
		return inner.CreateMultipartUpload(ctx, params, optFns...)
	}
	b.client.UploadPartFunc = func(
		ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options),
	) (*s3.UploadPartOutput, error) {
		var data []byte
		if params.Body != nil {
			var err error
			if data, err = io.ReadAll(params.Body); err != nil {
				return nil, fmt.Errorf("read part body: %w", err)
			}
		}
		rec.mu.Lock()
		rec.Parts = append(rec.Parts, params)
		rec.PartData = append(rec.PartData, data)
		rec.mu.Unlock()
		return inner.UploadPart(ctx, params, optFns...)
	}
	b.client.CompleteMultipartUploadFunc = func(
		ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options),
	) (*s3.CompleteMultipartUploadOutput, error) {
		rec.mu.Lock()
		rec.Completes = append(rec.Completes, params)
		rec.mu.Unlock()
		return inner.CompleteMultipartUpload(ctx, params, optFns...)
	}
	b.client.AbortMultipartUploadFunc = func(
		ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options),
	) (*s3.AbortMultipartUploadOutput, error) {
		rec.mu.Lock()
		rec.Aborts = append(rec.Aborts, params)
		rec.mu.Unlock()
		return inner.AbortMultipartUpload(ctx, params, optFns...)
	}
	return b
}
