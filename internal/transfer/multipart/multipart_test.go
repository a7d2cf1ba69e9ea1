package multipart

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/digest"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

func TestStore_BeginSession(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *s3types.SessionConfig
		check func(t *testing.T, in *s3.CreateMultipartUploadInput)
	}{
		{
			name: "nil config",
			cfg:  nil,
			check: func(t *testing.T, in *s3.CreateMultipartUploadInput) {
				assert.Empty(t, in.ACL)
				assert.Nil(t, in.ContentType)
				assert.Empty(t, in.ServerSideEncryption)
			},
		},
		{
			name: "acl and content type",
			cfg: &s3types.SessionConfig{
				ACL:          s3types.ACLPublicRead,
				ContentType:  "application/json",
				StorageClass: s3types.StorageClassStandardIA,
				Metadata:     map[string]string{"owner": "ci"},
			},
			check: func(t *testing.T, in *s3.CreateMultipartUploadInput) {
				assert.Equal(t, awstypes.ObjectCannedACLPublicRead, in.ACL)
				assert.Equal(t, "application/json", aws.ToString(in.ContentType))
				assert.Equal(t, awstypes.StorageClassStandardIa, in.StorageClass)
				assert.Equal(t, map[string]string{"owner": "ci"}, in.Metadata)
			},
		},
		{
			name: "sse-s3",
			cfg:  &s3types.SessionConfig{SSE: &s3types.SSEConfig{Type: s3types.SSES3}},
			check: func(t *testing.T, in *s3.CreateMultipartUploadInput) {
				assert.Equal(t, awstypes.ServerSideEncryptionAes256, in.ServerSideEncryption)
			},
		},
		{
			name: "sse-kms",
			cfg:  &s3types.SessionConfig{SSE: &s3types.SSEConfig{Type: s3types.SSEKMS, KMSKeyID: "key-1"}},
			check: func(t *testing.T, in *s3.CreateMultipartUploadInput) {
				assert.Equal(t, awstypes.ServerSideEncryptionAwsKms, in.ServerSideEncryption)
				assert.Equal(t, "key-1", aws.ToString(in.SSEKMSKeyId))
			},
		},
		{
			name: "sse-c",
			cfg: &s3types.SessionConfig{SSE: &s3types.SSEConfig{
				Type: s3types.SSEC, CustomerKey: "secret", CustomerKeyMD5: "md5",
			}},
			check: func(t *testing.T, in *s3.CreateMultipartUploadInput) {
				assert.Empty(t, in.ServerSideEncryption)
				assert.Equal(t, "AES256", aws.ToString(in.SSECustomerAlgorithm))
				assert.Equal(t, "secret", aws.ToString(in.SSECustomerKey))
				assert.Equal(t, "md5", aws.ToString(in.SSECustomerKeyMD5))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &testutil.MultipartRecorder{}
			mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
			store := NewStore(mock)

			session, err := store.BeginSession(context.Background(), "bucket", "key", tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, "upload-1", session.UploadID)
			assert.Equal(t, "bucket", session.Bucket)
			assert.Equal(t, "key", session.Key)

			require.Len(t, rec.Creates, 1)
			tt.check(t, rec.Creates[0])
		})
	}
}

func TestStore_UploadPart(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
	store := NewStore(mock)
	ctx := context.Background()

	session, err := store.BeginSession(ctx, "bucket", "key", &s3types.SessionConfig{ACL: s3types.ACLPrivate})
	require.NoError(t, err)

	data := []byte("part payload")
	sum := digest.NewPart()
	_, _ = sum.Write(data)

	receipt, err := store.UploadPart(ctx, session, &s3types.Part{
		Number: 1,
		Body:   bytes.NewReader(data),
		Size:   int64(len(data)),
		MD5:    sum.Sum(),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), receipt.PartNumber)
	assert.Equal(t, testutil.PartETag(1), receipt.ETag)
	assert.Equal(t, int64(len(data)), receipt.Size)

	require.Len(t, rec.Parts, 1)
	in := rec.Parts[0]
	assert.Equal(t, "upload-1", aws.ToString(in.UploadId))
	assert.Equal(t, int64(len(data)), aws.ToInt64(in.ContentLength))
	assert.Equal(t, testutil.CalculateMD5(data), aws.ToString(in.ContentMD5))
	assert.Nil(t, in.SSECustomerKey)
	assert.Equal(t, data, rec.PartData[0])
}

func TestStore_UploadPartEmpty(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
	store := NewStore(mock)

	session := &s3types.Session{Bucket: "bucket", Key: "key", UploadID: "upload-1"}
	_, err := store.UploadPart(context.Background(), session, &s3types.Part{
		Number: 1,
		Body:   bytes.NewReader(nil),
		Last:   true,
	})
	require.NoError(t, err)

	require.Len(t, rec.Parts, 1)
	assert.Equal(t, int64(0), aws.ToInt64(rec.Parts[0].ContentLength))
	assert.Nil(t, rec.Parts[0].ContentMD5)
}

func TestStore_CustomerKeyOnEveryRequest(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-c").WithRecorder(rec).Build()
	store := NewStore(mock)
	ctx := context.Background()

	sse := &s3types.SSEConfig{Type: s3types.SSEC, CustomerKey: "secret", CustomerKeyMD5: "md5"}
	session, err := store.BeginSession(ctx, "bucket", "key", &s3types.SessionConfig{SSE: sse})
	require.NoError(t, err)

	_, err = store.UploadPart(ctx, session, &s3types.Part{Number: 1, Body: bytes.NewReader([]byte("x")), Size: 1})
	require.NoError(t, err)
	_, err = store.CompleteSession(ctx, session, []s3types.PartReceipt{{PartNumber: 1, ETag: "e1"}})
	require.NoError(t, err)

	assert.Equal(t, "secret", aws.ToString(rec.Parts[0].SSECustomerKey))
	assert.Equal(t, "secret", aws.ToString(rec.Completes[0].SSECustomerKey))

	// The key is forgotten once the session ends
	_, err = store.UploadPart(ctx, session, &s3types.Part{Number: 2, Body: bytes.NewReader(nil)})
	require.NoError(t, err)
	assert.Nil(t, rec.Parts[1].SSECustomerKey)
}

func TestStore_CompleteSession(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().
		WithSuccessfulMultipart("upload-1").
		WithCompleteMultipartUpload(func(_ context.Context, _ *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error) {
			return &s3.CompleteMultipartUploadOutput{
				ETag:      aws.String(`"final"`),
				VersionId: aws.String("v2"),
				Location:  aws.String("https://bucket.example/key"),
			}, nil
		}).
		WithRecorder(rec).
		Build()
	store := NewStore(mock)

	session := &s3types.Session{Bucket: "bucket", Key: "key", UploadID: "upload-1"}
	receipts := []s3types.PartReceipt{
		{PartNumber: 1, ETag: "e1"},
		{PartNumber: 2, ETag: "e2"},
		{PartNumber: 3, ETag: "e3"},
	}
	out, err := store.CompleteSession(context.Background(), session, receipts)
	require.NoError(t, err)
	assert.Equal(t, `"final"`, out.ETag)
	assert.Equal(t, "v2", out.VersionID)
	assert.Equal(t, "https://bucket.example/key", out.Location)

	require.Len(t, rec.Completes, 1)
	parts := rec.Completes[0].MultipartUpload.Parts
	require.Len(t, parts, 3)
	for i, p := range parts {
		assert.Equal(t, int32(i+1), aws.ToInt32(p.PartNumber))
		assert.Equal(t, receipts[i].ETag, aws.ToString(p.ETag))
	}
}

func TestStore_AbortSession(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
	store := NewStore(mock)

	session := &s3types.Session{Bucket: "bucket", Key: "key", UploadID: "upload-1"}
	require.NoError(t, store.AbortSession(context.Background(), session))

	require.Len(t, rec.Aborts, 1)
	assert.Equal(t, "upload-1", aws.ToString(rec.Aborts[0].UploadId))
}

func TestStore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		sentinel error
	}{
		{"no such bucket", "NoSuchBucket", errors.ErrBucketNotFound},
		{"access denied", "AccessDenied", errors.ErrAccessDenied},
		{"no such upload", "NoSuchUpload", errors.ErrUploadNotFound},
		{"unclassified", "InternalError", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &smithy.GenericAPIError{Code: tt.code, Message: "boom"}
			store := NewStore(&testutil.MockS3Client{Err: apiErr})
			ctx := context.Background()
			session := &s3types.Session{Bucket: "bucket", Key: "key", UploadID: "upload-1"}

			_, beginErr := store.BeginSession(ctx, "bucket", "key", nil)
			_, partErr := store.UploadPart(ctx, session, &s3types.Part{Number: 1, Body: bytes.NewReader(nil)})
			_, completeErr := store.CompleteSession(ctx, session, nil)
			abortErr := store.AbortSession(ctx, session)

			for _, err := range []error{beginErr, partErr, completeErr, abortErr} {
				require.Error(t, err)
				assert.ErrorIs(t, err, apiErr)
				if tt.sentinel != nil {
					assert.ErrorIs(t, err, tt.sentinel)
				}
				var opErr *errors.Error
				require.ErrorAs(t, err, &opErr)
				assert.Equal(t, "bucket", opErr.Bucket)
				assert.Equal(t, "key", opErr.Key)
			}
		})
	}
}
