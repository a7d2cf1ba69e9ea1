package s3stream

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// TestClient_New tests the New() constructor without touching the environment.
func TestClient_New(t *testing.T) {
	tests := []struct {
		name       string
		opts       []s3types.Option
		wantRegion string
		wantErr    bool
	}{
		{
			name:       "default region",
			opts:       nil,
			wantRegion: "us-east-1",
		},
		{
			name:       "with region option",
			opts:       []s3types.Option{WithRegion("us-west-2")},
			wantRegion: "us-west-2",
		},
		{
			name: "with transport options",
			opts: []s3types.Option{
				WithRegion("eu-central-1"),
				WithMaxRetries(5),
				WithTimeout(10 * time.Second),
				WithEndpoint("http://localhost:4566"),
				WithForcePathStyle(true),
				WithRetryMode("adaptive"),
			},
			wantRegion: "eu-central-1",
		},
		{
			name:       "with custom http client",
			opts:       []s3types.Option{WithCustomHTTPClient(&http.Client{Timeout: time.Second})},
			wantRegion: "us-east-1",
		},
		{
			name:    "invalid retry mode",
			opts:    []s3types.Option{WithRetryMode("sometimes")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]s3types.Option{WithAWSConfig(&aws.Config{})}, tt.opts...)
			client, err := New(opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidInput(err))
				assert.Nil(t, client)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, client)
			assert.NotNil(t, client.s3Client)
			assert.NotNil(t, client.Store())
			assert.Equal(t, tt.wantRegion, client.Region())
			assert.NoError(t, client.Close())
		})
	}
}

func TestClient_New_Options(t *testing.T) {
	client, err := New(
		WithAWSConfig(&aws.Config{Region: "ap-south-1"}),
		WithMaxRetries(7),
		WithRetryMode("standard"),
	)
	require.NoError(t, err)

	assert.Equal(t, "ap-south-1", client.config.Region)
	assert.Equal(t, 7, client.config.RetryMaxAttempts)
	assert.Equal(t, aws.RetryModeStandard, client.config.RetryMode)
	assert.Equal(t, DefaultPartSize, client.defaults.PartSize)
}

func TestClient_NewWriter(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-42").WithRecorder(rec).Build()
	tracking := testutil.NewTrackingStaging(nil)
	client := NewWithClient(mock,
		WithPartSize(5),
		WithStaging(tracking.Factory()),
		WithLogger(slog.New(slog.DiscardHandler)),
	)

	ctx := context.Background()
	w, err := client.NewWriter(ctx, "bucket", "key", WithACL(s3types.ACLPublicRead))
	require.NoError(t, err)
	assert.Equal(t, "upload-42", w.Session().UploadID)

	data := []byte("hello multipart world")
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.Len(t, rec.Creates, 1)
	assert.Equal(t, "public-read", string(rec.Creates[0].ACL))

	// 4 full parts of 5 bytes and a final part of 1 byte
	require.Len(t, rec.Parts, 5)
	assert.Equal(t, data, bytes.Join(rec.PartData, nil))
	for i, in := range rec.Parts {
		assert.Equal(t, int32(i+1), aws.ToInt32(in.PartNumber))
		assert.Equal(t, testutil.CalculateMD5(rec.PartData[i]), aws.ToString(in.ContentMD5))
		assert.Empty(t, in.ChecksumAlgorithm)
	}

	require.Len(t, rec.Completes, 1)
	completed := rec.Completes[0].MultipartUpload.Parts
	require.Len(t, completed, 5)
	for i, p := range completed {
		assert.Equal(t, int32(i+1), aws.ToInt32(p.PartNumber))
		assert.Equal(t, testutil.PartETag(int32(i+1)), aws.ToString(p.ETag))
	}
	assert.Empty(t, rec.Aborts)

	assert.Equal(t, 1, tracking.Allocs)
	assert.Equal(t, 0, tracking.Live())
	assert.Equal(t, `"multipart-etag"`, w.Result().ETag)
}

func TestClient_NewWriter_OverridesDefaults(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
	client := NewWithClient(mock, WithPartSize(5))

	w, err := client.NewWriter(context.Background(), "bucket", "key", WithWriterPartSize(10))
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 25))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []int{10, 10, 5}, []int{len(rec.PartData[0]), len(rec.PartData[1]), len(rec.PartData[2])})
}

func TestClient_NewWriter_InvalidPartSize(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().WithSuccessfulMultipart("upload-1").WithRecorder(rec).Build()
	client := NewWithClient(mock, WithPartSize(MaxPartSize+1))

	_, err := client.NewWriter(context.Background(), "bucket", "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidPartSize)
	assert.Empty(t, rec.Creates)
}

func TestClient_NewWriter_PartRejected(t *testing.T) {
	rec := &testutil.MultipartRecorder{}
	mock := testutil.NewMockBuilder().
		WithSuccessfulMultipart("upload-1").
		WithUploadPart(func(_ context.Context, params *s3.UploadPartInput) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(params.PartNumber) == 2 {
				return nil, assert.AnError
			}
			return &s3.UploadPartOutput{ETag: aws.String("e")}, nil
		}).
		WithRecorder(rec).
		Build()
	client := NewWithClient(mock, WithPartSize(4))

	w, err := client.NewWriter(context.Background(), "bucket", "key")
	require.NoError(t, err)

	_, err = w.Write(make([]byte, 12))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, errors.IsPartUpload(err))

	require.Len(t, rec.Aborts, 1)
	assert.Equal(t, "upload-1", aws.ToString(rec.Aborts[0].UploadId))
	assert.Empty(t, rec.Completes)
}
