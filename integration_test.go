//go:build integration
// +build integration

package s3stream_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// S3 rejects non-final parts below 5 MiB at completion
const integrationPartSize = 5 * 1024 * 1024

// TestIntegrationStreamingUpload streams objects through a Writer into LocalStack.
func TestIntegrationStreamingUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	stack := testutil.StartLocalStack(t)
	s3Client := stack.S3

	bucketName := testutil.GenerateTestBucketName("integration")
	stack.CreateBucket(ctx, t, bucketName)

	client := s3stream.NewWithClient(s3Client, s3stream.WithPartSize(integrationPartSize))

	download := func(t *testing.T, key string) []byte {
		t.Helper()
		out, err := s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucketName),
			Key:    aws.String(key),
		})
		require.NoError(t, err)
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		require.NoError(t, err)
		return data
	}

	t.Run("multipart object", func(t *testing.T) {
		key := testutil.GenerateTestKey("stream")
		data := testutil.GenerateRandomData(2*integrationPartSize + 1234)

		tracker := &testutil.MockProgressTracker{}
		w, err := client.NewWriter(ctx, bucketName, key,
			s3stream.WithContentType("application/octet-stream"),
			s3stream.WithMetadata(map[string]string{"origin": "integration"}),
			s3stream.WithProgress(tracker),
		)
		require.NoError(t, err)

		_, err = io.Copy(w, bytes.NewReader(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		assert.Equal(t, data, download(t, key))
		assert.Equal(t, 3, w.Result().Parts)
		assert.Equal(t, 1, tracker.CompleteCount)
		assert.Equal(t, int64(len(data)), tracker.Transferred())
	})

	t.Run("empty object", func(t *testing.T) {
		key := testutil.GenerateTestKey("empty")

		w, err := client.NewWriter(ctx, bucketName, key)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		assert.Empty(t, download(t, key))
	})

	t.Run("file staging", func(t *testing.T) {
		key := testutil.GenerateTestKey("file")
		data := testutil.GenerateRandomData(integrationPartSize + 10)

		w, err := client.NewWriter(ctx, bucketName, key, s3stream.WithFileStaging(t.TempDir()))
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		assert.Equal(t, data, download(t, key))
	})

	t.Run("abort leaves no upload behind", func(t *testing.T) {
		key := testutil.GenerateTestKey("abort")

		w, err := client.NewWriter(ctx, bucketName, key, s3stream.WithACL(s3types.ACLPrivate))
		require.NoError(t, err)
		_, err = w.Write(testutil.GenerateRandomData(integrationPartSize + 1))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		assert.Zero(t, stack.OpenUploads(ctx, t, bucketName))

		_, err = s3Client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucketName),
			Key:    aws.String(key),
		})
		assert.Error(t, err)
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := client.NewWriter(ctx, "missing-"+bucketName, testutil.GenerateTestKey("x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrBeginSession)
		assert.ErrorIs(t, err, errors.ErrBucketNotFound)
	})
}
