package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	localStackImage  = "localstack/localstack:latest"
	localStackPort   = "4566"
	localStackRegion = "us-east-1"
)

// LocalStack is a running LocalStack container with an S3 client pointed at it.
type LocalStack struct {
	S3       *s3.Client
	Endpoint string
}

// StartLocalStack starts a LocalStack container for the duration of t.
// The test is skipped in short mode and the container is removed on cleanup.
func StartLocalStack(t *testing.T) *LocalStack {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ctr, err := localstack.Run(ctx, localStackImage,
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort(localStackPort).
				WithStartupTimeout(2*time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start localstack: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("localstack host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, localStackPort)
	if err != nil {
		t.Fatalf("localstack port: %v", err)
	}

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	return &LocalStack{
		Endpoint: endpoint,
		S3: s3.New(s3.Options{
			Region:       localStackRegion,
			BaseEndpoint: aws.String(endpoint),
			UsePathStyle: true,
			Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
			}),
		}),
	}
}

// CreateBucket creates bucket, failing the test on error.
func (l *LocalStack) CreateBucket(ctx context.Context, t *testing.T, bucket string) {
	t.Helper()

	if _, err := l.S3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("create bucket %s: %v", bucket, err)
	}
}

// OpenUploads returns how many multipart uploads in bucket were neither
// completed nor aborted.
func (l *LocalStack) OpenUploads(ctx context.Context, t *testing.T, bucket string) int {
	t.Helper()

	out, err := l.S3.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{Bucket: aws.String(bucket)})
	if err != nil {
		t.Fatalf("list multipart uploads in %s: %v", bucket, err)
	}
	return len(out.Uploads)
}
