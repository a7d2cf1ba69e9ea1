package s3stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/staging"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// WithRegion sets the AWS region. Without it the region comes from the
// shared config chain, falling back to us-east-1.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithMaxRetries sets the maximum number of attempts the AWS SDK makes per request.
// Default is 3. The writer itself never retries.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout bounds each HTTP request. Part uploads are single requests, so
// it must leave room for a full part at the expected bandwidth.
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithPartSize sets the default part size for writers created by the client.
// It must be in (0, MaxPartSize]; invalid sizes are reported by NewWriter.
func WithPartSize(partSize int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.PartSize = partSize
	}
}

// WithForcePathStyle addresses buckets by path rather than virtual host.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig uses cfg instead of loading the default AWS configuration.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithEndpoint points the client at an S3-compatible endpoint such as LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithRetryMode selects the SDK retry mode, "standard" or "adaptive".
func WithRetryMode(mode string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.RetryMode = mode
	}
}

// WithCustomHTTPClient takes precedence over WithTimeout.
func WithCustomHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithStaging sets the default part buffer factory for writers created by the client.
func WithStaging(factory s3types.PartBufferFactory) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Staging = factory
	}
}

// WithLogger sets the structured logger used by the client and its writers.
// Logging is disabled when no logger is set.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithACL sets the canned ACL applied to the object when the session begins.
func WithACL(acl s3types.ObjectACL) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.ACL = acl
	}
}

// WithContentType sets the content type of the uploaded object.
func WithContentType(contentType string) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata on the uploaded object.
// Repeated calls merge their entries.
func WithMetadata(metadata map[string]string) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class of the uploaded object.
func WithStorageClass(storageClass s3types.StorageClass) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.StorageClass = storageClass
	}
}

// WithServerSideEncryption sets server-side encryption for the uploaded object.
func WithServerSideEncryption(sse *s3types.SSEConfig) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.SSE = sse
	}
}

// WithProgress sets a progress tracker notified after every uploaded part.
func WithProgress(tracker s3types.ProgressTracker) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.ProgressTracker = tracker
	}
}

// WithWriterPartSize sets the part size for a single writer.
// This overrides the client-level default and cannot change once the writer exists.
func WithWriterPartSize(partSize int64) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.PartSize = partSize
	}
}

// WithWriterStaging sets the part buffer factory for a single writer.
func WithWriterStaging(factory s3types.PartBufferFactory) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.Staging = factory
	}
}

// WithMemoryStaging stages parts in memory. This is the default.
func WithMemoryStaging() s3types.WriterOption {
	return WithWriterStaging(staging.MemoryFactory())
}

// WithFileStaging stages parts in a temporary file under root on the local disk.
// An empty root selects the operating system temporary directory.
func WithFileStaging(root string) s3types.WriterOption {
	return WithWriterStaging(staging.TempDirFactory(root))
}

// WithFilesystemStaging stages parts in a temporary file in dir on fs.
func WithFilesystemStaging(fs billy.Filesystem, dir string) s3types.WriterOption {
	return WithWriterStaging(staging.FileFactory(fs, dir))
}

// WithWriterLogger sets the structured logger for a single writer.
func WithWriterLogger(logger *slog.Logger) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.Logger = logger
	}
}
