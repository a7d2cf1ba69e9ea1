package s3stream

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// Client creates streaming writers backed by Amazon S3 or an S3-compatible service.
// It is safe for concurrent use; each writer it returns is independent.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// store drives multipart sessions for every writer the client creates
	store *multipart.Store

	// config holds the AWS configuration
	config aws.Config

	// defaults holds the client-level writer settings
	defaults *s3types.ClientConfig

	mu sync.RWMutex
}

func defaultClientConfig() *s3types.ClientConfig {
	return &s3types.ClientConfig{
		MaxRetries: 3,
		PartSize:   DefaultPartSize,
	}
}

// New creates a new client with the provided options.
// It loads AWS credentials using the default credential chain
// and applies the specified configuration options.
//
// Example:
//
//	client, err := s3stream.New(
//	    s3stream.WithRegion("us-west-2"),
//	    s3stream.WithPartSize(64 * 1024 * 1024),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	// Apply region from options if specified, otherwise ensure a region is set
	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	if clientCfg.RetryMode != "" {
		mode, err := aws.ParseRetryMode(clientCfg.RetryMode)
		if err != nil {
			return nil, errors.NewError("client initialization", errors.Kind(errors.ErrInvalidInput, err))
		}
		cfg.RetryMode = mode
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.Endpoint)
		})
	}

	// A custom HTTP client wins over the timeout shortcut
	switch {
	case clientCfg.CustomHTTPClient != nil:
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = clientCfg.CustomHTTPClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	s3Client := s3.NewFromConfig(cfg, s3Opts...)

	if clientCfg.Logger != nil {
		clientCfg.Logger.Debug("s3 client initialized",
			"region", cfg.Region,
			"endpoint", clientCfg.Endpoint,
			"path_style", clientCfg.ForcePathStyle)
	}

	return &Client{
		s3Client: s3Client,
		store:    multipart.NewStore(s3Client),
		config:   cfg,
		defaults: clientCfg,
	}, nil
}

// NewWithClient creates a new client with a custom S3API implementation.
// This is primarily used for testing with mocked clients. AWS-specific
// options are ignored; writer defaults such as part size, staging and
// logger still apply.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}
	return &Client{
		s3Client: s3Client,
		store:    multipart.NewStore(s3Client),
		config:   aws.Config{},
		defaults: clientCfg,
	}
}

// Store returns the session store writers created by the client use.
func (c *Client) Store() s3types.SessionStore {
	return c.store
}

// Region returns the AWS region the client was configured with.
func (c *Client) Region() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Region
}

// NewWriter begins a multipart upload for bucket/key and returns a Writer feeding it.
// Client-level part size, staging and logger apply unless overridden by opts.
func (c *Client) NewWriter(
	ctx context.Context,
	bucket, key string,
	opts ...s3types.WriterOption,
) (*Writer, error) {
	c.mu.RLock()
	cfg := &s3types.WriterConfig{
		PartSize: c.defaults.PartSize,
		Staging:  c.defaults.Staging,
		Logger:   c.defaults.Logger,
	}
	c.mu.RUnlock()

	for _, opt := range opts {
		opt(cfg)
	}
	return newWriter(ctx, c.store, bucket, key, cfg)
}

// Close releases any resources held by the client.
// Writers created by the client are not affected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nil
}
