package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/minio"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

const (
	backendS3    = "s3"
	backendMinIO = "minio"

	stagingMemory = "memory"
	stagingFile   = "file"

	// sniffLen is how much of the stream is inspected to guess a content type
	sniffLen = 3072
)

func newPutCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <bucket> <key>",
		Short: "Upload standard input to bucket/key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := newStore(o.cfg, o.logger)
			if err != nil {
				return err
			}
			result, err := put(ctx, store, o.cfg, o.logger, args[0], args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s/%s etag=%s size=%d parts=%d\n",
				result.Bucket, result.Key, result.ETag, result.Size, result.Parts)
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("acl", "", "canned ACL applied when the upload begins")
	flags.String("content-type", "", "content type (detected from the stream when empty)")
	flags.String("storage-class", "", "storage class of the object")
	flags.Int64("part-size", s3stream.DefaultPartSize, "part size in bytes")
	flags.String("staging", stagingMemory, "where parts are staged: memory or file")
	flags.String("staging-dir", "", "directory for file staging (default: system temp dir)")

	return cmd
}

// newStore builds the session store for the configured backend.
func newStore(cfg *Config, logger *slog.Logger) (s3types.SessionStore, error) {
	switch cfg.Backend {
	case backendS3:
		client, err := s3stream.New(
			s3stream.WithRegion(cfg.Region),
			s3stream.WithEndpoint(cfg.Endpoint),
			s3stream.WithForcePathStyle(cfg.PathStyle),
			s3stream.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return client.Store(), nil
	case backendMinIO:
		minioCfg, err := cfg.MinIOConfig()
		if err != nil {
			return nil, err
		}
		return minio.New(minioCfg)
	default:
		return nil, errors.NewError("config", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

// writerOptions translates the configuration into writer options.
func writerOptions(cfg *Config, logger *slog.Logger) ([]s3types.WriterOption, error) {
	opts := []s3types.WriterOption{
		s3stream.WithWriterLogger(logger),
		s3stream.WithACL(s3types.ObjectACL(cfg.ACL)),
		s3stream.WithStorageClass(s3types.StorageClass(cfg.StorageClass)),
	}
	if cfg.PartSize != 0 {
		opts = append(opts, s3stream.WithWriterPartSize(cfg.PartSize))
	}

	switch cfg.Staging {
	case stagingMemory, "":
		opts = append(opts, s3stream.WithMemoryStaging())
	case stagingFile:
		opts = append(opts, s3stream.WithFileStaging(cfg.StagingDir))
	default:
		return nil, errors.NewError("config", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown staging %q", cfg.Staging))
	}
	return opts, nil
}

// put streams in to bucket/key. The upload is aborted if ctx is cancelled.
func put(
	ctx context.Context,
	store s3types.SessionStore,
	cfg *Config,
	logger *slog.Logger,
	bucket, key string,
	in io.Reader,
) (*s3types.UploadResult, error) {
	opts, err := writerOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	src := bufio.NewReaderSize(in, sniffLen)
	contentType := cfg.ContentType
	if contentType == "" {
		head, err := src.Peek(sniffLen)
		if err != nil && !stderrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read input: %w", err)
		}
		contentType = mimetype.Detect(head).String()
		if logger != nil {
			logger.DebugContext(ctx, "detected content type", "content_type", contentType)
		}
	}
	opts = append(opts, s3stream.WithContentType(contentType))

	w, err := s3stream.NewWriter(ctx, store, bucket, key, opts...)
	if err != nil {
		return nil, err
	}

	// Cancellation aborts the writer; a racing Close reports the abort
	stopAbort := context.AfterFunc(ctx, func() {
		_ = w.Abort()
	})
	defer stopAbort()

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Abort()
		return nil, err
	}
	if ctx.Err() != nil {
		_ = w.Abort()
		return nil, errors.NewObjectError("put", bucket, key, errors.Kind(errors.ErrAborted, context.Cause(ctx)))
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return w.Result(), nil
}
