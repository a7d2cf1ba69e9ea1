package s3stream

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/digest"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/staging"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

const (
	// DefaultPartSize is the smallest part size that still lets a single
	// session reach the 5 TiB object limit within MaxParts parts.
	DefaultPartSize int64 = 549_755_814

	// MaxPartSize is the largest part S3 accepts.
	MaxPartSize int64 = 5 << 30

	// MaxParts is the number of parts a single session may hold.
	MaxParts = 10_000

	// AbortTimeout bounds the cleanup call made when an upload fails.
	AbortTimeout = 30 * time.Second
)

type writerState int

const (
	stateOpen writerState = iota
	stateClosed
	stateAborted
)

// Writer streams bytes into a multipart upload session.
//
// Bytes are accumulated into parts of exactly the configured part size and
// each part is uploaded synchronously from the Write call that fills
// it. Close uploads the remaining bytes as the final part, which
// may be empty, verifies that every byte written was staged unchanged, and
// completes the session. Any failure aborts the session and leaves the
// writer unusable.
//
// A Writer is safe for concurrent use, but calls are serialized and part
// uploads are never issued in parallel.
type Writer struct {
	mu sync.Mutex

	// ctx is used for every storage call made on behalf of the writer
	ctx     context.Context
	store   s3types.SessionStore
	session *s3types.Session

	partSize int64
	buf      s3types.PartBuffer
	partSum  *digest.Part

	// readSum sees every byte handed to Write; writeSum sees every byte staged
	readSum  *digest.Stream
	writeSum *digest.Stream

	receipts   []s3types.PartReceipt
	partNumber int32
	written    int64
	uploaded   int64

	state  writerState
	err    error
	result *s3types.UploadResult

	started time.Time
	cfg     *s3types.WriterConfig
}

// NewWriter begins a multipart upload session for bucket/key on store and
// returns a Writer feeding it.
//
// The session is created before NewWriter returns; a failure to create it is
// reported here and no Writer is returned.
//
// Example:
//
//	w, err := s3stream.NewWriter(ctx, store, "my-bucket", "backups/db.tar",
//	    s3stream.WithContentType("application/x-tar"),
//	)
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, r); err != nil {
//	    return err
//	}
//	return w.Close()
func NewWriter(
	ctx context.Context,
	store s3types.SessionStore,
	bucket, key string,
	opts ...s3types.WriterOption,
) (*Writer, error) {
	cfg := &s3types.WriterConfig{
		PartSize: DefaultPartSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return newWriter(ctx, store, bucket, key, cfg)
}

func newWriter(
	ctx context.Context,
	store s3types.SessionStore,
	bucket, key string,
	cfg *s3types.WriterConfig,
) (*Writer, error) {
	if store == nil {
		return nil, errors.NewObjectError("newWriter", bucket, key, errors.ErrInvalidInput).
			WithMessage("session store is nil")
	}
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePartSize(cfg.PartSize, MaxPartSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateWriterConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Staging == nil {
		cfg.Staging = staging.MemoryFactory()
	}

	started := time.Now()
	session, err := store.BeginSession(ctx, bucket, key, cfg.SessionConfig())
	if err != nil {
		err = errors.NewObjectError("beginSession", bucket, key, errors.Kind(errors.ErrBeginSession, err))
		if cfg.Logger != nil {
			cfg.Logger.ErrorContext(ctx, "failed to begin upload session",
				"bucket", bucket, "key", key, "error", err)
		}
		if cfg.ProgressTracker != nil {
			cfg.ProgressTracker.Error(err)
		}
		return nil, err
	}

	w := &Writer{
		ctx:        ctx,
		store:      store,
		session:    session,
		partSize:   cfg.PartSize,
		partSum:    digest.NewPart(),
		readSum:    digest.NewStream(),
		writeSum:   digest.NewStream(),
		partNumber: 1,
		state:      stateOpen,
		started:    started,
		cfg:        cfg,
	}

	buf, err := cfg.Staging()
	if err != nil {
		err = errors.NewObjectError("newWriter", bucket, key, errors.Kind(errors.ErrStaging, err))
		w.abort(err)
		return nil, err
	}
	w.buf = buf

	if cfg.Logger != nil {
		cfg.Logger.DebugContext(ctx, "upload session started",
			"bucket", bucket,
			"key", key,
			"upload_id", session.UploadID,
			"part_size", cfg.PartSize)
	}

	return w, nil
}

// Write stages p for upload. Each time the current part fills up, it is
// uploaded before more of p is staged, so Write may block on the network.
// On failure the session is aborted and n reports the bytes of p staged
// before the failure.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.write(p)
}

// WriteByte stages a single byte.
func (w *Writer) WriteByte(c byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.write([]byte{c})
	return err
}

func (w *Writer) write(p []byte) (int, error) {
	if w.state != stateOpen {
		return 0, w.closedError("write")
	}

	_, _ = w.readSum.Write(p)

	consumed := 0
	for consumed < len(p) {
		chunk := p[consumed:]
		if room := w.partSize - w.buf.Len(); int64(len(chunk)) > room {
			chunk = chunk[:room]
		}

		n, err := w.buf.Write(chunk)
		_, _ = w.partSum.Write(chunk[:n])
		_, _ = w.writeSum.Write(chunk[:n])
		consumed += n
		w.written += int64(n)

		if err == nil && n < len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return consumed, w.fail("write", errors.Kind(errors.ErrStaging, err))
		}

		// Full parts go out as soon as they fill; the final part may be empty
		if w.buf.Len() >= w.partSize {
			if err := w.flush(false); err != nil {
				return consumed, err
			}
		}
	}

	return len(p), nil
}

// flush uploads the staged bytes as the current part.
func (w *Writer) flush(last bool) error {
	// A non-final part numbered MaxParts would leave no room for the final part
	if !last && w.partNumber >= MaxParts {
		return w.fail("uploadPart", errors.Kind(errors.ErrTooManyParts,
			fmt.Errorf("stream needs more than %d parts of %d bytes", MaxParts, w.partSize)))
	}

	body, err := w.buf.Reader()
	if err != nil {
		return w.fail("uploadPart", errors.Kind(errors.ErrStaging, err))
	}

	part := &s3types.Part{
		Number: w.partNumber,
		Body:   body,
		Size:   w.buf.Len(),
		Last:   last,
		MD5:    w.partSum.Sum(),
	}

	receipt, err := w.store.UploadPart(w.ctx, w.session, part)
	if err != nil {
		return w.fail("uploadPart", errors.Kind(errors.ErrPartUpload, err))
	}

	w.receipts = append(w.receipts, s3types.PartReceipt{
		PartNumber: part.Number,
		ETag:       receipt.ETag,
		Size:       part.Size,
	})
	w.uploaded += part.Size
	w.partSum.Reset()
	if err := w.buf.Reset(); err != nil {
		return w.fail("uploadPart", errors.Kind(errors.ErrStaging, err))
	}
	w.partNumber++

	if w.cfg.Logger != nil {
		w.cfg.Logger.DebugContext(w.ctx, "part uploaded",
			"bucket", w.session.Bucket,
			"key", w.session.Key,
			"upload_id", w.session.UploadID,
			"part", part.Number,
			"size", part.Size,
			"last", last)
	}
	if w.cfg.ProgressTracker != nil {
		w.cfg.ProgressTracker.Update(w.uploaded, -1)
	}

	return nil
}

// Close uploads the final part, verifies the staged stream and completes
// the session. Closing a closed writer is a no-op; closing an aborted
// writer reports the failure that aborted it.
//
// If completion fails the session is aborted. Should storage have applied
// the completion before the failure was reported, the object exists and the
// abort has no effect on it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case stateClosed:
		return nil
	case stateAborted:
		return w.closedError("close")
	}

	if err := w.flush(true); err != nil {
		return err
	}

	if !digest.Match(w.readSum, w.writeSum) {
		return w.fail("close", errors.Kind(errors.ErrChecksumMismatch,
			fmt.Errorf("read %s, staged %s", w.readSum, w.writeSum)))
	}

	out, err := w.store.CompleteSession(w.ctx, w.session, w.receipts)
	if err != nil {
		return w.fail("completeSession", errors.Kind(errors.ErrCompletion, err))
	}

	w.state = stateClosed
	w.release()
	w.result = &s3types.UploadResult{
		Bucket:    w.session.Bucket,
		Key:       w.session.Key,
		UploadID:  w.session.UploadID,
		Size:      w.uploaded,
		Parts:     len(w.receipts),
		ETag:      out.ETag,
		VersionID: out.VersionID,
		Location:  out.Location,
		Duration:  time.Since(w.started),
	}

	if w.cfg.Logger != nil {
		w.cfg.Logger.InfoContext(w.ctx, "upload completed",
			"bucket", w.session.Bucket,
			"key", w.session.Key,
			"upload_id", w.session.UploadID,
			"size", w.result.Size,
			"parts", w.result.Parts,
			"duration", w.result.Duration)
	}
	if w.cfg.ProgressTracker != nil {
		w.cfg.ProgressTracker.Complete()
	}

	return nil
}

// Abort cancels the upload and discards any parts already uploaded.
// It returns the storage error if the session could not be aborted; the
// writer is unusable either way.
func (w *Writer) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateOpen {
		return w.closedError("abort")
	}
	return w.abort(errors.NewObjectError("abort", w.session.Bucket, w.session.Key, errors.ErrAborted))
}

// fail aborts the session and returns cause wrapped with the operation context.
func (w *Writer) fail(op string, cause error) error {
	err := errors.NewObjectError(op, w.session.Bucket, w.session.Key, cause)
	_ = w.abort(err)
	return err
}

// abort moves the writer to the aborted state, records cause as the sticky
// failure and makes a best-effort AbortSession call. The call runs even if
// the writer's context is already cancelled.
func (w *Writer) abort(cause error) error {
	w.state = stateAborted
	w.err = cause

	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), AbortTimeout)
	defer cancel()

	abortErr := w.store.AbortSession(ctx, w.session)
	if abortErr != nil && w.cfg.Logger != nil {
		w.cfg.Logger.WarnContext(w.ctx, "failed to abort upload session",
			"bucket", w.session.Bucket,
			"key", w.session.Key,
			"upload_id", w.session.UploadID,
			"error", abortErr)
	}

	w.release()

	if w.cfg.Logger != nil {
		w.cfg.Logger.ErrorContext(w.ctx, "upload aborted",
			"bucket", w.session.Bucket,
			"key", w.session.Key,
			"upload_id", w.session.UploadID,
			"parts", len(w.receipts),
			"error", cause)
	}
	if w.cfg.ProgressTracker != nil {
		w.cfg.ProgressTracker.Error(cause)
	}

	return abortErr
}

// release frees the staging storage.
func (w *Writer) release() {
	if w.buf == nil {
		return
	}
	if err := w.buf.Close(); err != nil && w.cfg.Logger != nil {
		w.cfg.Logger.WarnContext(w.ctx, "failed to release part buffer",
			"bucket", w.session.Bucket,
			"key", w.session.Key,
			"error", err)
	}
	w.buf = nil
}

func (w *Writer) closedError(op string) error {
	return errors.NewObjectError(op, w.session.Bucket, w.session.Key, errors.Kind(errors.ErrClosed, w.err))
}

// Session returns the upload session the writer feeds.
func (w *Writer) Session() s3types.Session {
	return *w.session
}

// Written returns the number of bytes accepted by Write so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// PartNumber returns the number the next uploaded part will carry.
func (w *Writer) PartNumber() int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.partNumber
}

// Result returns the outcome of a successful Close, or nil before that.
func (w *Writer) Result() *s3types.UploadResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

func (w *Writer) String() string {
	return fmt.Sprintf("s3stream.Writer{bucket=%s, key=%s}", w.session.Bucket, w.session.Key)
}

var (
	_ io.WriteCloser = (*Writer)(nil)
	_ io.ByteWriter  = (*Writer)(nil)
)
