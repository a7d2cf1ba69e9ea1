package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

// ErrInjected is the default failure returned by FakeStore when a failure is injected.
var ErrInjected = errors.New("injected failure")

// RecordedPart is a part as received by FakeStore.
type RecordedPart struct {
	Number int32
	Data   []byte
	Last   bool
	MD5    []byte
}

// FakeStore is an in-memory SessionStore that records every call.
// Failures are injected through the Fail* fields; a zero FailPart never fails.
type FakeStore struct {
	mu sync.Mutex

	// UploadID is assigned to sessions; defaults to "upload-1"
	UploadID string

	FailBegin    error
	FailPart     int32
	FailPartErr  error
	FailComplete error
	FailAbort    error

	// Hooks run before the call is recorded, when set
	OnUploadPart func(part *s3types.Part)

	BeginCalls    int
	PartCalls     int
	CompleteCalls int
	AbortCalls    int

	// AbortCtxErr is ctx.Err() as seen by the last AbortSession call
	AbortCtxErr error

	Config   *s3types.SessionConfig
	Parts    []RecordedPart
	Receipts []s3types.PartReceipt
	Objects  map[string][]byte
}

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: make(map[string][]byte)}
}

// BeginSession records the call and returns a session.
func (f *FakeStore) BeginSession(
	_ context.Context,
	bucket, key string,
	cfg *s3types.SessionConfig,
) (*s3types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.BeginCalls++
	f.Config = cfg
	if f.FailBegin != nil {
		return nil, f.FailBegin
	}

	id := f.UploadID
	if id == "" {
		id = "upload-1"
	}
	session := &s3types.Session{Bucket: bucket, Key: key, UploadID: id}
	if cfg != nil {
		session.ACL = cfg.ACL
	}
	return session, nil
}

// UploadPart records the part content and returns a receipt.
func (f *FakeStore) UploadPart(
	_ context.Context,
	_ *s3types.Session,
	part *s3types.Part,
) (*s3types.PartReceipt, error) {
	if f.OnUploadPart != nil {
		f.OnUploadPart(part)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.PartCalls++
	if f.FailPart != 0 && part.Number == f.FailPart {
		if f.FailPartErr != nil {
			return nil, f.FailPartErr
		}
		return nil, ErrInjected
	}

	data, err := io.ReadAll(part.Body)
	if err != nil {
		return nil, fmt.Errorf("read part %d: %w", part.Number, err)
	}
	if int64(len(data)) != part.Size {
		return nil, fmt.Errorf("part %d: size %d, body %d bytes", part.Number, part.Size, len(data))
	}

	f.Parts = append(f.Parts, RecordedPart{
		Number: part.Number,
		Data:   data,
		Last:   part.Last,
		MD5:    append([]byte(nil), part.MD5...),
	})
	return &s3types.PartReceipt{
		PartNumber: part.Number,
		ETag:       PartETag(part.Number),
		Size:       part.Size,
	}, nil
}

// CompleteSession assembles the object from the recorded parts.
func (f *FakeStore) CompleteSession(
	_ context.Context,
	session *s3types.Session,
	receipts []s3types.PartReceipt,
) (*s3types.CompleteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CompleteCalls++
	f.Receipts = append([]s3types.PartReceipt(nil), receipts...)
	if f.FailComplete != nil {
		return nil, f.FailComplete
	}

	var object bytes.Buffer
	for _, p := range f.Parts {
		object.Write(p.Data)
	}
	f.Objects[session.Bucket+"/"+session.Key] = object.Bytes()
	return &s3types.CompleteOutput{ETag: `"fake-etag"`, VersionID: "v1"}, nil
}

// AbortSession records the call.
func (f *FakeStore) AbortSession(ctx context.Context, _ *s3types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.AbortCalls++
	f.AbortCtxErr = ctx.Err()
	return f.FailAbort
}

// Object returns the assembled object for bucket/key.
func (f *FakeStore) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Objects[bucket+"/"+key]
	return data, ok
}

// Calls returns the total number of collaborator calls made.
func (f *FakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BeginCalls + f.PartCalls + f.CompleteCalls + f.AbortCalls
}

var _ s3types.SessionStore = (*FakeStore)(nil)
