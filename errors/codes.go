package errors

import "errors"

// ErrorCode represents a stable, string-based classification of an upload failure.
// Codes are intended for logs and process exit reporting.
type ErrorCode string

const (
	// Writer lifecycle errors.

	// CodeClosed indicates an operation on a writer that is no longer open.
	CodeClosed ErrorCode = "WRITER_CLOSED"

	// CodeAborted indicates the upload was cancelled by the caller.
	CodeAborted ErrorCode = "UPLOAD_ABORTED"

	// Storage errors.

	// CodeBeginSession indicates the multipart session could not be created.
	CodeBeginSession ErrorCode = "BEGIN_SESSION_FAILED"

	// CodePartUpload indicates a part upload failed.
	CodePartUpload ErrorCode = "PART_UPLOAD_FAILED"

	// CodeCompletion indicates the session could not be completed.
	CodeCompletion ErrorCode = "COMPLETION_FAILED"

	// CodeNotFound indicates a bucket or upload does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Local errors.

	// CodeIntegrity indicates the local read and write checksums disagree.
	CodeIntegrity ErrorCode = "INTEGRITY_MISMATCH"

	// CodeLimitExceeded indicates the part limit of a session was reached.
	CodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"

	// CodeStaging indicates the local staging medium failed.
	CodeStaging ErrorCode = "STAGING_FAILED"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// codeTable is ordered: the first matching sentinel wins, so failure kinds
// are reported ahead of the storage causes they wrap.
var codeTable = []struct {
	err  error
	code ErrorCode
}{
	{ErrChecksumMismatch, CodeIntegrity},
	{ErrTooManyParts, CodeLimitExceeded},
	{ErrBeginSession, CodeBeginSession},
	{ErrPartUpload, CodePartUpload},
	{ErrCompletion, CodeCompletion},
	{ErrAborted, CodeAborted},
	{ErrClosed, CodeClosed},
	{ErrStaging, CodeStaging},
	{ErrBucketNotFound, CodeNotFound},
	{ErrUploadNotFound, CodeNotFound},
	{ErrAccessDenied, CodeForbidden},
}

// CodeOf returns the ErrorCode that classifies err.
// A nil error has no code and returns the empty string.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if IsInvalidInput(err) {
		return CodeInvalidInput
	}
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeUnknown
}
