package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

const (
	// MaxKeyLength is the longest object key S3 accepts, in bytes.
	MaxKeyLength = 1024

	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

var validACLs = map[s3types.ObjectACL]bool{
	s3types.ACLPrivate:           true,
	s3types.ACLPublicRead:        true,
	s3types.ACLPublicReadWrite:   true,
	s3types.ACLAuthenticatedRead: true,
	"aws-exec-read":              true,
	s3types.ACLOwnerRead:         true,
	s3types.ACLOwnerFullControl:  true,
}

var validStorageClasses = map[s3types.StorageClass]bool{
	s3types.StorageClassStandard:           true,
	s3types.StorageClassReducedRedundancy:  true,
	s3types.StorageClassStandardIA:         true,
	s3types.StorageClassOneZoneIA:          true,
	s3types.StorageClassIntelligentTiering: true,
	s3types.StorageClassGlacier:            true,
	s3types.StorageClassDeepArchive:        true,
	s3types.StorageClassGlacierIR:          true,
}

// bucketRule is one structural check applied to a bucket name.
type bucketRule struct {
	violates func(string) bool
	message  string
}

var bucketRules = []bucketRule{
	{
		violates: func(b string) bool { return len(b) < 3 || len(b) > 63 },
		message:  "bucket name must be between 3 and 63 characters long",
	},
	{
		violates: func(b string) bool { return strings.IndexFunc(b, invalidBucketRune) >= 0 },
		message:  "bucket name can only contain lowercase letters, numbers, dots, and hyphens",
	},
	{
		violates: func(b string) bool {
			return strings.ContainsAny(b[:1], ".-") || strings.ContainsAny(b[len(b)-1:], ".-")
		},
		message: "bucket name cannot start or end with a hyphen or dot",
	},
	{
		violates: isIPAddress,
		message:  "bucket name cannot be formatted as an IP address",
	},
	{
		violates: func(b string) bool { return strings.Contains(b, "..") || strings.Contains(b, "--") },
		message:  "bucket name cannot contain two adjacent periods or hyphens",
	},
	{
		violates: func(b string) bool { return b == "localhost" },
		message:  "bucket name cannot be a reserved word",
	},
}

// ValidateBucketName validates that a bucket name is DNS-compliant according to S3 rules.
// Returns an error wrapping ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return bucketError(bucket, "bucket name cannot be empty")
	}
	for _, rule := range bucketRules {
		if rule.violates(bucket) {
			return bucketError(bucket, rule.message)
		}
	}
	return nil
}

// ValidateObjectKey validates that an object key is valid according to S3 rules.
// This includes preventing path traversal and control characters.
func ValidateObjectKey(key string) error {
	switch {
	case key == "":
		return keyError(key, "object key cannot be empty")
	case len(key) > MaxKeyLength:
		return keyError(key, fmt.Sprintf("object key cannot exceed %d bytes", MaxKeyLength))
	case hasPathTraversal(key):
		return keyError(key, "object key cannot contain path traversal sequences")
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return keyError(key, "object key cannot contain control characters")
	}
	return nil
}

// ValidatePartSize checks that a part size is positive and within the per-part maximum.
func ValidatePartSize(size, maxSize int64) error {
	if size <= 0 || size > maxSize {
		return errors.NewError("validatePartSize", errors.ErrInvalidPartSize).
			WithMessage(fmt.Sprintf("part size %d must be in (0, %d]", size, maxSize))
	}
	return nil
}

// ValidateWriterConfig validates the per-writer settings sent when a session begins.
func ValidateWriterConfig(cfg *s3types.WriterConfig) error {
	if cfg.ACL != "" && !validACLs[cfg.ACL] {
		return errors.NewError("validateACL", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown canned ACL %q", cfg.ACL))
	}
	if cfg.StorageClass != "" && !validStorageClasses[cfg.StorageClass] {
		return errors.NewError("validateStorageClass", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown storage class %q", cfg.StorageClass))
	}
	if cfg.ContentType != "" && !mimePattern.MatchString(cfg.ContentType) {
		return errors.NewError("validateContentType", errors.ErrInvalidInput).
			WithMessage("content type must be a valid MIME type")
	}
	if cfg.SSE != nil && cfg.SSE.Type == s3types.SSEKMS && cfg.SSE.CustomerKey != "" {
		return errors.NewError("validateSSE", errors.ErrInvalidInput).
			WithMessage("customer keys cannot be combined with KMS encryption")
	}
	return ValidateMetadata(cfg.Metadata)
}

// ValidateMetadata validates user metadata keys and values according to S3 rules.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if msg := metadataKeyProblem(key); msg != "" {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).WithMessage(msg)
		}
		if msg := metadataValueProblem(value); msg != "" {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).WithMessage(msg)
		}
	}
	return nil
}

func bucketError(bucket, msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(msg)
}

func keyError(key, msg string) error {
	return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(msg)
}

func invalidBucketRune(r rune) bool {
	return !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r == '.' || r == '-')
}

// isIPAddress reports whether s looks like a dotted IPv4 address.
func isIPAddress(s string) bool {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return false
	}
	for _, octet := range octets {
		if octet == "" {
			return true
		}
		value := 0
		for _, r := range octet {
			if r < '0' || r > '9' {
				return false
			}
			value = value*10 + int(r-'0')
		}
		if value > 255 {
			return false
		}
	}
	return true
}

// hasPathTraversal checks for relative escapes and absolute paths in object keys.
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "/") {
		return true
	}
	// Windows drive paths such as C:\ or C:/
	return len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/')
}

func metadataKeyProblem(key string) string {
	if key == "" {
		return "metadata key cannot be empty"
	}
	if len(key) > maxMetadataKeyLength {
		return fmt.Sprintf("metadata key cannot exceed %d characters", maxMetadataKeyLength)
	}
	lower := strings.ToLower(key)
	for _, prefix := range []string{"aws:", "x-amz-", "x-amz:"} {
		if strings.HasPrefix(lower, prefix) {
			return fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix)
		}
	}
	for _, r := range key {
		if r < 33 || r > 126 {
			return "metadata key can only contain printable ASCII characters"
		}
	}
	return ""
}

func metadataValueProblem(value string) string {
	if len(value) > maxMetadataValueLength {
		return fmt.Sprintf("metadata value cannot exceed %d characters", maxMetadataValueLength)
	}
	for _, r := range value {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' {
			return "metadata value can only contain printable characters"
		}
	}
	return ""
}
