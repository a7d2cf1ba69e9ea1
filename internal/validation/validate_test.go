package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		// Valid bucket names
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_numeric_start", "1bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},

		// Invalid bucket names
		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "between 3 and 63 characters"},
		{"too_long", strings.Repeat("a", 64), true, "between 3 and 63 characters"},
		{"starts_with_hyphen", "-bucket", true, "cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", true, "cannot start or end with a hyphen or dot"},
		{"contains_uppercase", "MyBucket", true, "can only contain lowercase letters"},
		{"contains_underscore", "my_bucket", true, "can only contain lowercase letters"},
		{"ip_address", "192.168.1.1", true, "formatted as an IP address"},
		{"localhost", "localhost", true, "reserved word"},
		{"double_dots", "my..bucket", true, "two adjacent periods or hyphens"},
		{"double_hyphens", "my--bucket", true, "two adjacent periods or hyphens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"simple", "file.txt", false, ""},
		{"nested", "backups/2024/db.tar.gz", false, ""},
		{"unicode", "données/ファイル.bin", false, ""},
		{"max_length", strings.Repeat("k", MaxKeyLength), false, ""},

		{"empty", "", true, "cannot be empty"},
		{"too_long", strings.Repeat("k", MaxKeyLength+1), true, "cannot exceed 1024 bytes"},
		{"traversal", "../etc/passwd", true, "path traversal"},
		{"embedded_traversal", "a/../../b", true, "path traversal"},
		{"absolute", "/etc/passwd", true, "path traversal"},
		{"windows_drive", "C:/windows", true, "path traversal"},
		{"control_char", "file\x00name", true, "control characters"},
		{"newline", "file\nname", true, "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidatePartSize(t *testing.T) {
	const maxSize = 5 * 1024 * 1024 * 1024

	assert.NoError(t, ValidatePartSize(1, maxSize))
	assert.NoError(t, ValidatePartSize(maxSize, maxSize))

	for _, size := range []int64{0, -1, maxSize + 1} {
		err := ValidatePartSize(size, maxSize)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidPartSize)
	}
}

func TestValidateWriterConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       s3types.WriterConfig
		wantError bool
		errMsg    string
	}{
		{"empty", s3types.WriterConfig{}, false, ""},
		{
			"full",
			s3types.WriterConfig{
				ACL:          s3types.ACLPublicRead,
				ContentType:  "application/vnd.apache.parquet",
				StorageClass: s3types.StorageClassStandardIA,
				Metadata:     map[string]string{"owner": "data-team", "note": "line1\nline2"},
				SSE:          &s3types.SSEConfig{Type: s3types.SSEKMS, KMSKeyID: "key"},
			},
			false,
			"",
		},
		{"unknown_acl", s3types.WriterConfig{ACL: "world-writable"}, true, "unknown canned ACL"},
		{"unknown_storage_class", s3types.WriterConfig{StorageClass: "COLD"}, true, "unknown storage class"},
		{"bad_content_type", s3types.WriterConfig{ContentType: "not a mime"}, true, "valid MIME type"},
		{
			"kms_with_customer_key",
			s3types.WriterConfig{SSE: &s3types.SSEConfig{Type: s3types.SSEKMS, CustomerKey: "k"}},
			true,
			"cannot be combined",
		},
		{
			"reserved_metadata_prefix",
			s3types.WriterConfig{Metadata: map[string]string{"x-amz-meta": "v"}},
			true,
			"reserved prefix",
		},
		{
			"metadata_key_with_space",
			s3types.WriterConfig{Metadata: map[string]string{"my key": "v"}},
			true,
			"printable ASCII",
		},
		{
			"metadata_value_too_long",
			s3types.WriterConfig{Metadata: map[string]string{"k": strings.Repeat("v", 2049)}},
			true,
			"cannot exceed 2048",
		},
		{
			"metadata_value_control",
			s3types.WriterConfig{Metadata: map[string]string{"k": "bell\x07"}},
			true,
			"printable characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWriterConfig(&tt.cfg)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
