package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/minio"
)

const envPrefix = "S3PIPE"

// Config is the merged result of flags, environment and config file.
type Config struct {
	Backend      string       `mapstructure:"backend"`
	Region       string       `mapstructure:"region"`
	Endpoint     string       `mapstructure:"endpoint"`
	PathStyle    bool         `mapstructure:"path_style"`
	ACL          string       `mapstructure:"acl"`
	ContentType  string       `mapstructure:"content_type"`
	StorageClass string       `mapstructure:"storage_class"`
	PartSize     int64        `mapstructure:"part_size"`
	Staging      string       `mapstructure:"staging"`
	StagingDir   string       `mapstructure:"staging_dir"`
	LogLevel     string       `mapstructure:"log_level"`
	MinIO        minio.Config `mapstructure:"minio"`
}

// flagKeys maps command-line flags to their configuration keys.
var flagKeys = map[string]string{
	"backend":          "backend",
	"region":           "region",
	"endpoint":         "endpoint",
	"path-style":       "path_style",
	"acl":              "acl",
	"content-type":     "content_type",
	"storage-class":    "storage_class",
	"part-size":        "part_size",
	"staging":          "staging",
	"staging-dir":      "staging_dir",
	"log-level":        "log_level",
	"minio-access-key": "minio.access_key",
	"minio-secret-key": "minio.secret_key",
	"minio-ssl":        "minio.use_ssl",
}

// newViper returns a private viper instance reading S3PIPE_* variables.
// S3PIPE_MINIO_ACCESS_KEY sets minio.access_key.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags binds every known flag in fs to its configuration key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig reads the optional config file and decodes the merged settings.
func loadConfig(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.NewError("config", errors.Kind(errors.ErrInvalidInput, err))
	}
	return level, nil
}

// MinIOConfig returns the MinIO connection settings. The shared endpoint may
// carry a scheme, in which case it decides whether TLS is used.
func (c *Config) MinIOConfig() (minio.Config, error) {
	cfg := c.MinIO
	cfg.Region = c.Region
	cfg.Endpoint = c.Endpoint

	if strings.Contains(c.Endpoint, "://") {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return minio.Config{}, errors.NewError("config", errors.Kind(errors.ErrInvalidInput, err))
		}
		cfg.Endpoint = u.Host
		cfg.UseSSL = u.Scheme == "https"
	}
	return cfg, cfg.Validate()
}
