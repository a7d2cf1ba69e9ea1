package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
	cfg     *Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{v: newViper()}

	cmd := &cobra.Command{
		Use:           "s3pipe",
		Short:         "Stream standard input into object storage",
		Long:          `s3pipe uploads an unbounded stream as a multipart upload, one part at a time, without knowing its length up front.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(o.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := loadConfig(o.v, o.cfgFile)
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			o.cfg = cfg
			o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("backend", backendS3, "storage backend: s3 or minio")
	flags.String("region", "", "storage region")
	flags.String("endpoint", "", "custom endpoint URL, e.g. http://localhost:9000")
	flags.Bool("path-style", false, "use path-style bucket addressing (s3 backend)")
	flags.String("minio-access-key", "", "MinIO access key")
	flags.String("minio-secret-key", "", "MinIO secret key")
	flags.Bool("minio-ssl", false, "use TLS for MinIO when the endpoint has no scheme")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	cmd.AddCommand(newPutCmd(o))
	cmd.SetErr(os.Stderr)
	return cmd
}
