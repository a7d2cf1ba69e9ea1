// Command s3pipe streams standard input into an object in S3 or MinIO.
//
//	tar -cz ./data | s3pipe put my-bucket backups/data.tar.gz
package main

import (
	"fmt"
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "s3pipe: %v [%s]\n", err, errors.CodeOf(err))
		os.Exit(1)
	}
}
