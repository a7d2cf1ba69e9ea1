// Package s3stream uploads arbitrarily large byte streams to S3 through a
// plain io.Writer.
//
// A Writer turns sequential writes into a multipart upload session: bytes
// are staged into fixed-size parts, each part is uploaded as soon as it
// fills, and Close uploads the remainder, possibly empty, as the final
// part and completes the session. Parts are uploaded one at a time from the
// calling goroutine.
//
// Every byte is checksummed twice, once as it is handed to Write and once
// as it is staged, and the two are compared before the session is
// completed. Each part additionally carries its MD5 so that storage can
// verify it on receipt. Any failure aborts the session, so a failed upload
// never leaves a partial object or orphaned parts behind.
//
// Writers can be created from a Client, which drives Amazon S3 through the
// AWS SDK, or directly from any s3types.SessionStore such as the one in the
// minio package.
//
// Example usage:
//
//	client, err := s3stream.New(s3stream.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//
//	w, err := client.NewWriter(ctx, "my-bucket", "logs/today.gz",
//	    s3stream.WithContentType("application/gzip"),
//	    s3stream.WithFileStaging(""),
//	)
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, src); err != nil {
//	    _ = w.Abort()
//	    return err
//	}
//	return w.Close()
package s3stream
