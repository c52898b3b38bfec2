package datasource

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is a data source that streams one object from an S3-compatible store.
// Credentials and region come from the ambient AWS config (environment,
// shared config, instance role).
type S3 struct {
	bucket string
	key    string

	// client overrides the lazily-built default; used by tests.
	client s3iface.S3API
}

// NewS3 returns an S3 source for bucket/key.
func NewS3(bucket, key string) *S3 { return &S3{bucket: bucket, key: key} }

// Name returns the object key's base name.
func (s *S3) Name() string { return path.Base(s.key) }

// Open fetches the object and returns its body as a stream; the whole object
// is never buffered in memory.
func (s *S3) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.client
	if client == nil {
		sess, err := session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 session: %w", err)
		}
		client = s3.New(sess)
	}

	out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return out.Body, nil
}
