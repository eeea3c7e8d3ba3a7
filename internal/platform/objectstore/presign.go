// Package objectstore issues time-limited upload URLs for task attachments
// stored in S3.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// PresignAPI is the subset of *s3.PresignClient used by Bucket.
type PresignAPI interface {
	PresignPutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Bucket presigns uploads into one S3 bucket and derives the public URL of
// stored objects.
type Bucket struct {
	presigner  PresignAPI
	name       string
	region     string
	expiration time.Duration
	logger     *slog.Logger
}

// NewBucket creates a Bucket. If logger is nil, a default logger will be used.
func NewBucket(presigner PresignAPI, name, region string, expiration time.Duration, logger *slog.Logger) *Bucket {
	if presigner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("presigner cannot be nil for objectstore Bucket")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bucket{
		presigner:  presigner,
		name:       name,
		region:     region,
		expiration: expiration,
		logger:     logger.With(slog.String("component", "objectstore"), slog.String("bucket", name)),
	}
}

// NewS3Bucket creates a Bucket backed by an S3 client.
func NewS3Bucket(client *s3.Client, name, region string, expiration time.Duration, logger *slog.Logger) *Bucket {
	return NewBucket(s3.NewPresignClient(client), name, region, expiration, logger)
}

// PresignUpload returns a URL permitting a single HTTP PUT of key until the
// configured expiration elapses.
func (b *Bucket) PresignUpload(ctx context.Context, key string) (string, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(b.expiration))
	if err != nil {
		log.Error("failed to presign upload",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("presign upload for %s: %w", key, err)
	}

	log.Debug("presigned upload",
		slog.String("key", key),
		slog.Duration("expires_in", b.expiration))
	return req.URL, nil
}

// ObjectURL returns the virtual-hosted URL of key, where an uploaded
// attachment can be read once it exists.
func (b *Bucket) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.name, b.region, url.PathEscape(key))
}
