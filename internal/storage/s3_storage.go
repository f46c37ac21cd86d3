package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config configures access to S3 or an S3-compatible store
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO
	Endpoint string
	// Bucket is used for locations given as a bare key
	Bucket string
}

// S3Fetcher loads garment images from S3.
type S3Fetcher struct {
	client s3iface.S3API
	bucket string
}

// NewS3Fetcher creates a fetcher from static credentials
func NewS3Fetcher(cfg S3Config) (*S3Fetcher, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewS3FetcherWithClient(s3.New(sess), cfg.Bucket), nil
}

// NewS3FetcherWithClient wraps an existing S3 client
func NewS3FetcherWithClient(client s3iface.S3API, bucket string) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: bucket}
}

// FetchImage accepts s3://bucket/key or a key in the default bucket.
func (f *S3Fetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	bucket, key, err := f.resolve(location)
	if err != nil {
		return nil, err
	}

	out, err := f.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer out.Body.Close()

	img, _, err := image.Decode(io.LimitReader(out.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (f *S3Fetcher) resolve(location string) (bucket, key string, err error) {
	if strings.HasPrefix(location, "s3://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", "", fmt.Errorf("invalid s3 URL: %w", err)
		}
		bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	} else {
		bucket, key = f.bucket, strings.TrimPrefix(location, "/")
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q", location)
	}
	return bucket, key, nil
}
