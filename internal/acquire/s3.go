package acquire

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the slice of the S3 API needed to read screenshots.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client loads the default AWS config chain; region overrides the resolved region when set.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// GetS3Object downloads bucket/key, refusing objects larger than max.
func GetS3Object(ctx context.Context, client ObjectGetter, bucket, key string, max int64) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, errors.New("s3 reference needs bucket and key")
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	if out.ContentLength > max {
		return nil, ErrTooLarge
	}
	return readCapped(out.Body, max)
}
