package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3Scheme = "s3://"

// S3Getter is the subset of the S3 client used to stream log objects
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from the default AWS configuration chain
// (environment, shared config, instance role)
func NewS3Client(ctx context.Context) (S3Getter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// IsS3Path reports whether path is an s3:// URI
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3Path splits s3://bucket/key into bucket and key
func ParseS3Path(path string) (bucket, key string, err error) {
	if !IsS3Path(path) {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}
	rest := strings.TrimPrefix(path, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 path %q: expected s3://bucket/key", path)
	}
	return bucket, key, nil
}

func (o *Opener) openS3(ctx context.Context, path string) (*Handle, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}

	if o.s3 == nil {
		if o.newS3 == nil {
			return nil, fmt.Errorf("s3 client is not configured")
		}
		client, err := o.newS3(ctx)
		if err != nil {
			return nil, err
		}
		o.s3 = client
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}

	return &Handle{
		Reader: out.Body,
		Info: Info{
			Path:    path,
			Size:    aws.ToInt64(out.ContentLength),
			ModTime: aws.ToTime(out.LastModified),
			ETag:    aws.ToString(out.ETag),
		},
		closers: []io.Closer{out.Body},
	}, nil
}
