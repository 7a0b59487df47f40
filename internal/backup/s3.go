package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNoBucket is returned when S3 upload is requested without a bucket.
var ErrNoBucket = errors.New("s3 bucket required")

// S3Config configures off-site copies of snapshots on S3 or an
// S3-compatible server such as MinIO.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. http://localhost:9000
	Prefix          string // optional key prefix
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
	PathStyle       bool
}

// Environment variables:
//   SPORETRACK_BACKUP_S3_BUCKET=<bucket> (enables upload)
//   SPORETRACK_BACKUP_S3_REGION=<region> (default us-east-1)
//   SPORETRACK_BACKUP_S3_ENDPOINT=<url>
//   SPORETRACK_BACKUP_S3_PREFIX=<key prefix>
//   SPORETRACK_BACKUP_S3_PATH_STYLE=true|false
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_PROFILE as usual

// S3ConfigFromEnv reads S3Config from the environment. The second result is
// false when no bucket is set, meaning uploads are disabled.
func S3ConfigFromEnv(getenv func(string) string) (S3Config, bool) {
	cfg := S3Config{
		Bucket:    getenv("SPORETRACK_BACKUP_S3_BUCKET"),
		Region:    getenv("SPORETRACK_BACKUP_S3_REGION"),
		Endpoint:  getenv("SPORETRACK_BACKUP_S3_ENDPOINT"),
		Prefix:    getenv("SPORETRACK_BACKUP_S3_PREFIX"),
		PathStyle: strings.EqualFold(getenv("SPORETRACK_BACKUP_S3_PATH_STYLE"), "true"),
	}
	return cfg, cfg.Bucket != ""
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies snapshot files into a bucket.
type S3Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Uploader builds an uploader from cfg using the AWS SDK's default
// configuration chain.
func NewS3Uploader(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	return &S3Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Upload stores the file at p under the uploader's prefix and returns the
// object key.
func (u *S3Uploader) Upload(ctx context.Context, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("reading backup: %w", err)
	}

	key := path.Join(u.prefix, filepath.Base(p))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup to s3://%s/%s: %w", u.bucket, key, err)
	}
	return key, nil
}
