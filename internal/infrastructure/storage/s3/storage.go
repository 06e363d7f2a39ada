package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocationScheme prefixes every remote location string so readers can
// dispatch on it.
const LocationScheme = "s3://"

type Storage struct {
	client *awss3.Client
	bucket string
}

type Credentials struct {
	Region    string
	AccessKey string
	SecretKey string
}

func New(ctx context.Context, bucket string, creds Credentials) (*Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name not set")
	}
	if creds.Region == "" {
		return nil, fmt.Errorf("aws region not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(creds.Region),
	}
	if creds.AccessKey != "" && creds.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Storage{
		client: awss3.NewFromConfig(awsCfg),
		bucket: bucket,
	}, nil
}

func (s *Storage) Provider() string { return "s3" }

func (s *Storage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(s.client)

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := uploader.Upload(uploadCtx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return LocationScheme + s.bucket + "/" + key, nil
}

func (s *Storage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return out.Body, nil
}

// ParseLocation splits an s3:// location into bucket and key.
func ParseLocation(location string) (bucket, key string, err error) {
	if !strings.HasPrefix(location, LocationScheme) {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	remainder := strings.TrimPrefix(location, LocationScheme)
	bucket, key, found := strings.Cut(remainder, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 location: %s", location)
	}
	return bucket, key, nil
}
