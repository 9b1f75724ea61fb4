package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadAWSConfig = awsconfig.LoadDefaultConfig

// S3Storage uploads documents to a bucket
type S3Storage struct {
	client        putObjectAPI
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
}

// NewS3Storage loads AWS credentials from the default chain
func NewS3Storage(ctx context.Context, bucket, region, prefix, publicBaseURL string) (*S3Storage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	cfg, err := loadAWSConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3Storage(s3.NewFromConfig(cfg), bucket, region, prefix, publicBaseURL), nil
}

func newS3Storage(client putObjectAPI, bucket, region, prefix, publicBaseURL string) *S3Storage {
	return &S3Storage{
		client:        client,
		bucket:        bucket,
		region:        region,
		prefix:        strings.Trim(prefix, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Put uploads body under prefix/key and returns its URL
func (s *S3Storage) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	objectKey := cleanKey
	if s.prefix != "" {
		objectKey = path.Join(s.prefix, cleanKey)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", objectKey, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectKey, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey), nil
}
