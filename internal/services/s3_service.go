package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/artcatalog/backend/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
)

// S3Service is the ObjectStore for any S3 compatible bucket (AWS, R2, MinIO,
// GCS interoperability endpoint).
type S3Service struct {
	client *s3.Client
	cfg    *config.Config
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, fmt.Errorf("build s3 client: %w", err)
	}
	log.Printf("Media storage: bucket %s (endpoint %q)", cfg.MediaBucket, cfg.MediaS3Endpoint)
	return &S3Service{client: client, cfg: cfg}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithLogger(logging.NewStandardLogger(log.Writer())),
	}
	// fall back to the default credential chain when no static keys are set
	if key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// Put uploads to the media bucket
func (s *S3Service) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(s.client)
	in := &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.MediaBucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	}
	if s.cfg.MediaPublicRead {
		in.ACL = s3types.ObjectCannedACLPublicRead
	}
	if _, err := uploader.Upload(ctx, in, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 }); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete deletes an object from the media bucket
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.MediaBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public location of key.
func (s *S3Service) URL(key string) string {
	return s.baseURL() + "/" + escapeKey(key)
}

func (s *S3Service) KeyForURL(publicURL string) (string, bool) {
	return keyFromURL(s.baseURL(), publicURL)
}

func (s *S3Service) baseURL() string {
	if s.cfg.MediaPublicURL != "" {
		return s.cfg.MediaPublicURL
	}
	if e := s.client.Options().BaseEndpoint; e != nil && *e != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(*e, "/"), s.cfg.MediaBucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.MediaBucket, s.cfg.MediaS3Region)
}
