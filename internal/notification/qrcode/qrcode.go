// Package qrcode resolves the GCash payment QR asset attached to approval
// notifications.
package qrcode

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Static returns the same public URL for every permit.
type Static struct {
	URL string
}

func (s Static) Resolve(context.Context, uuid.UUID) (string, error) {
	if strings.TrimSpace(s.URL) == "" {
		return "", fmt.Errorf("no QR code URL configured")
	}
	return s.URL, nil
}

// Presigner is the part of s3.PresignClient the resolver uses.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*aws.PresignedHTTPRequest, error)
}

// S3 presigns a GET for the QR asset. Key names the object shared by all
// permits; a per-permit object "<prefix>/<permit_id>.png" is used when
// PerPermit is set.
type S3 struct {
	presigner Presigner
	bucket    string
	key       string
	prefix    string
	perPermit bool
	expiry    time.Duration
}

type S3Option func(*S3)

func WithPerPermitKeys(prefix string) S3Option {
	return func(s *S3) {
		s.perPermit = true
		s.prefix = strings.Trim(prefix, "/")
	}
}

func WithExpiry(d time.Duration) S3Option {
	return func(s *S3) {
		if d > 0 {
			s.expiry = d
		}
	}
}

func NewS3(presigner Presigner, bucket, key string, opts ...S3Option) *S3 {
	s := &S3{presigner: presigner, bucket: bucket, key: key, expiry: 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *S3) Resolve(ctx context.Context, permitID uuid.UUID) (string, error) {
	key := s.key
	if s.perPermit {
		key = path.Join(s.prefix, permitID.String()+".png")
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign QR asset %s/%s: %w", s.bucket, key, err)
	}
	return req.URL, nil
}

// S3Config configures an S3 or MinIO backed resolver.
type S3Config struct {
	Bucket          string
	Key             string
	KeyPrefix       string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	Expiry          time.Duration
}

// NewS3FromConfig builds a presigning resolver. Credentials fall back to the
// default AWS chain when no static key pair is configured.
func NewS3FromConfig(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("QR bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	opts := []S3Option{WithExpiry(cfg.Expiry)}
	if cfg.Key == "" {
		opts = append(opts, WithPerPermitKeys(cfg.KeyPrefix))
	}
	return NewS3(s3.NewPresignClient(client), cfg.Bucket, cfg.Key, opts...), nil
}
