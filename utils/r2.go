// utils/r2.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrObjectMissing = errors.New("video object not found in storage")

// ObjectHeader is the part of the S3 API the store needs.
type ObjectHeader interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// R2Store checks uploaded videos in a Cloudflare R2 bucket.
type R2Store struct {
	Client     ObjectHeader
	Bucket     string
	CDNBaseURL string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

func NewR2Store(ctx context.Context, c R2Config) (*R2Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := c.CDNBaseURL
	if cdn == "" {
		cdn = endpoint
	}
	return &R2Store{Client: client, Bucket: c.Bucket, CDNBaseURL: strings.TrimRight(cdn, "/")}, nil
}

// KeyForURL maps a CDN URL to its object key. ok is false for URLs hosted elsewhere.
func (r *R2Store) KeyForURL(raw string) (key string, ok bool) {
	prefix := r.CDNBaseURL + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	key = strings.TrimPrefix(raw, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return key, key != ""
}

// VerifyVideo accepts external URLs as-is and requires CDN URLs to exist in the bucket.
func (r *R2Store) VerifyVideo(ctx context.Context, raw string) error {
	key, ok := r.KeyForURL(raw)
	if !ok {
		return nil
	}
	_, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrObjectMissing
		}
		return fmt.Errorf("failed to check R2 object: %w", err)
	}
	return nil
}
