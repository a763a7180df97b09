// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package media

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/vidstream/internal/config"
)

// ObjectAPI is the subset of the S3 client S3Host needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Host stores files in an S3 bucket. A custom endpoint with path-style
// addressing targets MinIO or Cloudflare R2.
type S3Host struct {
	client  ObjectAPI
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Host loads AWS configuration (static keys when set, the default chain
// otherwise) and creates the client.
func NewS3Host(ctx context.Context, cfg config.S3Config, publicBaseURL string) (*S3Host, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3HostWithClient(client, cfg, publicBaseURL), nil
}

// NewS3HostWithClient uses an existing client.
func NewS3HostWithClient(client ObjectAPI, cfg config.S3Config, publicBaseURL string) *S3Host {
	if publicBaseURL == "" {
		publicBaseURL = defaultObjectBaseURL(cfg)
	}
	return &S3Host{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.KeyPrefix,
		baseURL: publicBaseURL,
	}
}

// Upload puts the object. The HLS URL names the playlist a transcoder is
// expected to write next to it.
func (h *S3Host) Upload(ctx context.Context, in UploadInput) (Asset, error) {
	key := newKey(h.prefix, in.Filename)

	put := &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		put.ContentType = aws.String(in.ContentType)
	}
	if in.Size >= 0 {
		if in.Size == 0 {
			return Asset{}, ErrEmptyUpload
		}
		put.ContentLength = aws.Int64(in.Size)
	}

	if _, err := h.client.PutObject(ctx, put); err != nil {
		return Asset{}, fmt.Errorf("put s3://%s/%s: %w", h.bucket, key, err)
	}

	return Asset{
		Key:    key,
		URL:    joinURL(h.baseURL, key),
		HLSURL: joinURL(h.baseURL, hlsKey(key)),
	}, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (h *S3Host) Delete(ctx context.Context, key string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", h.bucket, key, err)
	}
	return nil
}

func defaultObjectBaseURL(cfg config.S3Config) string {
	if cfg.Endpoint != "" {
		return joinURL(cfg.Endpoint, cfg.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
