package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// R2 подписывает запросы только с регионом "auto"
const r2Region = "auto"

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) validate() error {
	fields := []struct{ name, value string }{
		{"account id", c.AccountID},
		{"access key id", c.AccessKeyID},
		{"secret access key", c.SecretAccessKey},
		{"bucket name", c.BucketName},
		{"public base url", c.PublicBaseURL},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid Cloudflare R2 configuration: missing %s", strings.Join(missing, ", "))
	}
	if _, err := url.ParseRequestURI(c.PublicBaseURL); err != nil {
		return fmt.Errorf("invalid Cloudflare R2 public base url: %w", err)
	}
	return nil
}

// objectPutter - часть s3.Client, которая нужна архиву.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archive складывает выгрузки в бакет Cloudflare R2.
type R2Archive struct {
	client  objectPutter
	bucket  string
	baseURL string
}

func NewR2Archive(ctx context.Context, cfg R2Config) (*R2Archive, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(r2Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return newR2Archive(client, cfg.BucketName, cfg.PublicBaseURL), nil
}

func newR2Archive(client objectPutter, bucket, baseURL string) *R2Archive {
	return &R2Archive{client: client, bucket: bucket, baseURL: baseURL}
}

// Upload сохраняет файл так, чтобы по публичной ссылке он скачивался под исходным именем.
func (a *R2Archive) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return nil, errors.New("failed to archive export: empty object key")
	}

	out, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(a.bucket),
		Key:                aws.String(key),
		Body:               reader,
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key))),
		CacheControl:       aws.String("private, max-age=0"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload export to R2 (key: %s): %w", key, err)
	}

	result := &UploadResult{Key: key, Location: a.GetPublicURL(key)}
	if out != nil && out.ETag != nil {
		result.ETag = strings.Trim(*out.ETag, `"`)
	}
	log.Info().Str("bucket", a.bucket).Str("key", key).Msg("export archived")
	return result, nil
}

func (a *R2Archive) GetPublicURL(key string) string {
	return PublicURL(a.baseURL, key)
}

// PublicURL склеивает базовый адрес бакета и ключ объекта.
func PublicURL(baseURL, key string) string {
	if baseURL == "" || key == "" {
		return ""
	}
	full, err := url.JoinPath(baseURL, strings.TrimPrefix(key, "/"))
	if err != nil {
		log.Warn().Err(err).Str("base_url", baseURL).Msg("failed to build public URL")
		return ""
	}
	return full
}
