// Package s3store implements rangeserve.ByteStore on top of an S3 compatible
// bucket (AWS S3, Cloudflare R2, MinIO). Ranges are forwarded to the bucket
// as Range headers so only the requested window leaves the bucket.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/sagarc03/rangeserve"
)

// Config holds bucket connection details.
type Config struct {
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey    string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey    string `mapstructure:"secret_key" yaml:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// Store reads objects from a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3store: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3store: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Get fetches key, forwarding rng as a Range header. The served window and
// total size are read back from the Content-Range response header.
func (s *Store) Get(ctx context.Context, key string, rng *rangeserve.FetchRange) (rangeserve.StoredObject, error) {
	if key == "" {
		return rangeserve.StoredObject{}, rangeserve.ErrNotFound
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if rng != nil {
		input.Range = aws.String(rangeHeader(*rng))
	}

	resp, err := s.client.GetObject(ctx, input)
	if err != nil {
		return rangeserve.StoredObject{}, fmt.Errorf("s3store get %s: %w", key, mapError(err))
	}

	obj := rangeserve.StoredObject{
		Size:     aws.ToInt64(resp.ContentLength),
		ETag:     aws.ToString(resp.ETag),
		Metadata: responseMetadata(resp),
		Body:     resp.Body,
	}

	if cr := aws.ToString(resp.ContentRange); cr != "" {
		served, size, err := parseContentRange(cr)
		if err != nil {
			_ = resp.Body.Close()
			return rangeserve.StoredObject{}, fmt.Errorf("s3store get %s: %w", key, err)
		}
		obj.Size = size
		obj.Range = &served
	}

	return obj, nil
}

func responseMetadata(resp *s3.GetObjectOutput) rangeserve.HTTPMetadata {
	m := rangeserve.HTTPMetadata{
		ContentType:        aws.ToString(resp.ContentType),
		ContentDisposition: aws.ToString(resp.ContentDisposition),
		ContentEncoding:    aws.ToString(resp.ContentEncoding),
		ContentLanguage:    aws.ToString(resp.ContentLanguage),
		CacheControl:       aws.ToString(resp.CacheControl),
	}
	if raw := aws.ToString(resp.ExpiresString); raw != "" {
		if t, err := http.ParseTime(raw); err == nil {
			m.Expires = t
		}
	}
	return m
}

func rangeHeader(rng rangeserve.FetchRange) string {
	switch {
	case rng.Suffix > 0:
		return fmt.Sprintf("bytes=-%d", rng.Suffix)
	case rng.Length > 0:
		return fmt.Sprintf("bytes=%d-%d", rng.Offset, rng.Offset+rng.Length-1)
	default:
		return fmt.Sprintf("bytes=%d-", rng.Offset)
	}
}

// parseContentRange reads "bytes first-last/total".
func parseContentRange(v string) (rangeserve.ServedRange, int64, error) {
	var first, last, total int64
	if _, err := fmt.Sscanf(v, "bytes %d-%d/%d", &first, &last, &total); err != nil {
		return rangeserve.ServedRange{}, 0, fmt.Errorf("parse content range %q: %w: %w", v, rangeserve.ErrInternal, err)
	}
	if first < 0 || last < first || last >= total {
		return rangeserve.ServedRange{}, 0, fmt.Errorf("parse content range %q: %w: inconsistent bounds", v, rangeserve.ErrInternal)
	}
	return rangeserve.ServedRange{Offset: first, Length: last - first + 1}, total, nil
}

func mapError(err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return rangeserve.ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "nosuchkey", "notfound", "404":
			return rangeserve.ErrNotFound
		case "invalidrange":
			return rangeserve.ErrRangeNotSatisfiable
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return rangeserve.ErrNotFound
		case http.StatusRequestedRangeNotSatisfiable:
			return rangeserve.ErrRangeNotSatisfiable
		}
	}

	return err
}
