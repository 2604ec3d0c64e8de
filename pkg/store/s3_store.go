package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// S3Store keeps traces as JSON objects keyed by digest.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3StoreConfig holds configuration for S3Store.
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	Prefix   string // Optional key prefix
}

// NewS3Store creates an S3-backed trace store.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("store: load AWS config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, clientOpts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3Store) key(hash string) string {
	return s.prefix + strings.ToLower(hash) + ".json"
}

// Get loads a trace by digest.
func (s *S3Store) Get(ctx context.Context, hash string) (*trace.Trace, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: s3 get %s: %w", hash, err)
	}
	defer func() { _ = out.Body.Close() }()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: s3 read %s: %w", hash, err)
	}
	var t trace.Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
	}
	return &t, nil
}

// Put writes a trace under its digest, overwriting any prior object.
func (s *S3Store) Put(ctx context.Context, hash string, t *trace.Trace) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store: encode trace %s: %w", hash, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(hash)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("store: s3 put %s: %w", hash, err)
	}
	return nil
}

// List returns up to limit traces ordered by LastModified descending. S3
// lists lexically, so ordering is applied client-side after one page; deep
// histories belong in the sqlite or redis backend.
func (s *S3Store) List(ctx context.Context, limit int) ([]Entry, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("store: s3 list: %w", err)
	}

	type candidate struct {
		hash string
		mod  time.Time
	}
	var candidates []candidate
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		name := strings.TrimPrefix(key, s.prefix)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		c := candidate{hash: strings.TrimSuffix(name, ".json")}
		if obj.LastModified != nil {
			c.mod = *obj.LastModified
		}
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mod.After(candidates[j].mod) })

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		t, err := s.Get(ctx, c.hash)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Hash: c.hash, Trace: t})
	}
	return entries, nil
}
