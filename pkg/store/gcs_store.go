//go:build gcp

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// GCSStore keeps traces as JSON objects keyed by digest in a GCS bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSStoreConfig holds configuration for GCSStore.
type GCSStoreConfig struct {
	Bucket string
	Prefix string // Optional key prefix
}

// NewGCSStore creates a GCS-backed trace store. Credentials come from ADC.
func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) key(hash string) string {
	return s.prefix + strings.ToLower(hash) + ".json"
}

// Get loads a trace by digest.
func (s *GCSStore) Get(ctx context.Context, hash string) (*trace.Trace, error) {
	rd, err := s.client.Bucket(s.bucket).Object(s.key(hash)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: gcs get %s: %w", hash, err)
	}
	defer func() { _ = rd.Close() }()

	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("store: gcs read %s: %w", hash, err)
	}
	var t trace.Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
	}
	return &t, nil
}

// Put writes a trace under its digest, overwriting any prior object.
func (s *GCSStore) Put(ctx context.Context, hash string, t *trace.Trace) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store: encode trace %s: %w", hash, err)
	}

	w := s.client.Bucket(s.bucket).Object(s.key(hash)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("store: gcs write %s: %w", hash, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: gcs commit %s: %w", hash, err)
	}
	return nil
}

// List returns up to limit traces ordered by update time descending.
func (s *GCSStore) List(ctx context.Context, limit int) ([]Entry, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	type candidate struct {
		hash string
		mod  time.Time
	}
	var candidates []candidate
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: gcs list: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		candidates = append(candidates, candidate{
			hash: strings.TrimSuffix(name, ".json"),
			mod:  attrs.Updated,
		})
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
