//go:build gcp

package store

import (
	"context"
	"fmt"
	"os"
)

func newGCSStoreFromEnv(ctx context.Context) (TraceStore, error) {
	bucket := os.Getenv("TRACE_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("store: TRACE_GCS_BUCKET is required for gcs storage")
	}
	return NewGCSStore(ctx, GCSStoreConfig{
		Bucket: bucket,
		Prefix: os.Getenv("TRACE_GCS_PREFIX"),
	})
}
