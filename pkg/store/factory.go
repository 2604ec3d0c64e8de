package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// StoreType selects the trace storage backend.
type StoreType string

const (
	StoreTypeFS     StoreType = "fs"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeS3     StoreType = "s3"
	StoreTypeGCS    StoreType = "gcs"
)

// NewStoreFromEnv creates a trace store based on environment variables.
//
// Environment variables:
//   - TRACE_STORAGE_TYPE: "fs" (default), "sqlite", "redis", "s3" or "gcs"
//   - DATA_DIR: base directory for fs and sqlite backends (default: "data")
//
// For Redis:
//   - TRACE_REDIS_ADDR (default: "localhost:6379")
//   - TRACE_REDIS_PASSWORD, TRACE_REDIS_DB (optional)
//
// For S3:
//   - AWS_REGION or TRACE_S3_REGION
//   - TRACE_S3_BUCKET (required)
//   - TRACE_S3_ENDPOINT (optional, for MinIO/LocalStack)
//   - TRACE_S3_PREFIX (optional)
//
// For GCS:
//   - TRACE_GCS_BUCKET (required)
//   - TRACE_GCS_PREFIX (optional)
func NewStoreFromEnv(ctx context.Context) (TraceStore, error) {
	storeType := StoreType(os.Getenv("TRACE_STORAGE_TYPE"))
	if storeType == "" {
		storeType = StoreTypeFS
	}

	switch storeType {
	case StoreTypeFS:
		return NewFileStore(filepath.Join(dataDir(), "traces"))
	case StoreTypeSQLite:
		return OpenSQLiteStore(filepath.Join(dataDir(), "traces.db"))
	case StoreTypeRedis:
		addr := os.Getenv("TRACE_REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		db, _ := strconv.Atoi(os.Getenv("TRACE_REDIS_DB"))
		return NewRedisStoreAddr(addr, os.Getenv("TRACE_REDIS_PASSWORD"), db), nil
	case StoreTypeS3:
		return newS3StoreFromEnv(ctx)
	case StoreTypeGCS:
		return newGCSStoreFromEnv(ctx)
	default:
		return nil, fmt.Errorf("store: unsupported trace storage type: %s", storeType)
	}
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "data"
}

func newS3StoreFromEnv(ctx context.Context) (TraceStore, error) {
	bucket := os.Getenv("TRACE_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("store: TRACE_S3_BUCKET is required for s3 storage")
	}
	region := os.Getenv("TRACE_S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	return NewS3Store(ctx, S3StoreConfig{
		Bucket:   bucket,
		Region:   region,
		Endpoint: os.Getenv("TRACE_S3_ENDPOINT"),
		Prefix:   os.Getenv("TRACE_S3_PREFIX"),
	})
}
