//go:build !gcp

package store

import (
	"context"
	"fmt"
)

func newGCSStoreFromEnv(ctx context.Context) (TraceStore, error) {
	return nil, fmt.Errorf("store: GCS storage is not enabled in this build (use -tags gcp)")
}
