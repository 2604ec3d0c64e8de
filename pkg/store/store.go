// Package store provides content-addressed persistence for traces: get, put
// and list keyed by payload digest.
//
// Content addressing is the concurrency story: two correct writers computing
// the same payload produce the same digest and the same bytes, so duplicate
// concurrent writes are harmless and no locking is required. The only
// read-modify-write is the verifier's seal, which is deterministic and
// therefore race-safe as well.
package store

import (
	"context"
	"errors"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// ErrNotFound is returned by Get when no trace is stored under the digest.
var ErrNotFound = errors.New("store: trace not found")

// Entry pairs a digest with its stored trace, for listing.
type Entry struct {
	Hash  string       `json:"hash"`
	Trace *trace.Trace `json:"trace"`
}

// TraceStore is the blob-store contract the core depends on. Put has
// overwrite semantics; callers that must not clobber (the upload endpoint)
// check Get first. List is ordered most-recent-first.
type TraceStore interface {
	Get(ctx context.Context, hash string) (*trace.Trace, error)
	Put(ctx context.Context, hash string, t *trace.Trace) error
	List(ctx context.Context, limit int) ([]Entry, error)
}
