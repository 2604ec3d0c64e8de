package audit

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/slotscribe/slotscribe/pkg/store"
)

var (
	// ErrStoreNotConfigured is returned when export is invoked without a backing store.
	ErrStoreNotConfigured = errors.New("audit: store not configured (fail-closed)")
	// ErrInvalidLimit is returned for a non-positive trace limit.
	ErrInvalidLimit = errors.New("audit: limit must be positive")
)

// ExportRequest defines what to export.
type ExportRequest struct {
	Limit int `json:"limit"`
}

// Exporter bundles stored traces into a checksummed evidence pack that can
// be handed to an auditor alongside the on-chain commitments.
type Exporter struct {
	store store.TraceStore
}

func NewExporter(s store.TraceStore) *Exporter {
	return &Exporter{store: s}
}

// GeneratePack creates a zip file containing the most recent traces and a
// manifest, plus the sha256 checksum of the zip bytes.
func (e *Exporter) GeneratePack(ctx context.Context, req ExportRequest) ([]byte, string, error) {
	if e.store == nil {
		return nil, "", ErrStoreNotConfigured
	}
	if req.Limit <= 0 {
		return nil, "", ErrInvalidLimit
	}

	entries, err := e.store.List(ctx, req.Limit)
	if err != nil {
		return nil, "", fmt.Errorf("audit: list traces: %w", err)
	}

	tracesJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, "", err
	}

	manifest := map[string]any{
		"generated_at": time.Now().UTC(),
		"trace_count":  len(entries),
		"limit":        req.Limit,
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("audit: marshal manifest: %w", err)
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	f, err := w.Create("traces.json")
	if err != nil {
		return nil, "", err
	}
	_, _ = f.Write(tracesJSON)

	f, err = w.Create("manifest.json")
	if err != nil {
		return nil, "", err
	}
	_, _ = f.Write(manifestJSON)

	f, err = w.Create("README.txt")
	if err != nil {
		return nil, "", err
	}
	_, _ = fmt.Fprintf(f, "SlotScribe evidence pack\nGenerated at %s\nEach trace's payloadHash is anchored on-chain in a memo of the transaction it references.\n", time.Now().UTC())

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	zipBytes := buf.Bytes()
	hash := sha256.Sum256(zipBytes)
	checksum := hex.EncodeToString(hash[:])

	return zipBytes, checksum, nil
}
