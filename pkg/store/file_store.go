package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// FileStore is a filesystem-backed content-addressed trace store. Each trace
// lives at <dir>/<digest>.json, written via temp file + rename so readers
// never observe a partial write.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure trace dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(hash string) string {
	return filepath.Join(s.dir, strings.ToLower(hash)+".json")
}

// Get loads a trace by digest.
func (s *FileStore) Get(ctx context.Context, hash string) (*trace.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read trace %s: %w", hash, err)
	}
	var t trace.Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
	}
	return &t, nil
}

// Put writes a trace under its digest, overwriting any prior value.
func (s *FileStore) Put(ctx context.Context, hash string, t *trace.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode trace %s: %w", hash, err)
	}

	path := s.path(hash)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("store: write trace %s: %w", hash, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: commit trace %s: %w", hash, err)
	}
	return nil
}

// List returns up to limit traces, most recently written first.
func (s *FileStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list traces: %w", err)
	}

	type candidate struct {
		hash    string
		modTime int64
	}
	var candidates []candidate
	for _, de := range infos {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			hash:    strings.TrimSuffix(name, ".json"),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime > candidates[j].modTime })

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		raw, err := os.ReadFile(s.path(c.hash))
		if err != nil {
			continue
		}
		var t trace.Trace
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		entries = append(entries, Entry{Hash: c.hash, Trace: &t})
	}
	return entries, nil
}
