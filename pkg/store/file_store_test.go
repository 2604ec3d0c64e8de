package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

func sampleTrace(hash string) *trace.Trace {
	return &trace.Trace{
		Version:     trace.VersionSimple,
		CreatedAt:   "2026-03-01T10:00:00.000Z",
		Payload:     trace.TracePayload{Nonce: "n", Intent: "i", Plan: trace.Plan{Steps: []string{}}, ToolCalls: []trace.ToolCall{}},
		PayloadHash: hash,
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash := "aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	require.NoError(t, s.Put(ctx, hash, sampleTrace(hash)))

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, hash, got.PayloadHash)
	require.Equal(t, "i", got.Payload.Intent)
}

func TestFileStore_GetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "ff00000000000000000000000000000000000000000000000000000000000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_HashLookupIsCaseInsensitive(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash := "ab11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	require.NoError(t, s.Put(ctx, hash, sampleTrace(hash)))

	got, err := s.Get(ctx, "AB11223344556677889900AABBCCDDEEFF00112233445566778899AABBCCDDEE")
	require.NoError(t, err)
	require.Equal(t, hash, got.PayloadHash)
}

func TestFileStore_PutOverwritesForSeal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash := "cc11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	tr := sampleTrace(hash)
	require.NoError(t, s.Put(ctx, hash, tr))

	tr.VerifiedResult = &trace.VerifiedResult{OK: true, Signature: "sig"}
	require.NoError(t, s.Put(ctx, hash, tr))

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, got.VerifiedResult)
	require.True(t, got.VerifiedResult.OK)
}

func TestFileStore_ListMostRecentFirst(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	h1 := "0111223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	h2 := "0211223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	require.NoError(t, s.Put(ctx, h1, sampleTrace(h1)))
	time.Sleep(10 * time.Millisecond) // distinct mtimes
	require.NoError(t, s.Put(ctx, h2, sampleTrace(h2)))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, h2, entries[0].Hash)
	require.Equal(t, h1, entries[1].Hash)

	entries, err = s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, h2, entries[0].Hash)
}
