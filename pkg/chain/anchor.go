package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slotscribe/slotscribe/pkg/store"
	"github.com/slotscribe/slotscribe/pkg/trace"
)

// Anchorer runs the post-submission follow-up: wait for the transaction to
// confirm, stamp the trace with its on-chain coordinates, and publish the
// trace to storage under its digest.
//
// The follow-up is an explicit detached task. Its failures are logged on the
// anchorer's error channel (the logger), never surfaced to the submitting
// caller — a slow confirmation must not fail the send path.
type Anchorer struct {
	client Client
	store  store.TraceStore
	logger *slog.Logger

	pollInterval   time.Duration
	confirmTimeout time.Duration

	wg sync.WaitGroup
}

// NewAnchorer creates an anchorer. A nil logger falls back to slog.Default.
func NewAnchorer(client Client, st store.TraceStore, logger *slog.Logger) *Anchorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Anchorer{
		client:         client,
		store:          st,
		logger:         logger,
		pollInterval:   2 * time.Second,
		confirmTimeout: 90 * time.Second,
	}
}

// ConfirmAndStore waits for the signature to confirm, attaches the on-chain
// info to t, and persists t under its payload hash.
func (a *Anchorer) ConfirmAndStore(ctx context.Context, t *trace.Trace, signature string) error {
	tx, err := a.awaitConfirmation(ctx, signature)
	if err != nil {
		return err
	}

	t.OnChain = &trace.OnChainInfo{
		Signature: signature,
		Slot:      tx.Slot,
		Status:    "confirmed",
	}
	if memoRaw, err := FindMemo(tx); err == nil && memoRaw != "" {
		t.OnChain.Memo = memoRaw
	}

	if err := a.store.Put(ctx, t.PayloadHash, t); err != nil {
		return fmt.Errorf("chain: store trace %s: %w", t.PayloadHash, err)
	}
	return nil
}

// ConfirmAndStoreAsync runs ConfirmAndStore as a detached background task.
// The returned channel reports the terminal error (nil on success) and is
// buffered, so ignoring it is safe.
func (a *Anchorer) ConfirmAndStoreAsync(ctx context.Context, t *trace.Trace, signature string) <-chan error {
	done := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := a.ConfirmAndStore(ctx, t, signature)
		if err != nil {
			a.logger.Error("anchor follow-up failed",
				"signature", signature,
				"payloadHash", t.PayloadHash,
				"error", err)
		}
		done <- err
	}()
	return done
}

// Wait blocks until all detached follow-ups finish. Used on shutdown.
func (a *Anchorer) Wait() {
	a.wg.Wait()
}

func (a *Anchorer) awaitConfirmation(ctx context.Context, signature string) (*ParsedTransaction, error) {
	deadline := time.Now().Add(a.confirmTimeout)
	for {
		tx, err := a.client.GetParsedTransaction(ctx, signature)
		if err != nil {
			return nil, fmt.Errorf("chain: confirm %s: %w", signature, err)
		}
		if tx != nil {
			return tx, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("chain: transaction %s not confirmed within %s", signature, a.confirmTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("chain: confirm %s: %w", signature, ctx.Err())
		case <-time.After(a.pollInterval):
		}
	}
}
