// Package verify orchestrates full on-chain verification of a trace: fetch
// the transaction, extract the memo commitment, load the stored trace,
// recompute the digest and cross-check summary fields, then seal the result.
//
// "Not verified" is an expected first-class outcome and is always reported
// as structured data in Result.Reasons. Only transport and storage faults
// surface as errors, wrapped in InternalError so callers can tell "the
// target is invalid or unanchored" apart from "we failed to check".
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/slotscribe/slotscribe/pkg/canonical"
	"github.com/slotscribe/slotscribe/pkg/chain"
	"github.com/slotscribe/slotscribe/pkg/memo"
	"github.com/slotscribe/slotscribe/pkg/store"
	"github.com/slotscribe/slotscribe/pkg/trace"
)

const verifiedAtFormat = "2006-01-02T15:04:05.000Z"

// ErrMissingTarget means neither a signature nor a hash was supplied.
var ErrMissingTarget = errors.New("verify: signature or hash is required")

// InternalError wraps an RPC transport or storage fault. It is deliberately
// distinct from a failed verification, which is structured data, not an
// error.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("verify: internal error during %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func internal(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

// Request identifies what to verify. At least one of Signature and Hash is
// required; RPCURL optionally overrides the cluster's default endpoint.
type Request struct {
	Cluster   trace.Cluster `json:"cluster"`
	Signature string        `json:"signature,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	RPCURL    string        `json:"rpcUrl,omitempty"`
}

// Result is the verification verdict.
type Result struct {
	OK           bool     `json:"ok"`
	ExpectedHash string   `json:"expectedHash,omitempty"`
	ComputedHash string   `json:"computedHash,omitempty"`
	Reasons      []string `json:"reasons"`
}

// Response carries the verdict plus the evidence it was reached on.
type Response struct {
	Result      Result                 `json:"result"`
	Trace       *trace.Trace           `json:"trace,omitempty"`
	TxSummary   *trace.CachedTxSummary `json:"txSummary,omitempty"`
	MemoRaw     string                 `json:"memoRaw,omitempty"`
	OnChainHash string                 `json:"onChainHash,omitempty"`
	Slot        uint64                 `json:"slot,omitempty"`
}

// ClientFactory builds a chain client for a cluster, honoring an optional
// endpoint override.
type ClientFactory func(cluster trace.Cluster, rpcURL string) (chain.Client, error)

// Verifier runs the verification protocol against a trace store and a chain
// client. Safe for concurrent use; all state lives in the store.
type Verifier struct {
	store   store.TraceStore
	clients ClientFactory
	clock   func() time.Time
	tracer  oteltrace.Tracer
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock overrides the clock for testing.
func WithClock(clock func() time.Time) Option {
	return func(v *Verifier) { v.clock = clock }
}

// NewVerifier wires a verifier to its collaborators.
func NewVerifier(st store.TraceStore, clients ClientFactory, opts ...Option) *Verifier {
	v := &Verifier{
		store:   st,
		clients: clients,
		clock:   time.Now,
		tracer:  otel.Tracer("slotscribe/verify"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func failure(reasons ...string) *Response {
	return &Response{Result: Result{OK: false, Reasons: reasons}}
}

// cachedResponse rebuilds a Response from a previously sealed trace.
func cachedResponse(t *trace.Trace) *Response {
	resp := &Response{
		Result: Result{
			OK:           t.VerifiedResult.OK,
			ExpectedHash: t.VerifiedResult.ExpectedHash,
			ComputedHash: t.VerifiedResult.ComputedHash,
			Reasons:      []string{},
		},
		Trace:       t,
		TxSummary:   t.CachedTxSummary,
		OnChainHash: t.VerifiedResult.ExpectedHash,
	}
	if t.CachedTxSummary != nil {
		resp.MemoRaw = t.CachedTxSummary.Memo
		resp.Slot = t.CachedTxSummary.Slot
	}
	return resp
}

// sealedFor reports whether t carries a successful seal for signature.
func sealedFor(t *trace.Trace, signature string) bool {
	return t != nil && t.VerifiedResult != nil &&
		t.VerifiedResult.OK && t.VerifiedResult.Signature == signature
}

// loadTrace fetches a trace by digest. Returns (nil, nil) when absent;
// storage faults come back as InternalError.
func (v *Verifier) loadTrace(ctx context.Context, hash string) (*trace.Trace, error) {
	t, err := v.store.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, internal("trace lookup", err)
	}
	return t, nil
}

// Verify runs the full protocol. The returned error is non-nil only for
// request errors (ErrMissingTarget, InvalidClusterError) and InternalError;
// every verification outcome, failed or not, lands in Response.Result.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Response, error) {
	ctx, span := v.tracer.Start(ctx, "verify.Verify",
		oteltrace.WithAttributes(
			attribute.String("cluster", string(req.Cluster)),
			attribute.String("signature", req.Signature),
			attribute.String("hash", req.Hash),
		))
	defer span.End()

	resp, err := v.verify(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("ok", resp.Result.OK),
		attribute.Int("reasons", len(resp.Result.Reasons)),
	)
	return resp, nil
}

func (v *Verifier) verify(ctx context.Context, req Request) (*Response, error) {
	if req.Signature == "" && req.Hash == "" {
		return nil, ErrMissingTarget
	}
	if !req.Cluster.Valid() {
		return nil, &trace.InvalidClusterError{Name: string(req.Cluster)}
	}

	signature := req.Signature

	// Pre-fetch cache check. A trace already sealed for this signature is
	// served without any chain call. The seal is keyed by (hash, signature):
	// a seal under a different signature is never a hit.
	var preloaded *trace.Trace
	if req.Hash != "" {
		t, err := v.loadTrace(ctx, req.Hash)
		if err != nil {
			return nil, err
		}
		preloaded = t
		if signature == "" && preloaded != nil {
			if preloaded.OnChain != nil {
				signature = preloaded.OnChain.Signature
			} else if preloaded.VerifiedResult != nil {
				signature = preloaded.VerifiedResult.Signature
			}
		}
		if sealedFor(preloaded, signature) {
			return cachedResponse(preloaded), nil
		}
	}
	if signature == "" {
		return failure("No transaction signature available for verification"), nil
	}

	client, err := v.clients(req.Cluster, req.RPCURL)
	if err != nil {
		return nil, internal("chain client setup", err)
	}
	tx, err := client.GetParsedTransaction(ctx, signature)
	if err != nil {
		return nil, internal("chain fetch", err)
	}
	if tx == nil {
		return failure("Transaction not found on chain"), nil
	}

	memoRaw, err := chain.FindMemo(tx)
	if err != nil {
		if errors.Is(err, memo.ErrAmbiguousMemo) {
			resp := failure("Ambiguous memo: transaction carries multiple conflicting commitments")
			resp.Slot = tx.Slot
			return resp, nil
		}
		return nil, internal("memo extraction", err)
	}
	if memoRaw == "" {
		resp := failure("No memo found in transaction")
		resp.Slot = tx.Slot
		return resp, nil
	}
	decoded := memo.Decode(memoRaw)
	if decoded.PayloadHash == "" {
		resp := failure("Invalid memo format in transaction")
		resp.MemoRaw = memoRaw
		resp.Slot = tx.Slot
		return resp, nil
	}
	onChainHash := decoded.PayloadHash

	// Trace lookup: the caller's hash wins when supplied, else the one the
	// chain committed to.
	lookupHash := req.Hash
	if lookupHash == "" {
		lookupHash = onChainHash
	}
	tr := preloaded
	if req.Hash == "" {
		tr, err = v.loadTrace(ctx, lookupHash)
		if err != nil {
			return nil, err
		}
	}
	if tr == nil {
		// Explicitly distinct from a hash mismatch: the chain anchored a
		// digest, but the off-chain artifact was never published.
		resp := failure(fmt.Sprintf("Trace not found in storage for hash %s", lookupHash))
		resp.Result.ExpectedHash = onChainHash
		resp.MemoRaw = memoRaw
		resp.OnChainHash = onChainHash
		resp.Slot = tx.Slot
		return resp, nil
	}

	// Post-lookup cache check covers callers that supplied only a signature.
	if sealedFor(tr, signature) {
		return cachedResponse(tr), nil
	}

	body := tr.HashedPayload
	if body == nil {
		body = &tr.Payload
	}
	computed, err := canonical.CanonicalHash(body)
	if err != nil {
		return nil, internal("digest recomputation", err)
	}

	var reasons []string
	hashMatched := canonical.HashEqual(computed, onChainHash)
	if !hashMatched {
		reasons = append(reasons, fmt.Sprintf(
			"Payload hash mismatch: on-chain %s, computed %s", onChainHash, computed))
	}

	// Best-effort cross-checks, compared only when both sides provide the
	// field. A mismatch accumulates; it never short-circuits, so one response
	// reports every discrepancy found.
	chainDest, chainLamports := chain.TransferInfo(tx)
	if ts := body.TxSummary; ts != nil {
		if ts.To != "" && chainDest != "" && ts.To != chainDest {
			reasons = append(reasons, fmt.Sprintf(
				"Destination mismatch: trace says %s, chain says %s", ts.To, chainDest))
		}
		if ts.Lamports != nil && chainLamports != nil && *ts.Lamports != *chainLamports {
			reasons = append(reasons, fmt.Sprintf(
				"Lamports mismatch: trace says %d, chain says %d", *ts.Lamports, *chainLamports))
		}
	}

	ok := hashMatched && len(reasons) == 0
	if reasons == nil {
		reasons = []string{}
	}
	resp := &Response{
		Result: Result{
			OK:           ok,
			ExpectedHash: onChainHash,
			ComputedHash: computed,
			Reasons:      reasons,
		},
		Trace:       tr,
		MemoRaw:     memoRaw,
		OnChainHash: onChainHash,
		Slot:        tx.Slot,
	}

	summary := chain.Summarize(tx, signature, memoRaw)
	resp.TxSummary = summary

	// Seal on success only. A failed verification is never written back, so
	// a transient chain hiccup cannot poison the store. Re-sealing with the
	// same values is harmless; verification is deterministic.
	if ok {
		tr.VerifiedResult = &trace.VerifiedResult{
			OK:           true,
			Signature:    signature,
			ExpectedHash: onChainHash,
			ComputedHash: computed,
			Reasons:      []string{},
			VerifiedAt:   v.clock().UTC().Format(verifiedAtFormat),
		}
		tr.CachedTxSummary = summary
		if tr.OnChain == nil {
			tr.OnChain = &trace.OnChainInfo{}
		}
		tr.OnChain.Signature = signature
		tr.OnChain.Slot = tx.Slot
		if tr.OnChain.Memo == "" {
			tr.OnChain.Memo = memoRaw
		}
		if err := v.store.Put(ctx, tr.PayloadHash, tr); err != nil {
			return nil, internal("seal write", err)
		}
	}
	return resp, nil
}
