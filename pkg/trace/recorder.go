package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotscribe/slotscribe/pkg/canonical"
)

// State is the recorder lifecycle phase.
type State int

const (
	// StateBuilding allows payload mutation.
	StateBuilding State = iota
	// StateFinalized means the digest has been computed over a frozen snapshot.
	StateFinalized
	// StateSealed means on-chain info has been attached.
	StateSealed
)

// isoTimeFormat matches ECMAScript Date.toISOString, which the wire format
// inherited. Millisecond precision, always UTC, trailing Z.
const isoTimeFormat = "2006-01-02T15:04:05.000Z"

// Recorder accumulates an agent run into a TracePayload and freezes it into
// a Trace. One Recorder serves exactly one logical agent run. Tool calls may
// be issued concurrently, but array order is completion order and order is
// part of the digest; callers needing deterministic hashes must serialize.
type Recorder struct {
	mu            sync.Mutex
	state         State
	payload       TracePayload
	hashedPayload *TracePayload
	payloadHash   string
	createdAt     time.Time
	onChain       *OnChainInfo
	clock         func() time.Time
}

// NewRecorder starts a recorder for the given intent. The nonce makes
// otherwise-identical intents produce distinct digests.
func NewRecorder(intent string) *Recorder {
	r := &Recorder{
		payload: TracePayload{
			Nonce:     uuid.NewString(),
			Intent:    intent,
			Plan:      Plan{Steps: []string{}},
			ToolCalls: []ToolCall{},
		},
		clock: time.Now,
	}
	r.createdAt = r.clock()
	return r
}

// WithClock overrides the clock for testing.
func (r *Recorder) WithClock(clock func() time.Time) *Recorder {
	r.clock = clock
	r.createdAt = clock()
	return r
}

// WithNonce overrides the random nonce, for fixture tests that need a
// reproducible digest.
func (r *Recorder) WithNonce(nonce string) *Recorder {
	r.payload.Nonce = nonce
	return r
}

// State returns the current lifecycle phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddPlanSteps appends plan steps in order. Valid only before finalize.
func (r *Recorder) AddPlanSteps(steps ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilding {
		return ErrNotBuilding
	}
	r.payload.Plan.Steps = append(r.payload.Plan.Steps, steps...)
	return nil
}

// RecordToolCall executes action and appends an audit record of the call.
// On success the record carries the sanitized output; on failure it carries
// the error message AND the original error is returned to the caller —
// recording is best-effort audit logging, not error suppression.
func (r *Recorder) RecordToolCall(ctx context.Context, name string, input any, action func(context.Context) (any, error)) (any, error) {
	r.mu.Lock()
	if r.state != StateBuilding {
		r.mu.Unlock()
		return nil, ErrNotBuilding
	}
	r.mu.Unlock()

	startedAt := r.clock().UTC().Format(isoTimeFormat)
	out, err := action(ctx)
	endedAt := r.clock().UTC().Format(isoTimeFormat)

	call := ToolCall{
		Name:      name,
		Input:     input,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}
	if err != nil {
		call.Error = err.Error()
	} else {
		call.Output = SanitizeOutput(out)
	}

	r.mu.Lock()
	r.payload.ToolCalls = append(r.payload.ToolCalls, call)
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetTxSummary shallow-merges partial into the current summary: only fields
// set in partial overwrite.
func (r *Recorder) SetTxSummary(partial TxSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilding {
		return ErrNotBuilding
	}
	ts := r.summaryLocked()
	if partial.Cluster != "" {
		ts.Cluster = partial.Cluster
	}
	if partial.FeePayer != "" {
		ts.FeePayer = partial.FeePayer
	}
	if partial.To != "" {
		ts.To = partial.To
	}
	if partial.Lamports != nil {
		ts.Lamports = partial.Lamports
	}
	if partial.ProgramIDs != nil {
		ts.ProgramIDs = partial.ProgramIDs
	}
	if partial.Type != "" {
		ts.Type = partial.Type
	}
	if partial.Swap != nil {
		ts.Swap = partial.Swap
	}
	if partial.Stake != nil {
		ts.Stake = partial.Stake
	}
	if partial.Unstake != nil {
		ts.Unstake = partial.Unstake
	}
	if partial.NFTBuy != nil {
		ts.NFTBuy = partial.NFTBuy
	}
	if partial.NFTMint != nil {
		ts.NFTMint = partial.NFTMint
	}
	if partial.LPAdd != nil {
		ts.LPAdd = partial.LPAdd
	}
	if partial.LPRemove != nil {
		ts.LPRemove = partial.LPRemove
	}
	if partial.Lending != nil {
		ts.Lending = partial.Lending
	}
	if partial.TokenMint != nil {
		ts.TokenMint = partial.TokenMint
	}
	if partial.Meme != nil {
		ts.Meme = partial.Meme
	}
	if partial.Custom != nil {
		ts.Custom = partial.Custom
	}
	return nil
}

// SetTransferTx marks the summary as a plain transfer.
func (r *Recorder) SetTransferTx(to string, lamports uint64) error {
	return r.setTyped(TxTransfer, func(ts *TxSummary) {
		ts.To = to
		ts.Lamports = &lamports
	})
}

// SetSwapTx marks the summary as a swap.
func (r *Recorder) SetSwapTx(d SwapDetail) error {
	return r.setTyped(TxSwap, func(ts *TxSummary) { ts.Swap = &d })
}

// SetStakeTx marks the summary as a stake delegation.
func (r *Recorder) SetStakeTx(d StakeDetail) error {
	return r.setTyped(TxStake, func(ts *TxSummary) { ts.Stake = &d })
}

// SetUnstakeTx marks the summary as a stake deactivation.
func (r *Recorder) SetUnstakeTx(d UnstakeDetail) error {
	return r.setTyped(TxUnstake, func(ts *TxSummary) { ts.Unstake = &d })
}

// SetNFTBuyTx marks the summary as an NFT purchase.
func (r *Recorder) SetNFTBuyTx(d NFTBuyDetail) error {
	return r.setTyped(TxNFTBuy, func(ts *TxSummary) { ts.NFTBuy = &d })
}

// SetNFTMintTx marks the summary as an NFT mint.
func (r *Recorder) SetNFTMintTx(d NFTMintDetail) error {
	return r.setTyped(TxNFTMint, func(ts *TxSummary) { ts.NFTMint = &d })
}

// SetLPAddTx marks the summary as a liquidity provision.
func (r *Recorder) SetLPAddTx(d LPAddDetail) error {
	return r.setTyped(TxLPAdd, func(ts *TxSummary) { ts.LPAdd = &d })
}

// SetLPRemoveTx marks the summary as a liquidity withdrawal.
func (r *Recorder) SetLPRemoveTx(d LPRemoveDetail) error {
	return r.setTyped(TxLPRemove, func(ts *TxSummary) { ts.LPRemove = &d })
}

// SetLendingTx marks the summary as one of the four lending actions.
func (r *Recorder) SetLendingTx(action TxType, d LendingDetail) error {
	switch action {
	case TxLendingSupply, TxLendingBorrow, TxLendingRepay, TxLendingWithdraw:
	default:
		return fmt.Errorf("trace: %q is not a lending action", action)
	}
	return r.setTyped(action, func(ts *TxSummary) { ts.Lending = &d })
}

// SetTokenMintTx marks the summary as a token mint.
func (r *Recorder) SetTokenMintTx(d TokenMintDetail) error {
	return r.setTyped(TxTokenMint, func(ts *TxSummary) { ts.TokenMint = &d })
}

// SetMemeTx marks the summary as a meme-token buy or sell.
func (r *Recorder) SetMemeTx(action TxType, d MemeDetail) error {
	if action != TxMemeBuy && action != TxMemeSell {
		return fmt.Errorf("trace: %q is not a meme action", action)
	}
	return r.setTyped(action, func(ts *TxSummary) { ts.Meme = &d })
}

// SetCustomTx marks the summary as a custom program interaction.
func (r *Recorder) SetCustomTx(d CustomDetail) error {
	return r.setTyped(TxCustom, func(ts *TxSummary) { ts.Custom = &d })
}

func (r *Recorder) setTyped(t TxType, apply func(*TxSummary)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilding {
		return ErrNotBuilding
	}
	ts := r.summaryLocked()
	ts.Type = t
	apply(ts)
	return nil
}

func (r *Recorder) summaryLocked() *TxSummary {
	if r.payload.TxSummary == nil {
		r.payload.TxSummary = &TxSummary{}
	}
	return r.payload.TxSummary
}

// FinalizePayloadHash deep-copies the payload into a frozen snapshot,
// canonicalizes it and computes the digest. The summary must be fully
// populated first: calling again recomputes over current state, so callers
// treat this as one-way in practice.
func (r *Recorder) FinalizePayloadHash() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSealed {
		return r.payloadHash, nil
	}

	snapshot, err := clonePayload(&r.payload)
	if err != nil {
		return "", err
	}
	hash, err := canonical.CanonicalHash(snapshot)
	if err != nil {
		return "", err
	}

	r.hashedPayload = snapshot
	r.payloadHash = hash
	r.state = StateFinalized
	return hash, nil
}

// AttachOnChain records the submission outcome. Overwrites any prior value.
func (r *Recorder) AttachOnChain(signature string, info *OnChainInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc := OnChainInfo{Signature: signature}
	if info != nil {
		oc = *info
		oc.Signature = signature
	}
	r.onChain = &oc
	if r.state == StateFinalized {
		r.state = StateSealed
	}
}

// BuildTrace returns the immutable Trace value. ErrNotFinalized when called
// before FinalizePayloadHash.
func (r *Recorder) BuildTrace() (*Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateBuilding {
		return nil, ErrNotFinalized
	}

	display, err := clonePayload(&r.payload)
	if err != nil {
		return nil, err
	}
	t := &Trace{
		Version:       SelectVersion(r.hashedPayload),
		CreatedAt:     r.createdAt.UTC().Format(isoTimeFormat),
		Payload:       *display,
		HashedPayload: r.hashedPayload,
		PayloadHash:   r.payloadHash,
	}
	if r.onChain != nil {
		oc := *r.onChain
		t.OnChain = &oc
	}
	return t, nil
}

// clonePayload makes a structural deep copy through a JSON round trip, so
// the snapshot can never alias the live payload.
func clonePayload(p *TracePayload) (*TracePayload, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("trace: snapshot payload: %w", err)
	}
	var out TracePayload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("trace: snapshot payload: %w", err)
	}
	return &out, nil
}
