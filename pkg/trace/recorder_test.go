package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestRecorder_PlanStepsPreserveOrder(t *testing.T) {
	r := NewRecorder("rebalance portfolio")
	require.NoError(t, r.AddPlanSteps("check balance", "quote swap"))
	require.NoError(t, r.AddPlanSteps("execute"))

	_, err := r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)
	require.Equal(t, []string{"check balance", "quote swap", "execute"}, tr.Payload.Plan.Steps)
}

func TestRecorder_ToolCallSuccess(t *testing.T) {
	r := NewRecorder("x").WithClock(fixedClock())
	out, err := r.RecordToolCall(context.Background(), "getBalance", map[string]any{"address": "A"}, func(context.Context) (any, error) {
		return map[string]any{"lamports": 42}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	_, err = r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)
	require.Len(t, tr.Payload.ToolCalls, 1)
	call := tr.Payload.ToolCalls[0]
	require.Equal(t, "getBalance", call.Name)
	require.NotNil(t, call.Output)
	require.Empty(t, call.Error)
	require.NotEmpty(t, call.StartedAt)
	require.LessOrEqual(t, call.StartedAt, call.EndedAt)
}

func TestRecorder_ToolCallFailureIsRecordedAndReraised(t *testing.T) {
	r := NewRecorder("x")
	boom := errors.New("rpc timeout")
	_, err := r.RecordToolCall(context.Background(), "sendTx", "payload", func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)
	require.Len(t, tr.Payload.ToolCalls, 1)
	require.Equal(t, "rpc timeout", tr.Payload.ToolCalls[0].Error)
	require.Nil(t, tr.Payload.ToolCalls[0].Output)
}

func TestRecorder_BuildBeforeFinalizeFails(t *testing.T) {
	r := NewRecorder("x")
	_, err := r.BuildTrace()
	require.ErrorIs(t, err, ErrNotFinalized)
}

func TestRecorder_MutationAfterFinalizeFails(t *testing.T) {
	r := NewRecorder("x")
	_, err := r.FinalizePayloadHash()
	require.NoError(t, err)

	require.ErrorIs(t, r.AddPlanSteps("late step"), ErrNotBuilding)
	require.ErrorIs(t, r.SetTransferTx("B", 1), ErrNotBuilding)
	_, err = r.RecordToolCall(context.Background(), "t", nil, func(context.Context) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrNotBuilding)
}

func TestRecorder_FinalizeIsIdempotent(t *testing.T) {
	r := NewRecorder("x")
	require.NoError(t, r.SetTransferTx("B", 1000))
	h1, err := r.FinalizePayloadHash()
	require.NoError(t, err)
	h2, err := r.FinalizePayloadHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestRecorder_SnapshotDoesNotAliasPayload(t *testing.T) {
	r := NewRecorder("x")
	input := map[string]any{"k": "v"}
	_, err := r.RecordToolCall(context.Background(), "t", input, func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	_, err = r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)

	// Mutating the caller-held input must not reach the frozen snapshot.
	input["k"] = "tampered"
	snap, ok := tr.HashedPayload.ToolCalls[0].Input.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "v", snap["k"])
}

func TestRecorder_NonceMakesIdenticalIntentsDistinct(t *testing.T) {
	r1 := NewRecorder("same intent")
	r2 := NewRecorder("same intent")
	h1, err := r1.FinalizePayloadHash()
	require.NoError(t, err)
	h2, err := r2.FinalizePayloadHash()
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestRecorder_SetTxSummaryShallowMerge(t *testing.T) {
	r := NewRecorder("x")
	require.NoError(t, r.SetTxSummary(TxSummary{Cluster: ClusterDevnet, FeePayer: "A"}))
	require.NoError(t, r.SetTxSummary(TxSummary{ProgramIDs: []string{"11111111111111111111111111111111"}}))
	require.NoError(t, r.SetTransferTx("B", 1000))

	_, err := r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)

	ts := tr.Payload.TxSummary
	require.NotNil(t, ts)
	require.Equal(t, ClusterDevnet, ts.Cluster)
	require.Equal(t, "A", ts.FeePayer)
	require.Equal(t, "B", ts.To)
	require.Equal(t, TxTransfer, ts.Type)
	require.NotNil(t, ts.Lamports)
	require.Equal(t, uint64(1000), *ts.Lamports)
}

func TestRecorder_AttachOnChain(t *testing.T) {
	r := NewRecorder("x")
	_, err := r.FinalizePayloadHash()
	require.NoError(t, err)

	r.AttachOnChain("sig-1", nil)
	require.Equal(t, StateSealed, r.State())
	r.AttachOnChain("sig-2", &OnChainInfo{Slot: 99, Status: "confirmed"})

	tr, err := r.BuildTrace()
	require.NoError(t, err)
	require.NotNil(t, tr.OnChain)
	require.Equal(t, "sig-2", tr.OnChain.Signature)
	require.Equal(t, uint64(99), tr.OnChain.Slot)
}

func TestRecorder_LendingActionValidation(t *testing.T) {
	r := NewRecorder("x")
	require.Error(t, r.SetLendingTx(TxSwap, LendingDetail{Protocol: "p", Token: "t", Amount: "1"}))
	require.NoError(t, r.SetLendingTx(TxLendingSupply, LendingDetail{Protocol: "p", Token: "t", Amount: "1"}))
}
