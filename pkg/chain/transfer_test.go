package chain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func transferInstruction(dest string, lamports uint64) Instruction {
	parsed := map[string]any{
		"type": "transfer",
		"info": map[string]any{"source": "A", "destination": dest, "lamports": lamports},
	}
	raw, _ := json.Marshal(parsed)
	return Instruction{Program: "system", ProgramID: SystemProgram, Parsed: raw}
}

func TestTransferInfo_FirstSystemTransfer(t *testing.T) {
	tx := txWith(
		memoInstruction("noise"),
		transferInstruction("B", 1000),
		transferInstruction("C", 2000),
	)
	dest, lamports := TransferInfo(tx)
	require.Equal(t, "B", dest)
	require.NotNil(t, lamports)
	require.Equal(t, uint64(1000), *lamports)
}

func TestTransferInfo_NoTransfer(t *testing.T) {
	dest, lamports := TransferInfo(txWith(memoInstruction("just a memo")))
	require.Empty(t, dest)
	require.Nil(t, lamports)

	dest, lamports = TransferInfo(nil)
	require.Empty(t, dest)
	require.Nil(t, lamports)
}

func TestTransferInfo_SkipsNonTransferSystemInstructions(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"type": "createAccount", "info": map[string]any{}})
	tx := txWith(
		Instruction{Program: "system", ProgramID: SystemProgram, Parsed: raw},
		transferInstruction("B", 42),
	)
	dest, lamports := TransferInfo(tx)
	require.Equal(t, "B", dest)
	require.Equal(t, uint64(42), *lamports)
}

func TestSummarize(t *testing.T) {
	tx := txWith(memoInstruction("SS1 payload="+scanHash), transferInstruction("B", 1000))
	tx.Slot = 777
	tx.Meta.Fee = 5000

	s := Summarize(tx, "sig-1", "SS1 payload="+scanHash)
	require.Equal(t, "sig-1", s.Signature)
	require.Equal(t, uint64(777), s.Slot)
	require.Equal(t, uint64(5000), s.Fee)
	require.Equal(t, "SS1 payload="+scanHash, s.Memo)
	require.Equal(t, "B", s.Destination)
	require.Equal(t, uint64(1000), *s.Lamports)
	require.Equal(t, []string{MemoProgramV2, SystemProgram}, s.ProgramIDs)
}

func TestSummarize_NilTransaction(t *testing.T) {
	s := Summarize(nil, "sig-1", "")
	require.Equal(t, "sig-1", s.Signature)
	require.Zero(t, s.Slot)
	require.Nil(t, s.Lamports)
}
