package chain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotscribe/slotscribe/pkg/memo"
)

const scanHash = "ab12cd34ef5601234567890123456789012345678901234567890123456789ab"

func memoInstruction(text string) Instruction {
	parsed, _ := json.Marshal(text)
	return Instruction{Program: "spl-memo", ProgramID: MemoProgramV2, Parsed: parsed}
}

func txWith(instructions ...Instruction) *ParsedTransaction {
	return &ParsedTransaction{
		Transaction: &Transaction{Message: Message{Instructions: instructions}},
		Meta:        &Meta{},
	}
}

func TestFindMemo_TopLevelParsed(t *testing.T) {
	commitment := memo.Encode(scanHash)
	got, err := FindMemo(txWith(memoInstruction(commitment)))
	require.NoError(t, err)
	require.Equal(t, commitment, got)
}

func TestFindMemo_Base64Data(t *testing.T) {
	commitment := memo.Encode(scanHash)
	tx := txWith(Instruction{
		ProgramID: MemoProgramV1,
		Data:      base64.StdEncoding.EncodeToString([]byte(commitment)),
	})
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Equal(t, commitment, got)
}

func TestFindMemo_InnerInstruction(t *testing.T) {
	commitment := memo.Encode(scanHash)
	tx := txWith()
	tx.Meta.InnerInstructions = []InnerInstructionSet{
		{Index: 0, Instructions: []Instruction{memoInstruction(commitment)}},
	}
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Equal(t, commitment, got)
}

func TestFindMemo_LogLineFallback(t *testing.T) {
	commitment := memo.Encode(scanHash)
	tx := txWith()
	tx.Meta.LogMessages = []string{
		"Program MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr invoke [1]",
		`Program log: Memo (len 76): "` + commitment + `"`,
	}
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Equal(t, commitment, got)
}

func TestFindMemo_PrefersCommitmentOverOtherMemoText(t *testing.T) {
	commitment := memo.Encode(scanHash)
	tx := txWith(memoInstruction("hello world"), memoInstruction(commitment))
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Equal(t, commitment, got)
}

func TestFindMemo_FirstCandidateWhenNoCommitment(t *testing.T) {
	tx := txWith(memoInstruction("first"), memoInstruction("second"))
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Equal(t, "first", got)
}

func TestFindMemo_ConflictingCommitments(t *testing.T) {
	other := strings.Repeat("f", 64)
	tx := txWith(memoInstruction(memo.Encode(scanHash)), memoInstruction(memo.Encode(other)))
	_, err := FindMemo(tx)
	require.ErrorIs(t, err, memo.ErrAmbiguousMemo)
}

func TestFindMemo_NoMemo(t *testing.T) {
	got, err := FindMemo(txWith(Instruction{Program: "system", ProgramID: SystemProgram}))
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = FindMemo(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFindMemo_IgnoresNonMemoPrograms(t *testing.T) {
	parsed, _ := json.Marshal(memo.Encode(scanHash))
	tx := txWith(Instruction{Program: "system", ProgramID: SystemProgram, Parsed: parsed})
	got, err := FindMemo(tx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtractFromLog_Unquoted(t *testing.T) {
	line := "Program log: SS1 payload=" + scanHash
	require.Equal(t, "SS1 payload="+scanHash, extractFromLog(line))
}
