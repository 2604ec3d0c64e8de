package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotscribe/slotscribe/pkg/memo"
)

type captureSender struct {
	sent *OutgoingTransaction
}

func (s *captureSender) Send(ctx context.Context, tx *OutgoingTransaction) (string, error) {
	s.sent = tx
	return "sig-sent", nil
}

func TestCommitmentSender_SendPassthrough(t *testing.T) {
	inner := &captureSender{}
	s := NewCommitmentSender(inner)

	tx := &OutgoingTransaction{FeePayer: "A", Instructions: []OutgoingInstruction{{ProgramID: SystemProgram}}}
	sig, err := s.Send(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, "sig-sent", sig)
	require.Same(t, tx, inner.sent)
}

func TestCommitmentSender_SendWithCommitment(t *testing.T) {
	inner := &captureSender{}
	s := NewCommitmentSender(inner)
	hash := scanHash

	tx := &OutgoingTransaction{FeePayer: "A", Instructions: []OutgoingInstruction{{ProgramID: SystemProgram}}}
	_, err := s.SendWithCommitment(context.Background(), tx, hash)
	require.NoError(t, err)

	// Original transaction untouched.
	require.Len(t, tx.Instructions, 1)

	require.Len(t, inner.sent.Instructions, 2)
	appended := inner.sent.Instructions[1]
	require.Equal(t, MemoProgramV2, appended.ProgramID)
	require.Equal(t, memo.Encode(hash), string(appended.Data))
}
