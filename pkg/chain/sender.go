package chain

import (
	"context"

	"github.com/slotscribe/slotscribe/pkg/memo"
)

// OutgoingInstruction is one instruction of a transaction to submit.
type OutgoingInstruction struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts,omitempty"`
	Data      []byte   `json:"data,omitempty"`
}

// OutgoingTransaction is a transaction to sign and submit. Signing is the
// Sender implementation's concern.
type OutgoingTransaction struct {
	FeePayer     string                `json:"feePayer"`
	Instructions []OutgoingInstruction `json:"instructions"`
}

// Sender is the submission capability. Implementations wrap a wallet or a
// signing service.
type Sender interface {
	Send(ctx context.Context, tx *OutgoingTransaction) (signature string, err error)
}

// CommitmentSender wraps a Sender and can append a commitment memo to an
// outgoing transaction. Memo injection is an explicit method the caller opts
// into per transaction, never an interception of ordinary Send calls.
type CommitmentSender struct {
	inner Sender
}

// NewCommitmentSender wraps inner.
func NewCommitmentSender(inner Sender) *CommitmentSender {
	return &CommitmentSender{inner: inner}
}

// Send submits the transaction unchanged.
func (s *CommitmentSender) Send(ctx context.Context, tx *OutgoingTransaction) (string, error) {
	return s.inner.Send(ctx, tx)
}

// SendWithCommitment appends a memo instruction carrying the payload digest
// and submits. The input transaction is not mutated.
func (s *CommitmentSender) SendWithCommitment(ctx context.Context, tx *OutgoingTransaction, payloadHash string) (string, error) {
	anchored := &OutgoingTransaction{
		FeePayer:     tx.FeePayer,
		Instructions: make([]OutgoingInstruction, 0, len(tx.Instructions)+1),
	}
	anchored.Instructions = append(anchored.Instructions, tx.Instructions...)
	anchored.Instructions = append(anchored.Instructions, OutgoingInstruction{
		ProgramID: MemoProgramV2,
		Data:      []byte(memo.Encode(payloadHash)),
	})
	return s.inner.Send(ctx, anchored)
}
