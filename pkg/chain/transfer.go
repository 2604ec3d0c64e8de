package chain

import (
	"encoding/json"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

type parsedSystemInstruction struct {
	Type string `json:"type"`
	Info struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		Lamports    uint64 `json:"lamports"`
	} `json:"info"`
}

// TransferInfo returns the destination and lamport amount of the first
// system-program transfer in the transaction, or ("", nil) when there is
// none. Used for best-effort cross-checking against the trace summary.
func TransferInfo(tx *ParsedTransaction) (string, *uint64) {
	if tx == nil || tx.Transaction == nil {
		return "", nil
	}
	for _, in := range tx.Transaction.Message.Instructions {
		if in.Program != "system" && in.ProgramID != SystemProgram {
			continue
		}
		if len(in.Parsed) == 0 {
			continue
		}
		var p parsedSystemInstruction
		if err := json.Unmarshal(in.Parsed, &p); err != nil {
			continue
		}
		if p.Type != "transfer" {
			continue
		}
		lamports := p.Info.Lamports
		return p.Info.Destination, &lamports
	}
	return "", nil
}

// Summarize condenses a parsed transaction into the cacheable summary the
// verifier seals into a trace.
func Summarize(tx *ParsedTransaction, signature, memoRaw string) *trace.CachedTxSummary {
	s := &trace.CachedTxSummary{
		Signature: signature,
		Memo:      memoRaw,
	}
	if tx == nil {
		return s
	}
	s.Slot = tx.Slot
	if tx.Meta != nil {
		s.Fee = tx.Meta.Fee
	}
	s.Destination, s.Lamports = TransferInfo(tx)

	if tx.Transaction != nil {
		seen := make(map[string]bool)
		for _, in := range tx.Transaction.Message.Instructions {
			id := in.ProgramID
			if id == "" {
				id = in.Program
			}
			if id != "" && !seen[id] {
				seen[id] = true
				s.ProgramIDs = append(s.ProgramIDs, id)
			}
		}
	}
	return s
}
