// Package chain models the parsed-transaction shape consumed by the
// verifier and provides the RPC collaborator: a JSON-RPC client, memo
// extraction over parsed transactions, and an explicit memo-injecting
// sender wrapper for anchoring new commitments.
package chain

import "encoding/json"

// Memo program ids recognized when scanning instructions.
const (
	MemoProgramV1 = "Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo"
	MemoProgramV2 = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

// SystemProgram is the native transfer program id.
const SystemProgram = "11111111111111111111111111111111"

// ParsedTransaction mirrors the jsonParsed encoding of getTransaction.
type ParsedTransaction struct {
	Slot        uint64       `json:"slot"`
	BlockTime   *int64       `json:"blockTime,omitempty"`
	Meta        *Meta        `json:"meta,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// Transaction is the signed transaction content.
type Transaction struct {
	Signatures []string `json:"signatures,omitempty"`
	Message    Message  `json:"message"`
}

// Message holds account keys and top-level instructions.
type Message struct {
	AccountKeys  []AccountKey  `json:"accountKeys,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// AccountKey is one entry of the message account list.
type AccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer,omitempty"`
	Writable bool   `json:"writable,omitempty"`
}

// Instruction is a single parsed or raw instruction. For programs the RPC
// node understands, Parsed carries structured data (for the memo program it
// is just the memo text as a JSON string); otherwise Data carries the raw
// encoded bytes.
type Instruction struct {
	Program   string          `json:"program,omitempty"`
	ProgramID string          `json:"programId,omitempty"`
	Parsed    json.RawMessage `json:"parsed,omitempty"`
	Data      string          `json:"data,omitempty"`
}

// Meta is the transaction status metadata.
type Meta struct {
	Fee               uint64                `json:"fee"`
	Err               any                   `json:"err,omitempty"`
	LogMessages       []string              `json:"logMessages,omitempty"`
	InnerInstructions []InnerInstructionSet `json:"innerInstructions,omitempty"`
	PreBalances       []uint64              `json:"preBalances,omitempty"`
	PostBalances      []uint64              `json:"postBalances,omitempty"`
}

// InnerInstructionSet groups the CPI instructions spawned by one top-level
// instruction.
type InnerInstructionSet struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// IsMemoInstruction reports whether in targets a known memo program.
func IsMemoInstruction(in Instruction) bool {
	return in.Program == "spl-memo" ||
		in.ProgramID == MemoProgramV1 || in.ProgramID == MemoProgramV2
}
