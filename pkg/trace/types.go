// Package trace defines the audit trail data model and the Recorder state
// machine that accumulates an agent run into a hashable payload.
//
// A TracePayload is the hashed subset of a Trace: nonce, intent, plan, tool
// calls and transaction summary. Field names are part of the wire format;
// the canonical form of a payload must be byte-identical across
// implementations, so json tags here are load-bearing.
package trace

// TracePayload is the structure the commitment digest is computed over.
type TracePayload struct {
	Nonce     string     `json:"nonce"`
	Intent    string     `json:"intent"`
	Plan      Plan       `json:"plan"`
	ToolCalls []ToolCall `json:"toolCalls"`
	TxSummary *TxSummary `json:"txSummary,omitempty"`
}

// Plan is the ordered, human-readable plan. Step order is semantically
// meaningful and part of the hashed payload.
type Plan struct {
	Steps []string `json:"steps"`
}

// ToolCall records one tool invocation. Exactly one of Output/Error is set.
// Timestamps are ISO-8601 strings; expected non-decreasing, not enforced.
type ToolCall struct {
	Name      string `json:"name"`
	Input     any    `json:"input"`
	Output    any    `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt"`
}

// TxType discriminates the transaction summary variants.
type TxType string

const (
	TxTransfer        TxType = "transfer"
	TxSwap            TxType = "swap"
	TxStake           TxType = "stake"
	TxUnstake         TxType = "unstake"
	TxNFTBuy          TxType = "nft_buy"
	TxNFTMint         TxType = "nft_mint"
	TxLPAdd           TxType = "lp_add"
	TxLPRemove        TxType = "lp_remove"
	TxLendingSupply   TxType = "lending_supply"
	TxLendingBorrow   TxType = "lending_borrow"
	TxLendingRepay    TxType = "lending_repay"
	TxLendingWithdraw TxType = "lending_withdraw"
	TxTokenMint       TxType = "token_mint"
	TxMemeBuy         TxType = "meme_buy"
	TxMemeSell        TxType = "meme_sell"
	TxCustom          TxType = "custom"
)

// TxSummary describes the on-chain action the agent performed. Simple
// transfers populate To/Lamports directly; every other kind carries a
// type-specific detail object selected by Type.
type TxSummary struct {
	Cluster    Cluster  `json:"cluster,omitempty"`
	FeePayer   string   `json:"feePayer,omitempty"`
	To         string   `json:"to,omitempty"`
	Lamports   *uint64  `json:"lamports,omitempty"`
	ProgramIDs []string `json:"programIds,omitempty"`
	Type       TxType   `json:"type,omitempty"`

	Swap      *SwapDetail      `json:"swap,omitempty"`
	Stake     *StakeDetail     `json:"stake,omitempty"`
	Unstake   *UnstakeDetail   `json:"unstake,omitempty"`
	NFTBuy    *NFTBuyDetail    `json:"nftBuy,omitempty"`
	NFTMint   *NFTMintDetail   `json:"nftMint,omitempty"`
	LPAdd     *LPAddDetail     `json:"lpAdd,omitempty"`
	LPRemove  *LPRemoveDetail  `json:"lpRemove,omitempty"`
	Lending   *LendingDetail   `json:"lending,omitempty"`
	TokenMint *TokenMintDetail `json:"tokenMint,omitempty"`
	Meme      *MemeDetail      `json:"meme,omitempty"`
	Custom    *CustomDetail    `json:"custom,omitempty"`
}

// SwapDetail describes a token swap. Amounts are decimal strings in the
// token's display units.
type SwapDetail struct {
	Protocol     string `json:"protocol"`
	InputToken   string `json:"inputToken"`
	OutputToken  string `json:"outputToken"`
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount,omitempty"`
}

type StakeDetail struct {
	Validator string `json:"validator"`
	Lamports  uint64 `json:"lamports"`
}

type UnstakeDetail struct {
	StakeAccount string `json:"stakeAccount"`
	Lamports     uint64 `json:"lamports,omitempty"`
}

type NFTBuyDetail struct {
	Marketplace string `json:"marketplace,omitempty"`
	Mint        string `json:"mint"`
	PriceSol    string `json:"priceSol,omitempty"`
}

type NFTMintDetail struct {
	Collection string `json:"collection,omitempty"`
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
}

type LPAddDetail struct {
	Protocol string `json:"protocol"`
	Pool     string `json:"pool"`
	TokenA   string `json:"tokenA,omitempty"`
	TokenB   string `json:"tokenB,omitempty"`
	AmountA  string `json:"amountA,omitempty"`
	AmountB  string `json:"amountB,omitempty"`
}

type LPRemoveDetail struct {
	Protocol string `json:"protocol"`
	Pool     string `json:"pool"`
	LPAmount string `json:"lpAmount,omitempty"`
}

// LendingDetail backs all four lending variants; the TxType tag carries the
// supply/borrow/repay/withdraw distinction.
type LendingDetail struct {
	Protocol string `json:"protocol"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
}

type TokenMintDetail struct {
	Mint     string `json:"mint"`
	Amount   string `json:"amount,omitempty"`
	Decimals int    `json:"decimals,omitempty"`
}

type MemeDetail struct {
	Mint      string `json:"mint"`
	AmountSol string `json:"amountSol,omitempty"`
}

type CustomDetail struct {
	Program     string `json:"program,omitempty"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// OnChainInfo is attached after chain submission.
type OnChainInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot,omitempty"`
	Status    string `json:"status,omitempty"`
	Memo      string `json:"memo,omitempty"`
}

// VerifiedResult is the one-time verification seal written back into a
// stored trace after a successful on-chain verification. It is keyed by
// (PayloadHash, Signature): a seal for one signature must never be served
// as verified for a different signature.
type VerifiedResult struct {
	OK           bool     `json:"ok"`
	Signature    string   `json:"signature"`
	ExpectedHash string   `json:"expectedHash,omitempty"`
	ComputedHash string   `json:"computedHash,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
	VerifiedAt   string   `json:"verifiedAt,omitempty"`
}

// CachedTxSummary caches what the verifier saw on chain, stored alongside
// the seal so later reads need no RPC access.
type CachedTxSummary struct {
	Signature   string   `json:"signature"`
	Slot        uint64   `json:"slot,omitempty"`
	Fee         uint64   `json:"fee,omitempty"`
	Memo        string   `json:"memo,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Lamports    *uint64  `json:"lamports,omitempty"`
	ProgramIDs  []string `json:"programIds,omitempty"`
}

// Trace is the persisted, exchanged artifact: the payload plus its digest
// and optional on-chain / verification metadata.
type Trace struct {
	Version         string           `json:"version"`
	CreatedAt       string           `json:"createdAt"`
	Payload         TracePayload     `json:"payload"`
	HashedPayload   *TracePayload    `json:"hashedPayload,omitempty"`
	PayloadHash     string           `json:"payloadHash"`
	OnChain         *OnChainInfo     `json:"onChain,omitempty"`
	VerifiedResult  *VerifiedResult  `json:"verifiedResult,omitempty"`
	CachedTxSummary *CachedTxSummary `json:"cachedTxSummary,omitempty"`
}
