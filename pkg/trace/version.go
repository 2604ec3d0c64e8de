package trace

// Trace format version tags. Version selection is a pure function of payload
// shape and must stay reproducible: re-deriving the version of an archived
// trace has to yield the tag it was stored with.
const (
	// VersionSimple marks traces whose summary is at most a plain transfer.
	VersionSimple = "ss.1"
	// VersionComplex marks traces carrying any structured transaction detail.
	VersionComplex = "ss.2"
)

var complexTxTypes = map[TxType]bool{
	TxSwap:            true,
	TxStake:           true,
	TxUnstake:         true,
	TxNFTBuy:          true,
	TxNFTMint:         true,
	TxLPAdd:           true,
	TxLPRemove:        true,
	TxLendingSupply:   true,
	TxLendingBorrow:   true,
	TxLendingRepay:    true,
	TxLendingWithdraw: true,
	TxTokenMint:       true,
	TxMemeBuy:         true,
	TxMemeSell:        true,
	TxCustom:          true,
}

// SelectVersion derives the trace version from the payload: any structured
// detail object or complex type tag selects VersionComplex, otherwise
// VersionSimple.
func SelectVersion(p *TracePayload) string {
	ts := p.TxSummary
	if ts == nil {
		return VersionSimple
	}
	if ts.Swap != nil || ts.Stake != nil || ts.Unstake != nil ||
		ts.NFTBuy != nil || ts.NFTMint != nil ||
		ts.LPAdd != nil || ts.LPRemove != nil ||
		ts.Lending != nil || ts.TokenMint != nil ||
		ts.Meme != nil || ts.Custom != nil {
		return VersionComplex
	}
	if complexTxTypes[ts.Type] {
		return VersionComplex
	}
	return VersionSimple
}
