// Package memo encodes and decodes the compact on-chain commitment string
// that anchors a trace digest inside a transaction memo.
//
// Wire format (bit-exact, UTF-8, no surrounding whitespace):
//
//	"SS1 payload=<64 lowercase hex chars>"
//
// The legacy "SLOTSCRIBE" tag is accepted on decode for traces anchored by
// older releases; only the current tag is emitted.
package memo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// TagCurrent is the protocol tag written into new memos.
	TagCurrent = "SS1"
	// TagLegacy is the original tag, decode-only.
	TagLegacy = "SLOTSCRIBE"
)

var commitmentPattern = regexp.MustCompile(`^(` + TagCurrent + `|` + TagLegacy + `)\s+payload=([a-fA-F0-9]{64})$`)

// ErrAmbiguousMemo reports a transaction carrying two different valid
// commitments. Picking one silently would let an attacker anchor a decoy
// hash next to the real one, so this is an explicit failure.
var ErrAmbiguousMemo = errors.New("memo: transaction carries multiple conflicting commitments")

// Decoded is the result of decoding a raw memo string. PayloadHash is empty
// when the text is not a commitment; that is a soft "not found" signal, not
// an error.
type Decoded struct {
	PayloadHash string
	Raw         string
}

// Encode produces the commitment memo for a payload digest.
func Encode(payloadHash string) string {
	return fmt.Sprintf("%s payload=%s", TagCurrent, strings.ToLower(payloadHash))
}

// Decode matches raw against the commitment pattern. The hash, when present,
// is lowercased. Never returns an error: non-matching input simply yields a
// Decoded with only Raw set.
func Decode(raw string) Decoded {
	m := commitmentPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Decoded{Raw: raw}
	}
	return Decoded{PayloadHash: strings.ToLower(m[2]), Raw: raw}
}

// IsCommitment reports whether raw parses as a commitment memo.
func IsCommitment(raw string) bool {
	return Decode(raw).PayloadHash != ""
}

// ContainsTag reports whether s contains either protocol tag, used for the
// log-line fallback scan where the memo text is embedded in a longer line.
func ContainsTag(s string) bool {
	return strings.Contains(s, TagCurrent) || strings.Contains(s, TagLegacy)
}

// Select picks the authoritative memo among candidates found in one
// transaction: a tag-matching commitment wins over any other memo text; with
// no commitment present the first candidate is returned. Two *different*
// valid commitments are ambiguous input and fail with ErrAmbiguousMemo.
func Select(candidates []string) (string, error) {
	var chosen string
	var chosenHash string
	for _, c := range candidates {
		d := Decode(c)
		if d.PayloadHash == "" {
			continue
		}
		if chosenHash != "" && d.PayloadHash != chosenHash {
			return "", ErrAmbiguousMemo
		}
		if chosenHash == "" {
			chosen = c
			chosenHash = d.PayloadHash
		}
	}
	if chosenHash != "" {
		return chosen, nil
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return "", nil
}
