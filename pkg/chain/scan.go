package chain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slotscribe/slotscribe/pkg/memo"
)

// memoDecodeStrategy extracts memo text from an instruction. Strategies are
// tried in order; each failure is an explicit error, never a value that
// looks like success.
type memoDecodeStrategy struct {
	name string
	fn   func(Instruction) (string, error)
}

var memoDecodeStrategies = []memoDecodeStrategy{
	{"parsed-string", decodeParsedString},
	{"base64-data", decodeBase64Data},
	{"raw-data", decodeRawData},
}

func decodeParsedString(in Instruction) (string, error) {
	if len(in.Parsed) == 0 {
		return "", fmt.Errorf("no parsed field")
	}
	var s string
	if err := json.Unmarshal(in.Parsed, &s); err != nil {
		return "", fmt.Errorf("parsed field is not a string: %w", err)
	}
	return s, nil
}

func decodeBase64Data(in Instruction) (string, error) {
	if in.Data == "" {
		return "", fmt.Errorf("no data field")
	}
	raw, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return "", fmt.Errorf("data is not base64: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("decoded data is not valid UTF-8")
	}
	return string(raw), nil
}

func decodeRawData(in Instruction) (string, error) {
	if in.Data == "" {
		return "", fmt.Errorf("no data field")
	}
	return in.Data, nil
}

func memoText(in Instruction) (string, bool) {
	for _, s := range memoDecodeStrategies {
		if text, err := s.fn(in); err == nil {
			return text, true
		}
	}
	return "", false
}

// FindMemo extracts the authoritative memo string from a parsed transaction.
//
// Scan order: top-level memo-program instructions, then inner (CPI)
// instructions, then a fallback substring scan of the log lines. Among the
// candidates a tag-matching commitment is preferred over other memo text;
// two different valid commitments fail with memo.ErrAmbiguousMemo. Returns
// "" when the transaction carries no memo at all.
func FindMemo(tx *ParsedTransaction) (string, error) {
	if tx == nil {
		return "", nil
	}

	var candidates []string
	if tx.Transaction != nil {
		for _, in := range tx.Transaction.Message.Instructions {
			if !IsMemoInstruction(in) {
				continue
			}
			if text, ok := memoText(in); ok {
				candidates = append(candidates, text)
			}
		}
	}
	if tx.Meta != nil {
		for _, set := range tx.Meta.InnerInstructions {
			for _, in := range set.Instructions {
				if !IsMemoInstruction(in) {
					continue
				}
				if text, ok := memoText(in); ok {
					candidates = append(candidates, text)
				}
			}
		}
	}

	if len(candidates) == 0 && tx.Meta != nil {
		for _, line := range tx.Meta.LogMessages {
			if !memo.ContainsTag(line) {
				continue
			}
			candidates = append(candidates, extractFromLog(line))
		}
	}

	return memo.Select(candidates)
}

// extractFromLog recovers the memo text from a log line such as
// `Program log: Memo (len 76): "SS1 payload=..."`.
func extractFromLog(line string) string {
	if first := strings.Index(line, `"`); first >= 0 {
		if last := strings.LastIndex(line, `"`); last > first {
			quoted := line[first+1 : last]
			if memo.ContainsTag(quoted) {
				return quoted
			}
		}
	}
	for _, tag := range []string{memo.TagCurrent, memo.TagLegacy} {
		if i := strings.Index(line, tag); i >= 0 {
			return strings.TrimSpace(line[i:])
		}
	}
	return line
}
