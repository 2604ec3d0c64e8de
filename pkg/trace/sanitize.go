package trace

import (
	"encoding/json"
	"fmt"
)

const (
	// maxOutputChars is the ceiling on serialized tool output kept verbatim.
	maxOutputChars = 100000
	// previewChars is how much of an oversized output survives truncation.
	previewChars = 1000
	// stringifyChars bounds the stringified form of unserializable output.
	stringifyChars = 500
)

// SanitizeOutput normalizes a tool output for inclusion in the hashed
// payload. The output goes through a JSON round trip; oversized outputs are
// replaced by a truncation stand-in, unserializable ones by a typed string
// preview. The stand-ins are themselves plain JSON so the payload always
// canonicalizes.
func SanitizeOutput(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{
			"_type":   fmt.Sprintf("%T", v),
			"_string": truncate(fmt.Sprint(v), stringifyChars),
		}
	}
	if len([]rune(string(raw))) > maxOutputChars {
		return map[string]any{
			"_truncated": true,
			"preview":    truncate(string(raw), previewChars),
		}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{
			"_type":   fmt.Sprintf("%T", v),
			"_string": truncate(string(raw), stringifyChars),
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
