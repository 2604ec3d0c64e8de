// Package integrity performs offline self-consistency checks on traces. It
// answers one question: does the trace body still match the digest it claims,
// without consulting the chain at all.
package integrity

import (
	"github.com/slotscribe/slotscribe/pkg/canonical"
	"github.com/slotscribe/slotscribe/pkg/trace"
)

// Result reports the outcome of an offline trace check.
type Result struct {
	OK           bool   `json:"ok"`
	ComputedHash string `json:"computedHash,omitempty"`
	Error        string `json:"error,omitempty"`
}

func failure(reason string) Result {
	return Result{OK: false, Error: reason}
}

// Validate checks that a trace is internally consistent: the frozen
// hashedPayload snapshot canonicalizes to the same bytes as the live payload,
// and the stored payloadHash matches the digest recomputed from the payload.
//
// A trace without a hashedPayload snapshot is checked against the payload
// alone. A trace without a payloadHash always fails.
func Validate(t *trace.Trace) Result {
	if t == nil {
		return failure("trace is nil")
	}
	if t.PayloadHash == "" {
		return failure("trace has no payloadHash")
	}

	payloadCanon, err := canonical.Canonicalize(t.Payload)
	if err != nil {
		return failure("payload cannot be canonicalized: " + err.Error())
	}

	if t.HashedPayload != nil {
		snapCanon, err := canonical.Canonicalize(t.HashedPayload)
		if err != nil {
			return failure("hashedPayload cannot be canonicalized: " + err.Error())
		}
		if snapCanon != payloadCanon {
			return failure("payload/hashedPayload mismatch")
		}
	}

	computed := canonical.SHA256Hex([]byte(payloadCanon))
	if !canonical.HashEqual(computed, t.PayloadHash) {
		return Result{
			OK:           false,
			ComputedHash: computed,
			Error:        "payloadHash does not match payload",
		}
	}
	return Result{OK: true, ComputedHash: computed}
}
