// Package canonical provides deterministic JSON canonicalization and the
// SHA-256 digest primitive used for trace commitments.
//
// The canonical form follows RFC 8785 (JSON Canonicalization Scheme): object
// keys sorted by UTF-16 code units, ECMAScript number serialization, no
// whitespace, no HTML escaping. Two JSON-representable values are canonically
// equal iff their canonical strings are byte-identical, which makes
// sha256(canonical(v)) a stable cross-implementation commitment.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
)

// CanonicalizationError reports a value that has no canonical form:
// a non-finite number or a type the JSON serializer cannot represent.
// It is always a programming error, never a recoverable condition.
type CanonicalizationError struct {
	Reason string
	Err    error
}

func (e *CanonicalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("canonicalize: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("canonicalize: %s", e.Reason)
}

func (e *CanonicalizationError) Unwrap() error { return e.Err }

// Canonicalize returns the canonical JSON string for v.
//
// v is first marshaled with HTML escaping disabled (RFC 8785 strings keep
// `<`, `>` and `&` literal), then transformed into canonical form. NaN and
// ±Inf fail at the marshal step; -0 normalizes to 0 during transformation.
func Canonicalize(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", &CanonicalizationError{Reason: "value is not JSON-serializable", Err: err}
	}

	out, err := jcs.Transform(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
	if err != nil {
		return "", &CanonicalizationError{Reason: "canonical transform failed", Err: err}
	}
	return string(out), nil
}

// CanonicalizeRaw canonicalizes an already-serialized JSON document.
func CanonicalizeRaw(raw json.RawMessage) (string, error) {
	out, err := jcs.Transform(raw)
	if err != nil {
		return "", &CanonicalizationError{Reason: "canonical transform failed", Err: err}
	}
	return string(out), nil
}

// SHA256Hex computes the SHA-256 digest of data as 64 lowercase hex chars.
// This is the only hash primitive used system-wide.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalHash returns SHA256Hex(Canonicalize(v)).
func CanonicalHash(v any) (string, error) {
	s, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex([]byte(s)), nil
}

// HashEqual compares two hex digests case-insensitively.
func HashEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
