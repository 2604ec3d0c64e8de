package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// traceUploadSchema validates the wire shape of an uploaded trace before it
// is unmarshaled. Structural rejects (missing version/payload/payloadHash,
// malformed digest) happen here; hash verification happens afterwards on the
// typed value.
const traceUploadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "payload", "payloadHash"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "createdAt": {"type": "string"},
    "payload": {
      "type": "object",
      "required": ["nonce", "intent", "plan", "toolCalls"],
      "properties": {
        "nonce": {"type": "string"},
        "intent": {"type": "string"},
        "plan": {
          "type": "object",
          "required": ["steps"],
          "properties": {"steps": {"type": "array", "items": {"type": "string"}}}
        },
        "toolCalls": {"type": "array"}
      }
    },
    "hashedPayload": {"type": "object"},
    "payloadHash": {"type": "string", "pattern": "^[a-fA-F0-9]{64}$"},
    "onChain": {"type": "object"}
  }
}`

func compileTraceSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const schemaURL = "https://slotscribe.schemas.local/trace.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(traceUploadSchema)); err != nil {
		return nil, fmt.Errorf("api: trace schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("api: trace schema compile failed: %w", err)
	}
	return compiled, nil
}
