package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/slotscribe/slotscribe/pkg/integrity"
	"github.com/slotscribe/slotscribe/pkg/trace"
)

// runIntegrityCmd checks a trace file's self-consistency without touching
// the chain.
//
// Exit codes:
//
//	0 = consistent
//	1 = integrity check failed
//	2 = runtime error
func runIntegrityCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("integrity", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file       string
		jsonOutput bool
	)
	cmd.StringVar(&file, "file", "", "Path to a trace JSON file (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -file is required")
		return 2
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read %s: %v\n", file, err)
		return 2
	}
	var t trace.Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %s is not a trace: %v\n", file, err)
		return 2
	}

	res := integrity.Validate(&t)

	if jsonOutput {
		data, _ := json.MarshalIndent(res, "", "  ")
		_, _ = fmt.Fprintln(stdout, string(data))
	} else if res.OK {
		_, _ = fmt.Fprintln(stdout, "✅ Trace integrity check PASSED")
		_, _ = fmt.Fprintf(stdout, "Payload hash: %s\n", res.ComputedHash)
	} else {
		_, _ = fmt.Fprintln(stdout, "❌ Trace integrity check FAILED")
		_, _ = fmt.Fprintf(stdout, "  - %s\n", res.Error)
		if res.ComputedHash != "" {
			_, _ = fmt.Fprintf(stdout, "Computed hash: %s\n", res.ComputedHash)
		}
	}

	if !res.OK {
		return 1
	}
	return 0
}
