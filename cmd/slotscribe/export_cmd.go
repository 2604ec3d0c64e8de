package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/slotscribe/slotscribe/pkg/audit"
	"github.com/slotscribe/slotscribe/pkg/store"
)

// runExportCmd bundles stored traces into a checksummed evidence pack.
//
// Exit codes: 0 = pack written, 2 = runtime error.
func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		out   string
		limit int
	)
	cmd.StringVar(&out, "out", "evidence-pack.zip", "Output zip path")
	cmd.IntVar(&limit, "limit", 100, "Maximum number of traces to export")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	st, err := store.NewStoreFromEnv(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: storage setup failed: %v\n", err)
		return 2
	}

	pack, checksum, err := audit.NewExporter(st).GeneratePack(ctx, audit.ExportRequest{Limit: limit})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: export failed: %v\n", err)
		return 2
	}
	if err := os.WriteFile(out, pack, 0o644); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot write %s: %v\n", out, err)
		return 2
	}

	_, _ = fmt.Fprintf(stdout, "Evidence pack written to %s\n", out)
	_, _ = fmt.Fprintf(stdout, "sha256: %s\n", checksum)
	return 0
}
