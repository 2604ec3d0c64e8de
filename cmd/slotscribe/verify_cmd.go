package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/slotscribe/slotscribe/pkg/chain"
	"github.com/slotscribe/slotscribe/pkg/store"
	"github.com/slotscribe/slotscribe/pkg/trace"
	"github.com/slotscribe/slotscribe/pkg/verify"
)

// runVerifyCmd cross-checks a stored trace against its on-chain commitment.
//
// Exit codes:
//
//	0 = verified
//	1 = not verified (structured reasons printed)
//	2 = runtime error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		cluster    string
		signature  string
		hash       string
		rpcURL     string
		jsonOutput bool
	)

	cmd.StringVar(&cluster, "cluster", "devnet", "Cluster: mainnet, devnet, testnet or localnet")
	cmd.StringVar(&signature, "signature", "", "Transaction signature to verify against")
	cmd.StringVar(&hash, "hash", "", "Payload digest of the stored trace")
	cmd.StringVar(&rpcURL, "rpc-url", "", "RPC endpoint override")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the full response as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if signature == "" && hash == "" {
		_, _ = fmt.Fprintln(stderr, "Error: at least one of -signature or -hash is required")
		return 2
	}

	parsedCluster, err := trace.ParseCluster(cluster)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	st, err := store.NewStoreFromEnv(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: storage setup failed: %v\n", err)
		return 2
	}

	verifier := verify.NewVerifier(st, func(c trace.Cluster, override string) (chain.Client, error) {
		return chain.NewClusterClient(c, override)
	})

	resp, err := verifier.Verify(ctx, verify.Request{
		Cluster:   parsedCluster,
		Signature: signature,
		Hash:      hash,
		RPCURL:    rpcURL,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: verification could not complete: %v\n", err)
		return 2
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(resp, "", "  ")
		_, _ = fmt.Fprintln(stdout, string(data))
	} else if resp.Result.OK {
		_, _ = fmt.Fprintln(stdout, "✅ Trace verification PASSED")
		_, _ = fmt.Fprintf(stdout, "Payload hash: %s\n", resp.Result.ComputedHash)
		if resp.Slot > 0 {
			_, _ = fmt.Fprintf(stdout, "Slot: %d\n", resp.Slot)
		}
	} else {
		_, _ = fmt.Fprintln(stdout, "❌ Trace verification FAILED")
		for _, reason := range resp.Result.Reasons {
			_, _ = fmt.Fprintf(stdout, "  - %s\n", reason)
		}
		if resp.Result.ExpectedHash != "" {
			_, _ = fmt.Fprintf(stdout, "Expected hash: %s\n", resp.Result.ExpectedHash)
		}
		if resp.Result.ComputedHash != "" {
			_, _ = fmt.Fprintf(stdout, "Computed hash: %s\n", resp.Result.ComputedHash)
		}
	}

	if !resp.Result.OK {
		return 1
	}
	return 0
}
