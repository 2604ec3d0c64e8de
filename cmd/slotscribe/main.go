package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.3.0"

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServeCmd(nil, stdout, stderr)
	}

	switch args[1] {
	case "serve", "server":
		return runServeCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "integrity":
		return runIntegrityCmd(args[2:], stdout, stderr)
	case "export":
		return runExportCmd(args[2:], stdout, stderr)
	case "version", "--version":
		_, _ = fmt.Fprintf(stdout, "slotscribe %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "slotscribe - tamper-evident audit trails for on-chain agents")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  slotscribe serve                      Start the HTTP API server")
	_, _ = fmt.Fprintln(w, "  slotscribe verify -signature <sig>    Verify a trace against its on-chain commitment")
	_, _ = fmt.Fprintln(w, "  slotscribe integrity -file <path>     Check a trace file's self-consistency offline")
	_, _ = fmt.Fprintln(w, "  slotscribe export -out <path>         Export stored traces as an evidence pack")
	_, _ = fmt.Fprintln(w, "  slotscribe version                    Print the version")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Exit codes: 0 = success/verified, 1 = not verified, 2 = runtime error")
}
