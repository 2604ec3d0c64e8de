package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

func writeTraceFile(t *testing.T, tamper func(*trace.Trace)) string {
	t.Helper()
	r := trace.NewRecorder("cli test")
	require.NoError(t, r.AddPlanSteps("one"))
	_, err := r.FinalizePayloadHash()
	require.NoError(t, err)
	tr, err := r.BuildTrace()
	require.NoError(t, err)
	if tamper != nil {
		tamper(tr)
	}

	raw, err := json.Marshal(tr)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "frobnicate"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "Unknown command")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "version"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "slotscribe")
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "help"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "Usage:")
}

func TestIntegrityCmd_Pass(t *testing.T) {
	path := writeTraceFile(t, nil)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "integrity", "-file", path}, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "PASSED")
}

func TestIntegrityCmd_Tampered(t *testing.T) {
	path := writeTraceFile(t, func(tr *trace.Trace) {
		tr.Payload.Intent = "tampered intent"
	})

	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "integrity", "-file", path}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stdout.String(), "FAILED")
}

func TestIntegrityCmd_JSONOutput(t *testing.T) {
	path := writeTraceFile(t, nil)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "integrity", "-file", path, "-json"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	require.Equal(t, true, res["ok"])
}

func TestIntegrityCmd_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "integrity"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "-file is required")
}

func TestVerifyCmd_RequiresTarget(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "verify"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.True(t, strings.Contains(stderr.String(), "-signature") ||
		strings.Contains(stderr.String(), "-hash"))
}

func TestVerifyCmd_InvalidCluster(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "verify", "-cluster", "moonnet", "-signature", "sig"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "invalid cluster")
}

func TestExportCmd(t *testing.T) {
	t.Setenv("TRACE_STORAGE_TYPE", "fs")
	t.Setenv("DATA_DIR", t.TempDir())
	out := filepath.Join(t.TempDir(), "pack.zip")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"slotscribe", "export", "-out", out, "-limit", "10"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "sha256:")
	_, err := os.Stat(out)
	require.NoError(t, err)
}
