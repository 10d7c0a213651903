//go:build !windows

package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *gobuster.Result {
	return &gobuster.Result{
		ID:             "abc",
		Request:        gobuster.Request{Mode: gobuster.ModeDNS, Target: "example.com"},
		State:          gobuster.StateSucceeded,
		ExitCode:       1,
		Lines:          []string{"Found: www.example.com"},
		InvocationUsed: "legacy-positional",
	}
}

func TestRun_PlaceholdersAndStdin(t *testing.T) {
	dir := t.TempDir()
	args := filepath.Join(dir, "args")
	payload := filepath.Join(dir, "payload.json")

	r := NewRunner("echo {mode} {target} {exit} {state} {invocation} {id} > "+args+"; cat > "+payload, true)
	r.Run(context.Background(), testResult())

	got, err := os.ReadFile(args)
	require.NoError(t, err)
	assert.Equal(t, "dns example.com 1 succeeded legacy-positional abc\n", string(got))

	data, err := os.ReadFile(payload)
	require.NoError(t, err)
	var entry output.Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "example.com", entry.Target)
	assert.Equal(t, []string{"Found: www.example.com"}, entry.Lines)
}

func TestRun_FailureIsReported(t *testing.T) {
	var stderr bytes.Buffer
	r := NewRunner("exit 3", false)
	r.stderr = &stderr
	r.Run(context.Background(), testResult())
	assert.Contains(t, stderr.String(), "[hook] error")
}

func TestRun_Timeout(t *testing.T) {
	var stderr bytes.Buffer
	r := NewRunner("sleep 5", false)
	r.stderr = &stderr
	r.timeout = 100 * time.Millisecond

	start := time.Now()
	r.Run(context.Background(), testResult())
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Contains(t, stderr.String(), "[hook] error")
}
