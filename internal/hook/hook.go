package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/output"
)

// DefaultTimeout bounds each hook invocation.
const DefaultTimeout = 30 * time.Second

// Runner executes a shell command for each completed scan.
type Runner struct {
	cmd     string
	quiet   bool
	timeout time.Duration
	stderr  io.Writer
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet, timeout: DefaultTimeout, stderr: os.Stderr}
}

// Run executes the hook command with the result as JSON on stdin.
// Errors are reported but never affect the scan result.
func (r *Runner) Run(ctx context.Context, result *gobuster.Result) {
	data, err := json.Marshal(output.NewEntry(result))
	if err != nil {
		fmt.Fprintf(r.stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(result))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = r.stderr
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(r.stderr, "[hook] error: %v\n", err)
		}
		return
	}
	if len(out) > 0 && !r.quiet {
		fmt.Fprintf(r.stderr, "[hook] %s", out)
	}
}

// expand replaces {target}, {mode}, {exit}, {state}, {invocation} and {id}.
func (r *Runner) expand(result *gobuster.Result) string {
	return strings.NewReplacer(
		"{target}", result.Request.Target,
		"{mode}", string(result.Request.Mode),
		"{exit}", strconv.Itoa(result.ExitCode),
		"{state}", string(result.State),
		"{invocation}", result.InvocationUsed,
		"{id}", result.ID,
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
