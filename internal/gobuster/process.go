package gobuster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Outcome is the result of running one candidate.
type Outcome struct {
	ExitCode int
	Lines    []string // stdout and stderr interleaved in emission order
	RawText  string
	Duration time.Duration
}

// Executor runs a single candidate to completion.
type Executor interface {
	Execute(ctx context.Context, c Candidate) (Outcome, error)
}

// ProcessExecutor runs candidates as child processes.
type ProcessExecutor struct {
	// Stdin is connected to the child when the wordlist is "-".
	// Defaults to os.Stdin.
	Stdin io.Reader
	// Dir and Env are passed through to the child. Env entries are appended
	// to the current environment.
	Dir string
	Env []string
}

// Execute spawns c.Args, waits for it to exit and returns its merged output.
// A non-zero exit is not an error; only failures to start or wait are.
func (p *ProcessExecutor) Execute(ctx context.Context, c Candidate) (Outcome, error) {
	if len(c.Args) == 0 {
		return Outcome{}, fmt.Errorf("%w: empty argument vector", ErrInvalidRequest)
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	if p.Dir != "" {
		cmd.Dir = p.Dir
	}
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	if readsStdin(c.Args) {
		cmd.Stdin = p.Stdin
		if cmd.Stdin == nil {
			cmd.Stdin = os.Stdin
		}
	} else {
		// Own process group so cancellation also reaps anything gobuster forks.
		// Skipped for stdin wordlists: a background group reading a TTY is stopped.
		setProcessGroup(cmd)
	}
	cmd.WaitDelay = 5 * time.Second

	// Same writer for both streams keeps writes serialized in emission order.
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	out := Outcome{
		RawText:  buf.String(),
		Duration: time.Since(start),
	}
	out.Lines = splitLines(out.RawText)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("running %s: %w", c.Args[0], ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("running %s: %w", c.Args[0], err)
	}
	return out, nil
}

func readsStdin(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-w" && args[i+1] == StdinWordlist {
			return true
		}
	}
	return false
}

// splitLines splits captured text on "\r\n", "\n" and a bare "\r", so
// progress updates gobuster redraws with carriage returns land on lines of
// their own instead of being glued onto the next result. A trailing line
// break does not yield an empty final line; interior blank lines are kept.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
