// Package toolcheck reports whether gobuster is installed and which version
// it claims to be. It is diagnostic only and never picks an argument dialect.
package toolcheck

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// VersionTimeout bounds each version probe.
const VersionTimeout = 500 * time.Millisecond

// Status describes one binary.
type Status struct {
	Binary    string `json:"binary"`
	Path      string `json:"path,omitempty"`
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

// Checker inspects binaries on PATH.
type Checker struct {
	lookPath func(string) (string, error)
	timeout  time.Duration
}

// NewChecker creates a Checker using exec.LookPath.
func NewChecker() *Checker {
	return &Checker{lookPath: exec.LookPath, timeout: VersionTimeout}
}

// Check resolves bin and, if found, probes its version.
func (c *Checker) Check(ctx context.Context, bin string) Status {
	s := Status{Binary: bin}
	path, err := c.lookPath(bin)
	if err != nil {
		return s
	}
	s.Path = path
	s.Installed = true
	s.Version = c.versionFast(ctx, path)
	return s
}

// versionFast tries "version" (gobuster 3+) then "--version", keeping the
// first line of whichever succeeds.
func (c *Checker) versionFast(ctx context.Context, bin string) string {
	for _, arg := range []string{"version", "--version"} {
		if v := c.probe(ctx, bin, arg); v != "" {
			return v
		}
	}
	return ""
}

func (c *Checker) probe(ctx context.Context, bin, arg string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, arg)
	cmd.WaitDelay = c.timeout
	out, err := cmd.Output()
	if err != nil || len(out) == 0 {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		v := strings.TrimSpace(line)
		if v == "" {
			continue
		}
		if len(v) > 60 {
			return v[:60] + "..."
		}
		return v
	}
	return ""
}
