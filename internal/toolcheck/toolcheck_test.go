//go:build !windows

package toolcheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gobuster")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func checkerFor(path string) *Checker {
	return &Checker{
		lookPath: func(string) (string, error) { return path, nil },
		timeout:  VersionTimeout,
	}
}

func TestCheck_NotInstalled(t *testing.T) {
	c := &Checker{lookPath: func(string) (string, error) { return "", errors.New("not found") }}
	s := c.Check(context.Background(), "gobuster")
	assert.False(t, s.Installed)
	assert.Empty(t, s.Path)
}

func TestCheck_VersionSubcommand(t *testing.T) {
	path := script(t, `[ "$1" = version ] && { echo; echo "3.6.0"; exit 0; }; exit 2`)
	s := checkerFor(path).Check(context.Background(), "gobuster")
	assert.True(t, s.Installed)
	assert.Equal(t, path, s.Path)
	assert.Equal(t, "3.6.0", s.Version)
}

func TestCheck_FallsBackToVersionFlag(t *testing.T) {
	path := script(t, `[ "$1" = --version ] && { echo "gobuster 2.0.1"; exit 0; }; echo "unknown"; exit 1`)
	s := checkerFor(path).Check(context.Background(), "gobuster")
	assert.Equal(t, "gobuster 2.0.1", s.Version)
}

func TestCheck_SlowVersionIsDropped(t *testing.T) {
	path := script(t, "exec sleep 5\n")
	start := time.Now()
	s := checkerFor(path).Check(context.Background(), "gobuster")
	assert.True(t, s.Installed)
	assert.Empty(t, s.Version)
	assert.Less(t, time.Since(start), 4*time.Second)
}
