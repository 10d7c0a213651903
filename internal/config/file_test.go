package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
mode: dns
wordlist: /opt/lists/subdomains.txt
threads: 50
extra: ["--delay", "100ms"]
invocation: flag
timeout: 2m
success-only: true
include-status: [200, 403]
format: json
no-color: true
`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dns", f.Mode)
	assert.Equal(t, 50, f.Threads)
	assert.Equal(t, []string{"--delay", "100ms"}, f.Extra)
	require.NotNil(t, f.SuccessOnly)
	assert.True(t, *f.SuccessOnly)
	assert.Nil(t, f.Quiet)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = LoadFile(writeConfig(t, "threads: [not, an, int]\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadFile(writeConfig(t, "unknown-key: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadFile(writeConfig(t, "timeout: soon\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseFile_Empty(t *testing.T) {
	f, err := ParseFile(nil)
	require.NoError(t, err)
	assert.Equal(t, File{}, *f)
}

func TestApply_FlagsWin(t *testing.T) {
	f, err := ParseFile([]byte("mode: vhost\nthreads: 5\ntimeout: 30s\nquiet: true\n"))
	require.NoError(t, err)

	opts := Options{Mode: "dir", Threads: 20}
	changed := map[string]bool{"mode": true}
	f.Apply(&opts, func(name string) bool { return changed[name] })

	assert.Equal(t, "dir", opts.Mode, "explicit flag kept")
	assert.Equal(t, 5, opts.Threads)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.True(t, opts.Quiet)
}

func TestResolve(t *testing.T) {
	t.Run("missing default is ignored", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		opts := Options{Threads: 20}
		path, err := Resolve(&opts, nil)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, 20, opts.Threads)
	})

	t.Run("default path is loaded", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "gobauto"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "gobauto", "config.yaml"), []byte("threads: 7\n"), 0o644))

		opts := Options{Threads: 20}
		path, err := Resolve(&opts, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "gobauto", "config.yaml"), path)
		assert.Equal(t, 7, opts.Threads)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		opts := Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}
		_, err := Resolve(&opts, nil)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("allow-list from config implies success-only", func(t *testing.T) {
		opts := Options{ConfigFile: writeConfig(t, "include-status: [200, 403]\n")}
		_, err := Resolve(&opts, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{200, 403}, opts.IncludeStatus)
		assert.True(t, opts.SuccessOnly)
	})

	t.Run("allow-list from flag implies success-only", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		opts := Options{IncludeStatus: []int{200}}
		_, err := Resolve(&opts, func(flag string) bool { return flag == "include-status" })
		require.NoError(t, err)
		assert.True(t, opts.SuccessOnly)
	})

	t.Run("no allow-list leaves success-only alone", func(t *testing.T) {
		opts := Options{ConfigFile: writeConfig(t, "threads: 5\n")}
		_, err := Resolve(&opts, nil)
		require.NoError(t, err)
		assert.False(t, opts.SuccessOnly)
	})
}
