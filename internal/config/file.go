package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when an explicitly requested config file
// does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when a config file cannot be parsed.
var ErrInvalidConfig = errors.New("invalid config file")

// File mirrors the flags that may be defaulted from YAML. Keys use the
// long flag names.
type File struct {
	Mode          string   `yaml:"mode"`
	Wordlist      string   `yaml:"wordlist"`
	Binary        string   `yaml:"binary"`
	Threads       int      `yaml:"threads"`
	Extra         []string `yaml:"extra"`
	Invocation    string   `yaml:"invocation"`
	Timeout       string   `yaml:"timeout"`
	SuccessOnly   *bool    `yaml:"success-only"`
	IncludeStatus []int    `yaml:"include-status"`
	Match         string   `yaml:"match"`
	Exclude       string   `yaml:"exclude"`
	Format        string   `yaml:"format"`
	Quiet         *bool    `yaml:"quiet"`
	NoColor       *bool    `yaml:"no-color"`
	OnResult      string   `yaml:"on-result"`
}

// DefaultPath returns $XDG_CONFIG_HOME/gobauto/config.yaml, falling back to
// ~/.config/gobauto/config.yaml. It returns "" if neither can be derived.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gobauto", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gobauto", "config.yaml")
}

// LoadFile reads and parses a YAML config file.
// Returns ErrConfigNotFound if the file doesn't exist.
// Returns ErrInvalidConfig if the file is malformed.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses config YAML data.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if f.Timeout != "" {
		if _, err := time.ParseDuration(f.Timeout); err != nil {
			return nil, fmt.Errorf("%w: timeout: %v", ErrInvalidConfig, err)
		}
	}
	return &f, nil
}

// Apply copies every value set in f into opts unless changed reports that
// the corresponding flag was given on the command line.
func (f *File) Apply(opts *Options, changed func(flag string) bool) {
	set := func(flag string) bool { return changed == nil || !changed(flag) }

	if f.Mode != "" && set("mode") {
		opts.Mode = f.Mode
	}
	if f.Wordlist != "" && set("wordlist") {
		opts.WordlistPath = f.Wordlist
	}
	if f.Binary != "" && set("binary") {
		opts.Binary = f.Binary
	}
	if f.Threads != 0 && set("threads") {
		opts.Threads = f.Threads
	}
	if len(f.Extra) > 0 && set("extra") {
		opts.ExtraArgs = append([]string(nil), f.Extra...)
	}
	if f.Invocation != "" && set("invocation") {
		opts.Invocation = f.Invocation
	}
	if f.Timeout != "" && set("timeout") {
		// Validated in ParseFile.
		opts.Timeout, _ = time.ParseDuration(f.Timeout)
	}
	if f.SuccessOnly != nil && set("success-only") {
		opts.SuccessOnly = *f.SuccessOnly
	}
	if len(f.IncludeStatus) > 0 && set("include-status") {
		opts.IncludeStatus = append([]int(nil), f.IncludeStatus...)
	}
	if f.Match != "" && set("match") {
		opts.Match = f.Match
	}
	if f.Exclude != "" && set("exclude") {
		opts.Exclude = f.Exclude
	}
	if f.Format != "" && set("format") {
		opts.OutputFormat = f.Format
	}
	if f.Quiet != nil && set("quiet") {
		opts.Quiet = *f.Quiet
	}
	if f.NoColor != nil && set("no-color") {
		opts.NoColor = *f.NoColor
	}
	if f.OnResult != "" && set("on-result") {
		opts.OnResultCmd = f.OnResult
	}
}

// Resolve loads the config file named by opts.ConfigFile, or the default
// path when that is empty, and applies it. A missing default file is not an
// error; a missing explicit file is. A status allow-list from either source
// turns on success-only filtering.
func Resolve(opts *Options, changed func(flag string) bool) (string, error) {
	path, err := resolve(opts, changed)
	if err != nil {
		return "", err
	}
	if len(opts.IncludeStatus) > 0 {
		opts.SuccessOnly = true
	}
	return path, nil
}

func resolve(opts *Options, changed func(flag string) bool) (string, error) {
	path := opts.ConfigFile
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return "", nil
		}
	}
	f, err := LoadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, ErrConfigNotFound) {
			return "", nil
		}
		return "", err
	}
	f.Apply(opts, changed)
	return path, nil
}
