package gobuster

import (
	"fmt"
	"slices"
)

// Mode is the gobuster enumeration mode.
type Mode string

const (
	ModeDir   Mode = "dir"
	ModeDNS   Mode = "dns"
	ModeVHost Mode = "vhost"
)

// Dialect identifies one of the two argument syntaxes gobuster releases accept.
type Dialect string

const (
	// DialectLegacy places the mode as a bare subcommand: gobuster dir -u ...
	DialectLegacy Dialect = "legacy-positional"
	// DialectFlag selects the mode with a flag: gobuster -m dir -u ...
	DialectFlag Dialect = "flag-based"
)

// Preference controls which dialects are tried.
type Preference string

const (
	PreferAuto   Preference = "auto"
	PreferLegacy Preference = "legacy"
	PreferFlag   Preference = "flag"
)

// StdinWordlist tells gobuster to read the wordlist from standard input.
const StdinWordlist = "-"

// DefaultThreads matches gobuster's own default.
const DefaultThreads = 20

// DefaultStatusAllowList is used when a request leaves StatusAllowList empty.
var DefaultStatusAllowList = []int{200, 204, 301, 302, 307, 403}

// Request describes one scan. It is treated as immutable once passed to
// Scanner.Scan.
type Request struct {
	Mode             Mode
	Target           string
	Wordlist         string
	Threads          int
	ExtraArgs        []string
	PrintSuccessOnly bool
	StatusAllowList  []int
	Invocation       Preference
}

// WithDefaults returns a copy of r with zero-valued fields filled in.
func (r Request) WithDefaults() Request {
	if r.Threads == 0 {
		r.Threads = DefaultThreads
	}
	if len(r.StatusAllowList) == 0 {
		r.StatusAllowList = slices.Clone(DefaultStatusAllowList)
	}
	if r.Invocation == "" {
		r.Invocation = PreferAuto
	}
	r.ExtraArgs = slices.Clone(r.ExtraArgs)
	return r
}

// Validate checks the fields that would otherwise produce a nonsensical argv.
// The wordlist is checked separately by the scanner because it touches the
// filesystem.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeDir, ModeDNS, ModeVHost:
	default:
		return fmt.Errorf("%w: unknown mode %q (want dir, dns or vhost)", ErrInvalidRequest, r.Mode)
	}
	switch r.Invocation {
	case PreferAuto, PreferLegacy, PreferFlag:
	default:
		return fmt.Errorf("%w: unknown invocation %q (want auto, legacy or flag)", ErrInvalidRequest, r.Invocation)
	}
	if r.Target == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.Threads <= 0 {
		return fmt.Errorf("%w: threads must be positive, got %d", ErrInvalidRequest, r.Threads)
	}
	return nil
}

// ParseMode converts a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case ModeDir, ModeDNS, ModeVHost:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (want dir, dns or vhost)", ErrInvalidRequest, s)
}

// ParsePreference converts a user-supplied invocation preference.
func ParsePreference(s string) (Preference, error) {
	switch s {
	case "", "auto":
		return PreferAuto, nil
	case "legacy", "positional":
		return PreferLegacy, nil
	case "flag", "m-flag":
		return PreferFlag, nil
	}
	return "", fmt.Errorf("%w: unknown invocation %q (want auto, legacy or flag)", ErrInvalidRequest, s)
}
