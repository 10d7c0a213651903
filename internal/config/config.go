package config

import "time"

// Options holds all configuration for a gobauto run.
type Options struct {
	// Target
	Mode         string
	URL          string
	URLsFile     string
	CIDRTargets  string
	Ports        string
	WordlistPath string // "-" = gobuster reads the wordlist from stdin

	// gobuster
	Binary     string
	Threads    int
	ExtraArgs  []string
	Invocation string // "auto", "legacy" or "flag"
	Timeout    time.Duration

	// Stream filtering
	SuccessOnly   bool
	IncludeStatus []int
	Match         string
	Exclude       string

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"
	Quiet        bool
	NoColor      bool
	OnResultCmd  string

	// Resume
	ResumeFile string

	// Diagnostics
	ConfigFile string
	Debug      bool
}
