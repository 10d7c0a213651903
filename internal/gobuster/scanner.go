package gobuster

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxvaer/gobauto/internal/filter"
	"github.com/maxvaer/gobauto/internal/wordlist"
)

// State is the terminal state of a scan.
type State string

const (
	StateSucceeded       State = "succeeded"
	StateTerminalFailure State = "terminal-failure"
	StateExhausted       State = "exhausted"
)

// Attempt records one executed candidate.
type Attempt struct {
	Dialect  Dialect       `json:"dialect"`
	Args     []string      `json:"args"`
	ExitCode int           `json:"exit_code"`
	Marker   string        `json:"mismatch_marker,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the value returned for every scan that got as far as spawning
// gobuster. Failures after spawn are reported here, not as errors, so the
// captured output always reaches the caller.
type Result struct {
	ID             string
	Request        Request
	State          State
	ExitCode       int
	Lines          []string // full capture of the final attempt, never filtered
	RawText        string
	Surfaced       []string // lines of the final attempt that passed the stream filters
	InvocationUsed string
	Attempts       []Attempt
	StartedAt      time.Time
	Duration       time.Duration
}

// Echo receives the operator-visible side effects of a scan.
type Echo interface {
	Invocation(args []string)
	Line(line string)
	Notice(msg string)
}

// Recorder receives per-attempt and per-scan observations.
type Recorder interface {
	ObserveAttempt(mode Mode, dialect Dialect, exitCode int, mismatch bool, d time.Duration)
	ObserveScan(r *Result)
}

// Config wires a Scanner's collaborators. Zero values get defaults.
type Config struct {
	// Binary is the executable name or path. Defaults to "gobuster".
	Binary string
	// Executor runs candidates. Defaults to a ProcessExecutor.
	Executor Executor
	// LookPath resolves Binary. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Echo receives invocations and surfaced lines. May be nil.
	Echo Echo
	// Filters are chained after the status allow-list filter and only
	// affect what reaches Echo and Result.Surfaced.
	Filters  []filter.Filter
	Logger   *slog.Logger
	Recorder Recorder
}

// Scanner runs gobuster requests, falling back between argument dialects.
// It keeps no per-call state and is safe for concurrent use as long as its
// Echo and Recorder are.
type Scanner struct {
	binary   string
	exec     Executor
	lookPath func(string) (string, error)
	echo     Echo
	filters  []filter.Filter
	log      *slog.Logger
	rec      Recorder
}

// New creates a Scanner.
func New(cfg Config) *Scanner {
	s := &Scanner{
		binary:   cfg.Binary,
		exec:     cfg.Executor,
		lookPath: cfg.LookPath,
		echo:     cfg.Echo,
		filters:  cfg.Filters,
		log:      cfg.Logger,
		rec:      cfg.Recorder,
	}
	if s.binary == "" {
		s.binary = DefaultBinary
	}
	if s.exec == nil {
		s.exec = &ProcessExecutor{}
	}
	if s.lookPath == nil {
		s.lookPath = exec.LookPath
	}
	if s.echo == nil {
		s.echo = nopEcho{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Binary returns the executable name the scanner invokes.
func (s *Scanner) Binary() string { return s.binary }

// Scan validates req, then runs its candidates in order until one is
// accepted, one fails for a reason other than a dialect mismatch, or all
// of them mismatch.
//
// The only errors are pre-flight failures (ErrInvalidRequest,
// ErrWordlistNotFound, ErrToolNotFound), which happen before any process is
// spawned, and failures to start a process or context cancellation.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := wordlist.Validate(req.Wordlist); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrWordlistNotFound, req.Wordlist, err)
	}
	if _, err := s.lookPath(s.binary); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, s.binary)
	}

	res := &Result{
		ID:        uuid.NewString(),
		Request:   req,
		StartedAt: time.Now(),
	}
	log := s.log.With("scan_id", res.ID, "mode", string(req.Mode), "target", req.Target)
	chain := s.chainFor(req)
	candidates := Candidates(s.binary, req)

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan %s aborted: %w", res.ID, err)
		}

		s.echo.Invocation(c.Args)
		out, err := s.exec.Execute(ctx, c)
		if err != nil {
			log.Warn("attempt failed to run", "dialect", string(c.Dialect), "error", err)
			return nil, fmt.Errorf("scan %s: %w", res.ID, err)
		}

		surfaced := chain.Surface(out.Lines)
		for _, l := range surfaced {
			s.echo.Line(l)
		}

		att := Attempt{
			Dialect:  c.Dialect,
			Args:     c.Args,
			ExitCode: out.ExitCode,
			Duration: out.Duration,
		}
		marker, mismatch := "", false
		if !acceptedExit(out.ExitCode) {
			marker, mismatch = IsSyntaxMismatch(out.Lines)
			att.Marker = marker
		}
		res.Attempts = append(res.Attempts, att)
		if s.rec != nil {
			s.rec.ObserveAttempt(req.Mode, c.Dialect, out.ExitCode, mismatch, out.Duration)
		}
		log.Debug("attempt finished",
			"attempt", i+1,
			"dialect", string(c.Dialect),
			"exit_code", out.ExitCode,
			"lines", len(out.Lines),
			"marker", marker,
			"duration", out.Duration)

		res.ExitCode = out.ExitCode
		res.Lines = out.Lines
		res.RawText = out.RawText
		res.Surfaced = surfaced

		switch {
		case acceptedExit(out.ExitCode):
			res.State = StateSucceeded
			res.InvocationUsed = string(c.Dialect)
		case !mismatch:
			res.State = StateTerminalFailure
			res.InvocationUsed = string(c.Dialect)
		case i+1 < len(candidates):
			s.echo.Notice(fmt.Sprintf("Invocation %d (%s) exited %d with %q; trying %s",
				i+1, c.Dialect, out.ExitCode, marker, candidates[i+1].Dialect))
			continue
		case len(candidates) == 1:
			// A forced dialect has nothing to fall back to.
			res.State = StateTerminalFailure
			res.InvocationUsed = string(c.Dialect)
		default:
			res.State = StateExhausted
			res.InvocationUsed = compoundTag(res.Attempts)
		}
		break
	}

	res.Duration = time.Since(res.StartedAt)
	if s.rec != nil {
		s.rec.ObserveScan(res)
	}
	log.Info("scan finished",
		"state", string(res.State),
		"exit_code", res.ExitCode,
		"invocation", res.InvocationUsed,
		"attempts", len(res.Attempts),
		"duration", res.Duration)
	return res, nil
}

func (s *Scanner) chainFor(req Request) *filter.Chain {
	chain := filter.NewChain()
	if req.PrintSuccessOnly {
		chain.Add(filter.NewStatusFilter(req.StatusAllowList))
	}
	for _, f := range s.filters {
		chain.Add(f)
	}
	return chain
}

func compoundTag(attempts []Attempt) string {
	tags := make([]string, len(attempts))
	for i, a := range attempts {
		tags[i] = string(a.Dialect)
	}
	return strings.Join(tags, "+")
}

type nopEcho struct{}

func (nopEcho) Invocation([]string) {}
func (nopEcho) Line(string)         {}
func (nopEcho) Notice(string)       {}
