package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/maxvaer/gobauto/internal/config"
	"github.com/maxvaer/gobauto/internal/filter"
	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/hook"
	"github.com/maxvaer/gobauto/internal/netutil"
	"github.com/maxvaer/gobauto/internal/output"
	"github.com/maxvaer/gobauto/internal/resume"
	"github.com/maxvaer/gobauto/internal/wordlist"
	"github.com/maxvaer/gobauto/pkg/version"
)

// ErrScansFailed is returned when at least one target did not reach the
// succeeded state.
var ErrScansFailed = errors.New("not all scans succeeded")

// Env carries the process-level collaborators of a run. Zero values fall
// back to os.Stdout, os.Stderr and slog.Default.
type Env struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Recorder gobuster.Recorder
	// Executor overrides the process runner.
	Executor gobuster.Executor
}

// Run executes one scan per target. Targets come from -u, -l and --cidr and
// are scanned sequentially.
func Run(ctx context.Context, opts *config.Options, env Env) error {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	mode, err := gobuster.ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	pref, err := gobuster.ParsePreference(opts.Invocation)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(opts, mode)
	if err != nil {
		return err
	}
	if len(targets) > 1 && wordlist.IsStdin(opts.WordlistPath) {
		return fmt.Errorf("%w: wordlist %q (stdin) can only feed a single target", gobuster.ErrInvalidRequest, gobuster.StdinWordlist)
	}

	stream := output.NewStream(streamWriter(opts, env), opts.NoColor, opts.Quiet)

	// Resume support.
	var resumeState *resume.State
	if opts.ResumeFile != "" {
		resumeState, err = resume.Open(opts.ResumeFile, string(mode), opts.WordlistPath, len(targets))
		if err != nil {
			return err
		}
		remaining := resumeState.Remaining(targets)
		if skipped := len(targets) - len(remaining); skipped > 0 {
			stream.Infof("Resuming: skipping %d already completed target(s)", skipped)
		}
		if len(remaining) == 0 {
			stream.Infof("All targets already completed")
			return resumeState.Remove()
		}
		targets = remaining
	}

	scanner := gobuster.New(gobuster.Config{
		Binary:   opts.Binary,
		Executor: env.Executor,
		Echo:     stream,
		Filters:  buildFilters(opts),
		Logger:   env.Logger,
		Recorder: env.Recorder,
	})

	// 1. Create export writer.
	var out output.Writer
	if exportEnabled(opts) {
		out, err = output.New(opts.OutputFormat, opts.OutputFile, env.Stdout)
		if err != nil {
			return fmt.Errorf("creating output writer: %w", err)
		}
		defer out.Close()
		if err := out.WriteHeader(); err != nil {
			return err
		}
	}

	var hookRunner *hook.Runner
	if opts.OnResultCmd != "" {
		hookRunner = hook.NewRunner(opts.OnResultCmd, opts.Quiet)
	}

	// 2. Print banner.
	if !opts.Quiet {
		printBanner(stream, opts, scanner.Binary(), len(targets))
	}

	// 3. Scan each target.
	var stats output.Stats
	startTime := time.Now()

	for idx, target := range targets {
		if len(targets) > 1 {
			stream.Infof("Target %d/%d: %s", idx+1, len(targets), target)
		}
		req := gobuster.Request{
			Mode:             mode,
			Target:           target,
			Wordlist:         opts.WordlistPath,
			Threads:          opts.Threads,
			ExtraArgs:        opts.ExtraArgs,
			PrintSuccessOnly: opts.SuccessOnly,
			StatusAllowList:  opts.IncludeStatus,
			Invocation:       pref,
		}

		result, err := scanOne(ctx, scanner, req, opts.Timeout)
		if err != nil {
			if ctx.Err() != nil || isPreflight(err) {
				return err
			}
			stats.ErrorCount++
			stream.Errorf("Error scanning %s: %v", target, err)
			continue
		}

		stats.Add(result)
		stream.Summary(result)
		if resumeState != nil {
			resumeState.MarkCompleted(target)
			if err := resumeState.Save(); err != nil {
				stream.Errorf("Could not save resume state: %v", err)
			}
		}
		if out != nil {
			if err := out.WriteResult(result); err != nil {
				return err
			}
		}
		if hookRunner != nil {
			hookRunner.Run(ctx, result)
		}
	}

	// 4. Write footer.
	stats.Duration = time.Since(startTime)
	if len(targets) > 1 {
		stream.Footer(stats)
	}
	if out != nil {
		if err := out.WriteFooter(stats); err != nil {
			return err
		}
	}
	if resumeState != nil && stats.ErrorCount == 0 {
		_ = resumeState.Remove()
	}

	if stats.Succeeded < len(targets) {
		return fmt.Errorf("%w: %d of %d", ErrScansFailed, len(targets)-stats.Succeeded, len(targets))
	}
	return nil
}

// scanOne applies the per-target timeout, if any.
func scanOne(ctx context.Context, s *gobuster.Scanner, req gobuster.Request, timeout time.Duration) (*gobuster.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.Scan(ctx, req)
}

// isPreflight reports errors that would repeat identically for every target.
func isPreflight(err error) bool {
	return errors.Is(err, gobuster.ErrToolNotFound) ||
		errors.Is(err, gobuster.ErrWordlistNotFound) ||
		errors.Is(err, gobuster.ErrInvalidRequest)
}

// resolveTargets builds the list of targets from -u, -l and --cidr.
func resolveTargets(opts *config.Options, mode gobuster.Mode) ([]string, error) {
	var targets []string

	if opts.URL != "" {
		targets = append(targets, opts.URL)
	}

	if opts.URLsFile != "" {
		f, err := os.Open(opts.URLsFile)
		if err != nil {
			return nil, fmt.Errorf("opening targets file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				targets = append(targets, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading targets file: %w", err)
		}
	}

	if opts.CIDRTargets != "" {
		if mode == gobuster.ModeDNS {
			return nil, fmt.Errorf("%w: --cidr needs dir or vhost mode", gobuster.ErrInvalidRequest)
		}
		scheme := "https"
		if strings.HasPrefix(opts.URL, "http://") {
			scheme = "http"
		}
		cidrURLs, err := netutil.ExpandTargets(opts.CIDRTargets, opts.Ports, scheme)
		if err != nil {
			return nil, fmt.Errorf("expanding CIDR: %w", err)
		}
		targets = append(targets, cidrURLs...)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets specified (-u, -l or --cidr)")
	}
	return targets, nil
}

func buildFilters(opts *config.Options) []filter.Filter {
	var filters []filter.Filter
	if opts.Match != "" {
		filters = append(filters, filter.NewMatchFilter(opts.Match))
	}
	if opts.Exclude != "" {
		filters = append(filters, filter.NewExcludeFilter(opts.Exclude))
	}
	return filters
}

// exportEnabled reports whether an export writer is needed. Text to stdout
// would only repeat the stream, so it needs an -o file.
func exportEnabled(opts *config.Options) bool {
	return opts.OutputFile != "" || (opts.OutputFormat != "" && opts.OutputFormat != "text")
}

// streamWriter moves the operator stream to stderr when stdout carries a
// machine-readable export.
func streamWriter(opts *config.Options, env Env) io.Writer {
	if opts.OutputFile == "" && exportEnabled(opts) {
		return env.Stderr
	}
	return env.Stdout
}

func printBanner(stream *output.Stream, opts *config.Options, binary string, targetCount int) {
	stream.Infof("gobauto %s | %s mode | %d target(s) | threads %d | invocation %s",
		version.Version, opts.Mode, targetCount, threadsOrDefault(opts.Threads), invocationOrDefault(opts.Invocation))

	switch n, err := wordlist.Count(opts.WordlistPath); {
	case err != nil:
		// Scan reports the missing wordlist as a pre-flight error.
	case n < 0:
		stream.Infof("Wordlist: stdin | binary: %s", binary)
	default:
		stream.Infof("Wordlist: %s (%d entries) | binary: %s", opts.WordlistPath, n, binary)
	}
}

func threadsOrDefault(n int) int {
	if n == 0 {
		return gobuster.DefaultThreads
	}
	return n
}

func invocationOrDefault(s string) string {
	if s == "" {
		return string(gobuster.PreferAuto)
	}
	return s
}
