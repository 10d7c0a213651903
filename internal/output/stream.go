package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/maxvaer/gobauto/internal/filter"
	"github.com/maxvaer/gobauto/internal/gobuster"
	"golang.org/x/term"
)

// Stream is the operator-visible channel: every attempted invocation, the
// surfaced gobuster lines, fallback notices and a per-scan summary.
// It implements gobuster.Echo.
type Stream struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool

	dim    *color.Color
	cmd    *color.Color
	notice *color.Color
	ok     *color.Color
	cyan   *color.Color
	warn   *color.Color
	fail   *color.Color
}

var _ gobuster.Echo = (*Stream)(nil)

// NewStream creates a stream writing to w. Colour is used only when w is a
// terminal and noColor is false. quiet suppresses notices and summaries but
// never the invocation echo or surfaced lines.
func NewStream(w io.Writer, noColor, quiet bool) *Stream {
	s := &Stream{
		w:      w,
		quiet:  quiet,
		dim:    color.New(color.FgHiBlack),
		cmd:    color.New(color.FgCyan, color.Bold),
		notice: color.New(color.FgYellow),
		ok:     color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed),
	}
	if noColor || !isTerminal(w) {
		for _, c := range []*color.Color{s.dim, s.cmd, s.notice, s.ok, s.cyan, s.warn, s.fail} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{s.dim, s.cmd, s.notice, s.ok, s.cyan, s.warn, s.fail} {
			c.EnableColor()
		}
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Invocation echoes the argv about to be executed.
func (s *Stream) Invocation(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd.Fprintf(s.w, "Executing: %s\n", strings.Join(args, " "))
}

// Line writes one surfaced gobuster line, coloured by its status marker.
func (s *Stream) Line(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.colorForLine(line)
	if c == nil {
		fmt.Fprintln(s.w, line)
		return
	}
	c.Fprintln(s.w, line)
}

// Notice reports a fallback or other non-fatal event.
func (s *Stream) Notice(msg string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice.Fprintf(s.w, "[!] %s\n", msg)
}

// Infof writes a "[*]" progress line.
func (s *Stream) Infof(format string, args ...any) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[*] "+format+"\n", args...)
}

// Errorf writes a "[!]" error line. It is shown even in quiet mode.
func (s *Stream) Errorf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail.Fprintf(s.w, "[!] "+format+"\n", args...)
}

// Summary writes the one-line outcome of a scan.
func (s *Stream) Summary(r *gobuster.Result) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.ok
	switch r.State {
	case gobuster.StateTerminalFailure:
		state = s.fail
	case gobuster.StateExhausted:
		state = s.warn
	}
	fmt.Fprint(s.w, "\nFinished: ")
	state.Fprint(s.w, r.State)
	s.dim.Fprintf(s.w, " | exit_code=%d | invocation_used=%s | captured_lines=%d | shown=%d | %s\n",
		r.ExitCode, r.InvocationUsed, len(r.Lines), len(r.Surfaced), r.Duration.Round(time.Millisecond))
	if r.State == gobuster.StateExhausted && len(r.Attempts) > 0 {
		s.warn.Fprintf(s.w, "[!] %s is installed but rejected every invocation style; check its version\n", r.Attempts[0].Args[0])
	}
}

// Footer writes aggregate totals after a multi-target run.
func (s *Stream) Footer(stats Stats) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w,
		"\nCompleted: %d scans | Succeeded: %d | Failed: %d | Exhausted: %d | Errors: %d | Duration: %s\n",
		stats.Scans, stats.Succeeded, stats.Failed, stats.Exhausted, stats.ErrorCount,
		stats.Duration.Round(time.Millisecond))
}

func (s *Stream) colorForLine(line string) *color.Color {
	code, ok := filter.ParseStatus(line)
	if !ok {
		return nil
	}
	switch {
	case code >= 200 && code < 300:
		return s.ok
	case code >= 300 && code < 400:
		return s.cyan
	case code >= 400 && code < 500:
		return s.warn
	case code >= 500:
		return s.fail
	default:
		return nil
	}
}
