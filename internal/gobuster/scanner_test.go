package gobuster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxvaer/gobauto/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor returns scripted outcomes keyed by dialect and records every
// candidate it was asked to run.
type fakeExecutor struct {
	mu       sync.Mutex
	outcomes map[Dialect]Outcome
	err      error
	calls    []Candidate
}

func (f *fakeExecutor) Execute(_ context.Context, c Candidate) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return Outcome{}, f.err
	}
	out, ok := f.outcomes[c.Dialect]
	if !ok {
		return Outcome{ExitCode: 127}, nil
	}
	return out, nil
}

func (f *fakeExecutor) dialects() []Dialect {
	f.mu.Lock()
	defer f.mu.Unlock()
	ds := make([]Dialect, len(f.calls))
	for i, c := range f.calls {
		ds[i] = c.Dialect
	}
	return ds
}

type recordingEcho struct {
	invocations [][]string
	lines       []string
	notices     []string
}

func (e *recordingEcho) Invocation(args []string) { e.invocations = append(e.invocations, args) }
func (e *recordingEcho) Line(line string)         { e.lines = append(e.lines, line) }
func (e *recordingEcho) Notice(msg string)        { e.notices = append(e.notices, msg) }

func outcome(code int, lines ...string) Outcome {
	return Outcome{ExitCode: code, Lines: lines, RawText: strings.Join(lines, "\n")}
}

func writeWordlist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "common.txt")
	require.NoError(t, os.WriteFile(path, []byte("admin\nlogin\n"), 0644))
	return path
}

func foundOnPath(string) (string, error) { return "/usr/bin/gobuster", nil }

func newTestScanner(exec Executor, echo Echo) *Scanner {
	return New(Config{Executor: exec, LookPath: foundOnPath, Echo: echo})
}

func baseRequest(t *testing.T) Request {
	return Request{
		Mode:     ModeDir,
		Target:   "https://example.com",
		Wordlist: writeWordlist(t),
	}
}

func TestScan_LegacySucceedsFirst(t *testing.T) {
	for _, code := range []int{0, 1} {
		fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
			DialectLegacy: outcome(code, "/admin (Status: 301)"),
			DialectFlag:   outcome(0),
		}}
		res, err := newTestScanner(fx, nil).Scan(context.Background(), baseRequest(t))
		require.NoError(t, err)

		assert.Equal(t, StateSucceeded, res.State)
		assert.Equal(t, string(DialectLegacy), res.InvocationUsed)
		assert.Equal(t, code, res.ExitCode)
		assert.Equal(t, []Dialect{DialectLegacy}, fx.dialects(), "flag candidate must not run")
		assert.NotEmpty(t, res.ID)
	}
}

func TestScan_FallsBackOnMissingWordlistMessage(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(2, "[!] 2 errors occurred:", "\t* WordList (-w): Must be specified", "\t* Url/Domain (-u): Must be specified"),
		DialectFlag:   outcome(0, "/admin (Status: 200)"),
	}}
	echo := &recordingEcho{}
	res, err := newTestScanner(fx, echo).Scan(context.Background(), baseRequest(t))
	require.NoError(t, err)

	assert.Equal(t, []Dialect{DialectLegacy, DialectFlag}, fx.dialects())
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, string(DialectFlag), res.InvocationUsed)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"/admin (Status: 200)"}, res.Lines)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, "wordlist (-w): must be specified", res.Attempts[0].Marker)
	assert.Empty(t, res.Attempts[1].Marker)
	assert.Len(t, echo.notices, 1)
}

func TestScan_TerminalFailureStopsImmediately(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(2, "Error: error on running gobuster: unable to connect to https://example.com/"),
		DialectFlag:   outcome(0),
	}}
	res, err := newTestScanner(fx, nil).Scan(context.Background(), baseRequest(t))
	require.NoError(t, err, "post-spawn failures are data, not errors")

	assert.Equal(t, StateTerminalFailure, res.State)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, string(DialectLegacy), res.InvocationUsed)
	assert.Equal(t, []Dialect{DialectLegacy}, fx.dialects())
	assert.Contains(t, res.Lines[0], "unable to connect")
}

func TestScan_Exhausted(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(2, `Error: unknown command "dir" for "gobuster"`),
		DialectFlag:   outcome(2, "Error: Unknown command -m"),
	}}
	res, err := newTestScanner(fx, nil).Scan(context.Background(), baseRequest(t))
	require.NoError(t, err)

	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "legacy-positional+flag-based", res.InvocationUsed)
	assert.Equal(t, []string{"Error: Unknown command -m"}, res.Lines, "last outcome is returned")
}

func TestScan_UnknownExtraFlagDoesNotFallBack(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(2, "Error: unknown shorthand flag: 'z' in -z"),
		DialectFlag:   outcome(0),
	}}
	req := baseRequest(t)
	req.ExtraArgs = []string{"-z"}

	res, err := newTestScanner(fx, nil).Scan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StateTerminalFailure, res.State)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, []Dialect{DialectLegacy}, fx.dialects())
	assert.Contains(t, res.Lines[0], "unknown shorthand flag")
}

func TestScan_ForcedFlagNeverBuildsLegacy(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(0),
		DialectFlag:   outcome(0, "Found: dev.example.com"),
	}}
	req := baseRequest(t)
	req.Mode = ModeDNS
	req.Target = "example.com"
	req.Invocation = PreferFlag

	echo := &recordingEcho{}
	res, err := newTestScanner(fx, echo).Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(DialectFlag), res.InvocationUsed)
	assert.NotContains(t, res.InvocationUsed, string(DialectLegacy))
	assert.Equal(t, []Dialect{DialectFlag}, fx.dialects())
	require.Len(t, echo.invocations, 1)
	assert.Equal(t, []string{"gobuster", "-m", "dns", "-u", "example.com", "-w", req.Wordlist, "-t", "20"}, echo.invocations[0])
}

func TestScan_ForcedDialectMismatchIsTerminal(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(2, "Error: unknown command \"dir\" for \"gobuster\""),
	}}
	req := baseRequest(t)
	req.Invocation = PreferLegacy

	res, err := newTestScanner(fx, nil).Scan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StateTerminalFailure, res.State)
	assert.Equal(t, string(DialectLegacy), res.InvocationUsed)
	assert.Equal(t, "unknown command", res.Attempts[0].Marker)
}

func TestScan_MissingWordlistFailsBeforeSpawn(t *testing.T) {
	fx := &fakeExecutor{}
	req := baseRequest(t)
	req.Wordlist = filepath.Join(t.TempDir(), "missing.txt")

	res, err := newTestScanner(fx, nil).Scan(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrWordlistNotFound)
	assert.Contains(t, err.Error(), "missing.txt")
	assert.Empty(t, fx.dialects(), "no process may be spawned")
}

func TestScan_StdinWordlistSkipsFileCheck(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{DialectLegacy: outcome(0)}}
	req := baseRequest(t)
	req.Wordlist = StdinWordlist

	res, err := newTestScanner(fx, nil).Scan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
}

func TestScan_ToolNotFoundFailsBeforeSpawn(t *testing.T) {
	fx := &fakeExecutor{}
	s := New(Config{
		Executor: fx,
		LookPath: func(name string) (string, error) { return "", errors.New("not found") },
	})
	_, err := s.Scan(context.Background(), baseRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "gobuster")
	assert.Empty(t, fx.dialects())
}

func TestScan_InvalidRequest(t *testing.T) {
	fx := &fakeExecutor{}
	req := baseRequest(t)
	req.Mode = "fuzz"
	_, err := newTestScanner(fx, nil).Scan(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = baseRequest(t)
	req.Threads = -4
	_, err = newTestScanner(fx, nil).Scan(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, fx.dialects())
}

func TestScan_FilterAffectsStreamOnly(t *testing.T) {
	lines := []string{"/admin Status: 403", "/x Status: 404", "Progress: 2 / 2"}
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{DialectLegacy: outcome(0, lines...)}}
	req := baseRequest(t)
	req.PrintSuccessOnly = true
	req.StatusAllowList = []int{200, 403}

	echo := &recordingEcho{}
	res, err := newTestScanner(fx, echo).Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"/admin Status: 403"}, echo.lines)
	assert.Equal(t, []string{"/admin Status: 403"}, res.Surfaced)
	assert.Equal(t, lines, res.Lines, "returned capture is never filtered")
}

func TestScan_NoFilterSurfacesEverything(t *testing.T) {
	lines := []string{"banner", "/x Status: 404"}
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{DialectLegacy: outcome(0, lines...)}}
	echo := &recordingEcho{}
	_, err := newTestScanner(fx, echo).Scan(context.Background(), baseRequest(t))
	require.NoError(t, err)
	assert.Equal(t, lines, echo.lines)
}

func TestScan_ExtraStreamFilters(t *testing.T) {
	lines := []string{"/admin Status: 200", "Progress: 1 / 2"}
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{DialectLegacy: outcome(0, lines...)}}
	echo := &recordingEcho{}
	s := New(Config{
		Executor: fx,
		LookPath: foundOnPath,
		Echo:     echo,
		Filters:  []filter.Filter{filter.NewExcludeFilter("Progress:")},
	})
	res, err := s.Scan(context.Background(), baseRequest(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"/admin Status: 200"}, echo.lines)
	assert.Equal(t, lines, res.Lines)
}

func TestScan_Idempotent(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{DialectLegacy: outcome(0, "/a (Status: 200)")}}
	s := newTestScanner(fx, nil)
	req := baseRequest(t)

	first, err := s.Scan(context.Background(), req)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.InvocationUsed, second.InvocationUsed)
	assert.Equal(t, first.ExitCode, second.ExitCode)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestScan_ExecutorErrorIsReturned(t *testing.T) {
	fx := &fakeExecutor{err: context.DeadlineExceeded}
	_, err := newTestScanner(fx, nil).Scan(context.Background(), baseRequest(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScan_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fx := &fakeExecutor{}
	_, err := newTestScanner(fx, nil).Scan(ctx, baseRequest(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fx.dialects())
}

type countingRecorder struct {
	attempts, mismatches int
	scans                []*Result
}

func (r *countingRecorder) ObserveAttempt(_ Mode, _ Dialect, _ int, mismatch bool, _ time.Duration) {
	r.attempts++
	if mismatch {
		r.mismatches++
	}
}

func (r *countingRecorder) ObserveScan(res *Result) { r.scans = append(r.scans, res) }

func TestScan_RecorderObservesAttempts(t *testing.T) {
	fx := &fakeExecutor{outcomes: map[Dialect]Outcome{
		DialectLegacy: outcome(3, "invalid subcommand"),
		DialectFlag:   outcome(0),
	}}
	rec := &countingRecorder{}
	s := New(Config{Executor: fx, LookPath: foundOnPath, Recorder: rec})
	_, err := s.Scan(context.Background(), baseRequest(t))
	require.NoError(t, err)

	assert.Equal(t, 2, rec.attempts)
	assert.Equal(t, 1, rec.mismatches)
	require.Len(t, rec.scans, 1)
	assert.Equal(t, StateSucceeded, rec.scans[0].State)
}
