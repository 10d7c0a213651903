package output

import (
	"io"
	"os"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
)

// Stats holds aggregate statistics across the scans of one run.
type Stats struct {
	Scans      int
	Succeeded  int
	Failed     int
	Exhausted  int
	ErrorCount int // scans that never spawned gobuster or were aborted
	Duration   time.Duration
}

// Add folds one scan result into the totals.
func (s *Stats) Add(r *gobuster.Result) {
	s.Scans++
	switch r.State {
	case gobuster.StateSucceeded:
		s.Succeeded++
	case gobuster.StateTerminalFailure:
		s.Failed++
	case gobuster.StateExhausted:
		s.Exhausted++
	}
}

// Writer is implemented by each export format.
type Writer interface {
	WriteHeader() error
	WriteResult(result *gobuster.Result) error
	WriteFooter(stats Stats) error
	Close() error
}

// New returns the writer for format ("text", "json" or "csv"). An empty
// outputFile writes to stdout.
func New(format, outputFile string, stdout io.Writer) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(outputFile, stdout)
	case "csv":
		return NewCSVWriter(outputFile, stdout)
	default:
		return NewTextWriter(outputFile, stdout)
	}
}

// destination opens outputFile, or returns stdout (os.Stdout if nil) with a
// nil closer.
func destination(outputFile string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
