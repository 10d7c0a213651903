package output

import (
	"fmt"
	"io"

	"github.com/maxvaer/gobauto/internal/gobuster"
)

// TextWriter writes the raw captured lines of each scan, preceded by a
// comment line naming the target and outcome.
type TextWriter struct {
	w      io.Writer
	closer io.Closer
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used.
func NewTextWriter(outputFile string, stdout io.Writer) (*TextWriter, error) {
	w, closer, err := destination(outputFile, stdout)
	if err != nil {
		return nil, err
	}
	return &TextWriter{w: w, closer: closer}, nil
}

func (t *TextWriter) WriteHeader() error { return nil }

func (t *TextWriter) WriteResult(result *gobuster.Result) error {
	_, err := fmt.Fprintf(t.w, "# %s %s state=%s exit=%d invocation=%s\n",
		result.Request.Mode, result.Request.Target,
		result.State, result.ExitCode, result.InvocationUsed)
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		if _, err := fmt.Fprintln(t.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextWriter) WriteFooter(_ Stats) error { return nil }

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
