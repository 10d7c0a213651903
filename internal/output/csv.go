package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/maxvaer/gobauto/internal/gobuster"
)

// CSVWriter writes one summary row per scan.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string, stdout io.Writer) (*CSVWriter, error) {
	w, closer, err := destination(outputFile, stdout)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"id", "mode", "target", "state", "exit_code", "invocation", "attempts", "lines", "duration_ms"})
}

func (c *CSVWriter) WriteResult(result *gobuster.Result) error {
	return c.w.Write([]string{
		result.ID,
		string(result.Request.Mode),
		result.Request.Target,
		string(result.State),
		fmt.Sprintf("%d", result.ExitCode),
		result.InvocationUsed,
		fmt.Sprintf("%d", len(result.Attempts)),
		fmt.Sprintf("%d", len(result.Lines)),
		fmt.Sprintf("%d", result.Duration.Milliseconds()),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
