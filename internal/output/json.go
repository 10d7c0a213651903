package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
)

// Entry is the serialized form of one scan result, shared by the JSON
// writer, the on-result hook and the MCP tool.
type Entry struct {
	ID             string             `json:"id"`
	Mode           string             `json:"mode"`
	Target         string             `json:"target"`
	Wordlist       string             `json:"wordlist"`
	State          string             `json:"state"`
	ExitCode       int                `json:"exit_code"`
	InvocationUsed string             `json:"invocation_used"`
	Attempts       []gobuster.Attempt `json:"attempts"`
	Lines          []string           `json:"lines"`
	Surfaced       []string           `json:"surfaced,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	DurationMS     int64              `json:"duration_ms"`
}

// NewEntry converts a scan result.
func NewEntry(r *gobuster.Result) Entry {
	lines := r.Lines
	if lines == nil {
		lines = []string{}
	}
	return Entry{
		ID:             r.ID,
		Mode:           string(r.Request.Mode),
		Target:         r.Request.Target,
		Wordlist:       r.Request.Wordlist,
		State:          string(r.State),
		ExitCode:       r.ExitCode,
		InvocationUsed: r.InvocationUsed,
		Attempts:       r.Attempts,
		Lines:          lines,
		Surfaced:       r.Surfaced,
		StartedAt:      r.StartedAt,
		DurationMS:     r.Duration.Milliseconds(),
	}
}

// JSONWriter writes results as a JSON array.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []Entry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string, stdout io.Writer) (*JSONWriter, error) {
	w, closer, err := destination(outputFile, stdout)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{w: w, closer: closer, entries: []Entry{}}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *gobuster.Result) error {
	j.entries = append(j.entries, NewEntry(result))
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.entries)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
