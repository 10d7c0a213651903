package filter

import (
	"regexp"
	"strconv"
)

// statusMarker matches gobuster's "Status: 301" style annotation. The code
// must be exactly three digits.
var statusMarker = regexp.MustCompile(`(?i)status\W*(\d{3})(?:\D|$)`)

// ParseStatus extracts the HTTP status code embedded in a gobuster output
// line. ok is false when the line carries no recognizable marker.
func ParseStatus(line string) (code int, ok bool) {
	m := statusMarker.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// StatusFilter passes only lines whose status marker is in the allow-list.
// Lines without a marker are filtered.
type StatusFilter struct {
	allow map[int]struct{}
}

// NewStatusFilter creates a status allow-list filter.
func NewStatusFilter(allow []int) *StatusFilter {
	f := &StatusFilter{allow: make(map[int]struct{}, len(allow))}
	for _, code := range allow {
		f.allow[code] = struct{}{}
	}
	return f
}

func (f *StatusFilter) Name() string { return "status" }

func (f *StatusFilter) ShouldFilter(line string) bool {
	code, ok := ParseStatus(line)
	if !ok {
		return true
	}
	_, allowed := f.allow[code]
	return !allowed
}
