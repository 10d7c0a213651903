package filter

import "strings"

// MatchFilter only passes lines containing a given string.
type MatchFilter struct {
	needle string
}

// NewMatchFilter creates a filter that requires the line to contain needle.
func NewMatchFilter(needle string) *MatchFilter {
	return &MatchFilter{needle: needle}
}

func (f *MatchFilter) Name() string { return "match" }

func (f *MatchFilter) ShouldFilter(line string) bool {
	return !strings.Contains(line, f.needle)
}

// ExcludeFilter hides lines containing a given string.
type ExcludeFilter struct {
	needle string
}

// NewExcludeFilter creates a filter that hides lines containing needle.
func NewExcludeFilter(needle string) *ExcludeFilter {
	return &ExcludeFilter{needle: needle}
}

func (f *ExcludeFilter) Name() string { return "exclude" }

func (f *ExcludeFilter) ShouldFilter(line string) bool {
	return strings.Contains(line, f.needle)
}
