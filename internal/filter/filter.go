package filter

// Filter decides whether a captured output line should be kept off the
// operator stream.
type Filter interface {
	Name() string
	ShouldFilter(line string) bool
}

// Chain applies multiple filters in order, short-circuiting on the first match.
type Chain struct {
	filters []Filter
}

// NewChain returns a chain holding the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Apply runs every filter against the line. Returns true and the filter
// name if the line should be filtered out.
func (c *Chain) Apply(line string) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(line) {
			return true, f.Name()
		}
	}
	return false, ""
}

// Surface returns the lines that pass every filter, preserving order. The
// input slice is not modified.
func (c *Chain) Surface(lines []string) []string {
	if c == nil || len(c.filters) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if filtered, _ := c.Apply(l); !filtered {
			out = append(out, l)
		}
	}
	return out
}
