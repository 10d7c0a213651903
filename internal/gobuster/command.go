package gobuster

import "strconv"

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "gobuster"

// Candidate is a ready-to-run argument vector for one dialect. Args[0] is the
// tool name.
type Candidate struct {
	Dialect Dialect
	Args    []string
}

// Build assembles the argv for req in the given dialect. Extra arguments are
// always appended last, in order, since some gobuster flags are
// position-sensitive.
func Build(tool string, req Request, dialect Dialect) Candidate {
	args := make([]string, 0, 10+len(req.ExtraArgs))
	args = append(args, tool)
	if dialect == DialectFlag {
		args = append(args, "-m", string(req.Mode))
	} else {
		args = append(args, string(req.Mode))
	}
	args = append(args,
		"-u", req.Target,
		"-w", req.Wordlist,
		"-t", strconv.Itoa(req.Threads),
	)
	args = append(args, req.ExtraArgs...)
	return Candidate{Dialect: dialect, Args: args}
}

// Candidates returns the invocations to try for req, in order. A forced
// preference yields exactly one candidate and the other dialect is never
// built.
func Candidates(tool string, req Request) []Candidate {
	switch req.Invocation {
	case PreferLegacy:
		return []Candidate{Build(tool, req, DialectLegacy)}
	case PreferFlag:
		return []Candidate{Build(tool, req, DialectFlag)}
	default:
		return []Candidate{
			Build(tool, req, DialectLegacy),
			Build(tool, req, DialectFlag),
		}
	}
}
