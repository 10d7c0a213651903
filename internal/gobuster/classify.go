package gobuster

import "strings"

// mismatchMarkers are fragments of gobuster's own error text that mean the
// argument dialect was wrong rather than the scan failing. gobuster has no
// exit code for this, so the list tracks upstream wording and will need
// updating if a release rewords these messages.
var mismatchMarkers = []string{
	"wordlist (-w): must be specified",
	"url/domain (-u): must be specified",
	"unknown command",
	"invalid subcommand",
	"error parsing",
	"no such file or directory",
}

// IsSyntaxMismatch reports whether captured output carries one of the known
// wrong-dialect messages. The match is a case-insensitive substring search
// and the first matching marker is returned.
func IsSyntaxMismatch(lines []string) (string, bool) {
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, m := range mismatchMarkers {
			if strings.Contains(lower, m) {
				return m, true
			}
		}
	}
	return "", false
}

// acceptedExit reports whether an exit code counts as a completed scan. Some
// gobuster/OS combinations exit 1 after a non-fatal run.
func acceptedExit(code int) bool {
	return code == 0 || code == 1
}
