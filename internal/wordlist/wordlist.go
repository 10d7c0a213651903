package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Stdin is the sentinel path meaning "gobuster reads the wordlist from
// standard input".
const Stdin = "-"

// IsStdin reports whether path is the stdin sentinel.
func IsStdin(path string) bool { return path == Stdin }

// Validate checks that path names an existing regular file. The stdin
// sentinel is always valid. The returned error wraps os.ErrNotExist when the
// path is missing or is not a regular file.
func Validate(path string) error {
	if IsStdin(path) {
		return nil
	}
	if path == "" {
		return fmt.Errorf("empty wordlist path: %w", os.ErrNotExist)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("wordlist %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("wordlist %s is not a regular file: %w", path, os.ErrNotExist)
	}
	return nil
}

// Count returns the number of entries gobuster will try: non-blank lines
// that are not # comments. The stdin sentinel counts as -1 (unknown).
func Count(path string) (int, error) {
	if IsStdin(path) {
		return -1, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	return n, nil
}
