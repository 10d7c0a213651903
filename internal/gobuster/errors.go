package gobuster

import "errors"

var (
	// ErrToolNotFound is returned before any process is spawned when the
	// gobuster binary is not on PATH.
	ErrToolNotFound = errors.New("tool not found in PATH")

	// ErrWordlistNotFound is returned before any process is spawned when the
	// wordlist is neither an existing regular file nor the stdin sentinel.
	ErrWordlistNotFound = errors.New("wordlist not found")

	// ErrInvalidRequest covers malformed requests (unknown mode, bad thread count).
	ErrInvalidRequest = errors.New("invalid scan request")
)
