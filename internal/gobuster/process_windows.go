//go:build windows

package gobuster

import "os/exec"

// setProcessGroup is a no-op on Windows; exec.CommandContext kills the
// child directly.
func setProcessGroup(cmd *exec.Cmd) {}
