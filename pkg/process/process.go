// Package process probes the liveness of other processes. The session-id
// resolver uses it to discard stale entries found in the process table.
package process

import (
	"os"
	"syscall"
)

// IsProcessAlive reports whether a process with the given pid exists.
// Signal 0 probes existence without delivering anything: nil means alive,
// EPERM means alive but owned by someone else, ESRCH means gone.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// os.FindProcess never fails on Unix, even for dead pids.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
