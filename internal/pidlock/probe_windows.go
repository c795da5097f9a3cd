//go:build windows

package pidlock

import (
	"os"
	"syscall"
)

// processAlive is best effort on Windows: signal 0 is not deliverable, so an
// "access denied"-style failure still counts as alive and only a definite
// "process not found" counts as dead.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err != os.ErrProcessDone
}
