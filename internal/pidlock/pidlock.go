// Package pidlock enforces that only one relay instance runs against a given
// state directory. The lock is a small JSON record naming the owning process;
// a record whose owner is no longer alive is reclaimed silently so a crashed
// instance never blocks a restart.
package pidlock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/diegovelezg/claude-telegram-relay/internal/statefile"
)

// ErrHeld is returned when another live process owns the lock.
var ErrHeld = errors.New("pidlock: held by a live process")

type record struct {
	PID int `json:"pid"`
}

// Lock represents a held singleton lock. Release must be called on every
// shutdown path, including signal-triggered ones.
type Lock struct {
	path string
}

// Acquire takes ownership of the lock at path. If an existing record names a
// live process, it fails with ErrHeld and the caller must abort startup. A
// record naming a dead process is taken over.
func Acquire(path string, logger *slog.Logger) (*Lock, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rec record
	found, err := statefile.ReadJSON(path, &rec)
	if err != nil {
		// Unreadable lock content is stale state, not contention.
		logger.Warn("pidlock_unreadable", "path", path, "error", err.Error())
	}
	if found && rec.PID > 0 && rec.PID != os.Getpid() {
		if processAlive(rec.PID) {
			return nil, fmt.Errorf("%w: pid %d owns %s", ErrHeld, rec.PID, path)
		}
		logger.Info("pidlock_stale_takeover", "path", path, "dead_pid", rec.PID)
	}

	if err := statefile.WriteJSON(path, record{PID: os.Getpid()}); err != nil {
		return nil, fmt.Errorf("pidlock: write %s: %w", path, err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock record. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.path == "" {
		return
	}
	_ = os.Remove(l.path)
	l.path = ""
}
