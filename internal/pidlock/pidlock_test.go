package pidlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/diegovelezg/claude-telegram-relay/internal/statefile"
)

// A pid far above any realistic pid_max, so the liveness probe sees a dead
// owner.
const deadPID = 1 << 29

func TestAcquireFreshLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.pid")
	lock, err := Acquire(path, nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer lock.Release()

	var rec record
	found, err := statefile.ReadJSON(path, &rec)
	if err != nil || !found {
		t.Fatalf("lock record not readable: found=%v err=%v", found, err)
	}
	if rec.PID != os.Getpid() {
		t.Fatalf("lock record pid = %d, want %d", rec.PID, os.Getpid())
	}
}

func TestAcquireFailsWhenOwnerAlive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.pid")
	// The test process itself plays the live owner. Acquire treats its own
	// pid as a re-acquire, so probe liveness through a child-free stand-in:
	// pid 1 is always alive on the platforms we run on.
	if err := statefile.WriteJSON(path, record{PID: 1}); err != nil {
		t.Fatal(err)
	}

	_, err := Acquire(path, nil)
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("Acquire() error = %v, want ErrHeld", err)
	}
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.pid")
	if err := statefile.WriteJSON(path, record{PID: deadPID}); err != nil {
		t.Fatal(err)
	}

	lock, err := Acquire(path, nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v, want stale takeover", err)
	}
	defer lock.Release()

	var rec record
	if _, err := statefile.ReadJSON(path, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.PID != os.Getpid() {
		t.Fatalf("reclaimed lock pid = %d, want %d", rec.PID, os.Getpid())
	}
}

func TestAcquireIgnoresCorruptLockRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.pid")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	lock, err := Acquire(path, nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v, want takeover of corrupt record", err)
	}
	lock.Release()
}

func TestReleaseRemovesLockFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.pid")
	lock, err := Acquire(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	lock.Release()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file still present after Release: %v", err)
	}

	// Double release is a no-op.
	lock.Release()
}
