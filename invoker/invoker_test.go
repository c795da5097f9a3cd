package invoker

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/diegovelezg/claude-telegram-relay/internal/sessionstate"
)

type fakeSessions struct {
	state sessionstate.State
	saves []sessionstate.State
}

func (f *fakeSessions) Load() sessionstate.State { return f.state }

func (f *fakeSessions) Save(st sessionstate.State) error {
	f.state = st
	f.saves = append(f.saves, st)
	return nil
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub agent scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "agent.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInvokeReturnsTrimmedOutput(t *testing.T) {
	t.Parallel()

	iv := &Invoker{Bin: writeStub(t, `printf '  Hello there  \n'`)}
	got := iv.Invoke(context.Background(), "hi", false)
	if got != "Hello there" {
		t.Fatalf("Invoke() = %q", got)
	}
}

func TestInvokePersistsReportedSessionID(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	iv := &Invoker{
		Bin:      writeStub(t, `echo "Fine."; echo "Session ID: 9f8e7d6c-5b4a-4321-9876-0123456789ab"`),
		Sessions: sessions,
	}
	iv.Invoke(context.Background(), "hi", false)

	if len(sessions.saves) != 1 {
		t.Fatalf("saves = %+v, want one", sessions.saves)
	}
	if got := sessions.saves[0].SessionID; got != "9f8e7d6c-5b4a-4321-9876-0123456789ab" {
		t.Fatalf("saved session id = %q", got)
	}
	if sessions.saves[0].LastActivity.IsZero() {
		t.Fatal("saved state has zero last activity")
	}
}

func TestInvokePassesResumeHandle(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{state: sessionstate.State{SessionID: "prior-session"}}
	iv := &Invoker{Bin: writeStub(t, `echo "$@"`), Sessions: sessions}
	got := iv.Invoke(context.Background(), "hi", true)

	if !strings.Contains(got, "--resume prior-session") {
		t.Fatalf("agent args = %q, want --resume prior-session", got)
	}
	if !strings.Contains(got, "--output-format text") {
		t.Fatalf("agent args = %q, want --output-format text", got)
	}
}

func TestInvokeSkipsResumeWithoutPriorSession(t *testing.T) {
	t.Parallel()

	iv := &Invoker{Bin: writeStub(t, `echo "$@"`), Sessions: &fakeSessions{}}
	got := iv.Invoke(context.Background(), "hi", true)
	if strings.Contains(got, "--resume") {
		t.Fatalf("agent args = %q, must not resume a fresh conversation", got)
	}
}

func TestInvokeNonZeroExitBecomesErrorReply(t *testing.T) {
	t.Parallel()

	iv := &Invoker{Bin: writeStub(t, `echo "something broke" >&2; exit 3`)}
	got := iv.Invoke(context.Background(), "hi", false)
	if !strings.Contains(got, "something broke") {
		t.Fatalf("Invoke() = %q, want diagnostic embedded", got)
	}
}

func TestInvokeMissingExecutableBecomesFixedReply(t *testing.T) {
	t.Parallel()

	iv := &Invoker{Bin: filepath.Join(t.TempDir(), "no-such-agent")}
	got := iv.Invoke(context.Background(), "hi", false)
	if got != unavailableReply {
		t.Fatalf("Invoke() = %q, want fixed unavailable reply", got)
	}
}

func TestInvokeTimeoutBecomesErrorReply(t *testing.T) {
	t.Parallel()

	iv := &Invoker{
		Bin:     writeStub(t, `sleep 5; echo never`),
		Timeout: 100 * time.Millisecond,
	}
	got := iv.Invoke(context.Background(), "hi", false)
	if !strings.Contains(got, "timed out") {
		t.Fatalf("Invoke() = %q, want timeout diagnostic", got)
	}
}
