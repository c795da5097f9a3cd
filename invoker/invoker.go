// Package invoker runs the external agent as a subprocess, one invocation per
// conversation turn, and keeps the persisted session pointer in step with the
// agent's reported session id.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/diegovelezg/claude-telegram-relay/internal/sessionstate"
)

const DefaultTimeout = 120 * time.Second

// unavailableReply is the fixed reply used when the agent binary cannot be
// started at all.
const unavailableReply = "The assistant is unavailable right now: the agent process could not be started."

var sessionIDRe = regexp.MustCompile(`(?i)Session ID:\s*([A-Za-z0-9][A-Za-z0-9-]{7,})`)

// SessionStore is the persisted session pointer the invoker reads before and
// writes after each run.
type SessionStore interface {
	Load() sessionstate.State
	Save(sessionstate.State) error
}

type Invoker struct {
	Bin      string
	Timeout  time.Duration
	Sessions SessionStore
	Logger   *slog.Logger
	Now      func() time.Time
}

// Invoke runs one agent turn and always returns reply text: subprocess
// failures are folded into the reply instead of propagating, so the user sees
// what went wrong rather than silence.
func (iv *Invoker) Invoke(ctx context.Context, prompt string, resumePriorSession bool) string {
	logger := iv.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := iv.Now
	if now == nil {
		now = time.Now
	}
	timeout := iv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	args := []string{"-p", prompt}
	if resumePriorSession && iv.Sessions != nil {
		if id := strings.TrimSpace(iv.Sessions.Load().SessionID); id != "" {
			args = append(args, "--resume", id)
		}
	}
	args = append(args, "--output-format", "text")

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, iv.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := now()
	err := cmd.Run()
	elapsed := now().Sub(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || runCtx.Err() != nil {
			diag := strings.TrimSpace(stderr.String())
			if runCtx.Err() != nil {
				diag = strings.TrimSpace(diag + "\ntimed out after " + timeout.String())
			}
			logger.Warn("agent_invoke_failed", "elapsed", elapsed.String(), "error", err.Error())
			if diag == "" {
				diag = err.Error()
			}
			return fmt.Sprintf("The agent returned an error:\n%s", diag)
		}
		// The process never ran (missing executable and the like).
		logger.Error("agent_start_failed", "bin", iv.Bin, "error", err.Error())
		return unavailableReply
	}

	out := strings.TrimSpace(stdout.String())
	if m := sessionIDRe.FindStringSubmatch(out); m != nil && iv.Sessions != nil {
		st := sessionstate.State{SessionID: m[1], LastActivity: now()}
		if saveErr := iv.Sessions.Save(st); saveErr != nil {
			logger.Warn("session_save_error", "error", saveErr.Error())
		} else {
			logger.Debug("session_updated", "session_id", st.SessionID)
		}
	}
	logger.Info("agent_invoked", "elapsed", elapsed.String(), "reply_chars", len(out))
	return out
}
