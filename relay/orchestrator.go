package relay

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// emptyReply substitutes for a reply that was nothing but directives, so the
// adapter always has something to send.
const emptyReply = "Done."

// AgentInvoker runs one agent turn. Implementations never fail: errors come
// back as reply text.
type AgentInvoker interface {
	Invoke(ctx context.Context, prompt string, resumePriorSession bool) string
}

// ReplyCleaner extracts and applies memory directives, returning the cleaned
// user-visible text.
type ReplyCleaner interface {
	Process(ctx context.Context, reply string) string
}

// Orchestrator turns inbound platform events into agent replies. Turns are
// fully serialized: with one persisted session pointer and an agent resumed
// by session id, two interleaved turns racing through the invoker would fork
// or corrupt the conversation thread, so a turn may not start until the
// previous one has replied.
type Orchestrator struct {
	Assembler *Assembler
	Invoker   AgentInvoker
	Cleaner   ReplyCleaner
	Logger    *slog.Logger

	mu sync.Mutex
}

// HandleTurn runs one full conversation turn and returns the user-visible
// reply. Component failures degrade into substitute values; the caller always
// gets something to send back.
func (o *Orchestrator) HandleTurn(ctx context.Context, in Inbound) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	turnID := uuid.NewString()
	logger.Info("turn_received",
		"turn_id", turnID,
		"channel", string(in.Channel),
		"from", in.DisplayName,
		"chars", len(in.Text),
	)

	prompt := in.Text
	if o.Assembler != nil {
		prompt = o.Assembler.Assemble(ctx, in.Text, in.DisplayName)
	}
	logger.Debug("turn_context_gathered", "turn_id", turnID, "prompt_chars", len(prompt))

	reply := o.Invoker.Invoke(ctx, prompt, true)
	logger.Debug("turn_agent_invoked", "turn_id", turnID, "reply_chars", len(reply))

	cleaned := reply
	if o.Cleaner != nil {
		cleaned = o.Cleaner.Process(ctx, reply)
	}
	if strings.TrimSpace(cleaned) == "" {
		cleaned = emptyReply
	}
	logger.Info("turn_replied", "turn_id", turnID, "chars", len(cleaned))
	return cleaned
}
