package directive

import (
	"context"
	"log/slog"

	"github.com/diegovelezg/claude-telegram-relay/gateway"
)

const doneSearchLimit = 5

// MemoryService is the slice of the gateway the dispatcher needs.
type MemoryService interface {
	Create(ctx context.Context, in gateway.CreateInput) error
	Query(ctx context.Context, f gateway.Filter, limit int) ([]gateway.Item, error)
	Update(ctx context.Context, id, status string) error
}

// Dispatcher applies parsed intents to the memory gateway. Memory features
// are best effort relative to the conversation: every failure is logged and
// swallowed so one bad directive never breaks the reply or the ones after it.
type Dispatcher struct {
	Memory MemoryService
	Logger *slog.Logger
}

// Process extracts all directives from reply, applies them, and returns the
// cleaned text for the user.
func (d *Dispatcher) Process(ctx context.Context, reply string) string {
	intents, cleaned := Extract(reply)
	d.Apply(ctx, intents)
	return cleaned
}

// Apply dispatches each intent independently, in extraction order.
func (d *Dispatcher) Apply(ctx context.Context, intents []Intent) {
	if len(intents) == 0 {
		return
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.Memory == nil {
		logger.Warn("memory_dispatch_skipped", "reason", "no gateway", "intents", len(intents))
		return
	}
	for _, intent := range intents {
		switch intent.Kind {
		case KindFact:
			d.applyFact(ctx, logger, intent)
		case KindGoal:
			d.applyGoal(ctx, logger, intent)
		case KindDone:
			d.applyDone(ctx, logger, intent)
		}
	}
}

func (d *Dispatcher) applyFact(ctx context.Context, logger *slog.Logger, intent Intent) {
	err := d.Memory.Create(ctx, gateway.CreateInput{
		Title:    intent.Text,
		Kind:     "note",
		Nature:   "know",
		Category: "memory",
		Status:   "inbox",
	})
	if err != nil {
		logger.Warn("memory_fact_create_error", "error", err.Error())
		return
	}
	logger.Info("memory_fact_created", "title", intent.Text)
}

func (d *Dispatcher) applyGoal(ctx context.Context, logger *slog.Logger, intent Intent) {
	subject := ""
	if intent.Deadline != "" {
		subject = "DEADLINE: " + intent.Deadline
	}
	err := d.Memory.Create(ctx, gateway.CreateInput{
		Title:    intent.Text,
		Kind:     "task",
		Priority: 1,
		Nature:   "action",
		Subject:  subject,
		Status:   "todo",
	})
	if err != nil {
		logger.Warn("memory_goal_create_error", "error", err.Error())
		return
	}
	logger.Info("memory_goal_created", "title", intent.Text, "deadline", intent.Deadline)
}

func (d *Dispatcher) applyDone(ctx context.Context, logger *slog.Logger, intent Intent) {
	items, err := d.Memory.Query(ctx, gateway.Filter{Text: intent.Text}, doneSearchLimit)
	if err != nil {
		logger.Warn("memory_done_query_error", "search", intent.Text, "error", err.Error())
		return
	}
	if len(items) == 0 {
		// No match: the directive is dropped, not an error.
		logger.Debug("memory_done_no_match", "search", intent.Text)
		return
	}
	if err := d.Memory.Update(ctx, items[0].ID, "done"); err != nil {
		logger.Warn("memory_done_update_error", "id", items[0].ID, "error", err.Error())
		return
	}
	logger.Info("memory_done_marked", "id", items[0].ID, "title", items[0].Title)
}
