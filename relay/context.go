package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diegovelezg/claude-telegram-relay/gateway"
)

const (
	relevantLimit = 5
	snapshotLimit = 10
)

const systemFraming = "You are a personal assistant in an ongoing conversation that continues across chat platforms. Reply naturally and concisely."

// directiveInstructions tells the agent how to emit memory directives; the
// dispatcher strips them from the reply before the user sees it.
const directiveInstructions = `You can manage the user's memory by embedding directives in your reply:
- [REMEMBER: <fact>] stores a fact worth keeping.
- [GOAL: <text>] or [GOAL: <text> | DEADLINE: <date>] records a goal.
- [DONE: <search text>] marks the best-matching stored goal as done.
Directives are removed before the user sees your reply.`

// MemoryReader is the read-only slice of the gateway the assembler needs.
type MemoryReader interface {
	Query(ctx context.Context, f gateway.Filter, limit int) ([]gateway.Item, error)
}

// Assembler composes the enriched prompt for one turn. Memory lookups are
// best effort: a failed or absent gateway just means fewer sections.
type Assembler struct {
	Memory   MemoryReader
	Profile  *Profile
	TimeZone *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Assemble builds the prompt for userText. The relevant-context lookup and
// the pending-snapshot lookup are independent reads and run in parallel.
func (a *Assembler) Assemble(ctx context.Context, userText, displayName string) string {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	loc := a.TimeZone
	if loc == nil {
		loc = time.Local
	}

	var relevant, goals, facts []gateway.Item
	if a.Memory != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			items, err := a.Memory.Query(gctx, gateway.Filter{Text: userText}, relevantLimit)
			if err != nil {
				logger.Warn("context_relevant_query_error", "error", err.Error())
				return nil
			}
			relevant = items
			return nil
		})
		g.Go(func() error {
			items, err := a.Memory.Query(gctx, gateway.Filter{Status: "todo"}, snapshotLimit)
			if err != nil {
				logger.Warn("context_goals_query_error", "error", err.Error())
			} else {
				goals = items
			}
			items, err = a.Memory.Query(gctx, gateway.Filter{Status: "inbox", Nature: "know"}, snapshotLimit)
			if err != nil {
				logger.Warn("context_facts_query_error", "error", err.Error())
			} else {
				facts = items
			}
			return nil
		})
		_ = g.Wait()
	}

	sections := []string{systemFraming}
	if name := strings.TrimSpace(displayName); name != "" {
		sections = append(sections, fmt.Sprintf("You are talking to %s.", name))
	}
	sections = append(sections, "Current time: "+now().In(loc).Format("Mon, 02 Jan 2006 15:04 (MST)"))
	if block := a.Profile.Block(); block != "" {
		sections = append(sections, block)
	}
	if block := itemsBlock("Pending goals:", goals); block != "" {
		sections = append(sections, block)
	}
	if block := itemsBlock("Recent facts:", facts); block != "" {
		sections = append(sections, block)
	}
	if block := itemsBlock("Possibly relevant memory:", relevant); block != "" {
		sections = append(sections, block)
	}
	sections = append(sections, directiveInstructions)
	sections = append(sections, "User message:\n"+userText)

	return strings.Join(sections, "\n\n")
}

func itemsBlock(heading string, items []gateway.Item) string {
	var lines []string
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		line := "- " + title
		if subject := strings.TrimSpace(item.Subject); subject != "" {
			line += " (" + subject + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return heading + "\n" + strings.Join(lines, "\n")
}
