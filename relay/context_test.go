package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diegovelezg/claude-telegram-relay/gateway"
)

type stubMemory struct {
	mu    sync.Mutex
	calls []gateway.Filter

	relevant []gateway.Item
	goals    []gateway.Item
	facts    []gateway.Item
	err      error
}

func (m *stubMemory) Query(_ context.Context, f gateway.Filter, limit int) ([]gateway.Item, error) {
	m.mu.Lock()
	m.calls = append(m.calls, f)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	switch {
	case f.Text != "":
		return m.relevant, nil
	case f.Status == "todo":
		return m.goals, nil
	case f.Status == "inbox":
		return m.facts, nil
	}
	return nil, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestAssembleSectionOrder(t *testing.T) {
	t.Parallel()

	mem := &stubMemory{
		relevant: []gateway.Item{{Title: "user is allergic to peanuts"}},
		goals:    []gateway.Item{{Title: "call mom", Subject: "DEADLINE: tomorrow"}},
		facts:    []gateway.Item{{Title: "prefers tea"}},
	}
	a := &Assembler{
		Memory:   mem,
		Profile:  &Profile{Name: "Diego", Bio: "software engineer"},
		TimeZone: time.UTC,
		Now:      fixedClock,
	}

	prompt := a.Assemble(context.Background(), "what should I drink?", "Diego")

	ordered := []string{
		systemFraming,
		"You are talking to Diego.",
		"Current time: Sat, 14 Mar 2026 09:30 (UTC)",
		"About the user:",
		"Pending goals:",
		"- call mom (DEADLINE: tomorrow)",
		"Recent facts:",
		"- prefers tea",
		"Possibly relevant memory:",
		"- user is allergic to peanuts",
		"[REMEMBER:",
		"User message:\nwhat should I drink?",
	}
	pos := -1
	for _, want := range ordered {
		idx := strings.Index(prompt, want)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
		if idx <= pos {
			t.Fatalf("section %q out of order:\n%s", want, prompt)
		}
		pos = idx
	}
}

func TestAssembleOmitsMissingOptionalPieces(t *testing.T) {
	t.Parallel()

	a := &Assembler{TimeZone: time.UTC, Now: fixedClock}
	prompt := a.Assemble(context.Background(), "hello", "")

	for _, absent := range []string{"You are talking to", "Pending goals:", "Recent facts:", "Possibly relevant memory:", "About the user:"} {
		if strings.Contains(prompt, absent) {
			t.Fatalf("prompt contains %q despite missing context:\n%s", absent, prompt)
		}
	}
	if !strings.HasSuffix(prompt, "User message:\nhello") {
		t.Fatalf("prompt does not end with the user message:\n%s", prompt)
	}
}

func TestAssembleQueryFailureDegradesToEmptySections(t *testing.T) {
	t.Parallel()

	a := &Assembler{
		Memory:   &stubMemory{err: errors.New("gateway down")},
		TimeZone: time.UTC,
		Now:      fixedClock,
	}
	prompt := a.Assemble(context.Background(), "hello", "Diego")
	if strings.Contains(prompt, "Pending goals:") || strings.Contains(prompt, "Possibly relevant memory:") {
		t.Fatalf("failed queries leaked sections:\n%s", prompt)
	}
	if !strings.Contains(prompt, "hello") {
		t.Fatal("user message missing")
	}
}

// barrierMemory only answers the relevant-context query once the pending
// snapshot query has arrived, so a sequential assembler would deadlock here.
type barrierMemory struct {
	snapshotSeen chan struct{}
	once         sync.Once
}

func (m *barrierMemory) Query(_ context.Context, f gateway.Filter, limit int) ([]gateway.Item, error) {
	if f.Status == "todo" {
		m.once.Do(func() { close(m.snapshotSeen) })
		return nil, nil
	}
	if f.Text != "" {
		select {
		case <-m.snapshotSeen:
			return []gateway.Item{{Title: "parallel"}}, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("relevant query was not run concurrently with the snapshot query")
		}
	}
	return nil, nil
}

func TestAssembleFetchesContextConcurrently(t *testing.T) {
	t.Parallel()

	a := &Assembler{
		Memory:   &barrierMemory{snapshotSeen: make(chan struct{})},
		TimeZone: time.UTC,
		Now:      fixedClock,
	}
	prompt := a.Assemble(context.Background(), "anything", "")
	if !strings.Contains(prompt, "- parallel") {
		t.Fatalf("relevant lookup did not run in parallel with the snapshot:\n%s", prompt)
	}
}

func TestAssembleFactsFilteredByNature(t *testing.T) {
	t.Parallel()

	mem := &stubMemory{}
	a := &Assembler{Memory: mem, TimeZone: time.UTC, Now: fixedClock}
	a.Assemble(context.Background(), "hi", "")

	var sawFacts bool
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, f := range mem.calls {
		if f.Status == "inbox" {
			sawFacts = true
			if f.Nature != "know" {
				t.Fatalf("inbox facts filter = %+v, want nature=know", f)
			}
		}
	}
	if !sawFacts {
		t.Fatal("inbox facts were never queried")
	}
}
