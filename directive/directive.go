// Package directive extracts the bracketed memory directives the agent embeds
// in its replies and applies them to the memory gateway. Directives must never
// leak to the end user, so extraction always returns the reply text with every
// recognized tag removed.
package directive

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindFact Kind = "fact"
	KindGoal Kind = "goal"
	KindDone Kind = "done"
)

// Intent is one parsed directive. Deadline is only set for goals that carried
// a `| DEADLINE: …` suffix.
type Intent struct {
	Kind     Kind
	Text     string
	Deadline string
}

// The grammar is a fixed list of (kind, tag pattern) rules evaluated in
// order, which also fixes the dispatch order: facts, then goals, then
// completions. Tags are case-insensitive and match non-greedily up to the
// closing bracket.
type rule struct {
	kind Kind
	re   *regexp.Regexp
}

var rules = []rule{
	{KindFact, regexp.MustCompile(`(?i)\[REMEMBER:\s*([^\]]*?)\s*\]`)},
	{KindGoal, regexp.MustCompile(`(?i)\[GOAL:\s*([^\]]*?)\s*\]`)},
	{KindDone, regexp.MustCompile(`(?i)\[DONE:\s*([^\]]*?)\s*\]`)},
}

var deadlineRe = regexp.MustCompile(`(?i)^(.*?)\s*\|\s*DEADLINE:\s*(.*)$`)

// Extract scans text for all directive tags and returns the parsed intents
// plus the residual text with every match removed and surrounding whitespace
// trimmed. Running Extract on already-cleaned text is a no-op.
func Extract(text string) ([]Intent, string) {
	var intents []Intent
	residual := text
	for _, r := range rules {
		for _, match := range r.re.FindAllStringSubmatch(residual, -1) {
			payload := strings.TrimSpace(match[1])
			if payload == "" {
				continue
			}
			intents = append(intents, parsePayload(r.kind, payload))
		}
		residual = r.re.ReplaceAllString(residual, "")
	}
	return intents, strings.TrimSpace(residual)
}

func parsePayload(kind Kind, payload string) Intent {
	intent := Intent{Kind: kind, Text: payload}
	if kind != KindGoal {
		return intent
	}
	if m := deadlineRe.FindStringSubmatch(payload); m != nil {
		intent.Text = strings.TrimSpace(m[1])
		intent.Deadline = strings.TrimSpace(m[2])
	}
	return intent
}
