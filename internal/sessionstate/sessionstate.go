// Package sessionstate persists the pointer to the agent's current
// conversation session so the relay can resume it across restarts.
package sessionstate

import (
	"time"

	"github.com/diegovelezg/claude-telegram-relay/internal/statefile"
)

// State is the durable record of the current conversation. A zero SessionID
// means no prior session exists and the next invocation starts fresh.
type State struct {
	SessionID    string    `json:"session_id,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the last saved state. A missing, empty, or corrupt file yields
// a fresh empty state; corruption is "no prior session", never an error.
func (s *Store) Load() State {
	var st State
	if found, err := statefile.ReadJSON(s.path, &st); err != nil || !found {
		return State{}
	}
	return st
}

// Save overwrites the persisted record atomically.
func (s *Store) Save(st State) error {
	return statefile.WriteJSON(s.path, st)
}
