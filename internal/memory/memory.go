// Package memory implements the conversation memory store: the ordered
// record of completed turns for one session.
//
// The store is owned by the orchestrator and written exactly once per turn,
// after the turn fully resolves. Agent stages never hold a reference to it.
package memory

import (
	"strings"
	"sync"
	"time"
)

// Turn is one completed user-input/final-output pair.
type Turn struct {
	UserInput string
	Output    string
	At        time.Time
}

// Store is an append-only sequence of completed turns. Single writer, safe
// for concurrent reads.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns a copy of all completed turns in order. Never fails; empty
// on first call.
func (s *Store) Load() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Save appends one finalized turn. Callers must pass the turn's final
// output, never an intermediate marker.
func (s *Store) Save(userInput, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{
		UserInput: userInput,
		Output:    output,
		At:        time.Now().UTC(),
	})
}

// Len returns the number of completed turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear drops all turns.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Render formats turns as alternating User/Assistant lines for inclusion in
// a history-aware prompt.
func Render(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	for _, t := range turns {
		b.WriteString("User: ")
		b.WriteString(t.UserInput)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Output)
		b.WriteString("\n")
	}
	return b.String()
}
