package conversation

import (
	"errors"
	"sync"
)

var ErrNilTurn = errors.New("cannot append a nil turn")

// State is the append-only turn log for one active document.
type State struct {
	mu         sync.RWMutex
	documentID string
	turns      []Turn
}

func NewState(documentID string) *State {
	return &State{documentID: documentID, turns: make([]Turn, 0)}
}

// Append adds t to the end of the log and returns its position.
func (s *State) Append(t Turn) (int, error) {
	if t == nil {
		return -1, ErrNilTurn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, cloneTurn(t))
	return len(s.turns) - 1, nil
}

// Turns returns a snapshot of the log in append order.
func (s *State) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = cloneTurn(t)
	}
	return out
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Last returns the most recent turn.
func (s *State) Last() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return nil, false
	}
	return cloneTurn(s.turns[len(s.turns)-1]), true
}

func (s *State) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}

// restart drops every turn and scopes the log to documentID.
func (s *State) restart(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = documentID
	s.turns = make([]Turn, 0)
}
