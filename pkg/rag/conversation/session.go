package conversation

import (
	"errors"
	"sync"
	"time"

	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/pipeline"
	"paperchat-be/pkg/store"

	"github.com/google/uuid"
)

var ErrTurnInProgress = errors.New("a turn is already in progress for this session")

// Binding is the pipeline instance a session is using and the configuration it was built from.
type Binding struct {
	Config   modelconfig.Config
	Pipeline pipeline.Pipeline
}

// Session holds everything scoped to one user conversation: the active
// document, its turn log and the current pipeline binding.
type Session struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt time.Time

	// turn is held for the whole duration of a turn and by document switches and resets.
	turn sync.Mutex

	mu       sync.RWMutex
	document *store.Document
	state    *State
	binding  *Binding
}

func NewSession(userID string) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		state:     NewState(""),
	}
}

// BeginTurn claims the session for one turn. The returned release must be called
// once the turn reaches a terminal state.
func (s *Session) BeginTurn() (release func(), err error) {
	if !s.turn.TryLock() {
		return nil, ErrTurnInProgress
	}
	var once sync.Once
	return func() { once.Do(s.turn.Unlock) }, nil
}

func (s *Session) ActiveDocument() *store.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// SwitchDocument makes doc the active document. The turn log is cleared when the
// document identity changes; switching to the already active document keeps it.
func (s *Session) SwitchDocument(doc *store.Document) (cleared bool, err error) {
	if !s.turn.TryLock() {
		return false, ErrTurnInProgress
	}
	defer s.turn.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	newID := ""
	if doc != nil {
		newID = doc.ID
	}
	oldID := ""
	if s.document != nil {
		oldID = s.document.ID
	}
	s.document = doc
	if newID == oldID {
		return false, nil
	}
	s.state.restart(newID)
	return true, nil
}

// Reset clears the turn log and keeps the active document.
func (s *Session) Reset() error {
	if !s.turn.TryLock() {
		return ErrTurnInProgress
	}
	defer s.turn.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	docID := ""
	if s.document != nil {
		docID = s.document.ID
	}
	s.state.restart(docID)
	return nil
}

func (s *Session) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Binding returns the current pipeline binding, if any turn has built one.
func (s *Session) Binding() (Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.binding == nil {
		return Binding{}, false
	}
	return *s.binding, true
}

func (s *Session) Rebind(cfg modelconfig.Config, p pipeline.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = &Binding{Config: cfg, Pipeline: p}
}
