package conversation

import (
	"time"

	"paperchat-be/pkg/llm"
	"paperchat-be/pkg/rag/citation"
	"paperchat-be/pkg/rag/evidence"

	"github.com/google/uuid"
)

type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindFaulted   Kind = "faulted"
)

// Header identifies a turn in the log.
type Header struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func newHeader() Header {
	return Header{ID: uuid.New(), CreatedAt: time.Now().UTC()}
}

// Turn is one message of the conversation. The set of variants is closed:
// UserTurn, AssistantTurn and FaultedTurn.
type Turn interface {
	TurnHeader() Header
	Kind() Kind
	// Role is the speaker: faulted turns are spoken by the assistant.
	Role() string
	Text() string
	isTurn()
}

type UserTurn struct {
	Header
	Content string `json:"content"`
}

func NewUserTurn(content string) UserTurn {
	return UserTurn{Header: newHeader(), Content: content}
}

func (t UserTurn) TurnHeader() Header { return t.Header }
func (t UserTurn) Kind() Kind         { return KindUser }
func (t UserTurn) Role() string       { return llm.RoleUser }
func (t UserTurn) Text() string       { return t.Content }
func (UserTurn) isTurn()              {}

// AssistantTurn is a reconciled answer. Content is the display text and
// RawContent the model output it was derived from.
type AssistantTurn struct {
	Header
	Content    string             `json:"content"`
	RawContent string             `json:"raw_content"`
	Cited      []evidence.Passage `json:"cited"`
}

func NewAssistantTurn(answer citation.Answer, raw string) AssistantTurn {
	return AssistantTurn{
		Header:     newHeader(),
		Content:    answer.DisplayText,
		RawContent: raw,
		Cited:      clonePassages(answer.Cited),
	}
}

func (t AssistantTurn) TurnHeader() Header { return t.Header }
func (t AssistantTurn) Kind() Kind         { return KindAssistant }
func (t AssistantTurn) Role() string       { return llm.RoleAssistant }
func (t AssistantTurn) Text() string       { return t.Content }
func (AssistantTurn) isTurn()              {}

// FaultedTurn answers a user turn whose processing failed.
type FaultedTurn struct {
	Header
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func NewFaultedTurn(message, reason string) FaultedTurn {
	return FaultedTurn{Header: newHeader(), Message: message, Reason: reason}
}

func (t FaultedTurn) TurnHeader() Header { return t.Header }
func (t FaultedTurn) Kind() Kind         { return KindFaulted }
func (t FaultedTurn) Role() string       { return llm.RoleAssistant }
func (t FaultedTurn) Text() string       { return t.Message }
func (FaultedTurn) isTurn()              {}

// CitedEvidence returns a copy of the passages cited by t. Only assistant turns cite.
func CitedEvidence(t Turn) []evidence.Passage {
	if a, ok := t.(AssistantTurn); ok {
		return clonePassages(a.Cited)
	}
	return []evidence.Passage{}
}

func clonePassages(in []evidence.Passage) []evidence.Passage {
	if len(in) == 0 {
		return []evidence.Passage{}
	}
	out := make([]evidence.Passage, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneTurn(t Turn) Turn {
	if a, ok := t.(AssistantTurn); ok {
		a.Cited = clonePassages(a.Cited)
		return a
	}
	return t
}
