package events

import "time"

const (
	TypeTurnAppended = "chat.turn.appended"
	TypeTurnFaulted  = "chat.turn.faulted"
)

// TurnRecord describes a finished turn for downstream consumers.
type TurnRecord struct {
	SessionID  string
	UserID     string
	DocumentID string
	TurnID     string
	Query      string
	Content    string
	RawContent string
	CitedIDs   []int
	Reason     string
}

func (r TurnRecord) payload() map[string]interface{} {
	cited := r.CitedIDs
	if cited == nil {
		cited = []int{}
	}
	return map[string]interface{}{
		"session_id":  r.SessionID,
		"user_id":     r.UserID,
		"document_id": r.DocumentID,
		"turn_id":     r.TurnID,
		"query":       r.Query,
		"content":     r.Content,
		"raw_content": r.RawContent,
		"cited_ids":   cited,
		"reason":      r.Reason,
	}
}

func NewTurnAppended(r TurnRecord, at time.Time) BaseEvent {
	return BaseEvent{Type: TypeTurnAppended, Data: r.payload(), OccurredAt: at}
}

func NewTurnFaulted(r TurnRecord, at time.Time) BaseEvent {
	return BaseEvent{Type: TypeTurnFaulted, Data: r.payload(), OccurredAt: at}
}
