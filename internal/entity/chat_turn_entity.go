package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is an archived conversation turn. Sessions live in memory; the archive
// keeps what was said, what the model produced and which passages were cited.
type ChatTurn struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	UserId     string
	DocumentId string
	Kind       string // "assistant" | "faulted"
	Query      string
	Content    string
	RawContent string
	Reason     string
	CitedIds   []int
	CreatedAt  time.Time
}
