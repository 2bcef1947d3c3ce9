package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type SelectDocumentRequest struct {
	DocumentId string `json:"document_id" validate:"required,uuid"`
}

type SelectDocumentResponse struct {
	SessionId  uuid.UUID `json:"session_id"`
	DocumentId string    `json:"document_id"`
	Title      string    `json:"title"`
	Cleared    bool      `json:"cleared"`
}

type SendMessageRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

type SourceDTO struct {
	Number     int    `json:"number"` // anchor number in the answer
	EvidenceId int    `json:"evidence_id"`
	Page       int    `json:"page,omitempty"`
	Text       string `json:"text"`
}

type TurnResponse struct {
	Id              uuid.UUID   `json:"id"`
	Role            string      `json:"role"`
	Kind            string      `json:"kind"`
	Content         string      `json:"content"`
	ContentHTML     string      `json:"content_html,omitempty"`
	RawContent      string      `json:"raw_content,omitempty"`
	Sources         []SourceDTO `json:"sources"`
	SourcesMarkdown string      `json:"sources_markdown,omitempty"`
	Faulted         bool        `json:"faulted"`
	Reason          string      `json:"reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

type SendMessageResponse struct {
	SessionId uuid.UUID     `json:"session_id"`
	Sent      *TurnResponse `json:"sent"`
	Reply     *TurnResponse `json:"reply"`
	Rebuilt   bool          `json:"pipeline_rebuilt"`
}

type MessagesResponse struct {
	SessionId  uuid.UUID       `json:"session_id"`
	DocumentId string          `json:"document_id,omitempty"`
	Turns      []*TurnResponse `json:"turns"`
}

type DocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	SourceName string    `json:"source_name,omitempty"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type ArchivedTurnResponse struct {
	Id         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Query      string    `json:"query"`
	Content    string    `json:"content"`
	CitedIds   []int     `json:"cited_ids"`
	Reason     string    `json:"reason,omitempty"`
	DocumentId string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}
