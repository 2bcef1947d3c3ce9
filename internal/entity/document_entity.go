package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id         uuid.UUID
	Title      string
	SourceName string
	PageCount  int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	ChunkCount int
	Chunks     []*DocumentChunk
}

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Ordinal    int
	Page       int
	Content    string
	CreatedAt  time.Time
}
