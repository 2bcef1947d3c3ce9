package specification

import (
	"strings"

	"gorm.io/gorm"
)

// WithChunks preloads the chunks of a document in ordinal order
type WithChunks struct{}

func (s WithChunks) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Chunks", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal ASC")
	})
}

// WithChunkCount selects the number of chunks of each document as chunk_count
// without loading them.
type WithChunkCount struct{}

func (s WithChunkCount) Apply(db *gorm.DB) *gorm.DB {
	return db.Select("documents.*, (SELECT COUNT(*) FROM document_chunks dc WHERE dc.document_id = documents.id) AS chunk_count")
}

// TitleLike matches documents whose title contains Term, case-insensitively
type TitleLike struct {
	Term string
}

func (s TitleLike) Apply(db *gorm.DB) *gorm.DB {
	term := strings.TrimSpace(s.Term)
	if term == "" {
		return db
	}
	return db.Where("title ILIKE ?", "%"+term+"%")
}
