package mapper

import (
	"sort"
	"time"

	"paperchat-be/internal/entity"
	"paperchat-be/internal/model"
	"paperchat-be/pkg/store"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	chunks := make([]*entity.DocumentChunk, len(d.Chunks))
	for i := range d.Chunks {
		chunks[i] = m.ChunkToEntity(&d.Chunks[i])
	}
	chunkCount := d.ChunkCount
	if len(chunks) > chunkCount {
		chunkCount = len(chunks)
	}

	return &entity.Document{
		Id:         d.Id,
		Title:      d.Title,
		SourceName: d.SourceName,
		PageCount:  d.PageCount,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		ChunkCount: chunkCount,
		Chunks:     chunks,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	chunks := make([]model.DocumentChunk, len(d.Chunks))
	for i, c := range d.Chunks {
		chunks[i] = *m.ChunkToModel(c)
	}

	return &model.Document{
		Id:         d.Id,
		Title:      d.Title,
		SourceName: d.SourceName,
		PageCount:  d.PageCount,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		Chunks:     chunks,
	}
}

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		Ordinal:    c.Ordinal,
		Page:       c.Page,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		Ordinal:    c.Ordinal,
		Page:       c.Page,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

// ToStore converts an entity into the form the RAG pipeline reads.
// Chunks are ordered by ordinal.
func (m *DocumentMapper) ToStore(d *entity.Document) *store.Document {
	if d == nil {
		return nil
	}
	chunks := make([]store.Chunk, 0, len(d.Chunks))
	for _, c := range d.Chunks {
		if c == nil {
			continue
		}
		chunks = append(chunks, store.Chunk{Ordinal: c.Ordinal, Page: c.Page, Text: c.Content})
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Ordinal < chunks[j].Ordinal })

	return &store.Document{
		ID:     d.Id.String(),
		Title:  d.Title,
		Chunks: chunks,
		Metadata: map[string]interface{}{
			"source_name": d.SourceName,
			"page_count":  d.PageCount,
		},
	}
}
