package contract

import (
	"context"

	"paperchat-be/internal/entity"
	"paperchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	// Create stores the document together with its chunks.
	Create(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
