package contract

import (
	"context"

	"paperchat-be/internal/entity"
	"paperchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
