package unitofwork

import (
	"context"

	"paperchat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	ChatTurnRepository() contract.ChatTurnRepository
}
