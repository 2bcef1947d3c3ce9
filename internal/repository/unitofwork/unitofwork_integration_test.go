package unitofwork

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"paperchat-be/internal/entity"
	"paperchat-be/internal/model"
	"paperchat-be/internal/repository/specification"
	"paperchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationFactory(t *testing.T) RepositoryFactory {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, model.All()...))
	return NewRepositoryFactory(db)
}

func TestIntegration_DocumentWithChunks(t *testing.T) {
	factory := integrationFactory(t)
	ctx := context.Background()

	doc := &entity.Document{
		Id:        uuid.New(),
		Title:     "Integration " + uuid.NewString(),
		PageCount: 2,
	}
	for i, text := range []string{"second chunk", "first chunk"} {
		doc.Chunks = append(doc.Chunks, &entity.DocumentChunk{
			Id:      uuid.New(),
			Ordinal: 1 - i,
			Page:    1 + i,
			Content: text,
		})
	}

	require.NoError(t, Run(ctx, factory, func(uow UnitOfWork) error {
		return uow.DocumentRepository().Create(ctx, doc)
	}))
	t.Cleanup(func() {
		_ = factory.NewUnitOfWork(ctx).DocumentRepository().Delete(ctx, doc.Id)
	})

	found, err := factory.NewUnitOfWork(ctx).DocumentRepository().FindOne(ctx,
		specification.ByID{ID: doc.Id},
		specification.WithChunks{},
	)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Chunks, 2)
	assert.Equal(t, "first chunk", found.Chunks[0].Content)

	listed, err := factory.NewUnitOfWork(ctx).DocumentRepository().FindAll(ctx,
		specification.ByID{ID: doc.Id},
		specification.WithChunkCount{},
	)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 2, listed[0].ChunkCount)
	assert.Empty(t, listed[0].Chunks)
}

func TestIntegration_TurnArchive(t *testing.T) {
	factory := integrationFactory(t)
	ctx := context.Background()
	sessionId := uuid.New()

	for i, kind := range []string{"assistant", "faulted"} {
		turn := &entity.ChatTurn{
			Id:         uuid.New(),
			SessionId:  sessionId,
			UserId:     "user-1",
			DocumentId: "doc-1",
			Kind:       kind,
			CitedIds:   []int{i + 1},
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, Run(ctx, factory, func(uow UnitOfWork) error {
			return uow.ChatTurnRepository().Create(ctx, turn)
		}))
	}

	repo := factory.NewUnitOfWork(ctx).ChatTurnRepository()
	turns, err := repo.FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "assistant", turns[0].Kind)
	assert.Equal(t, []int{2}, turns[1].CitedIds)

	require.NoError(t, repo.DeleteBySessionId(ctx, sessionId))
	turns, err = repo.FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestIntegration_RunRollsBack(t *testing.T) {
	factory := integrationFactory(t)
	ctx := context.Background()
	sessionId := uuid.New()
	boom := errors.New("boom")

	err := Run(ctx, factory, func(uow UnitOfWork) error {
		if err := uow.ChatTurnRepository().Create(ctx, &entity.ChatTurn{Id: uuid.New(), SessionId: sessionId, Kind: "assistant", CitedIds: []int{}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	turns, err := factory.NewUnitOfWork(ctx).ChatTurnRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	require.NoError(t, err)
	assert.Empty(t, turns)
}
