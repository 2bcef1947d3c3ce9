package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"paperchat-be/internal/dto"
	"paperchat-be/internal/entity"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/pkg/serverutils"
	"paperchat-be/internal/repository/memory"
	"paperchat-be/pkg/rag/citation"
	"paperchat-be/pkg/rag/evidence"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/orchestrator"
	"paperchat-be/pkg/rag/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	answer string
	err    error
	gate   chan struct{}
}

func (p *stubPipeline) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	if p.gate != nil {
		<-p.gate
	}
	if p.err != nil {
		return nil, p.err
	}
	set := evidence.MustSet(
		evidence.Passage{ID: 1, Text: req.Document.Chunks[0].Text, Metadata: map[string]interface{}{"page": 2}},
	)
	return &pipeline.Result{Answer: p.answer, Evidence: set}, nil
}

type chatFixture struct {
	store    *memoryStore
	pipe     *stubPipeline
	service  IChatService
	document *entity.Document
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	doc := &entity.Document{
		Id:        uuid.New(),
		Title:     "Annual Report",
		PageCount: 4,
		CreatedAt: time.Now(),
		Chunks: []*entity.DocumentChunk{
			{Id: uuid.New(), Ordinal: 0, Page: 2, Content: "Revenue rose 10% year over year."},
		},
	}
	store := &memoryStore{documents: []*entity.Document{doc}}
	pipe := &stubPipeline{answer: "Revenue grew **10%** [1]."}

	factory := pipeline.FactoryFunc(func(ctx context.Context, cfg modelconfig.Config) (pipeline.Pipeline, error) {
		return pipe, nil
	})
	orch := orchestrator.New(
		modelconfig.NewStaticSource(modelconfig.Config{Provider: "ollama", Model: "llama3"}),
		factory,
		logger.NewNopLogger(),
	)

	svc := NewChatService(fakeFactory{store: store}, memory.NewSessionRepository(time.Minute), orch, logger.NewNopLogger())
	return &chatFixture{store: store, pipe: pipe, service: svc, document: doc}
}

func (f *chatFixture) sessionWithDocument(t *testing.T, userId string) string {
	t.Helper()
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx, userId)
	require.NoError(t, err)

	_, err = f.service.SelectDocument(ctx, userId, created.Id.String(), &dto.SelectDocumentRequest{DocumentId: f.document.Id.String()})
	require.NoError(t, err)
	return created.Id.String()
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestChatService_SendMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionId := f.sessionWithDocument(t, "user-1")

	res, err := f.service.SendMessage(ctx, "user-1", sessionId, &dto.SendMessageRequest{Query: "How did revenue change?"})
	require.NoError(t, err)

	assert.True(t, res.Rebuilt)
	assert.Equal(t, "user", res.Sent.Role)
	assert.Equal(t, "Revenue grew **10%** "+citation.Anchor(1)+".", res.Reply.Content)
	assert.Equal(t, "Revenue grew **10%** [1].", res.Reply.RawContent)
	assert.Contains(t, res.Reply.ContentHTML, "<strong>10%</strong>")
	assert.False(t, res.Reply.Faulted)
	require.Len(t, res.Reply.Sources, 1)
	assert.Equal(t, dto.SourceDTO{Number: 1, EvidenceId: 1, Page: 2, Text: "Revenue rose 10% year over year."}, res.Reply.Sources[0])
	assert.NotEmpty(t, res.Reply.SourcesMarkdown)

	messages, err := f.service.GetMessages(ctx, "user-1", sessionId)
	require.NoError(t, err)
	assert.Equal(t, f.document.Id.String(), messages.DocumentId)
	require.Len(t, messages.Turns, 2)
	assert.Equal(t, "assistant", messages.Turns[1].Kind)
}

func TestChatService_FaultedReply(t *testing.T) {
	f := newChatFixture(t)
	f.pipe.err = errors.New("connection refused")
	sessionId := f.sessionWithDocument(t, "user-1")

	res, err := f.service.SendMessage(context.Background(), "user-1", sessionId, &dto.SendMessageRequest{Query: "q"})
	require.NoError(t, err)
	assert.True(t, res.Reply.Faulted)
	assert.Equal(t, "provider", res.Reply.Reason)
	assert.Equal(t, "Error: connection refused", res.Reply.Content)
	assert.Empty(t, res.Reply.Sources)
}

func TestChatService_Preconditions(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx, "user-1")
	require.NoError(t, err)
	sessionId := created.Id.String()

	_, err = f.service.SendMessage(ctx, "user-1", sessionId, &dto.SendMessageRequest{Query: "q"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.service.SendMessage(ctx, "someone-else", sessionId, &dto.SendMessageRequest{Query: "q"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.service.SelectDocument(ctx, "user-1", sessionId, &dto.SelectDocumentRequest{DocumentId: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	messages, err := f.service.GetMessages(ctx, "user-1", sessionId)
	require.NoError(t, err)
	assert.Empty(t, messages.Turns)
}

func TestChatService_BusySessionConflicts(t *testing.T) {
	f := newChatFixture(t)
	f.pipe.gate = make(chan struct{})
	ctx := context.Background()
	sessionId := f.sessionWithDocument(t, "user-1")

	done := make(chan error, 1)
	go func() {
		_, err := f.service.SendMessage(ctx, "user-1", sessionId, &dto.SendMessageRequest{Query: "first"})
		done <- err
	}()

	// the user turn is appended before retrieval starts
	require.Eventually(t, func() bool {
		messages, err := f.service.GetMessages(ctx, "user-1", sessionId)
		return err == nil && len(messages.Turns) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.service.SendMessage(ctx, "user-1", sessionId, &dto.SendMessageRequest{Query: "second"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Equal(t, http.StatusConflict, statusOf(t, f.service.ResetSession(ctx, "user-1", sessionId)))

	close(f.pipe.gate)
	require.NoError(t, <-done)
}

func TestChatService_ResetAndDelete(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionId := f.sessionWithDocument(t, "user-1")

	_, err := f.service.SendMessage(ctx, "user-1", sessionId, &dto.SendMessageRequest{Query: "q"})
	require.NoError(t, err)

	require.NoError(t, f.service.ResetSession(ctx, "user-1", sessionId))
	messages, err := f.service.GetMessages(ctx, "user-1", sessionId)
	require.NoError(t, err)
	assert.Empty(t, messages.Turns)

	sid := uuid.MustParse(sessionId)
	f.store.turns = append(f.store.turns, &entity.ChatTurn{Id: uuid.New(), SessionId: sid, Kind: "assistant"})

	archive, err := f.service.GetArchive(ctx, "user-1", sessionId)
	require.NoError(t, err)
	assert.Len(t, archive, 1)

	require.NoError(t, f.service.DeleteSession(ctx, "user-1", sessionId))
	assert.Empty(t, f.store.archived())

	_, err = f.service.GetMessages(ctx, "user-1", sessionId)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestChatService_ListDocuments(t *testing.T) {
	f := newChatFixture(t)

	docs, err := f.service.ListDocuments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Annual Report", docs[0].Title)
	assert.Equal(t, 1, docs[0].ChunkCount)
}
