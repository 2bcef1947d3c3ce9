package service

import (
	"context"
	"errors"

	"paperchat-be/internal/dto"
	"paperchat-be/internal/mapper"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/pkg/serverutils"
	"paperchat-be/internal/repository/memory"
	"paperchat-be/internal/repository/specification"
	"paperchat-be/internal/repository/unitofwork"
	"paperchat-be/pkg/rag/citation"
	"paperchat-be/pkg/rag/conversation"
	"paperchat-be/pkg/rag/orchestrator"

	"github.com/google/uuid"
)

const maxListedDocuments = 100

type IChatService interface {
	CreateSession(ctx context.Context, userId string) (*dto.CreateSessionResponse, error)
	SelectDocument(ctx context.Context, userId string, sessionId string, req *dto.SelectDocumentRequest) (*dto.SelectDocumentResponse, error)
	ResetSession(ctx context.Context, userId string, sessionId string) error
	SendMessage(ctx context.Context, userId string, sessionId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetMessages(ctx context.Context, userId string, sessionId string) (*dto.MessagesResponse, error)
	GetArchive(ctx context.Context, userId string, sessionId string) ([]*dto.ArchivedTurnResponse, error)
	DeleteSession(ctx context.Context, userId string, sessionId string) error
	ListDocuments(ctx context.Context, title string) ([]*dto.DocumentResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionRepo    *memory.SessionRepository
	orchestrator   *orchestrator.Orchestrator
	documentMapper *mapper.DocumentMapper
	logger         logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	orchestrator *orchestrator.Orchestrator,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		sessionRepo:    sessionRepo,
		orchestrator:   orchestrator,
		documentMapper: mapper.NewDocumentMapper(),
		logger:         logger,
	}
}

func (c *chatService) CreateSession(ctx context.Context, userId string) (*dto.CreateSessionResponse, error) {
	session := conversation.NewSession(userId)
	c.sessionRepo.Save(session)

	c.logger.Info("ChatService", "Session created", map[string]interface{}{
		"session_id": session.ID.String(),
		"user_id":    userId,
	})

	return &dto.CreateSessionResponse{Id: session.ID, CreatedAt: session.CreatedAt}, nil
}

// loadSession returns the caller's session. Sessions of other users are reported as missing.
func (c *chatService) loadSession(userId, sessionId string) (*conversation.Session, error) {
	session, found := c.sessionRepo.Get(sessionId)
	if !found || session.UserID != userId {
		return nil, serverutils.NotFound("Session not found")
	}
	return session, nil
}

func (c *chatService) SelectDocument(ctx context.Context, userId string, sessionId string, req *dto.SelectDocumentRequest) (*dto.SelectDocumentResponse, error) {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return nil, err
	}

	documentId, err := uuid.Parse(req.DocumentId)
	if err != nil {
		return nil, serverutils.BadRequest("Invalid document id", err)
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.WithChunks{},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, serverutils.NotFound("Document not found")
	}

	cleared, err := session.SwitchDocument(c.documentMapper.ToStore(document))
	if err != nil {
		return nil, mapTurnError(err)
	}

	c.logger.Info("ChatService", "Active document selected", map[string]interface{}{
		"session_id":  sessionId,
		"document_id": document.Id.String(),
		"cleared":     cleared,
	})

	return &dto.SelectDocumentResponse{
		SessionId:  session.ID,
		DocumentId: document.Id.String(),
		Title:      document.Title,
		Cleared:    cleared,
	}, nil
}

func (c *chatService) ResetSession(ctx context.Context, userId string, sessionId string) error {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return err
	}
	if err := session.Reset(); err != nil {
		return mapTurnError(err)
	}
	return nil
}

func (c *chatService) SendMessage(ctx context.Context, userId string, sessionId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return nil, err
	}

	outcome, err := c.orchestrator.Submit(ctx, session, req.Query)
	if err != nil {
		return nil, mapTurnError(err)
	}

	return &dto.SendMessageResponse{
		SessionId: session.ID,
		Sent:      c.toTurnResponse(outcome.User),
		Reply:     c.toTurnResponse(outcome.Reply),
		Rebuilt:   outcome.Rebuilt,
	}, nil
}

func (c *chatService) GetMessages(ctx context.Context, userId string, sessionId string) (*dto.MessagesResponse, error) {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return nil, err
	}

	state := session.State()
	turns := state.Turns()
	res := &dto.MessagesResponse{
		SessionId:  session.ID,
		DocumentId: state.DocumentID(),
		Turns:      make([]*dto.TurnResponse, len(turns)),
	}
	for i, t := range turns {
		res.Turns[i] = c.toTurnResponse(t)
	}
	return res, nil
}

func (c *chatService) GetArchive(ctx context.Context, userId string, sessionId string) ([]*dto.ArchivedTurnResponse, error) {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return nil, err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	turns, err := uow.ChatTurnRepository().FindAll(ctx, specification.BySessionID{SessionID: session.ID})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ArchivedTurnResponse, len(turns))
	for i, t := range turns {
		res[i] = &dto.ArchivedTurnResponse{
			Id:         t.Id,
			Kind:       t.Kind,
			Query:      t.Query,
			Content:    t.Content,
			CitedIds:   t.CitedIds,
			Reason:     t.Reason,
			DocumentId: t.DocumentId,
			CreatedAt:  t.CreatedAt,
		}
	}
	return res, nil
}

func (c *chatService) DeleteSession(ctx context.Context, userId string, sessionId string) error {
	session, err := c.loadSession(userId, sessionId)
	if err != nil {
		return err
	}

	release, err := session.BeginTurn()
	if err != nil {
		return mapTurnError(err)
	}
	defer release()

	c.sessionRepo.Delete(sessionId)

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatTurnRepository().DeleteBySessionId(ctx, session.ID); err != nil {
		c.logger.Warn("ChatService", "Failed to purge archived turns", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	return nil
}

func (c *chatService) ListDocuments(ctx context.Context, title string) ([]*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.TitleLike{Term: title},
		specification.WithChunkCount{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: maxListedDocuments},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, len(documents))
	for i, d := range documents {
		res[i] = &dto.DocumentResponse{
			Id:         d.Id,
			Title:      d.Title,
			SourceName: d.SourceName,
			PageCount:  d.PageCount,
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
		}
	}
	return res, nil
}

func (c *chatService) toTurnResponse(t conversation.Turn) *dto.TurnResponse {
	if t == nil {
		return nil
	}
	header := t.TurnHeader()
	res := &dto.TurnResponse{
		Id:        header.ID,
		Role:      t.Role(),
		Kind:      string(t.Kind()),
		Content:   t.Text(),
		Sources:   []dto.SourceDTO{},
		CreatedAt: header.CreatedAt,
	}

	switch turn := t.(type) {
	case conversation.AssistantTurn:
		res.RawContent = turn.RawContent
		html, err := citation.RenderHTML(turn.Content)
		if err != nil {
			c.logger.Warn("ChatService", "Failed to render answer", map[string]interface{}{"error": err.Error()})
		} else {
			res.ContentHTML = html
		}
		for i, p := range turn.Cited {
			res.Sources = append(res.Sources, dto.SourceDTO{
				Number:     i + 1,
				EvidenceId: p.ID,
				Page:       p.Page(),
				Text:       p.Text,
			})
		}
		res.SourcesMarkdown = citation.FormatSources(turn.Cited)
	case conversation.FaultedTurn:
		res.Faulted = true
		res.Reason = turn.Reason
	}
	return res
}

func mapTurnError(err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrTurnInProgress):
		return serverutils.Conflict("A message is still being answered for this session", err)
	case errors.Is(err, orchestrator.ErrNoActiveDocument):
		return serverutils.BadRequest("Select a document before asking a question", err)
	case errors.Is(err, orchestrator.ErrEmptyQuery):
		return serverutils.BadRequest("Query must not be empty", err)
	}
	return err
}
