package mapper

import (
	"paperchat-be/internal/entity"
	"paperchat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatTurnMapper struct{}

func NewChatTurnMapper() *ChatTurnMapper {
	return &ChatTurnMapper{}
}

func (m *ChatTurnMapper) ToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}
	cited := []int(t.CitedIds)
	if cited == nil {
		cited = []int{}
	}
	return &entity.ChatTurn{
		Id:         t.Id,
		SessionId:  t.SessionId,
		UserId:     t.UserId,
		DocumentId: t.DocumentId,
		Kind:       t.Kind,
		Query:      t.Query,
		Content:    t.Content,
		RawContent: t.RawContent,
		Reason:     t.Reason,
		CitedIds:   cited,
		CreatedAt:  t.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}
	return &model.ChatTurn{
		Id:         t.Id,
		SessionId:  t.SessionId,
		UserId:     t.UserId,
		DocumentId: t.DocumentId,
		Kind:       t.Kind,
		Query:      t.Query,
		Content:    t.Content,
		RawContent: t.RawContent,
		Reason:     t.Reason,
		CitedIds:   datatypes.JSONSlice[int](t.CitedIds),
		CreatedAt:  t.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToEntities(models []*model.ChatTurn) []*entity.ChatTurn {
	out := make([]*entity.ChatTurn, len(models))
	for i, t := range models {
		out[i] = m.ToEntity(t)
	}
	return out
}
