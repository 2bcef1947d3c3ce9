package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperchat-be/internal/dto"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archiveTopic = "CHAT_TURN_ARCHIVE"

func TestArchive_PublishAndConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	store := &memoryStore{}
	consumer := NewArchiveConsumerService(pubSub, archiveTopic, fakeFactory{store: store}, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	sessionId := uuid.New()
	turnId := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := events.NewTurnAppended(events.TurnRecord{
		SessionID:  sessionId.String(),
		UserID:     "user-1",
		DocumentID: "doc-1",
		TurnID:     turnId.String(),
		Query:      "q",
		Content:    "answer [^1]",
		RawContent: "answer [3]",
		CitedIDs:   []int{3},
	}, at)

	publisher := NewArchivePublisher(archiveTopic, pubSub)
	require.NoError(t, publisher.Publish(ctx, event))

	require.Eventually(t, func() bool { return len(store.archived()) == 1 }, time.Second, 5*time.Millisecond)

	turn := store.archived()[0]
	assert.Equal(t, turnId, turn.Id)
	assert.Equal(t, sessionId, turn.SessionId)
	assert.Equal(t, "assistant", turn.Kind)
	assert.Equal(t, []int{3}, turn.CitedIds)
	assert.True(t, at.Equal(turn.CreatedAt))
}

func TestToArchivedTurn(t *testing.T) {
	base := dto.TurnArchiveMessage{
		Type:      events.TypeTurnFaulted,
		SessionId: uuid.NewString(),
		TurnId:    uuid.NewString(),
		Reason:    "config",
	}

	turn, err := toArchivedTurn(base)
	require.NoError(t, err)
	assert.Equal(t, "faulted", turn.Kind)
	assert.Equal(t, []int{}, turn.CitedIds)
	assert.Equal(t, "config", turn.Reason)

	unknown := base
	unknown.Type = "chat.session.created"
	_, err = toArchivedTurn(unknown)
	assert.Error(t, err)

	badId := base
	badId.TurnId = "nope"
	_, err = toArchivedTurn(badId)
	assert.Error(t, err)
}

func TestArchive_StoreFailureIsRedelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	store := &memoryStore{createErr: errors.New("db down")}
	consumer := NewArchiveConsumerService(pubSub, archiveTopic, fakeFactory{store: store}, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	event := events.NewTurnFaulted(events.TurnRecord{SessionID: uuid.NewString(), TurnID: uuid.NewString(), Reason: "provider"}, time.Now())
	require.NoError(t, NewArchivePublisher(archiveTopic, pubSub).Publish(ctx, event))

	time.Sleep(20 * time.Millisecond)
	store.mu.Lock()
	store.createErr = nil
	store.mu.Unlock()

	require.Eventually(t, func() bool { return len(store.archived()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "faulted", store.archived()[0].Kind)
}
