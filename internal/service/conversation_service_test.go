package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/pkg/logger"
)

func transcript(lines ...string) domain.Transcript {
	t := domain.Transcript{}
	for i, l := range lines {
		role := domain.MessageRoleUser
		if i%2 == 1 {
			role = domain.MessageRoleAvatar
		}
		t = append(t, domain.Message{Role: role, Content: l})
	}
	return t
}

func setupConversationTest(t *testing.T) (*sessionTestDeps, *SessionService, *ConversationService) {
	deps, sessions := setupSessionTest(t, 10, 0)
	svc := NewConversationService(deps.conversations, deps.scenarios, mocks.NewMockUserRepository(gomock.NewController(t)), sessions, logger.NewTestLogger(t))
	return deps, sessions, svc
}

func TestConversationService_CreateConversation(t *testing.T) {
	t.Run("takes the pending session time", func(t *testing.T) {
		deps, sessions, svc := setupConversationTest(t)
		ctx := asUser("u1")

		_, err := sessions.Start(ctx, "s1", domain.SessionCheckpoint{})
		require.NoError(t, err)
		deps.clock = deps.clock.Add(95 * time.Second)

		deps.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c *domain.Conversation) error {
				assert.Equal(t, int64(95), c.ElapsedTime)
				assert.Equal(t, "u1", c.UserID)
				assert.NotNil(t, c.FacialExpressions)
				c.ID = "conv-1"
				return nil
			})

		got, err := svc.CreateConversation(ctx, "s1", domain.CreateConversationRequest{Conversation: transcript("hi", "hello")})
		require.NoError(t, err)
		assert.Equal(t, "conv-1", got.ID)

		state, err := deps.store.Get(context.Background(), "s1", "u1")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("explicit elapsed time wins and clears state", func(t *testing.T) {
		deps, sessions, svc := setupConversationTest(t)
		ctx := asUser("u1")
		_, err := sessions.Start(ctx, "s1", domain.SessionCheckpoint{})
		require.NoError(t, err)

		deps.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c *domain.Conversation) error {
				assert.Equal(t, int64(42), c.ElapsedTime)
				return nil
			})

		_, err = svc.CreateConversation(ctx, "s1", domain.CreateConversationRequest{Conversation: transcript("hi"), ElapsedTime: 42})
		require.NoError(t, err)

		state, err := deps.store.Get(context.Background(), "s1", "u1")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("failed insert keeps the session", func(t *testing.T) {
		deps, sessions, svc := setupConversationTest(t)
		ctx := asUser("u1")
		_, err := sessions.Start(ctx, "s1", domain.SessionCheckpoint{})
		require.NoError(t, err)

		deps.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(assert.AnError)
		_, err = svc.CreateConversation(ctx, "s1", domain.CreateConversationRequest{Conversation: transcript("hi")})
		assert.ErrorIs(t, err, assert.AnError)

		state, err := deps.store.Get(context.Background(), "s1", "u1")
		require.NoError(t, err)
		assert.NotNil(t, state)
	})

	t.Run("empty transcript", func(t *testing.T) {
		_, _, svc := setupConversationTest(t)
		_, err := svc.CreateConversation(asUser("u1"), "s1", domain.CreateConversationRequest{})
		assert.IsType(t, domain.ValidationError{}, err)
	})
}

func TestConversationService_ListConversations(t *testing.T) {
	deps, _, svc := setupConversationTest(t)
	deps.conversations.EXPECT().ListConversations(gomock.Any(), domain.ConversationFilter{ScenarioID: "s1", UserID: "u1"}).Return(nil, nil)
	_, err := svc.ListConversations(asUser("u1"), "s1")
	require.NoError(t, err)

	deps.conversations.EXPECT().ListConversations(gomock.Any(), domain.ConversationFilter{ScenarioID: "s1"}).Return(nil, nil)
	_, err = svc.ListConversations(asAdmin(), "s1")
	require.NoError(t, err)
}

func TestConversationService_GetConversation(t *testing.T) {
	deps, _, svc := setupConversationTest(t)
	deps.conversations.EXPECT().GetConversation(gomock.Any(), "conv-1").
		Return(&domain.Conversation{ID: "conv-1", ScenarioID: "s1", UserID: "u2"}, nil).Times(2)

	_, err := svc.GetConversation(asUser("u1"), "conv-1")
	assert.True(t, domain.IsNotFound(err))

	got, err := svc.GetConversation(asAdmin(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserID)
}

func TestConversationService_DeleteConversation(t *testing.T) {
	deps, _, svc := setupConversationTest(t)
	deps.conversations.EXPECT().DeleteConversation(gomock.Any(), "conv-1").Return(nil)
	require.NoError(t, svc.DeleteConversation(asAdmin(), "conv-1"))

	err := svc.DeleteConversation(asCompany("c1"), "conv-1")
	assert.IsType(t, &domain.PermissionError{}, err)
}

func TestConversationService_ExportConversations(t *testing.T) {
	deps, _, svc := setupConversationTest(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	deps.conversations.EXPECT().ListConversations(gomock.Any(), gomock.Any()).Return([]*domain.Conversation{
		{ID: "conv-1", UserID: "u1", CreatedAt: created, ElapsedTime: 60, Conversation: transcript("Hi, I'm calling about, well, pricing", "Sure")},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportConversations(asAdmin(), "s1", &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, conversationCSVColumns, records[0])
	assert.Equal(t, []string{"conv-1", "u1", "2024-05-01T09:00:00Z", "60", "1", "user", "Hi, I'm calling about, well, pricing", ""}, records[1])
	assert.Equal(t, "avatar", records[2][5])
}
