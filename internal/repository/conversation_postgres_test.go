package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/repository/testutil"
)

var conversationRowColumns = []string{"id", "scenario_id", "user_id", "conversation", "facial_expressions", "elapsed_time", "created_at"}

func TestConversationRepository_CreateAndGet(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	conversation := &domain.Conversation{
		ScenarioID:   "s1",
		UserID:       "u1",
		Conversation: domain.Transcript{{Role: domain.MessageRoleUser, Content: "Hello"}},
		ElapsedTime:  95,
	}

	mock.ExpectExec(`INSERT INTO conversations \(id, scenario_id, user_id, conversation, facial_expressions, elapsed_time, created_at\)`).
		WithArgs(sqlmock.AnyArg(), "s1", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), 95, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateConversation(context.Background(), conversation))
	assert.NotEmpty(t, conversation.ID)

	mock.ExpectQuery(`SELECT .* FROM conversations WHERE id = \$1`).WithArgs("cv1").
		WillReturnRows(sqlmock.NewRows(conversationRowColumns).AddRow(
			"cv1", "s1", "u1",
			[]byte(`[{"role":"user","content":"Hello"},{"role":"avatar","content":"Hi there"}]`),
			[]byte(`[{"emotions":{"happy":0.8}}]`),
			95, time.Now().UTC()))

	got, err := repo.GetConversation(context.Background(), "cv1")
	require.NoError(t, err)
	require.Len(t, got.Conversation, 2)
	assert.Equal(t, domain.MessageRoleAvatar, got.Conversation[1].Role)
	assert.InDelta(t, 0.8, got.FacialExpressions[0].Emotions["happy"], 0.001)
	assert.Equal(t, int64(95), got.ElapsedTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_ListConversations(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)

	mock.ExpectQuery(`SELECT .* FROM conversations WHERE scenario_id = \$1 AND user_id = \$2 ORDER BY created_at ASC`).
		WithArgs("s1", "u1").
		WillReturnRows(sqlmock.NewRows(conversationRowColumns).
			AddRow("cv1", "s1", "u1", nil, nil, 30, time.Now().UTC()))

	conversations, err := repo.ListConversations(context.Background(), domain.ConversationFilter{ScenarioID: "s1", UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, domain.Transcript{}, conversations[0].Conversation)

	mock.ExpectQuery(`FROM conversations WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(conversationRowColumns))
	conversations, err = repo.ListConversations(context.Background(), domain.ConversationFilter{IDs: []string{"cv1", "cv2"}})
	require.NoError(t, err)
	assert.Empty(t, conversations)

	conversations, err = repo.ListConversations(context.Background(), domain.ConversationFilter{IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, conversations)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_SumElapsed(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(elapsed_time\), 0\) FROM conversations WHERE scenario_id = \$1 AND user_id = \$2`).
		WithArgs("s1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(150))

	used, err := repo.SumElapsed(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 150*time.Second, used)

	mock.ExpectQuery(`SUM\(elapsed_time\)`).WillReturnError(errors.New("timeout"))
	_, err = repo.SumElapsed(context.Background(), "s1", "u1")
	assert.ErrorContains(t, err, "failed to sum elapsed time")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_DeleteConversation(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)

	mock.ExpectExec(`DELETE FROM conversations WHERE id = \$1`).WithArgs("cv1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteConversation(context.Background(), "cv1"))

	mock.ExpectExec(`DELETE FROM conversations WHERE id = \$1`).WithArgs("cv2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, domain.IsNotFound(repo.DeleteConversation(context.Background(), "cv2")))

	assert.NoError(t, mock.ExpectationsWereMet())
}
