package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talehub/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestStoryRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	content := "Once upon a time"
	story := &models.Story{
		Title:      "The River",
		Content:    &content,
		StoryType:  models.StoryTypeText,
		LocalityID: uuid.New().String(),
		AuthorID:   uuid.New().String(),
		Status:     models.StatusPending,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stories")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), story)

	assert.NoError(t, err)
	assert.NotEmpty(t, story.StoryID)
	assert.False(t, story.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_ListPending(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"story_id", "title", "story_type", "locality_id", "author_id",
		"status", "created_at", "updated_at", "locality_name", "author_name",
	}).
		AddRow("s1", "First submitted", "text", "l1", "a1", "pending", older, older, "Riverside", "Asha").
		AddRow("s2", "Second submitted", "audio", "l1", "a2", "pending", newer, newer, "Riverside", "Binta")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.status = 'pending' AND s.deleted_at IS NULL")).
		WillReturnRows(rows)

	stories, err := repo.ListPending(context.Background())

	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "First submitted", stories[0].Title)
	assert.Equal(t, "Asha", stories[0].AuthorName)
	assert.Equal(t, "Riverside", stories[0].LocalityName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_UpdateModeration(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	storyID := uuid.New().String()
	moderatorID := uuid.New().String()
	notes := "well told"

	t.Run("stamps moderator and status", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE stories SET")).
			WithArgs(models.StatusApproved, moderatorID, notes, storyID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateModeration(context.Background(), storyID, models.StatusApproved, moderatorID, &notes)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing story returns ErrNotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE stories SET")).
			WithArgs(models.StatusRejected, moderatorID, nil, storyID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateModeration(context.Background(), storyID, models.StatusRejected, moderatorID, nil)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoryRepository_SoftDelete(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	storyID := uuid.New().String()
	adminID := uuid.New().String()

	t.Run("stamps deleted_at and deleted_by", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("SET deleted_at = CURRENT_TIMESTAMP, deleted_by = $1")).
			WithArgs(adminID, storyID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SoftDelete(context.Background(), storyID, adminID)

		assert.NoError(t, err)
	})

	t.Run("already deleted story returns ErrNotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("SET deleted_at = CURRENT_TIMESTAMP, deleted_by = $1")).
			WithArgs(adminID, storyID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDelete(context.Background(), storyID, adminID)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoryRepository_GetAuthorStats(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	authorID := uuid.New().String()

	rows := sqlmock.NewRows([]string{"approved", "pending", "rejected"}).AddRow(5, 2, 1)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stories")).
		WithArgs(authorID).
		WillReturnRows(rows)

	stats, err := repo.GetAuthorStats(context.Background(), authorID)

	require.NoError(t, err)
	assert.Equal(t, 5, stats.Approved)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Rejected)
}

func TestStoryRepository_GetAuthorStatsBulk(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	t.Run("counts are grouped per author", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"author_id", "approved", "pending", "rejected"}).
			AddRow("a1", 3, 1, 0)

		mock.ExpectQuery(regexp.QuoteMeta("GROUP BY author_id")).
			WithArgs("a1", "a2").
			WillReturnRows(rows)

		stats, err := repo.GetAuthorStatsBulk(context.Background(), []string{"a1", "a2"})

		require.NoError(t, err)
		require.Contains(t, stats, "a1")
		assert.Equal(t, 3, stats["a1"].Approved)
		assert.Equal(t, 1, stats["a1"].Pending)
		assert.NotContains(t, stats, "a2", "authors without stories have no row")
	})

	t.Run("no authors short-circuits without a query", func(t *testing.T) {
		stats, err := repo.GetAuthorStatsBulk(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestStoryRepository_GetModeratorStatsBulk(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewStoryRepository(sqlxDB)

	lastActivity := time.Now()
	rows := sqlmock.NewRows([]string{"moderator_id", "reviewed", "approved", "rejected", "last_activity"}).
		AddRow("mod-1", 5, 3, 2, lastActivity)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY moderator_id")).
		WithArgs("mod-1", "mod-2").
		WillReturnRows(rows)

	stats, err := repo.GetModeratorStatsBulk(context.Background(), []string{"mod-1", "mod-2"})

	require.NoError(t, err)
	require.Contains(t, stats, "mod-1")
	assert.Equal(t, 5, stats["mod-1"].StoriesReviewed)
	assert.Equal(t, 3, stats["mod-1"].StoriesApproved)
	assert.Equal(t, 2, stats["mod-1"].StoriesRejected)
	require.NotNil(t, stats["mod-1"].LastActivity)
	assert.NotContains(t, stats, "mod-2")
}
