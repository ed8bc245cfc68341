package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talehub/internal/models"
)

type storyRepository struct {
	db *sqlx.DB
}

func NewStoryRepository(db *sqlx.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if story.StoryID == "" {
		story.StoryID = uuid.New().String()
	}

	now := time.Now()
	story.CreatedAt = now
	story.UpdatedAt = now

	query := `
		INSERT INTO stories
		(story_id, title, content, story_type, audio_url, audio_duration,
		 cover_image_url, description, genre, language, main_characters,
		 locality_id, author_id, status, created_at, updated_at)
		VALUES
		(:story_id, :title, :content, :story_type, :audio_url, :audio_duration,
		 :cover_image_url, :description, :genre, :language, :main_characters,
		 :locality_id, :author_id, :status, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, story)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}

	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, storyID string) (*models.Story, error) {
	query := `
		SELECT s.*, COALESCE(l.name, 'Unknown') AS locality_name,
			COALESCE(p.full_name, 'Anonymous') AS author_name
		FROM stories s
		LEFT JOIN localities l ON l.locality_id = s.locality_id
		LEFT JOIN profiles p ON p.profile_id = s.author_id
		WHERE s.story_id = $1 AND s.deleted_at IS NULL
	`

	var story models.Story
	err := r.db.GetContext(ctx, &story, query, storyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	return &story, nil
}

func (r *storyRepository) ListByLocality(ctx context.Context, localityID, status string, limit, offset int) ([]models.Story, error) {
	query := `
		SELECT s.*, COALESCE(l.name, 'Unknown') AS locality_name,
			COALESCE(p.full_name, 'Anonymous') AS author_name
		FROM stories s
		LEFT JOIN localities l ON l.locality_id = s.locality_id
		LEFT JOIN profiles p ON p.profile_id = s.author_id
		WHERE s.locality_id = $1 AND s.status = $2 AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC
		LIMIT $3 OFFSET $4
	`

	var stories []models.Story
	err := r.db.SelectContext(ctx, &stories, query, localityID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories by locality: %w", err)
	}

	return stories, nil
}

func (r *storyRepository) ListByAuthor(ctx context.Context, authorID, status string) ([]models.Story, error) {
	var stories []models.Story
	var err error

	if status == "" {
		query := `
			SELECT s.*, COALESCE(l.name, 'Unknown') AS locality_name
			FROM stories s
			LEFT JOIN localities l ON l.locality_id = s.locality_id
			WHERE s.author_id = $1 AND s.deleted_at IS NULL
			ORDER BY s.created_at DESC
		`
		err = r.db.SelectContext(ctx, &stories, query, authorID)
	} else {
		query := `
			SELECT s.*, COALESCE(l.name, 'Unknown') AS locality_name
			FROM stories s
			LEFT JOIN localities l ON l.locality_id = s.locality_id
			WHERE s.author_id = $1 AND s.status = $2 AND s.deleted_at IS NULL
			ORDER BY s.created_at DESC
		`
		err = r.db.SelectContext(ctx, &stories, query, authorID, status)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list stories by author: %w", err)
	}

	return stories, nil
}

// ListPending returns stories awaiting review, oldest first so the
// earliest submission is reviewed first.
func (r *storyRepository) ListPending(ctx context.Context) ([]models.Story, error) {
	query := `
		SELECT s.*, COALESCE(l.name, 'Unknown') AS locality_name,
			COALESCE(p.full_name, 'Anonymous') AS author_name
		FROM stories s
		LEFT JOIN localities l ON l.locality_id = s.locality_id
		LEFT JOIN profiles p ON p.profile_id = s.author_id
		WHERE s.status = 'pending' AND s.deleted_at IS NULL
		ORDER BY s.created_at ASC
	`

	var stories []models.Story
	err := r.db.SelectContext(ctx, &stories, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending stories: %w", err)
	}

	return stories, nil
}

// UpdateModeration stamps the reviewer and writes the new status. The
// update is structurally capable of overwriting a previous moderation
// decision; callers gate which statuses are accepted.
func (r *storyRepository) UpdateModeration(ctx context.Context, storyID, status, moderatorID string, notes *string) error {
	query := `
		UPDATE stories SET
			status = $1,
			moderator_id = $2,
			moderator_notes = $3,
			moderated_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE story_id = $4 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, status, moderatorID, notes, storyID)
	if err != nil {
		return fmt.Errorf("failed to moderate story: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}

	return nil
}

func (r *storyRepository) SoftDelete(ctx context.Context, storyID, deletedBy string) error {
	query := `
		UPDATE stories
		SET deleted_at = CURRENT_TIMESTAMP, deleted_by = $1
		WHERE story_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, deletedBy, storyID)
	if err != nil {
		return fmt.Errorf("failed to soft delete story: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}

	return nil
}

func (r *storyRepository) SoftDeleteByAuthor(ctx context.Context, authorID, deletedBy string) error {
	query := `
		UPDATE stories
		SET deleted_at = CURRENT_TIMESTAMP, deleted_by = $1
		WHERE author_id = $2 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, deletedBy, authorID)
	if err != nil {
		return fmt.Errorf("failed to soft delete author stories: %w", err)
	}

	return nil
}

func (r *storyRepository) GetAuthorStats(ctx context.Context, authorID string) (*models.StorytellerStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
		FROM stories
		WHERE author_id = $1 AND deleted_at IS NULL
	`

	var stats models.StorytellerStats
	err := r.db.GetContext(ctx, &stats, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author stats: %w", err)
	}

	return &stats, nil
}

// GetAuthorStatsBulk returns per-author status counts for all the given
// authors in one grouped query. Authors with no stories have no row and
// are simply absent from the map.
func (r *storyRepository) GetAuthorStatsBulk(ctx context.Context, authorIDs []string) (map[string]models.StorytellerStats, error) {
	stats := make(map[string]models.StorytellerStats, len(authorIDs))
	if len(authorIDs) == 0 {
		return stats, nil
	}

	query, args, err := sqlx.In(`
		SELECT author_id,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
		FROM stories
		WHERE author_id IN (?) AND deleted_at IS NULL
		GROUP BY author_id
	`, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build author stats query: %w", err)
	}

	var rows []struct {
		AuthorID string `db:"author_id"`
		models.StorytellerStats
	}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get author stats: %w", err)
	}

	for _, row := range rows {
		stats[row.AuthorID] = row.StorytellerStats
	}

	return stats, nil
}

// GetModeratorStatsBulk aggregates review activity per moderator over
// the stories they have approved or rejected.
func (r *storyRepository) GetModeratorStatsBulk(ctx context.Context, moderatorIDs []string) (map[string]models.ModeratorStats, error) {
	stats := make(map[string]models.ModeratorStats, len(moderatorIDs))
	if len(moderatorIDs) == 0 {
		return stats, nil
	}

	query, args, err := sqlx.In(`
		SELECT moderator_id,
			COUNT(*) AS reviewed,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
			MAX(moderated_at) AS last_activity
		FROM stories
		WHERE moderator_id IN (?)
		AND status IN ('approved', 'rejected')
		AND deleted_at IS NULL
		GROUP BY moderator_id
	`, moderatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build moderator stats query: %w", err)
	}

	var rows []struct {
		ModeratorID string `db:"moderator_id"`
		models.ModeratorStats
	}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get moderator stats: %w", err)
	}

	for _, row := range rows {
		stats[row.ModeratorID] = row.ModeratorStats
	}

	return stats, nil
}

func (r *storyRepository) ListModeratedBy(ctx context.Context, moderatorID string, limit int) ([]models.ModeratorActivity, error) {
	query := `
		SELECT s.story_id, s.title, s.status, s.moderated_at, s.moderator_id,
			COALESCE(p.full_name, 'Unknown') AS author_name
		FROM stories s
		LEFT JOIN profiles p ON p.profile_id = s.author_id
		WHERE s.moderator_id = $1
		AND s.status IN ('approved', 'rejected')
		AND s.deleted_at IS NULL
		ORDER BY s.moderated_at DESC
		LIMIT $2
	`

	var activity []models.ModeratorActivity
	err := r.db.SelectContext(ctx, &activity, query, moderatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderator activity: %w", err)
	}

	return activity, nil
}
