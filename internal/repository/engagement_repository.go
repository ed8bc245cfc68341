package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"talehub/internal/models"
)

// ErrDuplicateRead signals that the (story, ip, fingerprint) combination
// was already recorded; callers treat it as success.
var ErrDuplicateRead = errors.New("read already recorded")

type engagementRepository struct {
	db *sqlx.DB
}

func NewEngagementRepository(db *sqlx.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// GetUserReview returns nil without error when the user has not
// reviewed the story.
func (r *engagementRepository) GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error) {
	var review models.StoryReview

	query := `SELECT * FROM story_reviews WHERE story_id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &review, query, storyID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user review: %w", err)
	}

	return &review, nil
}

func (r *engagementRepository) CreateReview(ctx context.Context, review *models.StoryReview) error {
	if review.ReviewID == "" {
		review.ReviewID = uuid.New().String()
	}
	review.CreatedAt = time.Now()

	query := `
		INSERT INTO story_reviews (review_id, story_id, user_id, review_type, created_at)
		VALUES (:review_id, :story_id, :user_id, :review_type, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func (r *engagementRepository) CountReviews(ctx context.Context, storyID string) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE review_type = 'thumbs_up') AS thumbs_up,
			COUNT(*) FILTER (WHERE review_type = 'thumbs_down') AS thumbs_down
		FROM story_reviews
		WHERE story_id = $1
	`

	var counts struct {
		ThumbsUp   int `db:"thumbs_up"`
		ThumbsDown int `db:"thumbs_down"`
	}

	err := r.db.GetContext(ctx, &counts, query, storyID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return counts.ThumbsUp, counts.ThumbsDown, nil
}

func (r *engagementRepository) CreateRead(ctx context.Context, read *models.StoryRead) error {
	if read.ReadID == "" {
		read.ReadID = uuid.New().String()
	}
	read.ReadAt = time.Now()

	query := `
		INSERT INTO story_reads (read_id, story_id, user_id, ip_address, user_agent, browser_fingerprint, read_at)
		VALUES (:read_id, :story_id, :user_id, :ip_address, :user_agent, :browser_fingerprint, :read_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, read)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRead
		}
		return fmt.Errorf("failed to record read: %w", err)
	}

	return nil
}

func (r *engagementRepository) CountReads(ctx context.Context, storyID string) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM story_reads WHERE story_id = $1`

	err := r.db.GetContext(ctx, &count, query, storyID)
	if err != nil {
		return 0, fmt.Errorf("failed to count reads: %w", err)
	}

	return count, nil
}
