package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talehub/internal/models"
)

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) CreateMediaFile(ctx context.Context, file *models.MediaFile) error {
	if file.MediaFileID == "" {
		file.MediaFileID = uuid.New().String()
	}
	file.CreatedAt = time.Now()

	query := `
		INSERT INTO media_files (media_file_id, story_id, file_url, file_type, file_name, file_size, created_at)
		VALUES (:media_file_id, :story_id, :file_url, :file_type, :file_name, :file_size, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, file)
	if err != nil {
		return fmt.Errorf("failed to create media file record: %w", err)
	}

	return nil
}

func (r *mediaRepository) ListMediaByStory(ctx context.Context, storyID string) ([]models.MediaFile, error) {
	var files []models.MediaFile

	query := `SELECT * FROM media_files WHERE story_id = $1 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &files, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}

	return files, nil
}

func (r *mediaRepository) CreateStoryImage(ctx context.Context, image *models.StoryImage) error {
	if image.StoryImageID == "" {
		image.StoryImageID = uuid.New().String()
	}
	image.CreatedAt = time.Now()

	query := `
		INSERT INTO story_images (story_image_id, story_id, image_url, image_caption, image_order, file_name, file_size, created_at)
		VALUES (:story_image_id, :story_id, :image_url, :image_caption, :image_order, :file_name, :file_size, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, image)
	if err != nil {
		return fmt.Errorf("failed to create story image record: %w", err)
	}

	return nil
}

func (r *mediaRepository) ListImagesByStory(ctx context.Context, storyID string) ([]models.StoryImage, error) {
	var images []models.StoryImage

	query := `SELECT * FROM story_images WHERE story_id = $1 ORDER BY image_order ASC`

	err := r.db.SelectContext(ctx, &images, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list story images: %w", err)
	}

	return images, nil
}

// GetOrCreateTag finds a tag by name, creating it on first use. Tags
// are never deleted here.
func (r *mediaRepository) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("tag name is empty")
	}

	var tag models.Tag
	err := r.db.GetContext(ctx, &tag, `SELECT * FROM tags WHERE name = $1`, name)
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up tag: %w", err)
	}

	tag = models.Tag{
		TagID:     uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO tags (tag_id, name, usage_count, created_at)
		VALUES (:tag_id, :name, 0, :created_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, &tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return &tag, nil
}

func (r *mediaRepository) AttachTag(ctx context.Context, storyID, tagID string) error {
	query := `
		INSERT INTO story_tags (story_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, storyID, tagID)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `UPDATE tags SET usage_count = usage_count + 1 WHERE tag_id = $1`, tagID)
	if err != nil {
		return fmt.Errorf("failed to bump tag usage: %w", err)
	}

	return nil
}

func (r *mediaRepository) ListTagsByStory(ctx context.Context, storyID string) ([]models.Tag, error) {
	var tags []models.Tag

	query := `
		SELECT t.* FROM tags t
		JOIN story_tags st ON st.tag_id = t.tag_id
		WHERE st.story_id = $1
		ORDER BY t.name ASC
	`

	err := r.db.SelectContext(ctx, &tags, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list story tags: %w", err)
	}

	return tags, nil
}
