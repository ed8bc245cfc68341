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

type localityRepository struct {
	db *sqlx.DB
}

func NewLocalityRepository(db *sqlx.DB) LocalityRepository {
	return &localityRepository{db: db}
}

func (r *localityRepository) List(ctx context.Context) ([]models.Locality, error) {
	var localities []models.Locality

	query := `SELECT * FROM localities ORDER BY name ASC`

	err := r.db.SelectContext(ctx, &localities, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list localities: %w", err)
	}

	return localities, nil
}

func (r *localityRepository) GetByID(ctx context.Context, localityID string) (*models.Locality, error) {
	var locality models.Locality

	query := `SELECT * FROM localities WHERE locality_id = $1`

	err := r.db.GetContext(ctx, &locality, query, localityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("locality %s: %w", localityID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get locality: %w", err)
	}

	return &locality, nil
}

func (r *localityRepository) Create(ctx context.Context, locality *models.Locality) error {
	if locality.LocalityID == "" {
		locality.LocalityID = uuid.New().String()
	}
	locality.CreatedAt = time.Now()

	query := `
		INSERT INTO localities (locality_id, name, state, country, created_at)
		VALUES (:locality_id, :name, :state, :country, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, locality)
	if err != nil {
		return fmt.Errorf("failed to create locality: %w", err)
	}

	return nil
}

func (r *localityRepository) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre

	query := `SELECT * FROM genres ORDER BY name ASC`

	err := r.db.SelectContext(ctx, &genres, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}

	return genres, nil
}
