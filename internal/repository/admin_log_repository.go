package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talehub/internal/models"
)

type adminLogRepository struct {
	db *sqlx.DB
}

func NewAdminLogRepository(db *sqlx.DB) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) error {
	if entry.LogID == "" {
		entry.LogID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO admin_logs (log_id, admin_id, action, target_user_id, reason, created_at)
		VALUES (:log_id, :admin_id, :action, :target_user_id, :reason, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to write admin log: %w", err)
	}

	return nil
}
