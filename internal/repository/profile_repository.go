package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"talehub/internal/models"
)

// profileColumns is the admin-facing projection; password and token
// columns stay out of listings.
const profileColumns = `
	profile_id, email, password_hash, full_name, profile_image_url, role_id,
	is_blocked, is_storyteller, is_moderator, is_admin,
	storyteller_name, storyteller_bio, storyteller_photo_url,
	story_count, first_story_date, last_login,
	refresh_token, refresh_token_expiry_time,
	created_at, deleted_at, deleted_by
`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if profile.ProfileID == "" {
		profile.ProfileID = uuid.New().String()
	}
	profile.PasswordHash = string(hashedPassword)
	profile.CreatedAt = time.Now()

	query := `
		INSERT INTO profiles (profile_id, email, password_hash, full_name, role_id,
			refresh_token, refresh_token_expiry_time, created_at)
		VALUES (:profile_id, :email, :password_hash, :full_name, :role_id,
			:refresh_token, :refresh_token_expiry_time, :created_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, profileID string) (*models.Profile, error) {
	var profile models.Profile

	query := `
		SELECT p.*, COALESCE(r.name, 'user') AS role_name
		FROM profiles p
		LEFT JOIN roles r ON r.role_id = p.role_id
		WHERE p.profile_id = $1 AND p.deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &profile, query, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile

	query := `
		SELECT p.*, COALESCE(r.name, 'user') AS role_name
		FROM profiles p
		LEFT JOIN roles r ON r.role_id = p.role_id
		WHERE p.email = $1 AND p.deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &profile, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Profile, error) {
	var profile models.Profile

	query := `
		SELECT p.*, COALESCE(r.name, 'user') AS role_name
		FROM profiles p
		LEFT JOIN roles r ON r.role_id = p.role_id
		WHERE p.refresh_token = $1
		AND p.refresh_token_expiry_time > CURRENT_TIMESTAMP
		AND p.deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &profile, query, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invalid or expired refresh token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile by refresh token: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) VerifyPassword(ctx context.Context, email, password string) (*models.Profile, error) {
	profile, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("invalid password")
	}

	return profile, nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles SET
			email = :email,
			full_name = :full_name,
			profile_image_url = :profile_image_url,
			storyteller_name = :storyteller_name,
			storyteller_bio = :storyteller_bio,
			storyteller_photo_url = :storyteller_photo_url
		WHERE profile_id = :profile_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profile.ProfileID, ErrNotFound)
	}

	return nil
}

func (r *profileRepository) UpdatePassword(ctx context.Context, profileID, passwordHash string) error {
	query := `UPDATE profiles SET password_hash = $1 WHERE profile_id = $2 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, passwordHash, profileID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (r *profileRepository) UpdateRefreshToken(ctx context.Context, profileID, refreshToken string, expiryTime time.Time) error {
	query := `
		UPDATE profiles
		SET refresh_token = $1, refresh_token_expiry_time = $2
		WHERE profile_id = $3
	`

	_, err := r.db.ExecContext(ctx, query, refreshToken, expiryTime, profileID)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	return nil
}

func (r *profileRepository) SetResetToken(ctx context.Context, profileID, token string, expiryTime time.Time) error {
	query := `
		UPDATE profiles
		SET reset_token = $1, reset_token_expiry_time = $2
		WHERE profile_id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, token, expiryTime, profileID)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
	}

	return nil
}

func (r *profileRepository) GetByResetToken(ctx context.Context, token string) (*models.Profile, error) {
	var profile models.Profile

	query := `
		SELECT p.*, COALESCE(r.name, 'user') AS role_name
		FROM profiles p
		LEFT JOIN roles r ON r.role_id = p.role_id
		WHERE p.reset_token = $1
		AND p.reset_token_expiry_time > CURRENT_TIMESTAMP
		AND p.deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &profile, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invalid or expired reset token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile by reset token: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) ClearResetToken(ctx context.Context, profileID string) error {
	query := `
		UPDATE profiles
		SET reset_token = NULL, reset_token_expiry_time = NULL
		WHERE profile_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, profileID)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return nil
}

func (r *profileRepository) UpdateLastLogin(ctx context.Context, profileID string) error {
	query := `UPDATE profiles SET last_login = CURRENT_TIMESTAMP WHERE profile_id = $1`

	_, err := r.db.ExecContext(ctx, query, profileID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

func (r *profileRepository) UpdateRoleID(ctx context.Context, profileID, roleID string) error {
	query := `UPDATE profiles SET role_id = $1 WHERE profile_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, roleID, profileID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
	}

	return nil
}

func (r *profileRepository) SetBlocked(ctx context.Context, profileID string, blocked bool) error {
	query := `UPDATE profiles SET is_blocked = $1 WHERE profile_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, blocked, profileID)
	if err != nil {
		return fmt.Errorf("failed to set blocked flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
	}

	return nil
}

func (r *profileRepository) SetModerator(ctx context.Context, profileID string, moderator bool) error {
	query := `UPDATE profiles SET is_moderator = $1 WHERE profile_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, moderator, profileID)
	if err != nil {
		return fmt.Errorf("failed to set moderator flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
	}

	return nil
}

func (r *profileRepository) SoftDelete(ctx context.Context, profileID, deletedBy string) error {
	query := `
		UPDATE profiles
		SET deleted_at = CURRENT_TIMESTAMP, deleted_by = $1
		WHERE profile_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, deletedBy, profileID)
	if err != nil {
		return fmt.Errorf("failed to soft delete profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profileID, ErrNotFound)
	}

	return nil
}

// RecordStorySubmission bumps the aggregate story counter and marks the
// profile as a storyteller on its first submission.
func (r *profileRepository) RecordStorySubmission(ctx context.Context, profileID string) error {
	query := `
		UPDATE profiles
		SET story_count = story_count + 1,
			is_storyteller = TRUE,
			first_story_date = COALESCE(first_story_date, CURRENT_TIMESTAMP)
		WHERE profile_id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, profileID)
	if err != nil {
		return fmt.Errorf("failed to record story submission: %w", err)
	}

	return nil
}

func (r *profileRepository) ListAll(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &profiles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

func (r *profileRepository) Search(ctx context.Context, term string) ([]models.Profile, error) {
	var profiles []models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE (full_name ILIKE $1 OR email ILIKE $1)
		AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 50
	`

	err := r.db.SelectContext(ctx, &profiles, query, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	return profiles, nil
}

func (r *profileRepository) ListStorytellers(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE is_storyteller = TRUE AND deleted_at IS NULL
		ORDER BY story_count DESC
	`

	err := r.db.SelectContext(ctx, &profiles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list storytellers: %w", err)
	}

	return profiles, nil
}

func (r *profileRepository) GetStoryteller(ctx context.Context, profileID string) (*models.Profile, error) {
	var profile models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE profile_id = $1 AND is_storyteller = TRUE AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &profile, query, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storyteller %s: %w", profileID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get storyteller: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) SearchStorytellers(ctx context.Context, term string) ([]models.Profile, error) {
	var profiles []models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE is_storyteller = TRUE
		AND (storyteller_name ILIKE $1 OR full_name ILIKE $1)
		AND deleted_at IS NULL
	`

	err := r.db.SelectContext(ctx, &profiles, query, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search storytellers: %w", err)
	}

	return profiles, nil
}

func (r *profileRepository) ListModerators(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile

	query := `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE is_moderator = TRUE AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &profiles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}

	return profiles, nil
}
