package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"talehub/internal/models"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
var ErrNotFound = errors.New("not found")

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile, password string) error
	GetByID(ctx context.Context, profileID string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Profile, error)
	VerifyPassword(ctx context.Context, email, password string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdatePassword(ctx context.Context, profileID, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, profileID, refreshToken string, expiryTime time.Time) error
	SetResetToken(ctx context.Context, profileID, token string, expiryTime time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.Profile, error)
	ClearResetToken(ctx context.Context, profileID string) error
	UpdateLastLogin(ctx context.Context, profileID string) error
	UpdateRoleID(ctx context.Context, profileID, roleID string) error
	SetBlocked(ctx context.Context, profileID string, blocked bool) error
	SetModerator(ctx context.Context, profileID string, moderator bool) error
	SoftDelete(ctx context.Context, profileID, deletedBy string) error
	RecordStorySubmission(ctx context.Context, profileID string) error
	ListAll(ctx context.Context) ([]models.Profile, error)
	Search(ctx context.Context, term string) ([]models.Profile, error)
	ListStorytellers(ctx context.Context) ([]models.Profile, error)
	GetStoryteller(ctx context.Context, profileID string) (*models.Profile, error)
	SearchStorytellers(ctx context.Context, term string) ([]models.Profile, error)
	ListModerators(ctx context.Context) ([]models.Profile, error)
}

type RoleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
}

type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, storyID string) (*models.Story, error)
	ListByLocality(ctx context.Context, localityID, status string, limit, offset int) ([]models.Story, error)
	ListByAuthor(ctx context.Context, authorID, status string) ([]models.Story, error)
	ListPending(ctx context.Context) ([]models.Story, error)
	UpdateModeration(ctx context.Context, storyID, status, moderatorID string, notes *string) error
	SoftDelete(ctx context.Context, storyID, deletedBy string) error
	SoftDeleteByAuthor(ctx context.Context, authorID, deletedBy string) error
	GetAuthorStats(ctx context.Context, authorID string) (*models.StorytellerStats, error)
	GetAuthorStatsBulk(ctx context.Context, authorIDs []string) (map[string]models.StorytellerStats, error)
	GetModeratorStatsBulk(ctx context.Context, moderatorIDs []string) (map[string]models.ModeratorStats, error)
	ListModeratedBy(ctx context.Context, moderatorID string, limit int) ([]models.ModeratorActivity, error)
}

type MediaRepository interface {
	CreateMediaFile(ctx context.Context, file *models.MediaFile) error
	ListMediaByStory(ctx context.Context, storyID string) ([]models.MediaFile, error)
	CreateStoryImage(ctx context.Context, image *models.StoryImage) error
	ListImagesByStory(ctx context.Context, storyID string) ([]models.StoryImage, error)
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	AttachTag(ctx context.Context, storyID, tagID string) error
	ListTagsByStory(ctx context.Context, storyID string) ([]models.Tag, error)
}

type LocalityRepository interface {
	List(ctx context.Context) ([]models.Locality, error)
	GetByID(ctx context.Context, localityID string) (*models.Locality, error)
	Create(ctx context.Context, locality *models.Locality) error
	ListGenres(ctx context.Context) ([]models.Genre, error)
}

type EngagementRepository interface {
	GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error)
	CreateReview(ctx context.Context, review *models.StoryReview) error
	CountReviews(ctx context.Context, storyID string) (thumbsUp int, thumbsDown int, err error)
	CreateRead(ctx context.Context, read *models.StoryRead) error
	CountReads(ctx context.Context, storyID string) (int, error)
}

type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLog) error
}

type Repository struct {
	Profile    ProfileRepository
	Role       RoleRepository
	Story      StoryRepository
	Media      MediaRepository
	Locality   LocalityRepository
	Engagement EngagementRepository
	AdminLog   AdminLogRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Profile:    NewProfileRepository(db),
		Role:       NewRoleRepository(db),
		Story:      NewStoryRepository(db),
		Media:      NewMediaRepository(db),
		Locality:   NewLocalityRepository(db),
		Engagement: NewEngagementRepository(db),
		AdminLog:   NewAdminLogRepository(db),
	}
}
