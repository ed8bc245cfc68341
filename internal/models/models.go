package models

import (
	"time"

	"github.com/lib/pq"
)

// Story lifecycle states. A story is created pending and moderated to
// approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Story payload kinds. A text story carries content, an audio story
// carries an audio URL; never both.
const (
	StoryTypeText  = "text"
	StoryTypeAudio = "audio"
)

// Role names as stored in the roles table.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Review kinds for story reviews.
const (
	ReviewThumbsUp   = "thumbs_up"
	ReviewThumbsDown = "thumbs_down"
)

type Role struct {
	RoleID      string    `json:"roleId" db:"role_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type Profile struct {
	ProfileID              string     `json:"profileId" db:"profile_id"`
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	FullName               string     `json:"fullName" db:"full_name"`
	ProfileImageURL        *string    `json:"profileImageUrl" db:"profile_image_url"`
	RoleID                 string     `json:"roleId" db:"role_id"`
	RoleName               string     `json:"roleName,omitempty" db:"role_name"`
	IsBlocked              bool       `json:"isBlocked" db:"is_blocked"`
	IsStoryteller          bool       `json:"isStoryteller" db:"is_storyteller"`
	IsModerator            bool       `json:"isModerator" db:"is_moderator"`
	IsAdmin                bool       `json:"isAdmin" db:"is_admin"`
	StorytellerName        *string    `json:"storytellerName" db:"storyteller_name"`
	StorytellerBio         *string    `json:"storytellerBio" db:"storyteller_bio"`
	StorytellerPhotoURL    *string    `json:"storytellerPhotoUrl" db:"storyteller_photo_url"`
	StoryCount             int        `json:"storyCount" db:"story_count"`
	FirstStoryDate         *time.Time `json:"firstStoryDate" db:"first_story_date"`
	LastLogin              *time.Time `json:"lastLogin" db:"last_login"`
	RefreshToken           *string    `json:"-" db:"refresh_token"`
	RefreshTokenExpiryTime *time.Time `json:"-" db:"refresh_token_expiry_time"`
	ResetToken             *string    `json:"-" db:"reset_token"`
	ResetTokenExpiryTime   *time.Time `json:"-" db:"reset_token_expiry_time"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt              *time.Time `json:"-" db:"deleted_at"`
	DeletedBy              *string    `json:"-" db:"deleted_by"`
}

type Story struct {
	StoryID        string         `json:"storyId" db:"story_id"`
	Title          string         `json:"title" db:"title"`
	Content        *string        `json:"content" db:"content"`
	StoryType      string         `json:"storyType" db:"story_type"`
	AudioURL       *string        `json:"audioUrl" db:"audio_url"`
	AudioDuration  *int           `json:"audioDuration" db:"audio_duration"`
	CoverImageURL  *string        `json:"coverImageUrl" db:"cover_image_url"`
	Description    *string        `json:"description" db:"description"`
	Genre          *string        `json:"genre" db:"genre"`
	Language       *string        `json:"language" db:"language"`
	MainCharacters pq.StringArray `json:"mainCharacters,omitempty" db:"main_characters"`
	LocalityID     string         `json:"localityId" db:"locality_id"`
	LocalityName   string         `json:"localityName,omitempty" db:"locality_name"`
	AuthorID       string         `json:"authorId" db:"author_id"`
	AuthorName     string         `json:"authorName,omitempty" db:"author_name"`
	Status         string         `json:"status" db:"status"`
	ModeratorID    *string        `json:"moderatorId" db:"moderator_id"`
	ModeratorNotes *string        `json:"moderatorNotes" db:"moderator_notes"`
	ModeratedAt    *time.Time     `json:"moderatedAt" db:"moderated_at"`
	MediaFiles     []MediaFile    `json:"mediaFiles,omitempty" db:"-"`
	StoryImages    []StoryImage   `json:"storyImages,omitempty" db:"-"`
	Tags           []Tag          `json:"tags,omitempty" db:"-"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time     `json:"-" db:"deleted_at"`
	DeletedBy      *string        `json:"-" db:"deleted_by"`
}

type MediaFile struct {
	MediaFileID string    `json:"mediaFileId" db:"media_file_id"`
	StoryID     string    `json:"storyId" db:"story_id"`
	FileURL     string    `json:"fileUrl" db:"file_url"`
	FileType    string    `json:"fileType" db:"file_type"`
	FileName    string    `json:"fileName" db:"file_name"`
	FileSize    int64     `json:"fileSize" db:"file_size"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type StoryImage struct {
	StoryImageID string    `json:"storyImageId" db:"story_image_id"`
	StoryID      string    `json:"storyId" db:"story_id"`
	ImageURL     string    `json:"imageUrl" db:"image_url"`
	ImageCaption *string   `json:"imageCaption" db:"image_caption"`
	ImageOrder   int       `json:"imageOrder" db:"image_order"`
	FileName     string    `json:"fileName" db:"file_name"`
	FileSize     int64     `json:"fileSize" db:"file_size"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Locality struct {
	LocalityID string    `json:"localityId" db:"locality_id"`
	Name       string    `json:"name" db:"name"`
	State      *string   `json:"state" db:"state"`
	Country    *string   `json:"country" db:"country"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Tag struct {
	TagID      string    `json:"tagId" db:"tag_id"`
	Name       string    `json:"name" db:"name"`
	UsageCount int       `json:"usageCount" db:"usage_count"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Genre struct {
	GenreID     string    `json:"genreId" db:"genre_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type StoryReview struct {
	ReviewID   string    `json:"reviewId" db:"review_id"`
	StoryID    string    `json:"storyId" db:"story_id"`
	UserID     string    `json:"userId" db:"user_id"`
	ReviewType string    `json:"reviewType" db:"review_type"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type StoryRead struct {
	ReadID             string    `json:"readId" db:"read_id"`
	StoryID            string    `json:"storyId" db:"story_id"`
	UserID             *string   `json:"userId" db:"user_id"`
	IPAddress          string    `json:"ipAddress" db:"ip_address"`
	UserAgent          string    `json:"userAgent" db:"user_agent"`
	BrowserFingerprint string    `json:"browserFingerprint" db:"browser_fingerprint"`
	ReadAt             time.Time `json:"readAt" db:"read_at"`
}

// StoryStats aggregates engagement counters for one story. Percentages
// are integers rounded to nearest and zero when no reviews exist.
type StoryStats struct {
	TotalReads           int `json:"totalReads"`
	ThumbsUp             int `json:"thumbsUp"`
	ThumbsDown           int `json:"thumbsDown"`
	ThumbsUpPercentage   int `json:"thumbsUpPercentage"`
	ThumbsDownPercentage int `json:"thumbsDownPercentage"`
}

type AdminLog struct {
	LogID        string    `json:"logId" db:"log_id"`
	AdminID      string    `json:"adminId" db:"admin_id"`
	Action       string    `json:"action" db:"action"`
	TargetUserID string    `json:"targetUserId" db:"target_user_id"`
	Reason       *string   `json:"reason" db:"reason"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// StorytellerStats breaks a storyteller's stories down by status.
type StorytellerStats struct {
	Approved int `json:"approved" db:"approved"`
	Pending  int `json:"pending" db:"pending"`
	Rejected int `json:"rejected" db:"rejected"`
}

// ModeratorStats summarizes a moderator's review history across all
// stories they have decided on.
type ModeratorStats struct {
	StoriesReviewed int        `json:"storiesReviewed" db:"reviewed"`
	StoriesApproved int        `json:"storiesApproved" db:"approved"`
	StoriesRejected int        `json:"storiesRejected" db:"rejected"`
	LastActivity    *time.Time `json:"lastActivity" db:"last_activity"`
}

// ModeratorActivity is one moderation action as shown in the admin
// activity feed.
type ModeratorActivity struct {
	StoryID     string     `json:"storyId" db:"story_id"`
	StoryTitle  string     `json:"storyTitle" db:"title"`
	Action      string     `json:"action" db:"status"`
	ActionDate  *time.Time `json:"actionDate" db:"moderated_at"`
	AuthorName  string     `json:"authorName" db:"author_name"`
	ModeratorID string     `json:"moderatorId" db:"moderator_id"`
}
