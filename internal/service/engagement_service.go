package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"

	"talehub/internal/models"
	"talehub/internal/repository"
)

// FingerprintHints are the client-reported browser traits a reader's
// fingerprint is derived from.
type FingerprintHints struct {
	UserAgent           string `json:"userAgent"`
	Language            string `json:"language"`
	ColorDepth          int    `json:"colorDepth"`
	ScreenWidth         int    `json:"screenWidth"`
	ScreenHeight        int    `json:"screenHeight"`
	TimezoneOffset      int    `json:"timezoneOffset"`
	Canvas              string `json:"canvas"`
	HardwareConcurrency int    `json:"hardwareConcurrency"`
	Platform            string `json:"platform"`
}

type TrackReadRequest struct {
	StoryID   string `validate:"required,uuid"`
	UserID    *string
	IPAddress string
	Hints     FingerprintHints
}

type EngagementService interface {
	TrackRead(ctx context.Context, req TrackReadRequest) error
	SubmitReview(ctx context.Context, storyID, userID, reviewType string) error
	GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error)
	GetStoryStats(ctx context.Context, storyID string) (*models.StoryStats, error)
}

type engagementService struct {
	engagementRepo repository.EngagementRepository
	storyRepo      repository.StoryRepository
}

func NewEngagementService(engagementRepo repository.EngagementRepository, storyRepo repository.StoryRepository) EngagementService {
	return &engagementService{
		engagementRepo: engagementRepo,
		storyRepo:      storyRepo,
	}
}

// TrackRead records one read per (story, ip, fingerprint). Repeat reads
// and storage failures are swallowed so tracking never breaks reading;
// only a read of a nonexistent story is reported back.
func (s *engagementService) TrackRead(ctx context.Context, req TrackReadRequest) error {
	if _, err := s.storyRepo.GetByID(ctx, req.StoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		log.Printf("Warning: failed to load story %s for read tracking: %v", req.StoryID, err)
		return nil
	}

	read := &models.StoryRead{
		StoryID:            req.StoryID,
		UserID:             req.UserID,
		IPAddress:          req.IPAddress,
		UserAgent:          req.Hints.UserAgent,
		BrowserFingerprint: Fingerprint(req.Hints),
	}

	err := s.engagementRepo.CreateRead(ctx, read)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRead) {
			return nil
		}
		log.Printf("Warning: failed to record read for story %s: %v", req.StoryID, err)
		return nil
	}

	return nil
}

// SubmitReview records a one-time thumbs up or down. A second review by
// the same user is rejected.
func (s *engagementService) SubmitReview(ctx context.Context, storyID, userID, reviewType string) error {
	if reviewType != models.ReviewThumbsUp && reviewType != models.ReviewThumbsDown {
		return fmt.Errorf("review type must be thumbs_up or thumbs_down: %w", ErrValidation)
	}

	if _, err := s.storyRepo.GetByID(ctx, storyID); err != nil {
		return err
	}

	existing, err := s.engagementRepo.GetUserReview(ctx, storyID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user %s already reviewed story %s: %w", userID, storyID, ErrAlreadyReviewed)
	}

	review := &models.StoryReview{
		StoryID:    storyID,
		UserID:     userID,
		ReviewType: reviewType,
	}

	return s.engagementRepo.CreateReview(ctx, review)
}

func (s *engagementService) GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error) {
	return s.engagementRepo.GetUserReview(ctx, storyID, userID)
}

// GetStoryStats aggregates reads and reviews. Percentages are whole
// numbers rounded to nearest; both are zero when no reviews exist.
func (s *engagementService) GetStoryStats(ctx context.Context, storyID string) (*models.StoryStats, error) {
	totalReads, err := s.engagementRepo.CountReads(ctx, storyID)
	if err != nil {
		return nil, err
	}

	thumbsUp, thumbsDown, err := s.engagementRepo.CountReviews(ctx, storyID)
	if err != nil {
		return nil, err
	}

	stats := &models.StoryStats{
		TotalReads: totalReads,
		ThumbsUp:   thumbsUp,
		ThumbsDown: thumbsDown,
	}

	total := thumbsUp + thumbsDown
	if total > 0 {
		stats.ThumbsUpPercentage = int(math.Round(float64(thumbsUp) / float64(total) * 100))
		stats.ThumbsDownPercentage = int(math.Round(float64(thumbsDown) / float64(total) * 100))
	}

	return stats, nil
}

// Fingerprint derives a stable identifier from browser hints. The
// components are joined with "|" and hashed with a 32-bit rolling hash,
// then rendered in base 36. The same hints always produce the same
// fingerprint, so it works as a dedupe key.
func Fingerprint(hints FingerprintHints) string {
	components := fmt.Sprintf("%s|%s|%d|%dx%d|%d|%s|%d|%s",
		hints.UserAgent,
		hints.Language,
		hints.ColorDepth,
		hints.ScreenWidth,
		hints.ScreenHeight,
		hints.TimezoneOffset,
		hints.Canvas,
		hints.HardwareConcurrency,
		hints.Platform,
	)

	var hash int32
	for _, r := range components {
		hash = (hash << 5) - hash + int32(r)
	}

	value := int64(hash)
	if value < 0 {
		value = -value
	}

	return strconv.FormatInt(value, 36)
}
