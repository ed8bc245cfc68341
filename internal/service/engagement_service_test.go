package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talehub/internal/models"
	"talehub/internal/repository"
)

type flakyStoryRepo struct {
	repository.StoryRepository
}

func (f *flakyStoryRepo) GetByID(ctx context.Context, storyID string) (*models.Story, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestFingerprint(t *testing.T) {
	hints := FingerprintHints{
		UserAgent:           "Mozilla/5.0",
		Language:            "en-US",
		ColorDepth:          24,
		ScreenWidth:         1920,
		ScreenHeight:        1080,
		TimezoneOffset:      -180,
		Canvas:              "canvas-data",
		HardwareConcurrency: 8,
		Platform:            "Linux x86_64",
	}

	t.Run("same hints produce the same fingerprint", func(t *testing.T) {
		assert.Equal(t, Fingerprint(hints), Fingerprint(hints))
	})

	t.Run("different hints produce different fingerprints", func(t *testing.T) {
		other := hints
		other.ScreenWidth = 1280
		assert.NotEqual(t, Fingerprint(hints), Fingerprint(other))
	})

	t.Run("fingerprint is base-36", func(t *testing.T) {
		fp := Fingerprint(hints)
		assert.NotEmpty(t, fp)
		for _, r := range fp {
			assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z'), "unexpected rune %q", r)
		}
	})
}

func TestEngagementService_TrackRead(t *testing.T) {
	story := &models.Story{StoryID: "s1", Status: models.StatusApproved}
	engagementRepo := newFakeEngagementRepo()
	svc := NewEngagementService(engagementRepo, newFakeStoryRepo(story))

	req := TrackReadRequest{
		StoryID:   "s1",
		IPAddress: "203.0.113.7",
		Hints:     FingerprintHints{UserAgent: "Mozilla/5.0", Platform: "Linux"},
	}

	t.Run("first read is counted", func(t *testing.T) {
		require.NoError(t, svc.TrackRead(context.Background(), req))
		assert.Equal(t, 1, engagementRepo.readCount)
	})

	t.Run("repeat read is swallowed and not double counted", func(t *testing.T) {
		require.NoError(t, svc.TrackRead(context.Background(), req))
		assert.Equal(t, 1, engagementRepo.readCount)
	})

	t.Run("different device counts again", func(t *testing.T) {
		other := req
		other.Hints.Platform = "Windows"
		require.NoError(t, svc.TrackRead(context.Background(), other))
		assert.Equal(t, 2, engagementRepo.readCount)
	})

	t.Run("unknown story is an error", func(t *testing.T) {
		missing := req
		missing.StoryID = "nope"
		assert.Error(t, svc.TrackRead(context.Background(), missing))
	})

	t.Run("a flaky story lookup is swallowed", func(t *testing.T) {
		flakyEngagement := newFakeEngagementRepo()
		flaky := NewEngagementService(flakyEngagement, &flakyStoryRepo{})

		require.NoError(t, flaky.TrackRead(context.Background(), req))
		assert.Zero(t, flakyEngagement.readCount)
	})
}

func TestEngagementService_SubmitReview(t *testing.T) {
	story := &models.Story{StoryID: "s1", Status: models.StatusApproved}
	engagementRepo := newFakeEngagementRepo()
	svc := NewEngagementService(engagementRepo, newFakeStoryRepo(story))

	t.Run("first review is stored", func(t *testing.T) {
		err := svc.SubmitReview(context.Background(), "s1", "u1", models.ReviewThumbsUp)
		assert.NoError(t, err)
	})

	t.Run("second review by the same user is rejected", func(t *testing.T) {
		err := svc.SubmitReview(context.Background(), "s1", "u1", models.ReviewThumbsDown)
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})

	t.Run("another user may still review", func(t *testing.T) {
		err := svc.SubmitReview(context.Background(), "s1", "u2", models.ReviewThumbsDown)
		assert.NoError(t, err)
	})

	t.Run("invalid review type is rejected", func(t *testing.T) {
		err := svc.SubmitReview(context.Background(), "s1", "u3", "five-stars")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestEngagementService_GetStoryStats(t *testing.T) {
	story := &models.Story{StoryID: "s1"}

	t.Run("percentages round to whole numbers", func(t *testing.T) {
		engagementRepo := newFakeEngagementRepo()
		engagementRepo.readCount = 10
		engagementRepo.thumbsUp = 2
		engagementRepo.thumbsDown = 1
		svc := NewEngagementService(engagementRepo, newFakeStoryRepo(story))

		stats, err := svc.GetStoryStats(context.Background(), "s1")

		require.NoError(t, err)
		assert.Equal(t, 10, stats.TotalReads)
		assert.Equal(t, 67, stats.ThumbsUpPercentage)
		assert.Equal(t, 33, stats.ThumbsDownPercentage)
	})

	t.Run("no reviews means zero percentages", func(t *testing.T) {
		engagementRepo := newFakeEngagementRepo()
		engagementRepo.readCount = 5
		svc := NewEngagementService(engagementRepo, newFakeStoryRepo(story))

		stats, err := svc.GetStoryStats(context.Background(), "s1")

		require.NoError(t, err)
		assert.Equal(t, 0, stats.ThumbsUpPercentage)
		assert.Equal(t, 0, stats.ThumbsDownPercentage)
	})
}
