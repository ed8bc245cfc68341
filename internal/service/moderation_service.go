package service

import (
	"context"
	"fmt"

	"talehub/internal/eventbus"
	"talehub/internal/models"
	"talehub/internal/repository"
)

type ModerateStoryRequest struct {
	StoryID     string `validate:"required,uuid"`
	ModeratorID string `validate:"required,uuid"`
	Status      string `validate:"required,oneof=approved rejected"`
	Notes       *string
}

type ModerationService interface {
	GetPendingStories(ctx context.Context, actorID string) ([]models.Story, error)
	ModerateStory(ctx context.Context, req ModerateStoryRequest) error
	GetModeratorActivity(ctx context.Context, actorID, moderatorID string, limit int) ([]models.ModeratorActivity, error)
}

type moderationService struct {
	storyRepo   repository.StoryRepository
	profileRepo repository.ProfileRepository
	bus         *eventbus.Bus
}

func NewModerationService(storyRepo repository.StoryRepository, profileRepo repository.ProfileRepository, bus *eventbus.Bus) ModerationService {
	return &moderationService{
		storyRepo:   storyRepo,
		profileRepo: profileRepo,
		bus:         bus,
	}
}

// GetPendingStories lists the moderation queue, oldest submission first.
func (s *moderationService) GetPendingStories(ctx context.Context, actorID string) ([]models.Story, error) {
	if _, err := s.requireModerator(ctx, actorID); err != nil {
		return nil, err
	}
	return s.storyRepo.ListPending(ctx)
}

// ModerateStory approves or rejects a story and stamps the reviewer.
func (s *moderationService) ModerateStory(ctx context.Context, req ModerateStoryRequest) error {
	moderator, err := s.requireModerator(ctx, req.ModeratorID)
	if err != nil {
		return err
	}

	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		return fmt.Errorf("moderation status must be approved or rejected: %w", ErrValidation)
	}

	story, err := s.storyRepo.GetByID(ctx, req.StoryID)
	if err != nil {
		return err
	}

	err = s.storyRepo.UpdateModeration(ctx, req.StoryID, req.Status, moderator.ProfileID, req.Notes)
	if err != nil {
		return err
	}

	eventType := eventbus.StoryApproved
	if req.Status == models.StatusRejected {
		eventType = eventbus.StoryRejected
	}

	s.bus.Publish(eventbus.Event{
		Type: eventType,
		Payload: map[string]string{
			"storyId":     req.StoryID,
			"authorId":    story.AuthorID,
			"moderatorId": moderator.ProfileID,
		},
	})

	return nil
}

func (s *moderationService) GetModeratorActivity(ctx context.Context, actorID, moderatorID string, limit int) ([]models.ModeratorActivity, error) {
	if _, err := s.requireModerator(ctx, actorID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.storyRepo.ListModeratedBy(ctx, moderatorID, limit)
}

func (s *moderationService) requireModerator(ctx context.Context, actorID string) (*models.Profile, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsBlocked {
		return nil, fmt.Errorf("blocked accounts cannot moderate: %w", ErrBlocked)
	}
	if !actor.IsModerator && !actor.IsAdmin {
		return nil, fmt.Errorf("moderator role required: %w", ErrUnauthorized)
	}
	return actor, nil
}
