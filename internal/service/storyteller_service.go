package service

import (
	"context"

	"talehub/internal/config"
	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

// StorytellerProfile is the public view of a storyteller with their
// per-status story counts.
type StorytellerProfile struct {
	Profile models.Profile          `json:"profile"`
	Stats   models.StorytellerStats `json:"stats"`
	Stories []models.Story          `json:"stories"`
}

// StorytellerSummary is one row in the storyteller directory.
type StorytellerSummary struct {
	Profile models.Profile          `json:"profile"`
	Stats   models.StorytellerStats `json:"stats"`
}

type StorytellerService interface {
	ListStorytellers(ctx context.Context) ([]StorytellerSummary, error)
	SearchStorytellers(ctx context.Context, term string) ([]StorytellerSummary, error)
	GetStoryteller(ctx context.Context, profileID string) (*StorytellerProfile, error)
}

type storytellerService struct {
	profileRepo repository.ProfileRepository
	storyRepo   repository.StoryRepository
	storage     storage.Storage
	cfg         *config.Config
}

func NewStorytellerService(profileRepo repository.ProfileRepository, storyRepo repository.StoryRepository, storage storage.Storage, cfg *config.Config) StorytellerService {
	return &storytellerService{
		profileRepo: profileRepo,
		storyRepo:   storyRepo,
		storage:     storage,
		cfg:         cfg,
	}
}

func (s *storytellerService) ListStorytellers(ctx context.Context) ([]StorytellerSummary, error) {
	storytellers, err := s.profileRepo.ListStorytellers(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, storytellers)
}

func (s *storytellerService) SearchStorytellers(ctx context.Context, term string) ([]StorytellerSummary, error) {
	if term == "" {
		return s.ListStorytellers(ctx)
	}

	storytellers, err := s.profileRepo.SearchStorytellers(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, storytellers)
}

// summarize attaches the approved/pending/rejected counts to each
// profile with a single grouped query over stories.
func (s *storytellerService) summarize(ctx context.Context, profiles []models.Profile) ([]StorytellerSummary, error) {
	ids := make([]string, len(profiles))
	for i := range profiles {
		ids[i] = profiles[i].ProfileID
	}

	stats, err := s.storyRepo.GetAuthorStatsBulk(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]StorytellerSummary, len(profiles))
	for i, p := range profiles {
		summaries[i] = StorytellerSummary{
			Profile: s.resolveProfile(p),
			Stats:   stats[p.ProfileID],
		}
	}

	return summaries, nil
}

// GetStoryteller returns the public profile with status counts and the
// storyteller's approved stories.
func (s *storytellerService) GetStoryteller(ctx context.Context, profileID string) (*StorytellerProfile, error) {
	profile, err := s.profileRepo.GetStoryteller(ctx, profileID)
	if err != nil {
		return nil, err
	}

	stats, err := s.storyRepo.GetAuthorStats(ctx, profileID)
	if err != nil {
		return nil, err
	}

	stories, err := s.storyRepo.ListByAuthor(ctx, profileID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		if stories[i].CoverImageURL != nil {
			resolved := s.storage.ResolveURL(s.cfg.Buckets.StoryCovers, *stories[i].CoverImageURL)
			stories[i].CoverImageURL = &resolved
		}
		if stories[i].AudioURL != nil {
			resolved := s.storage.ResolveURL(s.cfg.Buckets.AudioStories, *stories[i].AudioURL)
			stories[i].AudioURL = &resolved
		}
	}

	return &StorytellerProfile{
		Profile: s.resolveProfile(*profile),
		Stats:   *stats,
		Stories: stories,
	}, nil
}

func (s *storytellerService) resolveProfile(profile models.Profile) models.Profile {
	if profile.ProfileImageURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.ProfileImages, *profile.ProfileImageURL)
		profile.ProfileImageURL = &resolved
	}
	if profile.StorytellerPhotoURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.ProfileImages, *profile.StorytellerPhotoURL)
		profile.StorytellerPhotoURL = &resolved
	}
	return profile
}
