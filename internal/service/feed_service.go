package service

import (
	"context"
	"fmt"
	"strings"

	"talehub/internal/config"
	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

// FeedQuery selects one page of the public feed. Only the locality is
// filtered in the database; story type and author filters are applied to
// the fetched page so the pagination window stays stable.
type FeedQuery struct {
	LocalityID string `validate:"required,uuid"`
	Page       int
	StoryType  string
	AuthorName string
}

// FeedPage is one page of approved stories plus a human-readable message
// when nothing matched.
type FeedPage struct {
	Stories      []models.Story `json:"stories"`
	Page         int            `json:"page"`
	HasMore      bool           `json:"hasMore"`
	EmptyMessage string         `json:"emptyMessage,omitempty"`
}

type FeedService interface {
	GetFeed(ctx context.Context, query FeedQuery) (*FeedPage, error)
	MergeStories(existing, incoming []models.Story) []models.Story
}

type feedService struct {
	storyRepo    repository.StoryRepository
	localityRepo repository.LocalityRepository
	storage      storage.Storage
	cfg          *config.Config
}

func NewFeedService(storyRepo repository.StoryRepository, localityRepo repository.LocalityRepository, storage storage.Storage, cfg *config.Config) FeedService {
	return &feedService{
		storyRepo:    storyRepo,
		localityRepo: localityRepo,
		storage:      storage,
		cfg:          cfg,
	}
}

// GetFeed returns approved stories for one locality, newest first. Only
// approved, non-deleted stories in the locality are ever visible here.
func (s *feedService) GetFeed(ctx context.Context, query FeedQuery) (*FeedPage, error) {
	locality, err := s.localityRepo.GetByID(ctx, query.LocalityID)
	if err != nil {
		return nil, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := s.cfg.FeedPageSize
	offset := (page - 1) * limit

	stories, err := s.storyRepo.ListByLocality(ctx, query.LocalityID, models.StatusApproved, limit, offset)
	if err != nil {
		return nil, err
	}

	hasMore := len(stories) == limit

	filtered := s.applyFilters(stories, query)
	for i := range filtered {
		if filtered[i].CoverImageURL != nil {
			resolved := s.storage.ResolveURL(s.cfg.Buckets.StoryCovers, *filtered[i].CoverImageURL)
			filtered[i].CoverImageURL = &resolved
		}
		if filtered[i].AudioURL != nil {
			resolved := s.storage.ResolveURL(s.cfg.Buckets.AudioStories, *filtered[i].AudioURL)
			filtered[i].AudioURL = &resolved
		}
	}

	result := &FeedPage{
		Stories: filtered,
		Page:    page,
		HasMore: hasMore,
	}
	if len(filtered) == 0 && !hasMore {
		result.EmptyMessage = emptyFeedMessage(locality.Name, query)
	}

	return result, nil
}

func (s *feedService) applyFilters(stories []models.Story, query FeedQuery) []models.Story {
	filtered := make([]models.Story, 0, len(stories))
	authorTerm := strings.ToLower(strings.TrimSpace(query.AuthorName))

	for _, story := range stories {
		if query.StoryType != "" && story.StoryType != query.StoryType {
			continue
		}
		if authorTerm != "" && !strings.Contains(strings.ToLower(story.AuthorName), authorTerm) {
			continue
		}
		filtered = append(filtered, story)
	}

	return filtered
}

// MergeStories appends incoming stories onto an already loaded list,
// skipping ids that are already present. Infinite-scroll pages can
// overlap when stories are approved between fetches.
func (s *feedService) MergeStories(existing, incoming []models.Story) []models.Story {
	seen := make(map[string]struct{}, len(existing))
	for _, story := range existing {
		seen[story.StoryID] = struct{}{}
	}

	merged := existing
	for _, story := range incoming {
		if _, ok := seen[story.StoryID]; ok {
			continue
		}
		seen[story.StoryID] = struct{}{}
		merged = append(merged, story)
	}

	return merged
}

func emptyFeedMessage(localityName string, query FeedQuery) string {
	switch {
	case query.AuthorName != "":
		return fmt.Sprintf("No stories by %q found in %s yet.", query.AuthorName, localityName)
	case query.StoryType == models.StoryTypeAudio:
		return fmt.Sprintf("No audio stories from %s yet. Be the first to record one!", localityName)
	case query.StoryType == models.StoryTypeText:
		return fmt.Sprintf("No written stories from %s yet. Be the first to share one!", localityName)
	default:
		return fmt.Sprintf("No stories from %s yet. Be the first to share one!", localityName)
	}
}
