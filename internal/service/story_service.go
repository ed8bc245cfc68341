package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"talehub/internal/config"
	"talehub/internal/eventbus"
	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

// UploadedFile carries one multipart file through the service layer.
type UploadedFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// ImageUpload is an inline story image with its caption and position.
// Order matches the [IMAGE:n] placeholders inside the story content.
type ImageUpload struct {
	File    UploadedFile
	Caption string
	Order   int
}

type CreateStoryRequest struct {
	Title          string `validate:"required,min=3,max=200"`
	Content        string `validate:"required"`
	Description    string
	Genre          string
	Language       string
	MainCharacters []string
	LocalityID     string `validate:"required,uuid"`
	AuthorID       string `validate:"required,uuid"`
	Tags           []string
	CoverImage     *UploadedFile
	Images         []ImageUpload
}

type CreateAudioStoryRequest struct {
	Title          string `validate:"required,min=3,max=200"`
	Description    string
	Genre          string
	Language       string
	MainCharacters []string
	LocalityID     string `validate:"required,uuid"`
	AuthorID       string `validate:"required,uuid"`
	Tags           []string
	Audio          UploadedFile
	AudioDuration  *int
	CoverImage     *UploadedFile
}

type StoryService interface {
	CreateStory(ctx context.Context, req CreateStoryRequest) (*models.Story, error)
	CreateAudioStory(ctx context.Context, req CreateAudioStoryRequest) (*models.Story, error)
	GetStoryByID(ctx context.Context, storyID string) (*models.Story, error)
	GetStoriesByAuthor(ctx context.Context, authorID, status string) ([]models.Story, error)
	DeleteStory(ctx context.Context, storyID, actorID string) error
}

type storyService struct {
	storyRepo    repository.StoryRepository
	mediaRepo    repository.MediaRepository
	profileRepo  repository.ProfileRepository
	localityRepo repository.LocalityRepository
	storage      storage.Storage
	cfg          *config.Config
	bus          *eventbus.Bus
	sanitizer    *bluemonday.Policy
}

func NewStoryService(storyRepo repository.StoryRepository, mediaRepo repository.MediaRepository, profileRepo repository.ProfileRepository, localityRepo repository.LocalityRepository, storage storage.Storage, cfg *config.Config, bus *eventbus.Bus) StoryService {
	return &storyService{
		storyRepo:    storyRepo,
		mediaRepo:    mediaRepo,
		profileRepo:  profileRepo,
		localityRepo: localityRepo,
		storage:      storage,
		cfg:          cfg,
		bus:          bus,
		sanitizer:    bluemonday.UGCPolicy(),
	}
}

// CreateStory submits a text story. New stories always enter the
// moderation queue as pending regardless of the author's role.
func (s *storyService) CreateStory(ctx context.Context, req CreateStoryRequest) (*models.Story, error) {
	author, err := s.checkAuthor(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.localityRepo.GetByID(ctx, req.LocalityID); err != nil {
		return nil, err
	}

	content := s.sanitizer.Sanitize(req.Content)
	if words := countWords(content); words > s.cfg.MaxStoryWords {
		return nil, fmt.Errorf("story has %d words, limit is %d: %w", words, s.cfg.MaxStoryWords, ErrValidation)
	}

	story := s.newStory(req.Title, req.Description, req.Genre, req.Language, req.MainCharacters, req.LocalityID, author.ProfileID)
	story.StoryType = models.StoryTypeText
	story.Content = &content

	if req.CoverImage != nil {
		_, coverURL, err := s.storage.Upload(ctx, s.cfg.Buckets.StoryCovers, author.ProfileID, req.CoverImage.Name, req.CoverImage.Content, req.CoverImage.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload cover image: %w", err)
		}
		story.CoverImageURL = &coverURL
	}

	err = s.storyRepo.Create(ctx, story)
	if err != nil {
		return nil, err
	}

	for _, img := range req.Images {
		_, imageURL, err := s.storage.Upload(ctx, s.cfg.Buckets.StoryImages, author.ProfileID, img.File.Name, img.File.Content, img.File.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload story image: %w", err)
		}

		caption := img.Caption
		storyImage := &models.StoryImage{
			StoryID:      story.StoryID,
			ImageURL:     imageURL,
			ImageCaption: &caption,
			ImageOrder:   img.Order,
			FileName:     img.File.Name,
			FileSize:     img.File.Size,
		}
		if err := s.mediaRepo.CreateStoryImage(ctx, storyImage); err != nil {
			return nil, fmt.Errorf("failed to save story image: %w", err)
		}
		story.StoryImages = append(story.StoryImages, *storyImage)
	}

	if err := s.finishSubmission(ctx, story, req.Tags); err != nil {
		return nil, err
	}

	return story, nil
}

// CreateAudioStory submits an audio story. Audio stories carry a
// recording instead of text content and enter moderation as pending.
func (s *storyService) CreateAudioStory(ctx context.Context, req CreateAudioStoryRequest) (*models.Story, error) {
	author, err := s.checkAuthor(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.localityRepo.GetByID(ctx, req.LocalityID); err != nil {
		return nil, err
	}

	if req.Audio.Content == nil {
		return nil, fmt.Errorf("audio story requires an audio file: %w", ErrValidation)
	}

	_, audioURL, err := s.storage.Upload(ctx, s.cfg.Buckets.AudioStories, author.ProfileID, req.Audio.Name, req.Audio.Content, req.Audio.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio: %w", err)
	}

	story := s.newStory(req.Title, req.Description, req.Genre, req.Language, req.MainCharacters, req.LocalityID, author.ProfileID)
	story.StoryType = models.StoryTypeAudio
	story.AudioURL = &audioURL
	story.AudioDuration = req.AudioDuration

	if req.CoverImage != nil {
		_, coverURL, err := s.storage.Upload(ctx, s.cfg.Buckets.StoryCovers, author.ProfileID, req.CoverImage.Name, req.CoverImage.Content, req.CoverImage.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload cover image: %w", err)
		}
		story.CoverImageURL = &coverURL
	}

	err = s.storyRepo.Create(ctx, story)
	if err != nil {
		return nil, err
	}

	mediaFile := &models.MediaFile{
		StoryID:  story.StoryID,
		FileURL:  audioURL,
		FileType: "audio",
		FileName: req.Audio.Name,
		FileSize: req.Audio.Size,
	}
	if err := s.mediaRepo.CreateMediaFile(ctx, mediaFile); err != nil {
		return nil, fmt.Errorf("failed to save audio record: %w", err)
	}
	story.MediaFiles = append(story.MediaFiles, *mediaFile)

	if err := s.finishSubmission(ctx, story, req.Tags); err != nil {
		return nil, err
	}

	return story, nil
}

// GetStoryByID returns the story with its images, media files and tags
// loaded, storage paths resolved to URLs, and [IMAGE:n] placeholders in
// text content replaced with the matching inline images.
func (s *storyService) GetStoryByID(ctx context.Context, storyID string) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	images, err := s.mediaRepo.ListImagesByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].ImageURL = s.storage.ResolveURL(s.cfg.Buckets.StoryImages, images[i].ImageURL)
	}
	story.StoryImages = images

	media, err := s.mediaRepo.ListMediaByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	for i := range media {
		media[i].FileURL = s.storage.ResolveURL(s.cfg.Buckets.Media, media[i].FileURL)
	}
	story.MediaFiles = media

	tags, err := s.mediaRepo.ListTagsByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	story.Tags = tags

	s.resolveStoryURLs(story)

	if story.StoryType == models.StoryTypeText && story.Content != nil {
		rendered := RenderContent(*story.Content, story.StoryImages)
		story.Content = &rendered
	}

	return story, nil
}

func (s *storyService) GetStoriesByAuthor(ctx context.Context, authorID, status string) ([]models.Story, error) {
	stories, err := s.storyRepo.ListByAuthor(ctx, authorID, status)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		s.resolveStoryURLs(&stories[i])
	}
	return stories, nil
}

// DeleteStory soft-deletes a story. Authors may delete their own
// stories; admins may delete any.
func (s *storyService) DeleteStory(ctx context.Context, storyID, actorID string) error {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return err
	}

	if story.AuthorID != actor.ProfileID && !actor.IsAdmin {
		return fmt.Errorf("only the author or an admin can delete a story: %w", ErrUnauthorized)
	}

	if err := s.storyRepo.SoftDelete(ctx, storyID, actor.ProfileID); err != nil {
		return err
	}

	s.bus.Publish(eventbus.Event{
		Type: eventbus.StoryDeleted,
		Payload: map[string]string{
			"storyId":  storyID,
			"authorId": story.AuthorID,
		},
	})

	return nil
}

func (s *storyService) checkAuthor(ctx context.Context, authorID string) (*models.Profile, error) {
	author, err := s.profileRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.IsBlocked {
		return nil, fmt.Errorf("blocked accounts cannot submit stories: %w", ErrBlocked)
	}
	return author, nil
}

func (s *storyService) newStory(title, description, genre, language string, characters []string, localityID, authorID string) *models.Story {
	story := &models.Story{
		Title:          strings.TrimSpace(title),
		LocalityID:     localityID,
		AuthorID:       authorID,
		Status:         models.StatusPending,
		MainCharacters: characters,
	}
	if description != "" {
		story.Description = &description
	}
	if genre != "" {
		story.Genre = &genre
	}
	if language != "" {
		story.Language = &language
	}
	return story
}

// finishSubmission attaches tags, bumps the author's storyteller
// counters and announces the new story.
func (s *storyService) finishSubmission(ctx context.Context, story *models.Story, tags []string) error {
	for _, name := range tags {
		tag, err := s.mediaRepo.GetOrCreateTag(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		if err := s.mediaRepo.AttachTag(ctx, story.StoryID, tag.TagID); err != nil {
			return fmt.Errorf("failed to attach tag %q: %w", name, err)
		}
		story.Tags = append(story.Tags, *tag)
	}

	if err := s.profileRepo.RecordStorySubmission(ctx, story.AuthorID); err != nil {
		return fmt.Errorf("failed to update storyteller counters: %w", err)
	}

	s.bus.Publish(eventbus.Event{
		Type: eventbus.StoryCreated,
		Payload: map[string]string{
			"storyId":    story.StoryID,
			"authorId":   story.AuthorID,
			"localityId": story.LocalityID,
			"storyType":  story.StoryType,
		},
	})

	return nil
}

func (s *storyService) resolveStoryURLs(story *models.Story) {
	if story.CoverImageURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.StoryCovers, *story.CoverImageURL)
		story.CoverImageURL = &resolved
	}
	if story.AudioURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.AudioStories, *story.AudioURL)
		story.AudioURL = &resolved
	}
}

// RenderContent substitutes [IMAGE:n] placeholders with the inline image
// whose order matches n. Placeholders with no matching image are left
// intact.
func RenderContent(content string, images []models.StoryImage) string {
	if len(images) == 0 {
		return content
	}

	byOrder := make(map[int]models.StoryImage, len(images))
	for _, img := range images {
		byOrder[img.ImageOrder] = img
	}

	for order, img := range byOrder {
		placeholder := fmt.Sprintf("[IMAGE:%d]", order)
		caption := ""
		if img.ImageCaption != nil {
			caption = *img.ImageCaption
		}
		replacement := fmt.Sprintf(`<figure><img src="%s" alt="%s"><figcaption>%s</figcaption></figure>`, img.ImageURL, caption, caption)
		content = strings.ReplaceAll(content, placeholder, replacement)
	}

	return content
}

func countWords(content string) int {
	return len(strings.Fields(content))
}
