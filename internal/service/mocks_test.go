package service

import (
	"context"
	"fmt"
	"io"

	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

// The fakes embed the repository interfaces so only the methods a test
// exercises need implementations; anything else panics loudly.

type fakeProfileRepo struct {
	repository.ProfileRepository
	profiles    map[string]*models.Profile
	submissions []string
}

func newFakeProfileRepo(profiles ...*models.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		repo.profiles[p.ProfileID] = p
	}
	return repo
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, profileID string) (*models.Profile, error) {
	profile, ok := f.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", profileID, repository.ErrNotFound)
	}
	return profile, nil
}

func (f *fakeProfileRepo) RecordStorySubmission(ctx context.Context, profileID string) error {
	f.submissions = append(f.submissions, profileID)
	return nil
}

type moderationCall struct {
	storyID     string
	status      string
	moderatorID string
	notes       *string
}

type fakeStoryRepo struct {
	repository.StoryRepository
	stories     map[string]*models.Story
	pending     []models.Story
	byLocality  []models.Story
	created     []*models.Story
	moderations []moderationCall
}

func newFakeStoryRepo(stories ...*models.Story) *fakeStoryRepo {
	repo := &fakeStoryRepo{stories: make(map[string]*models.Story)}
	for _, s := range stories {
		repo.stories[s.StoryID] = s
	}
	return repo
}

func (f *fakeStoryRepo) Create(ctx context.Context, story *models.Story) error {
	if story.StoryID == "" {
		story.StoryID = fmt.Sprintf("story-%d", len(f.created)+1)
	}
	f.created = append(f.created, story)
	f.stories[story.StoryID] = story
	return nil
}

func (f *fakeStoryRepo) GetByID(ctx context.Context, storyID string) (*models.Story, error) {
	story, ok := f.stories[storyID]
	if !ok {
		return nil, fmt.Errorf("story %s: %w", storyID, repository.ErrNotFound)
	}
	return story, nil
}

func (f *fakeStoryRepo) ListPending(ctx context.Context) ([]models.Story, error) {
	return f.pending, nil
}

func (f *fakeStoryRepo) ListByLocality(ctx context.Context, localityID, status string, limit, offset int) ([]models.Story, error) {
	if offset >= len(f.byLocality) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.byLocality) {
		end = len(f.byLocality)
	}
	return f.byLocality[offset:end], nil
}

func (f *fakeStoryRepo) UpdateModeration(ctx context.Context, storyID, status, moderatorID string, notes *string) error {
	if _, ok := f.stories[storyID]; !ok {
		return fmt.Errorf("story %s: %w", storyID, repository.ErrNotFound)
	}
	f.moderations = append(f.moderations, moderationCall{storyID, status, moderatorID, notes})
	f.stories[storyID].Status = status
	return nil
}

type fakeEngagementRepo struct {
	repository.EngagementRepository
	reviews    map[string]*models.StoryReview
	reads      map[string]bool
	readCount  int
	thumbsUp   int
	thumbsDown int
}

func newFakeEngagementRepo() *fakeEngagementRepo {
	return &fakeEngagementRepo{
		reviews: make(map[string]*models.StoryReview),
		reads:   make(map[string]bool),
	}
}

func reviewKey(storyID, userID string) string { return storyID + "|" + userID }

func (f *fakeEngagementRepo) GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error) {
	return f.reviews[reviewKey(storyID, userID)], nil
}

func (f *fakeEngagementRepo) CreateReview(ctx context.Context, review *models.StoryReview) error {
	f.reviews[reviewKey(review.StoryID, review.UserID)] = review
	return nil
}

func (f *fakeEngagementRepo) CountReviews(ctx context.Context, storyID string) (int, int, error) {
	return f.thumbsUp, f.thumbsDown, nil
}

func (f *fakeEngagementRepo) CreateRead(ctx context.Context, read *models.StoryRead) error {
	key := read.StoryID + "|" + read.IPAddress + "|" + read.BrowserFingerprint
	if f.reads[key] {
		return repository.ErrDuplicateRead
	}
	f.reads[key] = true
	f.readCount++
	return nil
}

func (f *fakeEngagementRepo) CountReads(ctx context.Context, storyID string) (int, error) {
	return f.readCount, nil
}

type fakeMediaRepo struct {
	repository.MediaRepository
	tags   map[string]*models.Tag
	images map[string][]models.StoryImage
	media  map[string][]models.MediaFile
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{
		tags:   make(map[string]*models.Tag),
		images: make(map[string][]models.StoryImage),
		media:  make(map[string][]models.MediaFile),
	}
}

func (f *fakeMediaRepo) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	if tag, ok := f.tags[name]; ok {
		return tag, nil
	}
	tag := &models.Tag{TagID: "tag-" + name, Name: name}
	f.tags[name] = tag
	return tag, nil
}

func (f *fakeMediaRepo) AttachTag(ctx context.Context, storyID, tagID string) error {
	return nil
}

func (f *fakeMediaRepo) ListTagsByStory(ctx context.Context, storyID string) ([]models.Tag, error) {
	return nil, nil
}

func (f *fakeMediaRepo) CreateStoryImage(ctx context.Context, image *models.StoryImage) error {
	f.images[image.StoryID] = append(f.images[image.StoryID], *image)
	return nil
}

func (f *fakeMediaRepo) ListImagesByStory(ctx context.Context, storyID string) ([]models.StoryImage, error) {
	return f.images[storyID], nil
}

func (f *fakeMediaRepo) CreateMediaFile(ctx context.Context, file *models.MediaFile) error {
	f.media[file.StoryID] = append(f.media[file.StoryID], *file)
	return nil
}

func (f *fakeMediaRepo) ListMediaByStory(ctx context.Context, storyID string) ([]models.MediaFile, error) {
	return f.media[storyID], nil
}

type fakeLocalityRepo struct {
	repository.LocalityRepository
	localities map[string]*models.Locality
}

func newFakeLocalityRepo(localities ...*models.Locality) *fakeLocalityRepo {
	repo := &fakeLocalityRepo{localities: make(map[string]*models.Locality)}
	for _, l := range localities {
		repo.localities[l.LocalityID] = l
	}
	return repo
}

func (f *fakeLocalityRepo) GetByID(ctx context.Context, localityID string) (*models.Locality, error) {
	locality, ok := f.localities[localityID]
	if !ok {
		return nil, fmt.Errorf("locality %s: %w", localityID, repository.ErrNotFound)
	}
	return locality, nil
}

// fakeStorage records uploads and resolves paths with a fixed base URL.
type fakeStorage struct {
	uploads []string
}

var _ storage.Storage = (*fakeStorage)(nil)

func (f *fakeStorage) Upload(ctx context.Context, bucket, ownerID, fileName string, file io.Reader, size int64) (string, string, error) {
	objectName := ownerID + "/" + fileName
	f.uploads = append(f.uploads, bucket+"/"+objectName)
	return objectName, "http://storage.test/" + bucket + "/" + objectName, nil
}

func (f *fakeStorage) Delete(ctx context.Context, bucket, objectName string) error {
	return nil
}

func (f *fakeStorage) ResolveURL(bucket, pathOrURL string) string {
	return storage.ResolveURL("http://storage.test", bucket, pathOrURL)
}
