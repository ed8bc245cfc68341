package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talehub/internal/config"
	"talehub/internal/eventbus"
	"talehub/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxStoryWords: 2000,
		FeedPageSize:  20,
		Buckets: config.Buckets{
			ProfileImages: "profile-images",
			StoryCovers:   "story-covers",
			StoryImages:   "story-images",
			AudioStories:  "audio-stories",
			Media:         "media",
		},
	}
}

func TestStoryService_CreateStory(t *testing.T) {
	author := &models.Profile{ProfileID: "a1", FullName: "Asha N"}
	blocked := &models.Profile{ProfileID: "b1", IsBlocked: true}

	locality := &models.Locality{LocalityID: "l1", Name: "Riverside"}
	newService := func(storyRepo *fakeStoryRepo, profileRepo *fakeProfileRepo, bus *eventbus.Bus) StoryService {
		return NewStoryService(storyRepo, newFakeMediaRepo(), profileRepo, newFakeLocalityRepo(locality), &fakeStorage{}, testConfig(), bus)
	}

	t.Run("new story enters moderation as pending", func(t *testing.T) {
		storyRepo := newFakeStoryRepo()
		profileRepo := newFakeProfileRepo(author)
		bus := eventbus.New()

		created := 0
		bus.Subscribe(eventbus.StoryCreated, func(eventbus.Event) { created++ })

		story, err := newService(storyRepo, profileRepo, bus).CreateStory(context.Background(), CreateStoryRequest{
			Title:      "The River",
			Content:    "Once upon a time by the river.",
			LocalityID: "l1",
			AuthorID:   "a1",
			Tags:       []string{"folk", "river"},
		})

		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, story.Status)
		assert.Equal(t, models.StoryTypeText, story.StoryType)
		assert.Equal(t, 1, created)
		assert.Equal(t, []string{"a1"}, profileRepo.submissions)
		assert.Len(t, story.Tags, 2)
	})

	t.Run("blocked author cannot submit", func(t *testing.T) {
		storyRepo := newFakeStoryRepo()

		_, err := newService(storyRepo, newFakeProfileRepo(blocked), eventbus.New()).CreateStory(context.Background(), CreateStoryRequest{
			Title:      "The River",
			Content:    "Once upon a time.",
			LocalityID: "l1",
			AuthorID:   "b1",
		})

		assert.ErrorIs(t, err, ErrBlocked)
		assert.Empty(t, storyRepo.created)
	})

	t.Run("stories over the word limit are rejected", func(t *testing.T) {
		long := strings.Repeat("word ", 2001)

		_, err := newService(newFakeStoryRepo(), newFakeProfileRepo(author), eventbus.New()).CreateStory(context.Background(), CreateStoryRequest{
			Title:      "Too Long",
			Content:    long,
			LocalityID: "l1",
			AuthorID:   "a1",
		})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("script tags are stripped from content", func(t *testing.T) {
		story, err := newService(newFakeStoryRepo(), newFakeProfileRepo(author), eventbus.New()).CreateStory(context.Background(), CreateStoryRequest{
			Title:      "The River",
			Content:    `Hello <script>alert("x")</script>world`,
			LocalityID: "l1",
			AuthorID:   "a1",
		})

		require.NoError(t, err)
		assert.NotContains(t, *story.Content, "<script>")
	})
}

func TestStoryService_CreateAudioStory(t *testing.T) {
	author := &models.Profile{ProfileID: "a1"}
	locality := &models.Locality{LocalityID: "l1", Name: "Riverside"}
	storage := &fakeStorage{}
	svc := NewStoryService(newFakeStoryRepo(), newFakeMediaRepo(), newFakeProfileRepo(author), newFakeLocalityRepo(locality), storage, testConfig(), eventbus.New())

	duration := 95
	story, err := svc.CreateAudioStory(context.Background(), CreateAudioStoryRequest{
		Title:      "Grandmother's Song",
		LocalityID: "l1",
		AuthorID:   "a1",
		Audio: UploadedFile{
			Name:    "song.mp3",
			Size:    2048,
			Content: strings.NewReader("audio-bytes"),
		},
		AudioDuration: &duration,
	})

	require.NoError(t, err)
	assert.Equal(t, models.StoryTypeAudio, story.StoryType)
	assert.Equal(t, models.StatusPending, story.Status)
	assert.Nil(t, story.Content)
	require.NotNil(t, story.AudioURL)
	assert.Contains(t, *story.AudioURL, "audio-stories")
	assert.Equal(t, &duration, story.AudioDuration)
	require.Len(t, story.MediaFiles, 1)
	assert.Equal(t, "audio", story.MediaFiles[0].FileType)
}

func TestRenderContent(t *testing.T) {
	caption := "The old bridge"
	images := []models.StoryImage{
		{ImageURL: "http://storage.test/story-images/a1/bridge.jpg", ImageCaption: &caption, ImageOrder: 0},
		{ImageURL: "http://storage.test/story-images/a1/river.jpg", ImageOrder: 1},
	}

	t.Run("placeholders are replaced by their image", func(t *testing.T) {
		rendered := RenderContent("Start [IMAGE:0] middle [IMAGE:1] end", images)

		assert.Contains(t, rendered, "bridge.jpg")
		assert.Contains(t, rendered, "river.jpg")
		assert.Contains(t, rendered, "The old bridge")
		assert.NotContains(t, rendered, "[IMAGE:0]")
		assert.NotContains(t, rendered, "[IMAGE:1]")
	})

	t.Run("unmatched placeholders are left intact", func(t *testing.T) {
		rendered := RenderContent("Start [IMAGE:7] end", images)
		assert.Contains(t, rendered, "[IMAGE:7]")
	})

	t.Run("no images leaves content untouched", func(t *testing.T) {
		content := "Plain [IMAGE:0] text"
		assert.Equal(t, content, RenderContent(content, nil))
	})
}
