package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/service"
)

type fakeEngagementService struct {
	trackedReads []service.TrackReadRequest
	reviewErr    error
	stats        *models.StoryStats
}

func (f *fakeEngagementService) TrackRead(ctx context.Context, req service.TrackReadRequest) error {
	f.trackedReads = append(f.trackedReads, req)
	return nil
}

func (f *fakeEngagementService) SubmitReview(ctx context.Context, storyID, userID, reviewType string) error {
	return f.reviewErr
}

func (f *fakeEngagementService) GetUserReview(ctx context.Context, storyID, userID string) (*models.StoryReview, error) {
	return nil, nil
}

func (f *fakeEngagementService) GetStoryStats(ctx context.Context, storyID string) (*models.StoryStats, error) {
	if f.stats == nil {
		return nil, fmt.Errorf("story %s: %w", storyID, repository.ErrNotFound)
	}
	return f.stats, nil
}

func newEngagementHandlers(svc service.EngagementService) *Handlers {
	return &Handlers{
		EngagementService: svc,
		Validate:          validator.New(),
	}
}

func TestTrackRead(t *testing.T) {
	svc := &fakeEngagementService{}
	handler := newEngagementHandlers(svc)

	router := mux.NewRouter()
	router.HandleFunc("/api/stories/{id}/read", handler.TrackRead).Methods(http.MethodPost)

	body, _ := json.Marshal(service.FingerprintHints{Language: "en-US", Platform: "Linux"})
	req := httptest.NewRequest(http.MethodPost, "/api/stories/s1/read", bytes.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.trackedReads, 1)
	assert.Equal(t, "s1", svc.trackedReads[0].StoryID)
	assert.Equal(t, "203.0.113.7", svc.trackedReads[0].IPAddress)
	assert.Nil(t, svc.trackedReads[0].UserID)
}

func TestSubmitReview_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"duplicate review maps to 409", fmt.Errorf("already: %w", service.ErrAlreadyReviewed), http.StatusConflict},
		{"missing story maps to 404", fmt.Errorf("story: %w", repository.ErrNotFound), http.StatusNotFound},
		{"success maps to 201", nil, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newEngagementHandlers(&fakeEngagementService{reviewErr: tc.serviceErr})

			router := mux.NewRouter()
			router.HandleFunc("/api/stories/{id}/review", handler.SubmitReview).Methods(http.MethodPost)

			body := bytes.NewReader([]byte(`{"reviewType":"thumbs_up"}`))
			req := httptest.NewRequest(http.MethodPost, "/api/stories/s1/review", body)
			req = req.WithContext(context.WithValue(req.Context(), "profileID", "u1"))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestSubmitReview_RequiresAuth(t *testing.T) {
	handler := newEngagementHandlers(&fakeEngagementService{})

	router := mux.NewRouter()
	router.HandleFunc("/api/stories/{id}/review", handler.SubmitReview).Methods(http.MethodPost)

	body := bytes.NewReader([]byte(`{"reviewType":"thumbs_up"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/stories/s1/review", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetStoryStats(t *testing.T) {
	svc := &fakeEngagementService{stats: &models.StoryStats{
		TotalReads:           12,
		ThumbsUp:             2,
		ThumbsDown:           1,
		ThumbsUpPercentage:   67,
		ThumbsDownPercentage: 33,
	}}
	handler := newEngagementHandlers(svc)

	router := mux.NewRouter()
	router.HandleFunc("/api/stories/{id}/stats", handler.GetStoryStats).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/s1/stats", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.StoryStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 12, stats.TotalReads)
	assert.Equal(t, 67, stats.ThumbsUpPercentage)
}
