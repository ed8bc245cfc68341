package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"talehub/internal/service"
)

func (h *Handlers) GetPendingStories(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	stories, err := h.ModerationService.GetPendingStories(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, stories, http.StatusOK)
}

func (h *Handlers) ModerateStory(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	storyID := mux.Vars(r)["id"]
	if storyID == "" {
		WriteError(w, "Story id is required", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string  `json:"status" validate:"required,oneof=approved rejected"`
		Notes  *string `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(body); err != nil {
		WriteError(w, "Status must be approved or rejected", http.StatusBadRequest)
		return
	}

	req := service.ModerateStoryRequest{
		StoryID:     storyID,
		ModeratorID: profileID,
		Status:      body.Status,
		Notes:       body.Notes,
	}

	if err := h.ModerationService.ModerateStory(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": body.Status}, http.StatusOK)
}

func (h *Handlers) GetModeratorActivity(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	moderatorID := mux.Vars(r)["id"]
	if moderatorID == "" {
		moderatorID = profileID
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activity, err := h.ModerationService.GetModeratorActivity(r.Context(), profileID, moderatorID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, activity, http.StatusOK)
}
