package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"talehub/internal/service"
)

// TrackRead records a story read. Works for anonymous readers; when a
// token is present the reader's profile is attached to the record.
func (h *Handlers) TrackRead(w http.ResponseWriter, r *http.Request) {
	storyID := mux.Vars(r)["id"]
	if storyID == "" {
		WriteError(w, "Story id is required", http.StatusBadRequest)
		return
	}

	var hints service.FingerprintHints
	if err := json.NewDecoder(r.Body).Decode(&hints); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if hints.UserAgent == "" {
		hints.UserAgent = r.UserAgent()
	}

	req := service.TrackReadRequest{
		StoryID:   storyID,
		IPAddress: clientIP(r),
		Hints:     hints,
	}
	if profileID, ok := r.Context().Value("profileID").(string); ok {
		req.UserID = &profileID
	}

	if err := h.EngagementService.TrackRead(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "recorded"}, http.StatusOK)
}

func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
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
		ReviewType string `json:"reviewType" validate:"required,oneof=thumbs_up thumbs_down"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(body); err != nil {
		WriteError(w, "reviewType must be thumbs_up or thumbs_down", http.StatusBadRequest)
		return
	}

	if err := h.EngagementService.SubmitReview(r.Context(), storyID, profileID, body.ReviewType); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "review recorded"}, http.StatusCreated)
}

func (h *Handlers) GetUserReview(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	storyID := mux.Vars(r)["id"]

	review, err := h.EngagementService.GetUserReview(r.Context(), storyID, profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{"review": review}, http.StatusOK)
}

func (h *Handlers) GetStoryStats(w http.ResponseWriter, r *http.Request) {
	storyID := mux.Vars(r)["id"]
	if storyID == "" {
		WriteError(w, "Story id is required", http.StatusBadRequest)
		return
	}

	stats, err := h.EngagementService.GetStoryStats(r.Context(), storyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, stats, http.StatusOK)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
