package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	term := r.URL.Query().Get("search")

	users, err := h.AdminService.SearchUsers(r.Context(), profileID, term)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, users, http.StatusOK)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	targetID := mux.Vars(r)["id"]

	user, err := h.AdminService.GetUser(r.Context(), profileID, targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, user, http.StatusOK)
}

func (h *Handlers) SetUserBlocked(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	targetID := mux.Vars(r)["id"]

	var body struct {
		Blocked bool    `json:"blocked"`
		Reason  *string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.AdminService.SetUserBlocked(r.Context(), profileID, targetID, body.Blocked, body.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	status := "blocked"
	if !body.Blocked {
		status = "unblocked"
	}
	WriteSuccess(w, map[string]string{"status": status}, http.StatusOK)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	targetID := mux.Vars(r)["id"]

	var body struct {
		Reason *string `json:"reason"`
	}
	// Body is optional for deletes.
	json.NewDecoder(r.Body).Decode(&body)

	if err := h.AdminService.DeleteUser(r.Context(), profileID, targetID, body.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "user deleted"}, http.StatusOK)
}

func (h *Handlers) SetModerator(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	targetID := mux.Vars(r)["id"]

	var body struct {
		Moderator bool `json:"moderator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.AdminService.SetModerator(r.Context(), profileID, targetID, body.Moderator); err != nil {
		writeServiceError(w, err)
		return
	}

	status := "moderator added"
	if !body.Moderator {
		status = "moderator removed"
	}
	WriteSuccess(w, map[string]string{"status": status}, http.StatusOK)
}

func (h *Handlers) ListModerators(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	moderators, err := h.AdminService.ListModerators(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, moderators, http.StatusOK)
}
