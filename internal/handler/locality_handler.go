package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"talehub/internal/models"
)

func (h *Handlers) GetLocalities(w http.ResponseWriter, r *http.Request) {
	localities, err := h.LocalityRepo.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, localities, http.StatusOK)
}

func (h *Handlers) CreateLocality(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string  `json:"name" validate:"required,min=2,max=100"`
		State   *string `json:"state"`
		Country *string `json:"country"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Locality name is required", http.StatusBadRequest)
		return
	}

	locality := &models.Locality{
		Name:    req.Name,
		State:   req.State,
		Country: req.Country,
	}

	if err := h.LocalityRepo.Create(r.Context(), locality); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, locality, http.StatusCreated)
}

func (h *Handlers) GetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.LocalityRepo.ListGenres(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, genres, http.StatusOK)
}

func (h *Handlers) GetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RoleRepo.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, roles, http.StatusOK)
}

func (h *Handlers) GetStorytellers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")

	storytellers, err := h.StorytellerService.SearchStorytellers(r.Context(), term)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, storytellers, http.StatusOK)
}

func (h *Handlers) GetStoryteller(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["id"]
	if profileID == "" {
		WriteError(w, "Storyteller id is required", http.StatusBadRequest)
		return
	}

	storyteller, err := h.StorytellerService.GetStoryteller(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, storyteller, http.StatusOK)
}
