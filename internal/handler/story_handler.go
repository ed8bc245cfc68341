package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"talehub/internal/service"
)

// CreateStory submits a text story as multipart form data: text fields
// plus an optional cover image and inline images. The inline image at
// index n corresponds to the [IMAGE:n] placeholder in the content.
func (h *Handlers) CreateStory(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		WriteError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	req := service.CreateStoryRequest{
		Title:          r.FormValue("title"),
		Content:        r.FormValue("content"),
		Description:    r.FormValue("description"),
		Genre:          r.FormValue("genre"),
		Language:       r.FormValue("language"),
		MainCharacters: splitList(r.FormValue("mainCharacters")),
		LocalityID:     r.FormValue("localityId"),
		AuthorID:       profileID,
		Tags:           splitList(r.FormValue("tags")),
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Invalid story data: "+err.Error(), http.StatusBadRequest)
		return
	}

	if file, header, err := r.FormFile("coverImage"); err == nil {
		defer file.Close()
		req.CoverImage = &service.UploadedFile{
			Name:    header.Filename,
			Size:    header.Size,
			Content: file,
		}
	}

	if r.MultipartForm != nil {
		captions := r.MultipartForm.Value["imageCaptions"]
		for i, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				WriteError(w, "Failed to read inline image", http.StatusBadRequest)
				return
			}
			defer file.Close()

			caption := ""
			if i < len(captions) {
				caption = captions[i]
			}
			req.Images = append(req.Images, service.ImageUpload{
				File: service.UploadedFile{
					Name:    header.Filename,
					Size:    header.Size,
					Content: file,
				},
				Caption: caption,
				Order:   i,
			})
		}
	}

	story, err := h.StoryService.CreateStory(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, story, http.StatusCreated)
}

// CreateAudioStory submits an audio story: the recording is required,
// text content is not accepted.
func (h *Handlers) CreateAudioStory(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		WriteError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		WriteError(w, "Audio file is required", http.StatusBadRequest)
		return
	}
	defer audioFile.Close()

	req := service.CreateAudioStoryRequest{
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		Genre:          r.FormValue("genre"),
		Language:       r.FormValue("language"),
		MainCharacters: splitList(r.FormValue("mainCharacters")),
		LocalityID:     r.FormValue("localityId"),
		AuthorID:       profileID,
		Tags:           splitList(r.FormValue("tags")),
		Audio: service.UploadedFile{
			Name:    audioHeader.Filename,
			Size:    audioHeader.Size,
			Content: audioFile,
		},
	}

	if v := r.FormValue("audioDuration"); v != "" {
		if duration, err := strconv.Atoi(v); err == nil {
			req.AudioDuration = &duration
		}
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Invalid story data: "+err.Error(), http.StatusBadRequest)
		return
	}

	if file, header, err := r.FormFile("coverImage"); err == nil {
		defer file.Close()
		req.CoverImage = &service.UploadedFile{
			Name:    header.Filename,
			Size:    header.Size,
			Content: file,
		}
	}

	story, err := h.StoryService.CreateAudioStory(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, story, http.StatusCreated)
}

func (h *Handlers) GetStory(w http.ResponseWriter, r *http.Request) {
	storyID := mux.Vars(r)["id"]
	if storyID == "" {
		WriteError(w, "Story id is required", http.StatusBadRequest)
		return
	}

	story, err := h.StoryService.GetStoryByID(r.Context(), storyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, story, http.StatusOK)
}

func (h *Handlers) GetMyStories(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")

	stories, err := h.StoryService.GetStoriesByAuthor(r.Context(), profileID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, stories, http.StatusOK)
}

func (h *Handlers) DeleteStory(w http.ResponseWriter, r *http.Request) {
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

	if err := h.StoryService.DeleteStory(r.Context(), storyID, profileID); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "story deleted"}, http.StatusOK)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
