package handlers

import (
	"net/http"
	"strconv"

	"talehub/internal/service"
)

// GetFeed returns one page of approved stories for a locality. Story
// type and author name narrow the page after it is fetched.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	query := service.FeedQuery{
		LocalityID: r.URL.Query().Get("localityId"),
		StoryType:  r.URL.Query().Get("storyType"),
		AuthorName: r.URL.Query().Get("author"),
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = page
	}

	if err := h.Validate.Struct(query); err != nil {
		WriteError(w, "localityId is required and must be a UUID", http.StatusBadRequest)
		return
	}

	feed, err := h.FeedService.GetFeed(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, feed, http.StatusOK)
}
