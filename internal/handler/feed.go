package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"travelthreads/internal/httputil"
	"travelthreads/internal/model"
	"travelthreads/internal/service"
	"travelthreads/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// GetFeed handles GET /feed?order=&cursor=&page=&limit=
// order defaults to "recent". The recent order pages by cursor; popular and
// trending page by page number.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	order := r.URL.Query().Get("order")

	var cursor *string
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		cursor = &cursorStr
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			httputil.WriteBadRequest(w, "Page must be a positive number")
			return
		}
		page = parsed
	}

	limit := service.FeedDefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > service.FeedMaxLimit {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	feed, err := h.feedService.GetFeed(r.Context(), userID, order, cursor, page, limit)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidFeedOrder):
			httputil.WriteBadRequest(w, "Order must be one of: recent, popular, trending")
		default:
			log.Printf("[ERROR] GetFeed handler: user=%d order=%q err=%v", userID, order, err)
			httputil.WriteInternalError(w, "Failed to get feed")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
