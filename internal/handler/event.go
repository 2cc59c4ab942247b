package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"travelthreads/internal/httputil"
	"travelthreads/internal/model"
	"travelthreads/internal/service"
	"travelthreads/internal/transport/http/middleware"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEventTitleRequired):
			httputil.WriteBadRequest(w, "Event title is required")
		case errors.Is(err, model.ErrEventDatesInvalid):
			httputil.WriteBadRequest(w, "Event end date must not precede the start date")
		case errors.Is(err, model.ErrInvalidCategory):
			httputil.WriteBadRequest(w, "Invalid event category")
		default:
			log.Printf("[ERROR] Create event handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create event")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, event)
}

// GetByID handles GET /events/{id}
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			httputil.WriteNotFound(w, "Event not found")
			return
		}
		log.Printf("[ERROR] Get event handler: event=%d err=%v", eventID, err)
		httputil.WriteInternalError(w, "Failed to get event")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

// List handles GET /events?category=&from=&to=&q=&location=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.EventFilter

	q := r.URL.Query()
	if category := q.Get("category"); category != "" {
		filter.Category = &category
	}
	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid 'from' date format, expected RFC3339")
			return
		}
		filter.From = &from
	}
	if toStr := q.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid 'to' date format, expected RFC3339")
			return
		}
		filter.To = &to
	}
	if query := q.Get("q"); query != "" {
		filter.Query = &query
	}
	if location := q.Get("location"); location != "" {
		filter.Location = &location
	}

	events, err := h.eventService.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCategory) {
			httputil.WriteBadRequest(w, "Invalid event category")
			return
		}
		log.Printf("[ERROR] List events handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.EventListResponse{Events: events})
}

// GetByMonth handles GET /events/calendar?year=&month=
func (h *EventHandler) GetByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		httputil.WriteBadRequest(w, "Invalid year")
		return
	}

	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		httputil.WriteBadRequest(w, "Month must be between 1 and 12")
		return
	}

	events, err := h.eventService.GetByMonth(r.Context(), year, time.Month(monthNum))
	if err != nil {
		log.Printf("[ERROR] GetByMonth handler: year=%d month=%d err=%v", year, monthNum, err)
		httputil.WriteInternalError(w, "Failed to get events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.EventListResponse{Events: events})
}

// Popular handles GET /events/popular
// Upcoming events sorted by attendee count.
func (h *EventHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	events, err := h.eventService.Popular(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Popular events handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get popular events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.EventListResponse{Events: events})
}

// Upcoming handles GET /events/upcoming
// Future events sorted by start time.
func (h *EventHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	events, err := h.eventService.Upcoming(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Upcoming events handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get upcoming events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.EventListResponse{Events: events})
}

// GetAttending handles GET /me/events/attending
func (h *EventHandler) GetAttending(w http.ResponseWriter, r *http.Request) {
	h.getUserEvents(w, r, h.eventService.GetAttending)
}

// GetInterested handles GET /me/events/interested
func (h *EventHandler) GetInterested(w http.ResponseWriter, r *http.Request) {
	h.getUserEvents(w, r, h.eventService.GetInterested)
}

func (h *EventHandler) getUserEvents(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID int64) ([]model.Event, error),
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	events, err := fetch(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] User events handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.EventListResponse{Events: events})
}

// Attend handles POST /events/{id}/attend
func (h *EventHandler) Attend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	eventID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid event ID")
		return
	}

	err = h.eventService.Attend(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEventNotFound):
			httputil.WriteNotFound(w, "Event not found")
		case errors.Is(err, model.ErrEventFull):
			httputil.WriteConflict(w, "Event is at capacity")
		default:
			log.Printf("[ERROR] Attend handler: user=%d event=%d err=%v", userID, eventID, err)
			httputil.WriteInternalError(w, "Failed to attend event")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Attending event",
	})
}

// Unattend handles DELETE /events/{id}/attend
func (h *EventHandler) Unattend(w http.ResponseWriter, r *http.Request) {
	h.membershipChange(w, r, h.eventService.Unattend, "No longer attending event")
}

// MarkInterested handles POST /events/{id}/interest
func (h *EventHandler) MarkInterested(w http.ResponseWriter, r *http.Request) {
	h.membershipChange(w, r, h.eventService.MarkInterested, "Marked as interested")
}

// UnmarkInterested handles DELETE /events/{id}/interest
func (h *EventHandler) UnmarkInterested(w http.ResponseWriter, r *http.Request) {
	h.membershipChange(w, r, h.eventService.UnmarkInterested, "Interest removed")
}

func (h *EventHandler) membershipChange(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, eventID, userID int64) error,
	message string,
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	eventID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid event ID")
		return
	}

	err = change(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			httputil.WriteNotFound(w, "Event not found")
			return
		}
		log.Printf("[ERROR] Event membership handler: user=%d event=%d err=%v", userID, eventID, err)
		httputil.WriteInternalError(w, "Failed to update event membership")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": message,
	})
}

// Delete handles DELETE /events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	eventID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid event ID")
		return
	}

	err = h.eventService.Delete(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEventNotFound):
			httputil.WriteNotFound(w, "Event not found")
		case errors.Is(err, model.ErrNotEventOwner):
			httputil.WriteForbidden(w, "You can only delete your own events")
		default:
			log.Printf("[ERROR] Delete event handler: user=%d event=%d err=%v", userID, eventID, err)
			httputil.WriteInternalError(w, "Failed to delete event")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Event deleted",
	})
}
