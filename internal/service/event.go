package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
	"travelthreads/internal/queue"
	"travelthreads/internal/repository"
)

// PopularEventsLimit bounds the upcoming set that popular ranking scans.
const PopularEventsLimit = 100

// EventService manages travel events and their attendee and interest sets.
type EventService struct {
	eventRepo repository.EventRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
	db        *sqlx.DB
}

func NewEventService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	db *sqlx.DB,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		publisher: publisher,
		db:        db,
	}
}

// Create validates and stores a new event. The creator is automatically
// its first attendee.
func (s *EventService) Create(ctx context.Context, userID int64, req model.CreateEventRequest) (*model.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrEventTitleRequired
	}
	if req.EndsAt.Before(req.StartsAt) {
		return nil, model.ErrEventDatesInvalid
	}
	if !model.IsValidEventCategory(req.Category) {
		return nil, model.ErrInvalidCategory
	}

	event := &model.Event{
		UserID:       userID,
		Title:        title,
		Description:  req.Description,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Category:     req.Category,
		IsPublic:     true,
		MaxAttendees: req.MaxAttendees,
		Price:        req.Price,
		Currency:     req.Currency,
	}
	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}
	if req.Location != nil && strings.TrimSpace(*req.Location) != "" {
		loc := strings.TrimSpace(*req.Location)
		event.LocationName = &loc
		event.LocationKeywords = DeriveLocationKeywords(loc)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.attachAuthor(ctx, event)
	return event, nil
}

// GetByID retrieves a single event with membership sets and author.
func (s *EventService) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.attachAuthor(ctx, event)
	return event, nil
}

// List applies the filter. Category and the date range narrow the query
// server-side; text and location filters are applied over the fetched set,
// with the text query taking precedence when both are given.
func (s *EventService) List(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	if filter.Category != nil && !model.IsValidEventCategory(*filter.Category) {
		return nil, model.ErrInvalidCategory
	}

	events, err := s.eventRepo.List(ctx, filter.Category, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		events = filterEventsByText(events, *filter.Query)
	} else if filter.Location != nil && strings.TrimSpace(*filter.Location) != "" {
		events = filterEventsByLocation(events, *filter.Location)
	}

	s.attachAuthors(ctx, events)
	return events, nil
}

// GetByMonth returns the calendar view: events starting inside the month.
func (s *EventService) GetByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	events, err := s.eventRepo.GetByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.attachAuthors(ctx, events)
	return events, nil
}

// Upcoming returns the next events by start time, soonest first.
func (s *EventService) Upcoming(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > PopularEventsLimit {
		limit = PopularEventsLimit
	}

	events, err := s.eventRepo.Upcoming(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.attachAuthors(ctx, events)
	return events, nil
}

// Popular ranks upcoming events by attendee count, largest first. Ties
// keep the sooner event first.
func (s *EventService) Popular(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 10
	}

	events, err := s.eventRepo.Upcoming(ctx, PopularEventsLimit)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].AttendeeCount() > events[j].AttendeeCount()
	})
	if len(events) > limit {
		events = events[:limit]
	}

	s.attachAuthors(ctx, events)
	return events, nil
}

// GetAttending lists the events a user attends, soonest first.
func (s *EventService) GetAttending(ctx context.Context, userID int64) ([]model.Event, error) {
	events, err := s.eventRepo.GetAttending(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.attachAuthors(ctx, events)
	return events, nil
}

// GetInterested lists the events a user marked interesting.
func (s *EventService) GetInterested(ctx context.Context, userID int64) ([]model.Event, error) {
	events, err := s.eventRepo.GetInterested(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.attachAuthors(ctx, events)
	return events, nil
}

// Attend joins the attendee set and leaves the interest set in one
// transaction, so a user is never in both. The capacity check shares the
// transaction with the insert.
func (s *EventService) Attend(ctx context.Context, eventID, userID int64) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.AddAttendee(ctx, tx, eventID, userID); err != nil {
		return err
	}
	if err := s.eventRepo.RemoveInterest(ctx, tx, eventID, userID); err != nil {
		return err
	}

	if event.MaxAttendees != nil {
		count, err := s.eventRepo.CountAttendees(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if count > *event.MaxAttendees {
			return model.ErrEventFull
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil && userID != event.UserID {
		evt := queue.NewEventAttendedEvent(eventID, event.UserID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, evt); err != nil {
			log.Printf("[EventService] publish EventAttended FAILED: event=%d err=%v", eventID, err)
		}
	}

	return nil
}

// Unattend leaves the attendee set. Leaving an event never attended is a
// no-op.
func (s *EventService) Unattend(ctx context.Context, eventID, userID int64) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.RemoveAttendee(ctx, tx, eventID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkInterested joins the interest set and leaves the attendee set in one
// transaction, the mirror of Attend.
func (s *EventService) MarkInterested(ctx context.Context, eventID, userID int64) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.AddInterest(ctx, tx, eventID, userID); err != nil {
		return err
	}
	if err := s.eventRepo.RemoveAttendee(ctx, tx, eventID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// UnmarkInterested leaves the interest set.
func (s *EventService) UnmarkInterested(ctx context.Context, eventID, userID int64) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.RemoveInterest(ctx, tx, eventID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an event owned by the caller, with both membership sets.
func (s *EventService) Delete(ctx context.Context, eventID, userID int64) error {
	authorID, err := s.eventRepo.GetAuthorID(ctx, eventID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return model.ErrNotEventOwner
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.Delete(ctx, tx, eventID); err != nil {
		return err
	}

	return tx.Commit()
}

// filterEventsByText matches the query as a case-insensitive substring of
// title or description.
func filterEventsByText(events []model.Event, query string) []model.Event {
	q := strings.ToLower(strings.TrimSpace(query))
	filtered := events[:0]
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// filterEventsByLocation matches against the location name substring or
// any derived keyword.
func filterEventsByLocation(events []model.Event, location string) []model.Event {
	q := strings.ToLower(strings.TrimSpace(location))
	filtered := events[:0]
	for _, e := range events {
		if e.LocationName != nil && strings.Contains(strings.ToLower(*e.LocationName), q) {
			filtered = append(filtered, e)
			continue
		}
		for _, kw := range e.LocationKeywords {
			if kw == q {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered
}

func (s *EventService) attachAuthor(ctx context.Context, event *model.Event) {
	author, err := s.userRepo.GetByID(ctx, event.UserID)
	if err != nil {
		return
	}
	event.Author = &model.UserSummary{
		ID:          author.ID,
		Username:    author.Username,
		DisplayName: author.DisplayName,
		AvatarURL:   author.AvatarURL,
	}
}

func (s *EventService) attachAuthors(ctx context.Context, events []model.Event) {
	if len(events) == 0 {
		return
	}

	ids := make([]int64, 0, len(events))
	seen := make(map[int64]bool)
	for _, e := range events {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}

	summaries, err := s.userRepo.GetSummariesByIDs(ctx, ids)
	if err != nil {
		return
	}
	for i := range events {
		if summary, ok := summaries[events[i].UserID]; ok {
			a := summary
			events[i].Author = &a
		}
	}
}
