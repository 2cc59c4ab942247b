package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Event categories observed in the app; free-form strings are rejected at the
// handler so the category filter stays useful.
const (
	EventCategoryMeetup    = "meetup"
	EventCategoryTour      = "tour"
	EventCategoryFoodDrink = "food_drink"
	EventCategoryOutdoor   = "outdoor"
	EventCategoryCulture   = "culture"
	EventCategoryOther     = "other"
)

// Event represents a travel event with its attendee and interest sets.
type Event struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"user_id"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	StartsAt         time.Time      `db:"starts_at" json:"starts_at"`
	EndsAt           time.Time      `db:"ends_at" json:"ends_at"`
	LocationName     *string        `db:"location_name" json:"location_name,omitempty"`
	LocationKeywords pq.StringArray `db:"location_keywords" json:"location_keywords,omitempty"`
	Latitude         *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64       `db:"longitude" json:"longitude,omitempty"`
	Category         string         `db:"category" json:"category"`
	IsPublic         bool           `db:"is_public" json:"is_public"`
	MaxAttendees     *int           `db:"max_attendees" json:"max_attendees,omitempty"`
	Price            *float64       `db:"price" json:"price,omitempty"`
	Currency         *string        `db:"currency" json:"currency,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`

	// Joined fields
	Attendees  []int64      `json:"attendees"`
	Interested []int64      `json:"interested"`
	Author     *UserSummary `json:"author,omitempty"`
}

// AttendeeCount is the denormalized size of the attendee set, filled on read.
func (e *Event) AttendeeCount() int { return len(e.Attendees) }

// CreateEventRequest is the request body for creating an event.
type CreateEventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Location     *string   `json:"location"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Category     string    `json:"category"`
	IsPublic     *bool     `json:"is_public"`
	MaxAttendees *int      `json:"max_attendees"`
	Price        *float64  `json:"price"`
	Currency     *string   `json:"currency"`
}

// EventFilter narrows List queries. Category and the date range are applied
// server-side; Query and Location are applied as substring filters over the
// fetched set, Query taking precedence when both are set.
type EventFilter struct {
	Category *string
	From     *time.Time
	To       *time.Time
	Query    *string
	Location *string
}

// EventListResponse is the event list response.
type EventListResponse struct {
	Events []Event `json:"events"`
}

// Event constraints
const (
	MaxEventTitleLength       = 200
	MaxEventDescriptionLength = 5000
)

// Event errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrNotEventOwner      = errors.New("not the owner of this event")
	ErrEventTitleRequired = errors.New("event title is required")
	ErrEventDatesInvalid  = errors.New("event end date precedes start date")
	ErrEventFull          = errors.New("event is at capacity")
	ErrInvalidCategory    = errors.New("invalid event category")
)

// IsValidEventCategory reports if the category is one of the known values.
func IsValidEventCategory(category string) bool {
	switch category {
	case EventCategoryMeetup, EventCategoryTour, EventCategoryFoodDrink,
		EventCategoryOutdoor, EventCategoryCulture, EventCategoryOther:
		return true
	}
	return false
}
