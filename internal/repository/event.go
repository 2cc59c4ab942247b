package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travelthreads/internal/model"
)

const eventColumns = `id, user_id, title, description, starts_at, ends_at, location_name,
       location_keywords, latitude, longitude, category, is_public, max_attendees,
       price, currency, created_at`

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create inserts the event and enrolls the creator as its first attendee in
// one transaction.
func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (user_id, title, description, starts_at, ends_at, location_name,
		                    location_keywords, latitude, longitude, category, is_public,
		                    max_attendees, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	row := tx.QueryRowxContext(ctx, query,
		event.UserID, event.Title, event.Description, event.StartsAt, event.EndsAt,
		event.LocationName, event.LocationKeywords, event.Latitude, event.Longitude,
		event.Category, event.IsPublic, event.MaxAttendees, event.Price, event.Currency,
	)
	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`, event.ID, event.UserID)
	if err != nil {
		return fmt.Errorf("add creator as attendee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	event.Attendees = []int64{event.UserID}
	event.Interested = []int64{}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var event model.Event
	err := r.db.GetContext(ctx, &event, query, eventID)
	if err == sql.ErrNoRows {
		return nil, model.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := r.attachMemberSets(ctx, []*model.Event{&event}); err != nil {
		return nil, err
	}
	return &event, nil
}

// List applies category and date-range filters server-side, soonest first.
func (r *eventRepository) List(ctx context.Context, category *string, from, to *time.Time) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []interface{}{}
	n := 0

	if category != nil {
		n++
		query += fmt.Sprintf(" AND category = $%d", n)
		args = append(args, *category)
	}
	if from != nil {
		n++
		query += fmt.Sprintf(" AND starts_at >= $%d", n)
		args = append(args, *from)
	}
	if to != nil {
		n++
		query += fmt.Sprintf(" AND starts_at <= $%d", n)
		args = append(args, *to)
	}
	query += " ORDER BY starts_at ASC, id ASC"

	return r.selectEvents(ctx, query, args...)
}

// GetByMonth returns events whose start falls inside the calendar month.
func (r *eventRepository) GetByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at ASC, id ASC
	`
	return r.selectEvents(ctx, query, start, end)
}

func (r *eventRepository) Upcoming(ctx context.Context, limit int) ([]model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE starts_at >= NOW()
		ORDER BY starts_at ASC, id ASC
		LIMIT $1
	`
	return r.selectEvents(ctx, query, limit)
}

func (r *eventRepository) GetAttending(ctx context.Context, userID int64) ([]model.Event, error) {
	query := `
		SELECT ` + prefixedEventColumns("e") + `
		FROM events e
		JOIN event_attendees ea ON ea.event_id = e.id
		WHERE ea.user_id = $1
		ORDER BY e.starts_at ASC, e.id ASC
	`
	return r.selectEvents(ctx, query, userID)
}

func (r *eventRepository) GetInterested(ctx context.Context, userID int64) ([]model.Event, error) {
	query := `
		SELECT ` + prefixedEventColumns("e") + `
		FROM events e
		JOIN event_interests ei ON ei.event_id = e.id
		WHERE ei.user_id = $1
		ORDER BY e.starts_at ASC, e.id ASC
	`
	return r.selectEvents(ctx, query, userID)
}

// Delete removes the event and both membership sets.
func (r *eventRepository) Delete(ctx context.Context, tx *sqlx.Tx, eventID int64) error {
	cascade := []string{
		`DELETE FROM event_attendees WHERE event_id = $1`,
		`DELETE FROM event_interests WHERE event_id = $1`,
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, eventID); err != nil {
			return fmt.Errorf("delete event memberships: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) GetAuthorID(ctx context.Context, eventID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT user_id FROM events WHERE id = $1`, eventID)
	if err == sql.ErrNoRows {
		return 0, model.ErrEventNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get event author: %w", err)
	}
	return authorID, nil
}

// Membership set writes are idempotent; ON CONFLICT DO NOTHING makes a
// repeated add a no-op rather than an error.
func (r *eventRepository) AddAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, userID)
	if err != nil {
		return fmt.Errorf("add attendee: %w", err)
	}
	return nil
}

func (r *eventRepository) RemoveAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove attendee: %w", err)
	}
	return nil
}

func (r *eventRepository) AddInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_interests (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, userID)
	if err != nil {
		return fmt.Errorf("add interest: %w", err)
	}
	return nil
}

func (r *eventRepository) RemoveInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM event_interests WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove interest: %w", err)
	}
	return nil
}

// CountAttendees runs inside the capacity-check transaction so the count is
// consistent with the pending insert.
func (r *eventRepository) CountAttendees(ctx context.Context, tx *sqlx.Tx, eventID int64) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return count, nil
}

func (r *eventRepository) selectEvents(ctx context.Context, query string, args ...interface{}) ([]model.Event, error) {
	var events []model.Event
	err := r.db.SelectContext(ctx, &events, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}

	ptrs := make([]*model.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	if err := r.attachMemberSets(ctx, ptrs); err != nil {
		return nil, err
	}
	return events, nil
}

// attachMemberSets loads the attendee and interest sets for a batch of
// events with two queries instead of two per event.
func (r *eventRepository) attachMemberSets(ctx context.Context, events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]int64, len(events))
	byID := make(map[int64]*model.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
		e.Attendees = []int64{}
		e.Interested = []int64{}
	}

	type membership struct {
		EventID int64 `db:"event_id"`
		UserID  int64 `db:"user_id"`
	}

	var attendees []membership
	err := r.db.SelectContext(ctx, &attendees,
		`SELECT event_id, user_id FROM event_attendees WHERE event_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get attendees: %w", err)
	}
	for _, m := range attendees {
		byID[m.EventID].Attendees = append(byID[m.EventID].Attendees, m.UserID)
	}

	var interests []membership
	err = r.db.SelectContext(ctx, &interests,
		`SELECT event_id, user_id FROM event_interests WHERE event_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get interests: %w", err)
	}
	for _, m := range interests {
		byID[m.EventID].Interested = append(byID[m.EventID].Interested, m.UserID)
	}

	return nil
}

func prefixedEventColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.title, ` + alias + `.description, ` +
		alias + `.starts_at, ` + alias + `.ends_at, ` + alias + `.location_name, ` +
		alias + `.location_keywords, ` + alias + `.latitude, ` + alias + `.longitude, ` +
		alias + `.category, ` + alias + `.is_public, ` + alias + `.max_attendees, ` +
		alias + `.price, ` + alias + `.currency, ` + alias + `.created_at`
}
