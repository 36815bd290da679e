package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventRepository reads events and event participation
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// RecentParticipations returns the most recent participation records for a user
func (r *EventRepository) RecentParticipations(ctx context.Context, userID uuid.UUID, limit int) ([]models.EventParticipation, error) {
	query := `
		SELECT event_id, user_id, joined_at
		FROM event_participants
		WHERE user_id = $1
		ORDER BY joined_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer closeRows(rows)

	var participations []models.EventParticipation
	for rows.Next() {
		var p models.EventParticipation
		if err := rows.Scan(&p.EventID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.JoinedAt = utc(p.JoinedAt)
		participations = append(participations, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}

	return participations, nil
}

// RecentlyEndedEvents returns events that ended in [since, until), most recent first
func (r *EventRepository) RecentlyEndedEvents(ctx context.Context, since, until time.Time, limit int) ([]models.Event, error) {
	query := `
		SELECT id, title, starts_at, ends_at, kid_friendly
		FROM events
		WHERE ends_at >= $1 AND ends_at < $2
		ORDER BY ends_at DESC
		LIMIT $3
	`

	return r.queryEvents(ctx, query, since.UTC(), until.UTC(), limit)
}

// UpcomingEvents returns events starting after from, soonest first.
// When kidFriendlyOnly is set only kid-friendly events are returned.
func (r *EventRepository) UpcomingEvents(ctx context.Context, from time.Time, kidFriendlyOnly bool, limit int) ([]models.Event, error) {
	query := `
		SELECT id, title, starts_at, ends_at, kid_friendly
		FROM events
		WHERE starts_at > $1 AND (NOT $2::boolean OR kid_friendly)
		ORDER BY starts_at ASC
		LIMIT $3
	`

	return r.queryEvents(ctx, query, from.UTC(), kidFriendlyOnly, limit)
}

// ParticipatedIn reports which of eventIDs the user joined
func (r *EventRepository) ParticipatedIn(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	joined := make(map[uuid.UUID]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return joined, nil
	}

	ids := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT event_id
		FROM event_participants
		WHERE user_id = $1 AND event_id = ANY($2::uuid[])
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query participation: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var eventID uuid.UUID
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("failed to scan event ID: %w", err)
		}
		joined[eventID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation: %w", err)
	}

	return joined, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeRows(rows)

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.KidFriendly); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.StartsAt = utc(e.StartsAt)
		e.EndsAt = utc(e.EndsAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
