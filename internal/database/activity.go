package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

// ActivityRepository stores the latest activity snapshot per user
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity snapshot repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// SaveActivity overwrites the snapshot for activity.UserID
func (r *ActivityRepository) SaveActivity(ctx context.Context, activity *models.UserActivity) error {
	query := `
		INSERT INTO user_activity_snapshots (
			user_id, last_event_joined, last_chat_sent, last_active, streak, missed_events,
			friend_count, events_joined_last_7_days, events_joined_last_30_days,
			chats_sent_last_7_days, friend_requests_sent_last_7_days, kid_safe, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE
		SET last_event_joined = EXCLUDED.last_event_joined,
		    last_chat_sent = EXCLUDED.last_chat_sent,
		    last_active = EXCLUDED.last_active,
		    streak = EXCLUDED.streak,
		    missed_events = EXCLUDED.missed_events,
		    friend_count = EXCLUDED.friend_count,
		    events_joined_last_7_days = EXCLUDED.events_joined_last_7_days,
		    events_joined_last_30_days = EXCLUDED.events_joined_last_30_days,
		    chats_sent_last_7_days = EXCLUDED.chats_sent_last_7_days,
		    friend_requests_sent_last_7_days = EXCLUDED.friend_requests_sent_last_7_days,
		    kid_safe = EXCLUDED.kid_safe,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		activity.UserID,
		timePtrArg(activity.LastEventJoined),
		timePtrArg(activity.LastChatSent),
		activity.LastActive.UTC(),
		activity.Streak,
		models.ClampMissedEvents(activity.MissedEvents),
		activity.FriendCount,
		activity.EventsJoinedLast7Days,
		activity.EventsJoinedLast30Days,
		activity.ChatsSentLast7Days,
		activity.FriendRequestsSentLast7Days,
		activity.KidSafe,
		activity.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save activity snapshot: %w", err)
	}

	return nil
}

// GetActivity retrieves the stored snapshot for a user
func (r *ActivityRepository) GetActivity(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity := &models.UserActivity{}
	var lastEvent, lastChat sql.NullTime

	query := `
		SELECT user_id, last_event_joined, last_chat_sent, last_active, streak, missed_events,
		       friend_count, events_joined_last_7_days, events_joined_last_30_days,
		       chats_sent_last_7_days, friend_requests_sent_last_7_days, kid_safe, updated_at
		FROM user_activity_snapshots
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&lastEvent,
		&lastChat,
		&activity.LastActive,
		&activity.Streak,
		&activity.MissedEvents,
		&activity.FriendCount,
		&activity.EventsJoinedLast7Days,
		&activity.EventsJoinedLast30Days,
		&activity.ChatsSentLast7Days,
		&activity.FriendRequestsSentLast7Days,
		&activity.KidSafe,
		&activity.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity snapshot for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity snapshot: %w", err)
	}

	activity.LastEventJoined = nullTimePtr(lastEvent)
	activity.LastChatSent = nullTimePtr(lastChat)
	activity.LastActive = utc(activity.LastActive)
	activity.UpdatedAt = utc(activity.UpdatedAt)
	return activity, nil
}
