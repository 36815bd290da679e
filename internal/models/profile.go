package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the subset of a user's profile record read by the agent.
// The agent never mutates profiles.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Streak      int       `json:"streak"`
	IsMinor     bool      `json:"is_minor"`
	KidSafeMode bool      `json:"kid_safe_mode"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// KidSafe reports whether content for this account must be filtered.
func (p *Profile) KidSafe() bool {
	return p.IsMinor || p.KidSafeMode
}

// Event is a scheduled social event.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	KidFriendly bool      `json:"kid_friendly"`
}

// EventParticipation records a user joining an event.
type EventParticipation struct {
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Message is a chat message sent by a user.
type Message struct {
	ID       uuid.UUID `json:"id"`
	SenderID uuid.UUID `json:"sender_id"`
	SentAt   time.Time `json:"sent_at"`
}

// FriendRequest is an outgoing friend request.
type FriendRequest struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Friend is an accepted friendship as seen from one user.
type Friend struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
}
