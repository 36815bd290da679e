package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxMissedEvents caps the missed-events signal in a snapshot.
const MaxMissedEvents = 10

// UserActivity is the behavioral snapshot the agent scores. It is recomputed
// and overwritten on every run.
type UserActivity struct {
	UserID                      uuid.UUID  `json:"user_id"`
	LastEventJoined             *time.Time `json:"last_event_joined,omitempty"`
	LastChatSent                *time.Time `json:"last_chat_sent,omitempty"`
	LastActive                  time.Time  `json:"last_active"`
	Streak                      int        `json:"streak"`
	MissedEvents                int        `json:"missed_events"`
	FriendCount                 int        `json:"friend_count"`
	EventsJoinedLast7Days       int        `json:"events_joined_last_7_days"`
	EventsJoinedLast30Days      int        `json:"events_joined_last_30_days"`
	ChatsSentLast7Days          int        `json:"chats_sent_last_7_days"`
	FriendRequestsSentLast7Days int        `json:"friend_requests_sent_last_7_days"`
	KidSafe                     bool       `json:"kid_safe"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

// ClampMissedEvents bounds n to [0, MaxMissedEvents].
func ClampMissedEvents(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxMissedEvents {
		return MaxMissedEvents
	}
	return n
}
