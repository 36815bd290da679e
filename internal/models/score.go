package models

import (
	"time"

	"github.com/google/uuid"
)

// Trend is the direction of a loneliness score relative to the previous one.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendWorsening Trend = "worsening"
)

// ScoreComponents holds the weighted contribution of each isolation signal.
type ScoreComponents struct {
	InactivityDays int `json:"inactivity_days"`
	MissedEvents   int `json:"missed_events"`
	StreakDecay    int `json:"streak_decay"`
	ChatInactivity int `json:"chat_inactivity"`
	LowFriendCount int `json:"low_friend_count"`
}

// Sum returns the unclamped sum of all components.
func (c ScoreComponents) Sum() int {
	return c.InactivityDays + c.MissedEvents + c.StreakDecay + c.ChatInactivity + c.LowFriendCount
}

// LonelinessScore is the current isolation-risk estimate for a user (0-100,
// higher is more isolated). Only the latest value is stored.
type LonelinessScore struct {
	UserID        uuid.UUID       `json:"user_id"`
	Score         int             `json:"score"`
	Components    ScoreComponents `json:"components"`
	Trend         Trend           `json:"trend"`
	PreviousScore int             `json:"previous_score"`
	ComputedAt    time.Time       `json:"computed_at"`
}
