package models

import (
	"time"

	"github.com/google/uuid"
)

// NudgeCategory classifies the social action a nudge encourages.
type NudgeCategory string

const (
	CategoryComebackWelcome      NudgeCategory = "comeback_welcome"
	CategoryMilestoneCelebration NudgeCategory = "milestone_celebration"
	CategoryStreakEncouragement  NudgeCategory = "streak_encouragement"
	CategoryFriendReconnect      NudgeCategory = "friend_reconnect"
	CategoryEventSuggestion      NudgeCategory = "event_suggestion"
	CategoryGeneralTip           NudgeCategory = "general_tip"
)

// AllCategories lists every nudge category in decision precedence order.
var AllCategories = []NudgeCategory{
	CategoryComebackWelcome,
	CategoryMilestoneCelebration,
	CategoryStreakEncouragement,
	CategoryFriendReconnect,
	CategoryEventSuggestion,
	CategoryGeneralTip,
}

// Valid reports whether c is a known category.
func (c NudgeCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NudgePriority is how prominently a nudge should be shown.
type NudgePriority string

const (
	PriorityLow    NudgePriority = "low"
	PriorityMedium NudgePriority = "medium"
	PriorityHigh   NudgePriority = "high"
)

// NudgeOutcome is back-filled once the outcome tracker has measured a nudge.
type NudgeOutcome string

const (
	OutcomeActedOn NudgeOutcome = "acted_on"
)

// AINudge is a generated nudge. Nudges are append-only; only the read,
// dismissed and outcome fields change after creation.
type AINudge struct {
	ID                    uuid.UUID     `json:"id"`
	UserID                uuid.UUID     `json:"user_id"`
	Message               string        `json:"message" validate:"required,max=500"`
	SuggestedEventID      *uuid.UUID    `json:"suggested_event_id"`
	SuggestedEventName    *string       `json:"suggested_event_name"`
	SuggestedFriendID     *uuid.UUID    `json:"suggested_friend_id"`
	SuggestedFriendName   *string       `json:"suggested_friend_name"`
	Category              NudgeCategory `json:"category" validate:"nudge_category"`
	Priority              NudgePriority `json:"priority" validate:"oneof=low medium high"`
	LonelinessScoreAtTime int           `json:"loneliness_score_at_time" validate:"min=0,max=100"`
	IsRead                bool          `json:"is_read"`
	IsDismissed           bool          `json:"is_dismissed"`
	Outcome               *NudgeOutcome `json:"outcome"`
	CreatedAt             time.Time     `json:"created_at"`
}
