package momentum

import (
	"math"
	"time"

	"github.com/benvon/social-momentum/internal/models"
)

// Component weights. They sum to 100.
const (
	WeightInactivity     = 30
	WeightMissedEvents   = 15
	WeightStreakDecay    = 20
	WeightChatInactivity = 20
	WeightLowFriendCount = 15
)

// Normalization denominators for each ratio.
const (
	inactivityFullDays = 14.0
	missedEventsFull   = 5.0
	streakHealthyDays  = 7.0
	chatFullDays       = 7.0
	healthyFriendCount = 5.0
)

// DefaultPreviousScore is the neutral score assumed before the first run
const DefaultPreviousScore = 50

// trendDeadband is the minimum change that counts as a trend
const trendDeadband = 5

// daysSince returns whole days elapsed since t, never negative.
func daysSince(now, t time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func weighted(ratio float64, weight int) int {
	return int(math.Round(clamp01(ratio) * float64(weight)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ComputeComponents maps an activity snapshot to its weighted isolation signals.
func ComputeComponents(activity *models.UserActivity, now time.Time) models.ScoreComponents {
	chatDays := chatFullDays
	if activity.LastChatSent != nil {
		chatDays = float64(daysSince(now, *activity.LastChatSent))
	}

	return models.ScoreComponents{
		InactivityDays: weighted(float64(daysSince(now, activity.LastActive))/inactivityFullDays, WeightInactivity),
		MissedEvents:   weighted(float64(activity.MissedEvents)/missedEventsFull, WeightMissedEvents),
		StreakDecay:    weighted(1-float64(activity.Streak)/streakHealthyDays, WeightStreakDecay),
		ChatInactivity: weighted(chatDays/chatFullDays, WeightChatInactivity),
		LowFriendCount: weighted(1-float64(activity.FriendCount)/healthyFriendCount, WeightLowFriendCount),
	}
}

// ComputeTotalScore sums the components and clamps to [0, 100].
func ComputeTotalScore(c models.ScoreComponents) int {
	total := c.Sum()
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

// DetermineTrend compares current against previous with a ±5 deadband.
func DetermineTrend(current, previous int) models.Trend {
	delta := current - previous
	switch {
	case delta >= trendDeadband:
		return models.TrendWorsening
	case delta <= -trendDeadband:
		return models.TrendImproving
	default:
		return models.TrendStable
	}
}

// ComputeScore builds the score for activity given the previously stored one (nil if none).
func ComputeScore(activity *models.UserActivity, previous *models.LonelinessScore, now time.Time) *models.LonelinessScore {
	prev := DefaultPreviousScore
	if previous != nil {
		prev = previous.Score
	}

	components := ComputeComponents(activity, now)
	total := ComputeTotalScore(components)

	return &models.LonelinessScore{
		UserID:        activity.UserID,
		Score:         total,
		Components:    components,
		Trend:         DetermineTrend(total, prev),
		PreviousScore: prev,
		ComputedAt:    now,
	}
}
