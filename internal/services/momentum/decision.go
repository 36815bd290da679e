package momentum

import (
	"math"
	"time"

	"github.com/benvon/social-momentum/internal/config"
	"github.com/benvon/social-momentum/internal/models"
)

// Decision reasons
const (
	ReasonTooSoon        = "too soon"
	ReasonDailyCap       = "daily cap"
	ReasonAboveThreshold = "score above threshold"
	ReasonWorsening      = "worsening trend"
	ReasonBelowThreshold = "below threshold"
)

// Category-selection thresholds on component scores.
const (
	streakDecayTrigger    = 10
	chatInactivityTrigger = 10
	missedEventsTrigger   = 5
)

// Decision is the outcome of the decision policy for one run.
type Decision struct {
	ShouldNudge bool                 `json:"should_nudge"`
	Category    models.NudgeCategory `json:"category"`
	Priority    models.NudgePriority `json:"priority"`
	Reason      string               `json:"reason"`
	Threshold   int                  `json:"threshold"`
}

// Policy decides whether and how to nudge a user.
type Policy struct {
	cfg config.AgentConfig
	now func() time.Time
}

// NewPolicy creates a policy over cfg. now defaults to time.Now.
func NewPolicy(cfg config.AgentConfig, now func() time.Time) *Policy {
	if now == nil {
		now = time.Now
	}
	return &Policy{cfg: cfg, now: now}
}

// MakeDecision applies the frequency gates, the adaptive threshold and the
// category precedence. mem is nil for a user the agent has never seen.
func (p *Policy) MakeDecision(score *models.LonelinessScore, mem *models.AgentMemory, activity *models.UserActivity) Decision {
	now := p.now()

	if p.hoursSinceLastNudge(mem, now) < float64(p.cfg.MinHoursBetweenNudges) {
		return Decision{
			Category: models.CategoryGeneralTip,
			Priority: models.PriorityLow,
			Reason:   ReasonTooSoon,
		}
	}

	if p.cfg.MaxNudgesPerDay > 0 && nudgesInLastDay(mem, now) >= p.cfg.MaxNudgesPerDay {
		return Decision{
			Category: models.CategoryGeneralTip,
			Priority: models.PriorityLow,
			Reason:   ReasonDailyCap,
		}
	}

	threshold := p.cfg.NudgeScoreThreshold
	if mem != nil && mem.SuccessRate < p.cfg.LowSuccessRate {
		threshold += p.cfg.LowSuccessThresholdBump
	}

	d := Decision{
		Category:  p.selectCategory(score, activity, now),
		Priority:  p.priority(score.Score),
		Threshold: threshold,
	}

	switch {
	case score.Score >= threshold:
		d.ShouldNudge = true
		d.Reason = ReasonAboveThreshold
	case score.Trend == models.TrendWorsening:
		d.ShouldNudge = true
		d.Reason = ReasonWorsening
	default:
		d.Reason = ReasonBelowThreshold
	}

	return d
}

func (p *Policy) hoursSinceLastNudge(mem *models.AgentMemory, now time.Time) float64 {
	if mem == nil || mem.LastNudgeSentAt == nil {
		return math.Inf(1)
	}
	return now.Sub(*mem.LastNudgeSentAt).Hours()
}

func nudgesInLastDay(mem *models.AgentMemory, now time.Time) int {
	if mem == nil {
		return 0
	}
	cutoff := now.Add(-24 * time.Hour)
	count := 0
	for _, entry := range mem.NudgeHistory {
		if entry.SentAt.After(cutoff) {
			count++
		}
	}
	return count
}

func (p *Policy) priority(score int) models.NudgePriority {
	switch {
	case score >= p.cfg.HighPriorityThreshold:
		return models.PriorityHigh
	case score >= p.cfg.MediumPriorityThreshold:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// first match wins
func (p *Policy) selectCategory(score *models.LonelinessScore, activity *models.UserActivity, now time.Time) models.NudgeCategory {
	c := score.Components
	switch {
	case daysSince(now, activity.LastActive) >= p.cfg.ComebackInactiveDays:
		return models.CategoryComebackWelcome
	case activity.Streak > 0 && activity.Streak%7 == 0:
		return models.CategoryMilestoneCelebration
	case c.StreakDecay > streakDecayTrigger:
		return models.CategoryStreakEncouragement
	case c.ChatInactivity > chatInactivityTrigger && activity.FriendCount > 0:
		return models.CategoryFriendReconnect
	case c.MissedEvents > missedEventsTrigger:
		return models.CategoryEventSuggestion
	default:
		return models.CategoryGeneralTip
	}
}
