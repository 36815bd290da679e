package momentum

import (
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

const toneWindow = 5

// Success-rate bands for the adaptive frequency.
const (
	dailyFrequencyRate         = 0.5
	everyOtherDayFrequencyRate = 0.2
)

// OutcomeTracker resolves whether past nudges were acted on.
type OutcomeTracker struct {
	delay time.Duration
	now   func() time.Time
}

// NewOutcomeTracker creates a tracker that waits delay before judging a nudge.
func NewOutcomeTracker(delay time.Duration, now func() time.Time) *OutcomeTracker {
	if now == nil {
		now = time.Now
	}
	return &OutcomeTracker{delay: delay, now: now}
}

// Measure scans mem's history newest first and resolves at most three
// unresolved entries old enough to judge against activity. It returns the
// nudges that became acted on. Counters and adaptive state only change when
// that list is non-empty; LastOutcomeCheckedAt is always stamped.
//
// A positive streak alone counts as acting on a nudge. This over-counts: the
// streak may predate the nudge.
func (t *OutcomeTracker) Measure(mem *models.AgentMemory, activity *models.UserActivity, score *models.LonelinessScore) []uuid.UUID {
	now := t.now()
	var actedOn []uuid.UUID
	examined := 0

	for i := len(mem.NudgeHistory) - 1; i >= 0 && examined < outcomeEntriesLimit; i-- {
		entry := &mem.NudgeHistory[i]
		if entry.WasActedOn {
			continue
		}
		if now.Sub(entry.SentAt) < t.delay {
			continue
		}
		examined++

		if !actedSince(entry.SentAt, activity) {
			continue
		}
		entry.WasActedOn = true
		if score != nil {
			after := score.Score
			entry.ScoreAfter = &after
		}
		mem.TotalNudgesActedOn++
		actedOn = append(actedOn, entry.NudgeID)
	}

	checked := now
	mem.LastOutcomeCheckedAt = &checked
	if len(actedOn) == 0 {
		return nil
	}

	mem.RecomputeSuccessRate()
	mem.NudgeFrequency = frequencyFor(mem.SuccessRate)
	if tone, ok := toneFromHistory(mem.NudgeHistory); ok {
		mem.TonePreference = tone
	}
	mem.PreferredNudgeCategory = preferredCategory(mem.NudgeHistory)
	mem.UpdatedAt = now
	return actedOn
}

func actedSince(sentAt time.Time, activity *models.UserActivity) bool {
	if activity.LastEventJoined != nil && activity.LastEventJoined.After(sentAt) {
		return true
	}
	if activity.LastChatSent != nil && activity.LastChatSent.After(sentAt) {
		return true
	}
	return activity.Streak > 0
}

func frequencyFor(successRate float64) models.NudgeFrequency {
	switch {
	case successRate > dailyFrequencyRate:
		return models.FrequencyDaily
	case successRate > everyOtherDayFrequencyRate:
		return models.FrequencyEveryOtherDay
	default:
		return models.FrequencyWeekly
	}
}

// toneFromHistory looks at the newest acted-on entry among the last five that
// carries a tone signal.
func toneFromHistory(history []models.NudgeHistoryEntry) (models.TonePreference, bool) {
	start := len(history) - toneWindow
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		entry := history[i]
		if !entry.WasActedOn {
			continue
		}
		switch entry.Category {
		case models.CategoryStreakEncouragement:
			return models.ToneMotivational, true
		case models.CategoryFriendReconnect:
			return models.ToneWarm, true
		}
	}
	return "", false
}

// preferredCategory is the most acted-on category, ties broken toward recent entries.
func preferredCategory(history []models.NudgeHistoryEntry) *models.NudgeCategory {
	counts := make(map[models.NudgeCategory]int)
	var best models.NudgeCategory
	bestCount := 0
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]
		if !entry.WasActedOn {
			continue
		}
		counts[entry.Category]++
		if counts[entry.Category] > bestCount {
			best = entry.Category
			bestCount = counts[entry.Category]
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}
