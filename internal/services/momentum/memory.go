package momentum

import (
	"time"

	"github.com/benvon/social-momentum/internal/models"
)

// UpdateMemoryAfterNudge records a sent nudge in mem.
func UpdateMemoryAfterNudge(mem *models.AgentMemory, nudge *models.AINudge, score *models.LonelinessScore, now time.Time) {
	mem.AppendHistory(models.NudgeHistoryEntry{
		NudgeID:     nudge.ID,
		Category:    nudge.Category,
		SentAt:      nudge.CreatedAt,
		ScoreBefore: score.Score,
	})
	mem.TotalNudgesSent++
	sent := nudge.CreatedAt
	mem.LastNudgeSentAt = &sent
	mem.UpdatedAt = now
}

// recentOutcomes summarizes the last n history entries, newest first.
func recentOutcomes(mem *models.AgentMemory, n int) []OutcomeSummary {
	if mem == nil {
		return []OutcomeSummary{}
	}
	out := make([]OutcomeSummary, 0, n)
	for i := len(mem.NudgeHistory) - 1; i >= 0 && len(out) < n; i-- {
		entry := mem.NudgeHistory[i]
		out = append(out, OutcomeSummary{
			Category:   entry.Category,
			WasRead:    entry.WasRead,
			WasActedOn: entry.WasActedOn,
		})
	}
	return out
}
