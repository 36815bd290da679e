package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxNudgeHistory is the capacity of the agent memory history ring buffer.
const MaxNudgeHistory = 20

// TonePreference is the voice the generator should use for a user.
type TonePreference string

const (
	ToneWarm         TonePreference = "warm"
	ToneMotivational TonePreference = "motivational"
)

// NudgeFrequency is the adaptive cadence derived from nudge success.
type NudgeFrequency string

const (
	FrequencyDaily         NudgeFrequency = "daily"
	FrequencyEveryOtherDay NudgeFrequency = "every_other_day"
	FrequencyWeekly        NudgeFrequency = "weekly"
)

// NudgeHistoryEntry tracks a single sent nudge and what happened after it.
type NudgeHistoryEntry struct {
	NudgeID     uuid.UUID     `json:"nudge_id"`
	Category    NudgeCategory `json:"category"`
	SentAt      time.Time     `json:"sent_at"`
	WasRead     bool          `json:"was_read"`
	WasActedOn  bool          `json:"was_acted_on"`
	ScoreBefore int           `json:"score_before"`
	ScoreAfter  *int          `json:"score_after,omitempty"`
}

// AgentMemory is the per-user adaptive state of the agent.
type AgentMemory struct {
	UserID                 uuid.UUID           `json:"user_id"`
	TotalNudgesSent        int                 `json:"total_nudges_sent"`
	TotalNudgesRead        int                 `json:"total_nudges_read"`
	TotalNudgesActedOn     int                 `json:"total_nudges_acted_on"`
	SuccessRate            float64             `json:"success_rate"`
	TonePreference         TonePreference      `json:"tone_preference"`
	NudgeFrequency         NudgeFrequency      `json:"nudge_frequency"`
	PreferredNudgeCategory *NudgeCategory      `json:"preferred_nudge_category,omitempty"`
	NudgeHistory           []NudgeHistoryEntry `json:"nudge_history"`
	LastNudgeSentAt        *time.Time          `json:"last_nudge_sent_at,omitempty"`
	LastOutcomeCheckedAt   *time.Time          `json:"last_outcome_checked_at,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// NewAgentMemory returns the default memory for a user seen for the first time.
func NewAgentMemory(userID uuid.UUID, now time.Time) *AgentMemory {
	return &AgentMemory{
		UserID:         userID,
		TonePreference: ToneWarm,
		NudgeFrequency: FrequencyDaily,
		NudgeHistory:   make([]NudgeHistoryEntry, 0, MaxNudgeHistory),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AppendHistory adds an entry, dropping the oldest ones beyond MaxNudgeHistory.
func (m *AgentMemory) AppendHistory(entry NudgeHistoryEntry) {
	m.NudgeHistory = append(m.NudgeHistory, entry)
	if over := len(m.NudgeHistory) - MaxNudgeHistory; over > 0 {
		m.NudgeHistory = append([]NudgeHistoryEntry(nil), m.NudgeHistory[over:]...)
	}
}

// RecomputeSuccessRate sets SuccessRate to ActedOn/Read, or 0 when nothing
// has been read yet. Values are capped at 1.
func (m *AgentMemory) RecomputeSuccessRate() {
	if m.TotalNudgesRead == 0 {
		m.SuccessRate = 0
		return
	}
	rate := float64(m.TotalNudgesActedOn) / float64(m.TotalNudgesRead)
	if rate > 1 {
		rate = 1
	}
	m.SuccessRate = rate
}

// HistoryEntry returns a pointer to the history entry for nudgeID, or nil.
func (m *AgentMemory) HistoryEntry(nudgeID uuid.UUID) *NudgeHistoryEntry {
	for i := range m.NudgeHistory {
		if m.NudgeHistory[i].NudgeID == nudgeID {
			return &m.NudgeHistory[i]
		}
	}
	return nil
}
