package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository stores per-user agent memory
type MemoryRepository struct {
	db *DB
}

// NewMemoryRepository creates a new agent memory repository
func NewMemoryRepository(db *DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// GetMemory retrieves agent memory for a user
func (r *MemoryRepository) GetMemory(ctx context.Context, userID uuid.UUID) (*models.AgentMemory, error) {
	mem := &models.AgentMemory{}
	var (
		tone, frequency       string
		preferred             sql.NullString
		history               []byte
		lastSent, lastChecked sql.NullTime
	)

	query := `
		SELECT user_id, total_nudges_sent, total_nudges_read, total_nudges_acted_on, success_rate,
		       tone_preference, nudge_frequency, preferred_nudge_category, nudge_history,
		       last_nudge_sent_at, last_outcome_checked_at, created_at, updated_at
		FROM agent_memory
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&mem.UserID,
		&mem.TotalNudgesSent,
		&mem.TotalNudgesRead,
		&mem.TotalNudgesActedOn,
		&mem.SuccessRate,
		&tone,
		&frequency,
		&preferred,
		&history,
		&lastSent,
		&lastChecked,
		&mem.CreatedAt,
		&mem.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent memory for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent memory: %w", err)
	}

	if err := json.Unmarshal(history, &mem.NudgeHistory); err != nil {
		return nil, fmt.Errorf("failed to decode nudge history: %w", err)
	}
	for i := range mem.NudgeHistory {
		mem.NudgeHistory[i].SentAt = utc(mem.NudgeHistory[i].SentAt)
	}

	mem.TonePreference = models.TonePreference(tone)
	mem.NudgeFrequency = models.NudgeFrequency(frequency)
	if preferred.Valid {
		category := models.NudgeCategory(preferred.String)
		mem.PreferredNudgeCategory = &category
	}
	mem.LastNudgeSentAt = nullTimePtr(lastSent)
	mem.LastOutcomeCheckedAt = nullTimePtr(lastChecked)
	mem.CreatedAt = utc(mem.CreatedAt)
	mem.UpdatedAt = utc(mem.UpdatedAt)
	return mem, nil
}

// SaveMemory creates or overwrites agent memory for mem.UserID
func (r *MemoryRepository) SaveMemory(ctx context.Context, mem *models.AgentMemory) error {
	entries := mem.NudgeHistory
	if entries == nil {
		entries = []models.NudgeHistoryEntry{}
	}
	history, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode nudge history: %w", err)
	}

	var preferred interface{}
	if mem.PreferredNudgeCategory != nil {
		preferred = string(*mem.PreferredNudgeCategory)
	}

	query := `
		INSERT INTO agent_memory (
			user_id, total_nudges_sent, total_nudges_read, total_nudges_acted_on, success_rate,
			tone_preference, nudge_frequency, preferred_nudge_category, nudge_history,
			last_nudge_sent_at, last_outcome_checked_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE
		SET total_nudges_sent = EXCLUDED.total_nudges_sent,
		    total_nudges_read = EXCLUDED.total_nudges_read,
		    total_nudges_acted_on = EXCLUDED.total_nudges_acted_on,
		    success_rate = EXCLUDED.success_rate,
		    tone_preference = EXCLUDED.tone_preference,
		    nudge_frequency = EXCLUDED.nudge_frequency,
		    preferred_nudge_category = EXCLUDED.preferred_nudge_category,
		    nudge_history = EXCLUDED.nudge_history,
		    last_nudge_sent_at = EXCLUDED.last_nudge_sent_at,
		    last_outcome_checked_at = EXCLUDED.last_outcome_checked_at,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		mem.UserID,
		mem.TotalNudgesSent,
		mem.TotalNudgesRead,
		mem.TotalNudgesActedOn,
		mem.SuccessRate,
		string(mem.TonePreference),
		string(mem.NudgeFrequency),
		preferred,
		history,
		timePtrArg(mem.LastNudgeSentAt),
		timePtrArg(mem.LastOutcomeCheckedAt),
		mem.CreatedAt.UTC(),
		mem.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save agent memory: %w", err)
	}

	return nil
}
