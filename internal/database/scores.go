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

// ScoreRepository stores the current loneliness score per user
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// GetScore retrieves the stored score for a user
func (r *ScoreRepository) GetScore(ctx context.Context, userID uuid.UUID) (*models.LonelinessScore, error) {
	score := &models.LonelinessScore{}
	var components []byte
	var trend string

	query := `
		SELECT user_id, score, components, trend, previous_score, computed_at
		FROM loneliness_scores
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&score.UserID,
		&score.Score,
		&components,
		&trend,
		&score.PreviousScore,
		&score.ComputedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("score for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}

	if err := json.Unmarshal(components, &score.Components); err != nil {
		return nil, fmt.Errorf("failed to decode score components: %w", err)
	}
	score.Trend = models.Trend(trend)
	score.ComputedAt = utc(score.ComputedAt)
	return score, nil
}

// SaveScore overwrites the stored score for score.UserID
func (r *ScoreRepository) SaveScore(ctx context.Context, score *models.LonelinessScore) error {
	components, err := json.Marshal(score.Components)
	if err != nil {
		return fmt.Errorf("failed to encode score components: %w", err)
	}

	query := `
		INSERT INTO loneliness_scores (user_id, score, components, trend, previous_score, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET score = EXCLUDED.score,
		    components = EXCLUDED.components,
		    trend = EXCLUDED.trend,
		    previous_score = EXCLUDED.previous_score,
		    computed_at = EXCLUDED.computed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		score.UserID,
		score.Score,
		components,
		string(score.Trend),
		score.PreviousScore,
		score.ComputedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	return nil
}
