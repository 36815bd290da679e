package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/validation"
	"github.com/google/uuid"
)

const nudgeColumns = `id, user_id, message, suggested_event_id, suggested_event_name,
		       suggested_friend_id, suggested_friend_name, category, priority,
		       loneliness_score_at_time, is_read, is_dismissed, outcome, created_at`

// NudgeRepository stores generated nudges
type NudgeRepository struct {
	db *DB
}

// NewNudgeRepository creates a new nudge repository
func NewNudgeRepository(db *DB) *NudgeRepository {
	return &NudgeRepository{db: db}
}

// CreateNudge validates and inserts a new nudge
func (r *NudgeRepository) CreateNudge(ctx context.Context, nudge *models.AINudge) error {
	if err := validation.Validate.StructCtx(ctx, nudge); err != nil {
		return fmt.Errorf("invalid nudge: %w", err)
	}

	query := `
		INSERT INTO ai_nudges (
			id, user_id, message, suggested_event_id, suggested_event_name,
			suggested_friend_id, suggested_friend_name, category, priority,
			loneliness_score_at_time, is_read, is_dismissed, outcome, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		nudge.ID,
		nudge.UserID,
		nudge.Message,
		uuidPtrArg(nudge.SuggestedEventID),
		stringPtrArg(nudge.SuggestedEventName),
		uuidPtrArg(nudge.SuggestedFriendID),
		stringPtrArg(nudge.SuggestedFriendName),
		string(nudge.Category),
		string(nudge.Priority),
		nudge.LonelinessScoreAtTime,
		nudge.IsRead,
		nudge.IsDismissed,
		outcomeArg(nudge.Outcome),
		nudge.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create nudge: %w", err)
	}

	return nil
}

// GetNudge retrieves a nudge by ID
func (r *NudgeRepository) GetNudge(ctx context.Context, nudgeID uuid.UUID) (*models.AINudge, error) {
	query := `SELECT ` + nudgeColumns + ` FROM ai_nudges WHERE id = $1`

	nudge, err := scanNudge(r.db.QueryRowContext(ctx, query, nudgeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("nudge %s: %w", nudgeID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nudge: %w", err)
	}

	return nudge, nil
}

// ListNudges returns up to limit nudges of a user, newest first
func (r *NudgeRepository) ListNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error) {
	query := `SELECT ` + nudgeColumns + `
		FROM ai_nudges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nudges: %w", err)
	}
	defer closeRows(rows)

	var nudges []*models.AINudge
	for rows.Next() {
		nudge, err := scanNudge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nudge: %w", err)
		}
		nudges = append(nudges, nudge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nudges: %w", err)
	}

	return nudges, nil
}

// SetNudgeRead marks a nudge as read. It reports whether the flag changed.
func (r *NudgeRepository) SetNudgeRead(ctx context.Context, nudgeID uuid.UUID) (bool, error) {
	return r.setFlag(ctx, `UPDATE ai_nudges SET is_read = true WHERE id = $1 AND is_read = false`, nudgeID)
}

// SetNudgeDismissed marks a nudge as dismissed. It reports whether the flag changed.
func (r *NudgeRepository) SetNudgeDismissed(ctx context.Context, nudgeID uuid.UUID) (bool, error) {
	return r.setFlag(ctx, `UPDATE ai_nudges SET is_dismissed = true WHERE id = $1 AND is_dismissed = false`, nudgeID)
}

// SetNudgeOutcome back-fills the outcome of a nudge once
func (r *NudgeRepository) SetNudgeOutcome(ctx context.Context, nudgeID uuid.UUID, outcome models.NudgeOutcome) error {
	query := `UPDATE ai_nudges SET outcome = $1 WHERE id = $2 AND outcome IS NULL`

	if _, err := r.db.ExecContext(ctx, query, string(outcome), nudgeID); err != nil {
		return fmt.Errorf("failed to set nudge outcome: %w", err)
	}
	return nil
}

func (r *NudgeRepository) setFlag(ctx context.Context, query string, nudgeID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, nudgeID)
	if err != nil {
		return false, fmt.Errorf("failed to update nudge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNudge(row rowScanner) (*models.AINudge, error) {
	nudge := &models.AINudge{}
	var (
		eventID, friendID     uuid.NullUUID
		eventName, friendName sql.NullString
		category, priority    string
		outcome               sql.NullString
	)

	err := row.Scan(
		&nudge.ID,
		&nudge.UserID,
		&nudge.Message,
		&eventID,
		&eventName,
		&friendID,
		&friendName,
		&category,
		&priority,
		&nudge.LonelinessScoreAtTime,
		&nudge.IsRead,
		&nudge.IsDismissed,
		&outcome,
		&nudge.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventID.Valid {
		id := eventID.UUID
		nudge.SuggestedEventID = &id
	}
	if eventName.Valid {
		name := eventName.String
		nudge.SuggestedEventName = &name
	}
	if friendID.Valid {
		id := friendID.UUID
		nudge.SuggestedFriendID = &id
	}
	if friendName.Valid {
		name := friendName.String
		nudge.SuggestedFriendName = &name
	}
	if outcome.Valid {
		o := models.NudgeOutcome(outcome.String)
		nudge.Outcome = &o
	}
	nudge.Category = models.NudgeCategory(category)
	nudge.Priority = models.NudgePriority(priority)
	nudge.CreatedAt = utc(nudge.CreatedAt)
	return nudge, nil
}

func uuidPtrArg(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func stringPtrArg(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func outcomeArg(o *models.NudgeOutcome) interface{} {
	if o == nil {
		return nil
	}
	return string(*o)
}
