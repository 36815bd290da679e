package momentum

import (
	"context"
	"fmt"
	"sort"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Nudge list bounds.
const (
	DefaultNudgeLimit = 20
	MaxNudgeLimit     = 100
)

// Summary is the display view of the agent's state for one user.
type Summary struct {
	UserID   uuid.UUID               `json:"user_id"`
	Score    *models.LonelinessScore `json:"score"`
	Memory   *models.AgentMemory     `json:"memory"`
	Activity *models.UserActivity    `json:"activity"`
}

// GetUserNudges returns the user's nudges, newest first.
func (a *Agent) GetUserNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error) {
	switch {
	case limit <= 0:
		limit = DefaultNudgeLimit
	case limit > MaxNudgeLimit:
		limit = MaxNudgeLimit
	}

	nudges, err := a.store.ListNudges(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list nudges: %w", err)
	}
	sort.SliceStable(nudges, func(i, j int) bool {
		return nudges[i].CreatedAt.After(nudges[j].CreatedAt)
	})
	return nudges, nil
}

// MarkNudgeRead flags a nudge as read. Repeated calls are no-ops. The first
// read also counts toward the user's success rate.
func (a *Agent) MarkNudgeRead(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error) {
	nudge, err := a.ownedNudge(ctx, userID, nudgeID)
	if err != nil {
		return nil, err
	}

	changed, err := a.store.SetNudgeRead(ctx, nudgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark nudge read: %w", err)
	}
	nudge.IsRead = true
	if changed {
		a.recordRead(ctx, userID, nudgeID)
	}
	return nudge, nil
}

// DismissNudge hides a nudge. Repeated calls are no-ops.
func (a *Agent) DismissNudge(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error) {
	nudge, err := a.ownedNudge(ctx, userID, nudgeID)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.SetNudgeDismissed(ctx, nudgeID); err != nil {
		return nil, fmt.Errorf("failed to dismiss nudge: %w", err)
	}
	nudge.IsDismissed = true
	return nudge, nil
}

// GetAgentSummary loads score, memory and activity in parallel. Missing
// entities are replaced by defaults.
func (a *Agent) GetAgentSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	now := a.now()
	summary := &Summary{UserID: userID}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		score, err := a.store.GetScore(egCtx, userID)
		if isNotFound(err) {
			summary.Score = &models.LonelinessScore{
				UserID:        userID,
				Score:         DefaultPreviousScore,
				Trend:         models.TrendStable,
				PreviousScore: DefaultPreviousScore,
				ComputedAt:    now,
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load score: %w", err)
		}
		summary.Score = score
		return nil
	})
	eg.Go(func() error {
		mem, err := a.store.GetMemory(egCtx, userID)
		if isNotFound(err) {
			summary.Memory = models.NewAgentMemory(userID, now)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load agent memory: %w", err)
		}
		summary.Memory = mem
		return nil
	})
	eg.Go(func() error {
		activity, err := a.store.GetActivity(egCtx, userID)
		if isNotFound(err) {
			summary.Activity = &models.UserActivity{UserID: userID, UpdatedAt: now}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}
		summary.Activity = activity
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (a *Agent) ownedNudge(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error) {
	nudge, err := a.store.GetNudge(ctx, nudgeID)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNudgeNotFound, nudgeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load nudge: %w", err)
	}
	if nudge.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrNudgeNotFound, nudgeID)
	}
	return nudge, nil
}

func (a *Agent) recordRead(ctx context.Context, userID, nudgeID uuid.UUID) {
	mem, err := a.loadMemory(ctx, userID)
	if err != nil || mem == nil {
		if err != nil {
			a.logger.Warn("agent_memory_read_failed", logger.UserID(userID), logger.Error(err))
		}
		return
	}

	mem.TotalNudgesRead++
	if entry := mem.HistoryEntry(nudgeID); entry != nil {
		entry.WasRead = true
	}
	mem.RecomputeSuccessRate()
	mem.UpdatedAt = a.now()
	if err := a.store.SaveMemory(ctx, mem); err != nil {
		a.logger.Error("agent_memory_save_failed", logger.UserID(userID), logger.Error(err))
	}
}
