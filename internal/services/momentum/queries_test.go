package momentum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNudges(t *testing.T, store *memStore, userID uuid.UUID, n int) []*models.AINudge {
	t.Helper()
	var out []*models.AINudge
	for i := 0; i < n; i++ {
		nudge := &models.AINudge{
			ID:        uuid.New(),
			UserID:    userID,
			Message:   "hello",
			Category:  models.CategoryGeneralTip,
			Priority:  models.PriorityLow,
			CreatedAt: fixedNow.Add(-time.Duration(n-i) * time.Hour),
		}
		require.NoError(t, store.CreateNudge(context.Background(), nudge))
		out = append(out, nudge)
	}
	return out
}

func TestGetUserNudges(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := newMemStore()
	seeded := seedNudges(t, store, userID, 5)
	seedNudges(t, store, uuid.New(), 2)
	agent := newTestAgent(newFakeSocial(), store)

	nudges, err := agent.GetUserNudges(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, nudges, 5)
	assert.Equal(t, seeded[4].ID, nudges[0].ID)
	for i := 1; i < len(nudges); i++ {
		assert.False(t, nudges[i].CreatedAt.After(nudges[i-1].CreatedAt))
	}

	nudges, err = agent.GetUserNudges(context.Background(), userID, 2)
	require.NoError(t, err)
	assert.Len(t, nudges, 2)
}

func TestMarkNudgeRead(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := newMemStore()
	nudge := seedNudges(t, store, userID, 1)[0]

	mem := models.NewAgentMemory(userID, fixedNow)
	UpdateMemoryAfterNudge(mem, nudge, scoreOf(60, models.TrendStable), fixedNow)
	mem.TotalNudgesActedOn = 1
	require.NoError(t, store.SaveMemory(context.Background(), mem))

	agent := newTestAgent(newFakeSocial(), store)
	for i := 0; i < 2; i++ {
		got, err := agent.MarkNudgeRead(context.Background(), userID, nudge.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRead)
	}

	saved, err := store.GetMemory(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TotalNudgesRead)
	assert.True(t, saved.NudgeHistory[0].WasRead)
	assert.InDelta(t, 1.0, saved.SuccessRate, 1e-9)
}

func TestNudgeOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	store := newMemStore()
	nudge := seedNudges(t, store, owner, 1)[0]
	agent := newTestAgent(newFakeSocial(), store)

	_, err := agent.MarkNudgeRead(context.Background(), uuid.New(), nudge.ID)
	require.ErrorIs(t, err, ErrNudgeNotFound)
	_, err = agent.DismissNudge(context.Background(), uuid.New(), nudge.ID)
	require.ErrorIs(t, err, ErrNudgeNotFound)
	_, err = agent.DismissNudge(context.Background(), owner, uuid.New())
	require.ErrorIs(t, err, ErrNudgeNotFound)

	stored, err := store.GetNudge(context.Background(), nudge.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
	assert.False(t, stored.IsDismissed)
}

func TestDismissNudge(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := newMemStore()
	nudge := seedNudges(t, store, userID, 1)[0]
	agent := newTestAgent(newFakeSocial(), store)

	for i := 0; i < 2; i++ {
		got, err := agent.DismissNudge(context.Background(), userID, nudge.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDismissed)
	}
	assert.Equal(t, 0, store.saveMemCalls)
}

func TestGetAgentSummary(t *testing.T) {
	t.Parallel()

	t.Run("defaults for a new user", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		summary, err := newTestAgent(newFakeSocial(), newMemStore()).GetAgentSummary(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, DefaultPreviousScore, summary.Score.Score)
		assert.Equal(t, models.TrendStable, summary.Score.Trend)
		assert.Equal(t, models.ToneWarm, summary.Memory.TonePreference)
		assert.Equal(t, models.FrequencyDaily, summary.Memory.NudgeFrequency)
		assert.Equal(t, userID, summary.Activity.UserID)
	})

	t.Run("stored state after a run", func(t *testing.T) {
		t.Parallel()
		userID, social := withdrawnUser()
		store := newMemStore()
		agent := newTestAgent(social, store)
		nudge := agent.Run(context.Background(), userID)
		require.NotNil(t, nudge)

		summary, err := agent.GetAgentSummary(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, nudge.LonelinessScoreAtTime, summary.Score.Score)
		assert.Equal(t, 1, summary.Memory.TotalNudgesSent)
		assert.Equal(t, fixedNow.Add(-10*day), summary.Activity.LastActive)
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.memoryReadErr = errors.New("boom")
		_, err := newTestAgent(newFakeSocial(), store).GetAgentSummary(context.Background(), uuid.New())
		require.Error(t, err)
	})
}
