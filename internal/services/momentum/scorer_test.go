package momentum

import (
	"math/rand"
	"testing"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		activity *models.UserActivity
		want     models.ScoreComponents
	}{
		{
			name: "fully engaged user",
			activity: &models.UserActivity{
				LastActive:   fixedNow,
				LastChatSent: ptr(fixedNow),
				Streak:       7,
				FriendCount:  5,
			},
			want: models.ScoreComponents{},
		},
		{
			name: "fully withdrawn user",
			activity: &models.UserActivity{
				LastActive:   fixedNow.Add(-30 * 24 * time.Hour),
				MissedEvents: 10,
			},
			want: models.ScoreComponents{
				InactivityDays: 30,
				MissedEvents:   15,
				StreakDecay:    20,
				ChatInactivity: 20,
				LowFriendCount: 15,
			},
		},
		{
			name: "partial signals round to nearest",
			activity: &models.UserActivity{
				LastActive:   fixedNow.Add(-7 * 24 * time.Hour),
				LastChatSent: ptr(fixedNow.Add(-3*24*time.Hour - time.Hour)),
				MissedEvents: 2,
				Streak:       3,
				FriendCount:  2,
			},
			want: models.ScoreComponents{
				InactivityDays: 15,
				MissedEvents:   6,
				StreakDecay:    11,
				ChatInactivity: 9,
				LowFriendCount: 9,
			},
		},
		{
			name: "future timestamps count as zero days",
			activity: &models.UserActivity{
				LastActive:   fixedNow.Add(time.Hour),
				LastChatSent: ptr(fixedNow.Add(time.Hour)),
				Streak:       30,
				FriendCount:  50,
			},
			want: models.ScoreComponents{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ComputeComponents(tt.activity, fixedNow))
		})
	}
}

func TestComputeScoreBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		activity := &models.UserActivity{
			LastActive:   fixedNow.Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
			MissedEvents: rng.Intn(models.MaxMissedEvents + 1),
			Streak:       rng.Intn(40),
			FriendCount:  rng.Intn(20),
		}
		if rng.Intn(2) == 0 {
			activity.LastChatSent = ptr(fixedNow.Add(-time.Duration(rng.Intn(30*24)) * time.Hour))
		}

		score := ComputeScore(activity, nil, fixedNow)
		require.GreaterOrEqual(t, score.Score, 0)
		require.LessOrEqual(t, score.Score, 100)
		require.Equal(t, ComputeTotalScore(score.Components), score.Score)
	}
}

func TestComputeTotalScoreClamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, ComputeTotalScore(models.ScoreComponents{InactivityDays: 90, MissedEvents: 90}))
	assert.Equal(t, 0, ComputeTotalScore(models.ScoreComponents{InactivityDays: -10}))
}

func TestDetermineTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, previous int
		want              models.Trend
	}{
		{55, 50, models.TrendWorsening},
		{54, 50, models.TrendStable},
		{50, 50, models.TrendStable},
		{46, 50, models.TrendStable},
		{45, 50, models.TrendImproving},
		{0, 100, models.TrendImproving},
		{100, 0, models.TrendWorsening},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetermineTrend(tt.current, tt.previous), "current=%d previous=%d", tt.current, tt.previous)
	}
}

func TestDetermineTrendIsMonotonic(t *testing.T) {
	t.Parallel()

	rank := map[models.Trend]int{
		models.TrendImproving: 0,
		models.TrendStable:    1,
		models.TrendWorsening: 2,
	}
	for previous := 0; previous <= 100; previous += 10 {
		last := -1
		for current := 0; current <= 100; current++ {
			r := rank[DetermineTrend(current, previous)]
			require.GreaterOrEqual(t, r, last, "trend regressed at current=%d previous=%d", current, previous)
			last = r
		}
	}
}

func TestComputeScorePrevious(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	activity := &models.UserActivity{UserID: userID, LastActive: fixedNow, LastChatSent: ptr(fixedNow), Streak: 7, FriendCount: 5}

	first := ComputeScore(activity, nil, fixedNow)
	assert.Equal(t, DefaultPreviousScore, first.PreviousScore)
	assert.Equal(t, models.TrendImproving, first.Trend)
	assert.Equal(t, userID, first.UserID)
	assert.Equal(t, fixedNow, first.ComputedAt)

	second := ComputeScore(activity, first, fixedNow)
	assert.Equal(t, first.Score, second.PreviousScore)
	assert.Equal(t, models.TrendStable, second.Trend)
}
