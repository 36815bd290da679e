package momentum

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	week  = 7 * 24 * time.Hour
	month = 30 * 24 * time.Hour
)

// Aggregator builds a UserActivity snapshot from application data.
type Aggregator struct {
	social SocialStore
	store  AgentStore
	now    func() time.Time
	logger *zap.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(social SocialStore, store AgentStore, now func() time.Time, log *zap.Logger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{social: social, store: store, now: now, logger: log}
}

// Gather reads the user's recent signals and persists the snapshot. Only a
// missing or unreadable profile fails; every other query degrades to zero.
func (g *Aggregator) Gather(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity, _, err := g.gather(ctx, userID)
	return activity, err
}

func (g *Aggregator) gather(ctx context.Context, userID uuid.UUID) (*models.UserActivity, *models.Profile, error) {
	profile, err := g.social.GetProfile(ctx, userID)
	if isNotFound(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	now := g.now()
	activity := &models.UserActivity{
		UserID:    userID,
		Streak:    max(profile.Streak, 0),
		KidSafe:   profile.KidSafe(),
		UpdatedAt: now,
	}

	var (
		lastEvent, lastChat      *time.Time
		joined7, joined30        int
		missed, chats7, requests int
		friends                  int
	)

	var eg errgroup.Group
	eg.Go(func() error {
		lastEvent, joined7, joined30 = g.participation(ctx, userID, now)
		return nil
	})
	eg.Go(func() error {
		missed = g.missedEvents(ctx, userID, activity.KidSafe, now)
		return nil
	})
	eg.Go(func() error {
		lastChat, chats7 = g.messages(ctx, userID, now)
		return nil
	})
	eg.Go(func() error {
		requests = g.friendRequests(ctx, userID, now)
		return nil
	})
	eg.Go(func() error {
		count, err := g.social.CountFriends(ctx, userID)
		if err != nil {
			g.degraded("friend_count", userID, err)
			return nil
		}
		friends = count
		return nil
	})
	_ = eg.Wait()

	activity.LastEventJoined = lastEvent
	activity.LastChatSent = lastChat
	activity.EventsJoinedLast7Days = joined7
	activity.EventsJoinedLast30Days = joined30
	activity.MissedEvents = models.ClampMissedEvents(missed)
	activity.ChatsSentLast7Days = chats7
	activity.FriendRequestsSentLast7Days = requests
	activity.FriendCount = max(friends, 0)
	activity.LastActive = latest(profile.LastSeenAt, lastEvent, lastChat)

	if err := g.store.SaveActivity(ctx, activity); err != nil {
		g.logger.Warn("activity_snapshot_save_failed", logger.UserID(userID), logger.Error(err))
	}

	return activity, profile, nil
}

func (g *Aggregator) participation(ctx context.Context, userID uuid.UUID, now time.Time) (*time.Time, int, int) {
	records, err := g.social.RecentParticipations(ctx, userID, participationLimit)
	if err != nil {
		g.degraded("participations", userID, err)
		return nil, 0, 0
	}

	var last *time.Time
	joined7, joined30 := 0, 0
	for i := range records {
		joinedAt := records[i].JoinedAt
		if last == nil || joinedAt.After(*last) {
			last = &joinedAt
		}
		age := now.Sub(joinedAt)
		if age <= week {
			joined7++
		}
		if age <= month {
			joined30++
		}
	}
	return last, joined7, joined30
}

func (g *Aggregator) missedEvents(ctx context.Context, userID uuid.UUID, kidSafe bool, now time.Time) int {
	ended, err := g.social.RecentlyEndedEvents(ctx, now.Add(-week), now, endedEventLimit)
	if err != nil {
		g.degraded("ended_events", userID, err)
		return 0
	}

	ids := make([]uuid.UUID, 0, len(ended))
	for _, e := range ended {
		if kidSafe && !e.KidFriendly {
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return 0
	}

	joined, err := g.social.ParticipatedIn(ctx, userID, ids)
	if err != nil {
		g.degraded("ended_event_participation", userID, err)
		return 0
	}

	missed := 0
	for _, id := range ids {
		if !joined[id] {
			missed++
		}
	}
	return min(missed, endedEventLimit)
}

func (g *Aggregator) messages(ctx context.Context, userID uuid.UUID, now time.Time) (*time.Time, int) {
	msgs, err := g.social.RecentSentMessages(ctx, userID, messageLimit)
	if err != nil {
		g.degraded("messages", userID, err)
		return nil, 0
	}

	var last *time.Time
	sent7 := 0
	for i := range msgs {
		sentAt := msgs[i].SentAt
		if last == nil || sentAt.After(*last) {
			last = &sentAt
		}
		if now.Sub(sentAt) <= week {
			sent7++
		}
	}
	return last, sent7
}

func (g *Aggregator) friendRequests(ctx context.Context, userID uuid.UUID, now time.Time) int {
	requests, err := g.social.RecentFriendRequests(ctx, userID, friendRequestLimit)
	if err != nil {
		g.degraded("friend_requests", userID, err)
		return 0
	}

	count := 0
	for _, r := range requests {
		if now.Sub(r.CreatedAt) <= week {
			count++
		}
	}
	return count
}

func (g *Aggregator) degraded(signal string, userID uuid.UUID, err error) {
	g.logger.Warn("activity_signal_degraded",
		zap.String("signal", signal),
		logger.UserID(userID),
		logger.Error(err),
	)
}

func latest(base time.Time, candidates ...*time.Time) time.Time {
	out := base
	for _, c := range candidates {
		if c != nil && c.After(out) {
			out = *c
		}
	}
	return out
}
