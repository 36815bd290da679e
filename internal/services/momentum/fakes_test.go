package momentum

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benvon/social-momentum/internal/database"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

// fakeSocial is an in-memory SocialStore. Setting an error field fails that query.
type fakeSocial struct {
	profiles       map[uuid.UUID]*models.Profile
	participations []models.EventParticipation
	ended          []models.Event
	upcoming       []models.Event
	messages       []models.Message
	requests       []models.FriendRequest
	friends        []models.Friend

	profileErr  error
	eventsErr   error
	messagesErr error
	requestsErr error
	friendsErr  error
}

func newFakeSocial(profiles ...*models.Profile) *fakeSocial {
	f := &fakeSocial{profiles: make(map[uuid.UUID]*models.Profile)}
	for _, p := range profiles {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeSocial) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, database.ErrNotFound)
	}
	return p, nil
}

func (f *fakeSocial) RecentParticipations(_ context.Context, userID uuid.UUID, limit int) ([]models.EventParticipation, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	var out []models.EventParticipation
	for _, p := range f.participations {
		if p.UserID == userID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSocial) RecentlyEndedEvents(_ context.Context, since, until time.Time, limit int) ([]models.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	var out []models.Event
	for _, e := range f.ended {
		if !e.EndsAt.Before(since) && e.EndsAt.Before(until) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSocial) ParticipatedIn(_ context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	out := make(map[uuid.UUID]bool)
	for _, p := range f.participations {
		if p.UserID != userID {
			continue
		}
		for _, id := range eventIDs {
			if p.EventID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (f *fakeSocial) UpcomingEvents(_ context.Context, from time.Time, kidFriendlyOnly bool, limit int) ([]models.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	var out []models.Event
	for _, e := range f.upcoming {
		if e.StartsAt.After(from) && (!kidFriendlyOnly || e.KidFriendly) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSocial) RecentSentMessages(_ context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	var out []models.Message
	for _, m := range f.messages {
		if m.SenderID == userID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSocial) RecentFriendRequests(_ context.Context, userID uuid.UUID, limit int) ([]models.FriendRequest, error) {
	if f.requestsErr != nil {
		return nil, f.requestsErr
	}
	var out []models.FriendRequest
	for _, r := range f.requests {
		if r.FromUserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSocial) CountFriends(_ context.Context, _ uuid.UUID) (int, error) {
	if f.friendsErr != nil {
		return 0, f.friendsErr
	}
	return len(f.friends), nil
}

func (f *fakeSocial) ListFriends(_ context.Context, _ uuid.UUID, limit int) ([]models.Friend, error) {
	if f.friendsErr != nil {
		return nil, f.friendsErr
	}
	if len(f.friends) > limit {
		return f.friends[:limit], nil
	}
	return f.friends, nil
}

var _ SocialStore = (*fakeSocial)(nil)

// memStore is an in-memory AgentStore.
type memStore struct {
	mu         sync.Mutex
	activities map[uuid.UUID]*models.UserActivity
	scores     map[uuid.UUID]*models.LonelinessScore
	memories   map[uuid.UUID]*models.AgentMemory
	nudges     map[uuid.UUID]*models.AINudge

	createErr     error
	memoryReadErr error
	saveMemCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		activities: make(map[uuid.UUID]*models.UserActivity),
		scores:     make(map[uuid.UUID]*models.LonelinessScore),
		memories:   make(map[uuid.UUID]*models.AgentMemory),
		nudges:     make(map[uuid.UUID]*models.AINudge),
	}
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, database.ErrNotFound)
}

func (s *memStore) SaveActivity(_ context.Context, activity *models.UserActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *activity
	s.activities[activity.UserID] = &cp
	return nil
}

func (s *memStore) GetActivity(_ context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[userID]
	if !ok {
		return nil, notFound("activity", userID)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetScore(_ context.Context, userID uuid.UUID) (*models.LonelinessScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[userID]
	if !ok {
		return nil, notFound("score", userID)
	}
	cp := *sc
	return &cp, nil
}

func (s *memStore) SaveScore(_ context.Context, score *models.LonelinessScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *score
	s.scores[score.UserID] = &cp
	return nil
}

func (s *memStore) GetMemory(_ context.Context, userID uuid.UUID) (*models.AgentMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoryReadErr != nil {
		return nil, s.memoryReadErr
	}
	m, ok := s.memories[userID]
	if !ok {
		return nil, notFound("memory", userID)
	}
	cp := *m
	cp.NudgeHistory = append([]models.NudgeHistoryEntry(nil), m.NudgeHistory...)
	return &cp, nil
}

func (s *memStore) SaveMemory(_ context.Context, mem *models.AgentMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveMemCalls++
	cp := *mem
	cp.NudgeHistory = append([]models.NudgeHistoryEntry(nil), mem.NudgeHistory...)
	s.memories[mem.UserID] = &cp
	return nil
}

func (s *memStore) CreateNudge(_ context.Context, nudge *models.AINudge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *nudge
	s.nudges[nudge.ID] = &cp
	return nil
}

func (s *memStore) GetNudge(_ context.Context, nudgeID uuid.UUID) (*models.AINudge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nudges[nudgeID]
	if !ok {
		return nil, notFound("nudge", nudgeID)
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) ListNudges(_ context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AINudge
	for _, n := range s.nudges {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	// map order, the caller sorts
	if len(out) > limit {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) SetNudgeRead(_ context.Context, nudgeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nudges[nudgeID]
	if !ok || n.IsRead {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (s *memStore) SetNudgeDismissed(_ context.Context, nudgeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nudges[nudgeID]
	if !ok || n.IsDismissed {
		return false, nil
	}
	n.IsDismissed = true
	return true, nil
}

func (s *memStore) SetNudgeOutcome(_ context.Context, nudgeID uuid.UUID, outcome models.NudgeOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nudges[nudgeID]; ok && n.Outcome == nil {
		n.Outcome = &outcome
	}
	return nil
}

func (s *memStore) nudgesFor(userID uuid.UUID) []*models.AINudge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AINudge
	for _, n := range s.nudges {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

var _ AgentStore = (*memStore)(nil)

// fakeProvider returns a fixed completion or error.
type fakeProvider struct {
	content string
	err     error
	calls   int
	user    string
}

func (p *fakeProvider) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	p.calls++
	p.user = userPrompt
	return p.content, p.err
}
