package database

import (
	"context"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

// ProfileRepositoryInterface defines the profile read operations
type ProfileRepositoryInterface interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// EventRepositoryInterface defines the event read operations
type EventRepositoryInterface interface {
	RecentParticipations(ctx context.Context, userID uuid.UUID, limit int) ([]models.EventParticipation, error)
	RecentlyEndedEvents(ctx context.Context, since, until time.Time, limit int) ([]models.Event, error)
	UpcomingEvents(ctx context.Context, from time.Time, kidFriendlyOnly bool, limit int) ([]models.Event, error)
	ParticipatedIn(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// MessageRepositoryInterface defines the chat message read operations
type MessageRepositoryInterface interface {
	RecentSentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
}

// FriendRepositoryInterface defines the friend graph read operations
type FriendRepositoryInterface interface {
	RecentFriendRequests(ctx context.Context, userID uuid.UUID, limit int) ([]models.FriendRequest, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int, error)
	ListFriends(ctx context.Context, userID uuid.UUID, limit int) ([]models.Friend, error)
}

// ActivityRepositoryInterface defines activity snapshot operations
type ActivityRepositoryInterface interface {
	SaveActivity(ctx context.Context, activity *models.UserActivity) error
	GetActivity(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
}

// ScoreRepositoryInterface defines loneliness score operations
type ScoreRepositoryInterface interface {
	GetScore(ctx context.Context, userID uuid.UUID) (*models.LonelinessScore, error)
	SaveScore(ctx context.Context, score *models.LonelinessScore) error
}

// NudgeRepositoryInterface defines nudge operations
type NudgeRepositoryInterface interface {
	CreateNudge(ctx context.Context, nudge *models.AINudge) error
	GetNudge(ctx context.Context, nudgeID uuid.UUID) (*models.AINudge, error)
	ListNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error)
	SetNudgeRead(ctx context.Context, nudgeID uuid.UUID) (bool, error)
	SetNudgeDismissed(ctx context.Context, nudgeID uuid.UUID) (bool, error)
	SetNudgeOutcome(ctx context.Context, nudgeID uuid.UUID, outcome models.NudgeOutcome) error
}

// MemoryRepositoryInterface defines agent memory operations
type MemoryRepositoryInterface interface {
	GetMemory(ctx context.Context, userID uuid.UUID) (*models.AgentMemory, error)
	SaveMemory(ctx context.Context, mem *models.AgentMemory) error
}

// SocialStore groups the read-only repositories over application data.
type SocialStore struct {
	*ProfileRepository
	*EventRepository
	*MessageRepository
	*FriendRepository
}

// NewSocialStore builds a SocialStore over db
func NewSocialStore(db *DB) *SocialStore {
	return &SocialStore{
		ProfileRepository: NewProfileRepository(db),
		EventRepository:   NewEventRepository(db),
		MessageRepository: NewMessageRepository(db),
		FriendRepository:  NewFriendRepository(db),
	}
}

// AgentStore groups the repositories over agent-owned tables.
type AgentStore struct {
	*ActivityRepository
	*ScoreRepository
	*NudgeRepository
	*MemoryRepository
}

// NewAgentStore builds an AgentStore over db
func NewAgentStore(db *DB) *AgentStore {
	return &AgentStore{
		ActivityRepository: NewActivityRepository(db),
		ScoreRepository:    NewScoreRepository(db),
		NudgeRepository:    NewNudgeRepository(db),
		MemoryRepository:   NewMemoryRepository(db),
	}
}

// Ensure concrete types implement the interfaces
var (
	_ ProfileRepositoryInterface  = (*ProfileRepository)(nil)
	_ EventRepositoryInterface    = (*EventRepository)(nil)
	_ MessageRepositoryInterface  = (*MessageRepository)(nil)
	_ FriendRepositoryInterface   = (*FriendRepository)(nil)
	_ ActivityRepositoryInterface = (*ActivityRepository)(nil)
	_ ScoreRepositoryInterface    = (*ScoreRepository)(nil)
	_ NudgeRepositoryInterface    = (*NudgeRepository)(nil)
	_ MemoryRepositoryInterface   = (*MemoryRepository)(nil)
)

var (
	_ ProfileRepositoryInterface  = (*ProfileRepository)(nil)
	_ EventRepositoryInterface    = (*EventRepository)(nil)
	_ MessageRepositoryInterface  = (*MessageRepository)(nil)
	_ FriendRepositoryInterface   = (*FriendRepository)(nil)
	_ ActivityRepositoryInterface = (*ActivityRepository)(nil)
	_ ScoreRepositoryInterface    = (*ScoreRepository)(nil)
	_ NudgeRepositoryInterface    = (*NudgeRepository)(nil)
	_ MemoryRepositoryInterface   = (*MemoryRepository)(nil)
)
