package momentum

import (
	"context"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

// SocialStore is the read-only view of application data the agent needs.
// Implementations return errors wrapping database.ErrNotFound for missing rows.
type SocialStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	RecentParticipations(ctx context.Context, userID uuid.UUID, limit int) ([]models.EventParticipation, error)
	RecentlyEndedEvents(ctx context.Context, since, until time.Time, limit int) ([]models.Event, error)
	ParticipatedIn(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	UpcomingEvents(ctx context.Context, from time.Time, kidFriendlyOnly bool, limit int) ([]models.Event, error)
	RecentSentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
	RecentFriendRequests(ctx context.Context, userID uuid.UUID, limit int) ([]models.FriendRequest, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int, error)
	ListFriends(ctx context.Context, userID uuid.UUID, limit int) ([]models.Friend, error)
}

// AgentStore persists the agent-owned entities.
type AgentStore interface {
	SaveActivity(ctx context.Context, activity *models.UserActivity) error
	GetActivity(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	GetScore(ctx context.Context, userID uuid.UUID) (*models.LonelinessScore, error)
	SaveScore(ctx context.Context, score *models.LonelinessScore) error
	GetMemory(ctx context.Context, userID uuid.UUID) (*models.AgentMemory, error)
	SaveMemory(ctx context.Context, mem *models.AgentMemory) error
	CreateNudge(ctx context.Context, nudge *models.AINudge) error
	GetNudge(ctx context.Context, nudgeID uuid.UUID) (*models.AINudge, error)
	ListNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error)
	SetNudgeRead(ctx context.Context, nudgeID uuid.UUID) (bool, error)
	SetNudgeDismissed(ctx context.Context, nudgeID uuid.UUID) (bool, error)
	SetNudgeOutcome(ctx context.Context, nudgeID uuid.UUID, outcome models.NudgeOutcome) error
}

// Per-run query bounds.
const (
	participationLimit  = 30
	endedEventLimit     = 10
	messageLimit        = 20
	friendRequestLimit  = 20
	promptEventLimit    = 5
	promptFriendLimit   = 5
	promptOutcomeLimit  = 5
	outcomeEntriesLimit = 3
)
