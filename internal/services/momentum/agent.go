package momentum

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/benvon/social-momentum/internal/config"
	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/benvon/social-momentum/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Agent runs the social momentum loop for one user at a time. It holds no
// per-user state; concurrent runs for different users are safe.
type Agent struct {
	social   SocialStore
	store    AgentStore
	cfg      config.AgentConfig
	now      func() time.Time
	rng      *rand.Rand
	provider ai.Provider
	metrics  *metrics.Metrics
	logger   *zap.Logger

	aggregator *Aggregator
	policy     *Policy
	tracker    *OutcomeTracker
	generator  *Generator
}

// NewAgent wires the agent components.
func NewAgent(social SocialStore, store AgentStore, cfg config.AgentConfig, opts ...Option) *Agent {
	a := &Agent{
		social: social,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}

	a.aggregator = NewAggregator(social, store, a.now, a.logger)
	a.policy = NewPolicy(cfg, a.now)
	a.tracker = NewOutcomeTracker(time.Duration(cfg.OutcomeCheckDelayHours)*time.Hour, a.now)
	a.generator = NewGenerator(a.provider, nil, a.rng, a.metrics, a.logger)
	return a
}

// Run executes one agent pass and returns the generated nudge, or nil when
// no nudge was warranted or anything failed. It never panics or errors.
func (a *Agent) Run(ctx context.Context, userID uuid.UUID) *models.AINudge {
	nudge, err := a.Execute(ctx, userID)
	if err != nil {
		a.logger.Error("momentum_run_failed", logger.UserID(userID), logger.Error(err))
		return nil
	}
	return nudge
}

// Execute is Run with the error exposed. ErrUserNotFound marks a missing user.
// Panics are recovered into errors.
func (a *Agent) Execute(ctx context.Context, userID uuid.UUID) (nudge *models.AINudge, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "momentum.run")
	span.SetAttributes(attribute.String("user_id", userID.String()))
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("momentum_run_panic",
				logger.UserID(userID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			nudge, err = nil, fmt.Errorf("momentum run panicked: %v", r)
		}
		a.recordRun(nudge, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return a.execute(ctx, userID)
}

func (a *Agent) execute(ctx context.Context, userID uuid.UUID) (*models.AINudge, error) {
	stepCtx, span := telemetry.Tracer().Start(ctx, "momentum.aggregate")
	activity, profile, err := a.aggregator.gather(stepCtx, userID)
	span.End()
	if err != nil {
		return nil, err
	}

	score := a.score(ctx, activity)

	mem, err := a.loadMemory(ctx, userID)
	if err != nil {
		return nil, err
	}

	working := mem
	if working == nil {
		working = models.NewAgentMemory(userID, a.now())
	} else {
		a.measureOutcomes(ctx, working, activity, score)
	}

	decision := a.policy.MakeDecision(score, mem, activity)
	a.logger.Debug("momentum_decision",
		logger.UserID(userID),
		zap.Bool("should_nudge", decision.ShouldNudge),
		zap.String("reason", decision.Reason),
		zap.String("category", string(decision.Category)),
		zap.Int("score", score.Score),
		zap.Int("threshold", decision.Threshold),
	)
	if !decision.ShouldNudge {
		return nil, nil
	}

	pctx := a.buildPromptContext(ctx, profile, activity, score, working, decision)

	genCtx, genSpan := telemetry.Tracer().Start(ai.WithUserID(ctx, userID), "momentum.generate")
	generated := a.generator.Generate(genCtx, pctx)
	genSpan.SetAttributes(attribute.Bool("from_template", generated.FromTemplate))
	genSpan.End()

	nudge := &models.AINudge{
		ID:                    uuid.New(),
		UserID:                userID,
		Message:               generated.Message,
		Category:              decision.Category,
		Priority:              decision.Priority,
		LonelinessScoreAtTime: score.Score,
		CreatedAt:             a.now(),
	}
	nudge.SuggestedEventName, nudge.SuggestedEventID = resolveRef(generated.SuggestedEvent, pctx.UpcomingEvents)
	nudge.SuggestedFriendName, nudge.SuggestedFriendID = resolveRef(generated.SuggestedFriend, pctx.Friends)

	if err := a.store.CreateNudge(ctx, nudge); err != nil {
		return nil, fmt.Errorf("failed to persist nudge: %w", err)
	}

	UpdateMemoryAfterNudge(working, nudge, score, a.now())
	if err := a.store.SaveMemory(ctx, working); err != nil {
		a.logger.Error("agent_memory_save_failed", logger.UserID(userID), logger.Error(err))
	}

	a.metrics.RecordNudge(string(nudge.Category), string(nudge.Priority))
	a.logger.Info("nudge_generated",
		logger.UserID(userID),
		zap.String("nudge_id", nudge.ID.String()),
		zap.String("category", string(nudge.Category)),
		zap.String("priority", string(nudge.Priority)),
		zap.Bool("from_template", generated.FromTemplate),
	)
	return nudge, nil
}

// score computes and stores the new score. A failed read of the previous
// score falls back to the neutral default.
func (a *Agent) score(ctx context.Context, activity *models.UserActivity) *models.LonelinessScore {
	ctx, span := telemetry.Tracer().Start(ctx, "momentum.score")
	defer span.End()

	previous, err := a.store.GetScore(ctx, activity.UserID)
	if err != nil {
		if !isNotFound(err) {
			a.logger.Warn("previous_score_read_failed", logger.UserID(activity.UserID), logger.Error(err))
		}
		previous = nil
	}

	score := ComputeScore(activity, previous, a.now())
	span.SetAttributes(attribute.Int("score", score.Score), attribute.String("trend", string(score.Trend)))
	a.metrics.ObserveScore(score.Score)

	if err := a.store.SaveScore(ctx, score); err != nil {
		a.logger.Warn("score_save_failed", logger.UserID(activity.UserID), logger.Error(err))
	}
	return score
}

// loadMemory returns nil for a first-time user. Read failures abort the run so
// that defaults never overwrite real history.
func (a *Agent) loadMemory(ctx context.Context, userID uuid.UUID) (*models.AgentMemory, error) {
	mem, err := a.store.GetMemory(ctx, userID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent memory: %w", err)
	}
	return mem, nil
}

func (a *Agent) measureOutcomes(ctx context.Context, mem *models.AgentMemory, activity *models.UserActivity, score *models.LonelinessScore) {
	ctx, span := telemetry.Tracer().Start(ctx, "momentum.outcomes")
	defer span.End()

	acted := a.tracker.Measure(mem, activity, score)
	span.SetAttributes(attribute.Int("acted_on", len(acted)))
	if len(acted) == 0 {
		return
	}

	for _, nudgeID := range acted {
		if err := a.store.SetNudgeOutcome(ctx, nudgeID, models.OutcomeActedOn); err != nil {
			a.logger.Warn("nudge_outcome_backfill_failed",
				logger.UserID(mem.UserID),
				zap.String("nudge_id", nudgeID.String()),
				logger.Error(err),
			)
		}
	}
	if err := a.store.SaveMemory(ctx, mem); err != nil {
		a.logger.Error("agent_memory_save_failed", logger.UserID(mem.UserID), logger.Error(err))
	}
}

// MeasureOutcomes re-aggregates activity and resolves past nudges without
// running the decision step. It returns how many nudges became acted on.
func (a *Agent) MeasureOutcomes(ctx context.Context, userID uuid.UUID) (int, error) {
	activity, err := a.aggregator.Gather(ctx, userID)
	if err != nil {
		return 0, err
	}
	mem, err := a.loadMemory(ctx, userID)
	if err != nil || mem == nil {
		return 0, err
	}

	var score *models.LonelinessScore
	if stored, err := a.store.GetScore(ctx, userID); err == nil {
		score = stored
	}

	before := mem.TotalNudgesActedOn
	a.measureOutcomes(ctx, mem, activity, score)
	return mem.TotalNudgesActedOn - before, nil
}

func (a *Agent) buildPromptContext(ctx context.Context, profile *models.Profile, activity *models.UserActivity, score *models.LonelinessScore, mem *models.AgentMemory, decision Decision) *PromptContext {
	userID := activity.UserID
	pctx := &PromptContext{
		DisplayName:    profile.DisplayName,
		KidSafe:        activity.KidSafe,
		Category:       decision.Category,
		Priority:       decision.Priority,
		Tone:           mem.TonePreference,
		Score:          score.Score,
		Trend:          score.Trend,
		Streak:         activity.Streak,
		DaysInactive:   daysSince(a.now(), activity.LastActive),
		UpcomingEvents: []NamedRef{},
		Friends:        []NamedRef{},
		RecentOutcomes: recentOutcomes(mem, promptOutcomeLimit),
	}

	var eg errgroup.Group
	eg.Go(func() error {
		events, err := a.social.UpcomingEvents(ctx, a.now(), activity.KidSafe, promptEventLimit)
		if err != nil {
			a.logger.Warn("prompt_events_failed", logger.UserID(userID), logger.Error(err))
			return nil
		}
		for _, e := range events {
			if activity.KidSafe && !e.KidFriendly {
				continue
			}
			pctx.UpcomingEvents = append(pctx.UpcomingEvents, NamedRef{ID: e.ID, Name: e.Title})
		}
		return nil
	})
	eg.Go(func() error {
		friends, err := a.social.ListFriends(ctx, userID, promptFriendLimit)
		if err != nil {
			a.logger.Warn("prompt_friends_failed", logger.UserID(userID), logger.Error(err))
			return nil
		}
		for i, f := range friends {
			if i >= promptFriendLimit {
				break
			}
			pctx.Friends = append(pctx.Friends, NamedRef{ID: f.UserID, Name: f.DisplayName})
		}
		return nil
	})
	_ = eg.Wait()

	return pctx
}

// resolveRef maps a suggested name back to an ID by exact match. An unmatched
// name is kept with a nil ID.
func resolveRef(name *string, refs []NamedRef) (*string, *uuid.UUID) {
	if name == nil {
		return nil, nil
	}
	for _, ref := range refs {
		if ref.Name == *name {
			id := ref.ID
			return name, &id
		}
	}
	return name, nil
}

func (a *Agent) recordRun(nudge *models.AINudge, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		a.metrics.RecordRun(metrics.RunNotFound)
	case err != nil:
		a.metrics.RecordRun(metrics.RunFailed)
	case nudge != nil:
		a.metrics.RecordRun(metrics.RunNudged)
	default:
		a.metrics.RecordRun(metrics.RunNoNudge)
	}
}
