package momentum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/benvon/social-momentum/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemPrompt = `You write short, friendly nudges for a social events app.
Rules:
- Never use clinical or stigmatizing words such as lonely, isolated, depressed or at risk.
- At most 2 sentences.
- Always point at one concrete social action: joining an event, messaging a friend or keeping a streak.
- Only mention events and friends that appear in the context.
- Match the requested tone.
- If kid_safe is true use simple words suitable for a child and never mention alcohol, nightlife or dating.
Respond with a JSON object: {"message": string, "suggested_event": string or null, "suggested_friend": string or null}.`

// maxMessageLength rejects runaway completions.
const maxMessageLength = 400

var errEmptyMessage = errors.New("completion has no message")

// NamedRef is an event or friend offered to the generator. Only the name is sent to the model.
type NamedRef struct {
	ID   uuid.UUID `json:"-"`
	Name string    `json:"name"`
}

// OutcomeSummary describes one past nudge for self-reflection.
type OutcomeSummary struct {
	Category   models.NudgeCategory `json:"category"`
	WasRead    bool                 `json:"was_read"`
	WasActedOn bool                 `json:"was_acted_on"`
}

// PromptContext is everything the generator knows about the user for one nudge.
type PromptContext struct {
	DisplayName    string                `json:"display_name"`
	KidSafe        bool                  `json:"kid_safe"`
	Category       models.NudgeCategory  `json:"category"`
	Priority       models.NudgePriority  `json:"priority"`
	Tone           models.TonePreference `json:"tone"`
	Score          int                   `json:"score"`
	Trend          models.Trend          `json:"trend"`
	Streak         int                   `json:"streak"`
	DaysInactive   int                   `json:"days_inactive"`
	UpcomingEvents []NamedRef            `json:"upcoming_events"`
	Friends        []NamedRef            `json:"friends"`
	RecentOutcomes []OutcomeSummary      `json:"recent_outcomes"`
}

// GeneratedNudge is the generator's output. Suggestions are names; the agent
// resolves them back to IDs.
type GeneratedNudge struct {
	Message         string  `json:"message"`
	SuggestedEvent  *string `json:"suggested_event"`
	SuggestedFriend *string `json:"suggested_friend"`
	FromTemplate    bool    `json:"-"`
}

// Generator produces nudge text with a language model, falling back to templates.
type Generator struct {
	provider  ai.Provider
	templates *templateEngine
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewGenerator creates a generator. provider may be nil to use templates only.
func NewGenerator(provider ai.Provider, catalog TemplateCatalog, rng *rand.Rand, m *metrics.Metrics, log *zap.Logger) *Generator {
	if catalog == nil {
		catalog = defaultCatalog
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- template choice is not security sensitive
	}
	return &Generator{
		provider:  provider,
		templates: newTemplateEngine(catalog, rng),
		metrics:   m,
		logger:    log,
	}
}

// Generate never fails: any model problem falls back to a template. The kid
// filter is applied to the final message and suggestion names when
// pctx.KidSafe is set.
func (g *Generator) Generate(ctx context.Context, pctx *PromptContext) *GeneratedNudge {
	var out *GeneratedNudge
	if g.provider != nil {
		var err error
		out, err = g.complete(ctx, pctx)
		if err != nil {
			reason := ai.FallbackReason(err)
			g.metrics.RecordFallback(reason)
			g.logger.Warn("llm_fallback_to_template",
				zap.String("reason", reason),
				zap.String("category", string(pctx.Category)),
				logger.Error(err),
			)
			out = nil
		}
	}
	if out == nil {
		out = g.templates.render(pctx)
		out.FromTemplate = true
	}

	if pctx.KidSafe {
		out.Message = SanitizeForKids(out.Message)
		out.SuggestedEvent = sanitizeNameForKids(out.SuggestedEvent)
		out.SuggestedFriend = sanitizeNameForKids(out.SuggestedFriend)
	}
	return out
}

func sanitizeNameForKids(name *string) *string {
	if name == nil {
		return nil
	}
	clean := SanitizeForKids(*name)
	return &clean
}

func (g *Generator) complete(ctx context.Context, pctx *PromptContext) (*GeneratedNudge, error) {
	payload, err := json.Marshal(pctx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt context: %w", err)
	}

	content, err := g.provider.CompleteJSON(ctx, systemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	return parseCompletion(content)
}

// parseCompletion accepts a JSON object, tolerating prose around it.
func parseCompletion(content string) (*GeneratedNudge, error) {
	raw := []byte(strings.TrimSpace(content))
	var out GeneratedNudge
	if err := json.Unmarshal(raw, &out); err != nil {
		start := bytes.IndexByte(raw, '{')
		end := bytes.LastIndexByte(raw, '}')
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse completion: %w", err)
		}
		if err := json.Unmarshal(raw[start:end+1], &out); err != nil {
			return nil, fmt.Errorf("failed to parse completion: %w", err)
		}
	}

	out.Message = validation.SanitizeText(out.Message)
	if out.Message == "" {
		return nil, errEmptyMessage
	}
	if len(out.Message) > maxMessageLength {
		return nil, fmt.Errorf("completion message too long: %d bytes", len(out.Message))
	}
	out.SuggestedEvent = nonEmpty(out.SuggestedEvent)
	out.SuggestedFriend = nonEmpty(out.SuggestedFriend)
	return &out, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
