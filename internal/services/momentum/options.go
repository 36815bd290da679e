package momentum

import (
	"math/rand"
	"time"

	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/services/ai"
	"go.uber.org/zap"
)

// Option configures an Agent
type Option func(*Agent)

// WithClock replaces time.Now for all elapsed-time math
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// WithRand sets the random source used for template selection
func WithRand(rng *rand.Rand) Option {
	return func(a *Agent) {
		a.rng = rng
	}
}

// WithProvider enables language-model generation. Without it the agent uses templates only.
func WithProvider(p ai.Provider) Option {
	return func(a *Agent) {
		a.provider = p
	}
}

// WithMetrics records agent metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}
