package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/benvon/social-momentum/internal/validation"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	ServerPort        string
	FrontendURL       string
	EnableHSTS        bool
	RedisURL          string
	RabbitMQURL       string
	RabbitMQPrefetch  int
	WorkerDebugMode   bool
	ServerDebugMode   bool
	OTELEnabled       bool
	OTELEndpoint      string
	MetricsEnabled    bool
	WorkerMetricsPort string
	RateLimit         string
	ScheduleCron      string
	AI                AIConfig
	Agent             AgentConfig
}

// AIConfig configures the language-model client
type AIConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Enabled reports whether a language-model credential is configured
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// AgentConfig holds the thresholds of the momentum agent
type AgentConfig struct {
	NudgeScoreThreshold     int     `validate:"gte=0,lte=100"`
	LowSuccessThresholdBump int     `validate:"gte=0,lte=100"`
	LowSuccessRate          float64 `validate:"gte=0,lte=1"`
	HighPriorityThreshold   int     `validate:"gte=0,lte=100,gtefield=MediumPriorityThreshold"`
	MediumPriorityThreshold int     `validate:"gte=0,lte=100"`
	ComebackInactiveDays    int     `validate:"gte=1"`
	MinHoursBetweenNudges   int     `validate:"gte=0"`
	MaxNudgesPerDay         int     `validate:"gte=0"`
	OutcomeCheckDelayHours  int     `validate:"gte=0"`
}

// DefaultAgentConfig returns the stock agent thresholds
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		NudgeScoreThreshold:     35,
		LowSuccessThresholdBump: 15,
		LowSuccessRate:          0.2,
		HighPriorityThreshold:   65,
		MediumPriorityThreshold: 50,
		ComebackInactiveDays:    7,
		MinHoursBetweenNudges:   20,
		MaxNudgesPerDay:         3,
		OutcomeCheckDelayHours:  24,
	}
}

// Validate checks the thresholds are in range
func (c AgentConfig) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		return fmt.Errorf("invalid agent config: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := DefaultAgentConfig()
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
		RateLimit:         getEnv("RATE_LIMIT", "5-S"),
		ScheduleCron:      getEnv("SCHEDULE_CRON", "0 0 */6 * * *"),
		AI: AIConfig{
			Provider:  getEnv("AI_PROVIDER", "openai"),
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			Model:     getEnv("AI_MODEL", "gpt-4o-mini"),
			BaseURL:   getEnv("AI_BASE_URL", ""),
			MaxTokens: getEnvInt("AI_MAX_TOKENS", 200),
		},
		Agent: AgentConfig{
			NudgeScoreThreshold:     getEnvInt("NUDGE_SCORE_THRESHOLD", defaults.NudgeScoreThreshold),
			LowSuccessThresholdBump: getEnvInt("LOW_SUCCESS_THRESHOLD_BUMP", defaults.LowSuccessThresholdBump),
			LowSuccessRate:          defaults.LowSuccessRate,
			HighPriorityThreshold:   getEnvInt("HIGH_PRIORITY_THRESHOLD", defaults.HighPriorityThreshold),
			MediumPriorityThreshold: getEnvInt("MEDIUM_PRIORITY_THRESHOLD", defaults.MediumPriorityThreshold),
			ComebackInactiveDays:    getEnvInt("COMEBACK_INACTIVE_DAYS", defaults.ComebackInactiveDays),
			MinHoursBetweenNudges:   getEnvInt("MIN_HOURS_BETWEEN_NUDGES", defaults.MinHoursBetweenNudges),
			MaxNudgesPerDay:         getEnvInt("MAX_NUDGES_PER_DAY", defaults.MaxNudgesPerDay),
			OutcomeCheckDelayHours:  getEnvInt("OUTCOME_CHECK_DELAY_HOURS", defaults.OutcomeCheckDelayHours),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.Agent.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
