package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// AI backends.
const (
	AIBackendNone   = "none"
	AIBackendHTTP   = "http"
	AIBackendGemini = "gemini"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"mock-interview"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store      Store
	Postgres   Postgres
	Redis      Redis
	Interview  Interview
	Scoring    Scoring
	AI         AI
	Resume     Resume
	Upload     Upload
	Scoreboard Scoreboard
}

// Store selects the candidate persistence backend.
type Store struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the pgxpool connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.ConnString(), p.MaxConns)
}

// ConnString renders a plain connection string for database/sql users.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache, active-candidate and scoreboard configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Interview groups session defaults.
type Interview struct {
	StartCommand     string        `env:"INTERVIEW_START_COMMAND" envDefault:"start"`
	Role             string        `env:"INTERVIEW_ROLE" envDefault:"fullstack"`
	Stack            string        `env:"INTERVIEW_STACK" envDefault:"React/Node"`
	TickInterval     time.Duration `env:"INTERVIEW_TICK_INTERVAL" envDefault:"1s"`
	QuestionBankPath string        `env:"QUESTION_BANK_PATH"`
	PackCacheTTL     time.Duration `env:"QUESTION_PACK_CACHE_TTL" envDefault:"30m"`
	PrefetchQueue    int           `env:"QUESTION_PREFETCH_QUEUE" envDefault:"16"`
}

// Scoring exposes the heuristic constants of the local evaluator.
type Scoring struct {
	ShortAnswerChars int     `env:"SCORING_SHORT_ANSWER_CHARS" envDefault:"20"`
	LongAnswerChars  int     `env:"SCORING_LONG_ANSWER_CHARS" envDefault:"80"`
	SpeedBonusRatio  float64 `env:"SCORING_SPEED_BONUS_RATIO" envDefault:"0.5"`
}

// AI configures the remote question generator, scorer and summarizer.
type AI struct {
	Backend      string        `env:"AI_BACKEND" envDefault:"none"`
	GeneratorURL string        `env:"AI_GENERATOR_URL"`
	GeneratorKey string        `env:"AI_GENERATOR_API_KEY"`
	HTTPTimeout  time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"6s"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// Resume configures the external extraction service.
type Resume struct {
	ExtractorURL string        `env:"RESUME_EXTRACTOR_URL"`
	Timeout      time.Duration `env:"RESUME_EXTRACTOR_TIMEOUT" envDefault:"10s"`
}

// Upload bounds accepted resume documents.
type Upload struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

// Scoreboard governs the Redis backed ranking of completed candidates.
type Scoreboard struct {
	Enabled       bool   `env:"SCOREBOARD_ENABLED" envDefault:"true"`
	PubSubChannel string `env:"SCOREBOARD_CHANNEL" envDefault:"scoreboard:updates"`
	TopN          int    `env:"SCOREBOARD_TOP" envDefault:"50"`

	ReconcileInterval time.Duration `env:"SCOREBOARD_RECONCILE_INTERVAL" envDefault:"5m"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("PG_USER and PG_DATABASE must be configured for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.AI.Backend {
	case AIBackendNone:
	case AIBackendHTTP:
		if c.AI.GeneratorURL == "" {
			return fmt.Errorf("AI_GENERATOR_URL must be configured for the http ai backend")
		}
	case AIBackendGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be configured for the gemini ai backend")
		}
	default:
		return fmt.Errorf("unknown AI_BACKEND %q", c.AI.Backend)
	}

	if c.Scoring.ShortAnswerChars <= 0 || c.Scoring.LongAnswerChars <= c.Scoring.ShortAnswerChars {
		return fmt.Errorf("scoring thresholds must satisfy 0 < short < long")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}
