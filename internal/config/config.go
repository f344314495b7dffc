package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/playmatatu/arcade/internal/game"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; session records are skipped when empty)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (optional; registry and event fan-out are skipped when empty)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret         string
	PlayerTokenTTLMin int

	// Game Settings
	CourtWidth         float64
	CourtHeight        float64
	BallSpeed          float64
	InitialScore       int
	FrameRate          int
	InputQueueSize     int
	SessionIdleMinutes int
	ExpiryCheckSeconds int

	Log LogConfig
}

// LogConfig configures internal/logger.
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // console, json
	Output     string // stdout, file, both
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnv("APP_ENV", "development")
	defaultFormat := "console"
	if env == "production" {
		defaultFormat = "json"
	}

	return &Config{
		// Environment
		Environment: env,

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "6969"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:6969"),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		PlayerTokenTTLMin: getEnvInt("PLAYER_TOKEN_TTL_MINUTES", 120),

		// Game Settings
		CourtWidth:         getEnvFloat("COURT_WIDTH", game.CourtWidth),
		CourtHeight:        getEnvFloat("COURT_HEIGHT", game.CourtHeight),
		BallSpeed:          getEnvFloat("BALL_SPEED", game.DefaultSpeed),
		InitialScore:       getEnvInt("INITIAL_SCORE", game.InitialScore),
		FrameRate:          getEnvInt("FRAME_RATE", game.DefaultFrameRate),
		InputQueueSize:     getEnvInt("INPUT_QUEUE_SIZE", 64),
		SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", 10),
		ExpiryCheckSeconds: getEnvInt("EXPIRY_CHECK_SECONDS", 30),

		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", defaultFormat),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Dir:        getEnv("LOG_DIR", "logs"),
			Filename:   getEnv("LOG_FILE", "arcade.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			Compress:   getEnv("LOG_COMPRESS", "true") == "true",
		},
	}
}

// Court returns the configured court rectangle.
func (c *Config) Court() game.Constraints {
	return game.NewCourt(c.CourtWidth, c.CourtHeight)
}

// GameOptions returns simulation options with the configured overrides.
func (c *Config) GameOptions() game.Options {
	opts := game.DefaultOptions()
	opts.Speed = c.BallSpeed
	opts.InitialScore = c.InitialScore
	return opts
}

func (c *Config) PlayerTokenTTL() time.Duration {
	return time.Duration(c.PlayerTokenTTLMin) * time.Minute
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) ExpiryCheckInterval() time.Duration {
	return time.Duration(c.ExpiryCheckSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
