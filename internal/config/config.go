package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Chat     ChatConfig     `mapstructure:"chat"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all language-model integration settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// ChatConfig contains tunables for the chat pipeline: the per-user
// request queue and the conversation history window.
type ChatConfig struct {
	// QueueCapacity bounds the number of pending chat requests per user.
	// Requests beyond the bound are rejected immediately.
	QueueCapacity int `mapstructure:"queue_capacity" validate:"required,gt=0"`

	// RequestTimeoutSeconds is how long a caller waits for its queued
	// request to finish before receiving a timeout failure.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`

	// WorkerIdleGraceSeconds is how long an idle per-user worker lingers
	// before being torn down.
	WorkerIdleGraceSeconds int `mapstructure:"worker_idle_grace_seconds" validate:"required,gt=0"`

	// HistoryLimit is the number of trailing messages included as model
	// context.
	HistoryLimit int `mapstructure:"history_limit" validate:"required,gt=0"`
}

// RequestTimeout returns the queue request timeout as a duration.
func (c ChatConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// WorkerIdleGrace returns the idle worker grace period as a duration.
func (c ChatConfig) WorkerIdleGrace() time.Duration {
	return time.Duration(c.WorkerIdleGraceSeconds) * time.Second
}
