package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Meta      MetaConfig      `yaml:"meta"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Clerk     ClerkConfig     `yaml:"clerk"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL settings. An empty DSN runs the server
// against the in-memory store (development only).
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// MetaConfig holds the webhook verification token and Graph API endpoint.
type MetaConfig struct {
	VerifyToken  string `yaml:"verify_token"   env:"META_VERIFY_TOKEN"`
	GraphBaseURL string `yaml:"graph_base_url" env:"META_GRAPH_BASE_URL" env-default:"https://graph.facebook.com"`
	GraphVersion string `yaml:"graph_version"  env:"META_GRAPH_VERSION"  env-default:"v22.0"`
}

// AnthropicConfig holds the language model settings for the sentiment
// classifier and reply generator.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"    env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model"      env:"ANTHROPIC_MODEL"      env-default:"claude-3-5-haiku-latest"`
	MaxTokens int64  `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"1024"`
}

// ClerkConfig holds identity provider settings for the dashboard API.
type ClerkConfig struct {
	FrontendAPI   string `yaml:"frontend_api"   env:"CLERK_FRONTEND_API"`
	AllowedOrigin string `yaml:"allowed_origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
}

// DispatchConfig tunes the reply scheduler.
type DispatchConfig struct {
	Workers       int           `yaml:"workers"        env:"DISPATCH_WORKERS"        env-default:"4"`
	QueueSize     int           `yaml:"queue_size"     env:"DISPATCH_QUEUE_SIZE"     env-default:"256"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"DISPATCH_SWEEP_INTERVAL" env-default:"5s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The YAML file path comes from
// CONFIG_PATH (fallback "./config.yaml"); a missing default file is fine,
// a missing explicit one is not.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	return &cfg, nil
}
