package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	TransportSignaling = "signaling"
	TransportLiveKit   = "livekit"
)

// Config holds the backend server configuration.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"openconsult"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Empty DatabaseURL selects the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	TransportProvider  string        `env:"TRANSPORT_PROVIDER" envDefault:"signaling"`
	TransportTokenTTL  time.Duration `env:"TRANSPORT_TOKEN_TTL" envDefault:"2h"`
	SignalingSecret    string        `env:"SIGNALING_SECRET"`
	SignalingPublicURL string        `env:"SIGNALING_PUBLIC_URL" envDefault:"ws://localhost:8080/api/v1/ws/signal"`
	LiveKitWsURL       string        `env:"LIVEKIT_WS_URL" envDefault:"ws://localhost:7880"`
	LiveKitAPIKey      string        `env:"LIVEKIT_API_KEY"`
	LiveKitAPISecret   string        `env:"LIVEKIT_API_SECRET"`

	OneSidedWaitTimeout time.Duration `env:"ONE_SIDED_WAIT_TIMEOUT" envDefault:"15m"`
	NoShowTimeout       time.Duration `env:"NO_SHOW_TIMEOUT" envDefault:"30m"`
	ExpiryScanInterval  time.Duration `env:"EXPIRY_SCAN_INTERVAL" envDefault:"1m"`
	RedisURL            string        `env:"REDIS_URL"`

	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.TransportProvider {
	case TransportSignaling:
		if strings.TrimSpace(cfg.SignalingSecret) == "" {
			return nil, fmt.Errorf("SIGNALING_SECRET is required when TRANSPORT_PROVIDER=signaling")
		}
	case TransportLiveKit:
		if strings.TrimSpace(cfg.LiveKitAPIKey) == "" || strings.TrimSpace(cfg.LiveKitAPISecret) == "" {
			return nil, fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required when TRANSPORT_PROVIDER=livekit")
		}
	default:
		return nil, fmt.Errorf("unknown TRANSPORT_PROVIDER %q", cfg.TransportProvider)
	}

	if cfg.ExpiryScanInterval <= 0 {
		return nil, fmt.Errorf("EXPIRY_SCAN_INTERVAL must be positive")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// LoadEnvFiles overlays .env files found next to the working directory.
func LoadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
