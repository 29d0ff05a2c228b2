package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// ClientConfig configures a device-side consultctl process.
type ClientConfig struct {
	APIURL      string `env:"CONSULT_API_URL" envDefault:"http://localhost:8080/api/v1"`
	AccessToken string `env:"CONSULT_ACCESS_TOKEN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PollInterval      time.Duration `env:"CONSULT_POLL_INTERVAL" envDefault:"3s"`
	RequestTimeout    time.Duration `env:"CONSULT_REQUEST_TIMEOUT" envDefault:"10s"`
	RendezvousTimeout time.Duration `env:"CONSULT_RENDEZVOUS_TIMEOUT" envDefault:"0s"`
	EndOnAbandon      bool          `env:"CONSULT_END_ON_ABANDON" envDefault:"true"`
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("CONSULT_API_URL is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("CONSULT_POLL_INTERVAL must be positive")
	}
	return cfg, nil
}
