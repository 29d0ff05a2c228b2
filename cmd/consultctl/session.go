package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/client"
	"github.com/preetsinghmakkar/OpenConsult/internal/config"
	"github.com/preetsinghmakkar/OpenConsult/internal/logger"
	"github.com/preetsinghmakkar/OpenConsult/internal/mediatransport"
	"github.com/preetsinghmakkar/OpenConsult/internal/orchestrator"
	"github.com/preetsinghmakkar/OpenConsult/internal/utils"
)

// session is the per-invocation client state shared by the subcommands.
type session struct {
	cfg      *config.ClientConfig
	log      zerolog.Logger
	api      *client.Client
	orch     *orchestrator.Orchestrator
	timezone string
	printed  <-chan struct{}
}

func newSession(cmd *cobra.Command) (*session, error) {
	config.LoadEnvFiles()
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("CONSULT_ACCESS_TOKEN is required")
	}

	claims, err := utils.PeekAccessClaims(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}

	log := logger.NewWithWriter(os.Stderr, "consultctl", "client", cfg.LogLevel)
	api := client.New(cfg.APIURL, cfg.AccessToken, cfg.RequestTimeout, log)
	orch, err := orchestrator.New(claims.Role, api, mediatransport.NewRouter(log), orchestrator.Options{
		PollInterval:      cfg.PollInterval,
		RendezvousTimeout: cfg.RendezvousTimeout,
		EndOnAbandon:      cfg.EndOnAbandon,
		RequestTimeout:    cfg.RequestTimeout,
	}, log)
	if err != nil {
		return nil, err
	}

	timezone, _ := cmd.Flags().GetString("timezone")
	return &session{cfg: cfg, log: log, api: api, orch: orch, timezone: timezone}, nil
}

func (s *session) Close() {
	s.orch.Close()
	if s.printed != nil {
		<-s.printed
	}
}

// printEvents writes orchestrator events to stdout until the session closes.
func (s *session) printEvents() {
	done := make(chan struct{})
	s.printed = done
	events := s.orch.Subscribe()
	go func() {
		defer close(done)
		for event := range events {
			if event.Message == "" {
				continue
			}
			fmt.Printf("[%s] %s\n", event.Phase, event.Message)
		}
	}()
}

func (s *session) formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	formatted, err := utils.FormatTimeInTimezone(*t, s.timezone)
	if err != nil {
		return t.UTC().Format(time.RFC3339)
	}
	return formatted
}

func (s *session) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// userError keeps backend payloads out of the terminal.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", apperrors.UserMessage(err))
}
