package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/config"
	"github.com/preetsinghmakkar/OpenConsult/internal/handlers"
	"github.com/preetsinghmakkar/OpenConsult/internal/lock"
	"github.com/preetsinghmakkar/OpenConsult/internal/logger"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
	"github.com/preetsinghmakkar/OpenConsult/internal/observability"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
	"github.com/preetsinghmakkar/OpenConsult/internal/server"
	"github.com/preetsinghmakkar/OpenConsult/internal/services"
	"github.com/preetsinghmakkar/OpenConsult/internal/transport"
	ws "github.com/preetsinghmakkar/OpenConsult/internal/websocket"
)

type Application struct {
	cfg        *config.Config
	log        zerolog.Logger
	httpServer *server.HTTPServer
	sweeper    *services.ExpirySweeper
	db         *sql.DB
	locker     *lock.RedisLocker
	telemetry  observability.Shutdown
}

func (app *Application) Start(ctx context.Context) error {
	app.sweeper.Start(ctx)
	app.log.Info().Str("address", app.cfg.Addr()).Msg("server listening")
	return app.httpServer.Run(ctx)
}

func (app *Application) Stop() {
	app.sweeper.Stop()

	if app.locker != nil {
		if err := app.locker.Close(); err != nil {
			app.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.log.Warn().Err(err).Msg("failed to close database")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.telemetry(ctx); err != nil {
		app.log.Warn().Err(err).Msg("failed to flush traces")
	}
}

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("openconsult", "unknown", "info")
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.ServiceName, cfg.Environment, cfg.LogLevel)
	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("transport_provider", cfg.TransportProvider).
		Bool("postgres", cfg.DatabaseURL != "").
		Bool("redis", cfg.RedisURL != "").
		Msg("starting consultation service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := CreateApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create application")
	}
	defer app.Stop()

	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

// CreateApplication wires storage, transport, services and the HTTP surface.
func CreateApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	telemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg, log: log, telemetry: telemetry}

	var (
		requests repositories.RequestStore
		meetings repositories.MeetingStore
		ready    server.ReadinessCheck
	)
	if cfg.DatabaseURL != "" {
		db, err := repositories.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		requests = repositories.NewRequestRepository(db)
		meetings = repositories.NewMeetingRepository(db)
		ready = db.PingContext
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		store := repositories.NewMemoryStore(log)
		requests = store.Requests()
		meetings = store.Meetings()
	}

	var (
		issuer   transport.Issuer
		verifier middlewares.SignalingVerifier
	)
	switch cfg.TransportProvider {
	case config.TransportLiveKit:
		issuer = transport.NewLiveKitIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitWsURL, cfg.TransportTokenTTL)
	default:
		signaling := transport.NewSignalingIssuer(cfg.SignalingSecret, cfg.SignalingPublicURL, cfg.TransportTokenTTL)
		issuer = signaling
		verifier = signaling
	}

	var locker services.Locker
	if cfg.RedisURL != "" {
		redisLocker, err := lock.NewRedisLocker(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		app.locker = redisLocker
		locker = redisLocker
	}

	requestService := services.NewRequestService(requests, log)
	meetingService := services.NewMeetingService(meetings, issuer, cfg.TransportProvider, log)
	app.sweeper = services.NewExpirySweeper(
		meetings,
		services.ExpiryPolicy{OneSidedWait: cfg.OneSidedWaitTimeout, NoShow: cfg.NoShowTimeout},
		locker,
		cfg.ExpiryScanInterval,
		log,
	)

	var signalingHandler *handlers.SignalingHandler
	if verifier != nil {
		signalingHandler = handlers.NewSignalingHandler(ws.NewHub(log), log)
	}

	app.httpServer = server.New(cfg, log, server.Deps{
		RequestHandler:   handlers.NewRequestHandler(requestService, log),
		MeetingHandler:   handlers.NewMeetingHandler(meetingService, log),
		SignalingHandler: signalingHandler,
		Verifier:         verifier,
		Meetings:         meetings,
		Ready:            ready,
	})
	return app, nil
}
