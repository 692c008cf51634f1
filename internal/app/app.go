package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/auth"
	"github.com/vovakirdan/chatbot-server/internal/config"
	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/friends"
	"github.com/vovakirdan/chatbot-server/internal/service/groups"
	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/service/users"
	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/store/badger"
	"github.com/vovakirdan/chatbot-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatbot-server/internal/transport/http"
)

// App wires together storage, services and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().
		Str("driver", cfg.Store.Driver).
		Str("path", cfg.Store.Path).
		Msg("store initialized")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	services := transporthttp.Services{
		Users:    users.New(st, auth.NewHasher(cfg.Auth.BcryptCost)),
		Friends:  friends.New(st),
		Messages: messages.New(st),
		Groups:   groups.New(st, groups.WithMemberValidation(cfg.Groups.ValidateMembers)),
	}
	server := transporthttp.NewServer(services, *cfg, m, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// Close releases resources without running the server.
func (a *App) Close() {
	a.cleanup()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
	a.store = nil
}

func openStore(cfg config.StoreConfig, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverBadger:
		st, err := badger.New(cfg.Path, logger.With().Str("component", "badger").Logger())
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
