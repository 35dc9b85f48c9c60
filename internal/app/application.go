// Package app assembles and runs the service: storage, schedule providers,
// grid cache, session broker, attendance gateway, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Liyanipatel27/attendance-new/internal/api"
	"github.com/Liyanipatel27/attendance-new/internal/attendance"
	"github.com/Liyanipatel27/attendance-new/internal/broker"
	"github.com/Liyanipatel27/attendance-new/internal/cache"
	"github.com/Liyanipatel27/attendance-new/internal/config"
	"github.com/Liyanipatel27/attendance-new/internal/source"
	"github.com/Liyanipatel27/attendance-new/internal/storage"
	"github.com/Liyanipatel27/attendance-new/internal/timetable"
	"github.com/Liyanipatel27/attendance-new/internal/websocket"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
)

// Application coordinates all components. Initialization follows dependency
// order: storage, providers, cache, broker, gateway, API, HTTP.
type Application struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      *storage.Manager
	gridCache  *cache.Cache
	broker     *broker.Broker
	httpServer *http.Server
}

// New wires the application from configuration. The context is used for
// the Sheets client handshake only; it does not bound the app lifetime.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	store, err := storage.NewManager(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	storeProvider := source.NewStoreProvider(store, logger)

	// The sheet mirror is the primary schedule source when configured; the
	// relational store then serves as its fallback. Without sheets the
	// store is the only provider.
	var primary, fallback interfaces.ScheduleSource
	if cfg.Sheets.Enabled {
		svc, err := sheets.NewService(ctx,
			option.WithCredentialsFile(cfg.Sheets.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("initializing sheets client: %w", err)
		}
		primary = source.NewSheetProvider(svc, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetIDs, logger)
		fallback = storeProvider
	} else {
		primary = storeProvider
	}

	gridCache, err := cache.New(primary, fallback, cache.Config{
		MaxAge:          cfg.Cache.MaxAge,
		RefreshInterval: cfg.Cache.RefreshInterval,
		FetchTimeout:    cfg.Cache.FetchTimeout,
		Size:            cfg.Cache.Size,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initializing grid cache: %w", err)
	}

	resolver := timetable.NewResolver(gridCache, cfg.Clock.AfternoonCutoffHour, logger)
	sessionBroker := broker.New(logger)

	var verifier *attendance.Verifier
	if cfg.Verification.Enabled {
		verifier = attendance.NewVerifier(cfg.Verification.URL, cfg.Verification.Timeout, logger)
	}
	gateway := attendance.NewGateway(store, verifier, logger)

	wsHandler := websocket.NewHandler(sessionBroker, logger)
	apiServer := api.NewServer(resolver, gridCache, sessionBroker, gateway, store, wsHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		logger:     logger.With().Str("component", "app").Logger(),
		store:      store,
		gridCache:  gridCache,
		broker:     sessionBroker,
		httpServer: httpServer,
	}, nil
}

// Start launches the background refresh loop and the HTTP listener, and
// returns once the listener is accepting connections.
func (app *Application) Start(ctx context.Context) error {
	if err := app.gridCache.Start(ctx); err != nil {
		return fmt.Errorf("starting cache refresh loop: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.gridCache.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		app.logger.Info().Str("addr", app.httpServer.Addr).Msg("server started")
		return nil
	case <-ctx.Done():
		app.gridCache.Stop()
		return ctx.Err()
	}
}

// Stop shuts the application down in reverse dependency order.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info().Msg("shutting down")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	app.gridCache.Stop()

	if err := app.store.Close(); err != nil {
		app.logger.Error().Err(err).Msg("storage shutdown error")
	}

	app.logger.Info().Msg("shutdown complete")
	return nil
}

// Addr returns the configured listen address.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
