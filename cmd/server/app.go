// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/vidstream/internal/analytics"
	"github.com/tomtom215/vidstream/internal/api"
	"github.com/tomtom215/vidstream/internal/auth"
	"github.com/tomtom215/vidstream/internal/cache"
	"github.com/tomtom215/vidstream/internal/config"
	"github.com/tomtom215/vidstream/internal/database"
	"github.com/tomtom215/vidstream/internal/events"
	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/media"
	"github.com/tomtom215/vidstream/internal/supervisor"
	"github.com/tomtom215/vidstream/internal/supervisor/services"
	"github.com/tomtom215/vidstream/internal/users"
	"github.com/tomtom215/vidstream/internal/videos"
)

// app holds every long-lived component. Fields for disabled features
// stay nil.
type app struct {
	cfg *config.Config

	db         *database.DB
	cacheStore *cache.Store
	media      *media.BreakerHost
	natsServer *events.EmbeddedServer
	publisher  *events.Publisher
	sink       events.Sink

	server *http.Server
}

// newApp builds the component graph in dependency order. On error,
// everything opened so far is closed.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, sink: events.NoopPublisher{}}
	built := false
	defer func() {
		if !built {
			a.close()
		}
	}()

	var err error
	a.db, err = database.New(&cfg.Database, cfg.Analytics.ConflictRetries)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logging.Info().Str("driver", a.db.Driver()).Msg("Database initialized")

	a.cacheStore, err = cache.Open(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	dir := cache.NewDirectory(a.cacheStore, a.db, a.db)

	a.media, err = media.New(ctx, cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("media host: %w", err)
	}
	logging.Info().Str("backend", a.media.Backend()).Msg("Media host ready")

	if err := a.initEvents(ctx); err != nil {
		return nil, err
	}

	authMW, err := newAuthMiddleware(cfg)
	if err != nil {
		return nil, err
	}

	// Existence checks before a view is counted read the database, not the
	// cache: a cached row can outlive its delete by up to the TTL.
	analyticsSvc := analytics.NewService(a.db, a.db, a.db,
		analytics.WithNotifier(a.sink),
		analytics.WithStoreTimeout(cfg.Analytics.StoreTimeout))

	handler := api.NewHandler(api.Dependencies{
		Config:       cfg,
		Version:      version,
		Analytics:    analyticsSvc,
		Users:        users.NewService(a.db, dir, dir, a.sink),
		Videos:       videos.NewService(a.db, dir, a.media, a.sink),
		DB:           a.db,
		Events:       a.sink,
		Media:        a.media,
		CacheEnabled: a.cacheStore != nil,
	})

	chiCfg := api.DefaultChiMiddlewareConfig()
	chiCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins

	var opts []api.RouterOption
	if a.media.Backend() == config.MediaBackendLocal {
		opts = append(opts, api.WithMediaDir(cfg.Media.LocalDir))
	}
	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(chiCfg), opts...)

	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	built = true
	return a, nil
}

// initEvents starts the embedded NATS server when asked to and connects
// the publisher. With NATS disabled the sink stays a no-op.
func (a *app) initEvents(ctx context.Context) error {
	cfg := a.cfg.NATS
	if !cfg.Enabled {
		logging.Info().Msg("Event publishing disabled (NATS_ENABLED=false)")
		return nil
	}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort, cfg.StoreDir)
		if err != nil {
			return fmt.Errorf("embedded NATS server: %w", err)
		}
		a.natsServer = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pub, err := events.NewNATSPublisher(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("event publisher: %w", err)
	}
	a.publisher = pub
	a.sink = pub
	return nil
}

func newAuthMiddleware(cfg *config.Config) (*auth.Middleware, error) {
	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		return nil, err
	}

	var jwtManager *auth.JWTManager
	switch mode {
	case auth.AuthModeJWT:
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("jwt manager: %w", err)
		}
		logging.Info().Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  The caller is whoever the X-User-ID header claims to be.")
		logging.Warn().Msg("  Use only for local development and tests.")
		logging.Warn().Msg("============================================================")
	}
	return auth.NewMiddleware(jwtManager, mode), nil
}

// supervise places the runtime services in the tree.
func (a *app) supervise(tree *supervisor.SupervisorTree) {
	if a.natsServer != nil {
		tree.AddDataService(services.NewEmbeddedNATSService(a.natsServer, a.cfg.Server.ShutdownTimeout))
	}
	if a.cacheStore != nil && !a.cfg.Cache.InMemory {
		tree.AddDataService(services.NewCacheGCService(a.cacheStore, 0))
	}
	if a.publisher != nil {
		tree.AddMessagingService(services.NewPublisherService(a.publisher))
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
}

// close releases what the tree does not own. It tolerates a partially
// built app.
func (a *app) close() {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.natsServer != nil && a.natsServer.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		errs = append(errs, a.natsServer.Shutdown(ctx))
		cancel()
	}
	if a.cacheStore != nil {
		errs = append(errs, a.cacheStore.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error releasing resources")
	}
}
