package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"equipviz/backend/services/dashboard/internal/auth"
	"equipviz/backend/services/dashboard/internal/clients"
	"equipviz/backend/services/dashboard/internal/config"
	"equipviz/backend/services/dashboard/internal/export"
	httpserver "equipviz/backend/services/dashboard/internal/http"
	"equipviz/backend/services/dashboard/internal/http/handlers"
	"equipviz/backend/services/dashboard/internal/http/middleware"
	"equipviz/backend/services/dashboard/internal/metrics"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/registry"
	"equipviz/backend/services/dashboard/internal/session"
	"equipviz/backend/services/dashboard/internal/upload"
	"equipviz/backend/services/dashboard/internal/viz"
	"equipviz/backend/services/dashboard/internal/ws"
)

// App wires dashboard dependencies.
type App struct {
	server      *httpserver.Server
	handler     http.Handler
	session     *session.Coordinator
	notifier    *notify.Controller
	manager     *ws.Manager
	unsubscribe func()
	logger      *zap.Logger
}

// Option adjusts the application graph.
type Option func(*options)

type options struct {
	fs afero.Fs
}

// WithFs stores downloaded reports on fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.New()
	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())

	provider, err := newAuthProvider(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}
	base := clients.NewBaseClient(cfg.BackendURL(), httpClient,
		clients.WithAuthorizer(provider),
		clients.WithRecorder(m),
	)

	notifier := notify.New(cfg.Notifications.TTL, logger.Named("notify"))
	uploads := upload.NewController(clients.NewUploadClient(base), notifier, logger.Named("upload"))
	saver := export.NewFileSaver(o.fs, cfg.Downloads.Dir)
	exporter := export.NewController(clients.NewReportsClient(base), saver, notifier, logger.Named("export"))
	reg := registry.New(clients.NewDatasetsClient(base), logger.Named("registry"))

	coord := session.New(reg, exporter, notifier, logger.Named("session"),
		session.WithSampleSize(cfg.Charts.TrendSample),
	)
	coord.AttachUploads(uploads)
	uploads.OnUploaded(coord.OnUploaded)
	uploads.OnChange(coord.Publish)
	notifier.OnChange(func(*notify.Notification) { coord.Publish() })

	manager := ws.NewManager(cfg.WS.PingInterval, m.SetLiveClients)
	unsubscribe := coord.Subscribe(func(v session.View) {
		if err := manager.BroadcastMessage(ws.TypeView, v); err != nil {
			logger.Warn("view broadcast failed", zap.Error(err))
		}
	})
	dispatcher := ws.NewDispatcher(coord, uploads, notifier, logger.Named("ws"))
	wsServer := ws.NewServer(manager, dispatcher, func() interface{} { return coord.Snapshot() }, 0, logger.Named("ws"))

	router := httpserver.NewRouter(httpserver.RouterDeps{
		DashboardHandlers: handlers.NewDashboardHandlers(coord, notifier, manager, logger),
		UploadHandler:     handlers.NewUploadHandler(uploads, logger),
		FilesHandlers:     handlers.NewFilesHandlers(coord, viz.NewRenderer(0, 0), saver, logger),
		PageHandler:       handlers.NewPageHandler(coord, logger),
		HealthHandler:     handlers.NewHealthHandler(),
		WSHandler:         wsServer.HandleWS,
		MetricsHandler:    m.Handler(),
	})

	middlewares := []func(http.Handler) http.Handler{
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, m),
	}
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger, middlewares...)

	return &App{
		server:      server,
		handler:     middleware.Chain(router, middlewares...),
		session:     coord,
		notifier:    notifier,
		manager:     manager,
		unsubscribe: unsubscribe,
		logger:      logger,
	}, nil
}

func newAuthProvider(cfg *config.Config, client auth.HTTPDoer, logger *zap.Logger) (auth.Provider, error) {
	switch cfg.Auth.Mode {
	case config.AuthBasic:
		return auth.NewBasic(cfg.Auth.Username, cfg.Auth.Password)
	case config.AuthToken:
		return auth.NewTokenProvider(cfg.TokenURL(), cfg.Auth.Username, cfg.Auth.Password, client, logger.Named("auth"))
	case config.AuthNone, "":
		return auth.None{}, nil
	default:
		return nil, fmt.Errorf("app: unknown auth mode %q", cfg.Auth.Mode)
	}
}

// Handler returns the HTTP handler with middleware applied.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts serving HTTP traffic on the configured address.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, a.server.Run)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	return a.run(ctx, func(ctx context.Context) error {
		return a.server.Serve(ctx, ln)
	})
}

func (a *App) run(ctx context.Context, serve func(context.Context) error) error {
	go a.notifier.Start()
	defer a.notifier.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A backend that is down at startup is reported to the user, not fatal.
		if err := a.session.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("initial dataset load failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		a.manager.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return serve(gctx)
	})
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
