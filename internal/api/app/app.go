package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpapi "github.com/devasign/devasign/internal/api/http"
	"github.com/devasign/devasign/internal/api/provider"
	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/internal/api/store/drivers/sqlite"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/devasign/devasign/pkg/slogx"
)

// BuildVersion is overridden at link time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application is the wired API process.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db           store.Store
	keys         *jwtx.KeyManager
	housekeeping *service.HousekeepingService
	router       *httpapi.Router
	server       *http.Server
}

// New opens the database, loads the keys and wires every service. Nothing
// listens until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "devasign-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	db, err := openStore(cfg.DatabaseFile)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database ready", "file", cfg.DatabaseFile)

	keys, err := InitAuthKeys(cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	app.keys = keys

	services := app.services(app.githubProvider())
	app.housekeeping = service.NewHousekeepingService(db, app.logger, cfg.HousekeepingInterval)

	app.router = httpapi.NewRouter(httpapi.RouterConfig{
		Keys:          keys,
		Store:         db,
		Logger:        app.logger,
		Version:       BuildVersion,
		Services:      services,
		SecureCookies: cfg.Production(),
	})
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return app, nil
}

// Handler returns the router without starting a listener.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until ctx is cancelled or the listener fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	app.housekeeping.Start()

	listenErr := make(chan error, 1)
	go func() { listenErr <- app.server.ListenAndServe() }()

	app.logger.Info("api listening",
		"addr", app.server.Addr,
		"alg", app.keys.Algorithm(),
		"can_sign", app.keys.CanSign(),
	)

	select {
	case err := <-listenErr:
		shutdownErr := app.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return shutdownErr
		}
		return errors.Join(fmt.Errorf("listen: %w", err), shutdownErr)
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		return app.Shutdown()
	}
}

// Shutdown drains in-flight requests for up to ShutdownGracePeriod, stops
// housekeeping and closes the database.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var errs []error
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Warn("graceful drain incomplete, closing connections", "error", err)
		errs = append(errs, app.server.Close())
	}
	app.housekeeping.Stop()
	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	err := errors.Join(errs...)
	if err == nil {
		app.logger.Info("api stopped")
	}
	return err
}

func openStore(file string) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func (app *Application) githubProvider() provider.IdentityProvider {
	cfg := app.cfg
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		app.logger.Error("GitHub OAuth client is not configured, logins will fail",
			"hint", "set GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET")
	}

	gh := provider.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		CallbackURL:  cfg.GitHubCallbackURL,
		Scopes:       cfg.GitHubScopes,
		APIBaseURL:   cfg.GitHubAPIURL,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.GitHubOAuthURL != "" {
		gh.Endpoint = provider.GitHubEndpointAt(cfg.GitHubOAuthURL)
	}
	return provider.NewGitHub(gh)
}

func (app *Application) services(idp provider.IdentityProvider) httpapi.Services {
	sessions := &service.SessionService{
		Store:      app.db,
		KeyManager: app.keys,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	return httpapi.Services{
		Handshake: &service.HandshakeService{Provider: idp, Store: app.db, Sessions: sessions},
		Sessions:  sessions,
		Users:     &service.UserService{Store: app.db},
		Bounties:  &service.BountyService{Store: app.db},
		Messages:  &service.MessageService{Store: app.db},
		Workflow:  &service.WorkflowService{Store: app.db},
	}
}
