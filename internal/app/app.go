package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/coursehub/internal/config"
	"github.com/utafrali/coursehub/internal/credential"
	"github.com/utafrali/coursehub/internal/resource"
	"github.com/utafrali/coursehub/internal/session"
	"github.com/utafrali/coursehub/pkg/database"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/health"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/tracing"
)

const (
	serviceName = "coursehub-client"

	// HealthPath is the backend liveness endpoint, relative to the base URL.
	HealthPath = "health/"

	slowRedisCommand = 100 * time.Millisecond
)

// App wires together all dependencies of the coursehub client.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	shutdownTracer tracing.Shutdown

	store     credential.Store
	transport *httpclient.Client
	session   *session.Client
	health    *health.Registry

	// API is the only surface callers use to talk to the backend.
	API *resource.API
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	// Tracing first so every later component picks up the global provider.
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Insecure = cfg.IsDevelopment()
	tcfg.Enabled = cfg.OTELEnabled
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdown

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.store = store

	hcfg := httpclient.DefaultConfig(cfg.BaseURL)
	hcfg.Timeout = cfg.Timeout
	hcfg.UserAgent = cfg.UserAgent
	hcfg.RateLimitRPS = cfg.RateLimitRPS
	hcfg.RateLimitBurst = cfg.RateLimitBurst
	if cfg.BreakerEnabled {
		cb := httpclient.DefaultCircuitBreakerConfig("coursehub-api")
		hcfg.CircuitBreaker = &cb
	}
	transport, err := httpclient.New(hcfg, store, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create transport: %w", err)
	}
	a.transport = transport

	// The refresher talks to the raw transport: a 401 on the refresh call
	// must never loop back into the coordinator.
	refresher := session.NewHTTPRefresher(transport)
	coord := session.NewCoordinator(store, refresher, cfg.RefreshTimeout, logger)
	a.session = session.NewClient(transport, coord, logger)
	a.API = resource.New(a.session, a.session, store)

	a.health = health.NewRegistry()
	a.health.RegisterCritical("credential_store", store.Ping)
	a.health.RegisterCritical("backend", a.pingBackend)
	a.health.RegisterNonCritical("session", a.checkSession)

	logger.Info("coursehub client initialized",
		slog.String("base_url", transport.BaseURL()),
		slog.String("credential_store", cfg.CredentialStore),
		slog.Bool("circuit_breaker", cfg.BreakerEnabled),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (credential.Store, error) {
	switch a.cfg.CredentialStore {
	case config.StoreRedis:
		rcfg := database.DefaultRedisConfig()
		rcfg.Host = a.cfg.RedisHost
		rcfg.Port = a.cfg.RedisPort
		rcfg.Password = a.cfg.RedisPassword
		rcfg.DB = a.cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		database.SetSlowCommandLogging(slowRedisCommand, a.logger)
		a.logger.Info("connected to Redis",
			slog.String("addr", rcfg.Addr()),
			slog.Int("db", rcfg.DB),
		)
		return credential.NewRedisStore(rdb, a.cfg.KeyPrefix), nil
	case config.StoreFile:
		path := a.cfg.CredentialFile
		if path == "" {
			p, err := credential.DefaultFilePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		store, err := credential.NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("open credential file: %w", err)
		}
		a.logger.Debug("using credential file", slog.String("path", path))
		return store, nil
	default:
		return credential.NewMemoryStore(), nil
	}
}

func (a *App) pingBackend(ctx context.Context) error {
	_, err := a.transport.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   HealthPath,
		NoAuth: true,
	})
	return err
}

func (a *App) checkSession(context.Context) error {
	if a.session.State() == session.StateInvalid {
		return apperrors.ErrSessionInvalid
	}
	return nil
}

// Health runs the readiness checks: store reachability, backend liveness and
// session state.
func (a *App) Health(ctx context.Context) health.Report {
	return a.health.Run(ctx)
}

// Tokens returns the stored pair for diagnostics.
func (a *App) Tokens(ctx context.Context) (credential.Pair, error) {
	return a.store.Tokens(ctx)
}

// SessionState reports the refresh coordinator's state.
func (a *App) SessionState() session.State {
	return a.session.State()
}

// Close releases Redis and flushes pending spans. It is safe on a partially
// built App.
func (a *App) Close() error {
	var errs []error

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.rdb = nil
	}

	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.shutdownTracer = nil
	}

	return errors.Join(errs...)
}
