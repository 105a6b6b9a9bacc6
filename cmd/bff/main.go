package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/piar/backoffice/internal/api"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
	"github.com/piar/backoffice/internal/core/service"
	"github.com/piar/backoffice/internal/infrastructure/config"
	"github.com/piar/backoffice/internal/infrastructure/db/memory"
	"github.com/piar/backoffice/internal/infrastructure/db/mongo"
	"github.com/piar/backoffice/internal/infrastructure/db/postgres"
	"github.com/piar/backoffice/internal/infrastructure/db/redis"
	"github.com/piar/backoffice/internal/infrastructure/http/handlers"
	"github.com/piar/backoffice/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           Backoffice BFF API
// @version         1.0
// @description     Authentication and account administration for the backoffice.
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bff: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBFF(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  config.IsDevelopment(cfg.Env),
		Service: "bff",
	})

	checks := map[string]handlers.Check{}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	repo, err := openAccountStore(ctx, cfg, log, checks, &closers)
	if err != nil {
		return err
	}

	tokenOpts := []service.TokenOption{service.WithIssuer(cfg.JWT.Issuer), service.WithTokenLogger(logger.Component("tokens"))}
	if cfg.Denylist {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = client.Close() })
		checks["redis"] = redis.Ping(client)
		tokenOpts = append(tokenOpts, service.WithDenylist(redis.NewTokenDenylist(client)))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	}

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, tokenOpts...)
	authService := service.NewAuthService(repo, tokens, cfg.BcryptCost, logger.Component("auth"))

	if cfg.Seed.Enabled() {
		admin, err := authService.EnsureAccount(ctx, cfg.Seed.AccountCode, cfg.Seed.Email, cfg.Seed.Password, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info().Str("account_id", admin.ID).Str("account_code", admin.AccountCode).Msg("bootstrap admin ready")
	}

	e := api.NewRouter(api.Deps{
		Log:         log,
		AuthService: authService,
		Tokens:      tokens,
		Checks:      checks,
		Registerer:  prometheus.DefaultRegisterer,
		Gatherer:    prometheus.DefaultGatherer,
		Swagger:     true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.AccountStore).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openAccountStore connects the configured account backend and registers its
// readiness check and cleanup.
func openAccountStore(ctx context.Context, cfg *config.BFF, log zerolog.Logger, checks map[string]handlers.Check, closers *[]func()) (ports.AccountRepository, error) {
	switch cfg.AccountStore {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "backoffice-bff"})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = client.Disconnect(context.Background()) })
		checks["mongo"] = mongo.Ping(client)

		repo := mongo.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo account store ready")
		return repo, nil

	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = db.Close() })
		checks["postgres"] = db.PingContext

		repo := postgres.NewAccountRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Info().Msg("postgres account store ready")
		return repo, nil

	default:
		log.Warn().Msg("using in-memory account store; accounts are lost on restart")
		return memory.NewAccountRepository(), nil
	}
}
