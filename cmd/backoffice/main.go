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
	"golang.org/x/sync/errgroup"

	"github.com/piar/backoffice/internal/core/ports"
	"github.com/piar/backoffice/internal/infrastructure/authclient"
	"github.com/piar/backoffice/internal/infrastructure/config"
	"github.com/piar/backoffice/internal/infrastructure/db/memory"
	"github.com/piar/backoffice/internal/infrastructure/db/redis"
	"github.com/piar/backoffice/internal/infrastructure/http/handlers"
	"github.com/piar/backoffice/internal/web"
	"github.com/piar/backoffice/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backoffice: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBackoffice(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  config.IsDevelopment(cfg.Env),
		Service: "backoffice",
	})

	checks := map[string]handlers.Check{}

	var sessions ports.WebSessionStore
	if cfg.SessionStore == config.StoreRedis {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		checks["redis"] = redis.Ping(client)
		sessions = redis.NewSessionStore(client)
	} else {
		log.Warn().Msg("web sessions are kept in memory and lost on restart")
		sessions = memory.NewSessionStore()
	}

	auth, err := authclient.New(authclient.Config{BaseURL: cfg.BFFURL, Timeout: cfg.BFFTimeout, Log: logger.Component("authclient")})
	if err != nil {
		return err
	}

	e := web.NewRouter(web.Deps{
		Log:      log,
		Auth:     auth,
		Sessions: sessions,
		Locales:  web.NewLocales(cfg.Locales, cfg.DefaultLocale, cfg.LocaleCookie),
		Cookies: web.Cookies{
			Session: cfg.SessionCookie,
			Locale:  cfg.LocaleCookie,
			Secure:  cfg.CookieSecure,
		},
		SessionTTL: cfg.SessionTTL,
		Checks:     checks,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("bff", cfg.BFFURL).Msg("server starting")
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
