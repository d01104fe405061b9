package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/virtuline/accounthub/internal/accounts"
	"github.com/virtuline/accounthub/internal/auth"
	"github.com/virtuline/accounthub/internal/config"
	"github.com/virtuline/accounthub/internal/db"
	httpx "github.com/virtuline/accounthub/internal/http"
	"github.com/virtuline/accounthub/internal/mailer"
	"github.com/virtuline/accounthub/internal/observability"
	"github.com/virtuline/accounthub/internal/redisclient"
	"github.com/virtuline/accounthub/internal/repo/memory"
	"github.com/virtuline/accounthub/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in: only start the exporter when an endpoint is set
	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)

		shutdownTracer, err := observability.InitTracer(ctx, "accounthub", cfg.OTLPEndpoint)

		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// account store: postgres when DB_HOST is configured, memory otherwise
	var store accounts.Store
	ping := func() error { return nil }

	if cfg.DBURL != "" {
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		store = postgres.NewAccountsRepo(pool, prom)

		ping = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(ctx)
		}
	} else {
		log.Warn("DB_HOST not set, using in-memory account store")
		store = memory.NewAccountsRepo()
	}

	// redis backs the session denylist
	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	{
		ctx, cancel := config.WithTimeout(2 * time.Second)

		err := rdb.Ping(ctx)

		cancel()

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
	}

	sessions := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL, rdb)

	// outbound mail, wrapped in the breaker and metrics
	var sender mailer.Mailer

	if cfg.MailDriver == "smtp" {
		sender = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.BaseURL, log)
	} else {
		sender = mailer.NewLogMailer()
	}

	sender = mailer.NewProtectedMailer(sender, mailer.ProtectedMailerConfig{})
	sender = mailer.NewMeteredMailer(sender, prom)

	svc := accounts.NewService(store, sender, sessions, log)

	router := httpx.NewRouter(cfg, httpx.RouterDeps{
		Log:      log,
		Accounts: svc,
		Sessions: sessions,
		Prom:     prom,
		PingDB:   ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
