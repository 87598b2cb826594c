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

	"github.com/geocoder89/reviewhub/internal/account"
	"github.com/geocoder89/reviewhub/internal/auth"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/credentials"
	"github.com/geocoder89/reviewhub/internal/db"
	httpx "github.com/geocoder89/reviewhub/internal/http"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/onetime"
	"github.com/geocoder89/reviewhub/internal/security"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracer(sctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store setup failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	notifier, notifierPing, closeNotifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		log.Error("notifier setup failed", "backend", cfg.Notifier, "err", err)
		os.Exit(1)
	}
	defer closeNotifier()

	dispatcher := notifications.NewDispatcher(notifier, notifications.DispatcherConfig{
		QueueSize:   cfg.DispatchQueueSize,
		Workers:     cfg.DispatchWorkers,
		SendTimeout: cfg.NotifierTimeout,
	}, log, prom)

	hasher := security.NewHasher(security.DefaultCost)
	creds := credentials.NewStore(st.users, hasher)
	otps := onetime.NewStore(onetime.EmailVerification(cfg.VerificationTokenTTL), st.tokens, hasher)
	resets := onetime.NewStore(onetime.PasswordReset(cfg.ResetTokenTTL), st.tokens, hasher)
	jwt := auth.NewManager(cfg.SigningSecret())

	seedCtx, cancelSeed := config.WithTimeout(ctx, 5*time.Second)
	if err := db.EnsureAdminUser(seedCtx, creds, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	cancelSeed()

	accounts := account.NewService(account.Deps{
		Credentials: creds,
		OTPs:        otps,
		Resets:      resets,
		Tokens:      jwt,
		Mail:        dispatcher,
		Templates: notifications.Templates{
			FromVerification: cfg.MailFromVerification,
			FromSecurity:     cfg.MailFromSecurity,
			ResetURL:         cfg.ResetPasswordURL,
		},
		Log:       log,
		OTPLength: cfg.OTPLength,
	})

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go onetime.NewReaper(cfg.ReaperInterval, log, otps, resets).Run(reaperCtx)

	checks := st.checks
	if notifierPing != nil {
		if checks == nil {
			checks = map[string]handlers.Pinger{}
		}
		checks["redis"] = notifierPing
	}

	router := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Log:      log,
		Accounts: accounts,
		Auth:     middlewares.NewAuthMiddleware(jwt, creds),
		Prom:     prom,
		Checks:   checks,
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

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "notifier", cfg.Notifier)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	stopReaper()

	// let queued mail go out before the notifier closes
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn("notification queue not drained", "err", err)
	}

	log.Info("shutdown complete")
}
