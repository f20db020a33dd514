package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/wordbattle-backend/internal/auth"
	"github.com/DoyleJ11/wordbattle-backend/internal/catalog"
	"github.com/DoyleJ11/wordbattle-backend/internal/config"
	"github.com/DoyleJ11/wordbattle-backend/internal/httpapi"
	"github.com/DoyleJ11/wordbattle-backend/internal/hub"
	"github.com/DoyleJ11/wordbattle-backend/internal/store"
	"github.com/DoyleJ11/wordbattle-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	st := store.New(db, logger, store.DefaultRewards())
	defer func() { err = multierr.Append(err, st.Close()) }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if cfg.SeedLevels {
		if err := st.SeedLevels(ctx, catalog.Starter()); err != nil {
			return err
		}
	}

	clock := clockwork.NewRealClock()
	h := hub.NewHub(context.Background(), hub.Config{
		Clock:        clock,
		Catalog:      st,
		Recorder:     st,
		Rules:        cfg.Rules,
		ChallengeTTL: cfg.ChallengeTTL,
		Logger:       logger,
	})

	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return err
	}
	if _, err := h.ScheduleMaintenance(sched, cfg.MaintenanceInterval); err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			n, err := st.DeleteExpiredSessions(ctx, clock.Now())
			if err != nil {
				logger.Warn("expired session cleanup", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
		}),
		gocron.WithName("delete-expired-sessions"),
	); err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:      h,
			Records:  st,
			Verifier: auth.NewStoreVerifier(st, clock),
			WS: ws.Options{
				OriginPatterns: cfg.AllowedOrigins,
				Logger:         logger,
			},
			Logger: logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, srv.Shutdown(sctx))
		errs = multierr.Append(errs, sched.Shutdown())
		h.Send(hub.ShutdownHub{})
		select {
		case <-h.Done():
		case <-sctx.Done():
			errs = multierr.Append(errs, sctx.Err())
		}
		return errs
	})
	return g.Wait()
}
