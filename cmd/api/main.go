package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/library-backend/internal/api"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/config"
	"github.com/baharkarakas/library-backend/internal/db"
	"github.com/baharkarakas/library-backend/internal/duedate"
	"github.com/baharkarakas/library-backend/internal/logger"
	"github.com/baharkarakas/library-backend/internal/metrics"
	"github.com/baharkarakas/library-backend/internal/notify"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/baharkarakas/library-backend/internal/repository/memory"
	"github.com/baharkarakas/library-backend/internal/repository/postgres"
	"github.com/baharkarakas/library-backend/internal/services"
	"github.com/baharkarakas/library-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("storage", "driver", cfg.Storage, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	notifier, closeNotifier, err := openNotifier(cfg, log)
	if err != nil {
		log.Error("notifier", "kind", cfg.Notifier, "err", err)
		os.Exit(1)
	}
	defer closeNotifier()

	wp := worker.NewPool(cfg.ReminderWorkers)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	userSvc := services.NewUserService(repos.Users, log)
	if err := userSvc.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPhone, cfg.BootstrapAdminPassword); err != nil {
		log.Error("bootstrap admin", "err", err)
		os.Exit(1)
	}

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		Log:       log,
		TM:        tm,
		AuthSvc:   services.NewAuthService(repos.Users, userSvc, tm, cfg.AllowAdminSignup),
		UserSvc:   userSvc,
		BookSvc:   services.NewBookService(repos.Books),
		ReviewSvc: services.NewReviewService(repos),
		AssignmentSvc: services.NewAssignmentService(repos, notifier,
			duedate.New(cfg.Location, cfg.DueSoonDays), wp, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "storage", cfg.Storage, "notifier", cfg.Notifier, "tz", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Repositories, func(), error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), func() {}, nil
	}

	if cfg.Migrate {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return repo.Repositories{}, nil, err
		}
		log.Info("migrations applied")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return repo.Repositories{}, nil, err
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}

func openNotifier(cfg config.Config, log *slog.Logger) (notify.Gateway, func(), error) {
	if cfg.Notifier != "rabbitmq" {
		return notify.LogGateway{Log: log}, func() {}, nil
	}
	g, err := notify.NewRabbitGateway(cfg.RabbitURL, cfg.NotifyExchange, log)
	if err != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}
