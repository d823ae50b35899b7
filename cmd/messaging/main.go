package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/LeventeLantos/scheduled-messaging/internal/api"
	"github.com/LeventeLantos/scheduled-messaging/internal/client"
	"github.com/LeventeLantos/scheduled-messaging/internal/config"
	"github.com/LeventeLantos/scheduled-messaging/internal/directory"
	"github.com/LeventeLantos/scheduled-messaging/internal/notify"
	"github.com/LeventeLantos/scheduled-messaging/internal/repo"
	"github.com/LeventeLantos/scheduled-messaging/internal/scheduler"
	"github.com/LeventeLantos/scheduled-messaging/internal/service"
	"github.com/LeventeLantos/scheduled-messaging/internal/typing"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAll()
	if err != nil {
		return err
	}

	slog.Info("scheduled-messaging starting",
		"addr", cfg.Server.Address,
		"dispatch_interval", cfg.Dispatch.Interval.String(),
		"send_pause", cfg.Dispatch.SendPause.String(),
		"redis", cfg.Redis.Enabled,
	)

	db, err := openDB(cfg.Database.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()

	scheduleRepo := repo.NewPostgresScheduleRepo(db)
	favoritesRepo := repo.NewPostgresFavoritesRepo(db)

	notifier := notify.New()
	gateway := client.NewGatewayClient(cfg.Gateway.URL, cfg.Gateway.SendTimeout)

	var dir directory.Lister = gateway
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		dir = directory.NewCachedDirectory(gateway, rdb, cfg.Redis.DirectoryTTL)
	}

	delays := typing.New(nil)
	batches := service.NewBatchScheduler(scheduleRepo, delays.Delay, notifier)
	dispatcher := service.NewDispatcher(scheduleRepo, gateway, notifier, cfg.Gateway.SendTimeout, cfg.Dispatch.SendPause)

	loop, err := scheduler.New(cfg.Dispatch.Interval, dispatcher.Tick)
	if err != nil {
		return err
	}
	loop.Start()
	defer loop.Stop()

	handler := api.NewHandler(loop, scheduleRepo, favoritesRepo, batches, dir, notifier)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openDB(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
