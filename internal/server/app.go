package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"task-manager/server/internal/cache"
	"task-manager/server/internal/config"
	"task-manager/server/internal/database"
	"task-manager/server/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// Run opens the database (and Redis when enabled), serves HTTP and blocks
// until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg *config.Config) error {
	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		return err
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(cache.CacheConfigFromConfig(cfg))
		defer redisCache.Close()
		if err := redisCache.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.GetRedisAddr()).Msg("redis unreachable at startup")
		}
	}

	app := New(cfg, pool.DB, redisCache)
	app.monitor.RegisterHealthCheck("database", pool.HealthCheck)
	app.monitor.RegisterStats("database", func() interface{} { return pool.Stats() })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Worker.Enabled && redisCache != nil {
		stop, err := app.startBackground(ctx, redisCache.Client())
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      app.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// startBackground runs the reminder worker pool and the overdue sweep. The
// returned func stops both.
func (a *App) startBackground(ctx context.Context, client *redis.Client) (func(), error) {
	queues := a.cfg.Worker.Queues
	target := "reminders"
	if len(queues) > 0 {
		target = queues[0]
	}

	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  client,
		PollInterval: a.cfg.Worker.PollInterval,
		Queues:       queues,
	})
	w.RegisterHandler(worker.JobTypeOverdueReminder, worker.LogOverdueReminder)

	scheduler, err := worker.NewReminderScheduler(a.tasks, worker.NewJobQueue(client), target, a.cfg.Worker.ReminderSchedule)
	if err != nil {
		return nil, err
	}

	w.Start(ctx, a.cfg.Worker.Concurrency)
	scheduler.Start()

	return func() {
		scheduler.Stop()
		w.Stop()
	}, nil
}
