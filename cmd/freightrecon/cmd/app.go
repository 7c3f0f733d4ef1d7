package cmd

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"freight-reconciliation-service/cmd/freightrecon/config"
	"freight-reconciliation-service/internal/extraction"
	"freight-reconciliation-service/internal/lock"
	"freight-reconciliation-service/internal/queue"
	"freight-reconciliation-service/internal/reconciler"
	"freight-reconciliation-service/internal/reporter"
	"freight-reconciliation-service/internal/repository"
	"freight-reconciliation-service/pkg/logger"
)

// app bundles the wired components a command needs.
type app struct {
	cfg          *config.Config
	repo         repository.Repository
	queue        queue.Queue
	orchestrator *reconciler.Orchestrator
	pipeline     *reconciler.Pipeline
	log          logger.Logger

	redisClient *redis.Client
}

// buildApp wires storage, locking, queueing, and the reconciler from the
// configuration. Redis-backed components are used when enabled; otherwise
// in-process equivalents serve a single-process run.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.GetGlobalLogger()

	repo, err := repository.NewSQLite(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	a := &app{cfg: cfg, repo: repo, log: log}

	var locker lock.Locker
	if cfg.Redis.Enabled {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		locker = lock.NewRedisLocker(a.redisClient, cfg.Worker.LockTTL)
		a.queue = queue.NewRedisQueue(a.redisClient, cfg.Redis.QueueKey)
	} else {
		locker = lock.NewMutexLocker()
		a.queue = queue.NewMemoryQueue(0)
	}

	a.orchestrator = reconciler.NewOrchestrator(repo, locker, log, nil)

	fallback := extraction.NewFallbackProvider(log)
	var provider extraction.Provider = fallback
	if cfg.Extraction.FixtureDir != "" {
		provider = extraction.NewFixtureProvider(cfg.Extraction.FixtureDir, fallback)
	}
	a.pipeline = reconciler.NewPipeline(a.orchestrator, provider, nil, a.queue, log)

	return a, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.queue.Close()
	if a.redisClient != nil {
		a.redisClient.Close()
	}
	if err := a.repo.Close(); err != nil {
		a.log.WithError(err).Warn("closing repository failed")
	}
}

// newReporter builds a reporter for the configured output format.
func (a *app) newReporter() (*reporter.Reporter, error) {
	return reporter.New(os.Stdout, reporter.OutputFormat(a.cfg.OutputFormat))
}
