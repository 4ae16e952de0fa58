package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planbridge/domain"
	"github.com/fastygo/planbridge/internal/config"
	"github.com/fastygo/planbridge/internal/infrastructure/monitor"
	"github.com/fastygo/planbridge/internal/infrastructure/osascript"
	redisinfra "github.com/fastygo/planbridge/internal/infrastructure/redis"
	"github.com/fastygo/planbridge/internal/infrastructure/snapshot"
	"github.com/fastygo/planbridge/internal/services"
	"github.com/fastygo/planbridge/internal/services/lifecycle"
	"github.com/fastygo/planbridge/pkg/logger"
	redisrepo "github.com/fastygo/planbridge/repository/redis"
	"github.com/fastygo/planbridge/usecase/project"
)

// runtime is the wired object graph commands work with.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	projects  *project.Service
	cleaner   services.SnapshotCleaner
	monitor   *monitor.Monitor
	lifecycle *lifecycle.Manager
}

type runtimeFactory func(ctx context.Context, opts globalOptions) (*runtime, error)

func buildRuntime(ctx context.Context, opts globalOptions) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.cache != "" {
		cfg.Cache.Backend = strings.ToLower(opts.cache)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.verbose {
		cfg.Logger.Level = "debug"
	}

	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	life := lifecycle.New(cfg.Context.ShutdownTimeout, log)
	life.Register("logger", func(context.Context) error {
		// stderr cannot be synced on every platform
		_ = log.Sync()
		return nil
	})

	runner := osascript.New(cfg.Host, log)
	var (
		projectOpts []project.Option
		monitorOpts []monitor.Option
		cleaner     services.SnapshotCleaner
	)
	switch cfg.Cache.Backend {
	case config.CacheBolt:
		store, err := snapshot.Open(cfg.Cache.BoltPath, cfg.Cache.Bucket)
		if err != nil {
			_ = life.Shutdown(ctx)
			return nil, fmt.Errorf("open snapshot store %s: %w", cfg.Cache.BoltPath, err)
		}
		life.Register("snapshot store", store.Shutdown)
		projectOpts = append(projectOpts, project.WithSnapshots(store, cfg.Cache.TTL))
		cleaner = store
		monitorOpts = append(monitorOpts, monitor.WithStore(store))
	case config.CacheRedis:
		client, err := redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = life.Shutdown(ctx)
			return nil, err
		}
		life.RegisterCloser("redis", client)
		repo := redisrepo.NewSnapshotRepository(client, cfg.Redis.KeyPrefix, cfg.Cache.TTL)
		projectOpts = append(projectOpts, project.WithSnapshots(repo, cfg.Cache.TTL))
		monitorOpts = append(monitorOpts, monitor.WithRedis(client))
	}

	log.Debug("runtime ready",
		zap.String("cache", cfg.Cache.Backend),
		zap.String("osascript", cfg.Host.OsascriptPath))

	projects := project.New(runner, runner, log, projectOpts...)
	return &runtime{
		cfg:       cfg,
		logger:    log,
		projects:  projects,
		cleaner:   cleaner,
		monitor:   monitor.New(projects, log, monitorOpts...),
		lifecycle: life,
	}, nil
}

// commandContext bounds a single command by the configured timeout.
func (rt *runtime) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.cfg.Context.CommandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rt.cfg.Context.CommandTimeout)
}

// open resolves the document named by the --doc flag, falling back to the
// front window. Snapshots are used when caching is enabled.
func (a *app) open(ctx context.Context, rt *runtime) (*domain.Document, error) {
	if a.opts.document != "" {
		return rt.projects.Open(ctx, a.opts.document)
	}
	return rt.projects.OpenFrontmost(ctx)
}

// openLive is like open but always loads from the host, so edits start
// from current data.
func (a *app) openLive(ctx context.Context, rt *runtime) (*domain.Document, error) {
	name := a.opts.document
	if name == "" {
		var err error
		if name, err = rt.projects.NthDocumentName(ctx, 1); err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("front window: %w", domain.ErrDocumentNotOpen)
		}
	}
	return rt.projects.Refresh(ctx, name)
}
