package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/dbguard/internal/api"
	"github.com/vietddude/dbguard/internal/core/config"
	"github.com/vietddude/dbguard/internal/core/resilience"
	"github.com/vietddude/dbguard/internal/core/scouting"
	"github.com/vietddude/dbguard/internal/core/worker"
	"github.com/vietddude/dbguard/internal/health"
	redisclient "github.com/vietddude/dbguard/internal/infra/redis"
	"github.com/vietddude/dbguard/internal/infra/storage"
	"github.com/vietddude/dbguard/internal/infra/storage/memory"
	"github.com/vietddude/dbguard/internal/infra/storage/postgres"
)

// App is the main application struct that wires stores, executors and servers.
type App struct {
	cfg          config.AppConfig
	exec         *resilience.Executor
	cacheExec    *resilience.Executor
	service      *scouting.Service
	healthMon    *health.Monitor
	healthServer *health.Server
	grpcServer   *health.GRPCServer
	pruner       *worker.Pruner
	store        *memory.MemoryStorage
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates a new App with all dependencies initialized. Without a
// database URL the in-memory store is used.
func NewApp(ctx context.Context, cfg config.AppConfig) (*App, error) {
	a := &App{cfg: cfg, log: slog.Default()}

	execOpts := []resilience.Option{
		resilience.WithLogger(a.log),
		resilience.WithOperationTimeout(cfg.Retry.OperationTimeout),
		resilience.WithHealthTimeout(cfg.Retry.HealthTimeout),
	}

	// 1. Initialize Storage
	var (
		players storage.PlayerRepository
		scouts  storage.ScoutRepository
		prober  resilience.Prober
	)
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db

		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to migrate db: %w", err)
			}
		}

		players = postgres.NewPlayerRepo(db)
		scouts = postgres.NewScoutRepo(db)
		prober = db
		a.exec = resilience.New(cfg.Retry.Policy(), postgres.NewClassifier(),
			append(execOpts, resilience.WithProber(prober))...)
	} else {
		a.log.Warn("No database configured, using in-memory storage")
		a.store = memory.NewMemoryStorage()
		players = memory.NewPlayerRepo(a.store)
		scouts = memory.NewScoutRepo(a.store)
		prober = a.store
		a.exec = resilience.New(cfg.Retry.Policy(), nil,
			append(execOpts, resilience.WithProber(prober))...)
	}

	probes := []health.Probe{{Name: "database", Prober: prober, Critical: true}}

	// 2. Initialize Snapshot Cache
	var snapshots storage.SnapshotStore
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.closeStores()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redisClient = client
		cacheOpts := append(execOpts,
			resilience.WithOperationTimeout(cfg.Redis.Timeout),
			resilience.WithProber(client),
		)
		a.cacheExec = resilience.New(cfg.CachePolicy(), redisclient.NewClassifier(), cacheOpts...)
		snapshots = redisclient.NewSnapshotStore(client, cfg.Redis.SnapshotTTL, a.cacheExec)
		probes = append(probes, health.Probe{Name: "cache", Prober: client})
	} else {
		local := memory.NewSnapshotStore()
		snapshots = local
		a.pruner = worker.NewPruner(local, cfg.Redis.SnapshotTTL)
	}

	// 3. Service and servers
	a.service = scouting.NewService(players, scouts, snapshots, a.exec)
	a.healthMon = health.NewMonitor(a.exec, probes...)
	a.healthServer = health.NewServer(a.healthMon, a.exec, cfg.Server.Port)
	routes := api.NewHandler(a.service)
	for _, prefix := range []string{"/players", "/players/", "/scouts", "/scouts/"} {
		a.healthServer.Mount(prefix, routes)
	}
	if cfg.Server.GRPCPort > 0 {
		a.grpcServer = health.NewGRPCServer(a.healthMon, cfg.Server.GRPCPort, cfg.Server.HealthInterval)
	}

	return a, nil
}

// Service returns the scouting service.
func (a *App) Service() *scouting.Service {
	return a.service
}

// Executor returns the database executor.
func (a *App) Executor() *resilience.Executor {
	return a.exec
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.healthServer.Handler()
}

// Start starts the servers and background workers.
func (a *App) Start(ctx context.Context) error {
	// Start HTTP Server
	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	// Start gRPC Health Server
	if a.grpcServer != nil {
		go func() {
			if err := a.grpcServer.Start(ctx); err != nil {
				a.log.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start DB Metrics Collector
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	// Start Snapshot Pruner
	if a.pruner != nil {
		go a.pruner.Start(ctx)
	}

	a.log.Info("Service started",
		"port", a.cfg.Server.Port,
		"grpc_port", a.cfg.Server.GRPCPort,
		"postgres", a.db != nil,
		"redis", a.redisClient != nil,
	)
	return nil
}

// Stop stops the servers and closes the stores.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping service...")

	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	a.closeStores()

	a.log.Info("Service stopped")
	return errors.Join(errs...)
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
