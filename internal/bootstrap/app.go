package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/pii"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/router"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/statsd"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/orchestrator"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/queries"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/service"
)

// App holds the wired ETL runtime and the connections it owns.
type App struct {
	Config       config.AppConfig
	Logger       *slog.Logger
	Router       *router.Router
	ETL          *service.ETLService
	Orchestrator *orchestrator.Orchestrator
	Runs         *data.RunRepo
	Metrics      *statsd.Client

	warehouse *sql.DB
	source    *sql.DB
	redis     redis.UniversalClient
	locker    *data.RedisRunLocker
}

// Connections are the external handles App wires together. Source may equal Warehouse.
type Connections struct {
	Warehouse *sql.DB               // Required
	Source    *sql.DB               // Required
	Redis     redis.UniversalClient // Optional: runs are not locked when nil
}

// Probe is a named connectivity check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewApp connects to the warehouse, the source database and Redis (when enabled) and wires the ETL service.
func NewApp(cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	conns, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	app, err := Wire(cfg, conns, logger)
	if err != nil {
		return nil, errors.Join(err, conns.Close())
	}
	return app, nil
}

// Connect opens the connections described by cfg. On failure every opened handle is closed.
func Connect(cfg config.AppConfig, logger *slog.Logger) (Connections, error) {
	var conns Connections
	if logger == nil {
		logger = slog.Default()
	}

	warehouse, err := ConnectDB(DatabaseConfig{DBConfig: cfg.Warehouse, Logger: logger, Label: "warehouse"})
	if err != nil {
		return conns, fmt.Errorf("connect warehouse: %w", err)
	}
	conns.Warehouse = warehouse

	if cfg.Source.IsFallback() {
		logger.Warn("SOURCE_DATABASE_URL not set; extracting from the warehouse database")
		conns.Source = warehouse
	} else {
		source, srcErr := ConnectDB(DatabaseConfig{DBConfig: cfg.Source, Logger: logger, Label: "source"})
		if srcErr != nil {
			return conns, errors.Join(fmt.Errorf("connect source: %w", srcErr), conns.Close())
		}
		conns.Source = source
	}

	if cfg.Redis.Enabled {
		client, redisErr := ConnectRedis(DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if redisErr != nil {
			return conns, errors.Join(fmt.Errorf("connect redis: %w", redisErr), conns.Close())
		}
		conns.Redis = client
	}

	return conns, nil
}

// Close releases every handle once; a source that aliases the warehouse is closed with it.
func (c Connections) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Source != nil && c.Source != c.Warehouse {
		errs = append(errs, c.Source.Close())
	}
	if c.Warehouse != nil {
		errs = append(errs, c.Warehouse.Close())
	}
	return errors.Join(errs...)
}

// Wire builds the ETL runtime on top of conns without touching the network.
func Wire(cfg config.AppConfig, conns Connections, logger *slog.Logger) (*App, error) {
	if conns.Warehouse == nil || conns.Source == nil {
		return nil, errors.New("warehouse and source connections are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := queries.Load()
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}

	tokenizer, err := pii.NewTokenizer(cfg.PII.TokenizationSalt)
	if err != nil {
		return nil, fmt.Errorf("build tokenizer: %w", err)
	}

	for _, warning := range cfg.Flags.Warnings() {
		logger.Warn(warning)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Router:    router.New(registry),
		Runs:      data.NewRunRepo(conns.Warehouse),
		Metrics:   buildMetrics(cfg, logger),
		warehouse: conns.Warehouse,
		source:    conns.Source,
		redis:     conns.Redis,
	}

	ports := service.ETLPorts{
		Router: app.Router,
		Executor: data.NewQueryExecutor(data.QueryExecutorOptions{
			DB:      conns.Source,
			Timeout: cfg.ETL.QueryTimeout,
			Logger:  logger,
		}),
		Loader: data.NewWarehouseLoader(data.WarehouseLoaderOptions{
			DB:        conns.Warehouse,
			BatchSize: cfg.ETL.BatchSize,
			Logger:    logger,
		}),
		Runs:  app.Runs,
		Clock: data.RealTimeProvider{},
	}
	if conns.Redis != nil {
		app.locker = data.NewRedisRunLocker(conns.Redis)
		ports.Locker = app.locker
	}

	observers := service.ETLObservers{Logger: logger, Metrics: app.Metrics}
	if notifier := buildFailureNotifier(cfg.Observability.Notifications, logger); notifier != nil {
		observers.Notifier = notifier
	}

	app.ETL = service.NewETLService(service.ETLServiceOptions{
		Ports: ports,
		Settings: service.ETLSettings{
			Flags:     cfg.Flags.Set(),
			Tokenizer: tokenizer,
			LockTTL:   cfg.ETL.LockTTL,
			Metadata:  map[string]string{"environment": cfg.Environment},
		},
		Observers: observers,
	})
	app.Orchestrator = orchestrator.New(orchestrator.Options{Runner: app.ETL, Logger: logger})

	return app, nil
}

// Probes returns connectivity checks for every configured dependency.
func (a *App) Probes() []Probe {
	probes := []Probe{{Name: "warehouse", Check: a.warehouse.PingContext}}
	if a.source != a.warehouse {
		probes = append(probes, Probe{Name: "source", Check: a.source.PingContext})
	}
	if a.locker != nil {
		probes = append(probes, Probe{Name: "redis", Check: a.locker.Health})
	}
	return probes
}

// Close flushes metrics and closes every connection.
func (a *App) Close() error {
	var errs []error
	if a.Metrics != nil {
		errs = append(errs, a.Metrics.Close())
	}
	conns := Connections{Warehouse: a.warehouse, Source: a.source, Redis: a.redis}
	errs = append(errs, conns.Close())
	return errors.Join(errs...)
}
