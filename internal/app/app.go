// Package app wires the ledger services to the backends chosen in config.
package app

import (
	"context"
	"fmt"
	"time"

	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/adapter/events/kafka"
	"github.com/simaogato/ledger-backend/internal/adapter/lock/local"
	redislock "github.com/simaogato/ledger-backend/internal/adapter/lock/redis"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/ledger-backend/internal/backoff"
	"github.com/simaogato/ledger-backend/internal/config"
	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/simaogato/ledger-backend/internal/usecase/dashboard"
	"github.com/simaogato/ledger-backend/internal/usecase/ledger"
	"github.com/simaogato/ledger-backend/internal/usecase/provisioning"
	"github.com/simaogato/ledger-backend/internal/usecase/seeder"
)

// App holds the wired services of one ledgerd process
type App struct {
	Ledger    *ledger.LedgerService
	Dashboard *dashboard.DashboardService
	Accounts  *provisioning.AccountService
	Seeder    *seeder.Seeder
	DB        *postgres.DB // nil for the memory driver
}

type stores struct {
	accounts     domain.AccountStore
	transactions domain.TransactionLog
	directory    domain.Directory
	registry     domain.AccountRegistry
	unitOfWork   domain.UnitOfWork
}

// NewApp connects the configured backends and returns the App with a
// cleanup func that releases them.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to release resource", zap.Error(err))
			}
		}
	}

	a := &App{}

	// 1. Storage
	var st stores
	switch cfg.Database.Driver {
	case "postgres":
		db, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := db.MigrateUp(); err != nil {
				cleanup()
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}
		accounts := postgres.NewAccountRepository(db)
		st = stores{
			accounts:     accounts,
			transactions: postgres.NewTransactionRepository(db),
			directory:    postgres.NewDirectoryRepository(db),
			registry:     accounts,
			unitOfWork:   postgres.NewUnitOfWork(db),
		}
		a.DB = db
	default:
		store := memory.NewStore()
		st = stores{accounts: store, transactions: store, directory: store, registry: store, unitOfWork: store}
	}

	// 2. Account locks
	var locker domain.AccountLocker
	switch cfg.Lock.Backend {
	case "redis":
		client := goredislib.NewClient(&goredislib.Options{
			Addr:     cfg.Lock.Redis.Addr,
			Password: cfg.Lock.Redis.Password,
			DB:       cfg.Lock.Redis.DB,
		})
		closers = append(closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Lock.Redis.Addr, err)
		}
		opts := redislock.DefaultOptions()
		opts.Expiry = cfg.Lock.Redis.Expiry
		opts.Tries = cfg.Lock.Redis.Tries
		opts.RetryDelay = cfg.Lock.Redis.RetryDelay
		locker = redislock.NewLocker(client, opts, logger)
	default:
		locker = local.NewLocker(cfg.Lock.Timeout)
	}

	// 3. Events
	var events domain.EventPublisher = kafka.NoopPublisher{}
	if cfg.Events.Enabled {
		publisher := kafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, kafka.DefaultBreakerConfig(), logger)
		closers = append(closers, publisher.Close)
		events = publisher
	}

	// 4. Services
	a.Ledger = ledger.NewLedgerService(ledger.Dependencies{
		Accounts:     st.accounts,
		Transactions: st.transactions,
		Directory:    st.directory,
		UnitOfWork:   st.unitOfWork,
		Locker:       locker,
		Events:       events,
	},
		ledger.WithLogger(logger),
		ledger.WithRetryPolicy(backoff.Policy{
			MaxAttempts: cfg.Ledger.MaxRetries,
			BaseDelay:   cfg.Ledger.BaseDelay,
			MaxDelay:    cfg.Ledger.MaxDelay,
		}),
		ledger.WithPublishTimeout(cfg.Ledger.PublishTimeout),
	)
	a.Dashboard = dashboard.NewDashboardService(st.accounts, st.transactions, st.directory)
	a.Accounts = provisioning.NewAccountService(st.registry, logger)
	a.Seeder = seeder.NewSeeder(st.directory, a.Accounts, seeder.DefaultAccounts())

	return a, cleanup, nil
}

// connectPolicy spaces out connection attempts while postgres is still
// starting. Any failure to connect is worth another try.
var connectPolicy = backoff.Policy{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    4 * time.Second,
}

// OpenDatabase connects to the configured postgres database
func OpenDatabase(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn is not set")
	}

	var db *postgres.DB
	err := backoff.Retry(ctx, connectPolicy, func(error) bool { return true }, func(int) error {
		var err error
		db, err = postgres.NewDB(cfg.Database.DSN)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
