package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/kkkkikiki/crowdfund/internal/config"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB holds the ledger database connection
type DB struct {
	Ledger *sqlx.DB
}

// NewDB connects to the configured ledger database and applies migrations
func NewDB(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch cfg.Database.Driver {
	case DriverPostgres:
		db, err = openPostgres(ctx, &cfg.Database)
	case DriverSQLite:
		db, err = OpenSQLite(ctx, cfg.Database.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to ledger database")
	return db, nil
}

func openPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	postgres, err := sqlx.Connect(DriverPostgres, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	postgres.SetMaxOpenConns(cfg.MaxConns)
	postgres.SetMaxIdleConns(cfg.MinConns)
	postgres.SetConnMaxLifetime(time.Hour)

	if err := postgres.PingContext(ctx); err != nil {
		_ = postgres.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	if err := Migrate(ctx, postgres); err != nil {
		_ = postgres.Close()
		return nil, err
	}

	return &DB{Ledger: postgres}, nil
}

// OpenSQLite opens a file-backed SQLite ledger and applies migrations. The
// pool is limited to one connection so instructions execute one at a time.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlite, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlite.SetMaxOpenConns(1)

	if err := Migrate(ctx, sqlite); err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	return &DB{Ledger: sqlite}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if err := db.Ledger.Close(); err != nil {
		return fmt.Errorf("failed to close ledger database: %w", err)
	}

	return nil
}
