package sqlite

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teamlens/teamlens/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLite struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  squirrel.StatementBuilderType
}

// NewDB opens (or creates) the database file, applies pending migrations
// and returns the handle. SQLite is limited to a single writer, so the
// pool is capped at one connection.
func NewDB(cfg config.SQLite, log *slog.Logger) (*SQLite, error) {
	dsn := cfg.Path + "?_busy_timeout=5000&_foreign_keys=on"

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(1)

	s := &SQLite{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := s.Migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate applies the embedded migrations. Running it against an
// up-to-date database is a no-op.
func (s *SQLite) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("can't load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("can't init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("can't init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("can't apply migrations: %w", err)
	}

	return nil
}

func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
