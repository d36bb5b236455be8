package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed sql/*.up.sql
var migrationFiles embed.FS

type PostgresStore struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewPostgresStore opens the database, pings it and applies pending migrations.
func NewPostgresStore(ctx context.Context, databaseURL string, clock clockwork.Clock, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{db: db, clock: orRealClock(clock), logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            name       TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := migrationFiles.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		s.logger.Info("Applied migration", zap.String("name", strings.TrimSuffix(name, ".up.sql")))
	}
	return nil
}

func (s *PostgresStore) SaveSearch(ctx context.Context, city, userID string) (*models.SavedSearch, error) {
	search, err := newSearch(s.clock, city, userID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (id, city, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		search.ID, search.City, search.UserID, search.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting search: %w", err)
	}
	return search, nil
}

// CountSearches returns how many rows exist for userID.
func (s *PostgresStore) CountSearches(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM searches WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}
