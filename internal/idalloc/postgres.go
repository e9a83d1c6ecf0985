package idalloc

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// SequenceName is the sequence created by the bundled migrations.
const SequenceName = "invoice_id_seq"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the bundled schema migrations to databaseURL.
func Migrate(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// PGSequence allocates ids from a Postgres sequence. nextval is atomic across
// every process sharing the database.
type PGSequence struct {
	pool *pgxpool.Pool
	name string
}

// NewPGSequence allocates from the named sequence (SequenceName if empty).
func NewPGSequence(pool *pgxpool.Pool, name string) *PGSequence {
	if name == "" {
		name = SequenceName
	}
	return &PGSequence{pool: pool, name: name}
}

// Connect opens a pool on databaseURL and returns the default sequence
// allocator. The caller closes the pool.
func Connect(ctx context.Context, databaseURL string) (*PGSequence, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPGSequence(pool, SequenceName), pool, nil
}

// Next returns the next sequence value.
func (s *PGSequence) Next(ctx context.Context) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, "SELECT nextval($1::regclass)", s.name).Scan(&id); err != nil {
		return 0, fmt.Errorf("nextval %s: %w", s.name, err)
	}
	return id, nil
}
