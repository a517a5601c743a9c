package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"alwahis/config"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the repositories use, so
// the same repo code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresDB,
	)

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err := runMigrations(url, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Postgres connected")

	return &Store{
		pool: pool,
		db:   pool,
		log:  log,
	}, nil
}

func runMigrations(url string, log logger.ILogger) error {
	cwd, _ := os.Getwd()
	mPath := filepath.Join(cwd, "migrations")

	if _, err := os.Stat(filepath.Join(cwd, "migrations", "postgres")); err == nil {
		mPath = filepath.Join(cwd, "migrations", "postgres")
	}

	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Error("migration init error or no migrations found", logger.Error(err))
		return nil
	}
	defer m.Close()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	return nil
}

func (s *Store) Close() {
	if s.inTx {
		return
	}
	s.pool.Close()
}

func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithTx runs fn inside a single READ COMMITTED transaction. Nested calls
// reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		s.log.Error("failed to begin transaction", logger.Error(err))
		return &models.StorageError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&Store{pool: s.pool, db: tx, inTx: true, log: s.log}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.log.Error("failed to commit transaction", logger.Error(err))
		return &models.StorageError{Op: "commit tx", Err: err}
	}
	return nil
}

func (s *Store) User() storage.IUserStorage       { return NewUserRepo(s.db, s.log) }
func (s *Store) Car() storage.ICarStorage         { return NewCarRepo(s.db, s.log) }
func (s *Store) Ride() storage.IRideStorage       { return NewRideRepo(s.db, s.log) }
func (s *Store) Request() storage.IRequestStorage { return NewRequestRepo(s.db, s.log) }
func (s *Store) Booking() storage.IBookingStorage { return NewBookingRepo(s.db, s.log) }
func (s *Store) Stats() storage.IStatsStorage     { return NewStatsRepo(s.db, s.log) }

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// mapErr converts a driver error into the engine's taxonomy. Missing rows and
// dangling references become ErrNotFound, everything else is opaque.
func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return &models.StorageError{Op: op, Err: err}
}
