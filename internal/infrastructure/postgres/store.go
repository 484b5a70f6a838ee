package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both *sql.DB and *sql.Tx so repositories run
// unchanged inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the pgx-backed storage.Store. Transactions run at
// serializable isolation; serialization failures surface as
// storage.ErrConflict so callers can retry the whole unit.
type Store struct {
	db *sql.DB
	q  querier
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return &Store{db: db, q: db}, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Migrate applies the embedded schema. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Catalog() catalog.Repository { return &catalogRepo{q: s.q} }
func (s *Store) Orders() order.Repository { return &orderRepo{q: s.q} }
func (s *Store) Payments() payment.Repository { return &paymentRepo{q: s.q} }
func (s *Store) Notifications() notification.Repository { return &notificationRepo{q: s.q} }

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return translateConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return translateConflict(fmt.Errorf("postgres: commit: %w", err))
	}
	return nil
}

// translateConflict maps serialization failures and deadlocks to the
// retryable storage.ErrConflict.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return storage.ErrConflict
		}
	}
	return err
}
