package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a compare-and-swap update matched no row.
	ErrConflict = errors.New("record changed concurrently")
	// ErrForeignKey means an insert referenced a row that does not exist.
	ErrForeignKey = errors.New("foreign key violation")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// UnitOfWork exposes repositories bound to one transaction.
type UnitOfWork interface {
	Bookings() BookingRepository
	Approvals() ApprovalRepository
	Activities() ActivityRepository
	Users() UserRepository
	Vehicles() VehicleRepository
	Drivers() DriverRepository
}

// Transactor runs fn inside a transaction. The transaction commits only when
// fn returns nil and is rolled back on every other exit path, panics included.
type Transactor interface {
	WithTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) WithTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Pool-backed repositories for reads outside a transaction.
func (s *PGStore) Reader() UnitOfWork {
	return NewUnitOfWork(s.pool)
}

type pgUnit struct {
	db DBTX
}

func NewUnitOfWork(db DBTX) UnitOfWork {
	return &pgUnit{db: db}
}

func (u *pgUnit) Bookings() BookingRepository   { return NewBookingRepository(u.db) }
func (u *pgUnit) Approvals() ApprovalRepository { return NewApprovalRepository(u.db) }
func (u *pgUnit) Activities() ActivityRepository {
	return NewActivityRepository(u.db)
}
func (u *pgUnit) Users() UserRepository       { return NewUserRepository(u.db) }
func (u *pgUnit) Vehicles() VehicleRepository { return NewVehicleRepository(u.db) }
func (u *pgUnit) Drivers() DriverRepository   { return NewDriverRepository(u.db) }

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func translateWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
	}
	return err
}

var _ Transactor = (*PGStore)(nil)
