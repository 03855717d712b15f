// Package postgres implements the domain repositories on PostgreSQL
// via pgx. Repositories carry an optional transaction; inside WithTx
// every call runs on the same pgx.Tx, which is what makes the
// SELECT ... FOR UPDATE row locks effective.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Participation() *ParticipationRepository {
	return &ParticipationRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Organizations() *OrganizationRepository {
	return &OrganizationRepository{pool: r.pool, tx: r.tx}
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type ParticipationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type OrganizationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
