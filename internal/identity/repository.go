package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Repository defines persistence operations for service principals.
type Repository interface {
	Create(ctx context.Context, sp ServicePrincipal) error
	FindByKeyID(ctx context.Context, keyID string) (*ServicePrincipal, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, sp ServicePrincipal) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO service_principals (id, name, key_id, secret_hash, roles, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sp.ID, sp.Name, sp.KeyID, sp.SecretHash, sp.Roles, sp.IsActive, sp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: key id already issued", shared.ErrConflictExists)
		}
		return fmt.Errorf("identity: insert principal: %w", err)
	}
	return nil
}

func (r *repository) FindByKeyID(ctx context.Context, keyID string) (*ServicePrincipal, error) {
	var sp ServicePrincipal
	err := r.pool.QueryRow(ctx, `SELECT id, name, key_id, secret_hash, roles, is_active, created_at, last_used_at
FROM service_principals WHERE key_id=$1`, keyID).Scan(
		&sp.ID, &sp.Name, &sp.KeyID, &sp.SecretHash, &sp.Roles, &sp.IsActive, &sp.CreatedAt, &sp.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("identity: find principal: %w", err)
	}
	return &sp, nil
}

func (r *repository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE service_principals SET last_used_at=$2 WHERE id=$1`, id, at)
	return err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE service_principals SET is_active=false WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("identity: deactivate principal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
