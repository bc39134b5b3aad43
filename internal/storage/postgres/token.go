package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/untyped-clothing/orders/internal/domain/auth"
)

const (
	findTokenByHashSQL = `SELECT id, key_hash, name, role
	FROM admin_tokens WHERE key_hash = $1 AND active`

	upsertTokenSQL = `INSERT INTO admin_tokens (id, key_hash, name, role, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
	key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
	role = EXCLUDED.role, active = TRUE`
)

// ErrTokenNotFound is returned when no active token matches a hash.
var ErrTokenNotFound = errors.New("admin token not found")

var _ auth.Repository = (*TokenRepository)(nil)

// TokenRepository implements auth.Repository backed by PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository that uses the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByHash looks up an active admin token by its HMAC-SHA256 hash.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*auth.TokenInfo, error) {
	var info auth.TokenInfo
	err := r.pool.QueryRow(ctx, findTokenByHashSQL, hash).
		Scan(&info.ID, &info.KeyHash, &info.Name, &info.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("finding admin token: %w", err)
	}
	return &info, nil
}

// Upsert inserts or replaces an admin token row. Used by the seed tool.
func (r *TokenRepository) Upsert(ctx context.Context, info *auth.TokenInfo) error {
	_, err := r.pool.Exec(ctx, upsertTokenSQL, info.ID, info.KeyHash, info.Name, info.Role)
	if err != nil {
		return fmt.Errorf("upserting admin token %q: %w", info.ID, err)
	}
	return nil
}
