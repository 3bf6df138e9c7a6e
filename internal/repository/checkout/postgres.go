package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, tenantID, sessionID string) ([]byte, error) {
	const q = `
SELECT state::text
FROM checkouts
WHERE tenant_id = $1 AND session_id = $2
`
	var raw string
	if err := r.pool.QueryRow(ctx, q, tenantID, sessionID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(raw), nil
}

func (r *postgresRepo) Save(ctx context.Context, tenantID, sessionID string, state []byte) error {
	const q = `
INSERT INTO checkouts (tenant_id, session_id, state, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (tenant_id, session_id) DO UPDATE
SET state = EXCLUDED.state,
    updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, tenantID, sessionID, string(state))
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, tenantID, sessionID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM checkouts
WHERE tenant_id = $1 AND session_id = $2
`, tenantID, sessionID)
	return err
}
