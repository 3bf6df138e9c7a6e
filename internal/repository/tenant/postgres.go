package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// GetByHost resolves the storefront serving a hostname. Ports are ignored.
func (r *postgresRepo) GetByHost(ctx context.Context, host string) (*domain.Tenant, error) {
	const q = `
SELECT id::text, host, key, name, default_lang, field_config, created_at
FROM tenants
WHERE host = $1
`
	var t domain.Tenant
	err := r.pool.QueryRow(ctx, q, NormalizeHost(host)).Scan(
		&t.ID, &t.Host, &t.Key, &t.Name, &t.DefaultLang, &t.Fields, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if t.Fields == nil {
		t.Fields = domain.FieldConfig{}
	}
	return &t, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, t domain.Tenant) (*domain.Tenant, error) {
	const q = `
INSERT INTO tenants (host, key, name, default_lang, field_config)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (host) DO UPDATE
SET key = EXCLUDED.key,
    name = EXCLUDED.name,
    default_lang = EXCLUDED.default_lang,
    field_config = tenants.field_config || EXCLUDED.field_config
RETURNING id::text, field_config, created_at
`
	if t.Fields == nil {
		t.Fields = domain.FieldConfig{}
	}
	if t.DefaultLang == "" {
		t.DefaultLang = "ro"
	}
	out := t
	out.Host = NormalizeHost(t.Host)
	err := r.pool.QueryRow(ctx, q, out.Host, t.Key, t.Name, t.DefaultLang, t.Fields).Scan(&out.ID, &out.Fields, &out.CreatedAt)
	if err != nil {
		// the key belongs to another host
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &out, nil
}

// SetField switches one optional form field on or off for a tenant.
func (r *postgresRepo) SetField(ctx context.Context, host, field string, enabled bool) error {
	const q = `
UPDATE tenants
SET field_config = jsonb_set(field_config, ARRAY[$2::text], to_jsonb($3::boolean), true)
WHERE host = $1
`
	cmd, err := r.pool.Exec(ctx, q, NormalizeHost(host), field, enabled)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NormalizeHost lower-cases a Host header value and strips the port.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end > 0 {
			return host[1:end]
		}
	}
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host[:i], ":") {
		return host[:i]
	}
	return host
}
