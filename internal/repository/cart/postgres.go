package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, tenantID, sessionID, currency string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (tenant_id, session_id, currency)
VALUES ($1, $2, $3)
ON CONFLICT (tenant_id, session_id) DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q, tenantID, sessionID, currency); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, sessionID)
}

func (r *postgresRepo) Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id::text, tenant_id::text, session_id, currency, created_at
FROM carts
WHERE tenant_id = $1 AND session_id = $2
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, tenantID, sessionID).Scan(
		&cart.ID,
		&cart.TenantID,
		&cart.SessionID,
		&cart.Currency,
		&cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_option_id, name, quantity, price::text, discount::text, vat::text, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line                 domain.CartLine
			price, discount, vat string
		)
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductOptionID,
			&line.Name,
			&line.Quantity,
			&price,
			&discount,
			&vat,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		if line.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if line.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, err
		}
		if line.VAT, err = decimal.NewFromString(vat); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddLine adds quantity to the line of the same product option, or inserts a
// new line. Price data of an existing line is refreshed.
func (r *postgresRepo) AddLine(ctx context.Context, cartID string, in LineInput) error {
	const q = `
INSERT INTO cart_lines (cart_id, product_option_id, name, quantity, price, discount, vat)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric)
ON CONFLICT (cart_id, product_option_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity,
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    discount = EXCLUDED.discount,
    vat = EXCLUDED.vat
`
	_, err := r.pool.Exec(ctx, q, cartID, in.ProductOptionID, in.Name, in.Quantity, in.Price, in.Discount, in.VAT)
	return err
}

func (r *postgresRepo) ChangeLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveLine(ctx, cartID, lineID)
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`, quantity, lineID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_lines
WHERE id = $1 AND cart_id = $2
`, lineID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete drops the session cart and its lines.
func (r *postgresRepo) Delete(ctx context.Context, tenantID, sessionID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM carts
WHERE tenant_id = $1 AND session_id = $2
`, tenantID, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
