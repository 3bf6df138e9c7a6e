package tenant

import (
	"context"

	"storefront-checkout/internal/domain"
)

type Repository interface {
	GetByHost(ctx context.Context, host string) (*domain.Tenant, error)
	Upsert(ctx context.Context, t domain.Tenant) (*domain.Tenant, error)
	SetField(ctx context.Context, host, field string, enabled bool) error
}
