package seed

import (
	"context"
	"fmt"

	"storefront-checkout/internal/domain"
)

type tenantWriter interface {
	Upsert(ctx context.Context, t domain.Tenant) (*domain.Tenant, error)
}

// Demo storefronts for manual testing. localhost shows every optional field;
// the b2b host hides personal ids and offers card payments.
var demoTenants = []domain.Tenant{
	{
		Host:        "localhost",
		Key:         "demo",
		Name:        "Demo Store",
		DefaultLang: "ro",
		Fields:      domain.FieldConfig{},
	},
	{
		Host:        "b2b.localhost",
		Key:         "demo-b2b",
		Name:        "Demo Wholesale",
		DefaultLang: "en",
		Fields: domain.FieldConfig{
			domain.FieldCNP:             false,
			domain.FieldPaymentCard:     true,
			domain.FieldPaymentTransfer: true,
		},
	},
}

// Apply inserts the demo tenants. It is idempotent: existing hosts are
// updated in place.
func Apply(ctx context.Context, tenants tenantWriter) error {
	for _, t := range demoTenants {
		if _, err := tenants.Upsert(ctx, t); err != nil {
			return fmt.Errorf("upsert tenant %s: %w", t.Host, err)
		}
	}
	return nil
}
