package cart

import (
	"context"

	"storefront-checkout/internal/domain"
)

// LineInput is a product option priced by the catalog at add time.
type LineInput struct {
	ProductOptionID int64
	Name            string
	Quantity        int
	Price           string
	Discount        string
	VAT             string
}

type Repository interface {
	// GetOrCreate returns the cart of a browser session, creating an empty one.
	GetOrCreate(ctx context.Context, tenantID, sessionID, currency string) (*domain.Cart, error)
	Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, in LineInput) error
	ChangeLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}
