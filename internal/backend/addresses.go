package backend

import (
	"context"
	"fmt"
	"net/http"

	"storefront-checkout/internal/domain"
)

// ListAddresses returns the signed-in customer's address pairs.
func (c *Client) ListAddresses(ctx context.Context, auth Auth) ([]domain.CustomerAddress, error) {
	var out []domain.CustomerAddress
	if err := c.do(ctx, auth, http.MethodGet, "/customers/me/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGuestAddresses returns the address pairs of a guest profile.
func (c *Client) ListGuestAddresses(ctx context.Context, auth Auth, customerID int64) ([]domain.CustomerAddress, error) {
	var out []domain.CustomerAddress
	path := fmt.Sprintf("/customers/temp/%d/addresses", customerID)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAddress(ctx context.Context, auth Auth, customerID int64, pair domain.CustomerAddress) (*domain.CustomerAddress, error) {
	var out domain.CustomerAddress
	path := fmt.Sprintf("/customers/%d/addresses", customerID)
	if err := c.do(ctx, auth, http.MethodPost, path, pair, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBillingAddress(ctx context.Context, auth Auth, customerID int64, billing domain.BillingAddress) (*domain.CustomerAddress, error) {
	var out domain.CustomerAddress
	path := fmt.Sprintf("/customers/%d/addresses/billing", customerID)
	if err := c.do(ctx, auth, http.MethodPut, path, billing, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateShippingAddress may answer with an empty body; the returned pair is
// then nil.
func (c *Client) UpdateShippingAddress(ctx context.Context, auth Auth, customerID int64, shipping domain.ShippingAddress) (*domain.CustomerAddress, error) {
	var out *domain.CustomerAddress
	path := fmt.Sprintf("/customers/%d/addresses/shipping", customerID)
	if err := c.do(ctx, auth, http.MethodPut, path, shipping, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteBillingAddress(ctx context.Context, auth Auth, customerID, billingID int64) error {
	path := fmt.Sprintf("/customers/%d/addresses/billing/%d", customerID, billingID)
	return c.do(ctx, auth, http.MethodDelete, path, nil, nil)
}

func (c *Client) DeleteShippingAddress(ctx context.Context, auth Auth, customerID, shippingID int64) error {
	path := fmt.Sprintf("/customers/%d/addresses/shipping/%d", customerID, shippingID)
	return c.do(ctx, auth, http.MethodDelete, path, nil, nil)
}
