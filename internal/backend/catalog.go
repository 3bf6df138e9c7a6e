package backend

import (
	"context"
	"fmt"
	"net/http"

	"storefront-checkout/internal/domain"
)

func (c *Client) CourierConfig(ctx context.Context, auth Auth) (*domain.CourierConfig, error) {
	var out domain.CourierConfig
	if err := c.do(ctx, auth, http.MethodGet, "/config/courier", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentServiceConfig(ctx context.Context, auth Auth) (*domain.PaymentServiceConfig, error) {
	var out domain.PaymentServiceConfig
	if err := c.do(ctx, auth, http.MethodGet, "/config/payment-service", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProductOption(ctx context.Context, auth Auth, id int64) (*domain.ProductOption, error) {
	var out domain.ProductOption
	path := fmt.Sprintf("/product-options/%d", id)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReturn(ctx context.Context, auth Auth, in domain.ReturnRequest) error {
	return c.do(ctx, auth, http.MethodPost, "/returns", in, nil)
}

func (c *Client) CreateInquiry(ctx context.Context, auth Auth, in domain.Inquiry) error {
	return c.do(ctx, auth, http.MethodPost, "/inquiries", in, nil)
}
