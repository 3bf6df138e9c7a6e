package backend

import (
	"context"
	"fmt"
	"net/http"

	"storefront-checkout/internal/domain"
)

type paymentURLResponse struct {
	URL string `json:"url"`
}

func (c *Client) CreateOrder(ctx context.Context, auth Auth, order domain.Order) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, auth, http.MethodPost, "/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentURL returns the card processor redirect for a created order. An
// empty string means the backend could not start a payment.
func (c *Client) PaymentURL(ctx context.Context, auth Auth, orderID int64) (string, error) {
	var out paymentURLResponse
	path := fmt.Sprintf("/orders/%d/payment-url", orderID)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
