package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"storefront-checkout/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Customer domain.Customer `json:"customer"`
	Token    string          `json:"token"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// CreateCustomer registers a guest profile, or an account when Password is set.
func (c *Client) CreateCustomer(ctx context.Context, auth Auth, customer domain.Customer) (*domain.Customer, error) {
	var out domain.Customer
	if err := c.do(ctx, auth, http.MethodPost, "/customers", customer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, auth Auth, customer domain.Customer) (*domain.Customer, error) {
	var out domain.Customer
	path := fmt.Sprintf("/customers/%d", customer.ID)
	if err := c.do(ctx, auth, http.MethodPut, path, customer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EmailExists(ctx context.Context, auth Auth, email string) (bool, error) {
	var out existsResponse
	path := "/customers/exists?email=" + url.QueryEscape(email)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// Login exchanges credentials for the customer profile and a session token.
func (c *Client) Login(ctx context.Context, auth Auth, email, password string) (*domain.Customer, string, error) {
	var out loginResponse
	if err := c.do(ctx, auth, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, "", err
	}
	if out.Token == "" {
		return nil, "", fmt.Errorf("login: backend returned no token")
	}
	return &out.Customer, out.Token, nil
}
