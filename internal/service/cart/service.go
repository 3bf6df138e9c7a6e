package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"
)

const defaultCurrency = "RON"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidOption   = errors.New("product option id required")
	ErrOutOfStock      = errors.New("product option out of stock")
)

type Service struct {
	repo    cartRepo
	catalog catalog
}

type cartRepo interface {
	GetOrCreate(ctx context.Context, tenantID, sessionID, currency string) (*domain.Cart, error)
	Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, in cartrepo.LineInput) error
	ChangeLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}

type catalog interface {
	ProductOption(ctx context.Context, auth backend.Auth, id int64) (*domain.ProductOption, error)
}

func New(repo cartrepo.Repository, catalog catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// AddLineInput is one "add to cart" action.
type AddLineInput struct {
	ProductOptionID int64 `json:"productOptionId"`
	Quantity        int   `json:"quantity"`
}

// Get returns the session cart; a session without one has an empty cart.
func (s *Service) Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, tenantID, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{TenantID: tenantID, SessionID: sessionID, Currency: defaultCurrency, Lines: []domain.CartLine{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddLine prices the product option from the catalog and adds it.
func (s *Service) AddLine(ctx context.Context, auth backend.Auth, tenantID, sessionID string, in AddLineInput) (*domain.Cart, error) {
	if in.ProductOptionID <= 0 {
		return nil, ErrInvalidOption
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if s.catalog == nil {
		return nil, errors.New("catalog unavailable")
	}
	option, err := s.catalog.ProductOption(ctx, auth, in.ProductOptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("price product option %d: %w", in.ProductOptionID, err)
	}
	// zero stock means the catalog does not track it
	if option.Stock > 0 && in.Quantity > option.Stock {
		return nil, ErrOutOfStock
	}

	currency := strings.TrimSpace(option.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	cart, err := s.repo.GetOrCreate(ctx, tenantID, sessionID, currency)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddLine(ctx, cart.ID, lineFromOption(*option, in.Quantity)); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, sessionID)
}

// ChangeQuantity sets a line quantity; zero or less removes the line.
func (s *Service) ChangeQuantity(ctx context.Context, tenantID, sessionID, lineID string, quantity int) (*domain.Cart, error) {
	lineID, err := parseLineID(lineID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ChangeLineQuantity(ctx, cart.ID, lineID, quantity); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, sessionID)
}

func (s *Service) RemoveLine(ctx context.Context, tenantID, sessionID, lineID string) (*domain.Cart, error) {
	lineID, err := parseLineID(lineID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLine(ctx, cart.ID, lineID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, sessionID)
}

// Clear drops the session cart after an order was placed.
func (s *Service) Clear(ctx context.Context, tenantID, sessionID string) error {
	return s.repo.Delete(ctx, tenantID, sessionID)
}

// parseLineID treats an id that cannot be a line id as a missing line.
func parseLineID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.ErrNotFound
	}
	return id.String(), nil
}

func lineFromOption(o domain.ProductOption, quantity int) cartrepo.LineInput {
	return cartrepo.LineInput{
		ProductOptionID: o.ID,
		Name:            o.Name,
		Quantity:        quantity,
		Price:           o.Price.StringFixed(2),
		Discount:        o.Discount.StringFixed(2),
		VAT:             o.VAT.StringFixed(2),
	}
}
