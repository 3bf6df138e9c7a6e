package address

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
)

type backendClient interface {
	ListAddresses(ctx context.Context, auth backend.Auth) ([]domain.CustomerAddress, error)
	ListGuestAddresses(ctx context.Context, auth backend.Auth, customerID int64) ([]domain.CustomerAddress, error)
	CreateAddress(ctx context.Context, auth backend.Auth, customerID int64, pair domain.CustomerAddress) (*domain.CustomerAddress, error)
	UpdateBillingAddress(ctx context.Context, auth backend.Auth, customerID int64, billing domain.BillingAddress) (*domain.CustomerAddress, error)
	UpdateShippingAddress(ctx context.Context, auth backend.Auth, customerID int64, shipping domain.ShippingAddress) (*domain.CustomerAddress, error)
	DeleteBillingAddress(ctx context.Context, auth backend.Auth, customerID, billingID int64) error
	DeleteShippingAddress(ctx context.Context, auth backend.Auth, customerID, shippingID int64) error
}

// Owner identifies whose address book is read or written. Signed-in customers
// go through their token; guests through the temporary profile id.
type Owner struct {
	Auth       backend.Auth
	CustomerID int64
}

// Service is the address book of a customer as the backend holds it.
type Service struct {
	client backendClient
	logger *log.Logger
}

func New(client backendClient, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{client: client, logger: logger}
}

// List fetches the owner's pairs and drops superseded ones.
func (s *Service) List(ctx context.Context, owner Owner) ([]domain.CustomerAddress, error) {
	var (
		records []domain.CustomerAddress
		err     error
	)
	switch {
	case owner.Auth.Authenticated():
		records, err = s.client.ListAddresses(ctx, owner.Auth)
	case owner.CustomerID > 0:
		records, err = s.client.ListGuestAddresses(ctx, owner.Auth, owner.CustomerID)
	default:
		return []domain.CustomerAddress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return Active(records), nil
}

// Active filters out pairs whose billing or shipping half was superseded.
func Active(records []domain.CustomerAddress) []domain.CustomerAddress {
	out := make([]domain.CustomerAddress, 0, len(records))
	for _, r := range records {
		if r.Superseded() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// UniqueByBilling keeps the first pair for each billing address id.
func UniqueByBilling(records []domain.CustomerAddress) []domain.CustomerAddress {
	return uniqueBy(records, func(r domain.CustomerAddress) int64 { return r.BillingAddress.ID })
}

// UniqueByShipping keeps the first pair for each shipping address id. One
// shipping address can be shared by several billing pairings.
func UniqueByShipping(records []domain.CustomerAddress) []domain.CustomerAddress {
	return uniqueBy(records, func(r domain.CustomerAddress) int64 { return r.ShippingAddress.ID })
}

func uniqueBy(records []domain.CustomerAddress, key func(domain.CustomerAddress) int64) []domain.CustomerAddress {
	seen := make(map[int64]struct{}, len(records))
	out := make([]domain.CustomerAddress, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (s *Service) Create(ctx context.Context, owner Owner, pair domain.CustomerAddress) (*domain.CustomerAddress, error) {
	if owner.CustomerID <= 0 {
		return nil, domain.ErrMissingCustomer
	}
	pair.ID = 0
	pair.BillingAddress.ID = 0
	pair.ShippingAddress.ID = 0
	created, err := s.client.CreateAddress(ctx, owner.Auth, owner.CustomerID, pair)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateBilling(ctx context.Context, owner Owner, billing domain.BillingAddress) (*domain.CustomerAddress, error) {
	if owner.CustomerID <= 0 {
		return nil, domain.ErrMissingCustomer
	}
	updated, err := s.client.UpdateBillingAddress(ctx, owner.Auth, owner.CustomerID, billing)
	if err != nil {
		return nil, fmt.Errorf("update billing address %d: %w", billing.ID, err)
	}
	return updated, nil
}

func (s *Service) UpdateShipping(ctx context.Context, owner Owner, shipping domain.ShippingAddress) (*domain.CustomerAddress, error) {
	if owner.CustomerID <= 0 {
		return nil, domain.ErrMissingCustomer
	}
	updated, err := s.client.UpdateShippingAddress(ctx, owner.Auth, owner.CustomerID, shipping)
	if err != nil {
		return nil, fmt.Errorf("update shipping address %d: %w", shipping.ID, err)
	}
	return updated, nil
}

// Delete removes a pair. Billing and shipping go out in parallel when they are
// distinct records; a shared id is deleted once.
func (s *Service) Delete(ctx context.Context, owner Owner, pair domain.CustomerAddress) error {
	if owner.CustomerID <= 0 {
		return domain.ErrMissingCustomer
	}
	billingID, shippingID := pair.BillingAddress.ID, pair.ShippingAddress.ID

	if shippingID <= 0 || shippingID == billingID {
		if err := s.client.DeleteBillingAddress(ctx, owner.Auth, owner.CustomerID, billingID); err != nil {
			return fmt.Errorf("delete billing address %d: %w", billingID, err)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.client.DeleteBillingAddress(gctx, owner.Auth, owner.CustomerID, billingID); err != nil {
			return fmt.Errorf("delete billing address %d: %w", billingID, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.client.DeleteShippingAddress(gctx, owner.Auth, owner.CustomerID, shippingID); err != nil {
			return fmt.Errorf("delete shipping address %d: %w", shippingID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Printf("address: delete pair=%d customer=%d err=%v", pair.ID, owner.CustomerID, err)
		return err
	}
	return nil
}
