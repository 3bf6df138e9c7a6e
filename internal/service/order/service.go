// Package order is the commit point of the checkout: it creates the order in
// the backend and decides where the browser goes next.
package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/events"
	"storefront-checkout/internal/validation"
)

type orderClient interface {
	CreateOrder(ctx context.Context, auth backend.Auth, order domain.Order) (*domain.Order, error)
	PaymentURL(ctx context.Context, auth backend.Auth, orderID int64) (string, error)
}

type cartStore interface {
	Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	Clear(ctx context.Context, tenantID, sessionID string) error
}

type checkoutStore interface {
	Discard(ctx context.Context, tenantID, sessionID string) error
}

// Submission is the accumulated checkout of one session.
type Submission struct {
	TenantID    string
	SessionID   string
	Auth        backend.Auth
	Customer    domain.Customer
	Address     domain.CustomerAddress
	PaymentType domain.PaymentType
	Observation string
	Lang        string
}

// Result tells the storefront where to send the browser.
type Result struct {
	Order       domain.Order `json:"order"`
	RedirectURL string       `json:"redirectUrl,omitempty"`
}

type Service struct {
	client    orderClient
	carts     cartStore
	checkouts checkoutStore
	events    events.Publisher
	logger    *log.Logger

	inflight sync.Map // session id -> *atomic.Bool
}

func New(client orderClient, carts cartStore, checkouts checkoutStore, publisher events.Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{client: client, carts: carts, checkouts: checkouts, events: publisher, logger: logger}
}

// ConfirmationPath is where non-card orders land.
func ConfirmationPath(transactionID string) string {
	return "/confirmation/" + url.PathEscape(transactionID)
}

// BuildItems maps cart lines 1:1 onto order items.
func BuildItems(lines []domain.CartLine) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			ProductOptionID: l.ProductOptionID,
			Quantity:        l.Quantity,
			Discount:        l.Discount,
			Price:           l.Price,
			VAT:             l.VAT,
		})
	}
	return items
}

// acquire marks the session as submitting. It fails while another submission
// of the same session is running.
func (s *Service) acquire(sessionID string) (*atomic.Bool, bool) {
	v, _ := s.inflight.LoadOrStore(sessionID, new(atomic.Bool))
	flag := v.(*atomic.Bool)
	return flag, flag.CompareAndSwap(false, true)
}

func (s *Service) release(sessionID string, flag *atomic.Bool) {
	s.inflight.CompareAndDelete(sessionID, flag)
}

// Submit places the order. Preconditions are checked again here. Card orders
// redirect to the payment page, everything else to the confirmation page.
// Failures before the order exists leave cart and checkout untouched; nothing
// is retried.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	flag, ok := s.acquire(sub.SessionID)
	if !ok {
		return nil, domain.ErrSubmitInFlight
	}
	defer s.release(sub.SessionID, flag)

	cart, err := s.carts.Get(ctx, sub.TenantID, sub.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := checkSubmission(sub, *cart); err != nil {
		return nil, err
	}

	draft := domain.Order{
		Customer:        sub.Customer.Public(),
		CustomerAddress: sub.Address,
		OrderItems:      BuildItems(cart.Lines),
		PaymentType:     sub.PaymentType,
		Observation:     sub.Observation,
		Lang:            sub.Lang,
	}
	created, err := s.client.CreateOrder(ctx, sub.Auth, draft)
	if err != nil {
		s.logger.Printf("order: create session=%s customer=%d err=%v", sub.SessionID, sub.Customer.ID, err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	if created.PaymentType == "" {
		created.PaymentType = sub.PaymentType
	}

	s.cleanup(ctx, sub)
	s.publish(ctx, sub, *cart, *created)

	res := &Result{Order: *created}
	if created.PaymentType != domain.PaymentCard {
		res.RedirectURL = ConfirmationPath(created.TransactionID)
		return res, nil
	}

	payURL, err := s.client.PaymentURL(ctx, sub.Auth, created.ID)
	if err != nil || payURL == "" {
		s.logger.Printf("order: payment url order=%d transaction=%s err=%v", created.ID, created.TransactionID, err)
		if err != nil {
			return res, fmt.Errorf("%w: %v", domain.ErrPaymentURLMissing, err)
		}
		return res, domain.ErrPaymentURLMissing
	}
	res.RedirectURL = payURL
	return res, nil
}

func checkSubmission(sub Submission, cart domain.Cart) error {
	switch {
	case len(cart.Lines) == 0:
		return domain.ErrEmptyCart
	case !cart.Orderable():
		return fmt.Errorf("%w: cart has malformed lines", domain.ErrNotReady)
	case !validation.ContactComplete(sub.Customer):
		return fmt.Errorf("%w: contact incomplete", domain.ErrNotReady)
	case sub.Address.ID <= 0:
		return fmt.Errorf("%w: no address", domain.ErrNotReady)
	case !sub.PaymentType.Selected():
		return fmt.Errorf("%w: no payment type", domain.ErrNotReady)
	}
	return nil
}

// cleanup runs once the order exists; failures are only logged.
func (s *Service) cleanup(ctx context.Context, sub Submission) {
	if err := s.carts.Clear(ctx, sub.TenantID, sub.SessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Printf("order: clear cart session=%s err=%v", sub.SessionID, err)
	}
	if err := s.checkouts.Discard(ctx, sub.TenantID, sub.SessionID); err != nil {
		s.logger.Printf("order: discard checkout session=%s err=%v", sub.SessionID, err)
	}
}

func (s *Service) publish(ctx context.Context, sub Submission, cart domain.Cart, created domain.Order) {
	placedAt := created.CreatedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	evt := events.OrderPlaced{
		OrderID:       created.ID,
		TransactionID: created.TransactionID,
		TenantID:      sub.TenantID,
		CustomerID:    sub.Customer.ID,
		PaymentType:   string(created.PaymentType),
		Total:         cart.Total().String(),
		Items:         len(cart.Lines),
		Lang:          sub.Lang,
		PlacedAt:      placedAt,
	}
	if err := s.events.PublishOrderPlaced(ctx, evt); err != nil {
		s.logger.Printf("order: publish placed order=%d err=%v", created.ID, err)
	}
}
