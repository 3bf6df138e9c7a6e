package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/events"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateOrder(ctx context.Context, auth backend.Auth, order domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, auth, order)
	created, _ := args.Get(0).(*domain.Order)
	return created, args.Error(1)
}

func (m *mockClient) PaymentURL(ctx context.Context, auth backend.Auth, orderID int64) (string, error) {
	args := m.Called(ctx, auth, orderID)
	return args.String(0), args.Error(1)
}

type stubCarts struct {
	mu         sync.Mutex
	cart       *domain.Cart
	getErr     error
	clearCalls int
}

func (s *stubCarts) Get(_ context.Context, _, _ string) (*domain.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	c := *s.cart
	return &c, nil
}

func (s *stubCarts) Clear(_ context.Context, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	return nil
}

type stubCheckouts struct {
	discardCalls int
}

func (s *stubCheckouts) Discard(_ context.Context, _, _ string) error {
	s.discardCalls++
	return nil
}

type recordingPublisher struct {
	events []events.OrderPlaced
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, evt events.OrderPlaced) error {
	p.events = append(p.events, evt)
	return p.err
}

func happyCart() *domain.Cart {
	return &domain.Cart{Lines: []domain.CartLine{{
		ProductOptionID: 42,
		Quantity:        2,
		Price:           decimal.NewFromInt(10),
		VAT:             decimal.NewFromInt(2),
	}}}
}

func guestSubmission(pt domain.PaymentType) Submission {
	return Submission{
		TenantID:  "t1",
		SessionID: "sid-1",
		Customer:  domain.Customer{ID: 5, Name: "Ana", Email: "a@b.com", Phone: "+40712345678"},
		Address: domain.CustomerAddress{
			ID:          3,
			BillingType: domain.BillingIndividual,
			BillingAddress: domain.BillingAddress{
				ID: 30, Country: "Romania", County: "Cluj", City: "Cluj-Napoca", Street: "Str. X", Number: "1", Zip: "400000",
			},
			ShippingAddress: domain.ShippingAddress{
				ID: 31, Country: "Romania", County: "Cluj", City: "Cluj-Napoca", Street: "Str. X", Number: "1", Zip: "400000",
			},
		},
		PaymentType: pt,
		Lang:        "ro",
	}
}

func TestSubmit_GuestCashOnDelivery(t *testing.T) {
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return len(o.OrderItems) == 1 &&
			o.OrderItems[0].ProductOptionID == 42 &&
			o.OrderItems[0].Quantity == 2 &&
			o.OrderItems[0].Price.Equal(decimal.NewFromInt(10)) &&
			o.OrderItems[0].VAT.Equal(decimal.NewFromInt(2)) &&
			o.PaymentType == domain.PaymentCashOnDelivery &&
			o.Lang == "ro"
	})).Return(&domain.Order{ID: 100, TransactionID: "TX-100", PaymentType: domain.PaymentCashOnDelivery}, nil).Once()
	carts := &stubCarts{cart: happyCart()}
	checkouts := &stubCheckouts{}
	pub := &recordingPublisher{}

	res, err := New(client, carts, checkouts, pub, nil).Submit(context.Background(), guestSubmission(domain.PaymentCashOnDelivery))

	require.NoError(t, err)
	assert.Equal(t, "/confirmation/TX-100", res.RedirectURL)
	assert.Equal(t, 1, carts.clearCalls)
	assert.Equal(t, 1, checkouts.discardCalls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "20", pub.events[0].Total)
	client.AssertNumberOfCalls(t, "CreateOrder", 1)
	client.AssertNotCalled(t, "PaymentURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_CardRedirectsToPaymentPage(t *testing.T) {
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Order{ID: 101, TransactionID: "TX-101", PaymentType: domain.PaymentCard}, nil).Once()
	client.On("PaymentURL", mock.Anything, mock.Anything, int64(101)).Return("https://pay.example/xyz", nil).Once()
	carts := &stubCarts{cart: happyCart()}
	checkouts := &stubCheckouts{}

	res, err := New(client, carts, checkouts, nil, nil).Submit(context.Background(), guestSubmission(domain.PaymentCard))

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/xyz", res.RedirectURL)
	assert.Equal(t, 1, carts.clearCalls)
	assert.Equal(t, 1, checkouts.discardCalls)
	client.AssertExpectations(t)
}

func TestSubmit_CardWithoutPaymentURLIsHardStop(t *testing.T) {
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Order{ID: 102, TransactionID: "TX-102", PaymentType: domain.PaymentCard}, nil).Once()
	client.On("PaymentURL", mock.Anything, mock.Anything, int64(102)).Return("", nil).Once()
	svc := New(client, &stubCarts{cart: happyCart()}, &stubCheckouts{}, nil, nil)

	res, err := svc.Submit(context.Background(), guestSubmission(domain.PaymentCard))

	assert.ErrorIs(t, err, domain.ErrPaymentURLMissing)
	require.NotNil(t, res)
	assert.Empty(t, res.RedirectURL)
	assert.Equal(t, "TX-102", res.Order.TransactionID)

	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Order{ID: 103, PaymentType: domain.PaymentCard}, nil).Once()
	client.On("PaymentURL", mock.Anything, mock.Anything, int64(103)).Return("", errors.New("gateway down")).Once()
	_, err = svc.Submit(context.Background(), guestSubmission(domain.PaymentCard))
	assert.ErrorIs(t, err, domain.ErrPaymentURLMissing, "guard is released after a hard stop")
}

func TestSubmit_FailureLeavesCartAndAllowsRetry(t *testing.T) {
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("502")).Once()
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Order{ID: 104, TransactionID: "TX-104"}, nil).Once()
	carts := &stubCarts{cart: happyCart()}
	checkouts := &stubCheckouts{}
	pub := &recordingPublisher{}
	svc := New(client, carts, checkouts, pub, nil)

	_, err := svc.Submit(context.Background(), guestSubmission(domain.PaymentTransfer))
	require.Error(t, err)
	assert.Zero(t, carts.clearCalls)
	assert.Zero(t, checkouts.discardCalls)
	assert.Empty(t, pub.events)

	res, err := svc.Submit(context.Background(), guestSubmission(domain.PaymentTransfer))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentTransfer, res.Order.PaymentType)
	assert.Equal(t, "/confirmation/TX-104", res.RedirectURL)
	client.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestSubmit_RejectsConcurrentSubmissions(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-unblock
		}).
		Return(&domain.Order{ID: 105, TransactionID: "TX-105"}, nil).Once()
	svc := New(client, &stubCarts{cart: happyCart()}, &stubCheckouts{}, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), guestSubmission(domain.PaymentCashOnDelivery))
		done <- err
	}()
	<-entered

	const attempts = 20
	var wg sync.WaitGroup
	rejected := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), guestSubmission(domain.PaymentCashOnDelivery))
			rejected <- err
		}()
	}
	wg.Wait()
	close(rejected)
	for err := range rejected {
		assert.ErrorIs(t, err, domain.ErrSubmitInFlight)
	}

	close(unblock)
	require.NoError(t, <-done)
	client.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestSubmit_GuardIsPerSession(t *testing.T) {
	svc := New(&mockClient{}, &stubCarts{}, &stubCheckouts{}, nil, nil)
	flag, ok := svc.acquire("a")
	require.True(t, ok)
	_, ok = svc.acquire("a")
	assert.False(t, ok)
	_, ok = svc.acquire("b")
	assert.True(t, ok)

	svc.release("a", flag)
	_, ok = svc.acquire("a")
	assert.True(t, ok)
}

func TestSubmit_PreconditionsMakeNoCall(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Submission)
		cart   *domain.Cart
		want   error
	}{
		{name: "empty cart", cart: &domain.Cart{}, want: domain.ErrEmptyCart},
		{name: "zero quantity", cart: &domain.Cart{Lines: []domain.CartLine{{ProductOptionID: 42}}}, want: domain.ErrNotReady},
		{name: "no customer id", mutate: func(s *Submission) { s.Customer.ID = 0 }, want: domain.ErrNotReady},
		{name: "bad phone", mutate: func(s *Submission) { s.Customer.Phone = "07" }, want: domain.ErrNotReady},
		{name: "no address", mutate: func(s *Submission) { s.Address.ID = 0 }, want: domain.ErrNotReady},
		{name: "no payment", mutate: func(s *Submission) { s.PaymentType = domain.PaymentNone }, want: domain.ErrNotReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockClient{}
			cart := tc.cart
			if cart == nil {
				cart = happyCart()
			}
			sub := guestSubmission(domain.PaymentCashOnDelivery)
			if tc.mutate != nil {
				tc.mutate(&sub)
			}

			_, err := New(client, &stubCarts{cart: cart}, &stubCheckouts{}, nil, nil).Submit(context.Background(), sub)

			assert.ErrorIs(t, err, tc.want)
			client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_PublishFailureDoesNotFailOrder(t *testing.T) {
	client := &mockClient{}
	client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Order{ID: 106, TransactionID: "TX-106", PaymentType: domain.PaymentCashOnDelivery}, nil).Once()
	pub := &recordingPublisher{err: errors.New("broker down")}

	res, err := New(client, &stubCarts{cart: happyCart()}, &stubCheckouts{}, pub, nil).Submit(context.Background(), guestSubmission(domain.PaymentCashOnDelivery))

	require.NoError(t, err)
	assert.Equal(t, "/confirmation/TX-106", res.RedirectURL)
}

func TestBuildItems(t *testing.T) {
	lines := []domain.CartLine{
		{ProductOptionID: 1, Quantity: 1, Price: decimal.RequireFromString("9.99"), Discount: decimal.RequireFromString("1.00"), VAT: decimal.RequireFromString("1.60")},
		{ProductOptionID: 2, Quantity: 3, Price: decimal.NewFromInt(5)},
	}
	items := BuildItems(lines)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ProductOptionID)
	assert.True(t, items[0].Discount.Equal(decimal.RequireFromString("1")))
	assert.Equal(t, 3, items[1].Quantity)
	assert.Empty(t, BuildItems(nil))
}
