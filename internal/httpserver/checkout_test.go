package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/address"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/identity"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/session"
)

type stubAddressStore struct {
	mu      sync.Mutex
	records []domain.CustomerAddress
	nextID  int64
}

func (s *stubAddressStore) List(_ context.Context, owner address.Owner) ([]domain.CustomerAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner.CustomerID == 0 {
		return []domain.CustomerAddress{}, nil
	}
	return append([]domain.CustomerAddress(nil), s.records...), nil
}

func (s *stubAddressStore) Create(_ context.Context, _ address.Owner, pair domain.CustomerAddress) (*domain.CustomerAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	pair.ID = s.nextID
	pair.BillingAddress.ID = s.nextID
	pair.ShippingAddress.ID = s.nextID
	s.records = append(s.records, pair)
	return &pair, nil
}

func (s *stubAddressStore) UpdateBilling(_ context.Context, _ address.Owner, _ domain.BillingAddress) (*domain.CustomerAddress, error) {
	return nil, domain.ErrNotFound
}

func (s *stubAddressStore) UpdateShipping(_ context.Context, _ address.Owner, _ domain.ShippingAddress) (*domain.CustomerAddress, error) {
	return nil, domain.ErrNotFound
}

func (s *stubAddressStore) Delete(_ context.Context, _ address.Owner, _ domain.CustomerAddress) error {
	return nil
}

type memCheckoutRepo struct {
	mu    sync.Mutex
	state map[string][]byte
}

func (m *memCheckoutRepo) Get(_ context.Context, tenantID, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.state[tenantID+"/"+sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (m *memCheckoutRepo) Save(_ context.Context, tenantID, sessionID string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		m.state = map[string][]byte{}
	}
	m.state[tenantID+"/"+sessionID] = state
	return nil
}

func (m *memCheckoutRepo) Delete(_ context.Context, tenantID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, tenantID+"/"+sessionID)
	return nil
}

type stubIdentityClient struct {
	createErr  error
	created    int
	loginAs    *domain.Customer
	loginToken string
}

func (s *stubIdentityClient) CreateCustomer(_ context.Context, _ backend.Auth, customer domain.Customer) (*domain.Customer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created++
	customer.ID = 5
	customer.Active = true
	return &customer, nil
}

func (s *stubIdentityClient) UpdateCustomer(_ context.Context, _ backend.Auth, customer domain.Customer) (*domain.Customer, error) {
	return &customer, nil
}

func (s *stubIdentityClient) EmailExists(_ context.Context, _ backend.Auth, _ string) (bool, error) {
	return false, nil
}

func (s *stubIdentityClient) Login(_ context.Context, _ backend.Auth, _, _ string) (*domain.Customer, string, error) {
	if s.loginAs == nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	customer := *s.loginAs
	return &customer, s.loginToken, nil
}

type stubCartService struct {
	cart domain.Cart
}

func (s *stubCartService) Get(_ context.Context, _, _ string) (*domain.Cart, error) {
	c := s.cart
	return &c, nil
}

func (s *stubCartService) AddLine(_ context.Context, _ backend.Auth, _, _ string, in cartsvc.AddLineInput) (*domain.Cart, error) {
	if in.Quantity <= 0 {
		return nil, cartsvc.ErrInvalidQuantity
	}
	s.cart.Lines = append(s.cart.Lines, domain.CartLine{ID: "l1", ProductOptionID: in.ProductOptionID, Quantity: in.Quantity})
	c := s.cart
	return &c, nil
}

func (s *stubCartService) ChangeQuantity(_ context.Context, _, _, _ string, _ int) (*domain.Cart, error) {
	c := s.cart
	return &c, nil
}

func (s *stubCartService) RemoveLine(_ context.Context, _, _, lineID string) (*domain.Cart, error) {
	if lineID != "l1" {
		return nil, domain.ErrNotFound
	}
	s.cart.Lines = nil
	c := s.cart
	return &c, nil
}

type stubOrderService struct {
	lastSubmission order.Submission
	res            *order.Result
	err            error
}

func (s *stubOrderService) Submit(_ context.Context, sub order.Submission) (*order.Result, error) {
	s.lastSubmission = sub
	return s.res, s.err
}

type stubStoreConfig struct{}

func (stubStoreConfig) CourierConfig(_ context.Context, _ backend.Auth) (*domain.CourierConfig, error) {
	return &domain.CourierConfig{Name: "Fan", Price: "19.99"}, nil
}

func (stubStoreConfig) PaymentServiceConfig(_ context.Context, _ backend.Auth) (*domain.PaymentServiceConfig, error) {
	return &domain.PaymentServiceConfig{Configured: false}, nil
}

type testEnv struct {
	identity  *stubIdentityClient
	addresses *stubAddressStore
	carts     *stubCartService
	orders    *stubOrderService
	inquiries *stubInquiryService
	cookies   []*http.Cookie
}

func newTestRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		identity:  &stubIdentityClient{},
		addresses: &stubAddressStore{},
		carts: &stubCartService{cart: domain.Cart{Currency: "RON", Lines: []domain.CartLine{
			{ID: "l1", ProductOptionID: 11, Quantity: 2, Price: decimal.RequireFromString("50")},
		}}},
		orders:    &stubOrderService{},
		inquiries: &stubInquiryService{},
	}
	router, err := buildRouter(logDiscard(), nil, Deps{
		TenantRepo:  &stubTenantRepo{tenant: &domain.Tenant{ID: "t1", Host: "shop.test", Key: "shop", DefaultLang: "ro"}},
		StoreConfig: stubStoreConfig{},
		CartSvc:     env.carts,
		CheckoutSvc: checkout.New(env.addresses, &memCheckoutRepo{}, nil),
		IdentitySvc: identity.New(env.identity, nil),
		OrderSvc:    env.orders,
		InquirySvc:  env.inquiries,
		Codec:       session.NewCodec("test-secret", time.Hour),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router, env
}

// do sends a request with the cookies collected so far and keeps any new ones.
func (env *testEnv) do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Host = "shop.test"
	for _, c := range env.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	for _, fresh := range rec.Result().Cookies() {
		kept := env.cookies[:0]
		for _, c := range env.cookies {
			if c.Name != fresh.Name {
				kept = append(kept, c)
			}
		}
		env.cookies = append(kept, fresh)
	}
	return rec
}

type viewBody struct {
	ActiveStep        string   `json:"activeStep"`
	AssignedAddressID int64    `json:"assignedAddressId"`
	IsFormValid       bool     `json:"isFormValid"`
	Ready             bool     `json:"ready"`
	PaymentOptions    []string `json:"paymentOptions"`
	Addresses         []struct {
		ID int64 `json:"id"`
	} `json:"addresses"`
	Billing struct {
		Street string `json:"street"`
	} `json:"billing"`
	Contact struct {
		View     string `json:"view"`
		LoggedIn bool   `json:"loggedIn"`
		Customer struct {
			ID int64 `json:"id"`
		} `json:"customer"`
	} `json:"contact"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewBody {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var v viewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v body=%s", err, rec.Body.String())
	}
	return v
}

const validBillingDraft = `{"billingType":"INDIVIDUAL","billing":{"cnp":"1234567890123","country":"Romania","county":"Cluj","city":"Cluj-Napoca","zip":"400000","street":"Str. Memorandumului","number":"28"}}`

func TestCheckout_GuestFlowToOrder(t *testing.T) {
	router, env := newTestRouter(t)

	v := decodeView(t, env.do(router, http.MethodGet, "/ro/checkout", ""))
	if v.ActiveStep != "contact" {
		t.Fatalf("expected contact step, got %q", v.ActiveStep)
	}
	if len(v.PaymentOptions) != 2 || v.PaymentOptions[0] != "CASH_ON_DELIVERY" {
		t.Fatalf("unexpected payment options %v", v.PaymentOptions)
	}
	if len(env.cookies) == 0 || env.cookies[0].Name != session.CheckoutCookie {
		t.Fatalf("expected checkout session cookie, got %v", env.cookies)
	}

	v = decodeView(t, env.do(router, http.MethodPut, "/ro/checkout/contact", `{"name":"Ana Pop","email":"Ana@Example.com","phone":"0712345678"}`))
	if v.Contact.Customer.ID != 5 || v.ActiveStep != "address" {
		t.Fatalf("expected saved guest on address step, got %+v", v)
	}
	if v.AssignedAddressID != 0 {
		t.Fatalf("expected no address for a customer without addresses, got %d", v.AssignedAddressID)
	}

	v = decodeView(t, env.do(router, http.MethodPut, "/ro/checkout/addresses/draft", validBillingDraft))
	if !v.IsFormValid {
		t.Fatalf("expected valid address form")
	}

	v = decodeView(t, env.do(router, http.MethodPost, "/ro/checkout/addresses/save", ""))
	if v.AssignedAddressID != 1 || v.ActiveStep != "payment" {
		t.Fatalf("expected pair 1 assigned on payment step, got %+v", v)
	}
	if !env.addresses.records[0].Main {
		t.Fatalf("expected first pair to be main")
	}

	v = decodeView(t, env.do(router, http.MethodPut, "/ro/checkout/payment", `{"paymentType":"CASH_ON_DELIVERY","observation":"ring twice"}`))
	if !v.Ready {
		t.Fatalf("expected checkout to be ready")
	}

	env.orders.res = &order.Result{RedirectURL: "/confirmation/TX-1"}
	rec := env.do(router, http.MethodPost, "/ro/checkout/submit", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redirectUrl":"/confirmation/TX-1"`) {
		t.Fatalf("unexpected submit response %d %s", rec.Code, rec.Body.String())
	}
	sub := env.orders.lastSubmission
	if sub.Customer.ID != 5 || sub.Address.ID != 1 || sub.PaymentType != domain.PaymentCashOnDelivery {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.Observation != "ring twice" || sub.Lang != "ro" || sub.TenantID != "t1" {
		t.Fatalf("unexpected submission details %+v", sub)
	}
}

func TestCheckout_ContactValidation(t *testing.T) {
	router, env := newTestRouter(t)

	rec := env.do(router, http.MethodPut, "/ro/checkout/contact", `{"name":"","email":"nope","phone":"12"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email"`) || !strings.Contains(rec.Body.String(), `"phone"`) {
		t.Fatalf("expected field map, got %s", rec.Body.String())
	}
	if env.identity.created != 0 {
		t.Fatalf("expected no backend call for an invalid form")
	}
}

func TestCheckout_EmailTakenSwitchesToLogin(t *testing.T) {
	router, env := newTestRouter(t)
	env.identity.createErr = domain.ErrEmailTaken

	rec := env.do(router, http.MethodPut, "/ro/checkout/contact", `{"name":"Ana Pop","email":"ana@example.com","phone":"0712345678"}`)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), `"EMAIL_ALREADY_EXISTS"`) {
		t.Fatalf("expected 409 email conflict, got %d %s", rec.Code, rec.Body.String())
	}

	v := decodeView(t, env.do(router, http.MethodGet, "/ro/checkout", ""))
	if v.Contact.View != "login" {
		t.Fatalf("expected persisted login view, got %q", v.Contact.View)
	}
}

func TestCheckout_LoginFailure(t *testing.T) {
	router, env := newTestRouter(t)

	rec := env.do(router, http.MethodPost, "/ro/checkout/contact/login", `{"email":"ana@example.com","password":"bad"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func signInWithSavedAddress(t *testing.T, router *gin.Engine, env *testEnv) {
	t.Helper()
	env.identity.loginAs = &domain.Customer{ID: 9, Name: "Ion Pop", Email: "ion@example.com", Phone: "0712345678", Active: true}
	env.identity.loginToken = "tok-9"
	env.addresses.records = []domain.CustomerAddress{{
		ID:              77,
		BillingType:     domain.BillingIndividual,
		BillingAddress:  domain.BillingAddress{ID: 77, Street: "Secret St"},
		ShippingAddress: domain.ShippingAddress{ID: 77, Street: "Secret St"},
		Main:            true,
	}}

	v := decodeView(t, env.do(router, http.MethodPost, "/ro/checkout/contact/login", `{"email":"ion@example.com","password":"secret"}`))
	if !v.Contact.LoggedIn || v.AssignedAddressID != 77 || v.Billing.Street != "Secret St" {
		t.Fatalf("expected signed-in customer with pair 77, got %+v", v)
	}
}

func TestCheckout_LostSessionHidesAddressBook(t *testing.T) {
	router, env := newTestRouter(t)
	signInWithSavedAddress(t, router, env)

	kept := env.cookies[:0]
	for _, c := range env.cookies {
		if c.Name == session.CheckoutCookie {
			kept = append(kept, c)
		}
	}
	env.cookies = kept

	v := decodeView(t, env.do(router, http.MethodGet, "/ro/checkout", ""))
	if v.Contact.LoggedIn || v.Contact.Customer.ID != 0 {
		t.Fatalf("expected empty guest, got %+v", v.Contact)
	}
	if len(v.Addresses) != 0 || v.AssignedAddressID != 0 || v.Billing.Street != "" {
		t.Fatalf("expected no saved addresses for the guest, got %+v", v)
	}
}

func TestCheckout_LogoutHidesAddressBook(t *testing.T) {
	router, env := newTestRouter(t)
	signInWithSavedAddress(t, router, env)

	v := decodeView(t, env.do(router, http.MethodPost, "/ro/checkout/contact/logout", ""))
	if v.Contact.LoggedIn || v.ActiveStep != "contact" {
		t.Fatalf("expected guest on contact step, got %+v", v)
	}
	if len(v.Addresses) != 0 || v.AssignedAddressID != 0 || v.Billing.Street != "" {
		t.Fatalf("expected no saved addresses after logout, got %+v", v)
	}
}

func TestCheckout_StepNavigation(t *testing.T) {
	router, env := newTestRouter(t)

	v := decodeView(t, env.do(router, http.MethodPost, "/ro/checkout/steps/payment/open", ""))
	if v.ActiveStep != "payment" {
		t.Fatalf("expected payment step, got %q", v.ActiveStep)
	}
	rec := env.do(router, http.MethodPost, "/ro/checkout/steps/shipping/open", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown step, got %d", rec.Code)
	}
}

func TestCheckout_RejectsUnofferedPayment(t *testing.T) {
	router, env := newTestRouter(t)

	rec := env.do(router, http.MethodPut, "/ro/checkout/payment", `{"paymentType":"CARD_PAYMENT"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when card payments are off, got %d", rec.Code)
	}
}

func TestCheckout_DeleteUnknownAddress(t *testing.T) {
	router, env := newTestRouter(t)

	if rec := env.do(router, http.MethodPost, "/ro/checkout/addresses/42/delete", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := env.do(router, http.MethodPost, "/ro/checkout/addresses/abc/delete", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmit_Errors(t *testing.T) {
	router, env := newTestRouter(t)

	env.orders.err = domain.ErrSubmitInFlight
	if rec := env.do(router, http.MethodPost, "/ro/checkout/submit", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while in flight, got %d", rec.Code)
	}

	env.orders.err = domain.ErrNotReady
	if rec := env.do(router, http.MethodPost, "/ro/checkout/submit", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when not ready, got %d", rec.Code)
	}

	env.orders.err = domain.ErrPaymentURLMissing
	env.orders.res = &order.Result{Order: domain.Order{ID: 3, TransactionID: "TX-3"}}
	rec := env.do(router, http.MethodPost, "/ro/checkout/submit", "")
	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), `"transactionId":"TX-3"`) {
		t.Fatalf("expected payment hard stop, got %d %s", rec.Code, rec.Body.String())
	}
}
