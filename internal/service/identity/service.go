// Package identity resolves who is checking out: a restored signed-in
// customer, a guest profile, or a guest turning into an account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/session"
	"storefront-checkout/internal/validation"
)

// View is the contact step mode.
type View string

const (
	ViewDisplay View = "display"
	ViewEdit    View = "edit"
	ViewLogin   View = "login"
)

// Prompt is the sub-form shown after an opt-in email check.
type Prompt string

const (
	PromptNone     Prompt = ""
	PromptLogin    Prompt = "login"
	PromptPassword Prompt = "password"
)

// State is the identity part of a checkout. Token is restored from the session
// cookies on every request and never persisted with the checkout.
type State struct {
	View     View            `json:"view"`
	LoggedIn bool            `json:"loggedIn"`
	Customer domain.Customer `json:"customer"`
	Prompt   Prompt          `json:"prompt,omitempty"`
	Token    string          `json:"-"`
}

// Edit opens the contact form.
func (st *State) Edit() {
	st.View = ViewEdit
}

// StartLogin switches to the login sub-form for customers with an account.
func (st *State) StartLogin() {
	st.View = ViewLogin
	st.Prompt = PromptNone
}

// Cancel drops back to the summary without touching the identity.
func (st *State) Cancel() {
	st.View = ViewDisplay
	st.Prompt = PromptNone
}

// Complete reports whether the identity is good enough to place an order.
func (st State) Complete() bool {
	return validation.ContactComplete(st.Customer)
}

// Auth returns the backend credentials for this identity.
func (st State) Auth(tenantKey string) backend.Auth {
	return backend.Auth{TenantKey: tenantKey, Token: st.Token}
}

// Scope is what a single request lends the resolver: the tenant and the
// cookie-backed session of the browser.
type Scope struct {
	TenantKey string
	Store     session.Store
}

// Draft is the submitted contact form. Password is only set when the guest
// opted in to create an account.
type Draft struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CreateAccount bool   `json:"createAccount"`
	Password      string `json:"password,omitempty"`
}

func (d Draft) customer() domain.Customer {
	return domain.Customer{Name: d.Name, Email: d.Email, Phone: d.Phone}.Normalized()
}

type backendClient interface {
	CreateCustomer(ctx context.Context, auth backend.Auth, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, auth backend.Auth, customer domain.Customer) (*domain.Customer, error)
	EmailExists(ctx context.Context, auth backend.Auth, email string) (bool, error)
	Login(ctx context.Context, auth backend.Auth, email, password string) (*domain.Customer, string, error)
}

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

// Restore hydrates st from the session cookies. A checkout that was signed in
// but lost its cookies falls back to an empty guest.
func (s *Service) Restore(scope Scope, st *State) {
	if st.View == "" {
		st.View = ViewDisplay
	}
	if sess, ok := scope.Store.Load(); ok {
		st.Customer = sess.Customer
		st.Token = sess.Token
		st.LoggedIn = true
		return
	}
	if st.LoggedIn {
		*st = State{View: ViewDisplay}
	}
	st.Token = ""
}

// CheckEmailExists forks the opt-in account flow: a known email leads to the
// login form, an unknown one to the password form.
func (s *Service) CheckEmailExists(ctx context.Context, scope Scope, st *State, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if res := validation.ValidateEmail(email); !res.Valid {
		return false, &domain.ValidationError{Form: "contact", Fields: domain.ValidationMap{"email": res}}
	}
	exists, err := s.client.EmailExists(ctx, st.Auth(scope.TenantKey), email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	if exists {
		st.View = ViewLogin
		st.Prompt = PromptLogin
	} else {
		st.Prompt = PromptPassword
	}
	return exists, nil
}

// Login signs the customer in and persists the session.
func (s *Service) Login(ctx context.Context, scope Scope, st *State, email, password string) (domain.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Customer{}, domain.ErrInvalidCredentials
	}
	customer, token, err := s.client.Login(ctx, st.Auth(scope.TenantKey), email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.Customer{}, domain.ErrInvalidCredentials
		}
		return domain.Customer{}, fmt.Errorf("login: %w", err)
	}
	if err := s.signIn(scope, st, *customer, token); err != nil {
		return domain.Customer{}, err
	}
	return st.Customer, nil
}

// Save creates or updates the customer behind the contact form. Signed-in
// customers are updated; guests get a new profile, which becomes an account
// when they chose a password.
func (s *Service) Save(ctx context.Context, scope Scope, st *State, draft Draft) (domain.Customer, error) {
	candidate := draft.customer()
	fields := validation.ValidateContact(candidate)
	if draft.CreateAccount && !st.LoggedIn && strings.TrimSpace(draft.Password) == "" {
		fields["password"] = domain.FieldResult{Valid: false, Message: validation.MsgRequired}
	}
	if !fields.Valid() {
		return domain.Customer{}, &domain.ValidationError{Form: "contact", Fields: fields}
	}

	auth := st.Auth(scope.TenantKey)
	if st.LoggedIn {
		candidate.ID = st.Customer.ID
		candidate.Role = st.Customer.Role
		candidate.Active = st.Customer.Active
		updated, err := s.client.UpdateCustomer(ctx, auth, candidate)
		if err != nil {
			s.logger.Printf("identity: update customer=%d err=%v", candidate.ID, err)
			return domain.Customer{}, s.saveError(st, err)
		}
		if err := scope.Store.Save(session.Session{Customer: *updated, Token: st.Token}); err != nil {
			return domain.Customer{}, fmt.Errorf("persist session: %w", err)
		}
		st.Customer = *updated
		st.Cancel()
		return st.Customer, nil
	}

	if draft.CreateAccount {
		candidate.Password = draft.Password
	}
	created, err := s.client.CreateCustomer(ctx, auth, candidate)
	if err != nil {
		s.logger.Printf("identity: create customer email=%s err=%v", candidate.Email, err)
		return domain.Customer{}, s.saveError(st, err)
	}

	if draft.CreateAccount {
		customer, token, err := s.client.Login(ctx, auth, candidate.Email, draft.Password)
		if err != nil {
			return domain.Customer{}, fmt.Errorf("login new account: %w", err)
		}
		if err := s.signIn(scope, st, *customer, token); err != nil {
			return domain.Customer{}, err
		}
		return st.Customer, nil
	}

	st.Customer = created.Public()
	st.Cancel()
	return st.Customer, nil
}

// saveError turns the unique-email conflict into a switch to the login form.
func (s *Service) saveError(st *State, err error) error {
	if errors.Is(err, domain.ErrEmailTaken) {
		st.View = ViewLogin
		st.Prompt = PromptLogin
		return domain.ErrEmailTaken
	}
	return fmt.Errorf("save contact: %w", err)
}

func (s *Service) signIn(scope Scope, st *State, customer domain.Customer, token string) error {
	customer = customer.Public()
	if err := scope.Store.Save(session.Session{Customer: customer, Token: token}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	st.Customer = customer
	st.Token = token
	st.LoggedIn = true
	st.Cancel()
	s.logger.Printf("identity: signed in customer=%d", customer.ID)
	return nil
}

// Logout clears the session and leaves an empty guest.
func (s *Service) Logout(scope Scope, st *State) {
	scope.Store.Clear()
	*st = State{View: ViewDisplay}
}
