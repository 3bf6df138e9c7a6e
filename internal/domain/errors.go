package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmailTaken is the backend unique-email conflict raised on account creation.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCustomer guards address and order operations without a customer id.
	ErrMissingCustomer = errors.New("customer id required")
	// ErrSubmitInFlight rejects a second order submission while one is running.
	ErrSubmitInFlight = errors.New("order submission already in progress")
	// ErrNotReady is returned when the checkout cannot be submitted yet.
	ErrNotReady = errors.New("checkout not ready")
	// ErrEmptyCart is returned when an order would have no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentURLMissing is the hard stop after a card order was created but
	// the payment page could not be obtained.
	ErrPaymentURLMissing = errors.New("payment url unavailable")
)

// FieldResult is the outcome of validating one form field.
type FieldResult struct {
	Valid   bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

// ValidationMap holds per-field results of a form.
type ValidationMap map[string]FieldResult

// Valid reports whether every field passed.
func (m ValidationMap) Valid() bool {
	for _, r := range m {
		if !r.Valid {
			return false
		}
	}
	return true
}

// Invalid lists failed field names in stable order.
func (m ValidationMap) Invalid() []string {
	var out []string
	for name, r := range m {
		if !r.Valid {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ValidationError carries the field map of a rejected form. It never reaches
// the backend.
type ValidationError struct {
	Form   string
	Fields ValidationMap
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s form invalid: %s", e.Form, strings.Join(e.Fields.Invalid(), ", "))
}

// PartialUpdateError reports that only one half of an address pair was
// persisted. Nothing is rolled back.
type PartialUpdateError struct {
	BillingUpdated  bool
	ShippingUpdated bool
	Err             error
}

func (e *PartialUpdateError) Error() string {
	switch {
	case e.BillingUpdated:
		return fmt.Sprintf("billing address updated, shipping update failed: %v", e.Err)
	case e.ShippingUpdated:
		return fmt.Sprintf("shipping address updated, billing update failed: %v", e.Err)
	default:
		return fmt.Sprintf("address update failed: %v", e.Err)
	}
}

func (e *PartialUpdateError) Unwrap() error {
	return e.Err
}
