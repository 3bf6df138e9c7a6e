package checkout

import (
	"reflect"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/identity"
	"storefront-checkout/internal/validation"
)

// Step is one section of the checkout page.
type Step string

const (
	StepContact Step = "contact"
	StepAddress Step = "address"
	StepPayment Step = "payment"
)

var stepOrder = []Step{StepContact, StepAddress, StepPayment}

// Valid reports whether s names a checkout step.
func (s Step) Valid() bool {
	for _, known := range stepOrder {
		if s == known {
			return true
		}
	}
	return false
}

func (s Step) next() (Step, bool) {
	for i, known := range stepOrder {
		if s == known && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return s, false
}

// State is everything the checkout of one browser remembers between requests.
// Drafts are local to the address step until SaveAddress commits them.
type State struct {
	Lang       string         `json:"lang"`
	ActiveStep Step           `json:"activeStep"`
	Open       map[Step]bool  `json:"open"`
	Contact    identity.State `json:"contact"`

	Addresses         []domain.CustomerAddress `json:"addresses"`
	Selection         domain.Selection         `json:"selection"`
	Editing           bool                     `json:"isEditing"`
	AssignedAddressID int64                    `json:"assignedAddressId,omitempty"`
	PendingDelete     int64                    `json:"pendingDelete,omitempty"`

	BillingType   domain.BillingType     `json:"billingType"`
	Billing       domain.BillingAddress  `json:"billing"`
	Shipping      domain.ShippingAddress `json:"shipping"`
	SameAsBilling bool                   `json:"sameAsBilling"`

	PaymentType domain.PaymentType `json:"paymentType"`
	Observation string             `json:"observation,omitempty"`
}

// NewState starts a checkout on the contact step with an empty new-address
// form.
func NewState(lang string) *State {
	st := &State{Lang: lang, Contact: identity.State{View: identity.ViewDisplay}, PaymentType: domain.PaymentNone}
	st.OpenStep(StepContact)
	st.resetDrafts()
	return st
}

// OpenStep makes step the active one and collapses every other step.
func (st *State) OpenStep(step Step) {
	st.ActiveStep = step
	st.Open = map[Step]bool{step: true}
}

// CloseActive completes the active step and opens the next one. Closing the
// last step leaves every step collapsed.
func (st *State) CloseActive() {
	next, ok := st.ActiveStep.next()
	if !ok {
		st.Open = map[Step]bool{}
		return
	}
	st.OpenStep(next)
}

// IsOpen reports whether step is expanded.
func (st *State) IsOpen(step Step) bool {
	return st.Open[step]
}

func (st *State) find(id int64) (domain.CustomerAddress, bool) {
	for _, rec := range st.Addresses {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.CustomerAddress{}, false
}

// AssignedAddress returns the pair the order will ship to, if one is resolved.
func (st *State) AssignedAddress() (domain.CustomerAddress, bool) {
	if st.AssignedAddressID <= 0 {
		return domain.CustomerAddress{}, false
	}
	return st.find(st.AssignedAddressID)
}

// SelectAddress picks a saved pair for the order, or opens the new-address
// form.
func (st *State) SelectAddress(sel domain.Selection) error {
	id, existing := sel.ID()
	if !existing {
		st.Selection = domain.AddNew()
		st.Editing = true
		st.resetDrafts()
		return nil
	}
	rec, ok := st.find(id)
	if !ok {
		return domain.ErrNotFound
	}
	st.Selection = sel
	st.Editing = false
	st.AssignedAddressID = id
	st.loadDrafts(rec)
	return nil
}

// StartEdit opens a saved pair in the address form.
func (st *State) StartEdit(id int64) error {
	rec, ok := st.find(id)
	if !ok {
		return domain.ErrNotFound
	}
	st.Selection = domain.Existing(id)
	st.Editing = true
	st.loadDrafts(rec)
	return nil
}

// CancelEdit drops the drafts and goes back to the assigned pair.
func (st *State) CancelEdit() {
	st.Editing = false
	if rec, ok := st.AssignedAddress(); ok {
		st.Selection = domain.Existing(rec.ID)
		st.loadDrafts(rec)
		return
	}
	st.Selection = domain.AddNew()
	st.resetDrafts()
}

// UpdateBillingDraft replaces the billing draft. Ids stay with the draft, and
// the billing type of a saved pair cannot change while editing it.
func (st *State) UpdateBillingDraft(billingType domain.BillingType, billing domain.BillingAddress) {
	billing.ID = st.Billing.ID
	billing.Edited = false
	st.Billing = billing
	if _, existing := st.Selection.ID(); existing && st.Editing {
		return
	}
	if billingType.Valid() {
		st.BillingType = billingType
	}
}

// UpdateShippingDraft replaces the shipping draft kept for when shipping does
// not mirror billing.
func (st *State) UpdateShippingDraft(shipping domain.ShippingAddress) {
	shipping.ID = st.Shipping.ID
	shipping.Edited = false
	st.Shipping = shipping
}

// SetSameAsBilling toggles the billing to shipping mirror. Turning it off
// brings back the shipping draft as it was.
func (st *State) SetSameAsBilling(on bool) {
	st.SameAsBilling = on
}

// EffectiveShipping is the shipping address the form shows: the projection of
// the billing draft while mirroring, the own draft otherwise.
func (st *State) EffectiveShipping() domain.ShippingAddress {
	if !st.SameAsBilling {
		return st.Shipping
	}
	mirrored := st.Billing.ToShipping()
	mirrored.ID = st.Shipping.ID
	return mirrored
}

func (st *State) form(fields domain.FieldConfig) validation.AddressForm {
	return validation.AddressForm{
		Selection:     st.Selection,
		Editing:       st.Editing,
		BillingType:   st.BillingType,
		Billing:       st.Billing,
		Shipping:      st.EffectiveShipping(),
		SameAsBilling: st.SameAsBilling,
		Fields:        fields,
	}
}

// IsFormValid reports whether the billing form allows saving.
func (st *State) IsFormValid(fields domain.FieldConfig) bool {
	billing, _ := validation.ValidateAddressForm(st.form(fields))
	return billing.Valid()
}

// IsShippingFormValid reports whether the shipping form allows saving.
func (st *State) IsShippingFormValid(fields domain.FieldConfig) bool {
	_, shipping := validation.ValidateAddressForm(st.form(fields))
	return shipping.Valid()
}

// AddressErrors returns the failed address fields, prefixed by form.
func (st *State) AddressErrors(fields domain.FieldConfig) domain.ValidationMap {
	billing, shipping := validation.ValidateAddressForm(st.form(fields))
	out := domain.ValidationMap{}
	for name, res := range billing {
		if !res.Valid {
			out["billing."+name] = res
		}
	}
	for name, res := range shipping {
		if !res.Valid {
			out["shipping."+name] = res
		}
	}
	return out
}

// SelectPayment records the payment choice. Only the tenant's offered types
// are accepted.
func (st *State) SelectPayment(pt domain.PaymentType, offered []domain.PaymentType, observation string) error {
	allowed := false
	for _, o := range offered {
		if o == pt {
			allowed = true
			break
		}
	}
	if !pt.Selected() || !allowed {
		return &domain.ValidationError{Form: "payment", Fields: domain.ValidationMap{
			"paymentType": {Valid: false, Message: validation.MsgInvalid},
		}}
	}
	st.PaymentType = pt
	st.Observation = observation
	return nil
}

// Ready is the submit gate: a complete identity, a resolved address, a payment
// choice and a cart with well-formed lines.
func (st *State) Ready(cart domain.Cart) bool {
	if !st.Contact.Complete() {
		return false
	}
	if _, ok := st.AssignedAddress(); !ok {
		return false
	}
	if !st.PaymentType.Selected() {
		return false
	}
	return cart.Orderable()
}

func (st *State) loadDrafts(rec domain.CustomerAddress) {
	st.BillingType = rec.BillingType
	st.Billing = rec.BillingAddress
	st.Shipping = rec.ShippingAddress
	mirrored := rec.BillingAddress.ToShipping()
	mirrored.ID = rec.ShippingAddress.ID
	mirrored.Edited = rec.ShippingAddress.Edited
	st.SameAsBilling = reflect.DeepEqual(mirrored, rec.ShippingAddress)
}

// ResetAddressBook forgets the saved pairs of the previous customer and goes
// back to the new-address form.
func (st *State) ResetAddressBook() {
	st.Addresses = nil
	st.AssignedAddressID = 0
	st.PendingDelete = 0
	st.Selection = domain.AddNew()
	st.Editing = false
	st.resetDrafts()
}

func (st *State) resetDrafts() {
	st.BillingType = domain.BillingIndividual
	st.Billing = domain.BillingAddress{}
	st.Shipping = domain.ShippingAddress{}
	st.SameAsBilling = true
}
