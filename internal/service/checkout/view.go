package checkout

import (
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/address"
)

// PaymentOptions lists the payment types a tenant offers. Cash on delivery is
// always there; card needs a configured processor.
func PaymentOptions(fields domain.FieldConfig, svc domain.PaymentServiceConfig) []domain.PaymentType {
	out := []domain.PaymentType{domain.PaymentCashOnDelivery}
	if svc.Configured && fields.Enabled(domain.FieldPaymentCard) {
		out = append(out, domain.PaymentCard)
	}
	if fields.Enabled(domain.FieldPaymentTransfer) {
		out = append(out, domain.PaymentTransfer)
	}
	return out
}

// View is the checkout page as the storefront renders it.
type View struct {
	*State
	EffectiveShipping   domain.ShippingAddress   `json:"effectiveShipping"`
	BillingChoices      []domain.CustomerAddress `json:"billingChoices"`
	ShippingChoices     []domain.CustomerAddress `json:"shippingChoices"`
	IsFormValid         bool                     `json:"isFormValid"`
	IsShippingFormValid bool                     `json:"isShippingFormValid"`
	AddressErrors       domain.ValidationMap     `json:"addressErrors,omitempty"`
	IsContactComplete   bool                     `json:"isContactComplete"`
	Ready               bool                     `json:"ready"`
	PaymentOptions      []domain.PaymentType     `json:"paymentOptions"`
	Courier             *domain.CourierConfig    `json:"courier,omitempty"`
	Cart                domain.Cart              `json:"cart"`
}

// Render derives the page from st.
func Render(st *State, fields domain.FieldConfig, cart domain.Cart, payment []domain.PaymentType, courier *domain.CourierConfig) View {
	return View{
		State:               st,
		EffectiveShipping:   st.EffectiveShipping(),
		BillingChoices:      address.UniqueByBilling(st.Addresses),
		ShippingChoices:     address.UniqueByShipping(st.Addresses),
		IsFormValid:         st.IsFormValid(fields),
		IsShippingFormValid: st.IsShippingFormValid(fields),
		AddressErrors:       st.AddressErrors(fields),
		IsContactComplete:   st.Contact.Complete(),
		Ready:               st.Ready(cart),
		PaymentOptions:      payment,
		Courier:             courier,
		Cart:                cart,
	}
}
