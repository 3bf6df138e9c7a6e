package domain

import "time"

// Field names that a tenant can switch off.
const (
	FieldCountry         = "country"
	FieldCounty          = "county"
	FieldRegistryCode    = "registryCode"
	FieldCNP             = "cnp"
	FieldPaymentCard     = "paymentCard"
	FieldPaymentTransfer = "paymentTransfer"
)

// FieldConfig toggles optional form fields per tenant. Fields not listed are
// enabled.
type FieldConfig map[string]bool

// Enabled reports whether the named field is shown (and therefore required).
func (f FieldConfig) Enabled(name string) bool {
	v, ok := f[name]
	return !ok || v
}

// Tenant is a storefront resolved from the request hostname.
type Tenant struct {
	ID          string      `json:"id"`
	Host        string      `json:"host"`
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	DefaultLang string      `json:"defaultLang"`
	Fields      FieldConfig `json:"fields"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// CourierConfig is the tenant shipping price configuration.
type CourierConfig struct {
	Name              string `json:"name"`
	Price             string `json:"price"`
	FreeShippingAbove string `json:"freeShippingAbove,omitempty"`
}

// PaymentServiceConfig describes the tenant card processor, if any.
type PaymentServiceConfig struct {
	Provider   string `json:"provider,omitempty"`
	Configured bool   `json:"configured"`
}
