package validation

import "storefront-checkout/internal/domain"

// ValidateBilling computes the billing form results. Optional fields are only
// checked when the tenant enables them.
func ValidateBilling(detail domain.BillingAddress, billingType domain.BillingType, fields domain.FieldConfig) domain.ValidationMap {
	out := domain.ValidationMap{
		"city":   required(detail.City),
		"street": required(detail.Street),
		"number": required(detail.Number),
		"zip":    required(detail.Zip),
	}
	if fields.Enabled(domain.FieldCounty) {
		out["county"] = required(detail.County)
	}
	if fields.Enabled(domain.FieldCountry) {
		out["country"] = required(detail.Country)
	}

	switch billingType {
	case domain.BillingCompany:
		out["companyName"] = required(detail.CompanyName)
		out["companyTaxId"] = required(detail.CompanyTaxID)
		if fields.Enabled(domain.FieldRegistryCode) {
			out["registryCode"] = required(detail.RegistryCode)
		}
	case domain.BillingIndividual:
		if fields.Enabled(domain.FieldCNP) {
			out["cnp"] = check(detail.CNP, "required,cnp", MsgInvalidCNP)
		}
	default:
		out["billingType"] = domain.FieldResult{Valid: false, Message: MsgRequired}
	}
	return out
}

// ValidateShipping computes the shipping form results. A shipping form that
// mirrors billing is always valid.
func ValidateShipping(detail domain.ShippingAddress, sameAsBilling bool, fields domain.FieldConfig) domain.ValidationMap {
	if sameAsBilling {
		return domain.ValidationMap{}
	}
	out := domain.ValidationMap{
		"city":   required(detail.City),
		"street": required(detail.Street),
		"number": required(detail.Number),
		"zip":    required(detail.Zip),
	}
	if fields.Enabled(domain.FieldCounty) {
		out["county"] = required(detail.County)
	}
	if fields.Enabled(domain.FieldCountry) {
		out["country"] = required(detail.Country)
	}
	return out
}

// AddressForm is the address step as the validator sees it.
type AddressForm struct {
	Selection     domain.Selection
	Editing       bool
	BillingType   domain.BillingType
	Billing       domain.BillingAddress
	Shipping      domain.ShippingAddress
	SameAsBilling bool
	Fields        domain.FieldConfig
}

// Composing reports whether the field rules apply: the user is filling the
// new-address form or editing a saved pair.
func (f AddressForm) Composing() bool {
	return f.Selection.IsNew() || f.Editing
}

// ValidateAddressForm returns the billing and shipping results. Picking an
// existing saved pair without editing it passes unconditionally.
func ValidateAddressForm(f AddressForm) (billing, shipping domain.ValidationMap) {
	if !f.Composing() {
		return domain.ValidationMap{}, domain.ValidationMap{}
	}
	return ValidateBilling(f.Billing, f.BillingType, f.Fields),
		ValidateShipping(f.Shipping, f.SameAsBilling, f.Fields)
}
