package validation

import "storefront-checkout/internal/domain"

// ValidateContact checks the contact step: name, email and phone are required.
func ValidateContact(c domain.Customer) domain.ValidationMap {
	return domain.ValidationMap{
		"name":  required(c.Name),
		"email": check(c.Email, "required,email", MsgInvalidEmail),
		"phone": check(c.Phone, "required,phone", MsgInvalidPhone),
	}
}

// ContactComplete reports whether c is a resolved identity fit for an order.
func ContactComplete(c domain.Customer) bool {
	return c.HasID() && ValidateContact(c).Valid()
}

// ValidateEmail checks a single email address.
func ValidateEmail(email string) domain.FieldResult {
	return check(email, "required,email", MsgInvalidEmail)
}
