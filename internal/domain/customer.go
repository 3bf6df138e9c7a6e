package domain

import "strings"

// Customer is the identity used across the checkout. ID is zero until the
// backend has created the profile.
type Customer struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role,omitempty"`
	Active   bool   `json:"active"`
	Password string `json:"password,omitempty"`
}

// HasID reports whether the backend has assigned an id.
func (c Customer) HasID() bool {
	return c.ID > 0
}

// Normalized trims contact fields and lower-cases the email.
func (c Customer) Normalized() Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.ReplaceAll(strings.TrimSpace(c.Phone), " ", "")
	return c
}

// Public strips fields that must never be echoed back to clients or cookies.
func (c Customer) Public() Customer {
	c.Password = ""
	return c
}
