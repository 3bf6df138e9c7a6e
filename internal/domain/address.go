package domain

import (
	"encoding/json"
	"fmt"
)

// BillingType tells which billing-specific fields apply to an address pair.
type BillingType string

const (
	BillingIndividual BillingType = "INDIVIDUAL"
	BillingCompany    BillingType = "COMPANY"
)

// Valid reports whether t is a known billing type.
func (t BillingType) Valid() bool {
	return t == BillingIndividual || t == BillingCompany
}

// BillingAddress is the billing half of a CustomerAddress. Edited marks a
// superseded version that must never be offered for selection.
type BillingAddress struct {
	ID           int64  `json:"id,omitempty"`
	CompanyName  string `json:"companyName,omitempty"`
	CompanyTaxID string `json:"companyTaxId,omitempty"`
	CNP          string `json:"cnp,omitempty"`
	RegistryCode string `json:"registryCode,omitempty"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	County       string `json:"county,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Block        string `json:"block,omitempty"`
	Apartment    string `json:"apartment,omitempty"`
	Edited       bool   `json:"edited"`
}

// ShippingAddress is the shipping half of a CustomerAddress.
type ShippingAddress struct {
	ID        int64  `json:"id,omitempty"`
	Country   string `json:"country"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	County    string `json:"county,omitempty"`
	Street    string `json:"street"`
	Number    string `json:"number"`
	Block     string `json:"block,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	Edited    bool   `json:"edited"`
}

// ToShipping projects the location fields of b onto a new shipping address.
func (b BillingAddress) ToShipping() ShippingAddress {
	return ShippingAddress{
		Country:   b.Country,
		City:      b.City,
		Zip:       b.Zip,
		County:    b.County,
		Street:    b.Street,
		Number:    b.Number,
		Block:     b.Block,
		Apartment: b.Apartment,
	}
}

// CustomerAddress pairs a billing and a shipping address. At most one record
// per customer is Main.
type CustomerAddress struct {
	ID              int64           `json:"id,omitempty"`
	BillingType     BillingType     `json:"billingType"`
	BillingAddress  BillingAddress  `json:"billingAddress"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Main            bool            `json:"main"`
}

// Superseded reports whether either half was soft-deleted by the backend.
func (a CustomerAddress) Superseded() bool {
	return a.BillingAddress.Edited || a.ShippingAddress.Edited
}

// Selection is the address picked in the checkout: either an existing pair or
// the "add new" form. The zero value selects "add new".
type Selection struct {
	id int64
}

// AddNew selects the new-address form.
func AddNew() Selection {
	return Selection{}
}

// Existing selects a saved address pair by id.
func Existing(id int64) Selection {
	if id <= 0 {
		return Selection{}
	}
	return Selection{id: id}
}

// IsNew reports whether the selection is the new-address form.
func (s Selection) IsNew() bool {
	return s.id <= 0
}

// ID returns the selected address id, if any.
func (s Selection) ID() (int64, bool) {
	return s.id, s.id > 0
}

func (s Selection) String() string {
	if s.IsNew() {
		return "new"
	}
	return fmt.Sprintf("existing:%d", s.id)
}

type selectionJSON struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if s.IsNew() {
		return json.Marshal(selectionJSON{Kind: "new"})
	}
	return json.Marshal(selectionJSON{Kind: "existing", ID: s.id})
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "", "new":
		*s = AddNew()
	case "existing":
		if raw.ID <= 0 {
			return fmt.Errorf("selection: existing address requires a positive id")
		}
		*s = Existing(raw.ID)
	default:
		return fmt.Errorf("selection: unknown kind %q", raw.Kind)
	}
	return nil
}
