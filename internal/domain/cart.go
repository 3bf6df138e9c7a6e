package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the storefront cart of one browser session.
type Cart struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"-"`
	SessionID string     `json:"-"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"createdAt"`
	Lines     []CartLine `json:"lineItems"`
}

type CartLine struct {
	ID              string          `json:"id"`
	CartID          string          `json:"cartId"`
	ProductOptionID int64           `json:"productOptionId"`
	Name            string          `json:"name,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Discount        decimal.Decimal `json:"discount"`
	VAT             decimal.Decimal `json:"vat"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Total is the line price after discount, times quantity.
func (l CartLine) Total() decimal.Decimal {
	return l.Price.Sub(l.Discount).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums all line totals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// ProductOption is the purchasable variant a cart line points at, as priced by
// the catalog.
type ProductOption struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	VAT      decimal.Decimal `json:"vat"`
	Currency string          `json:"currency"`
	Stock    int             `json:"stock"`
}

// Orderable reports whether the cart has lines and every line points at a
// product option with a positive quantity.
func (c Cart) Orderable() bool {
	if len(c.Lines) == 0 {
		return false
	}
	for _, l := range c.Lines {
		if l.ProductOptionID <= 0 || l.Quantity <= 0 {
			return false
		}
	}
	return true
}
