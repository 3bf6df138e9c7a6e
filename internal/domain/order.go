package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
	PaymentCard           PaymentType = "CARD_PAYMENT"
	PaymentTransfer       PaymentType = "TRANSFER"
	PaymentNone           PaymentType = "NONE"
)

// Selected reports whether p is a real payment choice.
func (p PaymentType) Selected() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// OrderItem is one order line, derived 1:1 from a cart line.
type OrderItem struct {
	ProductOptionID int64           `json:"productOptionId"`
	Quantity        int             `json:"quantity"`
	Discount        decimal.Decimal `json:"discount"`
	Price           decimal.Decimal `json:"price"`
	VAT             decimal.Decimal `json:"vat"`
}

// Order is submitted atomically; ID and TransactionID come back from the backend.
type Order struct {
	ID              int64           `json:"id,omitempty"`
	TransactionID   string          `json:"transactionId,omitempty"`
	Customer        Customer        `json:"customer"`
	CustomerAddress CustomerAddress `json:"customerAddress"`
	OrderItems      []OrderItem     `json:"orderItems"`
	PaymentType     PaymentType     `json:"paymentType"`
	Observation     string          `json:"observation,omitempty"`
	Lang            string          `json:"lang"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
}
