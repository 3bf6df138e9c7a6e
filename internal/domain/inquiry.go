package domain

// InquiryKind distinguishes the marketing forms forwarded to the backend.
type InquiryKind string

const (
	InquiryContact InquiryKind = "CONTACT"
	InquiryB2B     InquiryKind = "B2B"
)

type Inquiry struct {
	Kind         InquiryKind `json:"kind"`
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        string      `json:"phone,omitempty" validate:"omitempty,phone"`
	Message      string      `json:"message" validate:"required,max=4000"`
	CompanyName  string      `json:"companyName,omitempty" validate:"required_if=Kind B2B"`
	CompanyTaxID string      `json:"companyTaxId,omitempty" validate:"required_if=Kind B2B"`
	Lang         string      `json:"lang"`
}

type ReturnItem struct {
	ProductOptionID int64 `json:"productOptionId" validate:"gt=0"`
	Quantity        int   `json:"quantity" validate:"gt=0"`
}

// ReturnRequest asks the backend to open a return for a placed order.
type ReturnRequest struct {
	TransactionID string       `json:"transactionId" validate:"required"`
	Email         string       `json:"email" validate:"required,email"`
	Reason        string       `json:"reason" validate:"required,max=2000"`
	IBAN          string       `json:"iban,omitempty"`
	Items         []ReturnItem `json:"items" validate:"required,min=1,dive"`
	Lang          string       `json:"lang"`
}
