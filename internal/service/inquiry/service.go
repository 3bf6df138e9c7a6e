// Package inquiry forwards the storefront's after-sales and marketing forms.
package inquiry

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/validation"
)

type backendClient interface {
	CreateInquiry(ctx context.Context, auth backend.Auth, in domain.Inquiry) error
	CreateReturn(ctx context.Context, auth backend.Auth, in domain.ReturnRequest) error
}

type Service struct {
	client backendClient
	logger *log.Logger
}

func New(client backendClient, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{client: client, logger: logger}
}

// Contact sends a message from the contact page.
func (s *Service) Contact(ctx context.Context, auth backend.Auth, in domain.Inquiry) error {
	in.Kind = domain.InquiryContact
	return s.send(ctx, auth, "contact", in)
}

// B2B sends a business inquiry; company name and tax id are required.
func (s *Service) B2B(ctx context.Context, auth backend.Auth, in domain.Inquiry) error {
	in.Kind = domain.InquiryB2B
	return s.send(ctx, auth, "b2b", in)
}

func (s *Service) send(ctx context.Context, auth backend.Auth, form string, in domain.Inquiry) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.CompanyTaxID = strings.TrimSpace(in.CompanyTaxID)
	if err := validation.Struct(form, in); err != nil {
		return err
	}
	if err := s.client.CreateInquiry(ctx, auth, in); err != nil {
		s.logger.Printf("inquiry: send %s email=%s err=%v", form, in.Email, err)
		return fmt.Errorf("send %s inquiry: %w", form, err)
	}
	return nil
}

// Return opens a return request for items of a placed order.
func (s *Service) Return(ctx context.Context, auth backend.Auth, in domain.ReturnRequest) error {
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.IBAN = strings.ToUpper(strings.ReplaceAll(in.IBAN, " ", ""))
	if err := validation.Struct("return", in); err != nil {
		return err
	}
	if err := s.client.CreateReturn(ctx, auth, in); err != nil {
		s.logger.Printf("inquiry: return transaction=%s err=%v", in.TransactionID, err)
		return fmt.Errorf("send return: %w", err)
	}
	return nil
}
