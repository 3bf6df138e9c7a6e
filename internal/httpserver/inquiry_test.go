package httpserver

import (
	"context"
	"net/http"
	"testing"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
)

type stubInquiryService struct {
	lastInquiry *domain.Inquiry
	lastReturn  *domain.ReturnRequest
	lastAuth    backend.Auth
	err         error
}

func (s *stubInquiryService) Contact(_ context.Context, auth backend.Auth, in domain.Inquiry) error {
	s.lastAuth = auth
	s.lastInquiry = &in
	return s.err
}

func (s *stubInquiryService) B2B(_ context.Context, auth backend.Auth, in domain.Inquiry) error {
	s.lastAuth = auth
	in.Kind = domain.InquiryB2B
	s.lastInquiry = &in
	return s.err
}

func (s *stubInquiryService) Return(_ context.Context, auth backend.Auth, in domain.ReturnRequest) error {
	s.lastAuth = auth
	s.lastReturn = &in
	return s.err
}

func TestContactInquiry(t *testing.T) {
	router, env := newTestRouter(t)

	rec := env.do(router, http.MethodPost, "/en/contact", `{"name":"Ana","email":"a@b.com","message":"Hi"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rec.Code, rec.Body.String())
	}
	if env.inquiries.lastInquiry == nil || env.inquiries.lastInquiry.Lang != "en" {
		t.Fatalf("expected inquiry with lang, got %+v", env.inquiries.lastInquiry)
	}
	if env.inquiries.lastAuth.TenantKey != "shop" || env.inquiries.lastAuth.Token != "" {
		t.Fatalf("unexpected auth %+v", env.inquiries.lastAuth)
	}
}

func TestB2BInquiry_ValidationError(t *testing.T) {
	router, env := newTestRouter(t)
	env.inquiries.err = &domain.ValidationError{Form: "b2b", Fields: domain.ValidationMap{
		"companyName": {Valid: false, Message: "validation.required"},
	}}

	rec := env.do(router, http.MethodPost, "/ro/b2b", `{"name":"Ana","email":"a@b.com","message":"Hi"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestReturnRequest_BadBody(t *testing.T) {
	router, env := newTestRouter(t)

	rec := env.do(router, http.MethodPost, "/ro/returns", `{"items":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.inquiries.lastReturn != nil {
		t.Fatalf("expected no call for a malformed body")
	}
}
