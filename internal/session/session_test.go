package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/domain"
)

func testContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req
	return c, rec
}

func TestCodec_RejectsTamperedProfile(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	raw, err := codec.Encode(domain.Customer{ID: 9, Name: "Ana", Email: "a@b.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 9 || got.Password != "" {
		t.Fatalf("unexpected profile %+v", got)
	}

	other := NewCodec("other-secret", time.Hour)
	if _, err := other.Decode(raw); err == nil {
		t.Fatalf("expected profile signed with another secret to be rejected")
	}
}

func TestCookieStore_LoadRequiresBothCookies(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	profile, err := codec.Encode(domain.Customer{ID: 4, Email: "a@b.com"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	c, _ := testContext(&http.Cookie{Name: ProfileCookie, Value: profile})
	if _, ok := NewCookieStore(c, codec, CookieOptions{}).Load(); ok {
		t.Fatalf("expected no session without auth marker")
	}

	c, _ = testContext(&http.Cookie{Name: AuthCookie, Value: "tok"})
	if _, ok := NewCookieStore(c, codec, CookieOptions{}).Load(); ok {
		t.Fatalf("expected no session without profile")
	}

	c, _ = testContext(
		&http.Cookie{Name: ProfileCookie, Value: profile},
		&http.Cookie{Name: AuthCookie, Value: "tok"},
	)
	sess, ok := NewCookieStore(c, codec, CookieOptions{}).Load()
	if !ok || sess.Customer.ID != 4 || sess.Token != "tok" {
		t.Fatalf("expected restored session, got %+v ok=%v", sess, ok)
	}
}

func TestCookieStore_SaveAndClear(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	c, rec := testContext()
	store := NewCookieStore(c, codec, CookieOptions{Secure: true})
	if err := store.Save(Session{Customer: domain.Customer{ID: 1}, Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	header := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	if !strings.Contains(header, ProfileCookie+"=") || !strings.Contains(header, AuthCookie+"=tok") {
		t.Fatalf("expected both cookies to be set, got %s", header)
	}

	c, rec = testContext()
	NewCookieStore(c, codec, CookieOptions{}).Clear()
	header = strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	if !strings.Contains(header, "Max-Age=0") {
		t.Fatalf("expected cookies to expire, got %s", header)
	}
}

func TestCheckoutID_ReusesValidCookie(t *testing.T) {
	c, _ := testContext(&http.Cookie{Name: CheckoutCookie, Value: "3f1c2a3e-1b2c-4d5e-8f90-123456789abc"})
	if got := CheckoutID(c, CookieOptions{}); got != "3f1c2a3e-1b2c-4d5e-8f90-123456789abc" {
		t.Fatalf("expected existing id, got %s", got)
	}

	c, rec := testContext(&http.Cookie{Name: CheckoutCookie, Value: "garbage"})
	got := CheckoutID(c, CookieOptions{})
	if got == "garbage" || got == "" {
		t.Fatalf("expected a fresh id, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), CheckoutCookie+"="+got) {
		t.Fatalf("expected new checkout cookie to be set")
	}
}
