// Package session persists the customer identity of a browser between
// requests and keys the per-browser checkout state.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-checkout/internal/domain"
)

// ErrInvalidProfile is returned for a profile cookie that fails verification.
var ErrInvalidProfile = errors.New("invalid session profile")

// Session is the restored identity: the customer profile plus the backend auth
// token (the auth marker).
type Session struct {
	Customer domain.Customer
	Token    string
}

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Customer.HasID()
}

// Store loads and persists a Session. Implementations are bound to one request.
type Store interface {
	Load() (Session, bool)
	Save(s Session) error
	Clear()
}

type profileClaims struct {
	Customer domain.Customer `json:"customer"`
	jwt.RegisteredClaims
}

// Codec signs the serialized customer profile so it cannot be edited client-side.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL is the lifetime of issued profiles.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Encode(customer domain.Customer) (string, error) {
	now := time.Now()
	claims := profileClaims{
		Customer: customer.Public(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", customer.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) Decode(raw string) (domain.Customer, error) {
	token, err := jwt.ParseWithClaims(raw, &profileClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	claims, ok := token.Claims.(*profileClaims)
	if !ok || !token.Valid {
		return domain.Customer{}, ErrInvalidProfile
	}
	return claims.Customer, nil
}
