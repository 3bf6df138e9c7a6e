package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Cookie names.
const (
	ProfileCookie  = "customer"
	AuthCookie     = "auth"
	CheckoutCookie = "checkout_sid"
)

// CookieOptions controls the attributes of every session cookie.
type CookieOptions struct {
	Domain string
	Secure bool
}

// CookieStore keeps the session in two cookies: the signed profile and the
// auth marker holding the backend token. Both must be present to restore.
type CookieStore struct {
	c     *gin.Context
	codec *Codec
	opts  CookieOptions
}

func NewCookieStore(c *gin.Context, codec *Codec, opts CookieOptions) *CookieStore {
	return &CookieStore{c: c, codec: codec, opts: opts}
}

func (s *CookieStore) Load() (Session, bool) {
	rawProfile, err := s.c.Cookie(ProfileCookie)
	if err != nil || rawProfile == "" {
		return Session{}, false
	}
	token, err := s.c.Cookie(AuthCookie)
	if err != nil || token == "" {
		return Session{}, false
	}
	customer, err := s.codec.Decode(rawProfile)
	if err != nil {
		return Session{}, false
	}
	sess := Session{Customer: customer, Token: token}
	if !sess.Authenticated() {
		return Session{}, false
	}
	return sess, true
}

func (s *CookieStore) Save(sess Session) error {
	profile, err := s.codec.Encode(sess.Customer)
	if err != nil {
		return err
	}
	maxAge := int(s.codec.TTL() / time.Second)
	s.set(ProfileCookie, profile, maxAge)
	s.set(AuthCookie, sess.Token, maxAge)
	return nil
}

func (s *CookieStore) Clear() {
	s.set(ProfileCookie, "", -1)
	s.set(AuthCookie, "", -1)
}

func (s *CookieStore) set(name, value string, maxAge int) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(name, value, maxAge, "/", s.opts.Domain, s.opts.Secure, true)
}

// CheckoutID returns the checkout session id of the browser, issuing a new one
// when the cookie is missing or malformed.
func CheckoutID(c *gin.Context, opts CookieOptions) string {
	if raw, err := c.Cookie(CheckoutCookie); err == nil {
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CheckoutCookie, id, 0, "/", opts.Domain, opts.Secure, true)
	return id
}
