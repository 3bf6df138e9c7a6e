package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/backend"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/session"
)

type changeQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// requestAuth returns the backend credentials of the browser: the tenant key
// plus the customer token when the session cookies are intact.
func (h *handlers) requestAuth(c *gin.Context) backend.Auth {
	auth := backend.Auth{TenantKey: tenantFrom(c).Key}
	if sess, ok := session.NewCookieStore(c, h.deps.Codec, h.deps.Cookies).Load(); ok {
		auth.Token = sess.Token
	}
	return auth
}

// cartScope resolves the tenant, the checkout session and the backend
// credentials a cart request runs with.
func (h *handlers) cartScope(c *gin.Context) (tenantID, sessionID string, auth backend.Auth) {
	return tenantFrom(c).ID, session.CheckoutID(c, h.deps.Cookies), h.requestAuth(c)
}

func (h *handlers) getCart(c *gin.Context) {
	tenantID, sessionID, _ := h.cartScope(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addCartLine(c *gin.Context) {
	var req cartsvc.AddLineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadRequest)
		return
	}
	tenantID, sessionID, auth := h.cartScope(c)
	cart, err := h.deps.CartSvc.AddLine(c.Request.Context(), auth, tenantID, sessionID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) changeCartLine(c *gin.Context) {
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadRequest)
		return
	}
	tenantID, sessionID, _ := h.cartScope(c)
	cart, err := h.deps.CartSvc.ChangeQuantity(c.Request.Context(), tenantID, sessionID, c.Param("lineId"), req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) removeCartLine(c *gin.Context) {
	tenantID, sessionID, _ := h.cartScope(c)
	cart, err := h.deps.CartSvc.RemoveLine(c.Request.Context(), tenantID, sessionID, c.Param("lineId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
