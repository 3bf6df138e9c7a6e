package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
)

func (h *handlers) contactInquiry(c *gin.Context) {
	h.inquiry(c, h.deps.InquirySvc.Contact)
}

func (h *handlers) b2bInquiry(c *gin.Context) {
	h.inquiry(c, h.deps.InquirySvc.B2B)
}

func (h *handlers) inquiry(c *gin.Context, send func(ctx context.Context, auth backend.Auth, in domain.Inquiry) error) {
	var req domain.Inquiry
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadRequest)
		return
	}
	req.Lang = c.Param("lang")
	if err := send(c.Request.Context(), h.requestAuth(c), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handlers) returnRequest(c *gin.Context) {
	var req domain.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadRequest)
		return
	}
	req.Lang = c.Param("lang")
	if err := h.deps.InquirySvc.Return(c.Request.Context(), h.requestAuth(c), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
