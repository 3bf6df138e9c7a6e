package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/address"
	"storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/identity"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/session"
	"storefront-checkout/internal/validation"
)

type handlers struct {
	deps   Deps
	logger *log.Logger
}

// checkoutCtx is one request's view of a browser checkout.
type checkoutCtx struct {
	tenant    *domain.Tenant
	sessionID string
	scope     identity.Scope
	state     *checkout.State
}

func (rc *checkoutCtx) auth() backend.Auth {
	return rc.state.Contact.Auth(rc.tenant.Key)
}

func (rc *checkoutCtx) owner() address.Owner {
	return address.Owner{Auth: rc.auth(), CustomerID: rc.state.Contact.Customer.ID}
}

type checkoutAction func(c *gin.Context, rc *checkoutCtx) error

// checkout runs action against the stored checkout, persists whatever it
// changed (also on failure) and answers with the rendered page.
func (h *handlers) checkout(action checkoutAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, err := h.loadCheckout(c)
		if err != nil {
			h.writeError(c, err)
			return
		}
		actErr := action(c, rc)
		if err := h.deps.CheckoutSvc.Persist(c.Request.Context(), rc.tenant.ID, rc.sessionID, rc.state); err != nil {
			h.logger.Printf("checkout: persist session=%s err=%v", rc.sessionID, err)
			if actErr == nil {
				actErr = err
			}
		}
		if actErr != nil {
			h.writeError(c, actErr)
			return
		}
		h.render(c, rc)
	}
}

func (h *handlers) loadCheckout(c *gin.Context) (*checkoutCtx, error) {
	t := tenantFrom(c)
	sessionID := session.CheckoutID(c, h.deps.Cookies)
	st, err := h.deps.CheckoutSvc.Load(c.Request.Context(), t.ID, sessionID, c.Param("lang"))
	if err != nil {
		return nil, err
	}
	scope := identity.Scope{
		TenantKey: t.Key,
		Store:     session.NewCookieStore(c, h.deps.Codec, h.deps.Cookies),
	}
	signedIn := st.Contact.LoggedIn
	h.deps.IdentitySvc.Restore(scope, &st.Contact)
	if signedIn && !st.Contact.LoggedIn {
		st.ResetAddressBook()
	}
	return &checkoutCtx{tenant: t, sessionID: sessionID, scope: scope, state: st}, nil
}

func (h *handlers) render(c *gin.Context, rc *checkoutCtx) {
	ctx := c.Request.Context()
	cart, err := h.deps.CartSvc.Get(ctx, rc.tenant.ID, rc.sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	payment, courier := h.storeOptions(ctx, rc)
	c.JSON(http.StatusOK, checkout.Render(rc.state, rc.tenant.Fields, *cart, payment, courier))
}

// storeOptions reads shipping and payment configuration. A backend that
// cannot answer leaves card payments off and the courier unknown.
func (h *handlers) storeOptions(ctx context.Context, rc *checkoutCtx) ([]domain.PaymentType, *domain.CourierConfig) {
	var svc domain.PaymentServiceConfig
	if h.deps.StoreConfig == nil {
		return checkout.PaymentOptions(rc.tenant.Fields, svc), nil
	}
	if cfg, err := h.deps.StoreConfig.PaymentServiceConfig(ctx, rc.auth()); err != nil {
		h.logger.Printf("checkout: payment config tenant=%s err=%v", rc.tenant.Key, err)
	} else if cfg != nil {
		svc = *cfg
	}
	courier, err := h.deps.StoreConfig.CourierConfig(ctx, rc.auth())
	if err != nil {
		h.logger.Printf("checkout: courier config tenant=%s err=%v", rc.tenant.Key, err)
		courier = nil
	}
	return checkout.PaymentOptions(rc.tenant.Fields, svc), courier
}

// refresh re-reads the address book; failures keep the held list.
func (h *handlers) refresh(ctx context.Context, rc *checkoutCtx) {
	if err := h.deps.CheckoutSvc.Refresh(ctx, rc.owner(), rc.state); err != nil {
		h.logger.Printf("checkout: refresh addresses session=%s err=%v", rc.sessionID, err)
	}
}

func (h *handlers) viewCheckout(c *gin.Context, rc *checkoutCtx) error {
	if rc.state.Contact.Customer.HasID() {
		h.refresh(c.Request.Context(), rc)
	}
	return nil
}

func (h *handlers) openStep(c *gin.Context, rc *checkoutCtx) error {
	step := checkout.Step(c.Param("step"))
	if !step.Valid() {
		return &domain.ValidationError{Form: "step", Fields: domain.ValidationMap{
			"step": {Valid: false, Message: validation.MsgInvalid},
		}}
	}
	rc.state.OpenStep(step)
	return nil
}

func (h *handlers) closeStep(_ *gin.Context, rc *checkoutCtx) error {
	rc.state.CloseActive()
	return nil
}

func (h *handlers) editContact(_ *gin.Context, rc *checkoutCtx) error {
	rc.state.Contact.Edit()
	return nil
}

func (h *handlers) cancelContact(_ *gin.Context, rc *checkoutCtx) error {
	rc.state.Contact.Cancel()
	return nil
}

func (h *handlers) saveContact(c *gin.Context, rc *checkoutCtx) error {
	var draft identity.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		return errBadRequest
	}
	if _, err := h.deps.IdentitySvc.Save(c.Request.Context(), rc.scope, &rc.state.Contact, draft); err != nil {
		return err
	}
	h.afterIdentityChange(c.Request.Context(), rc)
	return nil
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

func (h *handlers) checkEmail(c *gin.Context, rc *checkoutCtx) error {
	var req checkEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	_, err := h.deps.IdentitySvc.CheckEmailExists(c.Request.Context(), rc.scope, &rc.state.Contact, req.Email)
	return err
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context, rc *checkoutCtx) error {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	if _, err := h.deps.IdentitySvc.Login(c.Request.Context(), rc.scope, &rc.state.Contact, req.Email, req.Password); err != nil {
		return err
	}
	h.afterIdentityChange(c.Request.Context(), rc)
	return nil
}

func (h *handlers) logout(c *gin.Context, rc *checkoutCtx) error {
	h.deps.IdentitySvc.Logout(rc.scope, &rc.state.Contact)
	rc.state.ResetAddressBook()
	rc.state.OpenStep(checkout.StepContact)
	return nil
}

// afterIdentityChange moves past a completed contact step and loads the
// address book of the (possibly new) customer.
func (h *handlers) afterIdentityChange(ctx context.Context, rc *checkoutCtx) {
	if rc.state.ActiveStep == checkout.StepContact && rc.state.Contact.Complete() {
		rc.state.CloseActive()
	}
	rc.state.AssignedAddressID = 0
	h.refresh(ctx, rc)
}

type selectAddressRequest struct {
	Selection domain.Selection `json:"selection"`
}

func (h *handlers) selectAddress(c *gin.Context, rc *checkoutCtx) error {
	var req selectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	return rc.state.SelectAddress(req.Selection)
}

type editAddressRequest struct {
	AddressID int64 `json:"addressId"`
}

func (h *handlers) editAddress(c *gin.Context, rc *checkoutCtx) error {
	var req editAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	return rc.state.StartEdit(req.AddressID)
}

func (h *handlers) cancelAddress(_ *gin.Context, rc *checkoutCtx) error {
	rc.state.CancelEdit()
	return nil
}

// draftRequest carries any subset of the address form; absent parts are left
// as they are.
type draftRequest struct {
	BillingType   *domain.BillingType     `json:"billingType"`
	Billing       *domain.BillingAddress  `json:"billing"`
	Shipping      *domain.ShippingAddress `json:"shipping"`
	SameAsBilling *bool                   `json:"sameAsBilling"`
}

func (h *handlers) updateDraft(c *gin.Context, rc *checkoutCtx) error {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	st := rc.state
	if req.BillingType != nil || req.Billing != nil {
		billingType, billing := st.BillingType, st.Billing
		if req.BillingType != nil {
			billingType = *req.BillingType
		}
		if req.Billing != nil {
			billing = *req.Billing
		}
		st.UpdateBillingDraft(billingType, billing)
	}
	if req.SameAsBilling != nil {
		st.SetSameAsBilling(*req.SameAsBilling)
	}
	if req.Shipping != nil {
		st.UpdateShippingDraft(*req.Shipping)
	}
	return nil
}

func (h *handlers) saveAddress(c *gin.Context, rc *checkoutCtx) error {
	return h.deps.CheckoutSvc.SaveAddress(c.Request.Context(), rc.owner(), rc.state, rc.tenant.Fields)
}

func (h *handlers) requestDelete(c *gin.Context, rc *checkoutCtx) error {
	id, err := addressIDParam(c)
	if err != nil {
		return err
	}
	return rc.state.RequestDelete(id)
}

func (h *handlers) confirmDelete(c *gin.Context, rc *checkoutCtx) error {
	id, err := addressIDParam(c)
	if err != nil {
		return err
	}
	if rc.state.PendingDelete != id {
		return domain.ErrNotFound
	}
	return h.deps.CheckoutSvc.ConfirmDelete(c.Request.Context(), rc.owner(), rc.state)
}

func (h *handlers) cancelDelete(_ *gin.Context, rc *checkoutCtx) error {
	rc.state.CancelDelete()
	return nil
}

type paymentRequest struct {
	PaymentType domain.PaymentType `json:"paymentType"`
	Observation string             `json:"observation"`
}

func (h *handlers) selectPayment(c *gin.Context, rc *checkoutCtx) error {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errBadRequest
	}
	offered, _ := h.storeOptions(c.Request.Context(), rc)
	return rc.state.SelectPayment(req.PaymentType, offered, req.Observation)
}

// submit places the order. The checkout is not persisted afterwards: on
// success the order service has already discarded it.
func (h *handlers) submit(c *gin.Context) {
	rc, err := h.loadCheckout(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	st := rc.state
	assigned, _ := st.AssignedAddress()
	res, err := h.deps.OrderSvc.Submit(c.Request.Context(), order.Submission{
		TenantID:    rc.tenant.ID,
		SessionID:   rc.sessionID,
		Auth:        rc.auth(),
		Customer:    st.Contact.Customer,
		Address:     assigned,
		PaymentType: st.PaymentType,
		Observation: st.Observation,
		Lang:        st.Lang,
	})
	if errors.Is(err, domain.ErrPaymentURLMissing) && res != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         "payment could not be started",
			"code":          "PAYMENT_URL_MISSING",
			"transactionId": res.Order.TransactionID,
		})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func addressIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("addressId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}
