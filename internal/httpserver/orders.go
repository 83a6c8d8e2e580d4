package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"tailorshop/internal/domain"
	ordersvc "tailorshop/internal/service/order"
	"tailorshop/internal/service/reconcile"
	"tailorshop/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type statusRequest struct {
	Status string `json:"status"`
}

// totalRequest accepts the generic key and the per-group keys older clients send.
type totalRequest struct {
	AdminTotal          *decimal.Decimal `json:"adminTotal"`
	LaundryAdminTotal   *decimal.Decimal `json:"laundryAdminTotal"`
	ReadymadeAdminTotal *decimal.Decimal `json:"readymadeAdminTotal"`
}

func (r totalRequest) amount(g domain.Group) *decimal.Decimal {
	switch {
	case g == domain.GroupLaundry && r.LaundryAdminTotal != nil:
		return r.LaundryAdminTotal
	case g == domain.GroupReadymade && r.ReadymadeAdminTotal != nil:
		return r.ReadymadeAdminTotal
	}
	return r.AdminTotal
}

func requester(s session.Session) ordersvc.Requester {
	return ordersvc.Requester{Owner: s.Subject, Email: s.Email}
}

// canAccess reports whether s may read an entity placed under email.
// Guest checkouts carry no email and are reachable by id alone.
func canAccess(s session.Session, email string) bool {
	if s.IsAdmin() {
		return true
	}
	if email == "" {
		return true
	}
	return s.Email != "" && strings.EqualFold(s.Email, email)
}

func (h *handlers) draft(c *gin.Context) {
	s, _ := currentSession(c)
	var req ordersvc.DraftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	d, err := h.deps.Orders.Draft(c.Request.Context(), requester(s), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) createOrder(c *gin.Context) {
	s, _ := currentSession(c)
	var req ordersvc.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	o, err := h.deps.Orders.Create(c.Request.Context(), requester(s), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) myOrders(c *gin.Context) {
	s, _ := currentSession(c)
	orders, err := h.deps.Orders.ListForCustomer(c.Request.Context(), s.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) getOrder(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

// loadOrder fetches the :id order and writes the error response itself.
func (h *handlers) loadOrder(c *gin.Context) (*domain.Order, bool) {
	s, _ := currentSession(c)
	o, err := h.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !canAccess(s, o.Customer.Email) {
		// Hide existence from other customers.
		writeError(c, fmt.Errorf("order %s: %w", c.Param("id"), domain.ErrNotFound))
		return nil, false
	}
	return o, true
}

func (h *handlers) setOrderStatus(g domain.Group) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json body")
			return
		}
		o, err := h.deps.Reconcile.SetStatus(c.Request.Context(), c.Param("id"), g, req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func (h *handlers) setOrderTotal(g domain.Group) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req totalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json body")
			return
		}
		amount := req.amount(g)
		if amount == nil {
			badRequest(c, "adminTotal is required")
			return
		}
		o, err := h.deps.Reconcile.SetAdminTotal(c.Request.Context(), c.Param("id"), g, *amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func (h *handlers) setOrderPayment(g domain.Group) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, _ := currentSession(c)
		var req reconcile.PaymentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json body")
			return
		}
		if !s.IsAdmin() {
			if _, ok := h.loadOrder(c); !ok {
				return
			}
			if !paidOnly(req) {
				writeError(c, fmt.Errorf("%w: only staff can set this payment status", errForbidden))
				return
			}
		}
		o, err := h.deps.Reconcile.RecordPayment(c.Request.Context(), c.Param("id"), g, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// paidOnly reports whether a client-side payment update only claims Paid.
func paidOnly(in reconcile.PaymentInput) bool {
	st, err := domain.ParsePaymentStatus(in.PaymentStatus)
	return err == nil && st == domain.PaymentPaid
}
