package httpserver

import (
	"fmt"
	"net/http"

	"tailorshop/internal/domain"
	altsvc "tailorshop/internal/service/alteration"
	"tailorshop/internal/service/reconcile"

	"github.com/gin-gonic/gin"
)

func (h *handlers) bookAlteration(c *gin.Context) {
	var req altsvc.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	var email string
	if s, ok := currentSession(c); ok {
		email = s.Email
	}
	a, err := h.deps.Alterations.Book(c.Request.Context(), email, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handlers) listAlterations(c *gin.Context) {
	list, err := h.deps.Alterations.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) myAlterations(c *gin.Context) {
	s, _ := currentSession(c)
	list, err := h.deps.Alterations.ListForCustomer(c.Request.Context(), s.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) setAlterationStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	a, err := h.deps.Reconcile.SetAlterationStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) setAlterationTotal(c *gin.Context) {
	var req totalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if req.AdminTotal == nil {
		badRequest(c, "adminTotal is required")
		return
	}
	a, err := h.deps.Reconcile.SetAlterationAdminTotal(c.Request.Context(), c.Param("id"), *req.AdminTotal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) setAlterationPayment(c *gin.Context) {
	s, _ := currentSession(c)
	var req reconcile.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if !s.IsAdmin() {
		a, err := h.deps.Alterations.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !canAccess(s, a.Customer.Email) {
			writeError(c, fmt.Errorf("alteration %s: %w", a.ID, domain.ErrNotFound))
			return
		}
		if !paidOnly(req) {
			writeError(c, fmt.Errorf("%w: only staff can set this payment status", errForbidden))
			return
		}
	}
	a, err := h.deps.Reconcile.RecordAlterationPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
