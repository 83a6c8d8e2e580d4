package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tailorshop/internal/domain"
	"tailorshop/internal/payment"
	"tailorshop/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type beginResponse struct {
	Attempt payment.Attempt       `json:"attempt"`
	Options payment.WidgetOptions `json:"options"`
}

type gatewayOrderRequest struct {
	Amount  decimal.Decimal       `json:"amount"`
	Receipt string                `json:"receipt"`
	Target  *domain.PaymentTarget `json:"target"`
}

type gatewayOrderResponse struct {
	payment.GatewayOrder
	Key string `json:"key,omitempty"`
}

// authorizeTarget checks that s may pay for target.
func (h *handlers) authorizeTarget(ctx context.Context, s session.Session, target domain.PaymentTarget) error {
	if s.IsAdmin() {
		return nil
	}
	var email string
	switch target.Kind {
	case domain.TargetOrder:
		o, err := h.deps.Orders.Get(ctx, target.EntityID)
		if err != nil {
			return err
		}
		email = o.Customer.Email
	case domain.TargetAlteration:
		a, err := h.deps.Alterations.Get(ctx, target.EntityID)
		if err != nil {
			return err
		}
		email = a.Customer.Email
	default:
		return domain.NewValidationError("kind", "payment target must be an order or an alteration")
	}
	if !canAccess(s, email) {
		return fmt.Errorf("%s %s: %w", target.Kind, target.EntityID, domain.ErrNotFound)
	}
	return nil
}

func (h *handlers) beginPayment(c *gin.Context) {
	s, _ := currentSession(c)
	var target domain.PaymentTarget
	if err := c.ShouldBindJSON(&target); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if target.Kind == domain.TargetAlteration && target.Group == "" {
		target.Group = domain.GroupAlteration
	}
	if err := h.authorizeTarget(c.Request.Context(), s, target); err != nil {
		writeError(c, err)
		return
	}
	attempt, opts, err := h.deps.Payments.Begin(c.Request.Context(), target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, beginResponse{Attempt: attempt, Options: opts})
}

func (h *handlers) getPayment(c *gin.Context) {
	attempt, err := h.deps.Payments.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (h *handlers) completePayment(c *gin.Context) {
	var proof payment.Proof
	if err := c.ShouldBindJSON(&proof); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	attempt, err := h.deps.Payments.Complete(c.Request.Context(), c.Param("id"), proof)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (h *handlers) dismissPayment(c *gin.Context) {
	attempt, err := h.deps.Payments.Dismiss(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// razorpayOrder creates a gateway order for clients that drive the widget
// themselves. Only orders created with a target can later mark that target Paid.
func (h *handlers) razorpayOrder(c *gin.Context) {
	var req gatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if !req.Amount.IsPositive() {
		badRequest(c, "amount must be positive")
		return
	}
	if req.Target != nil {
		if req.Target.Kind == domain.TargetAlteration && req.Target.Group == "" {
			req.Target.Group = domain.GroupAlteration
		}
		if err := req.Target.Validate(); err != nil {
			writeError(c, err)
			return
		}
		s, _ := currentSession(c)
		if err := h.authorizeTarget(c.Request.Context(), s, *req.Target); err != nil {
			writeError(c, err)
			return
		}
	}
	receipt := req.Receipt
	if receipt == "" {
		receipt = "rcpt_" + uuid.NewString()[:8]
	}
	order, err := h.deps.Gateway.CreateOrder(c.Request.Context(), payment.OrderRequest{
		Amount:  req.Amount,
		Receipt: receipt,
		Target:  req.Target,
	})
	if err != nil {
		writeError(c, payment.Unavailable("create order", err))
		return
	}
	resp := gatewayOrderResponse{GatewayOrder: order}
	if k, ok := h.deps.Gateway.(interface{ KeyID() string }); ok {
		resp.Key = k.KeyID()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) razorpayVerify(c *gin.Context) {
	var proof payment.Proof
	if err := c.ShouldBindJSON(&proof); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	err := h.deps.Gateway.Verify(c.Request.Context(), proof)
	var network *payment.NetworkError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.As(err, &network):
		writeError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"success": false, "paymentId": proof.PaymentID})
	}
}
