package httpserver

import (
	"net/http"

	"tailorshop/internal/checkout"
	"tailorshop/internal/domain"
	"tailorshop/internal/fulfillment"
	cartsvc "tailorshop/internal/service/cart"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	Items           []domain.CartItem `json:"items"`
	FixedPriceTotal decimal.Decimal   `json:"fixedPriceTotal"`
	HasDeferred     bool              `json:"hasDeferred"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func newCartResponse(items []domain.CartItem) cartResponse {
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:           items,
		FixedPriceTotal: checkout.FixedPriceTotal(items),
		HasDeferred:     fulfillment.Classify(items).HasDeferred(),
	}
}

func (h *handlers) getCart(c *gin.Context) {
	s, _ := currentSession(c)
	items, err := h.deps.Cart.Items(c.Request.Context(), s.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(items))
}

func (h *handlers) addCartItem(c *gin.Context) {
	s, _ := currentSession(c)
	var req cartsvc.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	items, err := h.deps.Cart.Add(c.Request.Context(), s.Subject, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(items))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	s, _ := currentSession(c)
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	items, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), s.Subject, c.Param("id"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(items))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	s, _ := currentSession(c)
	items, err := h.deps.Cart.Remove(c.Request.Context(), s.Subject, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(items))
}

func (h *handlers) clearCart(c *gin.Context) {
	s, _ := currentSession(c)
	if err := h.deps.Cart.Clear(c.Request.Context(), s.Subject); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
