package httpserver

import (
	"net/http"

	customersvc "tailorshop/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(c *gin.Context) {
	var req customersvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	auth, err := h.deps.Auth.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, auth)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	auth, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (h *handlers) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	auth, err := h.deps.Auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (h *handlers) guest(c *gin.Context) {
	auth, err := h.deps.Auth.Guest()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, auth)
}

func (h *handlers) logout(c *gin.Context) {
	s, _ := currentSession(c)
	if err := h.deps.Auth.Logout(c.Request.Context(), s); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	s, _ := currentSession(c)
	account, err := h.deps.Auth.Profile(c.Request.Context(), s.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *handlers) updateMe(c *gin.Context) {
	s, _ := currentSession(c)
	var req customersvc.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	account, err := h.deps.Auth.UpdateProfile(c.Request.Context(), s.Subject, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
