package httpserver

import (
	"errors"
	"net/http"

	"tailorshop/internal/domain"
	"tailorshop/internal/payment"
	customersvc "tailorshop/internal/service/customer"
	"tailorshop/internal/session"

	"github.com/gin-gonic/gin"
)

var errForbidden = errors.New("forbidden")

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	PaymentID string    `json:"paymentId,omitempty"`
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		validation *domain.ValidationError
		network    *payment.NetworkError
		verify     *payment.VerificationError
		partial    *payment.PartialUpdateError
		duplicate  *payment.DuplicatePaymentError
	)
	resp := errorResponse{Error: errorBody{Message: err.Error()}}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		resp.Error.Code = "invalid_request"
		resp.Error.Field = validation.Field
		resp.Error.Message = validation.Message
	case errors.As(err, &partial):
		status = http.StatusBadGateway
		resp.Error.Code = "payment_not_recorded"
		resp.PaymentID = partial.PaymentID
	case errors.As(err, &verify):
		status = http.StatusPaymentRequired
		resp.Error.Code = "payment_verification_failed"
		resp.PaymentID = verify.PaymentID
	case errors.As(err, &duplicate):
		status = http.StatusConflict
		resp.Error.Code = "duplicate_payment"
		resp.PaymentID = duplicate.PaymentID
	case errors.As(err, &network):
		status = http.StatusBadGateway
		resp.Error.Code = "gateway_unavailable"
	case errors.Is(err, customersvc.ErrInvalidCredentials), errors.Is(err, session.ErrInvalidToken):
		status = http.StatusUnauthorized
		resp.Error.Code = "unauthorized"
	case errors.Is(err, errForbidden):
		status = http.StatusForbidden
		resp.Error.Code = "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		resp.Error.Code = "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
		resp.Error.Code = "already_exists"
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		resp.Error.Code = "conflict"
	default:
		resp.Error.Code = "internal"
		resp.Error.Message = "internal error"
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{Code: "invalid_request", Message: message}})
}
