package payment

import (
	"errors"
	"fmt"

	"tailorshop/internal/domain"
)

var (
	// ErrOnlinePaymentUnavailable is returned when the target has no known positive amount.
	ErrOnlinePaymentUnavailable = fmt.Errorf("%w: online payment will be available after the final amount is set, please use Cash on Delivery", domain.ErrConflict)
	// ErrAlreadyPaid is returned when the target group is already settled.
	ErrAlreadyPaid = fmt.Errorf("%w: already paid", domain.ErrConflict)
	// ErrGroupLocked is returned when the target group was delivered.
	ErrGroupLocked = fmt.Errorf("%w: group already delivered", domain.ErrConflict)
	// ErrAttemptInFlight is returned when another attempt for the same target is open.
	ErrAttemptInFlight = fmt.Errorf("%w: a payment for this order is already in progress", domain.ErrConflict)
	// ErrInvalidState is returned when an attempt receives an event its state does not accept.
	ErrInvalidState = fmt.Errorf("%w: payment attempt is not awaiting this step", domain.ErrConflict)
	// ErrAttemptNotFound is returned for unknown or already resolved attempts.
	ErrAttemptNotFound = fmt.Errorf("payment attempt: %w", domain.ErrNotFound)
)

// NetworkError wraps a failed or non-2xx call to the gateway. It is not retried.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("payment gateway unavailable during %s, please try again: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Unavailable wraps a failed gateway call in a NetworkError. Validation errors
// and errors that already are a NetworkError pass through.
func Unavailable(op string, err error) error {
	var nerr *NetworkError
	if err == nil || domain.IsValidation(err) || errors.As(err, &nerr) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}

// VerificationError means the gateway proof did not check out. The attempt is over
// and a human reconciles it using PaymentID.
type VerificationError struct {
	PaymentID string
	Err       error
}

func (e *VerificationError) Error() string {
	if e.PaymentID == "" {
		return fmt.Sprintf("payment verification failed: %v", e.Err)
	}
	return fmt.Sprintf("payment verification failed, contact support with payment ID %s: %v", e.PaymentID, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// PartialUpdateError means the payment was verified but recording it failed.
// Money may have moved, so the error carries the payment id for manual follow-up.
type PartialUpdateError struct {
	PaymentID string
	Err       error
}

func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("payment received but the order was not updated, contact support with payment ID %s: %v", e.PaymentID, e.Err)
}

func (e *PartialUpdateError) Unwrap() error { return e.Err }

// DuplicatePaymentError is returned when a group already settled under one
// payment id receives another captured payment. The group keeps SettledID;
// PaymentID needs a refund.
type DuplicatePaymentError struct {
	PaymentID string
	SettledID string
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("already paid with payment ID %s, contact support with payment ID %s", e.SettledID, e.PaymentID)
}

func (e *DuplicatePaymentError) Unwrap() error { return ErrAlreadyPaid }

// PaymentIDOf extracts the payment id carried by a verification, partial update
// or duplicate payment error.
func PaymentIDOf(err error) string {
	var d *DuplicatePaymentError
	if errors.As(err, &d) {
		return d.PaymentID
	}
	var v *VerificationError
	if errors.As(err, &v) {
		return v.PaymentID
	}
	var p *PartialUpdateError
	if errors.As(err, &p) {
		return p.PaymentID
	}
	return ""
}
