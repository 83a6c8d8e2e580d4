package domain

import (
	"fmt"
	"strings"
)

// Group identifies an independently priced, paid and tracked part of an order.
type Group string

const (
	GroupLaundry    Group = "laundry"
	GroupReadymade  Group = "readymade"
	GroupAlteration Group = "alteration"
)

// ParseGroup accepts the order groups used in routes ("laundry", "readymade").
func ParseGroup(raw string) (Group, error) {
	switch Group(strings.ToLower(strings.TrimSpace(raw))) {
	case GroupLaundry:
		return GroupLaundry, nil
	case GroupReadymade:
		return GroupReadymade, nil
	case GroupAlteration:
		return GroupAlteration, nil
	}
	return "", NewValidationError("group", fmt.Sprintf("unknown fulfillment group %q", raw))
}

// Status is the delivery status of a group.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusAccepted  Status = "Accepted"
	StatusCompleted Status = "Completed"
	StatusDelivered Status = "Delivered"
	StatusRejected  Status = "Rejected"
)

var statuses = []Status{StatusPending, StatusAccepted, StatusCompleted, StatusDelivered, StatusRejected}

// ParseStatus matches case-insensitively, so stored lowercase values normalize too.
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	for _, s := range statuses {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("status must be one of Pending, Accepted, Completed, Delivered, Rejected; got %q", raw))
}

// PaymentStatus is the settlement state of a group.
type PaymentStatus string

const (
	PaymentPaid           PaymentStatus = "Paid"
	PaymentCashOnDelivery PaymentStatus = "Cash on Delivery"
	PaymentPending        PaymentStatus = "Pending"
	PaymentFailed         PaymentStatus = "Failed"
)

// ParsePaymentStatus matches case-insensitively and accepts "cod" for cash on delivery.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	v := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(v, string(PaymentPaid)):
		return PaymentPaid, nil
	case strings.EqualFold(v, string(PaymentCashOnDelivery)), strings.EqualFold(v, "cod"):
		return PaymentCashOnDelivery, nil
	case strings.EqualFold(v, string(PaymentPending)):
		return PaymentPending, nil
	case strings.EqualFold(v, string(PaymentFailed)):
		return PaymentFailed, nil
	}
	return "", NewValidationError("paymentStatus", fmt.Sprintf("unknown payment status %q", raw))
}

// PaymentMethod is what the customer chose at checkout.
type PaymentMethod string

const (
	MethodCashOnDelivery PaymentMethod = "cod"
	MethodOnline         PaymentMethod = "online"
)

// ParsePaymentMethod defaults to cash on delivery when raw is empty.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "", "cod", "cash on delivery":
		return MethodCashOnDelivery, nil
	case "online", "razorpay", "pending":
		return MethodOnline, nil
	}
	return "", NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", raw))
}
