package order

import (
	"encoding/json"
	"fmt"
	"time"

	"tailorshop/internal/domain"
	"tailorshop/internal/repository/pgval"

	"github.com/jackc/pgx/v5"
)

const (
	schemaLegacy = 1
	schemaSplit  = 2
)

const orderColumns = `
    id::text, schema_version,
    customer_name, customer_address, customer_phone, customer_email,
    items, note, total::text, payment_method,
    status, payment_status, admin_total::text, payment_id,
    laundry_status, laundry_admin_total::text, laundry_payment_status, laundry_payment_id,
    laundry_gateway_order_id, laundry_signature, laundry_payment_updated_at,
    readymade_status, readymade_admin_total::text, readymade_payment_status, readymade_payment_id,
    readymade_gateway_order_id, readymade_signature, readymade_payment_updated_at,
    created_at, updated_at`

// storedOrder is one of the two row layouts found in the orders table.
type storedOrder interface {
	normalize() (domain.Order, error)
}

type orderBase struct {
	id            string
	customer      domain.Customer
	items         []byte
	note          string
	total         string
	paymentMethod string
	createdAt     time.Time
	updatedAt     time.Time
}

type legacyOrder struct {
	orderBase
	status        *string
	paymentStatus *string
	adminTotal    *string
	paymentID     *string
}

type groupColumns struct {
	status           *string
	adminTotal       *string
	paymentStatus    *string
	paymentID        *string
	gatewayOrderID   *string
	signature        *string
	paymentUpdatedAt *time.Time
}

type splitOrder struct {
	orderBase
	laundry   groupColumns
	readymade groupColumns
}

func scanStored(row pgx.Row) (storedOrder, error) {
	var (
		base      orderBase
		version   int16
		legacy    legacyOrder
		laundry   groupColumns
		readymade groupColumns
	)
	if err := row.Scan(
		&base.id, &version,
		&base.customer.Name, &base.customer.Address, &base.customer.Phone, &base.customer.Email,
		&base.items, &base.note, &base.total, &base.paymentMethod,
		&legacy.status, &legacy.paymentStatus, &legacy.adminTotal, &legacy.paymentID,
		&laundry.status, &laundry.adminTotal, &laundry.paymentStatus, &laundry.paymentID,
		&laundry.gatewayOrderID, &laundry.signature, &laundry.paymentUpdatedAt,
		&readymade.status, &readymade.adminTotal, &readymade.paymentStatus, &readymade.paymentID,
		&readymade.gatewayOrderID, &readymade.signature, &readymade.paymentUpdatedAt,
		&base.createdAt, &base.updatedAt,
	); err != nil {
		return nil, err
	}
	switch version {
	case schemaLegacy:
		legacy.orderBase = base
		return legacy, nil
	case schemaSplit:
		return splitOrder{orderBase: base, laundry: laundry, readymade: readymade}, nil
	}
	return nil, fmt.Errorf("order %s: unknown schema version %d", base.id, version)
}

func (b orderBase) order() (domain.Order, error) {
	o := domain.Order{
		ID:            b.id,
		Customer:      b.customer,
		Note:          b.note,
		PaymentMethod: domain.PaymentMethod(b.paymentMethod),
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.updatedAt,
		Items:         []domain.CartItem{},
	}
	if len(b.items) > 0 {
		if err := json.Unmarshal(b.items, &o.Items); err != nil {
			return o, fmt.Errorf("order %s items: %w", b.id, err)
		}
	}
	total, err := pgval.ParseNumeric(b.total)
	if err != nil {
		return o, err
	}
	o.FixedPriceTotal = total
	return o, nil
}

func (l legacyOrder) normalize() (domain.Order, error) {
	o, err := l.order()
	if err != nil {
		return o, err
	}
	status := parseStatus(l.status)
	paid := parsePayment(l.paymentStatus, domain.PaymentPending)
	adminTotal, err := pgval.ParseNullNumeric(l.adminTotal)
	if err != nil {
		return o, err
	}
	o.Laundry = domain.GroupState{
		Status:        status,
		AdminTotal:    adminTotal,
		PaymentStatus: paid,
		PaymentID:     pgval.Str(l.paymentID),
	}
	o.Readymade = domain.GroupState{
		Status:        status,
		PaymentStatus: paid,
		PaymentID:     pgval.Str(l.paymentID),
	}
	return o, nil
}

func (s splitOrder) normalize() (domain.Order, error) {
	o, err := s.order()
	if err != nil {
		return o, err
	}
	if o.Laundry, err = s.laundry.state(domain.PaymentPending); err != nil {
		return o, err
	}
	if o.Readymade, err = s.readymade.state(domain.PaymentCashOnDelivery); err != nil {
		return o, err
	}
	return o, nil
}

func (g groupColumns) state(defaultPayment domain.PaymentStatus) (domain.GroupState, error) {
	adminTotal, err := pgval.ParseNullNumeric(g.adminTotal)
	if err != nil {
		return domain.GroupState{}, err
	}
	return domain.GroupState{
		Status:           parseStatus(g.status),
		AdminTotal:       adminTotal,
		PaymentStatus:    parsePayment(g.paymentStatus, defaultPayment),
		PaymentID:        pgval.Str(g.paymentID),
		GatewayOrderID:   pgval.Str(g.gatewayOrderID),
		Signature:        pgval.Str(g.signature),
		PaymentUpdatedAt: g.paymentUpdatedAt,
	}, nil
}

// Unknown or missing values fall back to the defaults of a fresh order.
func parseStatus(s *string) domain.Status {
	if s == nil {
		return domain.StatusPending
	}
	st, err := domain.ParseStatus(*s)
	if err != nil {
		return domain.StatusPending
	}
	return st
}

func parsePayment(s *string, fallback domain.PaymentStatus) domain.PaymentStatus {
	if s == nil {
		return fallback
	}
	ps, err := domain.ParsePaymentStatus(*s)
	if err != nil {
		return fallback
	}
	return ps
}

// splitArgs flattens a group for the *_status ... *_payment_updated_at columns.
func splitArgs(g domain.GroupState) []any {
	return []any{
		string(g.Status),
		pgval.NullNumeric(g.AdminTotal),
		string(g.PaymentStatus),
		g.PaymentID,
		g.GatewayOrderID,
		g.Signature,
		g.PaymentUpdatedAt,
	}
}
