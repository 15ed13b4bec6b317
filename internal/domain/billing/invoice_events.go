package billing

import (
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID          `json:"invoice_id"`
	UnitID      uuid.UUID          `json:"unit_id"`
	UnitLabel   string             `json:"unit_label"`
	Period      valueobject.Period `json:"period"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID, inv.BuildingID),
		InvoiceID:       inv.ID,
		UnitID:          inv.UnitID,
		UnitLabel:       inv.UnitLabel,
		Period:          inv.Period,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate,
	}
}

// InvoicePaidEvent is raised when an invoice is fully paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID          `json:"invoice_id"`
	UnitID      uuid.UUID          `json:"unit_id"`
	Period      valueobject.Period `json:"period"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	PaidAmount  decimal.Decimal    `json:"paid_amount"`
	PaidAt      time.Time          `json:"paid_at"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	paidAt := time.Now()
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.BuildingID),
		InvoiceID:       inv.ID,
		UnitID:          inv.UnitID,
		Period:          inv.Period,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		PaidAt:          paidAt,
	}
}

// InvoicePartiallyPaidEvent is raised when a partial payment is applied
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID         uuid.UUID          `json:"invoice_id"`
	UnitID            uuid.UUID          `json:"unit_id"`
	Period            valueobject.Period `json:"period"`
	PaymentAmount     decimal.Decimal    `json:"payment_amount"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	PaidAmount        decimal.Decimal    `json:"paid_amount"`
	OutstandingAmount decimal.Decimal    `json:"outstanding_amount"`
}

// EventType returns the event type name
func (e *InvoicePartiallyPaidEvent) EventType() string {
	return "InvoicePartiallyPaid"
}

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(inv *Invoice, paymentAmount decimal.Decimal) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("InvoicePartiallyPaid", "Invoice", inv.ID, inv.BuildingID),
		InvoiceID:         inv.ID,
		UnitID:            inv.UnitID,
		Period:            inv.Period,
		PaymentAmount:     paymentAmount,
		TotalAmount:       inv.TotalAmount,
		PaidAmount:        inv.PaidAmount,
		OutstandingAmount: inv.OutstandingAmount,
	}
}

// InvoiceCancelledEvent is raised when an invoice is soft-cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID          `json:"invoice_id"`
	UnitID       uuid.UUID          `json:"unit_id"`
	Period       valueobject.Period `json:"period"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	CancelReason string             `json:"cancel_reason"`
	CancelledAt  time.Time          `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	cancelledAt := time.Now()
	if inv.CancelledAt != nil {
		cancelledAt = *inv.CancelledAt
	}
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID, inv.BuildingID),
		InvoiceID:       inv.ID,
		UnitID:          inv.UnitID,
		Period:          inv.Period,
		TotalAmount:     inv.TotalAmount,
		CancelReason:    inv.CancelReason,
		CancelledAt:     cancelledAt,
	}
}
