package billing

import (
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSubmittedEvent is raised when a resident reports a payment
type PaymentSubmittedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	UnitID        uuid.UUID       `json:"unit_id"`
	UnitLabel     string          `json:"unit_label"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Reference     string          `json:"reference"`
	PaymentDate   time.Time       `json:"payment_date"`
	SubmittedBy   uuid.UUID       `json:"submitted_by"`
}

// EventType returns the event type name
func (e *PaymentSubmittedEvent) EventType() string {
	return "PaymentSubmitted"
}

// NewPaymentSubmittedEvent creates a new PaymentSubmittedEvent
func NewPaymentSubmittedEvent(p *Payment) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentSubmitted", "Payment", p.ID, p.BuildingID),
		PaymentID:       p.ID,
		UnitID:          p.UnitID,
		UnitLabel:       p.UnitLabel,
		Amount:          p.Amount,
		PaymentMethod:   p.PaymentMethod,
		Reference:       p.Reference,
		PaymentDate:     p.PaymentDate,
		SubmittedBy:     p.SubmittedBy,
	}
}

// AllocationDetail describes one allocation inside an approval event
type AllocationDetail struct {
	InvoiceID uuid.UUID          `json:"invoice_id"`
	Period    valueobject.Period `json:"period"`
	Amount    decimal.Decimal    `json:"amount"`
}

// PaymentApprovedEvent is raised when a payment is approved and applied
type PaymentApprovedEvent struct {
	shared.BaseDomainEvent
	PaymentID         uuid.UUID          `json:"payment_id"`
	UnitID            uuid.UUID          `json:"unit_id"`
	Amount            decimal.Decimal    `json:"amount"`
	AllocatedAmount   decimal.Decimal    `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal    `json:"unallocated_amount"`
	Allocations       []AllocationDetail `json:"allocations"`
	ApprovedBy        uuid.UUID          `json:"approved_by"`
	ApprovedAt        time.Time          `json:"approved_at"`
}

// EventType returns the event type name
func (e *PaymentApprovedEvent) EventType() string {
	return "PaymentApproved"
}

// NewPaymentApprovedEvent creates a new PaymentApprovedEvent
func NewPaymentApprovedEvent(p *Payment) *PaymentApprovedEvent {
	approvedAt := time.Now()
	if p.ApprovedAt != nil {
		approvedAt = *p.ApprovedAt
	}
	var approvedBy uuid.UUID
	if p.ApprovedBy != nil {
		approvedBy = *p.ApprovedBy
	}
	details := make([]AllocationDetail, 0, len(p.Allocations))
	for _, alloc := range p.Allocations {
		details = append(details, AllocationDetail{
			InvoiceID: alloc.InvoiceID,
			Period:    alloc.Period,
			Amount:    alloc.Amount,
		})
	}
	return &PaymentApprovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("PaymentApproved", "Payment", p.ID, p.BuildingID),
		PaymentID:         p.ID,
		UnitID:            p.UnitID,
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedAmount,
		UnallocatedAmount: p.UnallocatedAmount,
		Allocations:       details,
		ApprovedBy:        approvedBy,
		ApprovedAt:        approvedAt,
	}
}

// PaymentRejectedEvent is raised when a payment is rejected
type PaymentRejectedEvent struct {
	shared.BaseDomainEvent
	PaymentID       uuid.UUID       `json:"payment_id"`
	UnitID          uuid.UUID       `json:"unit_id"`
	Amount          decimal.Decimal `json:"amount"`
	RejectionReason string          `json:"rejection_reason"`
	RejectedBy      uuid.UUID       `json:"rejected_by"`
	RejectedAt      time.Time       `json:"rejected_at"`
}

// EventType returns the event type name
func (e *PaymentRejectedEvent) EventType() string {
	return "PaymentRejected"
}

// NewPaymentRejectedEvent creates a new PaymentRejectedEvent
func NewPaymentRejectedEvent(p *Payment) *PaymentRejectedEvent {
	rejectedAt := time.Now()
	if p.RejectedAt != nil {
		rejectedAt = *p.RejectedAt
	}
	var rejectedBy uuid.UUID
	if p.RejectedBy != nil {
		rejectedBy = *p.RejectedBy
	}
	return &PaymentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRejected", "Payment", p.ID, p.BuildingID),
		PaymentID:       p.ID,
		UnitID:          p.UnitID,
		Amount:          p.Amount,
		RejectionReason: p.RejectionReason,
		RejectedBy:      rejectedBy,
		RejectedAt:      rejectedAt,
	}
}
