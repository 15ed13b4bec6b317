package billing

import (
	"fmt"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the review status of a reported payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"  // Reported by a resident, awaiting review
	PaymentStatusApproved PaymentStatus = "APPROVED" // Reviewed and applied to the ledger
	PaymentStatusRejected PaymentStatus = "REJECTED" // Reviewed and discarded, ledger untouched
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the payment is in a terminal state.
// Approved and rejected payments are immutable.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// CanReview returns true if the payment can still be approved or rejected
func (s PaymentStatus) CanReview() bool {
	return s == PaymentStatusPending
}

// CanAllocate returns true if allocations can be recorded in this status.
// Allocations are only written during the approval commit.
func (s PaymentStatus) CanAllocate() bool {
	return s == PaymentStatusPending
}

// PaymentMethod represents the method of payment
type PaymentMethod string

const (
	PaymentMethodTransfer  PaymentMethod = "TRANSFER"   // Bank transfer
	PaymentMethodPagoMovil PaymentMethod = "PAGO_MOVIL" // Venezuelan mobile interbank payment
	PaymentMethodCash      PaymentMethod = "CASH"       // Cash payment
	PaymentMethodZelle     PaymentMethod = "ZELLE"      // Zelle transfer
	PaymentMethodOther     PaymentMethod = "OTHER"      // Other methods
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodTransfer, PaymentMethodPagoMovil, PaymentMethodCash,
		PaymentMethodZelle, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// RequiresReference returns true if the method needs an external reference number
func (m PaymentMethod) RequiresReference() bool {
	return m == PaymentMethodTransfer || m == PaymentMethodPagoMovil || m == PaymentMethodZelle
}

// InvoiceAllocation represents the portion of a payment applied to one invoice
type InvoiceAllocation struct {
	ID          uuid.UUID          `json:"id"`
	PaymentID   uuid.UUID          `json:"payment_id"`
	InvoiceID   uuid.UUID          `json:"invoice_id"`
	Period      valueobject.Period `json:"period"` // Denormalized for display
	Amount      decimal.Decimal    `json:"amount"`
	AllocatedAt time.Time          `json:"allocated_at"`
	Remark      string             `json:"remark"`
}

// NewInvoiceAllocation creates a new invoice allocation
func NewInvoiceAllocation(paymentID, invoiceID uuid.UUID, period valueobject.Period, amount decimal.Decimal, remark string) *InvoiceAllocation {
	return &InvoiceAllocation{
		ID:          uuid.New(),
		PaymentID:   paymentID,
		InvoiceID:   invoiceID,
		Period:      period,
		Amount:      amount,
		AllocatedAt: time.Now(),
		Remark:      remark,
	}
}

// Payment represents a payment reported by a resident for review.
// The reported amount stays untouched through its lifecycle; approval
// distributes it over invoices via allocations, and any residual that
// exceeds the unit's debt remains as UnallocatedAmount.
type Payment struct {
	shared.BuildingAggregateRoot
	UnitID            uuid.UUID           `json:"unit_id"`
	UnitLabel         string              `json:"unit_label"`
	Amount            decimal.Decimal     `json:"amount"`
	AllocatedAmount   decimal.Decimal     `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal     `json:"unallocated_amount"`
	PaymentMethod     PaymentMethod       `json:"payment_method"`
	Reference         string              `json:"reference"`
	ProofURL          string              `json:"proof_url"`
	Status            PaymentStatus       `json:"status"`
	PaymentDate       time.Time           `json:"payment_date"`
	Allocations       []InvoiceAllocation `json:"allocations"`
	Notes             string              `json:"notes"`
	SubmittedBy       uuid.UUID           `json:"submitted_by"`
	ApprovedAt        *time.Time          `json:"approved_at"`
	ApprovedBy        *uuid.UUID          `json:"approved_by"`
	RejectedAt        *time.Time          `json:"rejected_at"`
	RejectedBy        *uuid.UUID          `json:"rejected_by"`
	RejectionReason   string              `json:"rejection_reason"`
}

// NewPayment creates a new pending payment report
func NewPayment(
	buildingID uuid.UUID,
	unitID uuid.UUID,
	unitLabel string,
	amount decimal.Decimal,
	paymentMethod PaymentMethod,
	reference string,
	proofURL string,
	paymentDate time.Time,
	submittedBy uuid.UUID,
) (*Payment, error) {
	if buildingID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Building ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is not valid")
	}
	if paymentMethod.RequiresReference() && reference == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Reference is required for %s payments", paymentMethod))
	}
	if len(reference) > 100 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Reference cannot exceed 100 characters")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment date is required")
	}
	if submittedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Submitting user ID is required")
	}

	p := &Payment{
		BuildingAggregateRoot: shared.NewBuildingAggregateRootWithCreator(buildingID, submittedBy),
		UnitID:                unitID,
		UnitLabel:             unitLabel,
		Amount:                amount,
		AllocatedAmount:       decimal.Zero,
		UnallocatedAmount:     amount,
		PaymentMethod:         paymentMethod,
		Reference:             reference,
		ProofURL:              proofURL,
		Status:                PaymentStatusPending,
		PaymentDate:           paymentDate,
		Allocations:           make([]InvoiceAllocation, 0),
		SubmittedBy:           submittedBy,
	}

	p.AddDomainEvent(NewPaymentSubmittedEvent(p))

	return p, nil
}

// AllocateToInvoice records the portion of the payment applied to one invoice.
// Only callable while the payment is pending, as part of the approval commit.
func (p *Payment) AllocateToInvoice(
	invoiceID uuid.UUID,
	period valueobject.Period,
	amount decimal.Decimal,
	remark string,
) (*InvoiceAllocation, error) {
	if !p.Status.CanAllocate() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate payment in %s status", p.Status))
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("ALLOCATION_MISMATCH", "Allocation amount must be positive")
	}
	if amount.GreaterThan(p.UnallocatedAmount) {
		return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Allocation amount %s exceeds unallocated amount %s", amount.StringFixed(2), p.UnallocatedAmount.StringFixed(2)))
	}

	for _, alloc := range p.Allocations {
		if alloc.InvoiceID == invoiceID {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Already allocated to invoice for period %s", alloc.Period))
		}
	}

	allocation := NewInvoiceAllocation(p.ID, invoiceID, period, amount, remark)
	p.Allocations = append(p.Allocations, *allocation)

	p.AllocatedAmount = p.AllocatedAmount.Add(amount)
	p.UnallocatedAmount = p.Amount.Sub(p.AllocatedAmount)

	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return allocation, nil
}

// Approve marks the payment as reviewed and applied. Allocations must
// already be recorded; the transition is terminal.
func (p *Payment) Approve(approvedBy uuid.UUID) error {
	if !p.Status.CanReview() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve payment in %s status", p.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Approving user ID is required")
	}

	now := time.Now()
	p.Status = PaymentStatusApproved
	p.ApprovedAt = &now
	p.ApprovedBy = &approvedBy
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentApprovedEvent(p))

	return nil
}

// Reject marks the payment as reviewed and discarded. No allocations may
// exist; a rejected payment never touches the invoice ledger.
func (p *Payment) Reject(rejectedBy uuid.UUID, reason string) error {
	if !p.Status.CanReview() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject payment in %s status", p.Status))
	}
	if p.AllocatedAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_STATE", "Cannot reject payment with recorded allocations")
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejecting user ID is required")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection reason is required")
	}

	now := time.Now()
	p.Status = PaymentStatusRejected
	p.RejectedAt = &now
	p.RejectedBy = &rejectedBy
	p.RejectionReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRejectedEvent(p))

	return nil
}

// SetNotes sets the reviewer notes
func (p *Payment) SetNotes(notes string) error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify payment in terminal state")
	}

	p.Notes = notes
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsPending returns true if the payment awaits review
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsApproved returns true if the payment was approved
func (p *Payment) IsApproved() bool {
	return p.Status == PaymentStatusApproved
}

// IsRejected returns true if the payment was rejected
func (p *Payment) IsRejected() bool {
	return p.Status == PaymentStatusRejected
}

// HasResidual returns true if part of the payment could not be applied to any invoice
func (p *Payment) HasResidual() bool {
	return p.IsApproved() && p.UnallocatedAmount.GreaterThan(decimal.Zero)
}

// AllocationCount returns the number of allocations
func (p *Payment) AllocationCount() int {
	return len(p.Allocations)
}

// AllocatedPeriods returns the billing periods covered by the allocations,
// in allocation order. This is the display form of the allocation list.
func (p *Payment) AllocatedPeriods() []valueobject.Period {
	periods := make([]valueobject.Period, 0, len(p.Allocations))
	for _, alloc := range p.Allocations {
		periods = append(periods, alloc.Period)
	}
	return periods
}

// GetAllocationByInvoiceID returns the allocation for a specific invoice
func (p *Payment) GetAllocationByInvoiceID(invoiceID uuid.UUID) *InvoiceAllocation {
	for i := range p.Allocations {
		if p.Allocations[i].InvoiceID == invoiceID {
			return &p.Allocations[i]
		}
	}
	return nil
}
