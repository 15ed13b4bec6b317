package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of a condominium fee invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"   // Unpaid, outstanding balance = total
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"   // Partially paid, 0 < outstanding < total
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully paid, outstanding = 0
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Soft-cancelled before any payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartial
}

// ContributesToDebt returns true if the invoice counts towards the unit's debt
func (s InvoiceStatus) ContributesToDebt() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartial
}

// PaymentRecord represents an approved payment applied to the invoice.
// It is a value object within the Invoice aggregate, stored as JSONB.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Remark    string          `json:"remark,omitempty"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// NewPaymentRecord creates a new payment record
func NewPaymentRecord(paymentID uuid.UUID, amount decimal.Decimal, remark string) *PaymentRecord {
	return &PaymentRecord{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Amount:    amount,
		AppliedAt: time.Now(),
		Remark:    remark,
	}
}

// Invoice represents a monthly condominium fee owed by a unit.
// One invoice covers one unit for one billing period.
type Invoice struct {
	shared.BuildingAggregateRoot
	UnitID            uuid.UUID          `json:"unit_id"`
	UnitLabel         string             `json:"unit_label"`
	Period            valueobject.Period `json:"period"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	PaidAmount        decimal.Decimal    `json:"paid_amount"`
	OutstandingAmount decimal.Decimal    `json:"outstanding_amount"`
	Status            InvoiceStatus      `json:"status"`
	Description       string             `json:"description"`
	DueDate           *time.Time         `json:"due_date"`
	PaymentRecords    PaymentRecords     `json:"payment_records"`
	PaidAt            *time.Time         `json:"paid_at"`
	CancelledAt       *time.Time         `json:"cancelled_at"`
	CancelReason      string             `json:"cancel_reason"`
}

// NewInvoice creates a new invoice for a unit and billing period
func NewInvoice(
	buildingID uuid.UUID,
	unitID uuid.UUID,
	unitLabel string,
	period valueobject.Period,
	totalAmount decimal.Decimal,
	description string,
	dueDate *time.Time,
) (*Invoice, error) {
	if buildingID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Building ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit ID cannot be empty")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Billing period is required")
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice amount must be positive")
	}

	inv := &Invoice{
		BuildingAggregateRoot: shared.NewBuildingAggregateRoot(buildingID),
		UnitID:                unitID,
		UnitLabel:             unitLabel,
		Period:                period,
		TotalAmount:           totalAmount,
		PaidAmount:            decimal.Zero,
		OutstandingAmount:     totalAmount,
		Status:                InvoiceStatusPending,
		Description:           description,
		DueDate:               dueDate,
		PaymentRecords:        PaymentRecords{},
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// ApplyPayment applies an approved payment allocation to the invoice.
// Returns an error if the amount exceeds the outstanding balance or the
// invoice is in a terminal state.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, paymentID uuid.UUID, remark string) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.OutstandingAmount) {
		return shared.NewDomainError("OVERPAYMENT", fmt.Sprintf("Payment amount %s exceeds outstanding amount %s on invoice %s", amount.StringFixed(2), inv.OutstandingAmount.StringFixed(2), inv.ID))
	}
	if paymentID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment ID cannot be empty")
	}

	record := NewPaymentRecord(paymentID, amount, remark)
	inv.PaymentRecords = append(inv.PaymentRecords, *record)

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.OutstandingAmount = inv.TotalAmount.Sub(inv.PaidAmount)

	if inv.OutstandingAmount.IsZero() {
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartial
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amount))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// Cancel soft-cancels the invoice. Only invoices with no applied payments
// can be cancelled; paid history is never destroyed.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if inv.Status == InvoiceStatusPartial || inv.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel invoice with applied payments")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.OutstandingAmount = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// SetDueDate updates the due date
func (inv *Invoice) SetDueDate(dueDate *time.Time) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify due date for invoice in terminal state")
	}

	inv.DueDate = dueDate
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// SetDescription sets the description
func (inv *Invoice) SetDescription(description string) {
	inv.Description = description
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// IsPending returns true if the invoice is pending
func (inv *Invoice) IsPending() bool {
	return inv.Status == InvoiceStatusPending
}

// IsPartial returns true if the invoice is partially paid
func (inv *Invoice) IsPartial() bool {
	return inv.Status == InvoiceStatusPartial
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice is cancelled
func (inv *Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}

// IsOverdue returns true if the invoice is past due date and still owed
func (inv *Invoice) IsOverdue() bool {
	if inv.Status.IsTerminal() {
		return false
	}
	if inv.DueDate == nil {
		return false
	}
	return time.Now().After(*inv.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (inv *Invoice) DaysOverdue() int {
	if !inv.IsOverdue() {
		return 0
	}
	return int(time.Since(*inv.DueDate).Hours() / 24)
}

// PaymentCount returns the number of payments applied
func (inv *Invoice) PaymentCount() int {
	return len(inv.PaymentRecords)
}

// PaidPercentage returns the percentage of total that has been paid (0-100)
func (inv *Invoice) PaidPercentage() decimal.Decimal {
	if inv.TotalAmount.IsZero() {
		return decimal.NewFromInt(100)
	}
	return inv.PaidAmount.Div(inv.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}
