package billing

import (
	"context"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	UnitID     *uuid.UUID          // Filter by unit
	Status     *InvoiceStatus      // Filter by status
	Period     *valueobject.Period // Filter by exact billing period
	PeriodFrom *valueobject.Period // Filter by period range start
	PeriodTo   *valueobject.Period // Filter by period range end
	Overdue    *bool               // Filter only overdue invoices
	MinAmount  *decimal.Decimal    // Filter by minimum outstanding amount
	MaxAmount  *decimal.Decimal    // Filter by maximum outstanding amount
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForBuilding finds an invoice by ID within a building
	FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*Invoice, error)

	// FindByUnitAndPeriod finds the invoice of a unit for a billing period
	FindByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (*Invoice, error)

	// FindAllForBuilding finds all invoices of a building with filtering
	FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindByUnit finds invoices of a unit with filtering
	FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindOutstanding finds all outstanding (pending or partial) invoices of a
	// unit ordered by period ascending, then creation time ascending
	FindOutstanding(ctx context.Context, buildingID, unitID uuid.UUID) ([]Invoice, error)

	// FindOverdue finds all overdue invoices of a building
	FindOverdue(ctx context.Context, buildingID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountForBuilding counts invoices of a building with optional filters
	CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter InvoiceFilter) (int64, error)

	// CountByStatus counts invoices by status for a building
	CountByStatus(ctx context.Context, buildingID uuid.UUID, status InvoiceStatus) (int64, error)

	// SumOutstandingByUnit calculates the total outstanding amount of a unit
	SumOutstandingByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error)

	// SumOutstandingForBuilding calculates the total outstanding amount of a building
	SumOutstandingForBuilding(ctx context.Context, buildingID uuid.UUID) (decimal.Decimal, error)

	// ExistsByUnitAndPeriod checks whether a unit already has a non-cancelled
	// invoice for the billing period
	ExistsByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (bool, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	UnitID      *uuid.UUID       // Filter by unit
	Status      *PaymentStatus   // Filter by status
	Method      *PaymentMethod   // Filter by payment method
	Reference   *string          // Filter by exact reference
	SubmittedBy *uuid.UUID       // Filter by submitting user
	FromDate    *time.Time       // Filter by payment date range start
	ToDate      *time.Time       // Filter by payment date range end
	MinAmount   *decimal.Decimal // Filter by minimum amount
	MaxAmount   *decimal.Decimal // Filter by maximum amount
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForBuilding finds a payment by ID within a building
	FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*Payment, error)

	// FindAllForBuilding finds all payments of a building with filtering
	FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// FindByUnit finds payments of a unit ordered by submission time
	// descending (newest first), with filtering
	FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// FindPending finds all payments awaiting review for a building,
	// oldest submission first
	FindPending(ctx context.Context, buildingID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error

	// CountForBuilding counts payments of a building with optional filters
	CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter PaymentFilter) (int64, error)

	// CountByStatus counts payments by status for a building
	CountByStatus(ctx context.Context, buildingID uuid.UUID, status PaymentStatus) (int64, error)

	// SumApprovedByUnit calculates the total approved payment amount of a unit
	SumApprovedByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error)

	// ExistsByReference checks whether a payment with the same method and
	// reference was already reported for the building
	ExistsByReference(ctx context.Context, buildingID uuid.UUID, method PaymentMethod, reference string) (bool, error)
}
