package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/condominio/backend/internal/infrastructure/telemetry"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	unitRepo    directory.UnitRepository
	metrics     *telemetry.BusinessMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	unitRepo directory.UnitRepository,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		unitRepo:    unitRepo,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID               `json:"id"`
	BuildingID        uuid.UUID               `json:"building_id"`
	UnitID            uuid.UUID               `json:"unit_id"`
	UnitLabel         string                  `json:"unit_label"`
	Period            string                  `json:"period"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	PaidAmount        decimal.Decimal         `json:"paid_amount"`
	OutstandingAmount decimal.Decimal         `json:"outstanding_amount"`
	Status            string                  `json:"status"`
	Description       string                  `json:"description,omitempty"`
	DueDate           *time.Time              `json:"due_date,omitempty"`
	PaymentRecords    []PaymentRecordResponse `json:"payment_records,omitempty"`
	PaidAt            *time.Time              `json:"paid_at,omitempty"`
	CancelledAt       *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason      string                  `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	Version           int                     `json:"version"`
}

// PaymentRecordResponse represents an applied payment in API responses
type PaymentRecordResponse struct {
	ID        uuid.UUID       `json:"id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Remark    string          `json:"remark,omitempty"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	UnitID      uuid.UUID       `json:"unit_id"`
	Period      string          `json:"period"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Description string          `json:"description"`
	DueDate     *time.Time      `json:"due_date"`
	CreatedBy   *uuid.UUID      `json:"-"` // Set from JWT context, not from request body
}

// CreateInvoice creates a new invoice for a unit and billing period
func (s *InvoiceService) CreateInvoice(ctx context.Context, buildingID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	period, err := valueobject.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}

	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, req.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}
	if !unit.IsActive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Unit %s is inactive and cannot be billed", unit.Label))
	}

	exists, err := s.invoiceRepo.ExistsByUnitAndPeriod(ctx, buildingID, req.UnitID, period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Unit %s already has an invoice for period %s", unit.Label, period))
	}

	invoice, err := billing.NewInvoice(buildingID, req.UnitID, unit.Label, period, req.TotalAmount, req.Description, req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		invoice.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInvoiceWithAmount(ctx, buildingID, period.String(), invoice.TotalAmount)
	}

	return toInvoiceResponse(invoice), nil
}

// BatchCreateInvoicesRequest represents a bulk debt load for one billing period
type BatchCreateInvoicesRequest struct {
	Period      string             `json:"period"`
	Description string             `json:"description"`
	DueDate     *time.Time         `json:"due_date"`
	Items       []BatchInvoiceLine `json:"items"`
	CreatedBy   *uuid.UUID         `json:"-"`
}

// BatchInvoiceLine is one unit's amount within a batch debt load
type BatchInvoiceLine struct {
	UnitID uuid.UUID       `json:"unit_id"`
	Amount decimal.Decimal `json:"amount"`
}

// BatchCreateInvoicesResult reports per-line outcomes of a batch debt load
type BatchCreateInvoicesResult struct {
	Created []InvoiceResponse `json:"created"`
	Skipped []BatchSkipReason `json:"skipped,omitempty"`
}

// BatchSkipReason explains why one line of a batch was not invoiced
type BatchSkipReason struct {
	UnitID uuid.UUID `json:"unit_id"`
	Reason string    `json:"reason"`
}

// BatchCreateInvoices creates the monthly invoices for a set of units in one
// call. Lines that fail validation are skipped and reported; the rest still
// go through.
func (s *InvoiceService) BatchCreateInvoices(ctx context.Context, buildingID uuid.UUID, req BatchCreateInvoicesRequest) (*BatchCreateInvoicesResult, error) {
	period, err := valueobject.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Batch must contain at least one item")
	}

	result := &BatchCreateInvoicesResult{
		Created: make([]InvoiceResponse, 0, len(req.Items)),
	}

	for _, item := range req.Items {
		unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, item.UnitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			result.Skipped = append(result.Skipped, BatchSkipReason{UnitID: item.UnitID, Reason: "unit not found"})
			continue
		}
		if !unit.IsActive() {
			result.Skipped = append(result.Skipped, BatchSkipReason{UnitID: item.UnitID, Reason: "unit is inactive"})
			continue
		}

		exists, err := s.invoiceRepo.ExistsByUnitAndPeriod(ctx, buildingID, item.UnitID, period)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped = append(result.Skipped, BatchSkipReason{UnitID: item.UnitID, Reason: fmt.Sprintf("invoice for %s already exists", period)})
			continue
		}

		invoice, err := billing.NewInvoice(buildingID, item.UnitID, unit.Label, period, item.Amount, req.Description, req.DueDate)
		if err != nil {
			result.Skipped = append(result.Skipped, BatchSkipReason{UnitID: item.UnitID, Reason: err.Error()})
			continue
		}
		if req.CreatedBy != nil {
			invoice.SetCreatedBy(*req.CreatedBy)
		}

		if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
			return nil, err
		}

		if s.metrics != nil {
			s.metrics.RecordInvoiceWithAmount(ctx, buildingID, period.String(), invoice.TotalAmount)
		}

		result.Created = append(result.Created, *toInvoiceResponse(invoice))
	}

	return result, nil
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search     string           `form:"search"`
	UnitID     *uuid.UUID       `form:"unit_id"`
	Status     string           `form:"status"`
	Period     string           `form:"period"`
	PeriodFrom string           `form:"period_from"`
	PeriodTo   string           `form:"period_to"`
	Overdue    *bool            `form:"overdue"`
	MinAmount  *decimal.Decimal `form:"min_amount"`
	MaxAmount  *decimal.Decimal `form:"max_amount"`
	Page       int              `form:"page"`
	PageSize   int              `form:"page_size"`
}

func (f InvoiceListFilter) toDomain() (billing.InvoiceFilter, error) {
	domainFilter := billing.InvoiceFilter{
		UnitID:    f.UnitID,
		Overdue:   f.Overdue,
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
	}
	domainFilter.Page = f.Page
	domainFilter.PageSize = f.PageSize
	domainFilter.Search = f.Search

	if f.Status != "" {
		status := billing.InvoiceStatus(f.Status)
		if !status.IsValid() {
			return domainFilter, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid invoice status: %s", f.Status))
		}
		domainFilter.Status = &status
	}
	if f.Period != "" {
		period, err := valueobject.ParsePeriod(f.Period)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.Period = &period
	}
	if f.PeriodFrom != "" {
		from, err := valueobject.ParsePeriod(f.PeriodFrom)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.PeriodFrom = &from
	}
	if f.PeriodTo != "" {
		to, err := valueobject.ParsePeriod(f.PeriodTo)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.PeriodTo = &to
	}

	return domainFilter, nil
}

// GetInvoiceByID gets an invoice by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, buildingID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForBuilding(ctx, buildingID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices of a building with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, buildingID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}

	invoices, err := s.invoiceRepo.FindAllForBuilding(ctx, buildingID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.invoiceRepo.CountForBuilding(ctx, buildingID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	return responses, total, nil
}

// ListUnitInvoices lists the invoices of one unit
func (s *InvoiceService) ListUnitInvoices(ctx context.Context, buildingID, unitID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.FindByUnit(ctx, buildingID, unitID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	return responses, nil
}

// ListOutstandingInvoices lists the open (pending or partial) invoices of a
// unit, oldest period first
func (s *InvoiceService) ListOutstandingInvoices(ctx context.Context, buildingID, unitID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindOutstanding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	return responses, nil
}

// CancelInvoice cancels an invoice that has received no payments
func (s *InvoiceService) CancelInvoice(ctx context.Context, buildingID, invoiceID uuid.UUID, reason string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForBuilding(ctx, buildingID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	if err := invoice.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	return toInvoiceResponse(invoice), nil
}

// InvoiceSummary represents aggregate invoice figures for a building
type InvoiceSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	PendingCount     int64           `json:"pending_count"`
	PartialCount     int64           `json:"partial_count"`
	PaidCount        int64           `json:"paid_count"`
}

// GetInvoiceSummary gets aggregate invoice figures for a building
func (s *InvoiceService) GetInvoiceSummary(ctx context.Context, buildingID uuid.UUID) (*InvoiceSummary, error) {
	totalOutstanding, err := s.invoiceRepo.SumOutstandingForBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	pendingCount, err := s.invoiceRepo.CountByStatus(ctx, buildingID, billing.InvoiceStatusPending)
	if err != nil {
		return nil, err
	}

	partialCount, err := s.invoiceRepo.CountByStatus(ctx, buildingID, billing.InvoiceStatusPartial)
	if err != nil {
		return nil, err
	}

	paidCount, err := s.invoiceRepo.CountByStatus(ctx, buildingID, billing.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}

	return &InvoiceSummary{
		TotalOutstanding: totalOutstanding,
		PendingCount:     pendingCount,
		PartialCount:     partialCount,
		PaidCount:        paidCount,
	}, nil
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	records := make([]PaymentRecordResponse, len(inv.PaymentRecords))
	for i, r := range inv.PaymentRecords {
		records[i] = PaymentRecordResponse{
			ID:        r.ID,
			PaymentID: r.PaymentID,
			Amount:    r.Amount,
			AppliedAt: r.AppliedAt,
			Remark:    r.Remark,
		}
	}

	return &InvoiceResponse{
		ID:                inv.ID,
		BuildingID:        inv.BuildingID,
		UnitID:            inv.UnitID,
		UnitLabel:         inv.UnitLabel,
		Period:            inv.Period.String(),
		TotalAmount:       inv.TotalAmount,
		PaidAmount:        inv.PaidAmount,
		OutstandingAmount: inv.OutstandingAmount,
		Status:            string(inv.Status),
		Description:       inv.Description,
		DueDate:           inv.DueDate,
		PaymentRecords:    records,
		PaidAt:            inv.PaidAt,
		CancelledAt:       inv.CancelledAt,
		CancelReason:      inv.CancelReason,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
}
