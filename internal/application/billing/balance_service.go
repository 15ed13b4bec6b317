package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
)

// BalanceService answers balance and history queries for units and buildings
type BalanceService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	unitRepo    directory.UnitRepository
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	unitRepo directory.UnitRepository,
) *BalanceService {
	return &BalanceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		unitRepo:    unitRepo,
	}
}

// UnitBalanceResponse represents a unit's debt position
type UnitBalanceResponse struct {
	UnitID              uuid.UUID         `json:"unit_id"`
	UnitLabel           string            `json:"unit_label"`
	TotalOutstanding    decimal.Decimal   `json:"total_outstanding"`
	OutstandingInvoices []InvoiceResponse `json:"outstanding_invoices"`
	OldestUnpaidPeriod  *string           `json:"oldest_unpaid_period,omitempty"`
	InvoiceCount        int               `json:"invoice_count"`
}

// GetUnitBalance returns the outstanding debt of a unit: the sum of
// outstanding amounts across its non-terminal invoices, oldest period first
func (s *BalanceService) GetUnitBalance(ctx context.Context, buildingID, unitID uuid.UUID) (*UnitBalanceResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	invoices, err := s.invoiceRepo.FindOutstanding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		total = total.Add(invoices[i].OutstandingAmount)
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	resp := &UnitBalanceResponse{
		UnitID:              unitID,
		UnitLabel:           unit.Label,
		TotalOutstanding:    total,
		OutstandingInvoices: responses,
		InvoiceCount:        len(invoices),
	}
	if len(invoices) > 0 {
		oldest := invoices[0].Period.String()
		resp.OldestUnpaidPeriod = &oldest
	}

	return resp, nil
}

// PaymentHistoryFilter defines filtering options for payment history queries
type PaymentHistoryFilter struct {
	Status   string     `form:"status"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// GetPaymentHistory returns the payments of a unit, newest submission first
func (s *BalanceService) GetPaymentHistory(ctx context.Context, buildingID, unitID uuid.UUID, filter PaymentHistoryFilter) ([]PaymentResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	domainFilter := billing.PaymentFilter{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	if filter.Status != "" {
		status := billing.PaymentStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid payment status: "+filter.Status)
		}
		domainFilter.Status = &status
	}

	payments, err := s.paymentRepo.FindByUnit(ctx, buildingID, unitID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}

	return responses, nil
}

// BuildingDebtSummary aggregates the debt position of a whole building
type BuildingDebtSummary struct {
	BuildingID       uuid.UUID       `json:"building_id"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	UnitsInDebt      int             `json:"units_in_debt"`
	PendingPayments  int64           `json:"pending_payments"`
	UnitBalances     []UnitDebtLine  `json:"unit_balances"`
}

// UnitDebtLine is one unit's row in a building debt summary
type UnitDebtLine struct {
	UnitID             uuid.UUID       `json:"unit_id"`
	UnitLabel          string          `json:"unit_label"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	OldestUnpaidPeriod *string         `json:"oldest_unpaid_period,omitempty"`
}

// GetBuildingDebtSummary returns every active unit's outstanding debt plus
// building-level totals. Units with no debt appear with a zero balance.
func (s *BalanceService) GetBuildingDebtSummary(ctx context.Context, buildingID uuid.UUID) (*BuildingDebtSummary, error) {
	units, err := s.unitRepo.FindActiveForBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	summary := &BuildingDebtSummary{
		BuildingID:       buildingID,
		TotalOutstanding: decimal.Zero,
		UnitBalances:     make([]UnitDebtLine, 0, len(units)),
	}

	for _, unit := range units {
		invoices, err := s.invoiceRepo.FindOutstanding(ctx, buildingID, unit.ID)
		if err != nil {
			return nil, err
		}

		outstanding := decimal.Zero
		for i := range invoices {
			outstanding = outstanding.Add(invoices[i].OutstandingAmount)
		}

		line := UnitDebtLine{
			UnitID:           unit.ID,
			UnitLabel:        unit.Label,
			TotalOutstanding: outstanding,
		}
		if len(invoices) > 0 {
			oldest := invoices[0].Period.String()
			line.OldestUnpaidPeriod = &oldest
		}

		if outstanding.IsPositive() {
			summary.UnitsInDebt++
		}
		summary.TotalOutstanding = summary.TotalOutstanding.Add(outstanding)
		summary.UnitBalances = append(summary.UnitBalances, line)
	}

	pendingPayments, err := s.paymentRepo.CountByStatus(ctx, buildingID, billing.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	summary.PendingPayments = pendingPayments

	return summary, nil
}
