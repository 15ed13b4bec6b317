package billing

import (
	"context"
	"fmt"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationService is a domain service that coordinates the distribution of a
// pending payment over a unit's outstanding invoices using allocation strategies.
// It ensures that:
// 1. Only pending payments are allocated
// 2. Allocations never exceed invoice outstanding amounts or the payment amount
// 3. Payment and invoice states are updated consistently, in one pass
//
// Strategy selection is injectable, allowing per-building or per-request
// override of the default oldest-first behavior.
type AllocationService struct {
	strategyFactory      *AllocationStrategyFactory
	defaultStrategyType  AllocationStrategyType
	strategyOverrideFunc StrategyOverrideFunc
}

// StrategyOverrideFunc is a function that can override the strategy type based on context.
// This allows for building-specific or request-specific strategy selection.
type StrategyOverrideFunc func(ctx context.Context, buildingID uuid.UUID) AllocationStrategyType

// AllocationServiceOption is a functional option for configuring AllocationService
type AllocationServiceOption func(*AllocationService)

// WithDefaultStrategy sets the default allocation strategy type
func WithDefaultStrategy(strategyType AllocationStrategyType) AllocationServiceOption {
	return func(s *AllocationService) {
		if strategyType.IsValid() {
			s.defaultStrategyType = strategyType
		}
	}
}

// WithStrategyOverride sets a function that can override strategy selection based on context
func WithStrategyOverride(fn StrategyOverrideFunc) AllocationServiceOption {
	return func(s *AllocationService) {
		s.strategyOverrideFunc = fn
	}
}

// NewAllocationService creates a new allocation service with optional configuration
func NewAllocationService(opts ...AllocationServiceOption) *AllocationService {
	s := &AllocationService{
		strategyFactory:     NewAllocationStrategyFactory(),
		defaultStrategyType: AllocationStrategyTypeOldestFirst,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDefaultStrategy returns the default strategy type
func (s *AllocationService) GetDefaultStrategy() AllocationStrategyType {
	return s.defaultStrategyType
}

// GetEffectiveStrategy returns the effective strategy type for a given context and building
func (s *AllocationService) GetEffectiveStrategy(ctx context.Context, buildingID uuid.UUID) AllocationStrategyType {
	if s.strategyOverrideFunc != nil {
		override := s.strategyOverrideFunc(ctx, buildingID)
		if override.IsValid() {
			return override
		}
	}
	return s.defaultStrategyType
}

// AllocatePaymentRequest represents a request to allocate a payment over invoices
type AllocatePaymentRequest struct {
	Payment      *Payment
	Invoices     []Invoice
	StrategyType AllocationStrategyType
	// ExplicitAllocations is only used when StrategyType is EXPLICIT
	ExplicitAllocations []ExplicitAllocationRequest
	// SelectedPeriods optionally restricts allocation to invoices of the
	// listed billing periods. Empty means all outstanding invoices.
	SelectedPeriods []valueobject.Period
}

// AllocatePaymentResult represents the result of allocating a payment
type AllocatePaymentResult struct {
	Payment              *Payment            // Updated payment with new allocations
	UpdatedInvoices      []Invoice           // Invoices that received part of the payment
	Allocations          []InvoiceAllocation // Allocations that were made
	TotalAllocated       decimal.Decimal     // Total amount applied to invoices
	RemainingUnallocated decimal.Decimal     // Residual left on the payment
	FullyAllocated       bool                // True if the whole payment amount was applied
}

// AllocatePayment distributes a pending payment over the unit's outstanding
// invoices using the requested strategy, mutating both sides of the ledger.
func (s *AllocationService) AllocatePayment(
	ctx context.Context,
	req AllocatePaymentRequest,
) (*AllocatePaymentResult, error) {
	if req.Payment == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment cannot be nil")
	}
	if !req.Payment.Status.CanAllocate() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate payment in %s status, must be PENDING", req.Payment.Status))
	}
	if req.Payment.UnallocatedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment has no unallocated amount")
	}
	if !req.StrategyType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid allocation strategy type")
	}

	strategy, err := s.strategyFactory.GetStrategy(req.StrategyType, req.ExplicitAllocations)
	if err != nil {
		return nil, err
	}

	unitInvoices := s.eligibleInvoices(req)

	if len(unitInvoices) == 0 && req.StrategyType == AllocationStrategyTypeOldestFirst {
		// Nothing to apply to: the whole amount stays as residual.
		return &AllocatePaymentResult{
			Payment:              req.Payment,
			UpdatedInvoices:      []Invoice{},
			Allocations:          []InvoiceAllocation{},
			TotalAllocated:       decimal.Zero,
			RemainingUnallocated: req.Payment.UnallocatedAmount,
			FullyAllocated:       false,
		}, nil
	}

	plan, err := strategy.AllocatePayment(req.Payment, unitInvoices)
	if err != nil {
		return nil, err
	}

	updatedInvoices := make([]Invoice, 0)
	allocations := make([]InvoiceAllocation, 0)

	invoiceMap := make(map[uuid.UUID]*Invoice)
	for i := range unitInvoices {
		invoiceMap[unitInvoices[i].ID] = &unitInvoices[i]
	}

	for _, entry := range plan.Allocations {
		invoice, exists := invoiceMap[entry.InvoiceID]
		if !exists {
			continue
		}

		allocation, err := req.Payment.AllocateToInvoice(
			invoice.ID,
			invoice.Period,
			entry.Amount,
			fmt.Sprintf("Allocated via %s strategy", req.StrategyType),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate to invoice %s: %w", invoice.Period, err)
		}
		allocations = append(allocations, *allocation)

		err = invoice.ApplyPayment(entry.Amount, req.Payment.ID,
			fmt.Sprintf("Payment %s (%s)", req.Payment.Reference, req.Payment.PaymentMethod))
		if err != nil {
			return nil, fmt.Errorf("failed to apply payment to invoice %s: %w", invoice.Period, err)
		}
		updatedInvoices = append(updatedInvoices, *invoice)
	}

	return &AllocatePaymentResult{
		Payment:              req.Payment,
		UpdatedInvoices:      updatedInvoices,
		Allocations:          allocations,
		TotalAllocated:       plan.TotalAllocated,
		RemainingUnallocated: plan.RemainingAmount,
		FullyAllocated:       plan.FullyAllocated,
	}, nil
}

// AutoAllocatePayment distributes a payment using the oldest-first strategy
func (s *AllocationService) AutoAllocatePayment(
	ctx context.Context,
	payment *Payment,
	invoices []Invoice,
) (*AllocatePaymentResult, error) {
	return s.AllocatePayment(ctx, AllocatePaymentRequest{
		Payment:      payment,
		Invoices:     invoices,
		StrategyType: AllocationStrategyTypeOldestFirst,
	})
}

// ExplicitAllocatePayment distributes a payment using reviewer-specified allocations
func (s *AllocationService) ExplicitAllocatePayment(
	ctx context.Context,
	payment *Payment,
	invoices []Invoice,
	requests []ExplicitAllocationRequest,
) (*AllocatePaymentResult, error) {
	return s.AllocatePayment(ctx, AllocatePaymentRequest{
		Payment:             payment,
		Invoices:            invoices,
		StrategyType:        AllocationStrategyTypeExplicit,
		ExplicitAllocations: requests,
	})
}

// PreviewAllocatePayment calculates what allocations would be made without
// applying them. Useful for showing the reviewer the effect before approval.
func (s *AllocationService) PreviewAllocatePayment(
	ctx context.Context,
	req AllocatePaymentRequest,
) (*AllocationPlan, error) {
	if req.Payment == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment cannot be nil")
	}
	if req.Payment.UnallocatedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment has no unallocated amount")
	}

	strategy, err := s.strategyFactory.GetStrategy(req.StrategyType, req.ExplicitAllocations)
	if err != nil {
		return nil, err
	}

	return strategy.AllocatePayment(req.Payment, s.eligibleInvoices(req))
}

// eligibleInvoices filters the candidate invoices down to those of the paying
// unit that can still receive payments, optionally restricted to selected periods.
func (s *AllocationService) eligibleInvoices(req AllocatePaymentRequest) []Invoice {
	selected := make(map[string]bool, len(req.SelectedPeriods))
	for _, p := range req.SelectedPeriods {
		selected[p.String()] = true
	}

	eligible := make([]Invoice, 0, len(req.Invoices))
	for _, inv := range req.Invoices {
		if inv.UnitID != req.Payment.UnitID {
			continue
		}
		if !inv.Status.CanApplyPayment() || !inv.OutstandingAmount.GreaterThan(decimal.Zero) {
			continue
		}
		if len(selected) > 0 && !selected[inv.Period.String()] {
			continue
		}
		eligible = append(eligible, inv)
	}
	return eligible
}
