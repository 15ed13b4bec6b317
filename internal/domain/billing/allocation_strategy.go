package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/strategy"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStrategyType defines the type of allocation strategy
type AllocationStrategyType string

const (
	AllocationStrategyTypeOldestFirst AllocationStrategyType = "OLDEST_FIRST" // Oldest outstanding period first
	AllocationStrategyTypeExplicit    AllocationStrategyType = "EXPLICIT"     // Reviewer-specified amounts per invoice
)

// IsValid checks if the strategy type is valid
func (t AllocationStrategyType) IsValid() bool {
	switch t {
	case AllocationStrategyTypeOldestFirst, AllocationStrategyTypeExplicit:
		return true
	}
	return false
}

// String returns the string representation
func (t AllocationStrategyType) String() string {
	return string(t)
}

// AllocationTarget represents an invoice eligible to receive part of a payment
type AllocationTarget struct {
	ID                uuid.UUID          // Invoice ID
	Period            valueobject.Period // Billing period for ordering and display
	OutstandingAmount decimal.Decimal    // Amount still owed
	CreatedAt         time.Time          // Tie-break for invoices in the same period
}

// AllocationEntry represents a single planned allocation
type AllocationEntry struct {
	InvoiceID uuid.UUID          // Invoice to apply to
	Period    valueobject.Period // Period of that invoice
	Amount    decimal.Decimal    // Amount to apply
}

// AllocationPlan represents the complete output of an allocation strategy.
// It is a pure calculation; nothing is applied until the approval commit.
type AllocationPlan struct {
	Allocations           []AllocationEntry // Planned allocations in application order
	TotalAllocated        decimal.Decimal   // Sum of planned allocations
	RemainingAmount       decimal.Decimal   // Residual left on the payment
	FullyAllocated        bool              // True if the whole payment amount was placed
	InvoicesFullyPaid     []uuid.UUID       // Invoices settled by the plan
	InvoicesPartiallyPaid []uuid.UUID       // Invoices left with a balance
}

// AllocationStrategy is the interface for payment allocation strategies
type AllocationStrategy interface {
	strategy.Strategy
	// StrategyType returns the allocation strategy type
	StrategyType() AllocationStrategyType
	// Allocate calculates how to distribute the given amount across targets
	Allocate(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error)
	// AllocatePayment calculates how to distribute a pending payment across invoices
	AllocatePayment(payment *Payment, invoices []Invoice) (*AllocationPlan, error)
}

// OldestFirstAllocationStrategy distributes a payment greedily over the
// oldest outstanding periods first. Invoices in the same period are ordered
// by creation time. Whatever does not fit stays on the payment as residual.
type OldestFirstAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewOldestFirstAllocationStrategy creates a new oldest-first allocation strategy
func NewOldestFirstAllocationStrategy() *OldestFirstAllocationStrategy {
	return &OldestFirstAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"oldest_first_allocation",
			strategy.StrategyTypeAllocation,
			"Allocates to the oldest outstanding billing periods first, creation time as tie-break",
		),
	}
}

// StrategyType returns the allocation strategy type
func (s *OldestFirstAllocationStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyTypeOldestFirst
}

// Allocate distributes the amount over targets in oldest-first order
func (s *OldestFirstAllocationStrategy) Allocate(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Allocation amount must be positive")
	}
	if len(targets) == 0 {
		return emptyPlan(amount), nil
	}

	sortedTargets := make([]AllocationTarget, len(targets))
	copy(sortedTargets, targets)
	sort.Slice(sortedTargets, func(i, j int) bool {
		if !sortedTargets[i].Period.Equal(sortedTargets[j].Period) {
			return sortedTargets[i].Period.Before(sortedTargets[j].Period)
		}
		return sortedTargets[i].CreatedAt.Before(sortedTargets[j].CreatedAt)
	})

	allocations := make([]AllocationEntry, 0)
	fullyPaid := make([]uuid.UUID, 0)
	partiallyPaid := make([]uuid.UUID, 0)
	remaining := amount
	totalAllocated := decimal.Zero

	for _, target := range sortedTargets {
		if remaining.IsZero() {
			break
		}
		if target.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocAmount := decimal.Min(remaining, target.OutstandingAmount)

		allocations = append(allocations, AllocationEntry{
			InvoiceID: target.ID,
			Period:    target.Period,
			Amount:    allocAmount,
		})

		totalAllocated = totalAllocated.Add(allocAmount)
		remaining = remaining.Sub(allocAmount)

		if allocAmount.GreaterThanOrEqual(target.OutstandingAmount) {
			fullyPaid = append(fullyPaid, target.ID)
		} else {
			partiallyPaid = append(partiallyPaid, target.ID)
		}
	}

	return &AllocationPlan{
		Allocations:           allocations,
		TotalAllocated:        totalAllocated,
		RemainingAmount:       remaining,
		FullyAllocated:        remaining.IsZero(),
		InvoicesFullyPaid:     fullyPaid,
		InvoicesPartiallyPaid: partiallyPaid,
	}, nil
}

// AllocatePayment distributes a pending payment over outstanding invoices
func (s *OldestFirstAllocationStrategy) AllocatePayment(payment *Payment, invoices []Invoice) (*AllocationPlan, error) {
	if payment == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment cannot be nil")
	}
	if payment.UnallocatedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment has no unallocated amount")
	}

	return s.Allocate(payment.UnallocatedAmount, invoicesToTargets(invoices))
}

// ExplicitAllocationRequest represents a reviewer-specified allocation to one invoice
type ExplicitAllocationRequest struct {
	InvoiceID uuid.UUID       // Invoice to apply to
	Amount    decimal.Decimal // Amount to apply, must be positive
}

// ExplicitAllocationStrategy applies reviewer-specified amounts to specific
// invoices. Validation is all-or-nothing: any unknown invoice, non-positive
// amount, per-invoice excess or total exceeding the payment produces an
// ALLOCATION_MISMATCH error and nothing is planned.
type ExplicitAllocationStrategy struct {
	strategy.BaseStrategy
	requests []ExplicitAllocationRequest
}

// NewExplicitAllocationStrategy creates a new explicit allocation strategy
func NewExplicitAllocationStrategy(requests []ExplicitAllocationRequest) *ExplicitAllocationStrategy {
	return &ExplicitAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"explicit_allocation",
			strategy.StrategyTypeAllocation,
			"Applies reviewer-specified amounts to specific invoices, all-or-nothing",
		),
		requests: requests,
	}
}

// StrategyType returns the allocation strategy type
func (s *ExplicitAllocationStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyTypeExplicit
}

// GetRequests returns the configured explicit allocation requests
func (s *ExplicitAllocationStrategy) GetRequests() []ExplicitAllocationRequest {
	return s.requests
}

// Allocate validates and plans the requested allocations against targets
func (s *ExplicitAllocationStrategy) Allocate(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Allocation amount must be positive")
	}
	if len(s.requests) == 0 {
		return nil, shared.NewDomainError("ALLOCATION_MISMATCH", "Explicit allocation requires at least one target")
	}

	targetMap := make(map[uuid.UUID]AllocationTarget, len(targets))
	for _, t := range targets {
		targetMap[t.ID] = t
	}

	allocations := make([]AllocationEntry, 0, len(s.requests))
	fullyPaid := make([]uuid.UUID, 0)
	partiallyPaid := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool, len(s.requests))
	totalAllocated := decimal.Zero

	for _, req := range s.requests {
		target, exists := targetMap[req.InvoiceID]
		if !exists {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Invoice %s is not an outstanding invoice of this unit", req.InvoiceID))
		}
		if seen[req.InvoiceID] {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Invoice %s listed more than once", req.InvoiceID))
		}
		seen[req.InvoiceID] = true

		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Allocation amount for invoice %s must be positive", req.InvoiceID))
		}
		if req.Amount.GreaterThan(target.OutstandingAmount) {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Allocation %s exceeds outstanding %s on invoice %s", req.Amount.StringFixed(2), target.OutstandingAmount.StringFixed(2), req.InvoiceID))
		}

		totalAllocated = totalAllocated.Add(req.Amount)
		if totalAllocated.GreaterThan(amount) {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", fmt.Sprintf("Total allocations %s exceed payment amount %s", totalAllocated.StringFixed(2), amount.StringFixed(2)))
		}

		allocations = append(allocations, AllocationEntry{
			InvoiceID: target.ID,
			Period:    target.Period,
			Amount:    req.Amount,
		})

		if req.Amount.Equal(target.OutstandingAmount) {
			fullyPaid = append(fullyPaid, target.ID)
		} else {
			partiallyPaid = append(partiallyPaid, target.ID)
		}
	}

	remaining := amount.Sub(totalAllocated)

	return &AllocationPlan{
		Allocations:           allocations,
		TotalAllocated:        totalAllocated,
		RemainingAmount:       remaining,
		FullyAllocated:        remaining.IsZero(),
		InvoicesFullyPaid:     fullyPaid,
		InvoicesPartiallyPaid: partiallyPaid,
	}, nil
}

// AllocatePayment validates the requested allocations for a pending payment
func (s *ExplicitAllocationStrategy) AllocatePayment(payment *Payment, invoices []Invoice) (*AllocationPlan, error) {
	if payment == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment cannot be nil")
	}
	if payment.UnallocatedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment has no unallocated amount")
	}

	return s.Allocate(payment.UnallocatedAmount, invoicesToTargets(invoices))
}

// invoicesToTargets converts payable invoices to allocation targets
func invoicesToTargets(invoices []Invoice) []AllocationTarget {
	targets := make([]AllocationTarget, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status.CanApplyPayment() && inv.OutstandingAmount.GreaterThan(decimal.Zero) {
			targets = append(targets, AllocationTarget{
				ID:                inv.ID,
				Period:            inv.Period,
				OutstandingAmount: inv.OutstandingAmount,
				CreatedAt:         inv.CreatedAt,
			})
		}
	}
	return targets
}

func emptyPlan(amount decimal.Decimal) *AllocationPlan {
	return &AllocationPlan{
		Allocations:           make([]AllocationEntry, 0),
		TotalAllocated:        decimal.Zero,
		RemainingAmount:       amount,
		FullyAllocated:        false,
		InvoicesFullyPaid:     make([]uuid.UUID, 0),
		InvoicesPartiallyPaid: make([]uuid.UUID, 0),
	}
}

// AllocationStrategyFactory creates allocation strategies
type AllocationStrategyFactory struct{}

// NewAllocationStrategyFactory creates a new factory
func NewAllocationStrategyFactory() *AllocationStrategyFactory {
	return &AllocationStrategyFactory{}
}

// CreateOldestFirstStrategy creates an oldest-first allocation strategy
func (f *AllocationStrategyFactory) CreateOldestFirstStrategy() *OldestFirstAllocationStrategy {
	return NewOldestFirstAllocationStrategy()
}

// CreateExplicitStrategy creates an explicit allocation strategy with the given requests
func (f *AllocationStrategyFactory) CreateExplicitStrategy(requests []ExplicitAllocationRequest) *ExplicitAllocationStrategy {
	return NewExplicitAllocationStrategy(requests)
}

// GetStrategy returns a strategy by type
func (f *AllocationStrategyFactory) GetStrategy(strategyType AllocationStrategyType, requests []ExplicitAllocationRequest) (AllocationStrategy, error) {
	switch strategyType {
	case AllocationStrategyTypeOldestFirst:
		return f.CreateOldestFirstStrategy(), nil
	case AllocationStrategyTypeExplicit:
		if len(requests) == 0 {
			return nil, shared.NewDomainError("ALLOCATION_MISMATCH", "Explicit strategy requires allocation requests")
		}
		return f.CreateExplicitStrategy(requests), nil
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown allocation strategy type")
	}
}
