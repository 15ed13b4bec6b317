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

// PaymentService provides application-level payment operations, including
// the review workflow that turns a reported payment into invoice allocations.
type PaymentService struct {
	paymentRepo      billing.PaymentRepository
	invoiceRepo      billing.InvoiceRepository
	unitRepo         directory.UnitRepository
	allocationSvc    *billing.AllocationService
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	tx               shared.TransactionManager
	metrics          *telemetry.BusinessMetrics
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithAllocationStrategy sets the default allocation strategy type
func WithAllocationStrategy(strategyType billing.AllocationStrategyType) PaymentServiceOption {
	return func(s *PaymentService) {
		s.allocationSvc = billing.NewAllocationService(
			billing.WithDefaultStrategy(strategyType),
		)
	}
}

// WithAllocationService allows injecting a custom AllocationService
func WithAllocationService(svc *billing.AllocationService) PaymentServiceOption {
	return func(s *PaymentService) {
		s.allocationSvc = svc
	}
}

// WithIdempotencyStore sets the store used to deduplicate review requests
func WithIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) PaymentServiceOption {
	return func(s *PaymentService) {
		s.idempotencyStore = store
		s.idempotencyCfg = cfg
	}
}

// WithTransactionManager sets the transaction manager used to commit a
// review atomically across the payment and invoice stores
func WithTransactionManager(tx shared.TransactionManager) PaymentServiceOption {
	return func(s *PaymentService) {
		s.tx = tx
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	unitRepo directory.UnitRepository,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		paymentRepo:    paymentRepo,
		invoiceRepo:    invoiceRepo,
		unitRepo:       unitRepo,
		allocationSvc:  billing.NewAllocationService(),
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAllocationService returns the underlying allocation service for inspection
func (s *PaymentService) GetAllocationService() *billing.AllocationService {
	return s.allocationSvc
}

// SetBusinessMetrics sets the business metrics collector
func (s *PaymentService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	BuildingID        uuid.UUID            `json:"building_id"`
	UnitID            uuid.UUID            `json:"unit_id"`
	UnitLabel         string               `json:"unit_label"`
	Amount            decimal.Decimal      `json:"amount"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	PaymentMethod     string               `json:"payment_method"`
	Reference         string               `json:"reference,omitempty"`
	ProofURL          string               `json:"proof_url,omitempty"`
	Status            string               `json:"status"`
	PaymentDate       time.Time            `json:"payment_date"`
	Periods           []string             `json:"periods,omitempty"`
	Allocations       []AllocationResponse `json:"allocations,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	SubmittedBy       uuid.UUID            `json:"submitted_by"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID           `json:"approved_by,omitempty"`
	RejectedAt        *time.Time           `json:"rejected_at,omitempty"`
	RejectedBy        *uuid.UUID           `json:"rejected_by,omitempty"`
	RejectionReason   string               `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Version           int                  `json:"version"`
}

// AllocationResponse represents an invoice allocation in API responses
type AllocationResponse struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Period      string          `json:"period"`
	Amount      decimal.Decimal `json:"amount"`
	AllocatedAt time.Time       `json:"allocated_at"`
	Remark      string          `json:"remark,omitempty"`
}

// SubmitPaymentRequest represents a resident reporting a payment
type SubmitPaymentRequest struct {
	UnitID        uuid.UUID       `json:"unit_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference"`
	ProofURL      string          `json:"proof_url"`
	PaymentDate   time.Time       `json:"payment_date"`
	Notes         string          `json:"notes"`
	SubmittedBy   uuid.UUID       `json:"-"` // Set from JWT context, not from request body
}

// SubmitPayment records a reported payment awaiting administrator review
func (s *PaymentService) SubmitPayment(ctx context.Context, buildingID uuid.UUID, req SubmitPaymentRequest) (*PaymentResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, req.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	method := billing.PaymentMethod(req.PaymentMethod)

	// A duplicate reference for the same method usually means the resident
	// reported the same bank operation twice.
	if req.Reference != "" {
		exists, err := s.paymentRepo.ExistsByReference(ctx, buildingID, method, req.Reference)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("A %s payment with reference %s was already reported", method, req.Reference))
		}
	}

	payment, err := billing.NewPayment(
		buildingID,
		req.UnitID,
		unit.Label,
		req.Amount,
		method,
		req.Reference,
		req.ProofURL,
		req.PaymentDate,
		req.SubmittedBy,
	)
	if err != nil {
		return nil, err
	}

	if req.Notes != "" {
		if err := payment.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentSubmitted(ctx, buildingID, string(method))
	}

	return toPaymentResponse(payment), nil
}

// GetPaymentByID gets a payment by ID
func (s *PaymentService) GetPaymentByID(ctx context.Context, buildingID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForBuilding(ctx, buildingID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}
	return toPaymentResponse(payment), nil
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Search      string           `form:"search"`
	UnitID      *uuid.UUID       `form:"unit_id"`
	Status      string           `form:"status"`
	Method      string           `form:"method"`
	Reference   string           `form:"reference"`
	SubmittedBy *uuid.UUID       `form:"submitted_by"`
	FromDate    *time.Time       `form:"from_date"`
	ToDate      *time.Time       `form:"to_date"`
	MinAmount   *decimal.Decimal `form:"min_amount"`
	MaxAmount   *decimal.Decimal `form:"max_amount"`
	Page        int              `form:"page"`
	PageSize    int              `form:"page_size"`
}

func (f PaymentListFilter) toDomain() (billing.PaymentFilter, error) {
	domainFilter := billing.PaymentFilter{
		UnitID:      f.UnitID,
		SubmittedBy: f.SubmittedBy,
		FromDate:    f.FromDate,
		ToDate:      f.ToDate,
		MinAmount:   f.MinAmount,
		MaxAmount:   f.MaxAmount,
	}
	domainFilter.Page = f.Page
	domainFilter.PageSize = f.PageSize
	domainFilter.Search = f.Search

	if f.Status != "" {
		status := billing.PaymentStatus(f.Status)
		if !status.IsValid() {
			return domainFilter, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment status: %s", f.Status))
		}
		domainFilter.Status = &status
	}
	if f.Method != "" {
		method := billing.PaymentMethod(f.Method)
		if !method.IsValid() {
			return domainFilter, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment method: %s", f.Method))
		}
		domainFilter.Method = &method
	}
	if f.Reference != "" {
		domainFilter.Reference = &f.Reference
	}

	return domainFilter, nil
}

// ListPayments lists payments of a building with filtering
func (s *PaymentService) ListPayments(ctx context.Context, buildingID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}

	payments, err := s.paymentRepo.FindAllForBuilding(ctx, buildingID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.paymentRepo.CountForBuilding(ctx, buildingID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}

	return responses, total, nil
}

// ListPendingPayments lists payments awaiting review, oldest first
func (s *PaymentService) ListPendingPayments(ctx context.Context, buildingID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindPending(ctx, buildingID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}

	return responses, nil
}

// ApprovePaymentRequest represents an administrator approving a payment
type ApprovePaymentRequest struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	StrategyType string    `json:"strategy_type"` // OLDEST_FIRST or EXPLICIT
	// SelectedPeriods restricts allocation to the listed billing periods.
	// Empty means all outstanding invoices of the unit.
	SelectedPeriods []string `json:"selected_periods,omitempty"`
	// ExplicitAllocations is required when StrategyType is EXPLICIT
	ExplicitAllocations []ExplicitAllocationLine `json:"explicit_allocations,omitempty"`
	ReviewedBy          uuid.UUID                `json:"-"`
}

// ExplicitAllocationLine is one invoice amount within an explicit approval
type ExplicitAllocationLine struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// ApprovePaymentResult represents the outcome of approving a payment
type ApprovePaymentResult struct {
	Payment              *PaymentResponse  `json:"payment"`
	UpdatedInvoices      []InvoiceResponse `json:"updated_invoices"`
	TotalAllocated       decimal.Decimal   `json:"total_allocated"`
	RemainingUnallocated decimal.Decimal   `json:"remaining_unallocated"`
	AlreadyProcessed     bool              `json:"already_processed,omitempty"`
}

// ApprovePayment allocates a pending payment over the unit's outstanding
// invoices and marks it approved. The whole commit is guarded by optimistic
// locking on the payment and every touched invoice; a retry of the same
// approval is answered from the idempotency store instead of failing.
func (s *PaymentService) ApprovePayment(ctx context.Context, buildingID uuid.UUID, req ApprovePaymentRequest) (*ApprovePaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "approve_payment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, req.PaymentID.String(),
		telemetry.SpanAttrStrategy, req.StrategyType,
	)

	payment, err := s.paymentRepo.FindByIDForBuilding(ctx, buildingID, req.PaymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}

	// A retried approve after the first one committed should not surface an
	// invalid-state error to the caller.
	idemKey := reviewIdempotencyKey(req.PaymentID, billing.PaymentStatusApproved)
	if payment.IsApproved() {
		if processed, _ := s.isProcessed(ctx, idemKey); processed {
			return &ApprovePaymentResult{
				Payment:              toPaymentResponse(payment),
				UpdatedInvoices:      []InvoiceResponse{},
				TotalAllocated:       payment.AllocatedAmount,
				RemainingUnallocated: payment.UnallocatedAmount,
				AlreadyProcessed:     true,
			}, nil
		}
	}

	selectedPeriods, err := parsePeriods(req.SelectedPeriods)
	if err != nil {
		return nil, err
	}

	strategyType := billing.AllocationStrategyType(req.StrategyType)
	if !strategyType.IsValid() {
		strategyType = s.allocationSvc.GetEffectiveStrategy(ctx, buildingID)
	}

	var explicitAllocs []billing.ExplicitAllocationRequest
	for _, line := range req.ExplicitAllocations {
		explicitAllocs = append(explicitAllocs, billing.ExplicitAllocationRequest{
			InvoiceID: line.InvoiceID,
			Amount:    line.Amount,
		})
	}

	invoices, err := s.invoiceRepo.FindOutstanding(ctx, buildingID, payment.UnitID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := s.allocationSvc.AllocatePayment(ctx, billing.AllocatePaymentRequest{
		Payment:             payment,
		Invoices:            invoices,
		StrategyType:        strategyType,
		ExplicitAllocations: explicitAllocs,
		SelectedPeriods:     selectedPeriods,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := payment.Approve(req.ReviewedBy); err != nil {
		return nil, err
	}

	// Commit: payment first, then every touched invoice, all version-checked
	// inside a single transaction so a failed invoice save rolls the approval
	// back as a whole.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
			return err
		}
		for i := range result.UpdatedInvoices {
			if err := s.invoiceRepo.SaveWithLock(ctx, &result.UpdatedInvoices[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.markProcessed(ctx, idemKey)

	if s.metrics != nil {
		s.metrics.RecordPaymentReviewed(ctx, buildingID, string(payment.PaymentMethod), telemetry.ReviewOutcomeApproved)
	}

	telemetry.AddEvent(span, "payment_approved",
		"total_allocated", result.TotalAllocated.String(),
		"residual", result.RemainingUnallocated.String(),
	)

	updatedInvoices := make([]InvoiceResponse, len(result.UpdatedInvoices))
	for i := range result.UpdatedInvoices {
		updatedInvoices[i] = *toInvoiceResponse(&result.UpdatedInvoices[i])
	}

	return &ApprovePaymentResult{
		Payment:              toPaymentResponse(payment),
		UpdatedInvoices:      updatedInvoices,
		TotalAllocated:       result.TotalAllocated,
		RemainingUnallocated: result.RemainingUnallocated,
	}, nil
}

// RejectPaymentRequest represents an administrator rejecting a payment
type RejectPaymentRequest struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	Reason     string    `json:"reason"`
	ReviewedBy uuid.UUID `json:"-"`
}

// RejectPayment marks a pending payment rejected. A retry of the same
// rejection is answered from the idempotency store.
func (s *PaymentService) RejectPayment(ctx context.Context, buildingID uuid.UUID, req RejectPaymentRequest) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForBuilding(ctx, buildingID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}

	idemKey := reviewIdempotencyKey(req.PaymentID, billing.PaymentStatusRejected)
	if payment.IsRejected() {
		if processed, _ := s.isProcessed(ctx, idemKey); processed {
			return toPaymentResponse(payment), nil
		}
	}

	if err := payment.Reject(req.ReviewedBy, req.Reason); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	s.markProcessed(ctx, idemKey)

	if s.metrics != nil {
		s.metrics.RecordPaymentReviewed(ctx, buildingID, string(payment.PaymentMethod), telemetry.ReviewOutcomeRejected)
	}

	return toPaymentResponse(payment), nil
}

// PreviewAllocationRequest asks what an approval would allocate without
// committing anything
type PreviewAllocationRequest struct {
	PaymentID           uuid.UUID                `json:"payment_id"`
	StrategyType        string                   `json:"strategy_type"`
	SelectedPeriods     []string                 `json:"selected_periods,omitempty"`
	ExplicitAllocations []ExplicitAllocationLine `json:"explicit_allocations,omitempty"`
}

// PreviewAllocationResult is the dry-run outcome of an allocation
type PreviewAllocationResult struct {
	Allocations          []PreviewAllocationLine `json:"allocations"`
	TotalAllocated       decimal.Decimal         `json:"total_allocated"`
	RemainingUnallocated decimal.Decimal         `json:"remaining_unallocated"`
	FullyAllocated       bool                    `json:"fully_allocated"`
}

// PreviewAllocationLine is one planned invoice allocation
type PreviewAllocationLine struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Period    string          `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
}

// PreviewAllocation computes the allocation plan for a pending payment
// without mutating the payment or any invoice
func (s *PaymentService) PreviewAllocation(ctx context.Context, buildingID uuid.UUID, req PreviewAllocationRequest) (*PreviewAllocationResult, error) {
	payment, err := s.paymentRepo.FindByIDForBuilding(ctx, buildingID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}

	selectedPeriods, err := parsePeriods(req.SelectedPeriods)
	if err != nil {
		return nil, err
	}

	strategyType := billing.AllocationStrategyType(req.StrategyType)
	if !strategyType.IsValid() {
		strategyType = s.allocationSvc.GetEffectiveStrategy(ctx, buildingID)
	}

	var explicitAllocs []billing.ExplicitAllocationRequest
	for _, line := range req.ExplicitAllocations {
		explicitAllocs = append(explicitAllocs, billing.ExplicitAllocationRequest{
			InvoiceID: line.InvoiceID,
			Amount:    line.Amount,
		})
	}

	invoices, err := s.invoiceRepo.FindOutstanding(ctx, buildingID, payment.UnitID)
	if err != nil {
		return nil, err
	}

	plan, err := s.allocationSvc.PreviewAllocatePayment(ctx, billing.AllocatePaymentRequest{
		Payment:             payment,
		Invoices:            invoices,
		StrategyType:        strategyType,
		ExplicitAllocations: explicitAllocs,
		SelectedPeriods:     selectedPeriods,
	})
	if err != nil {
		return nil, err
	}

	lines := make([]PreviewAllocationLine, len(plan.Allocations))
	for i, a := range plan.Allocations {
		lines[i] = PreviewAllocationLine{
			InvoiceID: a.InvoiceID,
			Period:    a.Period.String(),
			Amount:    a.Amount,
		}
	}

	return &PreviewAllocationResult{
		Allocations:          lines,
		TotalAllocated:       plan.TotalAllocated,
		RemainingUnallocated: plan.RemainingAmount,
		FullyAllocated:       plan.FullyAllocated,
	}, nil
}

// inTransaction runs fn through the configured transaction manager, or
// directly when none is set, as in unit tests with in-memory stores.
func (s *PaymentService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithTransaction(ctx, fn)
}

func reviewIdempotencyKey(paymentID uuid.UUID, target billing.PaymentStatus) string {
	return fmt.Sprintf("payment-review:%s:%s", paymentID, target)
}

func (s *PaymentService) isProcessed(ctx context.Context, key string) (bool, error) {
	if s.idempotencyStore == nil || !s.idempotencyCfg.Enabled {
		return false, nil
	}
	return s.idempotencyStore.IsProcessed(ctx, key)
}

func (s *PaymentService) markProcessed(ctx context.Context, key string) {
	if s.idempotencyStore == nil || !s.idempotencyCfg.Enabled {
		return
	}
	// Best effort: losing the marker only degrades retries to a state error.
	_, _ = s.idempotencyStore.MarkProcessed(ctx, key, s.idempotencyCfg.TTL)
}

func parsePeriods(raw []string) ([]valueobject.Period, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	periods := make([]valueobject.Period, len(raw))
	for i, r := range raw {
		p, err := valueobject.ParsePeriod(r)
		if err != nil {
			return nil, err
		}
		periods[i] = p
	}
	return periods, nil
}

func toPaymentResponse(p *billing.Payment) *PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{
			ID:          a.ID,
			InvoiceID:   a.InvoiceID,
			Period:      a.Period.String(),
			Amount:      a.Amount,
			AllocatedAt: a.AllocatedAt,
			Remark:      a.Remark,
		}
	}

	periods := p.AllocatedPeriods()
	periodStrings := make([]string, len(periods))
	for i, per := range periods {
		periodStrings[i] = per.String()
	}

	return &PaymentResponse{
		ID:                p.ID,
		BuildingID:        p.BuildingID,
		UnitID:            p.UnitID,
		UnitLabel:         p.UnitLabel,
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedAmount,
		UnallocatedAmount: p.UnallocatedAmount,
		PaymentMethod:     string(p.PaymentMethod),
		Reference:         p.Reference,
		ProofURL:          p.ProofURL,
		Status:            string(p.Status),
		PaymentDate:       p.PaymentDate,
		Periods:           periodStrings,
		Allocations:       allocations,
		Notes:             p.Notes,
		SubmittedBy:       p.SubmittedBy,
		ApprovedAt:        p.ApprovedAt,
		ApprovedBy:        p.ApprovedBy,
		RejectedAt:        p.RejectedAt,
		RejectedBy:        p.RejectedBy,
		RejectionReason:   p.RejectionReason,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}
