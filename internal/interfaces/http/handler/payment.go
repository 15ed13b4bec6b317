package handler

import (
	"time"

	billingapp "github.com/condominio/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// SubmitPaymentRequest represents a payment reported by a resident
// @Description Request body for reporting a payment awaiting review
type SubmitPaymentRequest struct {
	UnitID        string    `json:"unit_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount        float64   `json:"amount" binding:"required,gt=0" example:"70.00"`
	PaymentMethod string    `json:"payment_method" binding:"required,oneof=TRANSFER PAGO_MOVIL CASH ZELLE OTHER" example:"TRANSFER"`
	Reference     string    `json:"reference" binding:"max=100" example:"REF-0042"`
	ProofURL      string    `json:"proof_url" binding:"omitempty,url,max=500"`
	PaymentDate   time.Time `json:"payment_date" binding:"required"`
	Notes         string    `json:"notes" binding:"max=500"`
}

// ApprovePaymentRequest represents an administrator approving a payment
// @Description Request body for approving a pending payment
type ApprovePaymentRequest struct {
	StrategyType string `json:"strategy_type" binding:"omitempty,oneof=OLDEST_FIRST EXPLICIT" example:"OLDEST_FIRST"`
	// SelectedPeriods restricts allocation to the listed billing periods
	SelectedPeriods []string `json:"selected_periods" binding:"omitempty,dive,period"`
	// ExplicitAllocations is required when strategy_type is EXPLICIT
	ExplicitAllocations []ExplicitAllocationInput `json:"explicit_allocations" binding:"omitempty,dive"`
}

// ExplicitAllocationInput is one invoice amount within an explicit approval
type ExplicitAllocationInput struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// RejectPaymentRequest represents an administrator rejecting a payment
// @Description Request body for rejecting a pending payment
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Transfer not found in bank statement"`
}

// PreviewAllocationRequest represents a dry-run allocation request
// @Description Request body for previewing how a payment would be allocated
type PreviewAllocationRequest struct {
	StrategyType        string                    `json:"strategy_type" binding:"omitempty,oneof=OLDEST_FIRST EXPLICIT"`
	SelectedPeriods     []string                  `json:"selected_periods" binding:"omitempty,dive,period"`
	ExplicitAllocations []ExplicitAllocationInput `json:"explicit_allocations" binding:"omitempty,dive"`
}

// Submit godoc
// @ID           submitPayment
// @Summary      Report a payment
// @Description  Record a payment reported by a resident. It stays pending until an administrator reviews it.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        request body SubmitPaymentRequest true "Payment submission"
// @Success      201 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required to report a payment")
		return
	}

	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	payment, err := h.paymentService.SubmitPayment(c.Request.Context(), buildingID, billingapp.SubmitPaymentRequest{
		UnitID:        unitID,
		Amount:        decimal.NewFromFloat(req.Amount),
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		ProofURL:      req.ProofURL,
		PaymentDate:   req.PaymentDate,
		Notes:         req.Notes,
		SubmittedBy:   userID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payment)
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get payment by ID
// @Description  Retrieve a payment with its allocations
// @Tags         payments
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), buildingID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Description  Retrieve a paginated list of payments for the admin review queue
// @Tags         payments
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        unit_id query string false "Unit ID" format(uuid)
// @Param        status query string false "Payment status" Enums(PENDING, APPROVED, REJECTED)
// @Param        method query string false "Payment method" Enums(TRANSFER, PAGO_MOVIL, CASH, ZELLE, OTHER)
// @Param        reference query string false "Payment reference"
// @Param        from_date query string false "Payment date range start" format(date-time)
// @Param        to_date query string false "Payment date range end" format(date-time)
// @Param        search query string false "Search term (unit label, reference)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var filter billingapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), buildingID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, payments, total, page, pageSize)
}

// ListPending godoc
// @ID           listPendingPayments
// @Summary      List pending payments
// @Description  Retrieve the payments awaiting review, oldest submission first
// @Tags         payments
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Success      200 {object} APIResponse[[]billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/pending [get]
func (h *PaymentHandler) ListPending(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var filter billingapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payments, err := h.paymentService.ListPendingPayments(c.Request.Context(), buildingID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// Approve godoc
// @ID           approvePayment
// @Summary      Approve a payment
// @Description  Allocate a pending payment over the unit's outstanding invoices and mark it approved. Retrying an approval that already took effect returns the stored outcome.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body ApprovePaymentRequest true "Approval request"
// @Success      200 {object} APIResponse[billingapp.ApprovePaymentResult]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id}/approve [post]
func (h *PaymentHandler) Approve(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required to review a payment")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req ApprovePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.ApprovePaymentRequest{
		PaymentID:       paymentID,
		StrategyType:    req.StrategyType,
		SelectedPeriods: req.SelectedPeriods,
		ReviewedBy:      userID,
	}
	for _, line := range req.ExplicitAllocations {
		invoiceID, err := uuid.Parse(line.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format in explicit allocations")
			return
		}
		appReq.ExplicitAllocations = append(appReq.ExplicitAllocations, billingapp.ExplicitAllocationLine{
			InvoiceID: invoiceID,
			Amount:    decimal.NewFromFloat(line.Amount),
		})
	}

	result, err := h.paymentService.ApprovePayment(c.Request.Context(), buildingID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Reject godoc
// @ID           rejectPayment
// @Summary      Reject a payment
// @Description  Mark a pending payment rejected with a reason. No invoice is touched. Retrying a rejection that already took effect returns the stored outcome.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body RejectPaymentRequest true "Rejection reason"
// @Success      200 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id}/reject [post]
func (h *PaymentHandler) Reject(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required to review a payment")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req RejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.RejectPayment(c.Request.Context(), buildingID, billingapp.RejectPaymentRequest{
		PaymentID:  paymentID,
		Reason:     req.Reason,
		ReviewedBy: userID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// PreviewAllocation godoc
// @ID           previewPaymentAllocation
// @Summary      Preview a payment's allocation
// @Description  Compute the allocation plan for a pending payment without committing anything
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body PreviewAllocationRequest true "Preview request"
// @Success      200 {object} APIResponse[billingapp.PreviewAllocationResult]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id}/preview-allocation [post]
func (h *PaymentHandler) PreviewAllocation(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req PreviewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.PreviewAllocationRequest{
		PaymentID:       paymentID,
		StrategyType:    req.StrategyType,
		SelectedPeriods: req.SelectedPeriods,
	}
	for _, line := range req.ExplicitAllocations {
		invoiceID, err := uuid.Parse(line.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format in explicit allocations")
			return
		}
		appReq.ExplicitAllocations = append(appReq.ExplicitAllocations, billingapp.ExplicitAllocationLine{
			InvoiceID: invoiceID,
			Amount:    decimal.NewFromFloat(line.Amount),
		})
	}

	result, err := h.paymentService.PreviewAllocation(c.Request.Context(), buildingID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
