package handler

import (
	"time"

	billingapp "github.com/condominio/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// CreateInvoiceRequest represents a request to create an invoice
// @Description Request body for creating an invoice for one unit and period
type CreateInvoiceRequest struct {
	UnitID      string     `json:"unit_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Period      string     `json:"period" binding:"required,period" example:"2024-03"`
	TotalAmount float64    `json:"total_amount" binding:"required,gt=0" example:"85.50"`
	Description string     `json:"description" binding:"max=500" example:"Condominium fee March 2024"`
	DueDate     *time.Time `json:"due_date"`
}

// BatchCreateInvoicesRequest represents a bulk debt load for one period
// @Description Request body for creating the monthly invoices of many units at once
type BatchCreateInvoicesRequest struct {
	Period      string                  `json:"period" binding:"required,period" example:"2024-03"`
	Description string                  `json:"description" binding:"max=500"`
	DueDate     *time.Time              `json:"due_date"`
	Items       []BatchInvoiceLineInput `json:"items" binding:"required,min=1,dive"`
}

// BatchInvoiceLineInput is one unit's amount within a batch debt load
type BatchInvoiceLineInput struct {
	UnitID string  `json:"unit_id" binding:"required,uuid"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
// @Description Request body for soft-cancelling an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Issued for the wrong unit"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Create an invoice for a unit and billing period
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        request body CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	appReq := billingapp.CreateInvoiceRequest{
		UnitID:      unitID,
		Period:      req.Period,
		TotalAmount: decimal.NewFromFloat(req.TotalAmount),
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if userID, err := getUserID(c); err == nil {
		appReq.CreatedBy = &userID
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), buildingID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}

// BatchCreate godoc
// @ID           batchCreateInvoices
// @Summary      Batch debt load
// @Description  Create the monthly invoices for many units in one call. Lines that fail validation are skipped and reported.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        request body BatchCreateInvoicesRequest true "Batch debt load request"
// @Success      201 {object} APIResponse[billingapp.BatchCreateInvoicesResult]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/batch [post]
func (h *InvoiceHandler) BatchCreate(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var req BatchCreateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.BatchCreateInvoicesRequest{
		Period:      req.Period,
		Description: req.Description,
		DueDate:     req.DueDate,
		Items:       make([]billingapp.BatchInvoiceLine, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		unitID, err := uuid.Parse(item.UnitID)
		if err != nil {
			h.BadRequest(c, "Invalid unit ID format in batch items")
			return
		}
		appReq.Items = append(appReq.Items, billingapp.BatchInvoiceLine{
			UnitID: unitID,
			Amount: decimal.NewFromFloat(item.Amount),
		})
	}
	if userID, err := getUserID(c); err == nil {
		appReq.CreatedBy = &userID
	}

	result, err := h.invoiceService.BatchCreateInvoices(c.Request.Context(), buildingID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice by its ID
// @Tags         invoices
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), buildingID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  Retrieve a paginated list of invoices with optional filtering
// @Tags         invoices
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        unit_id query string false "Unit ID" format(uuid)
// @Param        status query string false "Invoice status" Enums(PENDING, PARTIAL, PAID, CANCELLED)
// @Param        period query string false "Exact billing period (YYYY-MM)"
// @Param        period_from query string false "Period range start (YYYY-MM)"
// @Param        period_to query string false "Period range end (YYYY-MM)"
// @Param        overdue query bool false "Only invoices past their due date"
// @Param        search query string false "Search term (unit label, description)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), buildingID, filter)
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
	h.SuccessWithMeta(c, invoices, total, page, pageSize)
}

// ListOutstanding godoc
// @ID           listOutstandingInvoices
// @Summary      List a unit's outstanding invoices
// @Description  Retrieve the open (pending or partial) invoices of a unit, oldest period first
// @Tags         invoices
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        unitId path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[[]billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/units/{unitId}/invoices/outstanding [get]
func (h *InvoiceHandler) ListOutstanding(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("unitId"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	invoices, err := h.invoiceService.ListOutstandingInvoices(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel an invoice
// @Description  Soft-cancel an invoice with a reason. The invoice keeps its history and its period becomes billable again.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body CancelInvoiceRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[billingapp.InvoiceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), buildingID, invoiceID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Summary godoc
// @ID           getInvoiceSummary
// @Summary      Invoice summary for a building
// @Description  Aggregate counts and totals of a building's invoices
// @Tags         invoices
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Success      200 {object} APIResponse[billingapp.InvoiceSummary]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/summary [get]
func (h *InvoiceHandler) Summary(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	summary, err := h.invoiceService.GetInvoiceSummary(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
