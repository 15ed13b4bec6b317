package handler

import (
	billingapp "github.com/condominio/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BalanceHandler handles unit balance and debt summary endpoints
type BalanceHandler struct {
	BaseHandler
	balanceService *billingapp.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService *billingapp.BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// GetUnitBalance godoc
// @ID           getUnitBalance
// @Summary      Get unit balance
// @Description  Return the outstanding debt of a unit with its open invoices, oldest period first. Balances are computed from live invoice state on every request.
// @Tags         balances
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        unitId path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.UnitBalanceResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/units/{unitId}/balance [get]
func (h *BalanceHandler) GetUnitBalance(c *gin.Context) {
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

	balance, err := h.balanceService.GetUnitBalance(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, balance)
}

// GetPaymentHistory godoc
// @ID           getUnitPaymentHistory
// @Summary      Get unit payment history
// @Description  Return every payment the unit ever reported, newest submission first, regardless of status
// @Tags         balances
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        unitId path string true "Unit ID" format(uuid)
// @Param        status query string false "Payment status" Enums(PENDING, APPROVED, REJECTED)
// @Param        from_date query string false "Payment date range start" format(date-time)
// @Param        to_date query string false "Payment date range end" format(date-time)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.PaymentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/units/{unitId}/payments [get]
func (h *BalanceHandler) GetPaymentHistory(c *gin.Context) {
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

	var filter billingapp.PaymentHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payments, err := h.balanceService.GetPaymentHistory(c.Request.Context(), buildingID, unitID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// GetBuildingDebtSummary godoc
// @ID           getBuildingDebtSummary
// @Summary      Get building debt summary
// @Description  Return every active unit's outstanding debt plus building-level totals. Units with no debt appear with a zero balance.
// @Tags         balances
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Success      200 {object} APIResponse[billingapp.BuildingDebtSummary]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /billing/debt-summary [get]
func (h *BalanceHandler) GetBuildingDebtSummary(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	summary, err := h.balanceService.GetBuildingDebtSummary(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
