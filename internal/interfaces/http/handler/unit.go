package handler

import (
	directoryapp "github.com/condominio/backend/internal/application/directory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitHandler handles unit management API endpoints
type UnitHandler struct {
	BaseHandler
	unitService *directoryapp.UnitService
}

// NewUnitHandler creates a new UnitHandler
func NewUnitHandler(unitService *directoryapp.UnitService) *UnitHandler {
	return &UnitHandler{
		unitService: unitService,
	}
}

// CreateUnitRequest represents a request to register a unit
// @Description Request body for registering a unit in a building
type CreateUnitRequest struct {
	Label        string   `json:"label" binding:"required,min=1,max=20" example:"PH-A"`
	Floor        string   `json:"floor" binding:"max=10" example:"12"`
	OwnerName    string   `json:"owner_name" binding:"max=200" example:"Maria Perez"`
	OwnerEmail   string   `json:"owner_email" binding:"omitempty,email,max=200"`
	OwnerPhone   string   `json:"owner_phone" binding:"max=30"`
	AliquotShare *float64 `json:"aliquot_share" binding:"omitempty,gt=0,lte=100" example:"2.5"`
	Notes        string   `json:"notes" binding:"max=500"`
}

// UpdateUnitOwnerRequest represents a request to update owner contact info
// @Description Request body for updating a unit's owner contact information
type UpdateUnitOwnerRequest struct {
	OwnerName  string `json:"owner_name" binding:"required,min=1,max=200"`
	OwnerEmail string `json:"owner_email" binding:"omitempty,email,max=200"`
	OwnerPhone string `json:"owner_phone" binding:"max=30"`
}

// SetAliquotShareRequest represents a request to set a unit's aliquot share
type SetAliquotShareRequest struct {
	AliquotShare float64 `json:"aliquot_share" binding:"required,gt=0,lte=100" example:"2.5"`
}

// AssignResidentRequest represents a request to link a resident account
type AssignResidentRequest struct {
	ResidentID string `json:"resident_id" binding:"required,uuid"`
}

// Create godoc
// @ID           createUnit
// @Summary      Register a unit
// @Description  Register a new unit in the building. Unit labels are unique per building.
// @Tags         units
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        request body CreateUnitRequest true "Unit data"
// @Success      201 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units [post]
func (h *UnitHandler) Create(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := directoryapp.CreateUnitRequest{
		Label:      req.Label,
		Floor:      req.Floor,
		OwnerName:  req.OwnerName,
		OwnerEmail: req.OwnerEmail,
		OwnerPhone: req.OwnerPhone,
		Notes:      req.Notes,
	}
	if req.AliquotShare != nil {
		share := decimal.NewFromFloat(*req.AliquotShare)
		appReq.AliquotShare = &share
	}
	if userID, err := getUserID(c); err == nil {
		appReq.CreatedBy = &userID
	}

	unit, err := h.unitService.CreateUnit(c.Request.Context(), buildingID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, unit)
}

// GetByID godoc
// @ID           getUnitById
// @Summary      Get unit by ID
// @Description  Retrieve a single unit
// @Tags         units
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id} [get]
func (h *UnitHandler) GetByID(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	unit, err := h.unitService.GetUnitByID(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// List godoc
// @ID           listUnits
// @Summary      List units
// @Description  Retrieve a paginated list of the building's units
// @Tags         units
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        search query string false "Search term (label, owner name)"
// @Param        status query string false "Unit status" Enums(ACTIVE, INACTIVE)
// @Param        floor query string false "Floor"
// @Param        resident_id query string false "Linked resident account ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units [get]
func (h *UnitHandler) List(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var filter directoryapp.UnitListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	units, total, err := h.unitService.ListUnits(c.Request.Context(), buildingID, filter)
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
	h.SuccessWithMeta(c, units, total, page, pageSize)
}

// UpdateOwner godoc
// @ID           updateUnitOwner
// @Summary      Update unit owner
// @Description  Update the owner contact information of a unit
// @Tags         units
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body UpdateUnitOwnerRequest true "Owner contact data"
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/owner [put]
func (h *UnitHandler) UpdateOwner(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	var req UpdateUnitOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unit, err := h.unitService.UpdateUnitOwner(c.Request.Context(), buildingID, unitID, directoryapp.UpdateUnitOwnerRequest{
		OwnerName:  req.OwnerName,
		OwnerEmail: req.OwnerEmail,
		OwnerPhone: req.OwnerPhone,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// SetAliquotShare godoc
// @ID           setUnitAliquotShare
// @Summary      Set unit aliquot share
// @Description  Set the unit's participation percentage in common expenses
// @Tags         units
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body SetAliquotShareRequest true "Aliquot share"
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/aliquot [put]
func (h *UnitHandler) SetAliquotShare(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	var req SetAliquotShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unit, err := h.unitService.SetAliquotShare(c.Request.Context(), buildingID, unitID, decimal.NewFromFloat(req.AliquotShare))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// AssignResident godoc
// @ID           assignUnitResident
// @Summary      Assign a resident to a unit
// @Description  Link a resident account to a unit so the resident can report payments for it
// @Tags         units
// @Accept       json
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body AssignResidentRequest true "Resident account"
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/resident [put]
func (h *UnitHandler) AssignResident(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	var req AssignResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	residentID, err := uuid.Parse(req.ResidentID)
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	unit, err := h.unitService.AssignResident(c.Request.Context(), buildingID, unitID, residentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// RemoveResident godoc
// @ID           removeUnitResident
// @Summary      Remove a unit's resident
// @Description  Unlink the resident account from a unit
// @Tags         units
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/resident [delete]
func (h *UnitHandler) RemoveResident(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	unit, err := h.unitService.RemoveResident(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// Activate godoc
// @ID           activateUnit
// @Summary      Activate a unit
// @Description  Return an inactive unit to active status
// @Tags         units
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/activate [post]
func (h *UnitHandler) Activate(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	unit, err := h.unitService.ActivateUnit(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}

// Deactivate godoc
// @ID           deactivateUnit
// @Summary      Deactivate a unit
// @Description  Mark a unit inactive. Inactive units are excluded from new invoice batches.
// @Tags         units
// @Produce      json
// @Param        X-Building-ID header string false "Building ID (optional for dev)"
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.UnitResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/units/{id}/deactivate [post]
func (h *UnitHandler) Deactivate(c *gin.Context) {
	buildingID, err := getBuildingID(c)
	if err != nil {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	unit, err := h.unitService.DeactivateUnit(c.Request.Context(), buildingID, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, unit)
}
