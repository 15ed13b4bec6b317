package handler

import (
	directoryapp "github.com/condominio/backend/internal/application/directory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BuildingHandler handles building management API endpoints
type BuildingHandler struct {
	BaseHandler
	buildingService *directoryapp.BuildingService
}

// NewBuildingHandler creates a new BuildingHandler
func NewBuildingHandler(buildingService *directoryapp.BuildingService) *BuildingHandler {
	return &BuildingHandler{
		buildingService: buildingService,
	}
}

// CreateBuildingRequest represents a request to register a building
// @Description Request body for registering a building
type CreateBuildingRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200" example:"Residencias El Parque"`
	Address string `json:"address" binding:"max=300"`
	City    string `json:"city" binding:"max=100" example:"Caracas"`
	State   string `json:"state" binding:"max=100"`
	Notes   string `json:"notes" binding:"max=500"`
}

// UpdateBuildingRequest represents a request to update a building
// @Description Request body for updating a building's basic information
type UpdateBuildingRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=200"`
	Address string  `json:"address" binding:"max=300"`
	City    string  `json:"city" binding:"max=100"`
	State   string  `json:"state" binding:"max=100"`
	Notes   *string `json:"notes" binding:"omitempty,max=500"`
}

// Create godoc
// @ID           createBuilding
// @Summary      Register a building
// @Description  Register a new building. Building names are unique.
// @Tags         buildings
// @Accept       json
// @Produce      json
// @Param        request body CreateBuildingRequest true "Building data"
// @Success      201 {object} APIResponse[directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings [post]
func (h *BuildingHandler) Create(c *gin.Context) {
	var req CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	building, err := h.buildingService.CreateBuilding(c.Request.Context(), directoryapp.CreateBuildingRequest{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Notes:   req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, building)
}

// GetByID godoc
// @ID           getBuildingById
// @Summary      Get building by ID
// @Description  Retrieve a single building
// @Tags         buildings
// @Produce      json
// @Param        id path string true "Building ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings/{id} [get]
func (h *BuildingHandler) GetByID(c *gin.Context) {
	buildingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid building ID format")
		return
	}

	building, err := h.buildingService.GetBuildingByID(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, building)
}

// List godoc
// @ID           listBuildings
// @Summary      List buildings
// @Description  Retrieve a paginated list of registered buildings
// @Tags         buildings
// @Produce      json
// @Param        search query string false "Search term (name, city)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings [get]
func (h *BuildingHandler) List(c *gin.Context) {
	var filter directoryapp.BuildingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	buildings, total, err := h.buildingService.ListBuildings(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, buildings, total, page, pageSize)
}

// Update godoc
// @ID           updateBuilding
// @Summary      Update a building
// @Description  Update a building's basic information
// @Tags         buildings
// @Accept       json
// @Produce      json
// @Param        id path string true "Building ID" format(uuid)
// @Param        request body UpdateBuildingRequest true "Building data"
// @Success      200 {object} APIResponse[directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings/{id} [put]
func (h *BuildingHandler) Update(c *gin.Context) {
	buildingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid building ID format")
		return
	}

	var req UpdateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	building, err := h.buildingService.UpdateBuilding(c.Request.Context(), buildingID, directoryapp.UpdateBuildingRequest{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Notes:   req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, building)
}

// Activate godoc
// @ID           activateBuilding
// @Summary      Activate a building
// @Description  Return an inactive building to active status
// @Tags         buildings
// @Produce      json
// @Param        id path string true "Building ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings/{id}/activate [post]
func (h *BuildingHandler) Activate(c *gin.Context) {
	buildingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid building ID format")
		return
	}

	building, err := h.buildingService.ActivateBuilding(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, building)
}

// Deactivate godoc
// @ID           deactivateBuilding
// @Summary      Deactivate a building
// @Description  Mark a building inactive
// @Tags         buildings
// @Produce      json
// @Param        id path string true "Building ID" format(uuid)
// @Success      200 {object} APIResponse[directoryapp.BuildingResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /directory/buildings/{id}/deactivate [post]
func (h *BuildingHandler) Deactivate(c *gin.Context) {
	buildingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid building ID format")
		return
	}

	building, err := h.buildingService.DeactivateBuilding(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, building)
}
