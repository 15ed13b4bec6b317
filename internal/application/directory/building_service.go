package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
)

// BuildingService provides application-level building operations
type BuildingService struct {
	buildingRepo directory.BuildingRepository
}

// NewBuildingService creates a new BuildingService
func NewBuildingService(buildingRepo directory.BuildingRepository) *BuildingService {
	return &BuildingService{
		buildingRepo: buildingRepo,
	}
}

// BuildingResponse represents a building in API responses
type BuildingResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// CreateBuildingRequest represents a request to register a building
type CreateBuildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Notes   string `json:"notes"`
}

// CreateBuilding registers a new building
func (s *BuildingService) CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*BuildingResponse, error) {
	exists, err := s.buildingRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("A building named %q is already registered", req.Name))
	}

	building, err := directory.NewBuilding(req.Name, req.Address, req.City, req.State)
	if err != nil {
		return nil, err
	}
	building.Notes = req.Notes

	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}

	return toBuildingResponse(building), nil
}

// GetBuildingByID returns a single building
func (s *BuildingService) GetBuildingByID(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}
	return toBuildingResponse(building), nil
}

// BuildingListFilter carries list/search parameters for buildings
type BuildingListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// ListBuildings returns buildings matching the filter plus the total count
func (s *BuildingService) ListBuildings(ctx context.Context, filter BuildingListFilter) ([]BuildingResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	f.OrderBy = filter.OrderBy
	f.OrderDir = filter.OrderDir

	buildings, err := s.buildingRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.buildingRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BuildingResponse, len(buildings))
	for i, b := range buildings {
		responses[i] = *toBuildingResponse(b)
	}
	return responses, total, nil
}

// UpdateBuildingRequest represents a request to update a building
type UpdateBuildingRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Notes   *string `json:"notes"`
}

// UpdateBuilding updates a building's basic information
func (s *BuildingService) UpdateBuilding(ctx context.Context, id uuid.UUID, req UpdateBuildingRequest) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}

	if req.Name != building.Name {
		exists, err := s.buildingRepo.ExistsByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("A building named %q is already registered", req.Name))
		}
	}

	if err := building.Update(req.Name, req.Address, req.City, req.State); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		building.Notes = *req.Notes
	}

	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}

	return toBuildingResponse(building), nil
}

// ActivateBuilding marks a building active
func (s *BuildingService) ActivateBuilding(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	return s.transition(ctx, id, (*directory.Building).Activate)
}

// DeactivateBuilding marks a building inactive; billing for it stops
func (s *BuildingService) DeactivateBuilding(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	return s.transition(ctx, id, (*directory.Building).Deactivate)
}

func (s *BuildingService) transition(ctx context.Context, id uuid.UUID, fn func(*directory.Building) error) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}

	if err := fn(building); err != nil {
		return nil, err
	}

	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}

	return toBuildingResponse(building), nil
}

func toBuildingResponse(b *directory.Building) *BuildingResponse {
	return &BuildingResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		City:      b.City,
		State:     b.State,
		Status:    string(b.Status),
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Version:   b.Version,
	}
}
