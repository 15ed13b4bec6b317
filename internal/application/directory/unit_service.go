package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
)

// UnitService provides application-level unit operations
type UnitService struct {
	unitRepo     directory.UnitRepository
	buildingRepo directory.BuildingRepository
}

// NewUnitService creates a new UnitService
func NewUnitService(
	unitRepo directory.UnitRepository,
	buildingRepo directory.BuildingRepository,
) *UnitService {
	return &UnitService{
		unitRepo:     unitRepo,
		buildingRepo: buildingRepo,
	}
}

// UnitResponse represents a unit in API responses
type UnitResponse struct {
	ID           uuid.UUID       `json:"id"`
	BuildingID   uuid.UUID       `json:"building_id"`
	Label        string          `json:"label"`
	Floor        string          `json:"floor,omitempty"`
	OwnerName    string          `json:"owner_name,omitempty"`
	OwnerEmail   string          `json:"owner_email,omitempty"`
	OwnerPhone   string          `json:"owner_phone,omitempty"`
	ResidentID   *uuid.UUID      `json:"resident_id,omitempty"`
	AliquotShare decimal.Decimal `json:"aliquot_share"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// CreateUnitRequest represents a request to register a unit
type CreateUnitRequest struct {
	Label        string           `json:"label"`
	Floor        string           `json:"floor"`
	OwnerName    string           `json:"owner_name"`
	OwnerEmail   string           `json:"owner_email"`
	OwnerPhone   string           `json:"owner_phone"`
	AliquotShare *decimal.Decimal `json:"aliquot_share"`
	Notes        string           `json:"notes"`
	CreatedBy    *uuid.UUID       `json:"-"`
}

// CreateUnit registers a new unit inside a building
func (s *UnitService) CreateUnit(ctx context.Context, buildingID uuid.UUID, req CreateUnitRequest) (*UnitResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}

	exists, err := s.unitRepo.ExistsByLabel(ctx, buildingID, req.Label)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Unit %s already exists in this building", req.Label))
	}

	unit, err := directory.NewUnit(buildingID, req.Label, req.Floor, req.OwnerName)
	if err != nil {
		return nil, err
	}
	unit.OwnerEmail = req.OwnerEmail
	unit.OwnerPhone = req.OwnerPhone
	unit.Notes = req.Notes
	if req.AliquotShare != nil {
		if err := unit.SetAliquotShare(*req.AliquotShare); err != nil {
			return nil, err
		}
	}
	if req.CreatedBy != nil {
		unit.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

// GetUnitByID returns a single unit within a building
func (s *UnitService) GetUnitByID(ctx context.Context, buildingID, unitID uuid.UUID) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}
	return toUnitResponse(unit), nil
}

// UnitListFilter carries list/search parameters for units
type UnitListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	Floor      string     `form:"floor"`
	ResidentID *uuid.UUID `form:"resident_id"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

// ListUnits returns the units of a building matching the filter plus the
// building's total unit count
func (s *UnitService) ListUnits(ctx context.Context, buildingID uuid.UUID, filter UnitListFilter) ([]UnitResponse, int64, error) {
	f := directory.UnitFilter{Filter: shared.DefaultFilter()}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	f.OrderBy = filter.OrderBy
	f.OrderDir = filter.OrderDir
	if filter.Status != "" {
		status := directory.UnitStatus(filter.Status)
		if status != directory.UnitStatusActive && status != directory.UnitStatusInactive {
			return nil, 0, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Unknown unit status %q", filter.Status))
		}
		f.Status = &status
	}
	if filter.Floor != "" {
		f.Floor = &filter.Floor
	}
	f.ResidentID = filter.ResidentID

	units, err := s.unitRepo.FindAllForBuilding(ctx, buildingID, f)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.unitRepo.CountForBuilding(ctx, buildingID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UnitResponse, len(units))
	for i, u := range units {
		responses[i] = *toUnitResponse(u)
	}
	return responses, total, nil
}

// UpdateUnitOwnerRequest represents a request to update a unit's owner contact
type UpdateUnitOwnerRequest struct {
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	OwnerPhone string `json:"owner_phone"`
}

// UpdateUnitOwner updates the owner contact information of a unit
func (s *UnitService) UpdateUnitOwner(ctx context.Context, buildingID, unitID uuid.UUID, req UpdateUnitOwnerRequest) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	if err := unit.UpdateOwner(req.OwnerName, req.OwnerEmail, req.OwnerPhone); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

// SetAliquotShare sets a unit's participation percentage in common expenses
func (s *UnitService) SetAliquotShare(ctx context.Context, buildingID, unitID uuid.UUID, share decimal.Decimal) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	if err := unit.SetAliquotShare(share); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

// AssignResident links a unit to a resident user account
func (s *UnitService) AssignResident(ctx context.Context, buildingID, unitID, residentID uuid.UUID) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	if err := unit.AssignResident(residentID); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

// RemoveResident clears the resident link of a unit
func (s *UnitService) RemoveResident(ctx context.Context, buildingID, unitID uuid.UUID) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	unit.RemoveResident()

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

// ActivateUnit marks a unit active
func (s *UnitService) ActivateUnit(ctx context.Context, buildingID, unitID uuid.UUID) (*UnitResponse, error) {
	return s.transition(ctx, buildingID, unitID, (*directory.Unit).Activate)
}

// DeactivateUnit marks a unit inactive; it stops receiving new invoices
func (s *UnitService) DeactivateUnit(ctx context.Context, buildingID, unitID uuid.UUID) (*UnitResponse, error) {
	return s.transition(ctx, buildingID, unitID, (*directory.Unit).Deactivate)
}

func (s *UnitService) transition(ctx context.Context, buildingID, unitID uuid.UUID, fn func(*directory.Unit) error) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByIDForBuilding(ctx, buildingID, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Unit not found")
	}

	if err := fn(unit); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	return toUnitResponse(unit), nil
}

func toUnitResponse(u *directory.Unit) *UnitResponse {
	return &UnitResponse{
		ID:           u.ID,
		BuildingID:   u.BuildingID,
		Label:        u.Label,
		Floor:        u.Floor,
		OwnerName:    u.OwnerName,
		OwnerEmail:   u.OwnerEmail,
		OwnerPhone:   u.OwnerPhone,
		ResidentID:   u.ResidentID,
		AliquotShare: u.AliquotShare,
		Status:       string(u.Status),
		Notes:        u.Notes,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		Version:      u.Version,
	}
}
