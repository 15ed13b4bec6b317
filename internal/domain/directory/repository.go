package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/condominio/backend/internal/domain/shared"
)

// BuildingRepository defines the persistence contract for buildings
type BuildingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Building, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Building, error)
	FindByName(ctx context.Context, name string) (*Building, error)
	Save(ctx context.Context, building *Building) error
	Count(ctx context.Context) (int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// UnitFilter extends the base filter with unit specific criteria
type UnitFilter struct {
	shared.Filter
	Status     *UnitStatus
	Floor      *string
	ResidentID *uuid.UUID
}

// UnitRepository defines the persistence contract for units
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*Unit, error)
	FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter UnitFilter) ([]*Unit, error)
	FindByLabel(ctx context.Context, buildingID uuid.UUID, label string) (*Unit, error)
	FindActiveForBuilding(ctx context.Context, buildingID uuid.UUID) ([]*Unit, error)
	Save(ctx context.Context, unit *Unit) error
	CountForBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error)
	ExistsByLabel(ctx context.Context, buildingID uuid.UUID, label string) (bool, error)
}
