package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
)

// MockBuildingRepository is a mock implementation of directory.BuildingRepository
type MockBuildingRepository struct {
	mock.Mock
}

func (m *MockBuildingRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Building, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*directory.Building, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) FindByName(ctx context.Context, name string) (*directory.Building, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) Save(ctx context.Context, building *directory.Building) error {
	args := m.Called(ctx, building)
	return args.Error(0)
}

func (m *MockBuildingRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBuildingRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// MockUnitRepository is a mock implementation of directory.UnitRepository
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Unit), args.Error(1)
}

func (m *MockUnitRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*directory.Unit, error) {
	args := m.Called(ctx, buildingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Unit), args.Error(1)
}

func (m *MockUnitRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter directory.UnitFilter) ([]*directory.Unit, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).([]*directory.Unit), args.Error(1)
}

func (m *MockUnitRepository) FindByLabel(ctx context.Context, buildingID uuid.UUID, label string) (*directory.Unit, error) {
	args := m.Called(ctx, buildingID, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Unit), args.Error(1)
}

func (m *MockUnitRepository) FindActiveForBuilding(ctx context.Context, buildingID uuid.UUID) ([]*directory.Unit, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).([]*directory.Unit), args.Error(1)
}

func (m *MockUnitRepository) Save(ctx context.Context, unit *directory.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockUnitRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnitRepository) ExistsByLabel(ctx context.Context, buildingID uuid.UUID, label string) (bool, error) {
	args := m.Called(ctx, buildingID, label)
	return args.Bool(0), args.Error(1)
}
