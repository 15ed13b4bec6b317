package persistence

import (
	"context"
	"errors"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBuildingRepository implements BuildingRepository using GORM
type GormBuildingRepository struct {
	db *gorm.DB
}

// NewGormBuildingRepository creates a new GormBuildingRepository
func NewGormBuildingRepository(db *gorm.DB) *GormBuildingRepository {
	return &GormBuildingRepository{db: db}
}

// FindByID finds a building by ID
func (r *GormBuildingRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all buildings with filtering
func (r *GormBuildingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*directory.Building, error) {
	var buildingModels []models.BuildingModel
	query := r.db.WithContext(ctx)

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR address ILIKE ?", searchPattern, searchPattern)
	}

	sortField := ValidateSortField(filter.OrderBy, BuildingSortFields, "name")
	sortOrder := "ASC"
	if filter.OrderDir != "" {
		sortOrder = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(sortField + " " + sortOrder)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&buildingModels).Error; err != nil {
		return nil, err
	}
	buildings := make([]*directory.Building, len(buildingModels))
	for i := range buildingModels {
		buildings[i] = buildingModels[i].ToDomain()
	}
	return buildings, nil
}

// FindByName finds a building by its exact name
func (r *GormBuildingRepository) FindByName(ctx context.Context, name string) (*directory.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a building
func (r *GormBuildingRepository) Save(ctx context.Context, building *directory.Building) error {
	model := models.BuildingModelFromDomain(building)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts all buildings
func (r *GormBuildingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BuildingModel{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if a building name is already taken
func (r *GormBuildingRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BuildingModel{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormBuildingRepository implements the interface
var _ directory.BuildingRepository = (*GormBuildingRepository)(nil)
