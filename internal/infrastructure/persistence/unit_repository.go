package persistence

import (
	"context"
	"errors"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForBuilding finds a unit by ID within a building
func (r *GormUnitRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*directory.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND building_id = ?", id, buildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForBuilding finds all units of a building with filtering
func (r *GormUnitRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter directory.UnitFilter) ([]*directory.Unit, error) {
	var unitModels []models.UnitModel
	query := r.db.WithContext(ctx).Where("building_id = ?", buildingID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Floor != nil {
		query = query.Where("floor = ?", *filter.Floor)
	}
	if filter.ResidentID != nil {
		query = query.Where("resident_id = ?", *filter.ResidentID)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("label ILIKE ? OR owner_name ILIKE ?", searchPattern, searchPattern)
	}

	sortField := ValidateSortField(filter.OrderBy, UnitSortFields, "label")
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

	if err := query.Find(&unitModels).Error; err != nil {
		return nil, err
	}
	units := make([]*directory.Unit, len(unitModels))
	for i := range unitModels {
		units[i] = unitModels[i].ToDomain()
	}
	return units, nil
}

// FindByLabel finds a unit by its label within a building
func (r *GormUnitRepository) FindByLabel(ctx context.Context, buildingID uuid.UUID, label string) (*directory.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).
		First(&model, "building_id = ? AND label = ?", buildingID, label).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveForBuilding finds all active units of a building ordered by label
func (r *GormUnitRepository) FindActiveForBuilding(ctx context.Context, buildingID uuid.UUID) ([]*directory.Unit, error) {
	var unitModels []models.UnitModel
	if err := r.db.WithContext(ctx).
		Where("building_id = ? AND status = ?", buildingID, directory.UnitStatusActive).
		Order("label ASC").
		Find(&unitModels).Error; err != nil {
		return nil, err
	}
	units := make([]*directory.Unit, len(unitModels))
	for i := range unitModels {
		units[i] = unitModels[i].ToDomain()
	}
	return units, nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *directory.Unit) error {
	model := models.UnitModelFromDomain(unit)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountForBuilding counts units of a building
func (r *GormUnitRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UnitModel{}).
		Where("building_id = ?", buildingID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByLabel checks if a unit label exists within a building
func (r *GormUnitRepository) ExistsByLabel(ctx context.Context, buildingID uuid.UUID, label string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UnitModel{}).
		Where("building_id = ? AND label = ?", buildingID, label).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormUnitRepository implements the interface
var _ directory.UnitRepository = (*GormUnitRepository)(nil)
