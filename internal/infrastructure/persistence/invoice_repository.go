package persistence

import (
	"context"
	"errors"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/condominio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// conn resolves the database handle for a request: the transaction stored
// in the context when running inside Database.WithTransaction, the pooled
// connection otherwise.
func (r *GormInvoiceRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForBuilding finds an invoice by ID within a building
func (r *GormInvoiceRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.conn(ctx).
		First(&model, "id = ? AND building_id = ?", id, buildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUnitAndPeriod finds the invoice of a unit for a billing period
func (r *GormInvoiceRepository) FindByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.conn(ctx).
		First(&model, "building_id = ? AND unit_id = ? AND period = ?", buildingID, unitID, period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForBuilding finds all invoices of a building with filtering
func (r *GormInvoiceRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.conn(ctx).Where("building_id = ?", buildingID)
	query = r.applyInvoiceFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindByUnit finds invoices of a unit with filtering
func (r *GormInvoiceRepository) FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	filter.UnitID = &unitID
	return r.FindAllForBuilding(ctx, buildingID, filter)
}

// FindOutstanding finds all outstanding invoices of a unit, oldest period first
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, buildingID, unitID uuid.UUID) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.conn(ctx).
		Where("building_id = ? AND unit_id = ? AND status IN ?",
			buildingID, unitID,
			[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartial}).
		Order("period ASC, created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindOverdue finds all overdue invoices of a building
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	overdue := true
	filter.Overdue = &overdue
	return r.FindAllForBuilding(ctx, buildingID, filter)
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The lock predicate is the
// version the row held when the aggregate was hydrated, so several domain
// mutations land in a single guarded UPDATE.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.conn(ctx).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.LoadedVersion()).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
	}
	invoice.MarkVersionLoaded()
	return nil
}

// CountForBuilding counts invoices of a building with optional filters
func (r *GormInvoiceRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&models.InvoiceModel{}).Where("building_id = ?", buildingID)
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts invoices by status for a building
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, buildingID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&models.InvoiceModel{}).
		Where("building_id = ? AND status = ?", buildingID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingByUnit calculates the total outstanding amount of a unit
func (r *GormInvoiceRepository) SumOutstandingByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.conn(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Where("building_id = ? AND unit_id = ? AND status IN ?",
			buildingID, unitID,
			[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartial}).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumOutstandingForBuilding calculates the total outstanding amount of a building
func (r *GormInvoiceRepository) SumOutstandingForBuilding(ctx context.Context, buildingID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.conn(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Where("building_id = ? AND status IN ?",
			buildingID,
			[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartial}).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ExistsByUnitAndPeriod checks whether a unit already has a non-cancelled invoice for the period
func (r *GormInvoiceRepository) ExistsByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&models.InvoiceModel{}).
		Where("building_id = ? AND unit_id = ? AND period = ? AND status <> ?",
			buildingID, unitID, period, billing.InvoiceStatusCancelled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyInvoiceFilter applies filtering, pagination and ordering to a query
func (r *GormInvoiceRepository) applyInvoiceFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	// Apply ordering with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, InvoiceSortFields, "period")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	// Apply pagination
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}
	return query
}

// applyInvoiceFilterWithoutPagination applies only the filtering conditions
func (r *GormInvoiceRepository) applyInvoiceFilterWithoutPagination(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	// Periods are stored canonically as YYYY-MM, so the range bounds
	// compare lexicographically.
	if filter.PeriodFrom != nil {
		query = query.Where("period >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("period <= ?", *filter.PeriodTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < NOW() AND status IN ?",
			[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartial})
	}
	if filter.MinAmount != nil {
		query = query.Where("outstanding_amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("outstanding_amount <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("unit_label ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// Ensure GormInvoiceRepository implements the interface
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
