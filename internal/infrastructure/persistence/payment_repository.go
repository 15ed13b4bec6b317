package persistence

import (
	"context"
	"errors"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// conn resolves the database handle for a request: the transaction stored
// in the context when running inside Database.WithTransaction, the pooled
// connection otherwise.
func (r *GormPaymentRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.conn(ctx).
		Preload("Allocations").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForBuilding finds a payment by ID within a building
func (r *GormPaymentRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.conn(ctx).
		Preload("Allocations").
		First(&model, "id = ? AND building_id = ?", id, buildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForBuilding finds all payments of a building with filtering
func (r *GormPaymentRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.conn(ctx).Where("building_id = ?", buildingID)
	query = r.applyPaymentFilter(query, filter)

	if err := query.Preload("Allocations").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindByUnit finds payments of a unit, newest submission first
func (r *GormPaymentRepository) FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	filter.UnitID = &unitID
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "desc"
	}
	return r.FindAllForBuilding(ctx, buildingID, filter)
}

// FindPending finds all payments awaiting review, oldest submission first
func (r *GormPaymentRepository) FindPending(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	status := billing.PaymentStatusPending
	filter.Status = &status
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "asc"
	}
	return r.FindAllForBuilding(ctx, buildingID, filter)
}

// Save creates or updates a payment together with its allocations
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The lock predicate is the
// version the row held when the aggregate was hydrated; domain mutations may
// have bumped the in-memory version several times since then, and all of
// those bumps land in a single guarded UPDATE. Allocation rows recorded on
// the aggregate are upserted alongside the payment row.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	loadedVersion := payment.LoadedVersion()
	model := models.PaymentModelFromDomain(payment)
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("id = ? AND version = ?", payment.ID, loadedVersion).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The payment has been modified by another user")
		}
		if len(model.Allocations) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				Create(&model.Allocations).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	payment.MarkVersionLoaded()
	return nil
}

// CountForBuilding counts payments of a building with optional filters
func (r *GormPaymentRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&models.PaymentModel{}).Where("building_id = ?", buildingID)
	query = r.applyPaymentFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts payments by status for a building
func (r *GormPaymentRepository) CountByStatus(ctx context.Context, buildingID uuid.UUID, status billing.PaymentStatus) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&models.PaymentModel{}).
		Where("building_id = ? AND status = ?", buildingID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumApprovedByUnit calculates the total approved payment amount of a unit
func (r *GormPaymentRepository) SumApprovedByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.conn(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("building_id = ? AND unit_id = ? AND status = ?",
			buildingID, unitID, billing.PaymentStatusApproved).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ExistsByReference checks whether a payment with the same method and reference
// was already reported for the building. Rejected payments do not count: the
// resident may resubmit the same transfer after fixing the proof.
func (r *GormPaymentRepository) ExistsByReference(ctx context.Context, buildingID uuid.UUID, method billing.PaymentMethod, reference string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&models.PaymentModel{}).
		Where("building_id = ? AND payment_method = ? AND reference = ? AND status <> ?",
			buildingID, method, reference, billing.PaymentStatusRejected).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyPaymentFilter applies filtering, pagination and ordering to a query
func (r *GormPaymentRepository) applyPaymentFilter(query *gorm.DB, filter billing.PaymentFilter) *gorm.DB {
	query = r.applyPaymentFilterWithoutPagination(query, filter)

	// Apply ordering with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
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

// applyPaymentFilterWithoutPagination applies only the filtering conditions
func (r *GormPaymentRepository) applyPaymentFilterWithoutPagination(query *gorm.DB, filter billing.PaymentFilter) *gorm.DB {
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("payment_method = ?", *filter.Method)
	}
	if filter.Reference != nil {
		query = query.Where("reference = ?", *filter.Reference)
	}
	if filter.SubmittedBy != nil {
		query = query.Where("submitted_by = ?", *filter.SubmittedBy)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("unit_label ILIKE ? OR reference ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// Ensure GormPaymentRepository implements the interface
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
