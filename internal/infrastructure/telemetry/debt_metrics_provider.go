// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDebtMetricsProvider implements DebtMetricsProvider using GORM.
// It queries the invoices and payments tables directly for aggregated metrics.
type GormDebtMetricsProvider struct {
	db *gorm.DB
}

// NewGormDebtMetricsProvider creates a new GormDebtMetricsProvider.
func NewGormDebtMetricsProvider(db *gorm.DB) *GormDebtMetricsProvider {
	return &GormDebtMetricsProvider{db: db}
}

// GetOutstandingCents returns the total outstanding amount of a building in cents.
func (p *GormDebtMetricsProvider) GetOutstandingCents(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	var total decimal.Decimal
	err := p.db.WithContext(ctx).
		Table("invoices").
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Where("building_id = ? AND status IN ?",
			buildingID, []string{"PENDING", "PARTIAL"}).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// GetPendingPaymentCount returns the number of payments awaiting review for a building.
func (p *GormDebtMetricsProvider) GetPendingPaymentCount(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("payments").
		Where("building_id = ? AND status = ?", buildingID, "PENDING").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetActiveBuildingIDs returns the IDs of all active buildings. It drives the
// periodic collection loop, which refreshes the debt gauges per building.
func (p *GormDebtMetricsProvider) GetActiveBuildingIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("buildings").
		Where("status = ?", "active").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormDebtMetricsProvider implements both collection interfaces
var (
	_ DebtMetricsProvider = (*GormDebtMetricsProvider)(nil)
	_ BuildingProvider    = (*GormDebtMetricsProvider)(nil)
)
