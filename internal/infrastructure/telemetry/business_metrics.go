// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks invoice issuance, payment review activity and
// outstanding debt per building.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	invoiceIssuedTotal    *Counter
	invoiceAmountTotal    *Counter
	paymentSubmittedTotal *Counter
	paymentReviewedTotal  *Counter

	outstandingAmount   *Gauge
	pendingPaymentCount *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	debtProvider DebtMetricsProvider
}

// DebtMetricsProvider surfaces billing state to the collector without the
// telemetry layer importing the billing domain.
type DebtMetricsProvider interface {
	// GetOutstandingCents returns the total open-invoice balance per building in cents.
	GetOutstandingCents(ctx context.Context, buildingID uuid.UUID) (int64, error)

	// GetPendingPaymentCount returns how many payments await administrator review.
	GetPendingPaymentCount(ctx context.Context, buildingID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig configures a BusinessMetrics instance.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // defaults to 5 minutes
	DebtProvider    DebtMetricsProvider
}

// NewBusinessMetrics registers the billing instruments on the given meter.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		debtProvider: cfg.DebtProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.invoiceIssuedTotal, "condo_invoice_issued_total", "Total number of invoices issued", "{invoices}"},
		{&bm.invoiceAmountTotal, "condo_invoice_amount_total", "Total invoiced amount in cents", "{cents}"},
		{&bm.paymentSubmittedTotal, "condo_payment_submitted_total", "Total number of payments reported by residents", "{payments}"},
		{&bm.paymentReviewedTotal, "condo_payment_reviewed_total", "Total number of payment review decisions", "{payments}"},
	}
	for _, spec := range counters {
		counter, err := NewCounter(cfg.Meter, spec.name, spec.description, spec.unit)
		if err != nil {
			return nil, err
		}
		*spec.target = counter
	}

	gauges := []struct {
		target      **Gauge
		name        string
		description string
		unit        string
	}{
		{&bm.outstandingAmount, "condo_outstanding_amount", "Current outstanding amount across open invoices in cents", "{cents}"},
		{&bm.pendingPaymentCount, "condo_pending_payment_count", "Number of payments awaiting review", "{payments}"},
	}
	for _, spec := range gauges {
		gauge, err := NewGauge(cfg.Meter, spec.name, spec.description, spec.unit)
		if err != nil {
			return nil, err
		}
		*spec.target = gauge
	}

	return bm, nil
}

// RecordInvoiceIssued counts one issued invoice for the building and period.
func (bm *BusinessMetrics) RecordInvoiceIssued(ctx context.Context, buildingID uuid.UUID, period string) {
	bm.invoiceIssuedTotal.Inc(ctx,
		AttrBuildingID.String(buildingID.String()),
		AttrInvoicePeriod.String(period),
	)
}

// RecordInvoiceAmount accumulates the invoiced amount in cents.
func (bm *BusinessMetrics) RecordInvoiceAmount(ctx context.Context, buildingID uuid.UUID, period string, amountCents int64) {
	bm.invoiceAmountTotal.Add(ctx, amountCents,
		AttrBuildingID.String(buildingID.String()),
		AttrInvoicePeriod.String(period),
	)
}

// RecordInvoiceWithAmount records both the count and the amount of one invoice.
func (bm *BusinessMetrics) RecordInvoiceWithAmount(ctx context.Context, buildingID uuid.UUID, period string, amount decimal.Decimal) {
	bm.RecordInvoiceIssued(ctx, buildingID, period)
	bm.RecordInvoiceAmount(ctx, buildingID, period, amount.Mul(decimal.NewFromInt(100)).IntPart())
}

// ReviewOutcome labels a payment review decision.
type ReviewOutcome string

const (
	ReviewOutcomeApproved ReviewOutcome = "approved"
	ReviewOutcomeRejected ReviewOutcome = "rejected"
)

// RecordPaymentSubmitted counts one resident payment report.
func (bm *BusinessMetrics) RecordPaymentSubmitted(ctx context.Context, buildingID uuid.UUID, paymentMethod string) {
	bm.paymentSubmittedTotal.Inc(ctx,
		AttrBuildingID.String(buildingID.String()),
		AttrPaymentMethod.String(paymentMethod),
	)
}

// RecordPaymentReviewed counts one administrator approve/reject decision.
func (bm *BusinessMetrics) RecordPaymentReviewed(ctx context.Context, buildingID uuid.UUID, paymentMethod string, outcome ReviewOutcome) {
	bm.paymentReviewedTotal.Inc(ctx,
		AttrBuildingID.String(buildingID.String()),
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(outcome)),
	)
}

// RecordOutstandingAmount sets the outstanding-debt gauge for a building.
func (bm *BusinessMetrics) RecordOutstandingAmount(ctx context.Context, buildingID uuid.UUID, amountCents int64) {
	bm.outstandingAmount.Record(ctx, amountCents,
		AttrBuildingID.String(buildingID.String()),
	)
}

// RecordPendingPaymentCount sets the pending-review gauge for a building.
func (bm *BusinessMetrics) RecordPendingPaymentCount(ctx context.Context, buildingID uuid.UUID, count int64) {
	bm.pendingPaymentCount.Record(ctx, count,
		AttrBuildingID.String(buildingID.String()),
	)
}

// BuildingProvider enumerates the buildings to collect gauges for.
type BuildingProvider interface {
	GetActiveBuildingIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection launches the background gauge collector. Repeated
// calls are no-ops; Stop ends collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, buildingProvider BuildingProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, buildingProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, buildingProvider BuildingProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First sample right away, then on every tick.
	bm.collectDebtMetrics(ctx, buildingProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectDebtMetrics(ctx, buildingProvider)
		}
	}
}

func (bm *BusinessMetrics) collectDebtMetrics(ctx context.Context, buildingProvider BuildingProvider) {
	if bm.debtProvider == nil {
		bm.logger.Debug("No debt provider configured, skipping debt metrics collection")
		return
	}

	buildingIDs, err := buildingProvider.GetActiveBuildingIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get building IDs for metrics collection", zap.Error(err))
		return
	}

	for _, buildingID := range buildingIDs {
		bm.collectBuildingDebtMetrics(ctx, buildingID)
	}
}

// collectBuildingDebtMetrics samples both gauges for one building. A failure
// on one gauge does not block the other.
func (bm *BusinessMetrics) collectBuildingDebtMetrics(ctx context.Context, buildingID uuid.UUID) {
	if outstanding, err := bm.debtProvider.GetOutstandingCents(ctx, buildingID); err != nil {
		bm.logger.Warn("Failed to get outstanding amount for building",
			zap.String("building_id", buildingID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOutstandingAmount(ctx, buildingID, outstanding)
	}

	if pending, err := bm.debtProvider.GetPendingPaymentCount(ctx, buildingID); err != nil {
		bm.logger.Warn("Failed to get pending payment count for building",
			zap.String("building_id", buildingID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordPendingPaymentCount(ctx, buildingID, pending)
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when the meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError is a metrics configuration or registration error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
