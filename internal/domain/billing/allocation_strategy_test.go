package billing

import (
	"testing"
	"time"

	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPeriod(t *testing.T, s string) valueobject.Period {
	t.Helper()
	p, err := valueobject.ParsePeriod(s)
	require.NoError(t, err)
	return p
}

func TestAllocationStrategyType(t *testing.T) {
	t.Run("IsValid returns true for valid types", func(t *testing.T) {
		assert.True(t, AllocationStrategyTypeOldestFirst.IsValid())
		assert.True(t, AllocationStrategyTypeExplicit.IsValid())
	})

	t.Run("IsValid returns false for invalid types", func(t *testing.T) {
		assert.False(t, AllocationStrategyType("INVALID").IsValid())
		assert.False(t, AllocationStrategyType("").IsValid())
	})

	t.Run("String returns correct string", func(t *testing.T) {
		assert.Equal(t, "OLDEST_FIRST", AllocationStrategyTypeOldestFirst.String())
		assert.Equal(t, "EXPLICIT", AllocationStrategyTypeExplicit.String())
	})
}

func TestOldestFirstAllocationStrategy(t *testing.T) {
	t.Run("NewOldestFirstAllocationStrategy creates valid strategy", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		assert.NotNil(t, strategy)
		assert.Equal(t, "oldest_first_allocation", strategy.Name())
		assert.Equal(t, AllocationStrategyTypeOldestFirst, strategy.StrategyType())
	})

	t.Run("Allocate with zero amount returns error", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		targets := []AllocationTarget{
			{ID: uuid.New(), Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(100)},
		}
		_, err := strategy.Allocate(decimal.Zero, targets)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Allocate with no targets leaves everything as residual", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		plan, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationTarget{})
		require.NoError(t, err)
		assert.Empty(t, plan.Allocations)
		assert.True(t, plan.TotalAllocated.IsZero())
		assert.True(t, plan.RemainingAmount.Equal(decimal.NewFromInt(100)))
		assert.False(t, plan.FullyAllocated)
	})

	t.Run("Allocate covers oldest periods first", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		now := time.Now()

		jan := uuid.New()
		feb := uuid.New()
		mar := uuid.New()

		targets := []AllocationTarget{
			{ID: mar, Period: mustPeriod(t, "2024-03"), OutstandingAmount: decimal.NewFromInt(70), CreatedAt: now},
			{ID: jan, Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(50), CreatedAt: now},
			{ID: feb, Period: mustPeriod(t, "2024-02"), OutstandingAmount: decimal.NewFromInt(70), CreatedAt: now},
		}

		plan, err := strategy.Allocate(decimal.NewFromInt(70), targets)
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 2)
		assert.Equal(t, jan, plan.Allocations[0].InvoiceID)
		assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, feb, plan.Allocations[1].InvoiceID)
		assert.True(t, plan.Allocations[1].Amount.Equal(decimal.NewFromInt(20)))

		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(70)))
		assert.True(t, plan.RemainingAmount.IsZero())
		assert.True(t, plan.FullyAllocated)
		assert.Equal(t, []uuid.UUID{jan}, plan.InvoicesFullyPaid)
		assert.Equal(t, []uuid.UUID{feb}, plan.InvoicesPartiallyPaid)
	})

	t.Run("Allocate breaks period ties by creation time", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		now := time.Now()
		earlier := now.Add(-24 * time.Hour)

		first := uuid.New()
		second := uuid.New()

		targets := []AllocationTarget{
			{ID: second, Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(100), CreatedAt: now},
			{ID: first, Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(100), CreatedAt: earlier},
		}

		plan, err := strategy.Allocate(decimal.NewFromInt(150), targets)
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 2)
		assert.Equal(t, first, plan.Allocations[0].InvoiceID)
		assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, second, plan.Allocations[1].InvoiceID)
		assert.True(t, plan.Allocations[1].Amount.Equal(decimal.NewFromInt(50)))
	})

	t.Run("Allocate keeps residual when amount exceeds total debt", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()

		targets := []AllocationTarget{
			{ID: uuid.New(), Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(80), CreatedAt: time.Now()},
		}

		plan, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.NoError(t, err)

		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(80)))
		assert.True(t, plan.RemainingAmount.Equal(decimal.NewFromInt(20)))
		assert.False(t, plan.FullyAllocated)
	})

	t.Run("Allocate skips settled targets", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		open := uuid.New()

		targets := []AllocationTarget{
			{ID: uuid.New(), Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.Zero, CreatedAt: time.Now()},
			{ID: open, Period: mustPeriod(t, "2024-02"), OutstandingAmount: decimal.NewFromInt(30), CreatedAt: time.Now()},
		}

		plan, err := strategy.Allocate(decimal.NewFromInt(30), targets)
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, open, plan.Allocations[0].InvoiceID)
	})

	t.Run("AllocatePayment uses the unallocated amount", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		payment := newTestPayment(t, decimal.NewFromInt(60))

		invoice := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(100))

		plan, err := strategy.AllocatePayment(payment, []Invoice{*invoice})
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 1)
		assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(60)))
		assert.True(t, plan.FullyAllocated)
	})

	t.Run("AllocatePayment rejects nil payment", func(t *testing.T) {
		strategy := NewOldestFirstAllocationStrategy()
		_, err := strategy.AllocatePayment(nil, []Invoice{})
		assert.Error(t, err)
	})
}

func TestExplicitAllocationStrategy(t *testing.T) {
	newTargets := func(t *testing.T) ([]AllocationTarget, uuid.UUID, uuid.UUID) {
		jan := uuid.New()
		feb := uuid.New()
		targets := []AllocationTarget{
			{ID: jan, Period: mustPeriod(t, "2024-01"), OutstandingAmount: decimal.NewFromInt(50), CreatedAt: time.Now()},
			{ID: feb, Period: mustPeriod(t, "2024-02"), OutstandingAmount: decimal.NewFromInt(70), CreatedAt: time.Now()},
		}
		return targets, jan, feb
	}

	t.Run("NewExplicitAllocationStrategy creates valid strategy", func(t *testing.T) {
		strategy := NewExplicitAllocationStrategy(nil)
		assert.Equal(t, "explicit_allocation", strategy.Name())
		assert.Equal(t, AllocationStrategyTypeExplicit, strategy.StrategyType())
	})

	t.Run("Allocate plans exactly the requested amounts", func(t *testing.T) {
		targets, jan, feb := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: jan, Amount: decimal.NewFromInt(50)},
			{InvoiceID: feb, Amount: decimal.NewFromInt(30)},
		})

		plan, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 2)
		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(80)))
		assert.True(t, plan.RemainingAmount.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, []uuid.UUID{jan}, plan.InvoicesFullyPaid)
		assert.Equal(t, []uuid.UUID{feb}, plan.InvoicesPartiallyPaid)
	})

	t.Run("Allocate fails when a request exceeds invoice outstanding", func(t *testing.T) {
		targets, jan, _ := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: jan, Amount: decimal.NewFromInt(60)},
		})

		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds outstanding")
	})

	t.Run("Allocate fails when total exceeds payment amount", func(t *testing.T) {
		targets, jan, feb := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: jan, Amount: decimal.NewFromInt(50)},
			{InvoiceID: feb, Amount: decimal.NewFromInt(70)},
		})

		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceed payment amount")
	})

	t.Run("Allocate fails for unknown invoice", func(t *testing.T) {
		targets, _, _ := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: uuid.New(), Amount: decimal.NewFromInt(10)},
		})

		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an outstanding invoice")
	})

	t.Run("Allocate fails for duplicate invoice", func(t *testing.T) {
		targets, jan, _ := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: jan, Amount: decimal.NewFromInt(10)},
			{InvoiceID: jan, Amount: decimal.NewFromInt(10)},
		})

		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("Allocate fails for non-positive request", func(t *testing.T) {
		targets, jan, _ := newTargets(t)
		strategy := NewExplicitAllocationStrategy([]ExplicitAllocationRequest{
			{InvoiceID: jan, Amount: decimal.Zero},
		})

		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Allocate fails without requests", func(t *testing.T) {
		targets, _, _ := newTargets(t)
		strategy := NewExplicitAllocationStrategy(nil)
		_, err := strategy.Allocate(decimal.NewFromInt(100), targets)
		assert.Error(t, err)
	})
}

func TestAllocationStrategyFactory(t *testing.T) {
	factory := NewAllocationStrategyFactory()

	t.Run("GetStrategy returns oldest-first strategy", func(t *testing.T) {
		s, err := factory.GetStrategy(AllocationStrategyTypeOldestFirst, nil)
		require.NoError(t, err)
		assert.Equal(t, AllocationStrategyTypeOldestFirst, s.StrategyType())
	})

	t.Run("GetStrategy returns explicit strategy with requests", func(t *testing.T) {
		s, err := factory.GetStrategy(AllocationStrategyTypeExplicit, []ExplicitAllocationRequest{
			{InvoiceID: uuid.New(), Amount: decimal.NewFromInt(10)},
		})
		require.NoError(t, err)
		assert.Equal(t, AllocationStrategyTypeExplicit, s.StrategyType())
	})

	t.Run("GetStrategy rejects explicit strategy without requests", func(t *testing.T) {
		_, err := factory.GetStrategy(AllocationStrategyTypeExplicit, nil)
		assert.Error(t, err)
	})

	t.Run("GetStrategy rejects unknown type", func(t *testing.T) {
		_, err := factory.GetStrategy(AllocationStrategyType("BOGUS"), nil)
		assert.Error(t, err)
	})
}
