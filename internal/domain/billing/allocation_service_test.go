package billing

import (
	"context"
	"testing"

	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocationService(t *testing.T) {
	t.Run("defaults to oldest-first", func(t *testing.T) {
		svc := NewAllocationService()
		assert.Equal(t, AllocationStrategyTypeOldestFirst, svc.GetDefaultStrategy())
	})

	t.Run("WithDefaultStrategy changes the default", func(t *testing.T) {
		svc := NewAllocationService(WithDefaultStrategy(AllocationStrategyTypeExplicit))
		assert.Equal(t, AllocationStrategyTypeExplicit, svc.GetDefaultStrategy())
	})

	t.Run("WithDefaultStrategy ignores invalid types", func(t *testing.T) {
		svc := NewAllocationService(WithDefaultStrategy(AllocationStrategyType("BOGUS")))
		assert.Equal(t, AllocationStrategyTypeOldestFirst, svc.GetDefaultStrategy())
	})

	t.Run("WithStrategyOverride wins when valid", func(t *testing.T) {
		svc := NewAllocationService(WithStrategyOverride(
			func(ctx context.Context, buildingID uuid.UUID) AllocationStrategyType {
				return AllocationStrategyTypeExplicit
			}))
		assert.Equal(t, AllocationStrategyTypeExplicit, svc.GetEffectiveStrategy(context.Background(), uuid.New()))
	})
}

func TestAllocationServiceAutoAllocate(t *testing.T) {
	svc := NewAllocationService()
	ctx := context.Background()

	t.Run("covers oldest periods and updates both sides", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(70))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(50))
		feb := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-02", decimal.NewFromInt(70))
		mar := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-03", decimal.NewFromInt(70))

		result, err := svc.AutoAllocatePayment(ctx, payment, []Invoice{*mar, *jan, *feb})
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.True(t, result.Allocations[0].Amount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, "2024-01", result.Allocations[0].Period.String())
		assert.True(t, result.Allocations[1].Amount.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, "2024-02", result.Allocations[1].Period.String())

		assert.True(t, result.FullyAllocated)
		assert.True(t, result.RemainingUnallocated.IsZero())

		// Payment side
		assert.True(t, payment.AllocatedAmount.Equal(decimal.NewFromInt(70)))
		assert.Equal(t, 2, payment.AllocationCount())

		// Invoice side
		require.Len(t, result.UpdatedInvoices, 2)
		assert.Equal(t, InvoiceStatusPaid, result.UpdatedInvoices[0].Status)
		assert.Equal(t, InvoiceStatusPartial, result.UpdatedInvoices[1].Status)
		assert.True(t, result.UpdatedInvoices[1].OutstandingAmount.Equal(decimal.NewFromInt(50)))
	})

	t.Run("residual stays on the payment when debt is smaller", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(100))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(60))

		result, err := svc.AutoAllocatePayment(ctx, payment, []Invoice{*jan})
		require.NoError(t, err)

		assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(60)))
		assert.True(t, result.RemainingUnallocated.Equal(decimal.NewFromInt(40)))
		assert.False(t, result.FullyAllocated)
		assert.True(t, payment.UnallocatedAmount.Equal(decimal.NewFromInt(40)))
	})

	t.Run("no outstanding invoices leaves whole amount as residual", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(100))

		result, err := svc.AutoAllocatePayment(ctx, payment, []Invoice{})
		require.NoError(t, err)

		assert.Empty(t, result.Allocations)
		assert.True(t, result.RemainingUnallocated.Equal(decimal.NewFromInt(100)))
		assert.True(t, payment.UnallocatedAmount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("ignores invoices of other units", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(50))
		other := newTestInvoice(t, payment.BuildingID, uuid.New(), "2024-01", decimal.NewFromInt(50))

		result, err := svc.AutoAllocatePayment(ctx, payment, []Invoice{*other})
		require.NoError(t, err)

		assert.Empty(t, result.Allocations)
		assert.True(t, payment.UnallocatedAmount.Equal(decimal.NewFromInt(50)))
	})

	t.Run("refuses payment not in pending state", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(50))
		require.NoError(t, payment.Approve(uuid.New()))

		_, err := svc.AutoAllocatePayment(ctx, payment, []Invoice{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be PENDING")
	})
}

func TestAllocationServiceSelectedPeriods(t *testing.T) {
	svc := NewAllocationService()
	ctx := context.Background()

	t.Run("restricts allocation to the selected periods", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(100))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(50))
		feb := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-02", decimal.NewFromInt(70))

		result, err := svc.AllocatePayment(ctx, AllocatePaymentRequest{
			Payment:         payment,
			Invoices:        []Invoice{*jan, *feb},
			StrategyType:    AllocationStrategyTypeOldestFirst,
			SelectedPeriods: []valueobject.Period{mustPeriod(t, "2024-01")},
		})
		require.NoError(t, err)

		require.Len(t, result.Allocations, 1)
		assert.Equal(t, "2024-01", result.Allocations[0].Period.String())
		assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(50)))
		assert.True(t, result.RemainingUnallocated.Equal(decimal.NewFromInt(50)))

		// February invoice untouched
		assert.True(t, feb.PaidAmount.IsZero())
	})
}

func TestAllocationServiceExplicit(t *testing.T) {
	svc := NewAllocationService()
	ctx := context.Background()

	t.Run("applies reviewer-specified amounts", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(100))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(50))
		feb := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-02", decimal.NewFromInt(70))

		result, err := svc.ExplicitAllocatePayment(ctx, payment, []Invoice{*jan, *feb},
			[]ExplicitAllocationRequest{
				{InvoiceID: jan.ID, Amount: decimal.NewFromInt(50)},
				{InvoiceID: feb.ID, Amount: decimal.NewFromInt(50)},
			})
		require.NoError(t, err)

		assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(100)))
		assert.True(t, result.FullyAllocated)
		require.Len(t, result.UpdatedInvoices, 2)
		assert.Equal(t, InvoiceStatusPaid, result.UpdatedInvoices[0].Status)
		assert.Equal(t, InvoiceStatusPartial, result.UpdatedInvoices[1].Status)
	})

	t.Run("all-or-nothing: invalid plan leaves payment and invoices untouched", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(100))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(50))

		_, err := svc.ExplicitAllocatePayment(ctx, payment, []Invoice{*jan},
			[]ExplicitAllocationRequest{
				{InvoiceID: jan.ID, Amount: decimal.NewFromInt(30)},
				{InvoiceID: uuid.New(), Amount: decimal.NewFromInt(30)},
			})
		require.Error(t, err)

		assert.True(t, payment.AllocatedAmount.IsZero())
		assert.Equal(t, 0, payment.AllocationCount())
		assert.True(t, jan.PaidAmount.IsZero())
		assert.Equal(t, InvoiceStatusPending, jan.Status)
	})
}

func TestAllocationServicePreview(t *testing.T) {
	svc := NewAllocationService()
	ctx := context.Background()

	t.Run("preview plans without mutating", func(t *testing.T) {
		payment := newTestPayment(t, decimal.NewFromInt(70))
		jan := newTestInvoice(t, payment.BuildingID, payment.UnitID, "2024-01", decimal.NewFromInt(50))

		plan, err := svc.PreviewAllocatePayment(ctx, AllocatePaymentRequest{
			Payment:      payment,
			Invoices:     []Invoice{*jan},
			StrategyType: AllocationStrategyTypeOldestFirst,
		})
		require.NoError(t, err)

		require.Len(t, plan.Allocations, 1)
		assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(50)))

		// Nothing applied
		assert.True(t, payment.AllocatedAmount.IsZero())
		assert.True(t, jan.PaidAmount.IsZero())
	})
}
