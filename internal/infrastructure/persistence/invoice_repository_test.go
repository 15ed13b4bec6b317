package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockInvoiceRepository creates a GormInvoiceRepository with a mocked SQL connection
func newMockInvoiceRepository(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

func invoiceRows(id, buildingID, unitID uuid.UUID, period string, outstanding string, status billing.InvoiceStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "building_id", "unit_id", "unit_label", "period",
		"total_amount", "paid_amount", "outstanding_amount", "status", "version",
	}).AddRow(id, buildingID, unitID, "4-B", period, "70", "0", outstanding, status, 1)
}

func TestGormInvoiceRepository_FindByIDForBuilding(t *testing.T) {
	t.Run("finds existing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		buildingID := uuid.New()
		unitID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 AND building_id = \$2 .* LIMIT .*`).
			WithArgs(invoiceID, buildingID, 1).
			WillReturnRows(invoiceRows(invoiceID, buildingID, unitID, "2024-01", "70", billing.InvoiceStatusPending))

		invoice, err := repo.FindByIDForBuilding(context.Background(), buildingID, invoiceID)

		assert.NoError(t, err)
		require.NotNil(t, invoice)
		assert.Equal(t, invoiceID, invoice.ID)
		assert.Equal(t, "2024-01", invoice.Period.String())
		assert.True(t, invoice.OutstandingAmount.Equal(decimal.NewFromInt(70)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		buildingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 AND building_id = \$2 .* LIMIT .*`).
			WithArgs(invoiceID, buildingID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByIDForBuilding(context.Background(), buildingID, invoiceID)

		assert.NoError(t, err)
		assert.Nil(t, invoice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_FindOutstanding(t *testing.T) {
	t.Run("orders by period then creation time", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		buildingID := uuid.New()
		unitID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "building_id", "unit_id", "period", "outstanding_amount", "status", "version"}).
			AddRow(uuid.New(), buildingID, unitID, "2024-01", "50", billing.InvoiceStatusPartial, 2).
			AddRow(uuid.New(), buildingID, unitID, "2024-02", "70", billing.InvoiceStatusPending, 1)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE building_id = \$1 AND unit_id = \$2 AND status IN \(\$3,\$4\) ORDER BY period ASC, created_at ASC`).
			WithArgs(buildingID, unitID, string(billing.InvoiceStatusPending), string(billing.InvoiceStatusPartial)).
			WillReturnRows(rows)

		invoices, err := repo.FindOutstanding(context.Background(), buildingID, unitID)

		assert.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.Equal(t, "2024-01", invoices[0].Period.String())
		assert.Equal(t, "2024-02", invoices[1].Period.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("rejects stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		period, err := valueobject.ParsePeriod("2024-01")
		require.NoError(t, err)
		invoice, err := billing.NewInvoice(uuid.New(), uuid.New(), "4-B", period, decimal.NewFromInt(70), "", nil)
		require.NoError(t, err)
		invoice.Version = 3
		invoice.MarkVersionLoaded()

		mock.ExpectExec(`UPDATE "invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), invoice)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates matching version", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		period, err := valueobject.ParsePeriod("2024-01")
		require.NoError(t, err)
		invoice, err := billing.NewInvoice(uuid.New(), uuid.New(), "4-B", period, decimal.NewFromInt(70), "", nil)
		require.NoError(t, err)
		invoice.Version = 2
		invoice.MarkVersionLoaded()

		mock.ExpectExec(`UPDATE "invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), invoice)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks on the hydrated version after applying a payment", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		period, err := valueobject.ParsePeriod("2024-01")
		require.NoError(t, err)
		invoice, err := billing.NewInvoice(uuid.New(), uuid.New(), "4-B", period, decimal.NewFromInt(70), "", nil)
		require.NoError(t, err)
		invoice.MarkVersionLoaded()

		err = invoice.ApplyPayment(decimal.NewFromInt(70), uuid.New(), "")
		require.NoError(t, err)
		assert.Greater(t, invoice.Version, invoice.LoadedVersion())
		assert.Equal(t, 1, invoice.LoadedVersion())

		mock.ExpectExec(`UPDATE "invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), invoice))
		assert.Equal(t, invoice.Version, invoice.LoadedVersion())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SumOutstandingByUnit(t *testing.T) {
	t.Run("sums open invoices", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		buildingID := uuid.New()
		unitID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(outstanding_amount\), 0\) FROM "invoices"`).
			WithArgs(buildingID, unitID, string(billing.InvoiceStatusPending), string(billing.InvoiceStatusPartial)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("120"))

		sum, err := repo.SumOutstandingByUnit(context.Background(), buildingID, unitID)

		assert.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(120)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_ExistsByUnitAndPeriod(t *testing.T) {
	t.Run("ignores cancelled invoices", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		buildingID := uuid.New()
		unitID := uuid.New()
		period, err := valueobject.ParsePeriod("2024-03")
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE building_id = \$1 AND unit_id = \$2 AND period = \$3 AND status <> \$4`).
			WithArgs(buildingID, unitID, "2024-03", string(billing.InvoiceStatusCancelled)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByUnitAndPeriod(context.Background(), buildingID, unitID, period)

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
