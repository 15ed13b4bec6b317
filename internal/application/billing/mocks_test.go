package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
)

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, buildingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (*billing.Invoice, error) {
	args := m.Called(ctx, buildingID, unitID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, buildingID, unitID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstanding(ctx context.Context, buildingID, unitID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, buildingID, unitID)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdue(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) CountByStatus(ctx context.Context, buildingID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	args := m.Called(ctx, buildingID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, buildingID, unitID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingForBuilding(ctx context.Context, buildingID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByUnitAndPeriod(ctx context.Context, buildingID, unitID uuid.UUID, period valueobject.Period) (bool, error) {
	args := m.Called(ctx, buildingID, unitID, period)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForBuilding(ctx context.Context, buildingID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, buildingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByUnit(ctx context.Context, buildingID, unitID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, buildingID, unitID, filter)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPending(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) CountForBuilding(ctx context.Context, buildingID uuid.UUID, filter billing.PaymentFilter) (int64, error) {
	args := m.Called(ctx, buildingID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) CountByStatus(ctx context.Context, buildingID uuid.UUID, status billing.PaymentStatus) (int64, error) {
	args := m.Called(ctx, buildingID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumApprovedByUnit(ctx context.Context, buildingID, unitID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, buildingID, unitID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByReference(ctx context.Context, buildingID uuid.UUID, method billing.PaymentMethod, reference string) (bool, error) {
	args := m.Called(ctx, buildingID, method, reference)
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

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// recordingTxManager is a shared.TransactionManager that runs the unit of
// work directly and records each invocation and its outcome.
type recordingTxManager struct {
	calls  int
	failed bool
}

func (m *recordingTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		m.failed = true
		return err
	}
	return nil
}
