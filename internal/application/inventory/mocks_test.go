package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindByCode(ctx context.Context, code string) (*catalog.Medicine, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Medicine, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedicineRepository) Save(ctx context.Context, medicine *catalog.Medicine) error {
	args := m.Called(ctx, medicine)
	return args.Error(0)
}

func (m *MockMedicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	args := m.Called(ctx, medicineID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindNonExpiredByMedicine(ctx context.Context, medicineID uuid.UUID, asOf time.Time) ([]inventory.Batch, error) {
	args := m.Called(ctx, medicineID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) ExistsByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (bool, error) {
	args := m.Called(ctx, medicineID, batchNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockBatchRepository) CountByMedicine(ctx context.Context, medicineID uuid.UUID) (int64, error) {
	args := m.Called(ctx, medicineID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepository) SumNonExpiredQuantity(ctx context.Context, medicineID uuid.UUID, asOf time.Time, exclude *uuid.UUID) (int64, error) {
	args := m.Called(ctx, medicineID, asOf, exclude)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, entry *inventory.StockLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]inventory.StockLedgerEntry, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]inventory.StockLedgerEntry, error) {
	args := m.Called(ctx, medicineID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) CountByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, medicineID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SumQuantityChangeByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) Upsert(ctx context.Context, summary *inventory.MedicineStockSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	args := m.Called(ctx, medicineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MedicineStockSummary), args.Error(1)
}

func (m *MockSummaryRepository) FindBelowThreshold(ctx context.Context) ([]inventory.MedicineStockSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.MedicineStockSummary), args.Error(1)
}

type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Get(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	args := m.Called(ctx, medicineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MedicineStockSummary), args.Error(1)
}

func (m *MockSummaryCache) Set(ctx context.Context, summary *inventory.MedicineStockSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryCache) Invalidate(ctx context.Context, medicineID uuid.UUID) error {
	args := m.Called(ctx, medicineID)
	return args.Error(0)
}
