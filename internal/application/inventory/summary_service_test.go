package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSummaryService_Refresh(t *testing.T) {
	medicineID := uuid.New()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	svc := NewSummaryService(batchRepo, summaryRepo, nil)
	svc.SetClock(func() time.Time { return now })

	batchRepo.On("SumNonExpiredQuantity", mock.Anything, medicineID, now, (*uuid.UUID)(nil)).
		Return(int64(180), nil)

	var upserted *inventory.MedicineStockSummary
	summaryRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*inventory.MedicineStockSummary")).
		Run(func(args mock.Arguments) {
			upserted = args.Get(1).(*inventory.MedicineStockSummary)
		}).
		Return(nil)

	summary, err := svc.Refresh(context.Background(), medicineID)

	require.NoError(t, err)
	assert.Equal(t, int64(180), summary.TotalQuantityInStock)
	require.NotNil(t, upserted)
	assert.Equal(t, medicineID, upserted.MedicineID)
	assert.Equal(t, int64(180), upserted.TotalQuantityInStock)
}

func TestSummaryService_RefreshClampsNegativeTotal(t *testing.T) {
	medicineID := uuid.New()
	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	svc := NewSummaryService(batchRepo, summaryRepo, nil)

	// A negative aggregate can only come from data corruption; the summary
	// still never reports below zero.
	batchRepo.On("SumNonExpiredQuantity", mock.Anything, medicineID, mock.Anything, (*uuid.UUID)(nil)).
		Return(int64(-7), nil)
	summaryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.Refresh(context.Background(), medicineID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalQuantityInStock)
}

func TestSummaryService_RefreshWritesCache(t *testing.T) {
	medicineID := uuid.New()
	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	cache := new(MockSummaryCache)

	svc := NewSummaryService(batchRepo, summaryRepo, nil)
	svc.SetCache(cache)

	batchRepo.On("SumNonExpiredQuantity", mock.Anything, medicineID, mock.Anything, (*uuid.UUID)(nil)).
		Return(int64(42), nil)
	summaryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*inventory.MedicineStockSummary")).Return(nil)

	_, err := svc.Refresh(context.Background(), medicineID)

	require.NoError(t, err)
	cache.AssertCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestSummaryService_RefreshSurvivesCacheFailure(t *testing.T) {
	medicineID := uuid.New()
	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	cache := new(MockSummaryCache)

	svc := NewSummaryService(batchRepo, summaryRepo, nil)
	svc.SetCache(cache)

	batchRepo.On("SumNonExpiredQuantity", mock.Anything, medicineID, mock.Anything, (*uuid.UUID)(nil)).
		Return(int64(42), nil)
	summaryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	cache.On("Set", mock.Anything, mock.Anything).Return(assert.AnError)

	summary, err := svc.Refresh(context.Background(), medicineID)

	require.NoError(t, err)
	assert.Equal(t, int64(42), summary.TotalQuantityInStock)
}

func TestSummaryService_GetReadsThroughCache(t *testing.T) {
	medicineID := uuid.New()
	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	cache := new(MockSummaryCache)

	svc := NewSummaryService(batchRepo, summaryRepo, nil)
	svc.SetCache(cache)

	cached := inventory.NewMedicineStockSummary(medicineID, 99)
	cache.On("Get", mock.Anything, medicineID).Return(cached, nil)

	summary, err := svc.Get(context.Background(), medicineID)

	require.NoError(t, err)
	assert.Equal(t, int64(99), summary.TotalQuantityInStock)
	summaryRepo.AssertNotCalled(t, "FindByMedicine", mock.Anything, mock.Anything)
}

func TestSummaryService_GetMissFallsBackAndRepopulates(t *testing.T) {
	medicineID := uuid.New()
	batchRepo := new(MockBatchRepository)
	summaryRepo := new(MockSummaryRepository)
	cache := new(MockSummaryCache)

	svc := NewSummaryService(batchRepo, summaryRepo, nil)
	svc.SetCache(cache)

	stored := inventory.NewMedicineStockSummary(medicineID, 55)
	cache.On("Get", mock.Anything, medicineID).Return(nil, nil)
	summaryRepo.On("FindByMedicine", mock.Anything, medicineID).Return(stored, nil)
	cache.On("Set", mock.Anything, stored).Return(nil)

	summary, err := svc.Get(context.Background(), medicineID)

	require.NoError(t, err)
	assert.Equal(t, int64(55), summary.TotalQuantityInStock)
	cache.AssertCalled(t, "Set", mock.Anything, stored)
}
