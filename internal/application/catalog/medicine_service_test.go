package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMedicineRepo struct {
	mock.Mock
}

func (m *mockMedicineRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *mockMedicineRepo) FindByCode(ctx context.Context, code string) (*catalog.Medicine, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *mockMedicineRepo) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Medicine, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *mockMedicineRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMedicineRepo) Save(ctx context.Context, medicine *catalog.Medicine) error {
	args := m.Called(ctx, medicine)
	return args.Error(0)
}

func (m *mockMedicineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockBatchRepo struct {
	mock.Mock
}

func (m *mockBatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *mockBatchRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *mockBatchRepo) FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	args := m.Called(ctx, medicineID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *mockBatchRepo) FindNonExpiredByMedicine(ctx context.Context, medicineID uuid.UUID, asOf time.Time) ([]inventory.Batch, error) {
	args := m.Called(ctx, medicineID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *mockBatchRepo) ExistsByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (bool, error) {
	args := m.Called(ctx, medicineID, batchNumber)
	return args.Bool(0), args.Error(1)
}

func (m *mockBatchRepo) CountByMedicine(ctx context.Context, medicineID uuid.UUID) (int64, error) {
	args := m.Called(ctx, medicineID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBatchRepo) SumNonExpiredQuantity(ctx context.Context, medicineID uuid.UUID, asOf time.Time, exclude *uuid.UUID) (int64, error) {
	args := m.Called(ctx, medicineID, asOf, exclude)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *mockBatchRepo) Save(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func TestCreateMedicine(t *testing.T) {
	medicineRepo := new(mockMedicineRepo)
	batchRepo := new(mockBatchRepo)
	svc := NewMedicineService(medicineRepo, batchRepo, nil)

	medicineRepo.On("FindByCode", mock.Anything, "IBU-400").Return(nil, shared.ErrNotFound)
	medicineRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Medicine")).Return(nil)

	detail, err := svc.CreateMedicine(context.Background(), CreateMedicineRequest{
		Name:             "Ibuprofen 400mg",
		Code:             "IBU-400",
		Unit:             "tablet",
		ReorderThreshold: 100,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen 400mg", detail.Name)
	assert.Equal(t, int64(100), detail.ReorderThreshold)
	assert.NotEqual(t, uuid.Nil, detail.ID)
}

func TestCreateMedicine_DuplicateCode(t *testing.T) {
	medicineRepo := new(mockMedicineRepo)
	batchRepo := new(mockBatchRepo)
	svc := NewMedicineService(medicineRepo, batchRepo, nil)

	existing, err := catalog.NewMedicine("Ibuprofen 400mg", "IBU-400", "tablet")
	require.NoError(t, err)
	medicineRepo.On("FindByCode", mock.Anything, "IBU-400").Return(existing, nil)

	_, err = svc.CreateMedicine(context.Background(), CreateMedicineRequest{
		Name: "Ibuprofen forte",
		Code: "IBU-400",
		Unit: "tablet",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "DUPLICATE_CODE", domainErr.Code)
	medicineRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeleteMedicine_RefusedWithBatches(t *testing.T) {
	medicineRepo := new(mockMedicineRepo)
	batchRepo := new(mockBatchRepo)
	svc := NewMedicineService(medicineRepo, batchRepo, nil)

	medicine, err := catalog.NewMedicine("Amoxicillin", "AMX-500", "capsule")
	require.NoError(t, err)
	medicineRepo.On("FindByID", mock.Anything, medicine.ID).Return(medicine, nil)
	batchRepo.On("CountByMedicine", mock.Anything, medicine.ID).Return(int64(3), nil)

	err = svc.DeleteMedicine(context.Background(), medicine.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "HAS_STOCK_HISTORY", domainErr.Code)
	medicineRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUpdateMedicine_PartialFields(t *testing.T) {
	medicineRepo := new(mockMedicineRepo)
	batchRepo := new(mockBatchRepo)
	svc := NewMedicineService(medicineRepo, batchRepo, nil)

	medicine, err := catalog.NewMedicine("Metformin", "MET-850", "tablet")
	require.NoError(t, err)
	medicineRepo.On("FindByID", mock.Anything, medicine.ID).Return(medicine, nil)
	medicineRepo.On("Save", mock.Anything, medicine).Return(nil)

	threshold := int64(40)
	detail, err := svc.UpdateMedicine(context.Background(), medicine.ID, UpdateMedicineRequest{
		ReorderThreshold: &threshold,
	})

	require.NoError(t, err)
	assert.Equal(t, "Metformin", detail.Name, "untouched fields keep their value")
	assert.Equal(t, int64(40), detail.ReorderThreshold)
}
