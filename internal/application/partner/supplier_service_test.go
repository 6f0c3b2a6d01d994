package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSupplierRepo struct {
	mock.Mock
}

func (m *mockSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *mockSupplierRepo) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *mockSupplierRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSupplierRepo) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *mockSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestCreateSupplier(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	repo.On("Save", mock.Anything, mock.AnythingOfType("*partner.Supplier")).Return(nil)

	detail, err := svc.CreateSupplier(context.Background(), CreateSupplierRequest{
		Name:          "MedSource GmbH",
		ContactPerson: "A. Keller",
		Email:         "orders@medsource.example",
	})

	require.NoError(t, err)
	assert.Equal(t, "MedSource GmbH", detail.Name)
	assert.Equal(t, "A. Keller", detail.ContactPerson)
	assert.True(t, detail.Active)
	assert.NotEqual(t, uuid.Nil, detail.ID)
}

func TestCreateSupplier_EmptyName(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	_, err := svc.CreateSupplier(context.Background(), CreateSupplierRequest{Name: "   "})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_NAME", domainErr.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetSupplier_NotFound(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetSupplier(context.Background(), id)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateSupplier_PartialFields(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	supplier, err := partner.NewSupplier("MedSource GmbH")
	require.NoError(t, err)
	supplier.Phone = "+49 30 1234"
	repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	repo.On("Save", mock.Anything, supplier).Return(nil)

	email := "billing@medsource.example"
	detail, err := svc.UpdateSupplier(context.Background(), supplier.ID, UpdateSupplierRequest{
		Email: &email,
	})

	require.NoError(t, err)
	assert.Equal(t, "MedSource GmbH", detail.Name, "untouched fields keep their value")
	assert.Equal(t, "+49 30 1234", detail.Phone)
	assert.Equal(t, email, detail.Email)
}

func TestUpdateSupplier_EmptyNameRejected(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	supplier, err := partner.NewSupplier("MedSource GmbH")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)

	empty := ""
	_, err = svc.UpdateSupplier(context.Background(), supplier.ID, UpdateSupplierRequest{Name: &empty})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_NAME", domainErr.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeactivateSupplier(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	supplier, err := partner.NewSupplier("MedSource GmbH")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	repo.On("Save", mock.Anything, supplier).Return(nil)

	err = svc.DeactivateSupplier(context.Background(), supplier.ID)

	require.NoError(t, err)
	assert.False(t, supplier.Active)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestListSuppliers(t *testing.T) {
	repo := new(mockSupplierRepo)
	svc := NewSupplierService(repo, nil)

	a, err := partner.NewSupplier("MedSource GmbH")
	require.NoError(t, err)
	b, err := partner.NewSupplier("PharmaDirect AG")
	require.NoError(t, err)

	filter := shared.Filter{Page: 1, PageSize: 20}
	repo.On("FindAll", mock.Anything, filter).Return([]partner.Supplier{*a, *b}, nil)
	repo.On("Count", mock.Anything, filter).Return(int64(2), nil)

	page, err := svc.ListSuppliers(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}
