package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSummaryRepository_Upsert(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSummaryRepository(gormDB)

	summary := inventory.NewMedicineStockSummary(uuid.New(), 140)

	mock.ExpectExec(`INSERT INTO "medicine_stock_summaries" .* ON CONFLICT \("medicine_id"\) DO UPDATE SET "total_quantity_in_stock"=.*,"computed_at"=.*`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSummaryRepository_FindBelowThreshold(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSummaryRepository(gormDB)

	medicineID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"medicine_id", "total_quantity_in_stock", "computed_at"}).
		AddRow(medicineID, int64(8), now)

	mock.ExpectQuery(`SELECT .* FROM "medicine_stock_summaries" JOIN medicines ON medicines\.id = medicine_stock_summaries\.medicine_id WHERE medicines\.reorder_threshold > 0 AND medicine_stock_summaries\.total_quantity_in_stock <= medicines\.reorder_threshold`).
		WillReturnRows(rows)

	summaries, err := repo.FindBelowThreshold(context.Background())

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, medicineID, summaries[0].MedicineID)
	assert.Equal(t, int64(8), summaries[0].TotalQuantityInStock)
}
