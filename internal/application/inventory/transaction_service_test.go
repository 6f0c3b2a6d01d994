package inventory

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

type engineFixture struct {
	medicineRepo *MockMedicineRepository
	batchRepo    *MockBatchRepository
	ledgerRepo   *MockLedgerRepository
	summaryRepo  *MockSummaryRepository
	service      *StockTransactionService
	medicine     *catalog.Medicine
	now          time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		medicineRepo: new(MockMedicineRepository),
		batchRepo:    new(MockBatchRepository),
		ledgerRepo:   new(MockLedgerRepository),
		summaryRepo:  new(MockSummaryRepository),
		now:          time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}

	medicine, err := catalog.NewMedicine("Amoxicillin 500mg", "AMX-500", "capsule")
	require.NoError(t, err)
	f.medicine = medicine

	clock := func() time.Time { return f.now }

	summaries := NewSummaryService(f.batchRepo, f.summaryRepo, nil)
	summaries.SetClock(clock)

	scope := NewNoOpTransactionScope(f.batchRepo, f.ledgerRepo)
	f.service = NewStockTransactionService(scope, f.medicineRepo, summaries, nil)
	f.service.SetClock(clock)

	return f
}

func (f *engineFixture) expectMedicine() {
	f.medicineRepo.On("FindByID", mock.Anything, f.medicine.ID).Return(f.medicine, nil)
}

func (f *engineFixture) expectRefresh(total int64) {
	f.batchRepo.On("SumNonExpiredQuantity", mock.Anything, f.medicine.ID, f.now, (*uuid.UUID)(nil)).
		Return(total, nil)
	f.summaryRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*inventory.MedicineStockSummary")).
		Return(nil)
}

func (f *engineFixture) newBatch(t *testing.T, quantity int64) *inventory.Batch {
	t.Helper()
	batch, err := inventory.NewBatch(
		f.medicine.ID, uuid.New(), "LOT-001", quantity, nil, f.now.AddDate(1, 0, 0))
	require.NoError(t, err)
	return batch
}

func TestProcessTransaction_Validation(t *testing.T) {
	supplierID := uuid.New()
	batchID := uuid.New()
	expiry := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		mutate   func(f *engineFixture, req *TransactionRequest)
		wantCode string
	}{
		{
			name: "unknown transaction type",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = "TELEPORT"
			},
			wantCode: inventory.ErrCodeUnsupportedTransactionType,
		},
		{
			name: "negative quantity magnitude",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Quantity = -5
			},
			wantCode: "INVALID_QUANTITY",
		},
		{
			name: "zero quantity on a dispense",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeOutDispense
				req.Quantity = 0
				req.BatchID = &batchID
			},
			wantCode: "INVALID_QUANTITY",
		},
		{
			name: "future transaction date",
			mutate: func(f *engineFixture, req *TransactionRequest) {
				future := f.now.Add(time.Hour)
				req.TransactionDate = &future
			},
			wantCode: "INVALID_DATE",
		},
		{
			name: "decrease without batch reference",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeDisposalExpired
				req.BatchID = nil
			},
			wantCode: inventory.ErrCodeMissingRequiredReference,
		},
		{
			name: "new batch without supplier",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeInNewBatch
				req.SupplierID = nil
				req.BatchNumber = "LOT-001"
				req.ExpiryDate = &expiry
			},
			wantCode: inventory.ErrCodeMissingRequiredReference,
		},
		{
			name: "new batch without batch number",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeInNewBatch
				req.SupplierID = &supplierID
				req.BatchNumber = ""
				req.ExpiryDate = &expiry
			},
			wantCode: inventory.ErrCodeMissingRequiredReference,
		},
		{
			name: "new batch without expiry date",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeInNewBatch
				req.SupplierID = &supplierID
				req.BatchNumber = "LOT-001"
				req.ExpiryDate = nil
			},
			wantCode: inventory.ErrCodeMissingRequiredReference,
		},
		{
			name: "initial stock both creating and targeting a batch",
			mutate: func(_ *engineFixture, req *TransactionRequest) {
				req.Type = inventory.TransactionTypeInitialStock
				req.CreateBatch = true
				req.BatchID = &batchID
				req.SupplierID = &supplierID
				req.BatchNumber = "LOT-001"
				req.ExpiryDate = &expiry
			},
			wantCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			req := TransactionRequest{
				Type:       inventory.TransactionTypeAdjustAdd,
				MedicineID: f.medicine.ID,
				BatchID:    &batchID,
				Quantity:   10,
			}
			tt.mutate(f, &req)

			result, err := f.service.ProcessTransaction(context.Background(), req)

			assert.Nil(t, result)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errorCode(err))
			// Validation failures must never reach the stores.
			f.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

// errorCode extracts the stable code regardless of the concrete error type.
func errorCode(err error) string {
	type coded interface{ Code() string }
	if c, ok := err.(coded); ok {
		return c.Code()
	}
	if de, ok := err.(*shared.DomainError); ok {
		return de.Code
	}
	return ""
}

func TestProcessTransaction_MedicineNotFound(t *testing.T) {
	f := newEngineFixture(t)
	f.medicineRepo.On("FindByID", mock.Anything, f.medicine.ID).Return(nil, shared.ErrNotFound)

	batchID := uuid.New()
	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batchID,
		Quantity:   5,
	})

	require.Error(t, err)
	assert.Equal(t, inventory.ErrCodeMedicineNotFound, errorCode(err))
}

func TestProcessTransaction_InNewBatch(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	supplierID := uuid.New()
	expiry := f.now.AddDate(1, 0, 0)

	f.batchRepo.On("ExistsByMedicineAndNumber", mock.Anything, f.medicine.ID, "LOT-2025-01").
		Return(false, nil)

	var created *inventory.Batch
	f.batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.Batch")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*inventory.Batch)
		}).
		Return(nil)

	var entry *inventory.StockLedgerEntry
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*inventory.StockLedgerEntry)
		}).
		Return(nil)

	f.expectRefresh(120)

	result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:        inventory.TransactionTypeInNewBatch,
		MedicineID:  f.medicine.ID,
		Quantity:    120,
		SupplierID:  &supplierID,
		BatchNumber: "LOT-2025-01",
		ExpiryDate:  &expiry,
		Notes:       "weekly delivery",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, created)
	assert.Equal(t, int64(120), created.CurrentQuantity)
	assert.Equal(t, int64(120), created.QuantityReceived)

	require.NotNil(t, entry)
	assert.Equal(t, int64(120), entry.QuantityChange)
	assert.Equal(t, int64(120), entry.QuantityAfter)
	require.NotNil(t, entry.BatchID)
	assert.Equal(t, created.ID, *entry.BatchID)
	assert.Equal(t, "weekly delivery", entry.Notes)

	require.NotNil(t, result.Batch)
	assert.Equal(t, "LOT-2025-01", result.Batch.BatchNumber)
	f.summaryRepo.AssertCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestProcessTransaction_InNewBatch_DuplicateNumber(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	supplierID := uuid.New()
	expiry := f.now.AddDate(1, 0, 0)
	f.batchRepo.On("ExistsByMedicineAndNumber", mock.Anything, f.medicine.ID, "LOT-2025-01").
		Return(true, nil)

	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:        inventory.TransactionTypeInNewBatch,
		MedicineID:  f.medicine.ID,
		Quantity:    50,
		SupplierID:  &supplierID,
		BatchNumber: "LOT-2025-01",
		ExpiryDate:  &expiry,
	})

	require.Error(t, err)
	assert.Equal(t, inventory.ErrCodeDuplicateBatchNumber, errorCode(err))
	f.batchRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessTransaction_DecreasingTypes(t *testing.T) {
	for _, txType := range inventory.DecreasingTypes() {
		t.Run(txType.String(), func(t *testing.T) {
			f := newEngineFixture(t)
			f.expectMedicine()

			batch := f.newBatch(t, 100)
			f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
			f.batchRepo.On("Save", mock.Anything, batch).Return(nil)

			var entry *inventory.StockLedgerEntry
			f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).
				Run(func(args mock.Arguments) {
					entry = args.Get(1).(*inventory.StockLedgerEntry)
				}).
				Return(nil)
			f.expectRefresh(70)

			result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
				Type:       txType,
				MedicineID: f.medicine.ID,
				BatchID:    &batch.ID,
				Quantity:   30,
			})

			require.NoError(t, err)
			assert.Equal(t, int64(70), batch.CurrentQuantity)
			require.NotNil(t, entry)
			assert.Equal(t, int64(-30), entry.QuantityChange, "engine owns the sign")
			assert.Equal(t, int64(70), entry.QuantityAfter)
			assert.Equal(t, txType, entry.TransactionType)
			require.NotNil(t, result.Batch)
			assert.Equal(t, int64(70), result.Batch.CurrentQuantity)
		})
	}
}

func TestProcessTransaction_InsufficientStock(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batch := f.newBatch(t, 10)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)

	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   25,
	})

	require.Error(t, err)
	var insufficientErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, batch.ID, insufficientErr.BatchID)
	assert.Equal(t, "LOT-001", insufficientErr.BatchNumber)
	assert.Equal(t, int64(25), insufficientErr.Attempted)
	assert.Equal(t, int64(10), insufficientErr.Available)

	// Refusal leaves no trace: no quantity change, no write, no ledger entry,
	// no summary refresh.
	assert.Equal(t, int64(10), batch.CurrentQuantity)
	f.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.summaryRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestProcessTransaction_DispenseBatchNotFound(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batchID := uuid.New()
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batchID).Return(nil, shared.ErrNotFound)

	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batchID,
		Quantity:   5,
	})

	require.Error(t, err)
	assert.Equal(t, inventory.ErrCodeBatchNotFound, errorCode(err))
}

func TestProcessTransaction_BatchOfOtherMedicineRejected(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	otherMedicine, err := catalog.NewMedicine("Ibuprofen 400mg", "IBU-400", "tablet")
	require.NoError(t, err)
	batch, err := inventory.NewBatch(
		otherMedicine.ID, uuid.New(), "LOT-900", 100, nil, f.now.AddDate(1, 0, 0))
	require.NoError(t, err)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)

	_, err = f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   10,
	})

	require.Error(t, err)
	assert.Equal(t, inventory.ErrCodeBatchNotFound, errorCode(err))

	// The batch belongs to another medicine: nothing moves and the ledger
	// never records an entry attributed to the wrong medicine.
	assert.Equal(t, int64(100), batch.CurrentQuantity)
	f.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.summaryRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestProcessTransaction_AdjustAdd(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batch := f.newBatch(t, 40)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("Save", mock.Anything, batch).Return(nil)

	var entry *inventory.StockLedgerEntry
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*inventory.StockLedgerEntry)
		}).
		Return(nil)
	f.expectRefresh(55)

	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeAdjustAdd,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   15,
		Notes:      "cycle count correction",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), batch.CurrentQuantity)
	require.NotNil(t, entry)
	assert.Equal(t, int64(15), entry.QuantityChange)
	assert.Equal(t, int64(55), entry.QuantityAfter)
}

func TestProcessTransaction_InitialStock_Batchless(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	// Projection for the entry and the post-commit refresh both sum batches.
	f.batchRepo.On("SumNonExpiredQuantity", mock.Anything, f.medicine.ID, f.now, (*uuid.UUID)(nil)).
		Return(int64(200), nil)
	f.summaryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	var entry *inventory.StockLedgerEntry
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*inventory.StockLedgerEntry)
		}).
		Return(nil)

	result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeInitialStock,
		MedicineID: f.medicine.ID,
		Quantity:   35,
	})

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Nil(t, entry.BatchID)
	assert.Equal(t, int64(35), entry.QuantityChange)
	assert.Equal(t, int64(235), entry.QuantityAfter, "projected onto the sum of other batches")
	assert.Nil(t, result.Batch)
}

func TestProcessTransaction_InitialStock_ExistingBatchIsForcedIncrease(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batch := f.newBatch(t, 20)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("Save", mock.Anything, batch).Return(nil)
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).Return(nil)
	f.expectRefresh(50)

	_, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeInitialStock,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   30,
	})

	require.NoError(t, err)
	// Added on top, not set-to-value.
	assert.Equal(t, int64(50), batch.CurrentQuantity)
}

func TestProcessTransaction_InitialStock_CreateBatch(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	supplierID := uuid.New()
	expiry := f.now.AddDate(2, 0, 0)

	f.batchRepo.On("ExistsByMedicineAndNumber", mock.Anything, f.medicine.ID, "OPENING-01").
		Return(false, nil)
	f.batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.Batch")).Return(nil)
	var entry *inventory.StockLedgerEntry
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*inventory.StockLedgerEntry)
		}).
		Return(nil)
	f.expectRefresh(300)

	result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:        inventory.TransactionTypeInitialStock,
		MedicineID:  f.medicine.ID,
		Quantity:    300,
		CreateBatch: true,
		SupplierID:  &supplierID,
		BatchNumber: "OPENING-01",
		ExpiryDate:  &expiry,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Batch)
	assert.Equal(t, int64(300), result.Batch.CurrentQuantity)
	require.NotNil(t, entry)
	assert.Equal(t, inventory.TransactionTypeInitialStock, entry.TransactionType)
	assert.Equal(t, int64(300), entry.QuantityChange)
}

func TestProcessTransaction_FlagsReorderThreshold(t *testing.T) {
	run := func(t *testing.T, refreshedTotal int64) *TransactionResult {
		f := newEngineFixture(t)
		require.NoError(t, f.medicine.SetReorderThreshold(50))
		f.expectMedicine()

		batch := f.newBatch(t, refreshedTotal+10)
		f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
		f.batchRepo.On("Save", mock.Anything, batch).Return(nil)
		f.ledgerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.expectRefresh(refreshedTotal)

		result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
			Type:       inventory.TransactionTypeOutDispense,
			MedicineID: f.medicine.ID,
			BatchID:    &batch.ID,
			Quantity:   10,
		})
		require.NoError(t, err)
		return result
	}

	t.Run("set when refreshed total reaches the threshold", func(t *testing.T) {
		result := run(t, 50)
		assert.True(t, result.BelowReorderThreshold)
	})

	t.Run("clear while stock stays above it", func(t *testing.T) {
		result := run(t, 51)
		assert.False(t, result.BelowReorderThreshold)
	})
}

func TestProcessTransaction_SummaryRefreshFailureDoesNotFailTransaction(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batch := f.newBatch(t, 100)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("Save", mock.Anything, batch).Return(nil)
	f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockLedgerEntry")).Return(nil)
	f.batchRepo.On("SumNonExpiredQuantity", mock.Anything, f.medicine.ID, f.now, (*uuid.UUID)(nil)).
		Return(int64(0), assert.AnError)

	result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   10,
	})

	// The movement committed; a stale summary is repaired by the next refresh.
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(90), batch.CurrentQuantity)
	assert.False(t, result.BelowReorderThreshold, "no refreshed total to compare against")
}

func TestProcessTransaction_ResultMessage(t *testing.T) {
	f := newEngineFixture(t)
	f.expectMedicine()

	batch := f.newBatch(t, 100)
	f.batchRepo.On("FindByIDForUpdate", mock.Anything, batch.ID).Return(batch, nil)
	f.batchRepo.On("Save", mock.Anything, batch).Return(nil)
	f.ledgerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectRefresh(94)

	result, err := f.service.ProcessTransaction(context.Background(), TransactionRequest{
		Type:       inventory.TransactionTypeOutDispense,
		MedicineID: f.medicine.ID,
		BatchID:    &batch.ID,
		Quantity:   6,
	})

	require.NoError(t, err)
	assert.Contains(t, result.Message, "Amoxicillin 500mg")
	assert.Contains(t, result.Message, "LOT-001")
	assert.Contains(t, result.Message, "94 remaining")
}
