package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// BatchRepository defines persistence operations for batches.
//
// FindByIDForUpdate must acquire an exclusive row lock (SELECT ... FOR UPDATE
// or equivalent) that is held until the enclosing transaction commits or
// rolls back. Every read-modify-write of CurrentQuantity goes through it.
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]Batch, error)
	FindNonExpiredByMedicine(ctx context.Context, medicineID uuid.UUID, asOf time.Time) ([]Batch, error)
	ExistsByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (bool, error)
	CountByMedicine(ctx context.Context, medicineID uuid.UUID) (int64, error)
	// SumNonExpiredQuantity sums CurrentQuantity over a medicine's batches
	// whose expiry date falls on or after asOf's day (a batch expiring that
	// same day still counts), optionally excluding one batch from the sum.
	SumNonExpiredQuantity(ctx context.Context, medicineID uuid.UUID, asOf time.Time, exclude *uuid.UUID) (int64, error)
	Create(ctx context.Context, batch *Batch) error
	Save(ctx context.Context, batch *Batch) error
}

// LedgerRepository defines persistence for stock ledger entries. It is
// deliberately append-only: there is no update or delete operation, and none
// may be added.
type LedgerRepository interface {
	Create(ctx context.Context, entry *StockLedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockLedgerEntry, error)
	// FindByBatch returns a batch's entries in chronological (then insertion) order.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]StockLedgerEntry, error)
	FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]StockLedgerEntry, error)
	CountByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) (int64, error)
	CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error)
	// SumQuantityChangeByBatch replays the ledger arithmetically; used to audit
	// that the sum of changes matches the batch's current quantity.
	SumQuantityChangeByBatch(ctx context.Context, batchID uuid.UUID) (int64, error)
}

// SummaryRepository defines persistence for the per-medicine stock summary
// cache. Upsert writes a full, self-consistent row; last writer wins.
type SummaryRepository interface {
	Upsert(ctx context.Context, summary *MedicineStockSummary) error
	FindByMedicine(ctx context.Context, medicineID uuid.UUID) (*MedicineStockSummary, error)
	// FindBelowThreshold returns summaries whose total is at or below the
	// owning medicine's reorder threshold (thresholds of zero are ignored).
	FindBelowThreshold(ctx context.Context) ([]MedicineStockSummary, error)
}
