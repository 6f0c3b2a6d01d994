package inventory

import (
	"time"

	"github.com/google/uuid"
)

// MedicineStockSummary is a denormalized cache row: the total non-expired
// on-hand quantity for one medicine. It is always rebuilt from batch truth,
// never incrementally patched, so it can be discarded and recomputed at any
// time without drift.
type MedicineStockSummary struct {
	MedicineID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TotalQuantityInStock int64     `gorm:"not null;default:0"`
	ComputedAt           time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (MedicineStockSummary) TableName() string {
	return "medicine_stock_summaries"
}

// NewMedicineStockSummary creates a summary row for a medicine. Negative
// totals are clamped to zero; batch non-negativity makes that structurally
// impossible, the clamp only guards against corrupt data read back from
// storage.
func NewMedicineStockSummary(medicineID uuid.UUID, total int64) *MedicineStockSummary {
	if total < 0 {
		total = 0
	}
	return &MedicineStockSummary{
		MedicineID:           medicineID,
		TotalQuantityInStock: total,
		ComputedAt:           time.Now(),
	}
}
