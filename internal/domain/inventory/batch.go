package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Batch represents one physical lot of a medicine. CurrentQuantity is the
// single source of truth for how much of the lot is left; it is only ever
// mutated by the transaction engine while the row is exclusively locked.
type Batch struct {
	shared.BaseEntity
	MedicineID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_medicine"`
	SupplierID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_batches_medicine_number,priority:2"`
	QuantityReceived int64           `gorm:"not null"`
	CurrentQuantity  int64           `gorm:"not null;check:current_quantity >= 0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ManufactureDate  *time.Time      `gorm:"type:date"`
	ExpiryDate       time.Time       `gorm:"type:date;not null;index"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "batches"
}

// NewBatch creates a new batch with its full received quantity on hand
func NewBatch(
	medicineID, supplierID uuid.UUID,
	batchNumber string,
	quantity int64,
	manufactureDate *time.Time,
	expiryDate time.Time,
) (*Batch, error) {
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEDICINE", "Medicine ID cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	batchNumber = strings.TrimSpace(batchNumber)
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
	}
	if expiryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date is required")
	}
	if manufactureDate != nil && expiryDate.Before(*manufactureDate) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date cannot precede manufacture date")
	}

	return &Batch{
		BaseEntity:       shared.NewBaseEntity(),
		MedicineID:       medicineID,
		SupplierID:       supplierID,
		BatchNumber:      batchNumber,
		QuantityReceived: quantity,
		CurrentQuantity:  quantity,
		UnitCost:         decimal.Zero,
		ManufactureDate:  manufactureDate,
		ExpiryDate:       expiryDate,
	}, nil
}

// IsExpired reports whether the batch has expired as of the given instant
func (b *Batch) IsExpired(asOf time.Time) bool {
	return b.ExpiryDate.Before(asOf.Truncate(24 * time.Hour))
}

// WillExpireWithin reports whether the batch expires within the duration
func (b *Batch) WillExpireWithin(d time.Duration) bool {
	return b.ExpiryDate.Before(time.Now().Add(d))
}

// DaysUntilExpiry returns the whole days left before the batch expires;
// negative values mean it is already expired.
func (b *Batch) DaysUntilExpiry() int {
	return int(time.Until(b.ExpiryDate).Hours() / 24)
}

// Add increases the on-hand quantity
func (b *Batch) Add(quantity int64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to add cannot be negative")
	}
	b.CurrentQuantity += quantity
	b.UpdatedAt = time.Now()
	return nil
}

// Deduct decreases the on-hand quantity. Unlike a best-effort pick, a deduct
// that exceeds the remaining quantity is refused outright so the non-negativity
// invariant can never be broken.
func (b *Batch) Deduct(quantity int64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to deduct cannot be negative")
	}
	if b.CurrentQuantity < quantity {
		return NewInsufficientStockError(b.ID, b.BatchNumber, quantity, b.CurrentQuantity)
	}
	b.CurrentQuantity -= quantity
	b.UpdatedAt = time.Now()
	return nil
}

// CanFulfill reports whether the batch holds at least the given quantity
func (b *Batch) CanFulfill(quantity int64) bool {
	return b.CurrentQuantity >= quantity
}

// HasStock returns true if the batch has any quantity left
func (b *Batch) HasStock() bool {
	return b.CurrentQuantity > 0
}

// TotalValue returns the on-hand value of the batch
func (b *Batch) TotalValue() decimal.Decimal {
	return decimal.NewFromInt(b.CurrentQuantity).Mul(b.UnitCost)
}
