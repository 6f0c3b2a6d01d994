package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// StockLedgerEntry is an immutable fact: at TransactionDate, for MedicineID
// (and BatchID if the movement touched a batch), a transaction of
// TransactionType changed the quantity by the signed QuantityChange, leaving
// QuantityAfter on hand. Entries are the audit trail; replaying a batch's
// entries in chronological order reproduces its current quantity. Once
// created an entry is never updated or deleted.
type StockLedgerEntry struct {
	shared.BaseEntity
	MedicineID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_medicine_time,priority:1"`
	BatchID         *uuid.UUID      `gorm:"type:uuid;index"` // nil for batch-less baseline entries
	TransactionType TransactionType `gorm:"type:varchar(30);not null;index"`
	QuantityChange  int64           `gorm:"not null"` // signed; the sign comes from the taxonomy, never the caller
	QuantityAfter   int64           `gorm:"not null"`
	Notes           string          `gorm:"type:text"`
	UserID          *uuid.UUID      `gorm:"type:uuid"`
	TransactionDate time.Time       `gorm:"type:timestamptz;not null;index:idx_ledger_medicine_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockLedgerEntry) TableName() string {
	return "stock_ledger_entries"
}

// NewStockLedgerEntry creates a ledger entry, enforcing that the signed
// change matches the transaction type's direction. A mismatch is a
// programming error in the engine and is reported, never corrected.
func NewStockLedgerEntry(
	medicineID uuid.UUID,
	txType TransactionType,
	quantityChange int64,
	quantityAfter int64,
) (*StockLedgerEntry, error) {
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEDICINE", "Medicine ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, &UnsupportedTransactionTypeError{Type: txType}
	}
	if txType.IsDecrease() && quantityChange >= 0 {
		return nil, &InvalidQuantitySignError{Type: txType, Delta: quantityChange}
	}
	if txType.IsIncrease() && quantityChange < 0 {
		return nil, &InvalidQuantitySignError{Type: txType, Delta: quantityChange}
	}
	if quantityAfter < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity after transaction cannot be negative")
	}

	return &StockLedgerEntry{
		BaseEntity:      shared.NewBaseEntity(),
		MedicineID:      medicineID,
		TransactionType: txType,
		QuantityChange:  quantityChange,
		QuantityAfter:   quantityAfter,
		TransactionDate: time.Now(),
	}, nil
}

// WithBatchID attributes the entry to a batch
func (e *StockLedgerEntry) WithBatchID(batchID uuid.UUID) *StockLedgerEntry {
	e.BatchID = &batchID
	return e
}

// WithNotes sets the free-text notes
func (e *StockLedgerEntry) WithNotes(notes string) *StockLedgerEntry {
	e.Notes = notes
	return e
}

// WithUserID attributes the entry to the acting user
func (e *StockLedgerEntry) WithUserID(userID uuid.UUID) *StockLedgerEntry {
	e.UserID = &userID
	return e
}

// WithTransactionDate overrides the default (now) transaction timestamp
func (e *StockLedgerEntry) WithTransactionDate(date time.Time) *StockLedgerEntry {
	e.TransactionDate = date
	return e
}

// IsIncrease returns true if this entry recorded an increase
func (e *StockLedgerEntry) IsIncrease() bool {
	return e.TransactionType.IsIncrease()
}

// Magnitude returns the unsigned size of the movement
func (e *StockLedgerEntry) Magnitude() int64 {
	if e.QuantityChange < 0 {
		return -e.QuantityChange
	}
	return e.QuantityChange
}
