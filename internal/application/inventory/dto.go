package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// TransactionRequest is the validated input to the transaction engine.
// Quantity is always an unsigned magnitude; the engine derives the sign from
// the transaction type. The batch-creation fields (SupplierID, BatchNumber,
// ManufactureDate, ExpiryDate) are required together only for flows that
// create a batch.
type TransactionRequest struct {
	Type            inventory.TransactionType
	MedicineID      uuid.UUID
	BatchID         *uuid.UUID
	Quantity        int64
	Notes           string
	TransactionDate *time.Time // defaults to now, must not be in the future
	UserID          *uuid.UUID

	// CreateBatch selects the batch-creating sub-case of INITIAL_STOCK.
	// IN_NEW_BATCH always creates a batch regardless of this flag.
	CreateBatch     bool
	SupplierID      *uuid.UUID
	BatchNumber     string
	ManufactureDate *time.Time
	ExpiryDate      *time.Time
}

// TransactionResult is returned on a successful transaction
type TransactionResult struct {
	Batch    *BatchResponse   `json:"batch,omitempty"` // nil for batch-less INITIAL_STOCK
	Medicine MedicineResponse `json:"medicine"`
	Message  string           `json:"message"`
	// BelowReorderThreshold flags that the medicine's refreshed total sits at
	// or below its reorder threshold, so callers can trigger a reorder. False
	// when the threshold is unset or the summary refresh failed.
	BelowReorderThreshold bool `json:"below_reorder_threshold"`
}

// MedicineResponse represents a medicine in engine responses
type MedicineResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Code             string          `json:"code"`
	Unit             string          `json:"unit"`
	ReorderThreshold int64           `json:"reorder_threshold"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// BatchResponse represents a batch in engine responses
type BatchResponse struct {
	ID               uuid.UUID  `json:"id"`
	MedicineID       uuid.UUID  `json:"medicine_id"`
	SupplierID       uuid.UUID  `json:"supplier_id"`
	BatchNumber      string     `json:"batch_number"`
	QuantityReceived int64      `json:"quantity_received"`
	CurrentQuantity  int64      `json:"current_quantity"`
	ManufactureDate  *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate       time.Time  `json:"expiry_date"`
	DaysUntilExpiry  int        `json:"days_until_expiry"`
	Expired          bool       `json:"expired"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID              uuid.UUID  `json:"id"`
	MedicineID      uuid.UUID  `json:"medicine_id"`
	BatchID         *uuid.UUID `json:"batch_id,omitempty"`
	TransactionType string     `json:"transaction_type"`
	TypeLabel       string     `json:"type_label"`
	QuantityChange  int64      `json:"quantity_change"`
	QuantityAfter   int64      `json:"quantity_after_transaction"`
	Notes           string     `json:"notes,omitempty"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	TransactionDate time.Time  `json:"transaction_date"`
}

// SummaryResponse represents a medicine stock summary in API responses
type SummaryResponse struct {
	MedicineID           uuid.UUID `json:"medicine_id"`
	TotalQuantityInStock int64     `json:"total_quantity_in_stock"`
	ComputedAt           time.Time `json:"computed_at"`
}

// LedgerListFilter narrows ledger queries
type LedgerListFilter struct {
	BatchID   *uuid.UUID
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
	OrderDir  string
}

// BatchListFilter narrows batch queries
type BatchListFilter struct {
	IncludeEmpty bool
	ExpiredOnly  bool
	Page         int
	PageSize     int
}

// AvailabilityResponse answers "can this quantity be dispensed right now"
type AvailabilityResponse struct {
	MedicineID        uuid.UUID `json:"medicine_id"`
	RequestedQuantity int64     `json:"requested_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	Available         bool      `json:"available"`
}

// LowStockItem pairs a summary row with its medicine for reorder reports
type LowStockItem struct {
	Medicine MedicineResponse `json:"medicine"`
	Summary  SummaryResponse  `json:"summary"`
}

// ValuationResponse reports the cost value of a medicine's usable stock
type ValuationResponse struct {
	MedicineID    uuid.UUID       `json:"medicine_id"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	BatchCount    int             `json:"batch_count"`
}

// BatchAuditResponse compares a batch's stored quantity against its ledger replay
type BatchAuditResponse struct {
	BatchID         uuid.UUID `json:"batch_id"`
	BatchNumber     string    `json:"batch_number"`
	CurrentQuantity int64     `json:"current_quantity"`
	LedgerSum       int64     `json:"ledger_sum"`
	EntryCount      int64     `json:"entry_count"`
	Consistent      bool      `json:"consistent"`
}

// LedgerPage is one page of ledger entries with the total match count
type LedgerPage struct {
	Items      []LedgerEntryResponse `json:"items"`
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
}

// ToMedicineResponse converts a medicine entity to its response form
func ToMedicineResponse(m *catalog.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:               m.ID,
		Name:             m.Name,
		Code:             m.Code,
		Unit:             m.Unit,
		ReorderThreshold: m.ReorderThreshold,
		UnitPrice:        m.UnitPrice,
	}
}

// ToBatchResponse converts a batch entity to its response form
func ToBatchResponse(b *inventory.Batch) BatchResponse {
	return BatchResponse{
		ID:               b.ID,
		MedicineID:       b.MedicineID,
		SupplierID:       b.SupplierID,
		BatchNumber:      b.BatchNumber,
		QuantityReceived: b.QuantityReceived,
		CurrentQuantity:  b.CurrentQuantity,
		ManufactureDate:  b.ManufactureDate,
		ExpiryDate:       b.ExpiryDate,
		DaysUntilExpiry:  b.DaysUntilExpiry(),
		Expired:          b.IsExpired(time.Now()),
	}
}

// ToBatchResponses converts a slice of batches
func ToBatchResponses(batches []inventory.Batch) []BatchResponse {
	responses := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToBatchResponse(&batches[i]))
	}
	return responses
}

// ToLedgerEntryResponse converts a ledger entry to its response form
func ToLedgerEntryResponse(e *inventory.StockLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID,
		MedicineID:      e.MedicineID,
		BatchID:         e.BatchID,
		TransactionType: e.TransactionType.String(),
		TypeLabel:       e.TransactionType.Label(),
		QuantityChange:  e.QuantityChange,
		QuantityAfter:   e.QuantityAfter,
		Notes:           e.Notes,
		UserID:          e.UserID,
		TransactionDate: e.TransactionDate,
	}
}

// ToLedgerEntryResponses converts a slice of ledger entries
func ToLedgerEntryResponses(entries []inventory.StockLedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToLedgerEntryResponse(&entries[i]))
	}
	return responses
}

// ToSummaryResponse converts a summary row to its response form
func ToSummaryResponse(s *inventory.MedicineStockSummary) SummaryResponse {
	return SummaryResponse{
		MedicineID:           s.MedicineID,
		TotalQuantityInStock: s.TotalQuantityInStock,
		ComputedAt:           s.ComputedAt,
	}
}
