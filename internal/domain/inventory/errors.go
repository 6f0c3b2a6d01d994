package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// Error codes surfaced by the transaction engine. The HTTP layer maps these
// onto status codes; the codes themselves are part of the API contract.
const (
	ErrCodeUnsupportedTransactionType = "UNSUPPORTED_TRANSACTION_TYPE"
	ErrCodeMissingRequiredReference   = "MISSING_REQUIRED_REFERENCE"
	ErrCodeBatchNotFound              = "BATCH_NOT_FOUND"
	ErrCodeMedicineNotFound           = "MEDICINE_NOT_FOUND"
	ErrCodeInsufficientStock          = "INSUFFICIENT_STOCK"
	ErrCodeInvalidQuantitySign        = "INVALID_QUANTITY_SIGN"
	ErrCodeDuplicateBatchNumber       = "DUPLICATE_BATCH_NUMBER"
)

// InsufficientStockError is returned when a decreasing transaction asks for
// more than the batch holds. It carries enough detail for a precise
// user-facing message; no mutation has happened when it is returned.
type InsufficientStockError struct {
	BatchID     uuid.UUID
	BatchNumber string
	Attempted   int64
	Available   int64
}

// NewInsufficientStockError creates a new InsufficientStockError
func NewInsufficientStockError(batchID uuid.UUID, batchNumber string, attempted, available int64) *InsufficientStockError {
	return &InsufficientStockError{
		BatchID:     batchID,
		BatchNumber: batchNumber,
		Attempted:   attempted,
		Available:   available,
	}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in batch %s: attempted to remove %d, only %d available",
		e.BatchNumber, e.Attempted, e.Available)
}

// Code returns the stable error code
func (e *InsufficientStockError) Code() string {
	return ErrCodeInsufficientStock
}

// UnsupportedTransactionTypeError is returned for a type value outside the
// closed taxonomy. This is a caller bug, never a runtime condition.
type UnsupportedTransactionTypeError struct {
	Type TransactionType
}

// Error implements the error interface
func (e *UnsupportedTransactionTypeError) Error() string {
	return fmt.Sprintf("unsupported stock transaction type %q", string(e.Type))
}

// Code returns the stable error code
func (e *UnsupportedTransactionTypeError) Code() string {
	return ErrCodeUnsupportedTransactionType
}

// MissingReferenceError is returned when a transaction type requires a
// reference (batch, supplier, expiry date, ...) the caller did not supply.
type MissingReferenceError struct {
	Type  TransactionType
	Field string
}

// Error implements the error interface
func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("transaction type %s requires %s", string(e.Type), e.Field)
}

// Code returns the stable error code
func (e *MissingReferenceError) Code() string {
	return ErrCodeMissingRequiredReference
}

// InvalidQuantitySignError is an internal-consistency guard: a decreasing
// handler was invoked with a non-negative delta or vice versa. It indicates a
// programming error upstream and must never be silently corrected.
type InvalidQuantitySignError struct {
	Type  TransactionType
	Delta int64
}

// Error implements the error interface
func (e *InvalidQuantitySignError) Error() string {
	return fmt.Sprintf("quantity change %d has the wrong sign for transaction type %s", e.Delta, string(e.Type))
}

// Code returns the stable error code
func (e *InvalidQuantitySignError) Code() string {
	return ErrCodeInvalidQuantitySign
}
