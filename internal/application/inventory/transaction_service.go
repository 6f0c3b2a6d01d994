package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockTransactionService is the transaction engine. It classifies an
// incoming request by its taxonomy type, resolves the matching handler,
// enforces the non-negativity and sign invariants, and commits the batch
// mutation together with the ledger append as one atomic unit. The summary
// refresh runs after commit; it is a cache, not part of the unit.
type StockTransactionService struct {
	scope        TransactionScope
	medicineRepo catalog.MedicineRepository
	summaries    *SummaryService
	logger       *zap.Logger
	now          func() time.Time
}

// NewStockTransactionService creates a new StockTransactionService
func NewStockTransactionService(
	scope TransactionScope,
	medicineRepo catalog.MedicineRepository,
	summaries *SummaryService,
	logger *zap.Logger,
) *StockTransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockTransactionService{
		scope:        scope,
		medicineRepo: medicineRepo,
		summaries:    summaries,
		logger:       logger,
		now:          time.Now,
	}
}

// SetClock overrides the time source (used by tests)
func (s *StockTransactionService) SetClock(now func() time.Time) {
	s.now = now
}

// ProcessTransaction executes one stock transaction end to end. On any error
// the whole operation aborts: no partial ledger entry, no partial quantity
// mutation. On success the affected medicine's summary has been refreshed
// before the result is returned.
func (s *StockTransactionService) ProcessTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	medicine, err := s.medicineRepo.FindByID(ctx, req.MedicineID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(inventory.ErrCodeMedicineNotFound, "Medicine not found")
		}
		return nil, err
	}

	txDate := s.now()
	if req.TransactionDate != nil {
		txDate = *req.TransactionDate
	}
	delta := req.Type.SignedQuantity(req.Quantity)

	var batch *inventory.Batch
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var handlerErr error
		switch {
		case s.createsBatch(req):
			batch, handlerErr = s.handleCreateBatch(ctx, repos, req, delta, txDate)
		case req.Type == inventory.TransactionTypeInitialStock && req.BatchID == nil:
			handlerErr = s.handleBatchlessBaseline(ctx, repos, req, delta, txDate)
		case req.Type.IsDecrease():
			batch, handlerErr = s.handleDecrease(ctx, repos, req, delta, txDate)
		default:
			// ADJUST_ADD and the existing-batch branch of INITIAL_STOCK
			batch, handlerErr = s.handleIncrease(ctx, repos, req, delta, txDate)
		}
		return handlerErr
	})
	if err != nil {
		return nil, err
	}

	// The summary is refreshed outside the atomic unit: a failed refresh
	// leaves a stale cache row, not inconsistent stock, and the next
	// transaction rebuilds it anyway.
	belowThreshold := false
	if summary, err := s.summaries.Refresh(ctx, medicine.ID); err != nil {
		s.logger.Error("summary refresh failed after committed transaction",
			zap.String("medicine_id", medicine.ID.String()),
			zap.String("transaction_type", req.Type.String()),
			zap.Error(err),
		)
	} else {
		belowThreshold = medicine.IsBelowThreshold(summary.TotalQuantityInStock)
	}

	result := &TransactionResult{
		Medicine:              ToMedicineResponse(medicine),
		Message:               s.buildMessage(req, medicine, batch),
		BelowReorderThreshold: belowThreshold,
	}
	if batch != nil {
		resp := ToBatchResponse(batch)
		result.Batch = &resp
	}

	s.logger.Info("stock transaction processed",
		zap.String("transaction_type", req.Type.String()),
		zap.String("medicine_id", medicine.ID.String()),
		zap.Int64("quantity_change", delta),
	)

	return result, nil
}

// createsBatch reports whether the request takes a batch-creating path
func (s *StockTransactionService) createsBatch(req TransactionRequest) bool {
	if req.Type == inventory.TransactionTypeInNewBatch {
		return true
	}
	return req.Type == inventory.TransactionTypeInitialStock && req.CreateBatch
}

// validate checks the structural contract of the request before any
// repository access. Violations here are caller bugs, not business outcomes.
func (s *StockTransactionService) validate(req TransactionRequest) error {
	if !req.Type.IsValid() {
		return &inventory.UnsupportedTransactionTypeError{Type: req.Type}
	}
	if req.MedicineID == uuid.Nil {
		return &inventory.MissingReferenceError{Type: req.Type, Field: "a medicine reference"}
	}
	if req.Quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity magnitude cannot be negative")
	}
	if req.Quantity == 0 && req.Type != inventory.TransactionTypeInitialStock {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive for this transaction type")
	}
	if req.TransactionDate != nil && req.TransactionDate.After(s.now()) {
		return shared.NewDomainError("INVALID_DATE", "Transaction date cannot be in the future")
	}
	if req.Type.RequiresExistingBatch() && req.BatchID == nil {
		return &inventory.MissingReferenceError{Type: req.Type, Field: "an existing batch reference"}
	}
	if req.Type == inventory.TransactionTypeInitialStock && req.CreateBatch && req.BatchID != nil {
		return shared.NewDomainError("INVALID_INPUT", "Initial stock cannot both create a batch and target an existing one")
	}

	if s.createsBatch(req) {
		switch {
		case req.SupplierID == nil:
			return &inventory.MissingReferenceError{Type: req.Type, Field: "a supplier reference"}
		case req.BatchNumber == "":
			return &inventory.MissingReferenceError{Type: req.Type, Field: "a batch number"}
		case req.ExpiryDate == nil:
			return &inventory.MissingReferenceError{Type: req.Type, Field: "an expiry date"}
		}
	}

	return nil
}

// handleCreateBatch serves IN_NEW_BATCH and the batch-creating sub-case of
// INITIAL_STOCK: a fresh batch row with the full magnitude on hand, plus the
// matching ledger entry. No row lock is needed; the row cannot be contended
// before it exists.
func (s *StockTransactionService) handleCreateBatch(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransactionRequest,
	delta int64,
	txDate time.Time,
) (*inventory.Batch, error) {
	if delta < 0 {
		return nil, &inventory.InvalidQuantitySignError{Type: req.Type, Delta: delta}
	}

	exists, err := repos.BatchRepo().ExistsByMedicineAndNumber(ctx, req.MedicineID, req.BatchNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(inventory.ErrCodeDuplicateBatchNumber,
			fmt.Sprintf("Batch number %s already exists for this medicine", req.BatchNumber))
	}

	batch, err := inventory.NewBatch(req.MedicineID, *req.SupplierID, req.BatchNumber, req.Quantity, req.ManufactureDate, *req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if err := repos.BatchRepo().Create(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.appendEntry(ctx, repos, req, delta, batch.CurrentQuantity, &batch.ID, txDate); err != nil {
		return nil, err
	}
	return batch, nil
}

// handleIncrease serves ADJUST_ADD and INITIAL_STOCK onto an existing batch.
// INITIAL_STOCK against an existing batch is a forced increase, not a
// set-to-value: the magnitude is added on top of whatever is already there.
func (s *StockTransactionService) handleIncrease(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransactionRequest,
	delta int64,
	txDate time.Time,
) (*inventory.Batch, error) {
	if delta < 0 {
		s.logInvariantViolation(req, delta)
		return nil, &inventory.InvalidQuantitySignError{Type: req.Type, Delta: delta}
	}

	batch, err := s.lockBatch(ctx, repos, req)
	if err != nil {
		return nil, err
	}

	if err := batch.Add(delta); err != nil {
		return nil, err
	}
	if err := repos.BatchRepo().Save(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.appendEntry(ctx, repos, req, delta, batch.CurrentQuantity, &batch.ID, txDate); err != nil {
		return nil, err
	}
	return batch, nil
}

// handleDecrease serves every decreasing type. Sufficiency is decided on the
// quantity re-read under the exclusive row lock, so two concurrent decreases
// against the same batch serialize and the second sees the first's committed
// value.
func (s *StockTransactionService) handleDecrease(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransactionRequest,
	delta int64,
	txDate time.Time,
) (*inventory.Batch, error) {
	if delta >= 0 {
		s.logInvariantViolation(req, delta)
		return nil, &inventory.InvalidQuantitySignError{Type: req.Type, Delta: delta}
	}

	batch, err := s.lockBatch(ctx, repos, req)
	if err != nil {
		return nil, err
	}

	magnitude := -delta
	if err := batch.Deduct(magnitude); err != nil {
		// InsufficientStockError; nothing was written, the scope rolls back.
		return nil, err
	}
	if err := repos.BatchRepo().Save(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.appendEntry(ctx, repos, req, delta, batch.CurrentQuantity, &batch.ID, txDate); err != nil {
		return nil, err
	}
	return batch, nil
}

// handleBatchlessBaseline serves INITIAL_STOCK with no batch at all: a
// ledger-only entry whose quantity-after is the medicine's total across all
// other non-expired batches plus this change.
func (s *StockTransactionService) handleBatchlessBaseline(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransactionRequest,
	delta int64,
	txDate time.Time,
) error {
	if delta < 0 {
		s.logInvariantViolation(req, delta)
		return &inventory.InvalidQuantitySignError{Type: req.Type, Delta: delta}
	}

	after, err := projectedQuantityAfter(ctx, repos.BatchRepo(), req.MedicineID, txDate, delta, nil)
	if err != nil {
		return err
	}
	return s.appendEntry(ctx, repos, req, delta, after, nil, txDate)
}

// lockBatch resolves a batch under an exclusive row lock held until the
// enclosing scope commits or rolls back. The batch must belong to the
// request's medicine; otherwise the ledger entry would be attributed to one
// medicine while another medicine's stock moved.
func (s *StockTransactionService) lockBatch(ctx context.Context, repos TransactionalRepositories, req TransactionRequest) (*inventory.Batch, error) {
	batch, err := repos.BatchRepo().FindByIDForUpdate(ctx, *req.BatchID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(inventory.ErrCodeBatchNotFound, "Batch not found")
		}
		// Lock-wait timeouts and connection failures land here; they are
		// retryable and must reach the caller as such.
		return nil, fmt.Errorf("acquiring batch lock: %w", err)
	}
	if batch.MedicineID != req.MedicineID {
		return nil, shared.NewDomainError(inventory.ErrCodeBatchNotFound, "Batch does not belong to the specified medicine")
	}
	return batch, nil
}

// appendEntry builds and persists the immutable ledger entry for a movement
func (s *StockTransactionService) appendEntry(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransactionRequest,
	delta int64,
	quantityAfter int64,
	batchID *uuid.UUID,
	txDate time.Time,
) error {
	entry, err := inventory.NewStockLedgerEntry(req.MedicineID, req.Type, delta, quantityAfter)
	if err != nil {
		return err
	}
	entry.WithNotes(req.Notes).WithTransactionDate(txDate)
	if batchID != nil {
		entry.WithBatchID(*batchID)
	}
	if req.UserID != nil {
		entry.WithUserID(*req.UserID)
	}
	return repos.LedgerRepo().Create(ctx, entry)
}

func (s *StockTransactionService) logInvariantViolation(req TransactionRequest, delta int64) {
	s.logger.Error("quantity sign does not match transaction type direction",
		zap.String("transaction_type", req.Type.String()),
		zap.Int64("delta", delta),
	)
}

// buildMessage renders the human-readable confirmation for the result
func (s *StockTransactionService) buildMessage(req TransactionRequest, medicine *catalog.Medicine, batch *inventory.Batch) string {
	if batch == nil {
		return fmt.Sprintf("%s: %d %s of %s recorded", req.Type.Label(), req.Quantity, medicine.Unit, medicine.Name)
	}
	return fmt.Sprintf("%s: %d %s of %s (batch %s), %d remaining",
		req.Type.Label(), req.Quantity, medicine.Unit, medicine.Name, batch.BatchNumber, batch.CurrentQuantity)
}
