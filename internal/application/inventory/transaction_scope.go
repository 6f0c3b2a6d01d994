package inventory

import (
	"context"

	"github.com/pharmacy/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock repositories.
// Everything executed within one scope commits or rolls back as a unit; this
// is what makes "lock batch, validate, mutate, append ledger entry" atomic.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that take
// part in the atomic unit. The summary repository is deliberately absent:
// the summary is a cache refreshed after commit, not part of the unit.
type TransactionalRepositories interface {
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() inventory.BatchRepository
	// LedgerRepo returns the ledger repository scoped to the current transaction
	LedgerRepo() inventory.LedgerRepository
}

// NoOpTransactionScope runs the function against fixed repositories without
// a real transaction. Used in tests and wherever the backing store already
// guarantees atomicity.
type NoOpTransactionScope struct {
	batchRepo  inventory.BatchRepository
	ledgerRepo inventory.LedgerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	batchRepo inventory.BatchRepository,
	ledgerRepo inventory.LedgerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository {
	return s.batchRepo
}

// LedgerRepo returns the ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() inventory.LedgerRepository {
	return s.ledgerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
