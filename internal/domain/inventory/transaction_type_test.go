package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionType_IsValid(t *testing.T) {
	for _, txType := range AllTransactionTypes() {
		assert.True(t, txType.IsValid(), "expected %s to be valid", txType)
	}

	assert.False(t, TransactionType("").IsValid())
	assert.False(t, TransactionType("TRANSFER").IsValid())
	assert.False(t, TransactionType("in_new_batch").IsValid(), "matching is case sensitive")
}

func TestTransactionType_Direction(t *testing.T) {
	increasing := []TransactionType{
		TransactionTypeInNewBatch,
		TransactionTypeInitialStock,
		TransactionTypeAdjustAdd,
	}
	decreasing := []TransactionType{
		TransactionTypeOutDispense,
		TransactionTypeAdjustSub,
		TransactionTypeDisposalExpired,
		TransactionTypeDisposalDamaged,
		TransactionTypeReturnSupplier,
	}

	for _, txType := range increasing {
		assert.True(t, txType.IsIncrease(), "%s should increase", txType)
		assert.False(t, txType.IsDecrease(), "%s should not decrease", txType)
	}
	for _, txType := range decreasing {
		assert.True(t, txType.IsDecrease(), "%s should decrease", txType)
		assert.False(t, txType.IsIncrease(), "%s should not increase", txType)
	}

	// Unknown types are in neither set
	unknown := TransactionType("LOAN")
	assert.False(t, unknown.IsIncrease())
	assert.False(t, unknown.IsDecrease())
}

func TestTransactionType_MembershipSetsArePartition(t *testing.T) {
	all := AllTransactionTypes()
	assert.Len(t, all, 8)
	assert.Len(t, IncreasingTypes(), 3)
	assert.Len(t, DecreasingTypes(), 5)

	seen := make(map[TransactionType]bool)
	for _, txType := range append(IncreasingTypes(), DecreasingTypes()...) {
		assert.False(t, seen[txType], "%s appears in both sets", txType)
		seen[txType] = true
	}
	assert.Len(t, seen, len(all))
}

func TestTransactionType_RequiresExistingBatch(t *testing.T) {
	assert.False(t, TransactionTypeInNewBatch.RequiresExistingBatch())
	assert.False(t, TransactionTypeInitialStock.RequiresExistingBatch())

	for _, txType := range []TransactionType{
		TransactionTypeAdjustAdd,
		TransactionTypeOutDispense,
		TransactionTypeAdjustSub,
		TransactionTypeDisposalExpired,
		TransactionTypeDisposalDamaged,
		TransactionTypeReturnSupplier,
	} {
		assert.True(t, txType.RequiresExistingBatch(), "%s requires a batch", txType)
	}

	assert.False(t, TransactionType("BOGUS").RequiresExistingBatch())
}

func TestTransactionType_SignedQuantity(t *testing.T) {
	assert.Equal(t, int64(30), TransactionTypeAdjustAdd.SignedQuantity(30))
	assert.Equal(t, int64(-30), TransactionTypeOutDispense.SignedQuantity(30))
	assert.Equal(t, int64(0), TransactionTypeInitialStock.SignedQuantity(0))
	assert.Equal(t, int64(-1), TransactionTypeReturnSupplier.SignedQuantity(1))
}

func TestTransactionType_Label(t *testing.T) {
	assert.Equal(t, "Dispensed", TransactionTypeOutDispense.Label())
	assert.Equal(t, "Initial stock count", TransactionTypeInitialStock.Label())
	assert.Equal(t, "NOPE", TransactionType("NOPE").Label())
}
