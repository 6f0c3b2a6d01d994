package inventory

// TransactionType classifies a stock movement. The set is closed: adding a
// member is a reviewed code change, and every member is tagged as either
// quantity-increasing or quantity-decreasing. The engine derives the sign of
// the persisted quantity change from this tag alone; callers only ever supply
// unsigned magnitudes.
type TransactionType string

const (
	// TransactionTypeInNewBatch represents goods received as a brand-new batch
	TransactionTypeInNewBatch TransactionType = "IN_NEW_BATCH"
	// TransactionTypeInitialStock represents a baseline count recorded during system setup
	TransactionTypeInitialStock TransactionType = "INITIAL_STOCK"
	// TransactionTypeAdjustAdd represents a positive stock correction on an existing batch
	TransactionTypeAdjustAdd TransactionType = "ADJUST_ADD"
	// TransactionTypeOutDispense represents stock dispensed to a patient
	TransactionTypeOutDispense TransactionType = "OUT_DISPENSE"
	// TransactionTypeAdjustSub represents a negative stock correction on an existing batch
	TransactionTypeAdjustSub TransactionType = "ADJUST_SUB"
	// TransactionTypeDisposalExpired represents disposal of expired stock
	TransactionTypeDisposalExpired TransactionType = "DISPOSAL_EXPIRED"
	// TransactionTypeDisposalDamaged represents disposal of damaged stock
	TransactionTypeDisposalDamaged TransactionType = "DISPOSAL_DAMAGED"
	// TransactionTypeReturnSupplier represents stock sent back to the supplier
	TransactionTypeReturnSupplier TransactionType = "RETURN_SUPPLIER"
)

// transactionTypeLabels maps each type to its human-readable label
var transactionTypeLabels = map[TransactionType]string{
	TransactionTypeInNewBatch:      "Stock received (new batch)",
	TransactionTypeInitialStock:    "Initial stock count",
	TransactionTypeAdjustAdd:       "Adjustment (add)",
	TransactionTypeOutDispense:     "Dispensed",
	TransactionTypeAdjustSub:       "Adjustment (subtract)",
	TransactionTypeDisposalExpired: "Disposal (expired)",
	TransactionTypeDisposalDamaged: "Disposal (damaged)",
	TransactionTypeReturnSupplier:  "Returned to supplier",
}

// decreasingTypes is the membership set consulted by both the sign resolver
// and the request validator. Everything valid and not in this set increases
// (or, for zero-magnitude INITIAL_STOCK, leaves unchanged) the quantity.
var decreasingTypes = map[TransactionType]struct{}{
	TransactionTypeOutDispense:     {},
	TransactionTypeAdjustSub:       {},
	TransactionTypeDisposalExpired: {},
	TransactionTypeDisposalDamaged: {},
	TransactionTypeReturnSupplier:  {},
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is a known taxonomy member
func (t TransactionType) IsValid() bool {
	_, ok := transactionTypeLabels[t]
	return ok
}

// Label returns the human-readable label for the type, or the raw value for
// unknown types
func (t TransactionType) Label() string {
	if label, ok := transactionTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// IsIncrease returns true if this type increases batch quantity
func (t TransactionType) IsIncrease() bool {
	return t.IsValid() && !t.IsDecrease()
}

// IsDecrease returns true if this type decreases batch quantity
func (t TransactionType) IsDecrease() bool {
	_, ok := decreasingTypes[t]
	return ok
}

// RequiresExistingBatch returns true if the type structurally needs a batch
// to already exist. IN_NEW_BATCH always creates one; INITIAL_STOCK may create
// one, target an existing one, or record a batch-less baseline.
func (t TransactionType) RequiresExistingBatch() bool {
	switch t {
	case TransactionTypeInNewBatch, TransactionTypeInitialStock:
		return false
	}
	return t.IsValid()
}

// SignedQuantity applies the type's direction to an unsigned magnitude.
// This is the single place where the sign of a ledger delta is decided.
func (t TransactionType) SignedQuantity(magnitude int64) int64 {
	if t.IsDecrease() {
		return -magnitude
	}
	return magnitude
}

// IncreasingTypes returns all quantity-increasing taxonomy members
func IncreasingTypes() []TransactionType {
	types := make([]TransactionType, 0, len(transactionTypeLabels)-len(decreasingTypes))
	for t := range transactionTypeLabels {
		if !t.IsDecrease() {
			types = append(types, t)
		}
	}
	return types
}

// DecreasingTypes returns all quantity-decreasing taxonomy members
func DecreasingTypes() []TransactionType {
	types := make([]TransactionType, 0, len(decreasingTypes))
	for t := range decreasingTypes {
		types = append(types, t)
	}
	return types
}

// AllTransactionTypes returns every taxonomy member
func AllTransactionTypes() []TransactionType {
	types := make([]TransactionType, 0, len(transactionTypeLabels))
	for t := range transactionTypeLabels {
		types = append(types, t)
	}
	return types
}
