package catalog

import (
	"strings"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Medicine is a catalog entry for a tracked drug. It carries no stock state
// of its own; on-hand quantities live in batches and the per-medicine summary.
type Medicine struct {
	shared.BaseEntity
	Name             string          `gorm:"type:varchar(200);not null;index"`
	GenericName      string          `gorm:"type:varchar(200)"`
	Code             string          `gorm:"type:varchar(50);uniqueIndex"` // internal SKU/article code
	Unit             string          `gorm:"type:varchar(30);not null"`    // tablet, vial, bottle, ...
	ReorderThreshold int64           `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Description      string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Medicine) TableName() string {
	return "medicines"
}

// NewMedicine creates a new medicine catalog entry
func NewMedicine(name, code, unit string) (*Medicine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Medicine name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit of measure cannot be empty")
	}

	return &Medicine{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Code:       strings.TrimSpace(code),
		Unit:       strings.TrimSpace(unit),
		UnitPrice:  decimal.Zero,
	}, nil
}

// SetReorderThreshold sets the quantity at which restocking should be triggered
func (m *Medicine) SetReorderThreshold(threshold int64) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Reorder threshold cannot be negative")
	}
	m.ReorderThreshold = threshold
	m.UpdatedAt = time.Now()
	return nil
}

// SetUnitPrice sets the reference unit price
func (m *Medicine) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	m.UnitPrice = price
	m.UpdatedAt = time.Now()
	return nil
}

// IsBelowThreshold reports whether the given on-hand total is at or below
// the reorder threshold. A zero threshold disables the check.
func (m *Medicine) IsBelowThreshold(totalInStock int64) bool {
	return m.ReorderThreshold > 0 && totalInStock <= m.ReorderThreshold
}
