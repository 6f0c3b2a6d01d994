package partner

import (
	"strings"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// Supplier is a reference entity for the source of received batches
type Supplier struct {
	shared.BaseEntity
	Name          string `gorm:"type:varchar(200);not null;index"`
	ContactPerson string `gorm:"type:varchar(100)"`
	Phone         string `gorm:"type:varchar(30)"`
	Email         string `gorm:"type:varchar(100)"`
	Address       string `gorm:"type:text"`
	Active        bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(name string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	return &Supplier{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Active:     true,
	}, nil
}

// Deactivate marks the supplier as no longer in use. Existing batches keep
// their reference; only new receipts are blocked by the caller.
func (s *Supplier) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
}
