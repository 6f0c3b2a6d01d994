package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// MedicineRepository defines persistence operations for medicines
type MedicineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	FindByCode(ctx context.Context, code string) (*Medicine, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Medicine, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, medicine *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
}
