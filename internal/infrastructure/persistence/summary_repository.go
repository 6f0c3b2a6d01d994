package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSummaryRepository implements SummaryRepository using GORM
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

// Upsert writes a full summary row; an existing row for the medicine is
// replaced wholesale, never patched.
func (r *GormSummaryRepository) Upsert(ctx context.Context, summary *inventory.MedicineStockSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "medicine_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_quantity_in_stock", "computed_at"}),
		}).
		Create(summary).Error
}

// FindByMedicine finds the summary for a medicine
func (r *GormSummaryRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	var summary inventory.MedicineStockSummary
	if err := r.db.WithContext(ctx).
		First(&summary, "medicine_id = ?", medicineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// FindBelowThreshold returns summaries at or below their medicine's reorder
// threshold. Medicines with a zero threshold never appear.
func (r *GormSummaryRepository) FindBelowThreshold(ctx context.Context) ([]inventory.MedicineStockSummary, error) {
	var summaries []inventory.MedicineStockSummary
	if err := r.db.WithContext(ctx).Model(&inventory.MedicineStockSummary{}).
		Joins("JOIN medicines ON medicines.id = medicine_stock_summaries.medicine_id").
		Where("medicines.reorder_threshold > 0 AND medicine_stock_summaries.total_quantity_in_stock <= medicines.reorder_threshold").
		Order("medicine_stock_summaries.total_quantity_in_stock ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

var _ inventory.SummaryRepository = (*GormSummaryRepository)(nil)
