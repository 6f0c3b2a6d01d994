package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// startOfDay truncates an instant to midnight. expiry_date is stored as a
// DATE, so comparing against an intraday timestamp would drop batches that
// expire on that same day; expiry is decided at day granularity, matching
// Batch.IsExpired.
func startOfDay(t time.Time) time.Time {
	return t.Truncate(24 * time.Hour)
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDForUpdate finds a batch under an exclusive row lock. The lock is
// only meaningful inside a transaction scope; the row stays pinned until
// that transaction commits or rolls back.
func (r *GormBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByMedicine finds a medicine's batches. Batches with stock only, unless
// the filter widens the view.
func (r *GormBatchRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Batch{}).Where("medicine_id = ?", medicineID),
		filter,
	)
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindNonExpiredByMedicine returns a medicine's batches with expiry_date on
// or after asOf's day, soonest expiry first.
func (r *GormBatchRepository) FindNonExpiredByMedicine(ctx context.Context, medicineID uuid.UUID, asOf time.Time) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND expiry_date >= ?", medicineID, startOfDay(asOf)).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// ExistsByMedicineAndNumber checks batch number uniqueness within a medicine
func (r *GormBatchRepository) ExistsByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Batch{}).
		Where("medicine_id = ? AND batch_number = ?", medicineID, batchNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByMedicine counts a medicine's batches
func (r *GormBatchRepository) CountByMedicine(ctx context.Context, medicineID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Batch{}).
		Where("medicine_id = ?", medicineID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumNonExpiredQuantity sums current quantity over a medicine's non-expired
// batches, optionally excluding one batch.
func (r *GormBatchRepository) SumNonExpiredQuantity(ctx context.Context, medicineID uuid.UUID, asOf time.Time, exclude *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Batch{}).
		Where("medicine_id = ? AND expiry_date >= ?", medicineID, startOfDay(asOf))
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}

	var total int64
	if err := query.Select("COALESCE(SUM(current_quantity), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Create inserts a new batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// Save persists changes to an existing batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	includeEmpty := false
	for key, value := range filter.Filters {
		switch key {
		case "include_empty":
			if value == "true" || value == true {
				includeEmpty = true
			}
		case "expired_only":
			if value == "true" || value == true {
				query = query.Where("expiry_date < ?", time.Now())
			}
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		}
	}
	if !includeEmpty {
		query = query.Where("current_quantity > 0")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
