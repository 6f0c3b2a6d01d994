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
)

// GormLedgerRepository implements LedgerRepository using GORM. The ledger is
// append-only; this type deliberately has no update or delete method.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Create appends a ledger entry
func (r *GormLedgerRepository) Create(ctx context.Context, entry *inventory.StockLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID finds a ledger entry by its ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLedgerEntry, error) {
	var entry inventory.StockLedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByBatch returns a batch's full history in chronological order, with
// insertion order as the tiebreak so same-instant entries replay correctly.
func (r *GormLedgerRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]inventory.StockLedgerEntry, error) {
	var entries []inventory.StockLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByMedicine returns a page of a medicine's ledger history
func (r *GormLedgerRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) ([]inventory.StockLedgerEntry, error) {
	var entries []inventory.StockLedgerEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).Where("medicine_id = ?", medicineID),
		filter, true,
	)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByMedicine counts a medicine's ledger entries matching the filter
func (r *GormLedgerRepository) CountByMedicine(ctx context.Context, medicineID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).Where("medicine_id = ?", medicineID),
		filter, false,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByBatch counts a batch's ledger entries
func (r *GormLedgerRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumQuantityChangeByBatch sums the signed changes of a batch's entries.
// The result must equal the batch's stored current quantity.
func (r *GormLedgerRepository) SumQuantityChangeByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).
		Where("batch_id = ?", batchID).
		Select("COALESCE(SUM(quantity_change), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *GormLedgerRepository) applyFilter(query *gorm.DB, filter shared.Filter, paginate bool) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "batch_id":
			query = query.Where("batch_id = ?", value)
		case "start_date":
			if s, ok := value.(string); ok {
				if ts, err := time.Parse(time.RFC3339, s); err == nil {
					query = query.Where("transaction_date >= ?", ts)
				}
			}
		case "end_date":
			if s, ok := value.(string); ok {
				if ts, err := time.Parse(time.RFC3339, s); err == nil {
					query = query.Where("transaction_date <= ?", ts)
				}
			}
		}
	}

	if !paginate {
		return query
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "transaction_date"
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}
	return query.Order(orderBy + " " + orderDir)
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)
