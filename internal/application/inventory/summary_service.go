package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// SummaryCache is an optional read-through cache in front of summary rows.
// A nil cache disables caching entirely.
type SummaryCache interface {
	// Get returns the cached summary or nil on a miss.
	Get(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error)
	Set(ctx context.Context, summary *inventory.MedicineStockSummary) error
	Invalidate(ctx context.Context, medicineID uuid.UUID) error
}

// SummaryService maintains the per-medicine stock summary cache rows.
// A refresh is always a full recompute from batch truth, never an
// incremental patch, so a summary can be rebuilt at any time from the
// Batch Registry alone.
type SummaryService struct {
	batchRepo   inventory.BatchRepository
	summaryRepo inventory.SummaryRepository
	cache       SummaryCache
	logger      *zap.Logger
	now         func() time.Time
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	batchRepo inventory.BatchRepository,
	summaryRepo inventory.SummaryRepository,
	logger *zap.Logger,
) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		batchRepo:   batchRepo,
		summaryRepo: summaryRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// SetCache attaches an optional read-through cache
func (s *SummaryService) SetCache(cache SummaryCache) {
	s.cache = cache
}

// SetClock overrides the time source (used by tests)
func (s *SummaryService) SetClock(now func() time.Time) {
	s.now = now
}

// Refresh recomputes and upserts the summary for one medicine: the sum of
// current quantity across its non-expired batches, clamped at zero.
// Idempotent and safe to call repeatedly; concurrent refreshes each write a
// self-consistent row, so last-writer-wins is acceptable.
func (s *SummaryService) Refresh(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	total, err := s.batchRepo.SumNonExpiredQuantity(ctx, medicineID, s.now(), nil)
	if err != nil {
		return nil, err
	}

	summary := inventory.NewMedicineStockSummary(medicineID, total)
	if err := s.summaryRepo.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("failed to update summary cache",
				zap.String("medicine_id", medicineID.String()),
				zap.Error(err),
			)
		}
	}

	return summary, nil
}

// Get returns the summary for a medicine, consulting the cache first and
// falling back to (and repopulating from) the stored row.
func (s *SummaryService) Get(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, medicineID)
		if err != nil {
			s.logger.Warn("summary cache read failed",
				zap.String("medicine_id", medicineID.String()),
				zap.Error(err),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := s.summaryRepo.FindByMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("failed to repopulate summary cache",
				zap.String("medicine_id", medicineID.String()),
				zap.Error(err),
			)
		}
	}

	return summary, nil
}

// projectedQuantityAfter computes the quantity-after value for a batch-less
// ledger entry: the medicine's total across all other non-expired batches
// plus the already-signed delta. Point-in-time snapshot, best-effort under
// concurrent batch mutations.
func projectedQuantityAfter(
	ctx context.Context,
	batchRepo inventory.BatchRepository,
	medicineID uuid.UUID,
	asOf time.Time,
	delta int64,
	exclude *uuid.UUID,
) (int64, error) {
	base, err := batchRepo.SumNonExpiredQuantity(ctx, medicineID, asOf, exclude)
	if err != nil {
		return 0, err
	}
	return base + delta, nil
}
