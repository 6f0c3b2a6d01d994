package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockQueryService serves the read side of the inventory context: batch
// listings, ledger history, availability checks, reorder reports and
// valuation. It never mutates stock.
type StockQueryService struct {
	medicineRepo catalog.MedicineRepository
	batchRepo    inventory.BatchRepository
	ledgerRepo   inventory.LedgerRepository
	summaries    *SummaryService
	logger       *zap.Logger
	now          func() time.Time
}

// NewStockQueryService creates a new StockQueryService
func NewStockQueryService(
	medicineRepo catalog.MedicineRepository,
	batchRepo inventory.BatchRepository,
	ledgerRepo inventory.LedgerRepository,
	summaries *SummaryService,
	logger *zap.Logger,
) *StockQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockQueryService{
		medicineRepo: medicineRepo,
		batchRepo:    batchRepo,
		ledgerRepo:   ledgerRepo,
		summaries:    summaries,
		logger:       logger,
		now:          time.Now,
	}
}

// SetClock overrides the time source (used by tests)
func (s *StockQueryService) SetClock(now func() time.Time) {
	s.now = now
}

// ListBatches returns a medicine's batches. By default only batches that
// still hold stock are returned; the filter widens that to empty or
// expired-only views.
func (s *StockQueryService) ListBatches(ctx context.Context, medicineID uuid.UUID, filter BatchListFilter) ([]BatchResponse, error) {
	if _, err := s.requireMedicine(ctx, medicineID); err != nil {
		return nil, err
	}

	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.OrderBy = "expiry_date"
	f.OrderDir = "asc"
	if filter.IncludeEmpty {
		f.Filters["include_empty"] = "true"
	}
	if filter.ExpiredOnly {
		f.Filters["expired_only"] = "true"
	}

	batches, err := s.batchRepo.FindByMedicine(ctx, medicineID, f)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(batches), nil
}

// ListExpiringBatches returns non-empty batches expiring within the given
// number of days, soonest first. Used by the disposal workflow to surface
// candidates for DISPOSAL_EXPIRED transactions.
func (s *StockQueryService) ListExpiringBatches(ctx context.Context, medicineID uuid.UUID, withinDays int) ([]BatchResponse, error) {
	now := s.now()
	batches, err := s.batchRepo.FindNonExpiredByMedicine(ctx, medicineID, now)
	if err != nil {
		return nil, err
	}

	window := time.Duration(withinDays) * 24 * time.Hour
	expiring := make([]inventory.Batch, 0, len(batches))
	for i := range batches {
		if batches[i].HasStock() && batches[i].WillExpireWithin(window) {
			expiring = append(expiring, batches[i])
		}
	}
	return ToBatchResponses(expiring), nil
}

// ListLedgerByMedicine returns one page of a medicine's ledger history,
// newest first, optionally narrowed by type, batch and date range.
func (s *StockQueryService) ListLedgerByMedicine(ctx context.Context, medicineID uuid.UUID, filter LedgerListFilter) (*LedgerPage, error) {
	if _, err := s.requireMedicine(ctx, medicineID); err != nil {
		return nil, err
	}

	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.OrderBy = "transaction_date"
	f.OrderDir = "desc"
	if filter.OrderDir == "asc" {
		f.OrderDir = "asc"
	}
	if filter.Type != "" {
		t := inventory.TransactionType(filter.Type)
		if !t.IsValid() {
			return nil, &inventory.UnsupportedTransactionTypeError{Type: t}
		}
		f.Filters["transaction_type"] = filter.Type
	}
	if filter.BatchID != nil {
		f.Filters["batch_id"] = filter.BatchID.String()
	}
	if filter.StartDate != nil {
		f.Filters["start_date"] = filter.StartDate.Format(time.RFC3339)
	}
	if filter.EndDate != nil {
		f.Filters["end_date"] = filter.EndDate.Format(time.RFC3339)
	}

	entries, err := s.ledgerRepo.FindByMedicine(ctx, medicineID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.ledgerRepo.CountByMedicine(ctx, medicineID, f)
	if err != nil {
		return nil, err
	}

	return &LedgerPage{
		Items:      ToLedgerEntryResponses(entries),
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}, nil
}

// ListLedgerByBatch returns a batch's full history in chronological order.
// Replaying QuantityChange over this sequence reproduces the batch's
// quantity at every point in time.
func (s *StockQueryService) ListLedgerByBatch(ctx context.Context, batchID uuid.UUID) ([]LedgerEntryResponse, error) {
	if _, err := s.batchRepo.FindByID(ctx, batchID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(inventory.ErrCodeBatchNotFound, "Batch not found")
		}
		return nil, err
	}

	entries, err := s.ledgerRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return ToLedgerEntryResponses(entries), nil
}

// GetSummary returns the stock summary for a medicine, recomputing it on the
// spot when no row exists yet.
func (s *StockQueryService) GetSummary(ctx context.Context, medicineID uuid.UUID) (*SummaryResponse, error) {
	if _, err := s.requireMedicine(ctx, medicineID); err != nil {
		return nil, err
	}

	summary, err := s.summaries.Get(ctx, medicineID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		summary, err = s.summaries.Refresh(ctx, medicineID)
		if err != nil {
			return nil, err
		}
	}

	resp := ToSummaryResponse(summary)
	return &resp, nil
}

// CheckAvailability reports whether the requested quantity could be
// dispensed from the medicine's usable stock right now. It reads live batch
// truth rather than the summary, so the answer is exact at read time; the
// dispense itself still revalidates under lock.
func (s *StockQueryService) CheckAvailability(ctx context.Context, medicineID uuid.UUID, quantity int64) (*AvailabilityResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if _, err := s.requireMedicine(ctx, medicineID); err != nil {
		return nil, err
	}

	available, err := s.batchRepo.SumNonExpiredQuantity(ctx, medicineID, s.now(), nil)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResponse{
		MedicineID:        medicineID,
		RequestedQuantity: quantity,
		AvailableQuantity: available,
		Available:         available >= quantity,
	}, nil
}

// ListBelowThreshold returns medicines whose summarized stock sits at or
// below their reorder threshold, for the reorder report.
func (s *StockQueryService) ListBelowThreshold(ctx context.Context) ([]LowStockItem, error) {
	summaries, err := s.summaries.summaryRepo.FindBelowThreshold(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]LowStockItem, 0, len(summaries))
	for i := range summaries {
		medicine, err := s.medicineRepo.FindByID(ctx, summaries[i].MedicineID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Summary row outliving its medicine is a cleanup gap, not
				// a reason to fail the whole report.
				s.logger.Warn("summary references missing medicine",
					zap.String("medicine_id", summaries[i].MedicineID.String()))
				continue
			}
			return nil, err
		}
		items = append(items, LowStockItem{
			Medicine: ToMedicineResponse(medicine),
			Summary:  ToSummaryResponse(&summaries[i]),
		})
	}
	return items, nil
}

// Valuation computes the cost value of a medicine's non-expired stock as the
// sum of current quantity times unit cost per batch.
func (s *StockQueryService) Valuation(ctx context.Context, medicineID uuid.UUID) (*ValuationResponse, error) {
	if _, err := s.requireMedicine(ctx, medicineID); err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.FindNonExpiredByMedicine(ctx, medicineID, s.now())
	if err != nil {
		return nil, err
	}

	resp := &ValuationResponse{
		MedicineID: medicineID,
		TotalValue: decimal.Zero,
		BatchCount: len(batches),
	}
	for i := range batches {
		resp.TotalQuantity += batches[i].CurrentQuantity
		resp.TotalValue = resp.TotalValue.Add(batches[i].TotalValue())
	}
	return resp, nil
}

// AuditBatch replays a batch's ledger and compares the arithmetic sum of
// changes against the stored current quantity. The two must always agree;
// a mismatch means stock was mutated outside the transaction engine.
func (s *StockQueryService) AuditBatch(ctx context.Context, batchID uuid.UUID) (*BatchAuditResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(inventory.ErrCodeBatchNotFound, "Batch not found")
		}
		return nil, err
	}

	sum, err := s.ledgerRepo.SumQuantityChangeByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	count, err := s.ledgerRepo.CountByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return &BatchAuditResponse{
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		CurrentQuantity: batch.CurrentQuantity,
		LedgerSum:       sum,
		EntryCount:      count,
		Consistent:      sum == batch.CurrentQuantity,
	}, nil
}

func (s *StockQueryService) requireMedicine(ctx context.Context, medicineID uuid.UUID) (*catalog.Medicine, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(inventory.ErrCodeMedicineNotFound, "Medicine not found")
		}
		return nil, err
	}
	return medicine, nil
}
