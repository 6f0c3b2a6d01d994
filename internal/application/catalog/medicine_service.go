package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MedicineService manages the medicine catalog
type MedicineService struct {
	medicineRepo catalog.MedicineRepository
	batchRepo    inventory.BatchRepository
	logger       *zap.Logger
}

// NewMedicineService creates a new MedicineService
func NewMedicineService(
	medicineRepo catalog.MedicineRepository,
	batchRepo inventory.BatchRepository,
	logger *zap.Logger,
) *MedicineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicineService{
		medicineRepo: medicineRepo,
		batchRepo:    batchRepo,
		logger:       logger,
	}
}

// CreateMedicine adds a medicine to the catalog
func (s *MedicineService) CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*MedicineDetail, error) {
	if req.Code != "" {
		existing, err := s.medicineRepo.FindByCode(ctx, req.Code)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, shared.NewDomainError("DUPLICATE_CODE", "A medicine with this code already exists")
		}
	}

	medicine, err := catalog.NewMedicine(req.Name, req.Code, req.Unit)
	if err != nil {
		return nil, err
	}
	medicine.GenericName = req.GenericName
	medicine.Description = req.Description
	if req.ReorderThreshold > 0 {
		if err := medicine.SetReorderThreshold(req.ReorderThreshold); err != nil {
			return nil, err
		}
	}
	if !req.UnitPrice.IsZero() {
		if err := medicine.SetUnitPrice(req.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}

	s.logger.Info("medicine created",
		zap.String("medicine_id", medicine.ID.String()),
		zap.String("code", medicine.Code),
	)

	detail := toMedicineDetail(medicine)
	return &detail, nil
}

// GetMedicine returns one catalog entry by ID
func (s *MedicineService) GetMedicine(ctx context.Context, id uuid.UUID) (*MedicineDetail, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := toMedicineDetail(medicine)
	return &detail, nil
}

// ListMedicines returns a page of the catalog, optionally filtered by search term
func (s *MedicineService) ListMedicines(ctx context.Context, filter shared.Filter) (*shared.Paginated[MedicineDetail], error) {
	medicines, err := s.medicineRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.medicineRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	details := make([]MedicineDetail, 0, len(medicines))
	for i := range medicines {
		details = append(details, toMedicineDetail(&medicines[i]))
	}
	page := shared.NewPaginated(details, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateMedicine applies a partial update to a catalog entry
func (s *MedicineService) UpdateMedicine(ctx context.Context, id uuid.UUID, req UpdateMedicineRequest) (*MedicineDetail, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_NAME", "Medicine name cannot be empty")
		}
		medicine.Name = *req.Name
	}
	if req.GenericName != nil {
		medicine.GenericName = *req.GenericName
	}
	if req.Description != nil {
		medicine.Description = *req.Description
	}
	if req.ReorderThreshold != nil {
		if err := medicine.SetReorderThreshold(*req.ReorderThreshold); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		if err := medicine.SetUnitPrice(*req.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}
	detail := toMedicineDetail(medicine)
	return &detail, nil
}

// DeleteMedicine removes a catalog entry. A medicine with batches on record
// is refused; its ledger history must stay resolvable.
func (s *MedicineService) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	if _, err := s.medicineRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.batchRepo.CountByMedicine(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("HAS_STOCK_HISTORY", "Medicine has batches and cannot be deleted")
	}

	return s.medicineRepo.Delete(ctx, id)
}

// CreateMedicineRequest is the input for creating a catalog entry
type CreateMedicineRequest struct {
	Name             string          `json:"name" binding:"required,max=200"`
	GenericName      string          `json:"generic_name" binding:"max=200"`
	Code             string          `json:"code" binding:"max=50"`
	Unit             string          `json:"unit" binding:"required,max=30"`
	ReorderThreshold int64           `json:"reorder_threshold" binding:"gte=0"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Description      string          `json:"description"`
}

// UpdateMedicineRequest is the partial-update input; nil fields are untouched
type UpdateMedicineRequest struct {
	Name             *string          `json:"name"`
	GenericName      *string          `json:"generic_name"`
	Description      *string          `json:"description"`
	ReorderThreshold *int64           `json:"reorder_threshold"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
}

// MedicineDetail is the catalog entry as returned by the API
type MedicineDetail struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	GenericName      string          `json:"generic_name,omitempty"`
	Code             string          `json:"code,omitempty"`
	Unit             string          `json:"unit"`
	ReorderThreshold int64           `json:"reorder_threshold"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Description      string          `json:"description,omitempty"`
}

func toMedicineDetail(m *catalog.Medicine) MedicineDetail {
	return MedicineDetail{
		ID:               m.ID,
		Name:             m.Name,
		GenericName:      m.GenericName,
		Code:             m.Code,
		Unit:             m.Unit,
		ReorderThreshold: m.ReorderThreshold,
		UnitPrice:        m.UnitPrice,
		Description:      m.Description,
	}
}
