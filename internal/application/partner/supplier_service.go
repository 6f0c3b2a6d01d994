package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplierService manages the supplier directory
type SupplierService struct {
	supplierRepo partner.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository, logger *zap.Logger) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierService{
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// CreateSupplier registers a supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierDetail, error) {
	supplier, err := partner.NewSupplier(req.Name)
	if err != nil {
		return nil, err
	}
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier created", zap.String("supplier_id", supplier.ID.String()))
	detail := toSupplierDetail(supplier)
	return &detail, nil
}

// GetSupplier returns one supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*SupplierDetail, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := toSupplierDetail(supplier)
	return &detail, nil
}

// ListSuppliers returns a page of the supplier directory
func (s *SupplierService) ListSuppliers(ctx context.Context, filter shared.Filter) (*shared.Paginated[SupplierDetail], error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.supplierRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	details := make([]SupplierDetail, 0, len(suppliers))
	for i := range suppliers {
		details = append(details, toSupplierDetail(&suppliers[i]))
	}
	page := shared.NewPaginated(details, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateSupplier applies a partial update
func (s *SupplierService) UpdateSupplier(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest) (*SupplierDetail, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
		}
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	detail := toSupplierDetail(supplier)
	return &detail, nil
}

// DeactivateSupplier marks a supplier as no longer in use. Suppliers are
// never hard-deleted; batches keep pointing at them.
func (s *SupplierService) DeactivateSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	supplier.Deactivate()
	return s.supplierRepo.Save(ctx, supplier)
}

// CreateSupplierRequest is the input for registering a supplier
type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	ContactPerson string `json:"contact_person" binding:"max=100"`
	Phone         string `json:"phone" binding:"max=30"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

// UpdateSupplierRequest is the partial-update input; nil fields are untouched
type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
}

// SupplierDetail is the supplier as returned by the API
type SupplierDetail struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Active        bool      `json:"active"`
}

func toSupplierDetail(s *partner.Supplier) SupplierDetail {
	return SupplierDetail{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		Active:        s.Active,
	}
}
