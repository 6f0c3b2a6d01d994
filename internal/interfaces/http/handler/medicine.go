package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/pharmacy/backend/internal/application/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
)

// MedicineHandler handles medicine catalog endpoints
type MedicineHandler struct {
	BaseHandler
	medicineService *appcatalog.MedicineService
}

// NewMedicineHandler creates a new MedicineHandler
func NewMedicineHandler(medicineService *appcatalog.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicineService: medicineService}
}

// RegisterRoutes registers medicine endpoints on the given router group
func (h *MedicineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	medicines := rg.Group("/medicines")
	{
		medicines.POST("", h.Create)
		medicines.GET("", h.List)
		medicines.GET("/:id", h.Get)
		medicines.PUT("/:id", h.Update)
		medicines.DELETE("/:id", h.Delete)
	}
}

// Create registers a new medicine
// POST /api/v1/medicines
func (h *MedicineHandler) Create(c *gin.Context) {
	var req appcatalog.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	detail, err := h.medicineService.CreateMedicine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, detail)
}

// List lists medicines with pagination and search
// GET /api/v1/medicines
func (h *MedicineHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BindError(c, err)
		return
	}
	listReq.Normalize()

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Search:   listReq.Search,
	}

	result, err := h.medicineService.ListMedicines(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, filter.Page, filter.PageSize)
}

// Get fetches one medicine
// GET /api/v1/medicines/:id
func (h *MedicineHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	detail, err := h.medicineService.GetMedicine(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Update applies a partial update to a medicine
// PUT /api/v1/medicines/:id
func (h *MedicineHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	var req appcatalog.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	detail, err := h.medicineService.UpdateMedicine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Delete removes a medicine that has no stock history
// DELETE /api/v1/medicines/:id
func (h *MedicineHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	if err := h.medicineService.DeleteMedicine(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
