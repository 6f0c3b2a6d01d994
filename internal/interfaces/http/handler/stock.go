package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/pharmacy/backend/internal/domain/inventory"
)

// StockHandler exposes the stock transaction engine and ledger queries
type StockHandler struct {
	BaseHandler
	engine            *appinv.StockTransactionService
	queries           *appinv.StockQueryService
	expiryWarningDays int
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(engine *appinv.StockTransactionService, queries *appinv.StockQueryService, expiryWarningDays int) *StockHandler {
	return &StockHandler{
		engine:            engine,
		queries:           queries,
		expiryWarningDays: expiryWarningDays,
	}
}

// RegisterRoutes registers stock endpoints on the given router group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/transactions", h.CreateTransaction)
		stock.GET("/low", h.ListBelowThreshold)
	}

	medicines := rg.Group("/medicines/:id")
	{
		medicines.GET("/batches", h.ListBatches)
		medicines.GET("/batches/expiring", h.ListExpiringBatches)
		medicines.GET("/ledger", h.ListLedger)
		medicines.GET("/summary", h.GetSummary)
		medicines.GET("/availability", h.CheckAvailability)
		medicines.GET("/valuation", h.GetValuation)
	}

	batches := rg.Group("/batches/:id")
	{
		batches.GET("/ledger", h.ListBatchLedger)
		batches.GET("/audit", h.AuditBatch)
	}
}

// CreateTransactionRequest is the request body for recording a stock movement
type CreateTransactionRequest struct {
	Type            string  `json:"type" binding:"required"`
	MedicineID      string  `json:"medicine_id" binding:"required,uuid"`
	BatchID         *string `json:"batch_id" binding:"omitempty,uuid"`
	Quantity        int64   `json:"quantity" binding:"gte=0"`
	Notes           string  `json:"notes" binding:"max=500"`
	TransactionDate *string `json:"transaction_date"`

	CreateBatch     bool    `json:"create_batch"`
	SupplierID      *string `json:"supplier_id" binding:"omitempty,uuid"`
	BatchNumber     string  `json:"batch_number" binding:"max=100"`
	ManufactureDate *string `json:"manufacture_date"`
	ExpiryDate      *string `json:"expiry_date"`
}

// CreateTransaction records a stock movement
// POST /api/v1/stock/transactions
func (h *StockHandler) CreateTransaction(c *gin.Context) {
	var body CreateTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindError(c, err)
		return
	}

	req, err := h.toEngineRequest(c, body)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.engine.ProcessTransaction(c.Request.Context(), *req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

func (h *StockHandler) toEngineRequest(c *gin.Context, body CreateTransactionRequest) (*appinv.TransactionRequest, error) {
	medicineID, err := uuid.Parse(body.MedicineID)
	if err != nil {
		return nil, err
	}

	req := appinv.TransactionRequest{
		Type:        inventory.TransactionType(body.Type),
		MedicineID:  medicineID,
		Quantity:    body.Quantity,
		Notes:       body.Notes,
		CreateBatch: body.CreateBatch,
		BatchNumber: body.BatchNumber,
		UserID:      attributedUser(c),
	}

	if body.BatchID != nil {
		id, err := uuid.Parse(*body.BatchID)
		if err != nil {
			return nil, err
		}
		req.BatchID = &id
	}
	if body.SupplierID != nil {
		id, err := uuid.Parse(*body.SupplierID)
		if err != nil {
			return nil, err
		}
		req.SupplierID = &id
	}
	if body.TransactionDate != nil {
		t, err := parseDateTime(*body.TransactionDate)
		if err != nil {
			return nil, err
		}
		req.TransactionDate = &t
	}
	if body.ManufactureDate != nil {
		t, err := parseDateTime(*body.ManufactureDate)
		if err != nil {
			return nil, err
		}
		req.ManufactureDate = &t
	}
	if body.ExpiryDate != nil {
		t, err := parseDateTime(*body.ExpiryDate)
		if err != nil {
			return nil, err
		}
		req.ExpiryDate = &t
	}

	return &req, nil
}

// ListBatches lists the batches of a medicine
// GET /api/v1/medicines/:id/batches
func (h *StockHandler) ListBatches(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	filter := appinv.BatchListFilter{
		IncludeEmpty: c.Query("include_empty") == "true",
		ExpiredOnly:  c.Query("expired_only") == "true",
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}

	batches, err := h.queries.ListBatches(c.Request.Context(), medicineID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// ListExpiringBatches lists batches with stock that expire soon
// GET /api/v1/medicines/:id/batches/expiring
func (h *StockHandler) ListExpiringBatches(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	withinDays := queryInt(c, "within_days", h.expiryWarningDays)
	if withinDays <= 0 {
		h.BadRequest(c, "within_days must be positive")
		return
	}

	batches, err := h.queries.ListExpiringBatches(c.Request.Context(), medicineID, withinDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// ListLedger lists the ledger of a medicine, newest first
// GET /api/v1/medicines/:id/ledger
func (h *StockHandler) ListLedger(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	filter := appinv.LedgerListFilter{
		Type:     c.Query("transaction_type"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
		OrderDir: c.DefaultQuery("order_dir", "desc"),
	}

	if batchID := c.Query("batch_id"); batchID != "" {
		id, err := uuid.Parse(batchID)
		if err != nil {
			h.BadRequest(c, "Invalid batch_id")
			return
		}
		filter.BatchID = &id
	}
	if start := c.Query("start_date"); start != "" {
		t, err := parseDateTime(start)
		if err != nil {
			h.BadRequest(c, "Invalid start_date")
			return
		}
		filter.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := parseDateTime(end)
		if err != nil {
			h.BadRequest(c, "Invalid end_date")
			return
		}
		filter.EndDate = &t
	}

	page, err := h.queries.ListLedgerByMedicine(c.Request.Context(), medicineID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.TotalCount, page.Page, page.PageSize)
}

// ListBatchLedger lists the full movement history of one batch, oldest first
// GET /api/v1/batches/:id/ledger
func (h *StockHandler) ListBatchLedger(c *gin.Context) {
	batchID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	entries, err := h.queries.ListLedgerByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// AuditBatch compares a batch quantity against its ledger sum
// GET /api/v1/batches/:id/audit
func (h *StockHandler) AuditBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	audit, err := h.queries.AuditBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

// GetSummary returns the denormalized stock total of a medicine
// GET /api/v1/medicines/:id/summary
func (h *StockHandler) GetSummary(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	summary, err := h.queries.GetSummary(c.Request.Context(), medicineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// CheckAvailability answers whether a quantity can be dispensed right now
// GET /api/v1/medicines/:id/availability?quantity=N
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	quantity, err := strconv.ParseInt(c.Query("quantity"), 10, 64)
	if err != nil {
		h.BadRequest(c, "quantity must be an integer")
		return
	}

	availability, err := h.queries.CheckAvailability(c.Request.Context(), medicineID, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// GetValuation reports the cost value of a medicine's usable stock
// GET /api/v1/medicines/:id/valuation
func (h *StockHandler) GetValuation(c *gin.Context) {
	medicineID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid medicine ID")
		return
	}

	valuation, err := h.queries.Valuation(c.Request.Context(), medicineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// ListBelowThreshold lists medicines at or below their reorder threshold
// GET /api/v1/stock/low
func (h *StockHandler) ListBelowThreshold(c *gin.Context) {
	items, err := h.queries.ListBelowThreshold(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// queryInt parses an integer query parameter with a fallback
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// parseDateTime accepts RFC3339 timestamps and bare dates
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
