package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/http/middleware"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/service"
)

type Handler struct {
	orders         *service.OrderService
	ledger         *service.LedgerService
	split          *service.SplitService
	defaultTaxRate decimal.Decimal
	log            zerolog.Logger
}

func NewHandler(
	orders *service.OrderService,
	ledger *service.LedgerService,
	split *service.SplitService,
	defaultTaxRate decimal.Decimal,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		orders:         orders,
		ledger:         ledger,
		split:          split,
		defaultTaxRate: defaultTaxRate,
		log:            log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/work-orders", h.createWorkOrder)
	protected.GET("/work-orders/:id", h.getWorkOrder)
	protected.GET("/work-orders/:id/children", h.listChildren)
	protected.GET("/work-orders/:id/cut-preview", h.cutPreview)
	protected.POST("/work-orders/:id/cuts", h.createCut)
	protected.POST("/work-orders/:id/items/:itemID/adjustments", h.recordAdjustment)
	protected.POST("/service-lines/:id/progress", h.recordProgress)
	protected.GET("/service-items/:id/metrics", h.itemMetrics)
	protected.POST("/billing-cuts/:id/ready", h.markCutReady)
	protected.POST("/billing-cuts/:id/billed", h.markCutBilled)
	protected.POST("/billing-cuts/:id/void", h.markCutVoid)
}

type createLineRequest struct {
	ServiceID          string  `json:"service_id" binding:"required"`
	Description        string  `json:"description"`
	ContractedQuantity int64   `json:"contracted_quantity" binding:"required"`
	UnitPrice          *string `json:"unit_price"`
}

type createWorkOrderRequest struct {
	CenterID    string              `json:"center_id" binding:"required"`
	ClientOrgID string              `json:"client_org_id" binding:"required"`
	TaxRate     *string             `json:"tax_rate"`
	Lines       []createLineRequest `json:"lines" binding:"required"`
}

func (h *Handler) createWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION"})
		return
	}

	centerID, err := uuid.Parse(strings.TrimSpace(req.CenterID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid center_id", "code": "VALIDATION"})
		return
	}
	clientOrgID, err := uuid.Parse(strings.TrimSpace(req.ClientOrgID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_org_id", "code": "VALIDATION"})
		return
	}

	taxRate := h.defaultTaxRate
	if req.TaxRate != nil {
		taxRate, err = decimal.NewFromString(*req.TaxRate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tax_rate", "code": "VALIDATION"})
			return
		}
	}

	lines := make([]service.CreateLineInput, 0, len(req.Lines))
	for _, in := range req.Lines {
		serviceID, err := uuid.Parse(strings.TrimSpace(in.ServiceID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_id", "code": "VALIDATION"})
			return
		}
		line := service.CreateLineInput{
			ServiceID:          serviceID,
			Description:        in.Description,
			ContractedQuantity: in.ContractedQuantity,
		}
		if in.UnitPrice != nil {
			price, err := decimal.NewFromString(*in.UnitPrice)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_price", "code": "VALIDATION"})
				return
			}
			line.UnitPrice = &price
		}
		lines = append(lines, line)
	}

	order, err := h.orders.CreateWorkOrder(c.Request.Context(), service.CreateWorkOrderInput{
		CenterID:    centerID,
		ClientOrgID: clientOrgID,
		TaxRate:     taxRate,
		Lines:       lines,
		Author:      principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workOrderDTO(*order))
}

func (h *Handler) getWorkOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.orders.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	lines := make([]gin.H, 0, len(view.Lines))
	for _, ledger := range view.Lines {
		dto := lineLedgerDTO(ledger)
		if items, ok := view.Items[ledger.Line.ID]; ok {
			itemDTOs := make([]gin.H, 0, len(items))
			for _, item := range items {
				itemDTOs = append(itemDTOs, gin.H{
					"id":                 item.ID,
					"description":        item.Description,
					"size":               item.Size,
					"planned_quantity":   item.PlannedQuantity,
					"completed_quantity": item.CompletedQuantity,
					"unit_price":         item.UnitPrice,
					"billable_total":     item.BillableTotal,
					"subtotal":           item.Subtotal,
				})
			}
			dto["items"] = itemDTOs
		}
		lines = append(lines, dto)
	}

	c.JSON(http.StatusOK, gin.H{
		"work_order": workOrderDTO(view.Order),
		"lines":      lines,
	})
}

func (h *Handler) listChildren(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	children, err := h.orders.ListChildren(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	dtos := make([]gin.H, 0, len(children))
	for _, child := range children {
		dtos = append(dtos, workOrderDTO(child))
	}
	c.JSON(http.StatusOK, gin.H{"children": dtos})
}

func (h *Handler) cutPreview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ledgers, err := h.split.Preview(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(ledgers))
	for _, ledger := range ledgers {
		rows = append(rows, lineLedgerDTO(ledger))
	}
	c.JSON(http.StatusOK, gin.H{"lines": rows})
}

type cutAllocationRequest struct {
	ServiceLineID string `json:"service_line_id" binding:"required"`
	QuantityCut   int64  `json:"quantity_cut"`
}

type createCutRequest struct {
	PeriodStart     string                 `json:"period_start" binding:"required"`
	PeriodEnd       string                 `json:"period_end" binding:"required"`
	SpawnChildOrder bool                   `json:"spawn_child_order"`
	Allocations     []cutAllocationRequest `json:"allocations"`
}

func (h *Handler) createCut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req createCutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION"})
		return
	}

	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start", "code": "VALIDATION"})
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end", "code": "VALIDATION"})
		return
	}

	allocations := make([]service.CutAllocation, 0, len(req.Allocations))
	for _, in := range req.Allocations {
		lineID, err := uuid.Parse(strings.TrimSpace(in.ServiceLineID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_line_id", "code": "VALIDATION"})
			return
		}
		allocations = append(allocations, service.CutAllocation{
			ServiceLineID: lineID,
			QuantityCut:   in.QuantityCut,
		})
	}

	result, err := h.split.CreateCut(c.Request.Context(), service.CreateCutInput{
		WorkOrderID:     orderID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		SpawnChildOrder: req.SpawnChildOrder,
		Allocations:     allocations,
		Author:          principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	details := make([]gin.H, 0, len(result.Details))
	for _, d := range result.Details {
		details = append(details, gin.H{
			"id":              d.ID,
			"service_line_id": d.ServiceLineID,
			"description":     d.Description,
			"quantity_cut":    d.QuantityCut,
			"unit_price":      d.UnitPriceSnapshot,
			"amount":          d.AmountSnapshot,
		})
	}
	c.JSON(http.StatusCreated, gin.H{
		"cut_id":              result.Cut.ID,
		"folio":               result.Cut.Folio,
		"status":              result.Cut.Status,
		"period_start":        result.Cut.PeriodStart.Format("2006-01-02"),
		"period_end":          result.Cut.PeriodEnd.Format("2006-01-02"),
		"total_amount":        result.Cut.TotalAmount,
		"child_work_order_id": result.ChildWorkOrderID,
		"details":             details,
	})
}

type adjustmentRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
}

func (h *Handler) recordAdjustment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemID")
	if !ok {
		return
	}

	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION"})
		return
	}

	kind, err := parseAdjustmentKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind", "code": "VALIDATION"})
		return
	}

	result, err := h.ledger.RecordAdjustment(c.Request.Context(), service.RecordAdjustmentInput{
		WorkOrderID:   orderID,
		ServiceItemID: itemID,
		Kind:          kind,
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		Author:        principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"adjustment_id":         result.Adjustment.ID,
		"billable_total":        result.Metrics.BillableTotal,
		"pending":               result.Metrics.Pending,
		"progress_pct":          result.Metrics.ProgressPct,
		"service_line_subtotal": result.ServiceLineSubtotal,
		"work_order_subtotal":   result.WorkOrderSubtotal,
		"work_order_tax":        result.WorkOrderTax,
		"work_order_total":      result.WorkOrderTotal,
	})
}

type progressRequest struct {
	Quantity       int64   `json:"quantity" binding:"required"`
	AppliedRate    *string `json:"applied_rate"`
	Comment        string  `json:"comment"`
	IdempotencyKey string  `json:"idempotency_key"`
}

func (h *Handler) recordProgress(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	lineID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION"})
		return
	}

	appliedRate := decimal.Zero
	if req.AppliedRate != nil {
		parsed, err := decimal.NewFromString(*req.AppliedRate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid applied_rate", "code": "VALIDATION"})
			return
		}
		appliedRate = parsed
	}

	rec, err := h.ledger.RecordProgress(c.Request.Context(), service.RecordProgressInput{
		ServiceLineID:  lineID,
		Quantity:       req.Quantity,
		AppliedRate:    appliedRate,
		Comment:        req.Comment,
		IdempotencyKey: req.IdempotencyKey,
		Author:         principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":                 rec.ID,
		"service_line_id":    rec.ServiceLineID,
		"quantity":           rec.Quantity,
		"applied_rate":       rec.AppliedRate,
		"unit_price_applied": rec.UnitPriceApplied,
		"created_at":         rec.CreatedAt,
	})
}

func (h *Handler) itemMetrics(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	metrics, err := h.ledger.ItemMetrics(c.Request.Context(), itemID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"solicited":      metrics.Solicited,
		"extra":          metrics.Extra,
		"shortfall":      metrics.Shortfall,
		"billable_total": metrics.BillableTotal,
		"completed":      metrics.Completed,
		"pending":        metrics.Pending,
		"progress_pct":   metrics.ProgressPct,
	})
}

func (h *Handler) markCutReady(c *gin.Context) {
	h.transitionCut(c, h.split.MarkReadyToBill)
}

func (h *Handler) markCutBilled(c *gin.Context) {
	h.transitionCut(c, h.split.MarkBilled)
}

func (h *Handler) markCutVoid(c *gin.Context) {
	h.transitionCut(c, h.split.MarkVoid)
}

func (h *Handler) transitionCut(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*model.BillingCut, error)) {
	cutID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cut, err := fn(c.Request.Context(), cutID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cut_id": cut.ID,
		"folio":  cut.Folio,
		"status": cut.Status,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION"})
	case errors.Is(err, service.ErrEmptyCut):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "EMPTY_CUT"})
	case errors.Is(err, service.ErrInvalidPeriod):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "INVALID_PERIOD"})
	case errors.Is(err, service.ErrOverCut):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "OVER_CUT"})
	case errors.Is(err, service.ErrOrderLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ORDER_LOCKED"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_TRANSITION"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "CONFLICT"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func workOrderDTO(order model.WorkOrder) gin.H {
	return gin.H{
		"id":                   order.ID,
		"center_id":            order.CenterID,
		"client_org_id":        order.ClientOrgID,
		"status":               order.Status,
		"parent_work_order_id": order.ParentWorkOrderID,
		"tax_rate":             order.TaxRate,
		"subtotal":             order.Subtotal,
		"tax_amount":           order.TaxAmount,
		"total":                order.Total,
		"created_at":           order.CreatedAt,
	}
}

func lineLedgerDTO(ledger model.LineLedger) gin.H {
	return gin.H{
		"service_line_id":        ledger.Line.ID,
		"description":            ledger.Line.Description,
		"contracted":             ledger.Line.ContractedQuantity,
		"executed_total":         ledger.ExecutedTotal,
		"already_cut":            ledger.AlreadyCut,
		"executable_remaining":   ledger.ExecutableRemaining,
		"suggested_cut_quantity": ledger.SuggestedCutQuantity,
		"unit_price":             ledger.Line.UnitPrice,
		"suggested_amount":       ledger.SuggestedAmount,
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param, "code": "VALIDATION"})
		return uuid.Nil, false
	}
	return id, true
}

func parseAdjustmentKind(raw string) (model.AdjustmentKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "extra":
		return model.AdjustmentKindExtra, nil
	case "shortfall":
		return model.AdjustmentKindShortfall, nil
	default:
		return "", service.ErrInvalidInput
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
