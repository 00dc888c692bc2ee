package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// Store is the persistence surface the services operate on. The gorm
// repository implements it; tests substitute an in-memory fake.
type Store interface {
	CreateWorkOrder(ctx context.Context, order *model.WorkOrder) error
	GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	// GetWorkOrderForUpdate locks the work-order row for the rest of the
	// transaction. Outside a transaction it behaves like GetWorkOrder.
	GetWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	UpdateWorkOrderTotals(ctx context.Context, order *model.WorkOrder) error
	UpdateWorkOrderStatus(ctx context.Context, id uuid.UUID, status model.WorkOrderStatus) error
	ListChildWorkOrders(ctx context.Context, parentID uuid.UUID) ([]model.WorkOrder, error)

	CreateServiceLine(ctx context.Context, line *model.ServiceLine) error
	GetServiceLine(ctx context.Context, id uuid.UUID) (*model.ServiceLine, error)
	// ListServiceLines returns the order's lines in creation order.
	ListServiceLines(ctx context.Context, workOrderID uuid.UUID) ([]model.ServiceLine, error)
	UpdateServiceLineSubtotal(ctx context.Context, id uuid.UUID, subtotal decimal.Decimal) error

	GetServiceItem(ctx context.Context, id uuid.UUID) (*model.ServiceItem, error)
	ListServiceItems(ctx context.Context, serviceLineID uuid.UUID) ([]model.ServiceItem, error)
	UpdateServiceItemTotals(ctx context.Context, id uuid.UUID, billableTotal int64, subtotal decimal.Decimal) error

	CreateProgressRecord(ctx context.Context, rec *model.ProgressRecord) error
	FindProgressByKey(ctx context.Context, serviceLineID uuid.UUID, key string) (*model.ProgressRecord, error)
	// SumProgress returns the line's executed_total.
	SumProgress(ctx context.Context, serviceLineID uuid.UUID) (int64, error)

	CreateAdjustment(ctx context.Context, adj *model.Adjustment) error
	SumAdjustments(ctx context.Context, serviceItemID uuid.UUID, kind model.AdjustmentKind) (int64, error)

	CreateBillingCut(ctx context.Context, cut *model.BillingCut) error
	CreateCutDetails(ctx context.Context, details []model.CutDetail) error
	GetBillingCut(ctx context.Context, id uuid.UUID) (*model.BillingCut, error)
	// GetBillingCutForUpdate locks the cut row for the rest of the
	// transaction. Outside a transaction it behaves like GetBillingCut.
	GetBillingCutForUpdate(ctx context.Context, id uuid.UUID) (*model.BillingCut, error)
	ListCutDetails(ctx context.Context, cutID uuid.UUID) ([]model.CutDetail, error)
	UpdateCutStatus(ctx context.Context, id uuid.UUID, status model.CutStatus) error
	// SumCutQuantity returns the line's already_cut: quantity_cut summed over
	// details whose parent cut is not VOID.
	SumCutQuantity(ctx context.Context, serviceLineID uuid.UUID) (int64, error)
	// MaxFolioSeq returns the highest numeric suffix among folios starting
	// with prefix, or 0 when none exist.
	MaxFolioSeq(ctx context.Context, prefix string) (int64, error)
}

// DataStore adds transaction scoping: fn runs against a Store bound to one
// database transaction; any error rolls the whole transaction back.
type DataStore interface {
	Store
	InTx(ctx context.Context, fn func(tx Store) error) error
}
