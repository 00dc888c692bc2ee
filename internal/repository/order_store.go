package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/service"
)

func (r *Repository) CreateWorkOrder(ctx context.Context, order *model.WorkOrder) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO work_orders (
			id,
			center_id,
			client_org_id,
			status,
			parent_work_order_id,
			tax_rate,
			subtotal,
			tax_amount,
			total,
			created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`,
		order.ID,
		order.CenterID,
		order.ClientOrgID,
		order.Status,
		order.ParentWorkOrderID,
		order.TaxRate,
		order.Subtotal,
		order.TaxAmount,
		order.Total,
		order.CreatedByUserID,
	).Scan(&order.CreatedAt).Error
	return translateError(err)
}

const workOrderColumns = `
	id,
	center_id,
	client_org_id,
	status,
	parent_work_order_id,
	tax_rate,
	subtotal,
	tax_amount,
	total,
	created_by_user_id,
	created_at
`

func (r *Repository) GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var order model.WorkOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	if order.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &order, nil
}

func (r *Repository) GetWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var order model.WorkOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id = ?
		FOR UPDATE
	`, id).Scan(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	if order.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &order, nil
}

func (r *Repository) UpdateWorkOrderTotals(ctx context.Context, order *model.WorkOrder) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE work_orders
		SET subtotal = ?, tax_amount = ?, total = ?
		WHERE id = ?
	`, order.Subtotal, order.TaxAmount, order.Total, order.ID).Error
	return translateError(err)
}

func (r *Repository) UpdateWorkOrderStatus(ctx context.Context, id uuid.UUID, status model.WorkOrderStatus) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE work_orders
		SET status = ?
		WHERE id = ?
	`, status, id).Error
	return translateError(err)
}

func (r *Repository) ListChildWorkOrders(ctx context.Context, parentID uuid.UUID) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE parent_work_order_id = ?
		ORDER BY created_at ASC
	`, parentID).Scan(&orders).Error
	if err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

func (r *Repository) CreateServiceLine(ctx context.Context, line *model.ServiceLine) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO service_lines (
			id,
			work_order_id,
			service_id,
			description,
			contracted_quantity,
			unit_price,
			subtotal
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`,
		line.ID,
		line.WorkOrderID,
		line.ServiceID,
		line.Description,
		line.ContractedQuantity,
		line.UnitPrice,
		line.Subtotal,
	).Scan(&line.CreatedAt).Error
	return translateError(err)
}

const serviceLineColumns = `
	id,
	work_order_id,
	service_id,
	description,
	contracted_quantity,
	unit_price,
	subtotal,
	created_at
`

func (r *Repository) GetServiceLine(ctx context.Context, id uuid.UUID) (*model.ServiceLine, error) {
	var line model.ServiceLine
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceLineColumns+`
		FROM service_lines
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&line).Error
	if err != nil {
		return nil, translateError(err)
	}
	if line.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &line, nil
}

func (r *Repository) ListServiceLines(ctx context.Context, workOrderID uuid.UUID) ([]model.ServiceLine, error) {
	var lines []model.ServiceLine
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceLineColumns+`
		FROM service_lines
		WHERE work_order_id = ?
		ORDER BY created_at ASC, id ASC
	`, workOrderID).Scan(&lines).Error
	if err != nil {
		return nil, translateError(err)
	}
	return lines, nil
}

func (r *Repository) UpdateServiceLineSubtotal(ctx context.Context, id uuid.UUID, subtotal decimal.Decimal) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE service_lines
		SET subtotal = ?
		WHERE id = ?
	`, subtotal, id).Error
	return translateError(err)
}

const serviceItemColumns = `
	id,
	service_line_id,
	description,
	size,
	planned_quantity,
	completed_quantity,
	legacy_shortfall,
	unit_price,
	billable_total,
	subtotal,
	created_at
`

func (r *Repository) GetServiceItem(ctx context.Context, id uuid.UUID) (*model.ServiceItem, error) {
	var item model.ServiceItem
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceItemColumns+`
		FROM service_items
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&item).Error
	if err != nil {
		return nil, translateError(err)
	}
	if item.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &item, nil
}

func (r *Repository) ListServiceItems(ctx context.Context, serviceLineID uuid.UUID) ([]model.ServiceItem, error) {
	var items []model.ServiceItem
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceItemColumns+`
		FROM service_items
		WHERE service_line_id = ?
		ORDER BY created_at ASC, id ASC
	`, serviceLineID).Scan(&items).Error
	if err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

func (r *Repository) UpdateServiceItemTotals(ctx context.Context, id uuid.UUID, billableTotal int64, subtotal decimal.Decimal) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE service_items
		SET billable_total = ?, subtotal = ?
		WHERE id = ?
	`, billableTotal, subtotal, id).Error
	return translateError(err)
}
