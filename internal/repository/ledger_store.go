package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

func (r *Repository) CreateProgressRecord(ctx context.Context, rec *model.ProgressRecord) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO progress_records (
			id,
			service_line_id,
			applied_rate,
			unit_price_applied,
			quantity,
			comment,
			created_by_user_id,
			idempotency_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`,
		rec.ID,
		rec.ServiceLineID,
		rec.AppliedRate,
		rec.UnitPriceApplied,
		rec.Quantity,
		rec.Comment,
		rec.CreatedByUserID,
		rec.IdempotencyKey,
	).Scan(&rec.CreatedAt).Error
	return translateError(err)
}

func (r *Repository) FindProgressByKey(ctx context.Context, serviceLineID uuid.UUID, key string) (*model.ProgressRecord, error) {
	var rec model.ProgressRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			service_line_id,
			applied_rate,
			unit_price_applied,
			quantity,
			comment,
			created_by_user_id,
			idempotency_key,
			created_at
		FROM progress_records
		WHERE service_line_id = ? AND idempotency_key = ?
		LIMIT 1
	`, serviceLineID, key).Scan(&rec).Error
	if err != nil {
		return nil, translateError(err)
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *Repository) SumProgress(ctx context.Context, serviceLineID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM progress_records
		WHERE service_line_id = ?
	`, serviceLineID).Scan(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (r *Repository) CreateAdjustment(ctx context.Context, adj *model.Adjustment) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO adjustments (
			id,
			work_order_id,
			service_item_id,
			kind,
			quantity,
			reason,
			created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`,
		adj.ID,
		adj.WorkOrderID,
		adj.ServiceItemID,
		adj.Kind,
		adj.Quantity,
		adj.Reason,
		adj.CreatedByUserID,
	).Scan(&adj.CreatedAt).Error
	return translateError(err)
}

func (r *Repository) SumAdjustments(ctx context.Context, serviceItemID uuid.UUID, kind model.AdjustmentKind) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM adjustments
		WHERE service_item_id = ? AND kind = ?
	`, serviceItemID, kind).Scan(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}
