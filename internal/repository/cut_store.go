package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/service"
)

func (r *Repository) CreateBillingCut(ctx context.Context, cut *model.BillingCut) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO billing_cuts (
			id,
			work_order_id,
			period_start,
			period_end,
			folio,
			status,
			total_amount,
			child_work_order_id,
			created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`,
		cut.ID,
		cut.WorkOrderID,
		cut.PeriodStart,
		cut.PeriodEnd,
		cut.Folio,
		cut.Status,
		cut.TotalAmount,
		cut.ChildWorkOrderID,
		cut.CreatedByUserID,
	).Scan(&cut.CreatedAt).Error
	return translateError(err)
}

func (r *Repository) CreateCutDetails(ctx context.Context, details []model.CutDetail) error {
	for _, d := range details {
		err := r.db.WithContext(ctx).Exec(`
			INSERT INTO cut_details (
				id,
				billing_cut_id,
				service_line_id,
				service_item_id,
				description,
				quantity_cut,
				unit_price_snapshot,
				amount_snapshot
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			d.ID,
			d.BillingCutID,
			d.ServiceLineID,
			d.ServiceItemID,
			d.Description,
			d.QuantityCut,
			d.UnitPriceSnapshot,
			d.AmountSnapshot,
		).Error
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (r *Repository) GetBillingCut(ctx context.Context, id uuid.UUID) (*model.BillingCut, error) {
	var cut model.BillingCut
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			work_order_id,
			period_start,
			period_end,
			folio,
			status,
			total_amount,
			child_work_order_id,
			created_by_user_id,
			created_at
		FROM billing_cuts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&cut).Error
	if err != nil {
		return nil, translateError(err)
	}
	if cut.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &cut, nil
}

func (r *Repository) GetBillingCutForUpdate(ctx context.Context, id uuid.UUID) (*model.BillingCut, error) {
	var cut model.BillingCut
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			work_order_id,
			period_start,
			period_end,
			folio,
			status,
			total_amount,
			child_work_order_id,
			created_by_user_id,
			created_at
		FROM billing_cuts
		WHERE id = ?
		FOR UPDATE
	`, id).Scan(&cut).Error
	if err != nil {
		return nil, translateError(err)
	}
	if cut.ID == uuid.Nil {
		return nil, service.ErrNotFound
	}
	return &cut, nil
}

func (r *Repository) ListCutDetails(ctx context.Context, cutID uuid.UUID) ([]model.CutDetail, error) {
	var details []model.CutDetail
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			billing_cut_id,
			service_line_id,
			service_item_id,
			description,
			quantity_cut,
			unit_price_snapshot,
			amount_snapshot
		FROM cut_details
		WHERE billing_cut_id = ?
		ORDER BY id ASC
	`, cutID).Scan(&details).Error
	if err != nil {
		return nil, translateError(err)
	}
	return details, nil
}

func (r *Repository) UpdateCutStatus(ctx context.Context, id uuid.UUID, status model.CutStatus) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE billing_cuts
		SET status = ?
		WHERE id = ?
	`, status, id).Error
	return translateError(err)
}

func (r *Repository) SumCutQuantity(ctx context.Context, serviceLineID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(cd.quantity_cut), 0)
		FROM cut_details cd
		JOIN billing_cuts bc ON bc.id = cd.billing_cut_id
		WHERE cd.service_line_id = ? AND bc.status <> 'VOID'
	`, serviceLineID).Scan(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// MaxFolioSeq parses the numeric suffix of every folio under the prefix in
// Go rather than SQL: the work-order uuid inside the folio contains dashes,
// which rules out a simple split in the query.
func (r *Repository) MaxFolioSeq(ctx context.Context, prefix string) (int64, error) {
	var folios []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT folio
		FROM billing_cuts
		WHERE folio LIKE ?
	`, prefix+"-%").Scan(&folios).Error
	if err != nil {
		return 0, translateError(err)
	}

	var max int64
	for _, folio := range folios {
		idx := strings.LastIndex(folio, "-")
		if idx < 0 || idx+1 >= len(folio) {
			continue
		}
		seq, err := strconv.ParseInt(folio[idx+1:], 10, 64)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}
