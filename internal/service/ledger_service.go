package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// LedgerService owns the append-only quantity ledger: progress records
// against service lines and extra/shortfall adjustments against items,
// including the cascading recalculation item → line → order header.
type LedgerService struct {
	store DataStore
	log   zerolog.Logger
}

func NewLedgerService(store DataStore, log zerolog.Logger) *LedgerService {
	return &LedgerService{store: store, log: log}
}

type RecordProgressInput struct {
	ServiceLineID  uuid.UUID
	Quantity       int64
	AppliedRate    decimal.Decimal
	Comment        string
	IdempotencyKey string
	Author         model.Principal
}

type RecordAdjustmentInput struct {
	WorkOrderID   uuid.UUID
	ServiceItemID uuid.UUID
	Kind          model.AdjustmentKind
	Quantity      int64
	Reason        string
	Author        model.Principal
}

// AdjustmentResult carries the recalculated totals after an adjustment.
type AdjustmentResult struct {
	Adjustment          model.Adjustment
	Metrics             model.ItemMetrics
	ServiceLineSubtotal decimal.Decimal
	WorkOrderSubtotal   decimal.Decimal
	WorkOrderTax        decimal.Decimal
	WorkOrderTotal      decimal.Decimal
}

// RecordProgress appends an execution record for a service line. A repeated
// idempotency key returns the already-stored record so client retries are
// harmless. Records are never updated or deleted.
func (s *LedgerService) RecordProgress(ctx context.Context, input RecordProgressInput) (*model.ProgressRecord, error) {
	if input.ServiceLineID == uuid.Nil {
		return nil, fmt.Errorf("%w: service_line_id is required", ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}

	var saved *model.ProgressRecord
	err := s.store.InTx(ctx, func(tx Store) error {
		line, err := tx.GetServiceLine(ctx, input.ServiceLineID)
		if err != nil {
			return err
		}
		order, err := tx.GetWorkOrderForUpdate(ctx, line.WorkOrderID)
		if err != nil {
			return err
		}
		if !order.Status.AllowsMutation() {
			return fmt.Errorf("%w: order %s is %s", ErrOrderLocked, order.ID, order.Status)
		}

		if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
			existing, err := tx.FindProgressByKey(ctx, line.ID, key)
			if err != nil {
				return err
			}
			if existing != nil {
				saved = existing
				return nil
			}
		}

		rec := &model.ProgressRecord{
			ID:               uuid.New(),
			ServiceLineID:    line.ID,
			AppliedRate:      input.AppliedRate,
			UnitPriceApplied: line.UnitPrice,
			Quantity:         input.Quantity,
			Comment:          strings.TrimSpace(input.Comment),
			CreatedByUserID:  input.Author.UserID,
			IdempotencyKey:   strings.TrimSpace(input.IdempotencyKey),
		}
		if err := tx.CreateProgressRecord(ctx, rec); err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// RecordAdjustment appends an extra/shortfall correction and recomputes the
// item's billable total, the owning line subtotal and the order header, all
// inside one transaction. An extra requires a non-empty reason; a shortfall
// does not.
func (s *LedgerService) RecordAdjustment(ctx context.Context, input RecordAdjustmentInput) (*AdjustmentResult, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown adjustment kind %q", ErrInvalidInput, input.Kind)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Kind == model.AdjustmentKindExtra && reason == "" {
		return nil, fmt.Errorf("%w: reason is required for an extra adjustment", ErrInvalidInput)
	}

	var result *AdjustmentResult
	err := s.store.InTx(ctx, func(tx Store) error {
		order, err := tx.GetWorkOrderForUpdate(ctx, input.WorkOrderID)
		if err != nil {
			return err
		}
		if !order.Status.AllowsMutation() {
			return fmt.Errorf("%w: order %s is %s", ErrOrderLocked, order.ID, order.Status)
		}

		item, err := tx.GetServiceItem(ctx, input.ServiceItemID)
		if err != nil {
			return err
		}
		line, err := tx.GetServiceLine(ctx, item.ServiceLineID)
		if err != nil {
			return err
		}
		if line.WorkOrderID != order.ID {
			return fmt.Errorf("%w: item %s does not belong to order %s", ErrInvalidInput, item.ID, order.ID)
		}

		adj := &model.Adjustment{
			ID:              uuid.New(),
			WorkOrderID:     order.ID,
			ServiceItemID:   item.ID,
			Kind:            input.Kind,
			Quantity:        input.Quantity,
			CreatedByUserID: input.Author.UserID,
		}
		if reason != "" {
			adj.Reason = &reason
		}
		if err := tx.CreateAdjustment(ctx, adj); err != nil {
			return err
		}

		metrics, lineSubtotal, err := s.recalculate(ctx, tx, order, *item, *line)
		if err != nil {
			return err
		}

		result = &AdjustmentResult{
			Adjustment:          *adj,
			Metrics:             metrics,
			ServiceLineSubtotal: lineSubtotal,
			WorkOrderSubtotal:   order.Subtotal,
			WorkOrderTax:        order.TaxAmount,
			WorkOrderTotal:      order.Total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("work_order_id", input.WorkOrderID.String()).
		Str("item_id", input.ServiceItemID.String()).
		Str("kind", string(input.Kind)).
		Int64("quantity", input.Quantity).
		Msg("adjustment recorded")
	return result, nil
}

// ItemMetrics returns the derived quantities for one service item.
func (s *LedgerService) ItemMetrics(ctx context.Context, itemID uuid.UUID) (*model.ItemMetrics, error) {
	item, err := s.store.GetServiceItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	extra, err := s.store.SumAdjustments(ctx, item.ID, model.AdjustmentKindExtra)
	if err != nil {
		return nil, err
	}
	shortfall, err := s.store.SumAdjustments(ctx, item.ID, model.AdjustmentKindShortfall)
	if err != nil {
		return nil, err
	}
	metrics := model.ComputeItemMetrics(*item, extra, shortfall)
	return &metrics, nil
}

// recalculate cascades an item change upward: item billable/subtotal, line
// subtotal as the sum of its items, order subtotal/tax/total as the sum of
// its lines. Mutates order in place with the recomputed header amounts.
func (s *LedgerService) recalculate(
	ctx context.Context,
	tx Store,
	order *model.WorkOrder,
	item model.ServiceItem,
	line model.ServiceLine,
) (model.ItemMetrics, decimal.Decimal, error) {
	extra, err := tx.SumAdjustments(ctx, item.ID, model.AdjustmentKindExtra)
	if err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}
	shortfall, err := tx.SumAdjustments(ctx, item.ID, model.AdjustmentKindShortfall)
	if err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}

	metrics := model.ComputeItemMetrics(item, extra, shortfall)
	itemSubtotal := metrics.BillableAmount(item.UnitPrice)
	if err := tx.UpdateServiceItemTotals(ctx, item.ID, metrics.BillableTotal, itemSubtotal); err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}

	items, err := tx.ListServiceItems(ctx, line.ID)
	if err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}
	lineSubtotal := decimal.Zero
	for _, it := range items {
		if it.ID == item.ID {
			lineSubtotal = lineSubtotal.Add(itemSubtotal)
			continue
		}
		lineSubtotal = lineSubtotal.Add(it.Subtotal)
	}
	if err := tx.UpdateServiceLineSubtotal(ctx, line.ID, lineSubtotal); err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}

	lines, err := tx.ListServiceLines(ctx, order.ID)
	if err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}
	orderSubtotal := decimal.Zero
	for _, l := range lines {
		if l.ID == line.ID {
			orderSubtotal = orderSubtotal.Add(lineSubtotal)
			continue
		}
		orderSubtotal = orderSubtotal.Add(l.Subtotal)
	}
	order.ApplySubtotal(orderSubtotal)
	if err := tx.UpdateWorkOrderTotals(ctx, order); err != nil {
		return model.ItemMetrics{}, decimal.Zero, err
	}

	return metrics, lineSubtotal, nil
}
