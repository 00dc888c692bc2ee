package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// SplitService is the period-billing split engine: it nets executed quantity
// against what previous cuts already billed, freezes a slice of it into a
// dated billing cut, and optionally spawns a child work order carrying the
// contracted remainder.
type SplitService struct {
	store    DataStore
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewSplitService(store DataStore, notifier Notifier, log zerolog.Logger) *SplitService {
	return &SplitService{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type CutAllocation struct {
	ServiceLineID uuid.UUID
	QuantityCut   int64
}

type CreateCutInput struct {
	WorkOrderID     uuid.UUID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	SpawnChildOrder bool
	Allocations     []CutAllocation
	Author          model.Principal
}

type CreateCutResult struct {
	Cut              model.BillingCut
	Details          []model.CutDetail
	ChildWorkOrderID *uuid.UUID
}

// Preview reports, for every service line of the order in creation order,
// how much has been executed, how much earlier non-void cuts already billed,
// and the remaining cuttable quantity with a suggested allocation. Pure read:
// no locks, no writes; a concurrently committing cut may make it stale.
func (s *SplitService) Preview(ctx context.Context, workOrderID uuid.UUID) ([]model.LineLedger, error) {
	if _, err := s.store.GetWorkOrder(ctx, workOrderID); err != nil {
		return nil, err
	}
	lines, err := s.store.ListServiceLines(ctx, workOrderID)
	if err != nil {
		return nil, err
	}

	result := make([]model.LineLedger, 0, len(lines))
	for _, line := range lines {
		ledger, err := lineLedger(ctx, s.store, line)
		if err != nil {
			return nil, err
		}
		result = append(result, ledger)
	}
	return result, nil
}

// CreateCut validates the submitted allocation under an exclusive lock on the
// work-order row and persists the billing cut with one frozen detail per
// allocation. Validation order: empty allocation set, then period, then
// per-line over-cut against executable_remaining recomputed fresh inside the
// locked transaction. Deliberately not idempotent: every successful call
// creates a new cut.
func (s *SplitService) CreateCut(ctx context.Context, input CreateCutInput) (*CreateCutResult, error) {
	if len(input.Allocations) == 0 {
		return nil, ErrEmptyCut
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, ErrInvalidPeriod
	}

	var (
		result CreateCutResult
		parent model.WorkOrder
		child  *model.WorkOrder
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		order, err := tx.GetWorkOrderForUpdate(ctx, input.WorkOrderID)
		if err != nil {
			return err
		}
		if !order.Status.AllowsMutation() {
			return fmt.Errorf("%w: order %s is %s", ErrOrderLocked, order.ID, order.Status)
		}

		lines, err := tx.ListServiceLines(ctx, order.ID)
		if err != nil {
			return err
		}
		lineByID := make(map[uuid.UUID]model.ServiceLine, len(lines))
		for _, line := range lines {
			lineByID[line.ID] = line
		}

		// Duplicate allocations for the same line are allowed; the over-cut
		// check runs against their summed quantity.
		allocated := make(map[uuid.UUID]int64, len(input.Allocations))
		for _, alloc := range input.Allocations {
			if _, ok := lineByID[alloc.ServiceLineID]; !ok {
				return fmt.Errorf("%w: service line %s does not belong to order %s",
					ErrInvalidInput, alloc.ServiceLineID, order.ID)
			}
			if alloc.QuantityCut < 0 {
				return fmt.Errorf("%w: negative quantity for line %s", ErrOverCut, alloc.ServiceLineID)
			}
			allocated[alloc.ServiceLineID] += alloc.QuantityCut
		}
		for lineID, qty := range allocated {
			ledger, err := lineLedger(ctx, tx, lineByID[lineID])
			if err != nil {
				return err
			}
			if qty > ledger.ExecutableRemaining {
				return fmt.Errorf("%w: line %s has %d executable, %d requested",
					ErrOverCut, lineID, ledger.ExecutableRemaining, qty)
			}
		}

		// Remainders drive both child spawning and the closed transition.
		// An un-spawned remainder is not written off: it stays part of
		// executable_remaining for future cuts.
		totalRemainder := int64(0)
		remainders := make(map[uuid.UUID]int64, len(lines))
		for _, line := range lines {
			remainder := line.ContractedQuantity - allocated[line.ID]
			if remainder < 0 {
				remainder = 0
			}
			remainders[line.ID] = remainder
			totalRemainder += remainder
		}

		if input.SpawnChildOrder && totalRemainder > 0 {
			child, err = s.spawnChild(ctx, tx, *order, lines, remainders, input.Author)
			if err != nil {
				return err
			}
		}

		cut := model.BillingCut{
			ID:              uuid.New(),
			WorkOrderID:     order.ID,
			PeriodStart:     dateOnly(input.PeriodStart),
			PeriodEnd:       dateOnly(input.PeriodEnd),
			Status:          model.CutStatusDraft,
			TotalAmount:     decimal.Zero,
			CreatedByUserID: input.Author.UserID,
		}
		if child != nil {
			cut.ChildWorkOrderID = &child.ID
		}

		folio, err := s.nextFolio(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		cut.Folio = folio

		// One detail per submitted allocation, in submission order.
		details := make([]model.CutDetail, 0, len(input.Allocations))
		total := decimal.Zero
		for _, alloc := range input.Allocations {
			line := lineByID[alloc.ServiceLineID]
			amount := line.UnitPrice.Mul(decimal.NewFromInt(alloc.QuantityCut)).Round(2)
			total = total.Add(amount)
			details = append(details, model.CutDetail{
				ID:                uuid.New(),
				BillingCutID:      cut.ID,
				ServiceLineID:     line.ID,
				Description:       line.Description,
				QuantityCut:       alloc.QuantityCut,
				UnitPriceSnapshot: line.UnitPrice,
				AmountSnapshot:    amount,
			})
		}
		cut.TotalAmount = total

		if err := tx.CreateBillingCut(ctx, &cut); err != nil {
			return err
		}
		if err := tx.CreateCutDetails(ctx, details); err != nil {
			return err
		}

		switch {
		case child != nil:
			order.Status = model.WorkOrderStatusPartial
			if err := tx.UpdateWorkOrderStatus(ctx, order.ID, order.Status); err != nil {
				return err
			}
		case totalRemainder == 0:
			order.Status = model.WorkOrderStatusClosed
			if err := tx.UpdateWorkOrderStatus(ctx, order.ID, order.Status); err != nil {
				return err
			}
		}

		parent = *order
		result = CreateCutResult{Cut: cut, Details: details}
		if child != nil {
			result.ChildWorkOrderID = &child.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("work_order_id", parent.ID.String()).
		Str("folio", result.Cut.Folio).
		Str("total_amount", result.Cut.TotalAmount.String()).
		Bool("child_spawned", child != nil).
		Msg("billing cut created")

	s.notifier.CutGenerated(ctx, parent, result.Cut)
	if child != nil {
		s.notifier.ChildOrderSpawned(ctx, parent, *child)
	}
	return &result, nil
}

// MarkReadyToBill moves a draft cut to READY_TO_BILL.
func (s *SplitService) MarkReadyToBill(ctx context.Context, cutID uuid.UUID) (*model.BillingCut, error) {
	return s.transition(ctx, cutID, model.CutStatusReadyToBill)
}

// MarkBilled finalizes a cut. Billed cuts are terminal: their details stay
// immutable and the cut can no longer be voided.
func (s *SplitService) MarkBilled(ctx context.Context, cutID uuid.UUID) (*model.BillingCut, error) {
	return s.transition(ctx, cutID, model.CutStatusBilled)
}

// MarkVoid cancels a draft or ready cut. Voided details drop out of the
// already_cut sum, so their quantity becomes cuttable again.
func (s *SplitService) MarkVoid(ctx context.Context, cutID uuid.UUID) (*model.BillingCut, error) {
	return s.transition(ctx, cutID, model.CutStatusVoid)
}

// GetCut returns a cut with its details.
func (s *SplitService) GetCut(ctx context.Context, cutID uuid.UUID) (*model.BillingCut, []model.CutDetail, error) {
	cut, err := s.store.GetBillingCut(ctx, cutID)
	if err != nil {
		return nil, nil, err
	}
	details, err := s.store.ListCutDetails(ctx, cutID)
	if err != nil {
		return nil, nil, err
	}
	return cut, details, nil
}

func (s *SplitService) transition(ctx context.Context, cutID uuid.UUID, next model.CutStatus) (*model.BillingCut, error) {
	var updated *model.BillingCut
	err := s.store.InTx(ctx, func(tx Store) error {
		// Lock the cut row so the status check and the update see the same
		// state: without it two concurrent transitions can both pass the
		// check and, say, void an already-billed cut.
		cut, err := tx.GetBillingCutForUpdate(ctx, cutID)
		if err != nil {
			return err
		}
		if !cut.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, cut.Status, next)
		}
		if err := tx.UpdateCutStatus(ctx, cut.ID, next); err != nil {
			return err
		}
		cut.Status = next
		updated = cut
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("cut_id", cutID.String()).
		Str("status", string(next)).
		Msg("billing cut status changed")
	return updated, nil
}

// lineLedger derives a line's ledger state: executed total, already_cut over
// non-void cuts, and the clamped remaining with a suggested allocation. Both
// the cut preview and the work-order view read through it.
func lineLedger(ctx context.Context, store Store, line model.ServiceLine) (model.LineLedger, error) {
	executed, err := store.SumProgress(ctx, line.ID)
	if err != nil {
		return model.LineLedger{}, err
	}
	alreadyCut, err := store.SumCutQuantity(ctx, line.ID)
	if err != nil {
		return model.LineLedger{}, err
	}
	remaining := executed - alreadyCut
	if remaining < 0 {
		remaining = 0
	}
	return model.LineLedger{
		Line:                 line,
		ExecutedTotal:        executed,
		AlreadyCut:           alreadyCut,
		ExecutableRemaining:  remaining,
		SuggestedCutQuantity: remaining,
		SuggestedAmount:      line.UnitPrice.Mul(decimal.NewFromInt(remaining)).Round(2),
	}, nil
}

// nextFolio scans the highest numeric suffix under the current prefix and
// increments it. The scan and the insert both happen under the work-order
// row lock, and the prefix embeds the work-order id, so concurrent cuts for
// the same order on the same day cannot collide.
func (s *SplitService) nextFolio(ctx context.Context, tx Store, workOrderID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("CUT-%s-%s", workOrderID, s.now().UTC().Format("060102"))
	maxSeq, err := tx.MaxFolioSeq(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, maxSeq+1), nil
}

func (s *SplitService) spawnChild(
	ctx context.Context,
	tx Store,
	parent model.WorkOrder,
	lines []model.ServiceLine,
	remainders map[uuid.UUID]int64,
	author model.Principal,
) (*model.WorkOrder, error) {
	child := &model.WorkOrder{
		ID:                uuid.New(),
		CenterID:          parent.CenterID,
		ClientOrgID:       parent.ClientOrgID,
		Status:            model.WorkOrderStatusActive,
		ParentWorkOrderID: &parent.ID,
		TaxRate:           parent.TaxRate,
		CreatedByUserID:   author.UserID,
	}

	childLines := make([]model.ServiceLine, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		remainder := remainders[line.ID]
		if remainder <= 0 {
			continue
		}
		childLine := model.ServiceLine{
			ID:                 uuid.New(),
			WorkOrderID:        child.ID,
			ServiceID:          line.ServiceID,
			Description:        line.Description,
			ContractedQuantity: remainder,
			UnitPrice:          line.UnitPrice,
		}
		childLine.Subtotal = childLine.ContractedAmount()
		subtotal = subtotal.Add(childLine.Subtotal)
		childLines = append(childLines, childLine)
	}
	child.ApplySubtotal(subtotal)

	if err := tx.CreateWorkOrder(ctx, child); err != nil {
		return nil, err
	}
	for i := range childLines {
		if err := tx.CreateServiceLine(ctx, &childLines[i]); err != nil {
			return nil, err
		}
	}
	return child, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
