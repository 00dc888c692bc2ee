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

// OrderService books and reads work orders. Unit prices missing from a
// booking are resolved from the pricing catalog collaborator.
type OrderService struct {
	store   DataStore
	catalog PriceCatalog
	log     zerolog.Logger
}

func NewOrderService(store DataStore, catalog PriceCatalog, log zerolog.Logger) *OrderService {
	return &OrderService{store: store, catalog: catalog, log: log}
}

type CreateLineInput struct {
	ServiceID          uuid.UUID
	Description        string
	ContractedQuantity int64
	UnitPrice          *decimal.Decimal
}

type CreateWorkOrderInput struct {
	CenterID    uuid.UUID
	ClientOrgID uuid.UUID
	TaxRate     decimal.Decimal
	Lines       []CreateLineInput
	Author      model.Principal
}

// WorkOrderView is the read model: header plus lines with their ledger state.
type WorkOrderView struct {
	Order model.WorkOrder
	Lines []model.LineLedger
	Items map[uuid.UUID][]model.ServiceItem
}

func (s *OrderService) CreateWorkOrder(ctx context.Context, input CreateWorkOrderInput) (*model.WorkOrder, error) {
	if input.CenterID == uuid.Nil || input.ClientOrgID == uuid.Nil {
		return nil, fmt.Errorf("%w: center_id and client_org_id are required", ErrInvalidInput)
	}
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one service line is required", ErrInvalidInput)
	}
	if input.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax_rate must not be negative", ErrInvalidInput)
	}

	order := &model.WorkOrder{
		ID:              uuid.New(),
		CenterID:        input.CenterID,
		ClientOrgID:     input.ClientOrgID,
		Status:          model.WorkOrderStatusActive,
		TaxRate:         input.TaxRate,
		CreatedByUserID: input.Author.UserID,
	}

	lines := make([]model.ServiceLine, 0, len(input.Lines))
	subtotal := decimal.Zero
	for i, in := range input.Lines {
		if in.ServiceID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d is missing service_id", ErrInvalidInput, i)
		}
		if in.ContractedQuantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be a positive integer", ErrInvalidInput, i)
		}

		price := decimal.Zero
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		} else {
			resolved, err := s.catalog.UnitPrice(ctx, in.ServiceID)
			if err != nil {
				return nil, fmt.Errorf("resolve unit price for service %s: %w", in.ServiceID, err)
			}
			price = resolved
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: line %d unit price must not be negative", ErrInvalidInput, i)
		}

		line := model.ServiceLine{
			ID:                 uuid.New(),
			WorkOrderID:        order.ID,
			ServiceID:          in.ServiceID,
			Description:        strings.TrimSpace(in.Description),
			ContractedQuantity: in.ContractedQuantity,
			UnitPrice:          price,
		}
		line.Subtotal = line.ContractedAmount()
		subtotal = subtotal.Add(line.Subtotal)
		lines = append(lines, line)
	}
	order.ApplySubtotal(subtotal)

	err := s.store.InTx(ctx, func(tx Store) error {
		if err := tx.CreateWorkOrder(ctx, order); err != nil {
			return err
		}
		for i := range lines {
			if err := tx.CreateServiceLine(ctx, &lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("work_order_id", order.ID.String()).
		Int("lines", len(lines)).
		Str("total", order.Total.String()).
		Msg("work order created")
	return order, nil
}

func (s *OrderService) GetWorkOrder(ctx context.Context, id uuid.UUID) (*WorkOrderView, error) {
	order, err := s.store.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.ListServiceLines(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &WorkOrderView{
		Order: *order,
		Lines: make([]model.LineLedger, 0, len(lines)),
		Items: make(map[uuid.UUID][]model.ServiceItem, len(lines)),
	}
	for _, line := range lines {
		ledger, err := lineLedger(ctx, s.store, line)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, ledger)

		items, err := s.store.ListServiceItems(ctx, line.ID)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			view.Items[line.ID] = items
		}
	}
	return view, nil
}

// ListChildren is the reverse lookup for the one-directional parent/child
// relation: the child row stores parent_work_order_id, the parent embeds
// nothing.
func (s *OrderService) ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.WorkOrder, error) {
	if _, err := s.store.GetWorkOrder(ctx, parentID); err != nil {
		return nil, err
	}
	return s.store.ListChildWorkOrders(ctx, parentID)
}
