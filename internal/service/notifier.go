package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// Notifier is the outbound hook invoked after a cut commits. Actual delivery
// (mail, webhooks) is a collaborator concern; failures are not propagated
// back into the already-committed transaction.
type Notifier interface {
	CutGenerated(ctx context.Context, order model.WorkOrder, cut model.BillingCut)
	ChildOrderSpawned(ctx context.Context, parent model.WorkOrder, child model.WorkOrder)
}

// PriceCatalog resolves the default unit price for a service when a new line
// is booked without an explicit price.
type PriceCatalog interface {
	UnitPrice(ctx context.Context, serviceID uuid.UUID) (decimal.Decimal, error)
}
