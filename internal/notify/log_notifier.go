package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// LogNotifier is the default Notifier: it records the event and leaves real
// delivery (mail, webhooks) to the notification collaborator.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) CutGenerated(_ context.Context, order model.WorkOrder, cut model.BillingCut) {
	n.log.Info().
		Str("work_order_id", order.ID.String()).
		Str("cut_id", cut.ID.String()).
		Str("folio", cut.Folio).
		Str("total_amount", cut.TotalAmount.String()).
		Msg("cut generated")
}

func (n *LogNotifier) ChildOrderSpawned(_ context.Context, parent model.WorkOrder, child model.WorkOrder) {
	n.log.Info().
		Str("parent_work_order_id", parent.ID.String()).
		Str("child_work_order_id", child.ID.String()).
		Msg("child work order created")
}
