package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceLine struct {
	ID                 uuid.UUID
	WorkOrderID        uuid.UUID
	ServiceID          uuid.UUID
	Description        string
	ContractedQuantity int64
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	CreatedAt          time.Time
}

// ContractedAmount is the booked value of the line before any adjustment.
func (l ServiceLine) ContractedAmount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.ContractedQuantity)).Round(2)
}

// LineLedger is the per-line view the split engine works from: quantities
// executed, already billed by non-void cuts, and still cuttable. Never
// persisted; recomputed on demand.
type LineLedger struct {
	Line                 ServiceLine
	ExecutedTotal        int64
	AlreadyCut           int64
	ExecutableRemaining  int64
	SuggestedCutQuantity int64
	SuggestedAmount      decimal.Decimal
}
