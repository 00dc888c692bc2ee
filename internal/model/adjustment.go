package model

import (
	"time"

	"github.com/google/uuid"
)

type AdjustmentKind string

const (
	AdjustmentKindExtra     AdjustmentKind = "EXTRA"
	AdjustmentKindShortfall AdjustmentKind = "SHORTFALL"
)

func (k AdjustmentKind) Valid() bool {
	return k == AdjustmentKindExtra || k == AdjustmentKindShortfall
}

// Adjustment corrects an item's billable quantity up (extra) or down
// (shortfall), independent of physical execution. Append-only. A reason is
// required only for extras: adding billable quantity needs justification,
// removing it does not.
type Adjustment struct {
	ID              uuid.UUID
	WorkOrderID     uuid.UUID
	ServiceItemID   uuid.UUID
	Kind            AdjustmentKind
	Quantity        int64
	Reason          *string
	CreatedByUserID uuid.UUID
	CreatedAt       time.Time
}
