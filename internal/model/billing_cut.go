package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CutStatus string

const (
	CutStatusDraft       CutStatus = "DRAFT"
	CutStatusReadyToBill CutStatus = "READY_TO_BILL"
	CutStatusBilled      CutStatus = "BILLED"
	CutStatusVoid        CutStatus = "VOID"
)

// CanTransitionTo enforces the cut status machine:
// DRAFT → READY_TO_BILL → BILLED; DRAFT or READY_TO_BILL → VOID.
// Once billed a cut is terminal and can no longer be voided.
func (s CutStatus) CanTransitionTo(next CutStatus) bool {
	switch next {
	case CutStatusReadyToBill:
		return s == CutStatusDraft
	case CutStatusBilled:
		return s == CutStatusReadyToBill
	case CutStatusVoid:
		return s == CutStatusDraft || s == CutStatusReadyToBill
	default:
		return false
	}
}

type BillingCut struct {
	ID               uuid.UUID
	WorkOrderID      uuid.UUID
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Folio            string
	Status           CutStatus
	TotalAmount      decimal.Decimal
	ChildWorkOrderID *uuid.UUID
	CreatedByUserID  uuid.UUID
	CreatedAt        time.Time
}

// CutDetail is one frozen line of a billing cut. Quantity, unit price and
// amount are snapshots taken at cut time; immutable once the cut leaves DRAFT.
type CutDetail struct {
	ID                uuid.UUID
	BillingCutID      uuid.UUID
	ServiceLineID     uuid.UUID
	ServiceItemID     *uuid.UUID
	Description       string
	QuantityCut       int64
	UnitPriceSnapshot decimal.Decimal
	AmountSnapshot    decimal.Decimal
}
