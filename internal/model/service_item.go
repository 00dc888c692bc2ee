package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceItem struct {
	ID                uuid.UUID
	ServiceLineID     uuid.UUID
	Description       string
	Size              string
	PlannedQuantity   int64
	CompletedQuantity int64
	LegacyShortfall   int64
	UnitPrice         decimal.Decimal
	BillableTotal     int64
	Subtotal          decimal.Decimal
	CreatedAt         time.Time
}

// ItemMetrics are the derived quantities reported for a service item.
type ItemMetrics struct {
	Solicited     int64
	Extra         int64
	Shortfall     int64
	BillableTotal int64
	Completed     int64
	Pending       int64
	ProgressPct   decimal.Decimal
}

// ComputeItemMetrics derives the item metrics from the stored item plus the
// summed extra/shortfall adjustment quantities:
//
//	solicited      = planned + legacy_shortfall
//	billable_total = max(0, solicited + extra - shortfall)
//	pending        = max(0, billable_total - completed)
//	progress_pct   = 0 if billable_total = 0, else completed/billable*100 (2dp)
func ComputeItemMetrics(item ServiceItem, extraSum, shortfallSum int64) ItemMetrics {
	solicited := item.PlannedQuantity + item.LegacyShortfall
	shortfall := item.LegacyShortfall + shortfallSum

	billable := solicited + extraSum - shortfall
	if billable < 0 {
		billable = 0
	}
	pending := billable - item.CompletedQuantity
	if pending < 0 {
		pending = 0
	}

	pct := decimal.Zero
	if billable > 0 {
		pct = decimal.NewFromInt(item.CompletedQuantity).
			Div(decimal.NewFromInt(billable)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return ItemMetrics{
		Solicited:     solicited,
		Extra:         extraSum,
		Shortfall:     shortfall,
		BillableTotal: billable,
		Completed:     item.CompletedQuantity,
		Pending:       pending,
		ProgressPct:   pct,
	}
}

// BillableAmount prices the billable total at the item's unit price.
func (m ItemMetrics) BillableAmount(unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(m.BillableTotal)).Round(2)
}
