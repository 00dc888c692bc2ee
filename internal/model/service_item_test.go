package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeItemMetrics(t *testing.T) {
	tests := []struct {
		name          string
		item          ServiceItem
		extra         int64
		shortfall     int64
		wantSolicited int64
		wantBillable  int64
		wantPending   int64
		wantPct       string
	}{
		{
			name:          "no adjustments",
			item:          ServiceItem{PlannedQuantity: 10, CompletedQuantity: 2},
			wantSolicited: 10,
			wantBillable:  10,
			wantPending:   8,
			wantPct:       "20",
		},
		{
			name:          "extra raises billable",
			item:          ServiceItem{PlannedQuantity: 10, CompletedQuantity: 2},
			extra:         5,
			wantSolicited: 10,
			wantBillable:  15,
			wantPending:   13,
			wantPct:       "13.33",
		},
		{
			name:          "legacy shortfall counts in both solicited and shortfall",
			item:          ServiceItem{PlannedQuantity: 10, LegacyShortfall: 3, CompletedQuantity: 4},
			wantSolicited: 13,
			wantBillable:  10,
			wantPending:   6,
			wantPct:       "40",
		},
		{
			name:          "billable clamps at zero",
			item:          ServiceItem{PlannedQuantity: 4, CompletedQuantity: 1},
			shortfall:     9,
			wantSolicited: 4,
			wantBillable:  0,
			wantPending:   0,
			wantPct:       "0",
		},
		{
			name:          "pending clamps at zero when overcompleted",
			item:          ServiceItem{PlannedQuantity: 5, CompletedQuantity: 8},
			wantSolicited: 5,
			wantBillable:  5,
			wantPending:   0,
			wantPct:       "160",
		},
		{
			name:          "percentage rounds to two decimals",
			item:          ServiceItem{PlannedQuantity: 3, CompletedQuantity: 1},
			wantSolicited: 3,
			wantBillable:  3,
			wantPending:   2,
			wantPct:       "33.33",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeItemMetrics(tc.item, tc.extra, tc.shortfall)
			if got.Solicited != tc.wantSolicited {
				t.Errorf("solicited = %d, want %d", got.Solicited, tc.wantSolicited)
			}
			if got.BillableTotal != tc.wantBillable {
				t.Errorf("billable = %d, want %d", got.BillableTotal, tc.wantBillable)
			}
			if got.Pending != tc.wantPending {
				t.Errorf("pending = %d, want %d", got.Pending, tc.wantPending)
			}
			if !got.ProgressPct.Equal(decimal.RequireFromString(tc.wantPct)) {
				t.Errorf("progress_pct = %s, want %s", got.ProgressPct, tc.wantPct)
			}
		})
	}
}

func TestBillableAmount(t *testing.T) {
	metrics := ItemMetrics{BillableTotal: 15}
	amount := metrics.BillableAmount(decimal.RequireFromString("10.50"))
	if !amount.Equal(decimal.RequireFromString("157.50")) {
		t.Errorf("amount = %s, want 157.50", amount)
	}
}
