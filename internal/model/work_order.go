package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WorkOrderStatus string

const (
	WorkOrderStatusActive  WorkOrderStatus = "ACTIVE"
	WorkOrderStatusPartial WorkOrderStatus = "PARTIAL"
	WorkOrderStatusClosed  WorkOrderStatus = "CLOSED"
)

// AllowsMutation reports whether ledger writes (progress, adjustments, cuts)
// are still accepted for an order in this status.
func (s WorkOrderStatus) AllowsMutation() bool {
	return s != WorkOrderStatusClosed
}

type WorkOrder struct {
	ID                uuid.UUID
	CenterID          uuid.UUID
	ClientOrgID       uuid.UUID
	Status            WorkOrderStatus
	ParentWorkOrderID *uuid.UUID
	TaxRate           decimal.Decimal
	Subtotal          decimal.Decimal
	TaxAmount         decimal.Decimal
	Total             decimal.Decimal
	CreatedByUserID   uuid.UUID
	CreatedAt         time.Time
}

// ApplySubtotal sets the header subtotal and derives tax and total from it.
// Invariant: total = subtotal * (1 + tax_rate), tax rounded to cents.
func (o *WorkOrder) ApplySubtotal(subtotal decimal.Decimal) {
	o.Subtotal = subtotal.Round(2)
	o.TaxAmount = subtotal.Mul(o.TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.TaxAmount)
}
