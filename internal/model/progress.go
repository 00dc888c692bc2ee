package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProgressRecord logs quantity physically executed against a service line.
// Append-only: records are never updated or deleted.
type ProgressRecord struct {
	ID               uuid.UUID
	ServiceLineID    uuid.UUID
	AppliedRate      decimal.Decimal
	UnitPriceApplied decimal.Decimal
	Quantity         int64
	Comment          string
	CreatedByUserID  uuid.UUID
	IdempotencyKey   string
	CreatedAt        time.Time
}
