package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StaticCatalog is an in-process price source: explicit per-service prices
// with an optional fallback. The production deployment replaces it with a
// client for the service/pricing catalog.
type StaticCatalog struct {
	mu       sync.RWMutex
	prices   map[uuid.UUID]decimal.Decimal
	fallback decimal.Decimal
}

func NewStaticCatalog(fallback decimal.Decimal) *StaticCatalog {
	return &StaticCatalog{
		prices:   make(map[uuid.UUID]decimal.Decimal),
		fallback: fallback,
	}
}

func (c *StaticCatalog) Register(serviceID uuid.UUID, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[serviceID] = price
}

func (c *StaticCatalog) UnitPrice(_ context.Context, serviceID uuid.UUID) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if price, ok := c.prices[serviceID]; ok {
		return price, nil
	}
	if c.fallback.IsPositive() {
		return c.fallback, nil
	}
	return decimal.Zero, fmt.Errorf("no unit price registered for service %s", serviceID)
}
