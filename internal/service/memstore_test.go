package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

// memStore is the in-memory Store used by the service tests. Creation order
// is tracked explicitly so list methods can mirror the repository's
// ORDER BY created_at.
type memStore struct {
	mu sync.Mutex

	orders      map[uuid.UUID]model.WorkOrder
	orderSeq    []uuid.UUID
	lines       map[uuid.UUID]model.ServiceLine
	lineSeq     []uuid.UUID
	items       map[uuid.UUID]model.ServiceItem
	itemSeq     []uuid.UUID
	progress    []model.ProgressRecord
	adjustments []model.Adjustment
	cuts        map[uuid.UUID]model.BillingCut
	cutSeq      []uuid.UUID
	details     []model.CutDetail
}

func newMemStore() *memStore {
	return &memStore{
		orders: make(map[uuid.UUID]model.WorkOrder),
		lines:  make(map[uuid.UUID]model.ServiceLine),
		items:  make(map[uuid.UUID]model.ServiceItem),
		cuts:   make(map[uuid.UUID]model.BillingCut),
	}
}

func (m *memStore) InTx(_ context.Context, fn func(tx Store) error) error {
	return fn(m)
}

func (m *memStore) CreateWorkOrder(_ context.Context, order *model.WorkOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = *order
	m.orderSeq = append(m.orderSeq, order.ID)
	return nil
}

func (m *memStore) GetWorkOrder(_ context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

func (m *memStore) GetWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	return m.GetWorkOrder(ctx, id)
}

func (m *memStore) UpdateWorkOrderTotals(_ context.Context, order *model.WorkOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Subtotal = order.Subtotal
	stored.TaxAmount = order.TaxAmount
	stored.Total = order.Total
	m.orders[order.ID] = stored
	return nil
}

func (m *memStore) UpdateWorkOrderStatus(_ context.Context, id uuid.UUID, status model.WorkOrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	stored.Status = status
	m.orders[id] = stored
	return nil
}

func (m *memStore) ListChildWorkOrders(_ context.Context, parentID uuid.UUID) ([]model.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var children []model.WorkOrder
	for _, id := range m.orderSeq {
		order := m.orders[id]
		if order.ParentWorkOrderID != nil && *order.ParentWorkOrderID == parentID {
			children = append(children, order)
		}
	}
	return children, nil
}

func (m *memStore) CreateServiceLine(_ context.Context, line *model.ServiceLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = *line
	m.lineSeq = append(m.lineSeq, line.ID)
	return nil
}

func (m *memStore) GetServiceLine(_ context.Context, id uuid.UUID) (*model.ServiceLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &line, nil
}

func (m *memStore) ListServiceLines(_ context.Context, workOrderID uuid.UUID) ([]model.ServiceLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var lines []model.ServiceLine
	for _, id := range m.lineSeq {
		line := m.lines[id]
		if line.WorkOrderID == workOrderID {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (m *memStore) UpdateServiceLineSubtotal(_ context.Context, id uuid.UUID, subtotal decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return ErrNotFound
	}
	line.Subtotal = subtotal
	m.lines[id] = line
	return nil
}

func (m *memStore) GetServiceItem(_ context.Context, id uuid.UUID) (*model.ServiceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *memStore) ListServiceItems(_ context.Context, serviceLineID uuid.UUID) ([]model.ServiceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []model.ServiceItem
	for _, id := range m.itemSeq {
		item := m.items[id]
		if item.ServiceLineID == serviceLineID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *memStore) UpdateServiceItemTotals(_ context.Context, id uuid.UUID, billableTotal int64, subtotal decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	item.BillableTotal = billableTotal
	item.Subtotal = subtotal
	m.items[id] = item
	return nil
}

func (m *memStore) CreateProgressRecord(_ context.Context, rec *model.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, *rec)
	return nil
}

func (m *memStore) FindProgressByKey(_ context.Context, serviceLineID uuid.UUID, key string) (*model.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.progress {
		if rec.ServiceLineID == serviceLineID && rec.IdempotencyKey == key {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) SumProgress(_ context.Context, serviceLineID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, rec := range m.progress {
		if rec.ServiceLineID == serviceLineID {
			total += rec.Quantity
		}
	}
	return total, nil
}

func (m *memStore) CreateAdjustment(_ context.Context, adj *model.Adjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, *adj)
	return nil
}

func (m *memStore) SumAdjustments(_ context.Context, serviceItemID uuid.UUID, kind model.AdjustmentKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, adj := range m.adjustments {
		if adj.ServiceItemID == serviceItemID && adj.Kind == kind {
			total += adj.Quantity
		}
	}
	return total, nil
}

func (m *memStore) CreateBillingCut(_ context.Context, cut *model.BillingCut) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cuts[cut.ID] = *cut
	m.cutSeq = append(m.cutSeq, cut.ID)
	return nil
}

func (m *memStore) CreateCutDetails(_ context.Context, details []model.CutDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = append(m.details, details...)
	return nil
}

func (m *memStore) GetBillingCut(_ context.Context, id uuid.UUID) (*model.BillingCut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cut, ok := m.cuts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cut, nil
}

func (m *memStore) GetBillingCutForUpdate(ctx context.Context, id uuid.UUID) (*model.BillingCut, error) {
	return m.GetBillingCut(ctx, id)
}

func (m *memStore) ListCutDetails(_ context.Context, cutID uuid.UUID) ([]model.CutDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var details []model.CutDetail
	for _, d := range m.details {
		if d.BillingCutID == cutID {
			details = append(details, d)
		}
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].ID.String() < details[j].ID.String()
	})
	return details, nil
}

func (m *memStore) UpdateCutStatus(_ context.Context, id uuid.UUID, status model.CutStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cut, ok := m.cuts[id]
	if !ok {
		return ErrNotFound
	}
	cut.Status = status
	m.cuts[id] = cut
	return nil
}

func (m *memStore) SumCutQuantity(_ context.Context, serviceLineID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, d := range m.details {
		if d.ServiceLineID != serviceLineID {
			continue
		}
		if cut, ok := m.cuts[d.BillingCutID]; ok && cut.Status == model.CutStatusVoid {
			continue
		}
		total += d.QuantityCut
	}
	return total, nil
}

func (m *memStore) MaxFolioSeq(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int64
	for _, id := range m.cutSeq {
		folio := m.cuts[id].Folio
		if !strings.HasPrefix(folio, prefix+"-") {
			continue
		}
		seq, err := strconv.ParseInt(folio[strings.LastIndex(folio, "-")+1:], 10, 64)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

// recordingNotifier captures notifier invocations for assertions.
type recordingNotifier struct {
	cuts    []model.BillingCut
	spawned []model.WorkOrder
}

func (n *recordingNotifier) CutGenerated(_ context.Context, _ model.WorkOrder, cut model.BillingCut) {
	n.cuts = append(n.cuts, cut)
}

func (n *recordingNotifier) ChildOrderSpawned(_ context.Context, _ model.WorkOrder, child model.WorkOrder) {
	n.spawned = append(n.spawned, child)
}

// fixedCatalog returns the same unit price for every service.
type fixedCatalog struct {
	price decimal.Decimal
}

func (c fixedCatalog) UnitPrice(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return c.price, nil
}
