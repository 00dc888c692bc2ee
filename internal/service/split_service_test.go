package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

var testDay = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

type splitFixture struct {
	store    *memStore
	notifier *recordingNotifier
	split    *SplitService
	order    model.WorkOrder
	line     model.ServiceLine
	author   model.Principal
}

func newSplitFixture(t *testing.T, contracted int64, unitPrice string) *splitFixture {
	t.Helper()
	ctx := context.Background()

	store := newMemStore()
	notifier := &recordingNotifier{}
	split := NewSplitService(store, notifier, zerolog.Nop())
	split.now = func() time.Time { return testDay }

	order := model.WorkOrder{
		ID:              uuid.New(),
		CenterID:        uuid.New(),
		ClientOrgID:     uuid.New(),
		Status:          model.WorkOrderStatusActive,
		TaxRate:         decimal.RequireFromString("0.16"),
		CreatedByUserID: uuid.New(),
	}
	if err := store.CreateWorkOrder(ctx, &order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	line := model.ServiceLine{
		ID:                 uuid.New(),
		WorkOrderID:        order.ID,
		ServiceID:          uuid.New(),
		Description:        "labeling",
		ContractedQuantity: contracted,
		UnitPrice:          decimal.RequireFromString(unitPrice),
	}
	line.Subtotal = line.ContractedAmount()
	if err := store.CreateServiceLine(ctx, &line); err != nil {
		t.Fatalf("create line: %v", err)
	}

	return &splitFixture{
		store:    store,
		notifier: notifier,
		split:    split,
		order:    order,
		line:     line,
		author:   model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: "coordinator"},
	}
}

func (f *splitFixture) addProgress(t *testing.T, quantity int64) {
	t.Helper()
	rec := model.ProgressRecord{
		ID:              uuid.New(),
		ServiceLineID:   f.line.ID,
		Quantity:        quantity,
		CreatedByUserID: f.author.UserID,
	}
	if err := f.store.CreateProgressRecord(context.Background(), &rec); err != nil {
		t.Fatalf("add progress: %v", err)
	}
}

func (f *splitFixture) cutInput(quantity int64, spawn bool) CreateCutInput {
	return CreateCutInput{
		WorkOrderID:     f.order.ID,
		PeriodStart:     testDay.AddDate(0, 0, -14),
		PeriodEnd:       testDay,
		SpawnChildOrder: spawn,
		Allocations: []CutAllocation{
			{ServiceLineID: f.line.ID, QuantityCut: quantity},
		},
		Author: f.author,
	}
}

func TestPreviewSuggestsExecutableRemaining(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	rows, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.ExecutedTotal != 60 || row.AlreadyCut != 0 {
		t.Errorf("executed=%d already_cut=%d, want 60/0", row.ExecutedTotal, row.AlreadyCut)
	}
	if row.ExecutableRemaining != 60 || row.SuggestedCutQuantity != 60 {
		t.Errorf("remaining=%d suggested=%d, want 60/60", row.ExecutableRemaining, row.SuggestedCutQuantity)
	}
	if !row.SuggestedAmount.Equal(decimal.RequireFromString("600")) {
		t.Errorf("suggested amount = %s, want 600", row.SuggestedAmount)
	}
}

func TestPreviewIsIdempotent(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	first, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	second, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ExecutedTotal != second[i].ExecutedTotal ||
			first[i].AlreadyCut != second[i].AlreadyCut ||
			first[i].ExecutableRemaining != second[i].ExecutableRemaining ||
			!first[i].SuggestedAmount.Equal(second[i].SuggestedAmount) {
			t.Errorf("row %d differs between calls", i)
		}
	}
}

func TestCreateCutWithoutSpawnKeepsRemainderCuttable(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	result, err := f.split.CreateCut(context.Background(), f.cutInput(50, false))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	if !result.Cut.TotalAmount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("total = %s, want 500", result.Cut.TotalAmount)
	}
	if result.ChildWorkOrderID != nil {
		t.Error("no child expected")
	}
	if result.Cut.Status != model.CutStatusDraft {
		t.Errorf("status = %s, want DRAFT", result.Cut.Status)
	}

	order, _ := f.store.GetWorkOrder(context.Background(), f.order.ID)
	if order.Status != model.WorkOrderStatusActive {
		t.Errorf("order status = %s, want unchanged ACTIVE", order.Status)
	}

	// Round-trip: already_cut grows by exactly the allocation.
	rows, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rows[0].AlreadyCut != 50 || rows[0].ExecutableRemaining != 10 {
		t.Errorf("already_cut=%d remaining=%d, want 50/10", rows[0].AlreadyCut, rows[0].ExecutableRemaining)
	}
}

func TestCreateCutOverAllocationFails(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	_, err := f.split.CreateCut(context.Background(), f.cutInput(80, false))
	if !errors.Is(err, ErrOverCut) {
		t.Fatalf("err = %v, want ErrOverCut", err)
	}
	if len(f.store.cuts) != 0 || len(f.store.details) != 0 {
		t.Error("no cut rows should be persisted on over-cut")
	}
}

func TestCreateCutSpawnsChildWithRemainder(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	result, err := f.split.CreateCut(context.Background(), f.cutInput(40, true))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	if result.ChildWorkOrderID == nil {
		t.Fatal("expected a child work order")
	}

	ctx := context.Background()
	child, err := f.store.GetWorkOrder(ctx, *result.ChildWorkOrderID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if child.ParentWorkOrderID == nil || *child.ParentWorkOrderID != f.order.ID {
		t.Error("child must reference the parent order")
	}
	if child.CenterID != f.order.CenterID || child.ClientOrgID != f.order.ClientOrgID {
		t.Error("child must stay at the same center and client")
	}

	childLines, _ := f.store.ListServiceLines(ctx, child.ID)
	if len(childLines) != 1 {
		t.Fatalf("expected 1 child line, got %d", len(childLines))
	}
	if childLines[0].ContractedQuantity != 60 {
		t.Errorf("child line quantity = %d, want 100-40=60", childLines[0].ContractedQuantity)
	}
	if !childLines[0].UnitPrice.Equal(f.line.UnitPrice) {
		t.Error("child line must keep the parent unit price")
	}

	parent, _ := f.store.GetWorkOrder(ctx, f.order.ID)
	if parent.Status != model.WorkOrderStatusPartial {
		t.Errorf("parent status = %s, want PARTIAL", parent.Status)
	}

	if len(f.notifier.cuts) != 1 || len(f.notifier.spawned) != 1 {
		t.Errorf("notifier calls: cuts=%d spawned=%d, want 1/1", len(f.notifier.cuts), len(f.notifier.spawned))
	}
}

func TestCreateCutEmptyAllocationsFails(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	input := f.cutInput(0, false)
	input.Allocations = nil
	_, err := f.split.CreateCut(context.Background(), input)
	if !errors.Is(err, ErrEmptyCut) {
		t.Fatalf("err = %v, want ErrEmptyCut", err)
	}
	if len(f.store.cuts) != 0 {
		t.Error("no cut should be persisted")
	}
}

func TestCreateCutInvalidPeriodFails(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	input := f.cutInput(10, false)
	input.PeriodStart = testDay
	input.PeriodEnd = testDay.AddDate(0, 0, -1)
	_, err := f.split.CreateCut(context.Background(), input)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("err = %v, want ErrInvalidPeriod", err)
	}
}

func TestCreateCutClosesOrderWhenNoRemainder(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 100)

	_, err := f.split.CreateCut(context.Background(), f.cutInput(100, false))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	order, _ := f.store.GetWorkOrder(context.Background(), f.order.ID)
	if order.Status != model.WorkOrderStatusClosed {
		t.Errorf("order status = %s, want CLOSED", order.Status)
	}
}

func TestCreateCutOnClosedOrderFails(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)
	if err := f.store.UpdateWorkOrderStatus(context.Background(), f.order.ID, model.WorkOrderStatusClosed); err != nil {
		t.Fatalf("close order: %v", err)
	}

	_, err := f.split.CreateCut(context.Background(), f.cutInput(10, false))
	if !errors.Is(err, ErrOrderLocked) {
		t.Fatalf("err = %v, want ErrOrderLocked", err)
	}
}

func TestFolioSequenceIncrementsPerOrderAndDay(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	first, err := f.split.CreateCut(context.Background(), f.cutInput(20, false))
	if err != nil {
		t.Fatalf("first cut: %v", err)
	}
	second, err := f.split.CreateCut(context.Background(), f.cutInput(20, false))
	if err != nil {
		t.Fatalf("second cut: %v", err)
	}

	prefix := fmt.Sprintf("CUT-%s-%s", f.order.ID, testDay.Format("060102"))
	if first.Cut.Folio != prefix+"-1" {
		t.Errorf("first folio = %q, want %q", first.Cut.Folio, prefix+"-1")
	}
	if second.Cut.Folio != prefix+"-2" {
		t.Errorf("second folio = %q, want %q", second.Cut.Folio, prefix+"-2")
	}
	if first.Cut.Folio == second.Cut.Folio {
		t.Error("folios must never collide")
	}
}

func TestVoidedCutQuantityBecomesCuttableAgain(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	result, err := f.split.CreateCut(context.Background(), f.cutInput(50, false))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	if _, err := f.split.MarkVoid(context.Background(), result.Cut.ID); err != nil {
		t.Fatalf("void: %v", err)
	}

	rows, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rows[0].AlreadyCut != 0 || rows[0].ExecutableRemaining != 60 {
		t.Errorf("already_cut=%d remaining=%d after void, want 0/60", rows[0].AlreadyCut, rows[0].ExecutableRemaining)
	}
}

func TestCutStatusMachine(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	result, err := f.split.CreateCut(context.Background(), f.cutInput(50, false))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	ctx := context.Background()
	cutID := result.Cut.ID

	// BILLED straight from DRAFT is not allowed.
	if _, err := f.split.MarkBilled(ctx, cutID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("draft→billed err = %v, want ErrInvalidTransition", err)
	}

	cut, err := f.split.MarkReadyToBill(ctx, cutID)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if cut.Status != model.CutStatusReadyToBill {
		t.Errorf("status = %s, want READY_TO_BILL", cut.Status)
	}

	cut, err = f.split.MarkBilled(ctx, cutID)
	if err != nil {
		t.Fatalf("billed: %v", err)
	}
	if cut.Status != model.CutStatusBilled {
		t.Errorf("status = %s, want BILLED", cut.Status)
	}

	// Billed cuts can no longer be voided.
	if _, err := f.split.MarkVoid(ctx, cutID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("billed→void err = %v, want ErrInvalidTransition", err)
	}
}

func TestCreateCutKeepsOneDetailPerAllocation(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	input := f.cutInput(20, false)
	input.Allocations = append(input.Allocations, CutAllocation{ServiceLineID: f.line.ID, QuantityCut: 30})
	result, err := f.split.CreateCut(context.Background(), input)
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	if len(result.Details) != 2 {
		t.Fatalf("details = %d, want one per allocation", len(result.Details))
	}
	if result.Details[0].QuantityCut != 20 || result.Details[1].QuantityCut != 30 {
		t.Errorf("detail quantities = %d/%d, want 20/30 in submission order",
			result.Details[0].QuantityCut, result.Details[1].QuantityCut)
	}
	if !result.Cut.TotalAmount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("total = %s, want 500", result.Cut.TotalAmount)
	}

	rows, err := f.split.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rows[0].AlreadyCut != 50 {
		t.Errorf("already_cut = %d, want 50", rows[0].AlreadyCut)
	}

	// The over-cut check still judges the summed quantity: 5+6 > 10 left.
	over := f.cutInput(5, false)
	over.Allocations = append(over.Allocations, CutAllocation{ServiceLineID: f.line.ID, QuantityCut: 6})
	if _, err := f.split.CreateCut(context.Background(), over); !errors.Is(err, ErrOverCut) {
		t.Fatalf("err = %v, want ErrOverCut", err)
	}
}

// staleCutReadStore simulates a transition racing a concurrent committer:
// the plain read still returns the status the caller started from, while the
// locked read returns the committed one.
type staleCutReadStore struct {
	*memStore
	staleStatus model.CutStatus
}

func (s *staleCutReadStore) GetBillingCut(ctx context.Context, id uuid.UUID) (*model.BillingCut, error) {
	cut, err := s.memStore.GetBillingCut(ctx, id)
	if err != nil {
		return nil, err
	}
	cut.Status = s.staleStatus
	return cut, nil
}

func (s *staleCutReadStore) InTx(_ context.Context, fn func(tx Store) error) error {
	return fn(s)
}

func TestTransitionChecksLockedCutStatus(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)
	ctx := context.Background()

	result, err := f.split.CreateCut(ctx, f.cutInput(50, false))
	if err != nil {
		t.Fatalf("create cut: %v", err)
	}
	if _, err := f.split.MarkReadyToBill(ctx, result.Cut.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := f.split.MarkBilled(ctx, result.Cut.ID); err != nil {
		t.Fatalf("billed: %v", err)
	}

	// A voider that last saw READY_TO_BILL must still be rejected: the
	// transition check runs against the locked re-read, not the stale row.
	stale := &staleCutReadStore{memStore: f.store, staleStatus: model.CutStatusReadyToBill}
	racer := NewSplitService(stale, f.notifier, zerolog.Nop())
	if _, err := racer.MarkVoid(ctx, result.Cut.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	cut, err := f.store.GetBillingCut(ctx, result.Cut.ID)
	if err != nil {
		t.Fatalf("get cut: %v", err)
	}
	if cut.Status != model.CutStatusBilled {
		t.Errorf("status = %s, want BILLED to survive the void attempt", cut.Status)
	}
}

func TestCreateCutUnknownLineFails(t *testing.T) {
	f := newSplitFixture(t, 100, "10")
	f.addProgress(t, 60)

	input := f.cutInput(10, false)
	input.Allocations[0].ServiceLineID = uuid.New()
	_, err := f.split.CreateCut(context.Background(), input)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
