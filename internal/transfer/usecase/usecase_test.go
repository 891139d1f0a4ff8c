package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	invdto "github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

// Mock ledger with the same conditional-debit contract as the postgres
// repository: the check and the subtraction happen under one lock.
type mockLedger struct {
	mu    sync.Mutex
	lines map[model.LineKey]*model.InventoryLine
}

func newMockLedger() *mockLedger {
	return &mockLedger{lines: make(map[model.LineKey]*model.InventoryLine)}
}

func (m *mockLedger) seed(key model.LineKey, qty, cost decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[key] = &model.InventoryLine{
		ID:          uuid.New().String(),
		LocationID:  key.LocationID,
		Description: key.Description,
		Unit:        key.Unit,
		Quantity:    qty,
		UnitCost:    cost,
	}
}

func (m *mockLedger) quantity(key model.LineKey) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[key]; ok {
		return line.Quantity
	}
	return decimal.Zero
}

func (m *mockLedger) GetByKey(_ context.Context, key model.LineKey) (*model.InventoryLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[key]
	if !ok {
		return nil, nil
	}
	cp := *line
	return &cp, nil
}

func (m *mockLedger) FindAll(_ context.Context, _ *invdto.LineFilters) ([]model.InventoryLine, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.InventoryLine, 0, len(m.lines))
	for _, line := range m.lines {
		out = append(out, *line)
	}
	return out, len(out), nil
}

func (m *mockLedger) MergeUpsert(_ context.Context, line *model.InventoryLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.LineKey{LocationID: line.LocationID, Description: line.Description, Unit: line.Unit}
	if existing, ok := m.lines[key]; ok {
		existing.Quantity = existing.Quantity.Add(line.Quantity)
		existing.UnitCost = line.UnitCost
		existing.SuggestedSellingPrice = line.SuggestedSellingPrice
		return nil
	}
	cp := *line
	cp.ID = uuid.New().String()
	m.lines[key] = &cp
	return nil
}

func (m *mockLedger) Debit(_ context.Context, key model.LineKey, qty decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(key, qty)
}

func (m *mockLedger) debitLocked(key model.LineKey, qty decimal.Decimal) error {
	line, ok := m.lines[key]
	if !ok {
		return apperr.InsufficientStock(decimal.Zero, qty)
	}
	if line.Quantity.LessThan(qty) {
		return apperr.InsufficientStock(line.Quantity, qty)
	}
	line.Quantity = line.Quantity.Sub(qty)
	return nil
}

func (m *mockLedger) Credit(_ context.Context, key model.LineKey, qty, unitCost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creditLocked(key, qty, unitCost)
	return nil
}

func (m *mockLedger) creditLocked(key model.LineKey, qty, unitCost decimal.Decimal) {
	if line, ok := m.lines[key]; ok {
		line.Quantity = line.Quantity.Add(qty)
		return
	}
	m.lines[key] = &model.InventoryLine{
		ID:          uuid.New().String(),
		LocationID:  key.LocationID,
		Description: key.Description,
		Unit:        key.Unit,
		Quantity:    qty,
		UnitCost:    unitCost,
	}
}

// Mock transfer store. Transitions hold the store lock across the guard check
// and the ledger write, mirroring the single transaction of the real
// repository: each gate has exactly one winner.
type mockTransferRepo struct {
	mu     sync.Mutex
	rows   map[string]*model.Transfer
	ledger *mockLedger
}

func newMockTransferRepo(ledger *mockLedger) *mockTransferRepo {
	return &mockTransferRepo{rows: make(map[string]*model.Transfer), ledger: ledger}
}

func (m *mockTransferRepo) CreateBatch(_ context.Context, transfers []*model.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range transfers {
		t.ID = uuid.New().String()
		t.Status = model.TransferPending
		cp := *t
		m.rows[t.ID] = &cp
	}
	return nil
}

func (m *mockTransferRepo) GetByID(_ context.Context, id string) (*model.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTransferRepo) FindAll(_ context.Context, _ *dto.TransferFilters) ([]model.Transfer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transfer, 0, len(m.rows))
	for _, t := range m.rows {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTransferRepo) SetApproved(_ context.Context, id, approvedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return apperr.NotFoundf("transfer %s not found", id)
	}
	if t.Status != model.TransferPending {
		return apperr.InvalidStatef("transfer is not pending (current status: %s)", t.Status)
	}
	t.Status = model.TransferApproved
	t.ApprovedBy = &approvedBy
	return nil
}

func (m *mockTransferRepo) SetRejected(_ context.Context, id string, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return apperr.NotFoundf("transfer %s not found", id)
	}
	if t.Status != model.TransferPending {
		return apperr.InvalidStatef("transfer is not pending (current status: %s)", t.Status)
	}
	t.Status = model.TransferRejected
	t.RejectionReason = reason
	return nil
}

func (m *mockTransferRepo) SetCancelled(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return apperr.NotFoundf("transfer %s not found", id)
	}
	if t.Status != model.TransferPending && t.Status != model.TransferApproved {
		return apperr.InvalidStatef("transfer already shipped or delivered (current status: %s)", t.Status)
	}
	t.Status = model.TransferCancelled
	return nil
}

func (m *mockTransferRepo) Ship(_ context.Context, t *model.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[t.ID]
	if !ok {
		return apperr.NotFoundf("transfer %s not found", t.ID)
	}
	if row.Status != model.TransferApproved {
		return apperr.InvalidStatef("transfer is not approved (current status: %s)", row.Status)
	}
	m.ledger.mu.Lock()
	err := m.ledger.debitLocked(row.SourceKey(), row.Quantity)
	m.ledger.mu.Unlock()
	if err != nil {
		return err
	}
	row.Status = model.TransferInTransit
	return nil
}

func (m *mockTransferRepo) Deliver(_ context.Context, t *model.Transfer, deliveredBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[t.ID]
	if !ok {
		return apperr.NotFoundf("transfer %s not found", t.ID)
	}
	if row.Status != model.TransferInTransit {
		return apperr.InvalidStatef("transfer is not in transit (current status: %s)", row.Status)
	}
	m.ledger.mu.Lock()
	m.ledger.creditLocked(row.DestinationKey(), row.Quantity, row.UnitCost)
	m.ledger.mu.Unlock()
	row.Status = model.TransferDelivered
	row.DeliveredBy = &deliveredBy
	return nil
}

type mockLocations struct {
	locs map[string]*model.Location
}

func (m *mockLocations) GetByID(_ context.Context, id string) (*model.Location, error) {
	loc, ok := m.locs[id]
	if !ok {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (m *mockLocations) FindAll(_ context.Context) ([]model.Location, error) {
	out := make([]model.Location, 0, len(m.locs))
	for _, loc := range m.locs {
		out = append(out, *loc)
	}
	return out, nil
}

type mockNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (m *mockNotifier) Notify(_ context.Context, ev notify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

type mockAuditor struct {
	mu      sync.Mutex
	records []notify.AuditRecord
}

func (m *mockAuditor) Record(_ context.Context, rec notify.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

const (
	warehouseID = "7c8a0b6e-0000-0000-0000-000000000001"
	branchID    = "7c8a0b6e-0000-0000-0000-000000000002"
)

var (
	admin       = auth.Caller{UserID: "user-admin", Role: auth.RoleAdmin}
	whManager   = auth.Caller{UserID: "user-wh", Role: auth.RoleWarehouse, LocationID: warehouseID}
	brManager   = auth.Caller{UserID: "user-bm", Role: auth.RoleBranchManager, LocationID: branchID}
	branchStaff = auth.Caller{UserID: "user-staff", Role: auth.RoleBranchStaff, LocationID: branchID}
)

type testEnv struct {
	ledger   *mockLedger
	repo     *mockTransferRepo
	notifier *mockNotifier
	auditor  *mockAuditor
	uc       *transferUseCase
}

func newTestEnv() *testEnv {
	ledger := newMockLedger()
	repo := newMockTransferRepo(ledger)
	locs := &mockLocations{locs: map[string]*model.Location{
		warehouseID: {ID: warehouseID, Name: "Central Warehouse", Type: model.LocationWarehouse},
		branchID:    {ID: branchID, Name: "Branch A", Type: model.LocationBranch},
	}}
	notifier := &mockNotifier{}
	auditor := &mockAuditor{}
	uc := NewTransferUseCase(repo, ledger, locs, notifier, auditor, zap.NewNop()).(*transferUseCase)
	return &testEnv{ledger: ledger, repo: repo, notifier: notifier, auditor: auditor, uc: uc}
}

func key(locationID, description, unit string) model.LineKey {
	return model.LineKey{LocationID: locationID, Description: description, Unit: unit}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestTransferLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	srcKey := key(warehouseID, "Paracetamol 500mg", "box")
	env.ledger.seed(srcKey, dec("100"), dec("5.50"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines: []dto.TransferLineInput{
			{Description: "Paracetamol 500mg", Unit: "box", Quantity: dec("40")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(created))
	}
	tr := created[0]
	if tr.Status != model.TransferPending {
		t.Errorf("expected pending, got %s", tr.Status)
	}
	if !tr.RequiresAdminApproval {
		t.Error("non-admin request should require admin approval")
	}
	if !tr.UnitCost.Equal(dec("5.50")) {
		t.Errorf("unit cost not copied from ledger line: %s", tr.UnitCost)
	}
	// Creation alone must not move stock.
	if got := env.ledger.quantity(srcKey); !got.Equal(dec("100")) {
		t.Errorf("source quantity changed at create: %s", got)
	}

	if _, err := env.uc.Approve(ctx, admin, tr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	shipped, err := env.uc.Ship(ctx, whManager, tr.ID)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shipped.Status != model.TransferInTransit {
		t.Errorf("expected in_transit, got %s", shipped.Status)
	}
	if got := env.ledger.quantity(srcKey); !got.Equal(dec("60")) {
		t.Errorf("expected source 60 after ship, got %s", got)
	}

	delivered, err := env.uc.Deliver(ctx, brManager, tr.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.Status != model.TransferDelivered {
		t.Errorf("expected delivered, got %s", delivered.Status)
	}
	if delivered.DeliveredBy == nil || *delivered.DeliveredBy != brManager.UserID {
		t.Error("delivered_by not recorded")
	}
	dstKey := key(branchID, "Paracetamol 500mg", "box")
	if got := env.ledger.quantity(dstKey); !got.Equal(dec("40")) {
		t.Errorf("expected destination 40 after deliver, got %s", got)
	}
	if got := env.ledger.quantity(srcKey); !got.Equal(dec("60")) {
		t.Errorf("source changed again at deliver: %s", got)
	}
}

func TestTransferCreateInsufficientStock(t *testing.T) {
	env := newTestEnv()
	env.ledger.seed(key(warehouseID, "Ibuprofen 400mg", "box"), dec("10"), dec("3"))

	_, err := env.uc.Create(context.Background(), whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines: []dto.TransferLineInput{
			{Description: "Ibuprofen 400mg", Unit: "box", Quantity: dec("20")},
		},
	})
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 10, Requested: 20") {
		t.Errorf("error does not state quantities: %v", err)
	}
}

func TestTransferCreateAllOrNothing(t *testing.T) {
	env := newTestEnv()
	env.ledger.seed(key(warehouseID, "Amoxicillin 250mg", "strip"), dec("50"), dec("2"))
	// Second line has no ledger entry at the source.

	_, err := env.uc.Create(context.Background(), whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines: []dto.TransferLineInput{
			{Description: "Amoxicillin 250mg", Unit: "strip", Quantity: dec("5")},
			{Description: "Cetirizine 10mg", Unit: "strip", Quantity: dec("5")},
		},
	})
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if len(env.repo.rows) != 0 {
		t.Errorf("expected no rows created, got %d", len(env.repo.rows))
	}
}

func TestTransferCancelAfterShip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.ledger.seed(key(warehouseID, "Omeprazole 20mg", "box"), dec("30"), dec("4"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines:          []dto.TransferLineInput{{Description: "Omeprazole 20mg", Unit: "box", Quantity: dec("10")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created[0].ID
	if _, err := env.uc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.uc.Ship(ctx, whManager, id); err != nil {
		t.Fatalf("ship: %v", err)
	}

	_, err = env.uc.Cancel(ctx, whManager, id)
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state, got: %v", err)
	}
	if !strings.Contains(err.Error(), "already shipped or delivered") {
		t.Errorf("unexpected message: %v", err)
	}
	// The earlier debit stays in place.
	if got := env.ledger.quantity(key(warehouseID, "Omeprazole 20mg", "box")); !got.Equal(dec("20")) {
		t.Errorf("expected source 20, got %s", got)
	}
}

func TestTransferShipConcurrent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	srcKey := key(warehouseID, "Metformin 500mg", "box")
	env.ledger.seed(srcKey, dec("100"), dec("6"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines:          []dto.TransferLineInput{{Description: "Metformin 500mg", Unit: "box", Quantity: dec("40")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created[0].ID
	if _, err := env.uc.Approve(ctx, admin, id); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.uc.Ship(ctx, whManager, id); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 successful ship, got %d", successCount.Load())
	}
	if got := env.ledger.quantity(srcKey); !got.Equal(dec("60")) {
		t.Errorf("expected source debited once to 60, got %s", got)
	}
}

func TestTransferApproveAfterStockDrained(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	srcKey := key(warehouseID, "Amlodipine 5mg", "box")
	env.ledger.seed(srcKey, dec("30"), dec("2"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines:          []dto.TransferLineInput{{Description: "Amlodipine 5mg", Unit: "box", Quantity: dec("25")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Stock leaves the warehouse while the request sits pending.
	if err := env.ledger.Debit(ctx, srcKey, dec("10")); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_, err = env.uc.Approve(ctx, admin, created[0].ID)
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 20, Requested: 25") {
		t.Errorf("error does not state quantities: %v", err)
	}

	current, err := env.uc.Get(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status != model.TransferPending {
		t.Errorf("expected transfer still pending, got %s", current.Status)
	}
}

func TestTransferApproveForbidden(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.ledger.seed(key(warehouseID, "Vitamin C", "bottle"), dec("20"), dec("1"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines:          []dto.TransferLineInput{{Description: "Vitamin C", Unit: "bottle", Quantity: dec("5")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.uc.Approve(ctx, branchStaff, created[0].ID)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got: %v", err)
	}
}

func TestTransferBranchManagerRequestSkipsAvailability(t *testing.T) {
	env := newTestEnv()
	// No ledger line exists at the warehouse for this item.
	created, err := env.uc.Create(context.Background(), brManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines: []dto.TransferLineInput{
			{Description: "Loratadine 10mg", Unit: "strip", Quantity: dec("15"), UnitCost: dec("2.25")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created[0].UnitCost.Equal(dec("2.25")) {
		t.Errorf("expected caller unit cost kept, got %s", created[0].UnitCost)
	}
}

func TestTransferRejectKeepsReason(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.ledger.seed(key(warehouseID, "Insulin", "vial"), dec("8"), dec("30"))

	created, err := env.uc.Create(ctx, whManager, &dto.CreateTransferInput{
		FromLocationID: warehouseID,
		ToLocationID:   branchID,
		Lines:          []dto.TransferLineInput{{Description: "Insulin", Unit: "vial", Quantity: dec("4")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rejected, err := env.uc.Reject(ctx, admin, created[0].ID, "cold chain not available")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.TransferRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "cold chain not available" {
		t.Error("rejection reason not stored")
	}
}
