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
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

// The mock mirrors the repository transaction: the conditional debit, the
// unit-cost copy and the row insert happen under one lock.
type mockSaleRepo struct {
	mu    sync.Mutex
	rows  map[string]*model.Sale
	lines map[model.LineKey]*model.InventoryLine
}

func newMockSaleRepo() *mockSaleRepo {
	return &mockSaleRepo{
		rows:  make(map[string]*model.Sale),
		lines: make(map[model.LineKey]*model.InventoryLine),
	}
}

func (m *mockSaleRepo) seed(key model.LineKey, qty, cost decimal.Decimal) {
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

func (m *mockSaleRepo) quantity(key model.LineKey) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[key]; ok {
		return line.Quantity
	}
	return decimal.Zero
}

func (m *mockSaleRepo) Create(_ context.Context, s *model.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[s.Key()]
	if !ok {
		return apperr.InsufficientStock(decimal.Zero, s.Quantity)
	}
	if line.Quantity.LessThan(s.Quantity) {
		return apperr.InsufficientStock(line.Quantity, s.Quantity)
	}
	line.Quantity = line.Quantity.Sub(s.Quantity)
	s.ID = uuid.New().String()
	s.UnitCost = line.UnitCost
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *mockSaleRepo) GetByID(_ context.Context, id string) (*model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSaleRepo) FindAll(_ context.Context, _ *dto.SaleFilters) ([]model.Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Sale, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSaleRepo) Delete(_ context.Context, id string) (*model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFoundf("sale %s not found", id)
	}
	delete(m.rows, id)
	if line, ok := m.lines[s.Key()]; ok {
		line.Quantity = line.Quantity.Add(s.Quantity)
	} else {
		m.lines[s.Key()] = &model.InventoryLine{
			ID:          uuid.New().String(),
			LocationID:  s.LocationID,
			Description: s.Description,
			Unit:        s.Unit,
			Quantity:    s.Quantity,
			UnitCost:    s.UnitCost,
		}
	}
	cp := *s
	return &cp, nil
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

type mockAuditor struct {
	mu      sync.Mutex
	records []notify.AuditRecord
}

func (m *mockAuditor) Record(_ context.Context, rec notify.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

const branchID = "9f2b0c1d-0000-0000-0000-00000000000a"

var (
	admin = auth.Caller{UserID: "user-admin", Role: auth.RoleAdmin}
	staff = auth.Caller{UserID: "user-staff", Role: auth.RoleBranchStaff, LocationID: branchID}
)

func newSaleEnv() (*mockSaleRepo, *saleUseCase) {
	repo := newMockSaleRepo()
	locs := &mockLocations{locs: map[string]*model.Location{
		branchID: {ID: branchID, Name: "Branch A", Type: model.LocationBranch},
	}}
	uc := NewSaleUseCase(repo, locs, &mockAuditor{}, zap.NewNop()).(*saleUseCase)
	return repo, uc
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestSaleRecord(t *testing.T) {
	repo, uc := newSaleEnv()
	lineKey := model.LineKey{LocationID: branchID, Description: "Paracetamol 500mg", Unit: "box"}
	repo.seed(lineKey, dec("10"), dec("4"))

	s, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
		LocationID:   branchID,
		Description:  "Paracetamol 500mg",
		Unit:         "box",
		Quantity:     dec("3"),
		SellingPrice: dec("10"),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !s.TotalAmount.Equal(dec("30")) {
		t.Errorf("expected total 30, got %s", s.TotalAmount)
	}
	if !s.UnitCost.Equal(dec("4")) {
		t.Errorf("expected unit cost copied from line, got %s", s.UnitCost)
	}
	if s.SoldBy != staff.UserID {
		t.Errorf("expected sold_by %s, got %s", staff.UserID, s.SoldBy)
	}
	if got := repo.quantity(lineKey); !got.Equal(dec("7")) {
		t.Errorf("expected quantity 7, got %s", got)
	}
}

func TestSaleRecordInsufficientStock(t *testing.T) {
	repo, uc := newSaleEnv()
	repo.seed(model.LineKey{LocationID: branchID, Description: "Ibuprofen 400mg", Unit: "box"}, dec("2"), dec("3"))

	_, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
		LocationID:   branchID,
		Description:  "Ibuprofen 400mg",
		Unit:         "box",
		Quantity:     dec("5"),
		SellingPrice: dec("8"),
	})
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 2, Requested: 5") {
		t.Errorf("error does not state quantities: %v", err)
	}
}

func TestSaleRecordConcurrent(t *testing.T) {
	repo, uc := newSaleEnv()
	lineKey := model.LineKey{LocationID: branchID, Description: "Amoxicillin 250mg", Unit: "strip"}
	repo.seed(lineKey, dec("10"), dec("2"))

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
				LocationID:   branchID,
				Description:  "Amoxicillin 250mg",
				Unit:         "strip",
				Quantity:     dec("8"),
				SellingPrice: dec("5"),
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 successful sale, got %d", successCount.Load())
	}
	if got := repo.quantity(lineKey); !got.Equal(dec("2")) {
		t.Errorf("expected remaining quantity 2, got %s", got)
	}
}

func TestSaleDeleteRestoresStock(t *testing.T) {
	repo, uc := newSaleEnv()
	lineKey := model.LineKey{LocationID: branchID, Description: "Cetirizine 10mg", Unit: "strip"}
	repo.seed(lineKey, dec("10"), dec("1.50"))

	s, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
		LocationID:   branchID,
		Description:  "Cetirizine 10mg",
		Unit:         "strip",
		Quantity:     dec("4"),
		SellingPrice: dec("3"),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := uc.Delete(context.Background(), staff, s.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-admin delete, got: %v", err)
	}
	if err := uc.Delete(context.Background(), admin, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := repo.quantity(lineKey); !got.Equal(dec("10")) {
		t.Errorf("expected quantity restored to 10, got %s", got)
	}
	if _, err := uc.Get(context.Background(), s.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected sale gone, got: %v", err)
	}
}

func TestSaleRecordOtherLocationForbidden(t *testing.T) {
	_, uc := newSaleEnv()
	_, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
		LocationID:   "some-other-location",
		Description:  "Paracetamol 500mg",
		Unit:         "box",
		Quantity:     dec("1"),
		SellingPrice: dec("2"),
	})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got: %v", err)
	}
}

func TestSaleRecordValidation(t *testing.T) {
	_, uc := newSaleEnv()
	_, err := uc.Record(context.Background(), staff, &dto.RecordSaleInput{
		LocationID:   branchID,
		Description:  "Paracetamol 500mg",
		Unit:         "box",
		Quantity:     decimal.Zero,
		SellingPrice: dec("2"),
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}
