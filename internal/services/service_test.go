package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/policy"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// sqlite serializes writers anyway; a single connection avoids
	// table-lock errors under goroutine tests.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Fabric{}, &models.Order{}, &models.Bill{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// captureDispatcher records dispatched events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []notify.TransitionEvent
}

func (d *captureDispatcher) Dispatch(_ context.Context, ev notify.TransitionEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return nil
}

// waitFor polls until n events have arrived; emission is asynchronous.
func (d *captureDispatcher) waitFor(t *testing.T, n int) []notify.TransitionEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		if len(d.events) >= n {
			out := make([]notify.TransitionEvent, len(d.events))
			copy(out, d.events)
			d.mu.Unlock()
			return out
		}
		d.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t.Fatalf("timed out waiting for %d events, have %d", n, len(d.events))
	return nil
}

type testEnv struct {
	db       *gorm.DB
	fabrics  *FabricService
	billing  *BillingService
	orders   *OrderService
	events   *captureDispatcher
	customer models.User
	tailor   models.User
	staff    models.User
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	events := &captureDispatcher{}
	g := policy.New()
	fabrics := NewFabricService(db, g)
	billing := NewBillingService(db, g)
	orders := NewOrderService(db, g, fabrics, billing, notify.NewEmitter(events))

	env := &testEnv{
		db:       db,
		fabrics:  fabrics,
		billing:  billing,
		orders:   orders,
		events:   events,
		customer: models.User{Name: "Meera", Mobile: "9000000001", Role: models.RoleCustomer},
		tailor:   models.User{Name: "Ravi", Mobile: "9000000002", Role: models.RoleTailor},
		staff:    models.User{Name: "Anita", Mobile: "9000000003", Role: models.RoleStaff},
	}
	for _, u := range []*models.User{&env.customer, &env.tailor, &env.staff} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return env
}

func (e *testEnv) seedFabric(t *testing.T, name string, stock, unitPrice float64) *models.Fabric {
	t.Helper()
	fab := models.Fabric{Name: name, Stock: stock, UnitPrice: unitPrice}
	if err := e.db.Create(&fab).Error; err != nil {
		t.Fatalf("seed fabric: %v", err)
	}
	return &fab
}

func (e *testEnv) placeShirtOrder(t *testing.T, fab *models.Fabric) *models.Order {
	t.Helper()
	in := PlaceOrderInput{
		CustomerID:   e.customer.ID,
		ItemType:     "shirt",
		Measurements: map[string]string{"chest": "40", "waist": "34"},
		Urgency:      models.UrgencyNormal,
	}
	if fab != nil {
		in.FabricSelection = FabricSelectionInput{Source: models.FabricSourceShop, FabricID: &fab.ID, Quantity: 2}
	} else {
		in.FabricSelection = FabricSelectionInput{Source: models.FabricSourceNone}
	}
	order, _, err := e.orders.PlaceOrder(context.Background(), e.customer.ID, in)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}
