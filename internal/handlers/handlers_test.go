package handlers

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/services"
)

type handlerEnv struct {
	db       *gorm.DB
	orders   *OrderHandler
	bills    *BillHandler
	fabrics  *FabricHandler
	customer models.User
	staff    models.User
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Fabric{}, &models.Order{}, &models.Bill{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	g := policy.New()
	fabricSvc := services.NewFabricService(db, g)
	billingSvc := services.NewBillingService(db, g)
	orderSvc := services.NewOrderService(db, g, fabricSvc, billingSvc, notify.NewEmitter(notify.NewLogDispatcher()))

	env := &handlerEnv{
		db:       db,
		orders:   NewOrderHandler(orderSvc),
		bills:    NewBillHandler(billingSvc),
		fabrics:  NewFabricHandler(fabricSvc),
		customer: models.User{Name: "Meera", Mobile: "9000000001", Role: models.RoleCustomer},
		staff:    models.User{Name: "Anita", Mobile: "9000000003", Role: models.RoleStaff},
	}
	for _, u := range []*models.User{&env.customer, &env.staff} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return env
}
