package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/tailor-app/internal/logging"
	"github.com/diewo77/tailor-app/internal/models"
)

func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	log := logging.New("db")
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.Warn("retrying DB connection", "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	log.Info("connected", "dsn", masked)

	// MIGRATIONS=1 runs sql migrations via golang-migrate; otherwise
	// AutoMigrate (dev convenience).
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		modelsToMigrate := []interface{}{
			&models.User{}, &models.Fabric{}, &models.Order{}, &models.Bill{}, &models.Payment{},
		}
		for _, m := range modelsToMigrate {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "fabrics", "orders", "bills", "payments"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

func seed(db *gorm.DB) {
	baseFabrics := []models.Fabric{
		{Name: "Cotton", Stock: 120, UnitPrice: 100},
		{Name: "Linen", Stock: 60, UnitPrice: 250},
		{Name: "Raw Silk", Stock: 40, UnitPrice: 400},
		{Name: "Velvet", Stock: 25, UnitPrice: 600},
	}
	for _, f := range baseFabrics {
		var existing models.Fabric
		if err := db.Where("name = ?", f.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&f)
		}
	}
	baseUsers := []models.User{
		{Name: "Counter Staff", Mobile: "9100000001", Role: models.RoleStaff},
		{Name: "Master Tailor", Mobile: "9100000002", Role: models.RoleTailor},
	}
	for _, u := range baseUsers {
		var existing models.User
		if err := db.Where("mobile = ?", u.Mobile).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&u)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
