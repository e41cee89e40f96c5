package database

import (
	"fmt"
	"log"
	"time"

	"pos-tienda/internal/config"
	"pos-tienda/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector picks the GORM driver for the configured backend.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// Open connects and migrates. Unique-index violations come back as
// gorm.ErrDuplicatedKey.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// SQLite has a single writer; one connection keeps transactions serialized.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate syncs the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Seller{},
		&models.Product{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.InvoiceSequence{},
		&models.StockMovement{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Connect opens the configured database into DB, waiting for it to be ready.
func Connect(cfg *config.Config) {
	var err error

	for i := 0; i < 5; i++ {
		DB, err = Open(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database (%v). Retrying in 2 seconds... (%d/5)", err, i+1)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatal("Failed to connect to database after 5 attempts:", err)
	}

	log.Printf("✅ Connected to %s, schema synced", cfg.DBDriver)
}
