package sales

import (
	"context"
	"testing"
	"time"

	"pos-tienda/internal/database"
	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testClock = time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts Options) (*Engine, *gorm.DB) {
	t.Helper()

	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if opts.Now == nil {
		opts.Now = func() time.Time { return testClock }
	}
	e, err := New(context.Background(), db, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, db
}

func addProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func addSeller(t *testing.T, db *gorm.DB, username, rate string, active bool) *models.Seller {
	t.Helper()
	s := &models.Seller{Username: username, PasswordHash: "x", Role: models.RoleSeller, CommissionRate: decimal.RequireFromString(rate), Active: true}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create seller %s: %v", username, err)
	}
	if !active {
		// Active has a database default, so false must be written explicitly
		if err := db.Model(s).Update("active", false).Error; err != nil {
			t.Fatalf("deactivate seller: %v", err)
		}
		s.Active = false
	}
	return s
}

func addCustomer(t *testing.T, db *gorm.DB, name string) *models.Customer {
	t.Helper()
	c := &models.Customer{Name: name, Email: name + "@example.com"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create customer %s: %v", name, err)
	}
	return c
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	if err := db.Take(&p, id).Error; err != nil {
		t.Fatalf("load product %d: %v", id, err)
	}
	return p.Stock
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// snapshot captures everything a failed operation must leave untouched.
type snapshot struct {
	stocks    map[uint]int
	sales     int64
	items     int64
	movements int64
	sequence  int64
}

func takeSnapshot(t *testing.T, db *gorm.DB) snapshot {
	t.Helper()
	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		t.Fatalf("load products: %v", err)
	}
	s := snapshot{stocks: map[uint]int{}}
	for _, p := range products {
		s.stocks[p.ID] = p.Stock
	}
	s.sales = countRows(t, db, &models.Sale{})
	s.items = countRows(t, db, &models.SaleItem{})
	s.movements = countRows(t, db, &models.StockMovement{})

	var seq models.InvoiceSequence
	db.Where("name = ?", "FAC").Take(&seq)
	s.sequence = seq.LastValue
	return s
}

func (s snapshot) equal(o snapshot) bool {
	if s.sales != o.sales || s.items != o.items || s.movements != o.movements || s.sequence != o.sequence {
		return false
	}
	if len(s.stocks) != len(o.stocks) {
		return false
	}
	for id, v := range s.stocks {
		if o.stocks[id] != v {
			return false
		}
	}
	return true
}

func assertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got.StringFixed(2), want)
	}
}

func cash(amount string) CreateSaleRequest {
	return CreateSaleRequest{PaymentMethod: models.PaymentCash, CashTendered: amount}
}

func uintPtr(v uint) *uint { return &v }
