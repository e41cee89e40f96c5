package catalog

import (
	"context"
	"errors"
	"testing"

	"pos-tienda/internal/database"
	"pos-tienda/internal/models"
	"pos-tienda/internal/reports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type memoryIndex struct {
	ids     map[string]uint
	lookups int
}

func newMemoryIndex() *memoryIndex { return &memoryIndex{ids: map[string]uint{}} }

func (m *memoryIndex) Lookup(_ context.Context, barcode string) (uint, bool, error) {
	m.lookups++
	id, ok := m.ids[barcode]
	return id, ok, nil
}

func (m *memoryIndex) Store(_ context.Context, barcode string, id uint) error {
	m.ids[barcode] = id
	return nil
}

func (m *memoryIndex) Forget(_ context.Context, barcode string) error {
	delete(m.ids, barcode)
	return nil
}

func setup(t *testing.T) *gorm.DB {
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
	return db
}

func product(t *testing.T, db *gorm.DB, name, barcode string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString("9.99"), Stock: stock}
	if barcode != "" {
		p.Barcode = &barcode
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestFindByBarcode(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	want := product(t, db, "Puppy shampoo", "7501234567890", 3)
	product(t, db, "No barcode", "", 1)

	tests := []struct {
		name string
		code string
		err  error
	}{
		{"exact", "7501234567890", nil},
		{"surrounding spaces", "  7501234567890 ", nil},
		{"unknown", "0000", ErrProductNotFound},
		{"blank", "   ", ErrProductNotFound},
	}
	c := New(db, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FindByBarcode(ctx, tt.code)
			if !errors.Is(err, tt.err) {
				t.Fatalf("FindByBarcode(%q) error = %v, want %v", tt.code, err, tt.err)
			}
			if tt.err == nil && got.ID != want.ID {
				t.Errorf("FindByBarcode(%q) = product %d, want %d", tt.code, got.ID, want.ID)
			}
		})
	}
}

func TestFindByBarcodeUsesIndex(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	p := product(t, db, "Kitten milk", "111", 5)
	index := newMemoryIndex()
	c := New(db, index)

	if _, err := c.FindByBarcode(ctx, "111"); err != nil {
		t.Fatalf("first lookup error = %v", err)
	}
	if index.ids["111"] != p.ID {
		t.Fatalf("index not populated: %+v", index.ids)
	}

	// barcode moved to another product; the stale entry must not be trusted
	if err := db.Model(p).Update("barcode", "222").Error; err != nil {
		t.Fatalf("update barcode: %v", err)
	}
	other := product(t, db, "Kitten food", "111", 2)

	got, err := c.FindByBarcode(ctx, "111")
	if err != nil {
		t.Fatalf("lookup after change error = %v", err)
	}
	if got.ID != other.ID {
		t.Errorf("got product %d, want %d", got.ID, other.ID)
	}
	if index.ids["111"] != other.ID {
		t.Errorf("index entry = %d, want %d", index.ids["111"], other.ID)
	}

	c.Forget(ctx, other.Barcode)
	if _, ok := index.ids["111"]; ok {
		t.Error("Forget left the entry in place")
	}
}

func TestAdjustStock(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	p := product(t, db, "Tortoise lamp", "", 4)
	c := New(db, nil)

	got, err := c.AdjustStock(ctx, p.ID, 6, "delivery")
	if err != nil {
		t.Fatalf("AdjustStock(+6) error = %v", err)
	}
	if got.Stock != 10 {
		t.Errorf("stock = %d, want 10", got.Stock)
	}

	if _, err := c.AdjustStock(ctx, p.ID, -11, "count"); !errors.Is(err, ErrNegativeStock) {
		t.Errorf("AdjustStock(-11) error = %v, want ErrNegativeStock", err)
	}
	if _, err := c.AdjustStock(ctx, p.ID, -10, "breakage"); err != nil {
		t.Errorf("AdjustStock(-10) error = %v", err)
	}
	if _, err := c.AdjustStock(ctx, 999, 1, ""); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product error = %v", err)
	}

	moves, err := c.Movements(ctx, p.ID, 0)
	if err != nil {
		t.Fatalf("Movements() error = %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("movements = %d, want 2", len(moves))
	}
	if moves[0].Delta != -10 || moves[0].StockBefore != 10 || moves[0].StockAfter != 0 || moves[0].Note != "breakage" {
		t.Errorf("newest movement = %+v", moves[0])
	}
	if moves[1].Reason != models.MovementAdjust || moves[1].Delta != 6 {
		t.Errorf("oldest movement = %+v", moves[1])
	}

	limited, _ := c.Movements(ctx, p.ID, 1)
	if len(limited) != 1 {
		t.Errorf("limited movements = %d, want 1", len(limited))
	}
}

func TestUpdateProductSetsAbsoluteStock(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	p := product(t, db, "Parrot perch", "P-1", 4)
	index := newMemoryIndex()
	index.ids["P-1"] = p.ID
	c := New(db, index)

	// a sale lands after the admin loaded the edit form showing 4
	if _, err := c.AdjustStock(ctx, p.ID, -1, "sale"); err != nil {
		t.Fatalf("AdjustStock() error = %v", err)
	}

	stock := 10
	got, err := c.UpdateProduct(ctx, p.ID, map[string]any{"name": "Parrot perch XL", "barcode": "P-2"}, &stock, "product edit")
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if got.Stock != 10 || got.Name != "Parrot perch XL" {
		t.Errorf("product = %+v, want stock 10 and the new name", got)
	}
	if _, ok := index.ids["P-1"]; ok {
		t.Error("old barcode still indexed")
	}

	moves, _ := c.Movements(ctx, p.ID, 1)
	if len(moves) != 1 || moves[0].Delta != 7 || moves[0].StockBefore != 3 || moves[0].StockAfter != 10 {
		t.Errorf("edit movement = %+v, want 3 -> 10", moves)
	}

	same := 10
	if _, err := c.UpdateProduct(ctx, p.ID, nil, &same, "product edit"); err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if all, _ := c.Movements(ctx, p.ID, 0); len(all) != 2 {
		t.Errorf("movements = %d, an unchanged stock must not be journaled", len(all))
	}
}

func TestUpdateProductIsAtomic(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	taken := product(t, db, "Fish flakes", "F-1", 2)
	p := product(t, db, "Fish net", "N-1", 5)
	c := New(db, nil)

	stock := 9
	_, err := c.UpdateProduct(ctx, p.ID, map[string]any{"barcode": *taken.Barcode}, &stock, "product edit")
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("UpdateProduct() error = %v, want ErrDuplicatedKey", err)
	}

	var after models.Product
	db.Take(&after, p.ID)
	if after.Stock != 5 || *after.Barcode != "N-1" {
		t.Errorf("product = stock %d barcode %s, want 5 and N-1", after.Stock, *after.Barcode)
	}
	if moves, _ := c.Movements(ctx, p.ID, 0); len(moves) != 0 {
		t.Errorf("movements = %d, want 0", len(moves))
	}

	negative := -1
	if _, err := c.UpdateProduct(ctx, p.ID, nil, &negative, ""); !errors.Is(err, ErrNegativeStock) {
		t.Errorf("negative stock error = %v", err)
	}
	if _, err := c.UpdateProduct(ctx, 999, map[string]any{"name": "x"}, nil, ""); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product error = %v", err)
	}
}

func TestImportProducts(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	existing := product(t, db, "Old name", "750100", 2)
	c := New(db, nil)

	res, err := c.ImportProducts(ctx, []reports.ProductRow{
		{Line: 2, Name: "Dog food 5kg", Barcode: "750100", Price: decimal.RequireFromString("12.00"), Stock: 8},
		{Line: 3, Name: "Cat toy", Price: decimal.RequireFromString("3.00"), Stock: 4},
	})
	if err != nil {
		t.Fatalf("ImportProducts() error = %v", err)
	}
	if res.Created != 1 || res.Updated != 1 {
		t.Errorf("result = %+v", res)
	}

	var p models.Product
	db.Take(&p, existing.ID)
	if p.Name != "Dog food 5kg" || p.Stock != 10 || !p.Price.Equal(decimal.RequireFromString("12")) {
		t.Errorf("updated product = %+v", p)
	}
	moves, _ := c.Movements(ctx, existing.ID, 0)
	if len(moves) != 1 || moves[0].Delta != 8 || moves[0].StockAfter != 10 {
		t.Errorf("movements = %+v", moves)
	}

	var created models.Product
	if err := db.Where("name = ?", "Cat toy").Take(&created).Error; err != nil {
		t.Fatalf("created product missing: %v", err)
	}
	if created.Barcode != nil || created.Stock != 4 {
		t.Errorf("created product = %+v", created)
	}
}
