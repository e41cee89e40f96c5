package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pos-tienda/internal/models"
	"pos-tienda/internal/reports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNegativeStock   = errors.New("stock can not go below zero")
)

// BarcodeIndex maps barcodes to product ids. Entries may be stale; the catalog
// always checks them against the database.
type BarcodeIndex interface {
	Lookup(ctx context.Context, barcode string) (uint, bool, error)
	Store(ctx context.Context, barcode string, productID uint) error
	Forget(ctx context.Context, barcode string) error
}

// Catalog is the product lookup used to build carts.
type Catalog struct {
	db    *gorm.DB
	index BarcodeIndex
}

// New returns a catalog; index may be nil.
func New(db *gorm.DB, index BarcodeIndex) *Catalog {
	return &Catalog{db: db, index: index}
}

// FindByBarcode is a point lookup outside any sale transaction.
func (c *Catalog) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProductNotFound
	}

	if c.index != nil {
		id, ok, err := c.index.Lookup(ctx, code)
		if err != nil {
			log.Printf("catalog: barcode index lookup failed: %v", err)
		} else if ok {
			var p models.Product
			err := c.db.WithContext(ctx).Take(&p, id).Error
			if err == nil && p.Barcode != nil && *p.Barcode == code {
				return &p, nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			_ = c.index.Forget(ctx, code)
		}
	}

	var p models.Product
	if err := c.db.WithContext(ctx).Where("barcode = ?", code).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if c.index != nil {
		if err := c.index.Store(ctx, code, p.ID); err != nil {
			log.Printf("catalog: barcode index store failed: %v", err)
		}
	}
	return &p, nil
}

// Forget drops a barcode from the index after a product edit or delete.
func (c *Catalog) Forget(ctx context.Context, barcode *string) {
	if c.index == nil || barcode == nil || *barcode == "" {
		return
	}
	if err := c.index.Forget(ctx, *barcode); err != nil {
		log.Printf("catalog: barcode index forget failed: %v", err)
	}
}

// AdjustStock applies a manual correction (delivery, breakage, count) and
// journals it.
func (c *Catalog) AdjustStock(ctx context.Context, productID uint, delta int, note string) (*models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		before := p.Stock
		if before+delta < 0 {
			return fmt.Errorf("%w: %s has %d, adjustment %d", ErrNegativeStock, p.Name, before, delta)
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock + ? >= 0", p.ID, delta).
			UpdateColumn("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNegativeStock
		}
		p.Stock = before + delta

		return tx.Create(&models.StockMovement{
			ProductID:   p.ID,
			Delta:       delta,
			StockBefore: before,
			StockAfter:  p.Stock,
			Reason:      models.MovementAdjust,
			Note:        note,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct applies field edits and, when stock is given, sets the stock
// to that absolute value, all in one transaction on the locked row. The
// difference to the stock found under the lock is journaled.
func (c *Catalog) UpdateProduct(ctx context.Context, productID uint, fields map[string]any, stock *int, note string) (*models.Product, error) {
	if stock != nil && *stock < 0 {
		return nil, ErrNegativeStock
	}

	var p models.Product
	var oldBarcode *string
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		oldBarcode = p.Barcode

		if len(fields) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(fields).Error; err != nil {
				return err
			}
		}

		if stock != nil && *stock != p.Stock {
			before := p.Stock
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumn("stock", *stock).Error; err != nil {
				return err
			}
			err := tx.Create(&models.StockMovement{
				ProductID:   productID,
				Delta:       *stock - before,
				StockBefore: before,
				StockAfter:  *stock,
				Reason:      models.MovementAdjust,
				Note:        note,
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Take(&p, productID).Error
	})
	if err != nil {
		return nil, err
	}

	c.Forget(ctx, oldBarcode)
	return &p, nil
}

// Movements lists the stock journal of a product, newest first.
func (c *Catalog) Movements(ctx context.Context, productID uint, limit int) ([]models.StockMovement, error) {
	var out []models.StockMovement
	q := c.db.WithContext(ctx).Where("product_id = ?", productID).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ImportResult counts what a catalog import did.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImportProducts loads spreadsheet rows in one transaction. A row whose barcode
// matches an existing product updates its name and price and adds its stock as
// a delivery; any other row creates a product.
func (c *Catalog) ImportProducts(ctx context.Context, rows []reports.ProductRow) (*ImportResult, error) {
	var res ImportResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			var existing models.Product
			found := false
			if row.Barcode != "" {
				err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("barcode = ?", row.Barcode).Take(&existing).Error
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				found = err == nil
			}

			if !found {
				p := models.Product{Name: row.Name, Price: row.Price, Stock: row.Stock}
				if row.Barcode != "" {
					code := row.Barcode
					p.Barcode = &code
				}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("line %d: %w", row.Line, err)
				}
				res.Created++
				continue
			}

			updates := map[string]any{"name": row.Name, "price": row.Price}
			if row.Stock > 0 {
				updates["stock"] = gorm.Expr("stock + ?", row.Stock)
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			if row.Stock > 0 {
				err := tx.Create(&models.StockMovement{
					ProductID:   existing.ID,
					Delta:       row.Stock,
					StockBefore: existing.Stock,
					StockAfter:  existing.Stock + row.Stock,
					Reason:      models.MovementAdjust,
					Note:        fmt.Sprintf("import line %d", row.Line),
				}).Error
				if err != nil {
					return err
				}
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("catalog: import created %d, updated %d product(s)", res.Created, res.Updated)
	return &res, nil
}
