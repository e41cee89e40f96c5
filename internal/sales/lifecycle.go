package sales

import (
	"context"
	"errors"
	"fmt"

	"pos-tienda/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSale loads a sale with its line items, products, customer and seller.
func (e *Engine) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := e.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sale_items.id") }).
		Preload("Items.Product").
		Preload("Customer").
		Preload("Seller").
		Take(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// Scope restricts what a caller may see. The zero value sees everything.
type Scope struct {
	SellerID *uint
}

// ListSales returns sales newest first.
func (e *Engine) ListSales(ctx context.Context, scope Scope, limit int) ([]models.Sale, error) {
	q := e.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		Preload("Seller").
		Order("sale_time desc, id desc")
	if scope.SellerID != nil {
		q = q.Where("seller_id = ?", *scope.SellerID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.Sale
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSale puts every line item's quantity back in stock and removes the sale
// and its items. A sale whose stock was already returned by a cancellation is
// removed without restocking again.
func (e *Engine) DeleteSale(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockSale(tx, id)
		if err != nil {
			return err
		}

		if !sale.StockRestored {
			for _, item := range sale.Items {
				if err := returnStock(tx, item.ProductID, item.Quantity, models.MovementSaleDelete, sale.ID); err != nil {
					return err
				}
			}
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		if err := tx.Delete(&models.Sale{}, sale.ID).Error; err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
}

// AddItem appends a line to a pending sale, taking the stock and recomputing
// commission and change.
func (e *Engine) AddItem(ctx context.Context, saleID uint, line CartLine) (*models.Sale, error) {
	if line.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockPendingSale(tx, saleID)
		if err != nil {
			return err
		}

		products, err := lockProducts(tx, []CartLine{line})
		if err != nil {
			return err
		}
		p := products[line.ProductID]
		if line.Quantity > p.Stock {
			return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: line.Quantity}
		}

		item := models.SaleItem{SaleID: sale.ID, ProductID: p.ID, Quantity: line.Quantity, UnitPrice: p.Price}
		sale.Items = append(sale.Items, item)
		if err := e.resettle(tx, sale); err != nil {
			return err
		}

		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create line item: %w", err)
		}
		return takeStock(tx, p, line.Quantity, models.MovementItemAdd, sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return e.GetSale(ctx, saleID)
}

// RemoveItem drops a line from a pending sale and returns its stock. The last
// line can not be removed; delete the sale instead.
func (e *Engine) RemoveItem(ctx context.Context, saleID, itemID uint) (*models.Sale, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockPendingSale(tx, saleID)
		if err != nil {
			return err
		}

		idx := -1
		for i, item := range sale.Items {
			if item.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrLineItemNotFound
		}
		if len(sale.Items) == 1 {
			return ErrEmptyCart
		}

		removed := sale.Items[idx]
		sale.Items = append(sale.Items[:idx], sale.Items[idx+1:]...)
		if err := e.resettle(tx, sale); err != nil {
			return err
		}

		if err := tx.Delete(&models.SaleItem{}, removed.ID).Error; err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}
		return returnStock(tx, removed.ProductID, removed.Quantity, models.MovementItemRemove, sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return e.GetSale(ctx, saleID)
}

var transitions = map[models.SaleStatus][]models.SaleStatus{
	models.StatusPending: {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:    {models.StatusCancelled},
}

// SetStatus moves a sale along pending -> paid -> cancelled. Cancelling returns
// the stock when the engine is configured to.
func (e *Engine) SetStatus(ctx context.Context, saleID uint, to models.SaleStatus) (*models.Sale, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockSale(tx, saleID)
		if err != nil {
			return err
		}

		allowed := false
		for _, s := range transitions[sale.Status] {
			if s == to {
				allowed = true
			}
		}
		if !allowed {
			return &StatusTransitionError{From: string(sale.Status), To: string(to)}
		}

		updates := map[string]any{"status": to}
		if to == models.StatusCancelled && e.restockOnCancel && !sale.StockRestored {
			for _, item := range sale.Items {
				if err := returnStock(tx, item.ProductID, item.Quantity, models.MovementSaleCancel, sale.ID); err != nil {
					return err
				}
			}
			updates["stock_restored"] = true
		}
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return e.GetSale(ctx, saleID)
}

// AttachPaymentProof records where the uploaded proof of payment lives.
func (e *Engine) AttachPaymentProof(ctx context.Context, saleID uint, ref string) (*models.Sale, error) {
	res := e.db.WithContext(ctx).Model(&models.Sale{}).Where("id = ?", saleID).Update("payment_proof", ref)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSaleNotFound
	}
	return e.GetSale(ctx, saleID)
}

// resettle recomputes commission and change from the sale's current items and
// stores them.
func (e *Engine) resettle(tx *gorm.DB, sale *models.Sale) error {
	seller, err := currentSeller(tx, sale.SellerID)
	if err != nil {
		return err
	}
	if err := settle(sale, seller); err != nil {
		return err
	}
	return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(map[string]any{
		"commission_amount": sale.CommissionAmount,
		"change_due":        sale.ChangeDue,
	}).Error
}

// currentSeller is the seller whose rate applies. Unlike new sales, an inactive
// seller keeps earning on a sale they already own.
func currentSeller(tx *gorm.DB, id *uint) (*models.Seller, error) {
	if id == nil {
		return nil, nil
	}
	var seller models.Seller
	if err := tx.Take(&seller, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

func lockSale(tx *gorm.DB, id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if err := tx.Where("sale_id = ?", id).Order("id").Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func lockPendingSale(tx *gorm.DB, id uint) (*models.Sale, error) {
	sale, err := lockSale(tx, id)
	if err != nil {
		return nil, err
	}
	if sale.Status.Terminal() {
		return nil, ErrSaleFinalized
	}
	return sale, nil
}
