package database

import (
	"context"
	"errors"

	"pos-tienda/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// DeleteSeller removes a seller account. Customers and sales that pointed at it
// are kept with the reference cleared.
func DeleteSeller(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Customer{}).Where("seller_id = ?", id).Update("seller_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Sale{}).Where("seller_id = ?", id).Update("seller_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Seller{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteCustomer removes a customer; their sales become walk-in sales.
func DeleteCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Sale{}).Where("customer_id = ?", id).Update("customer_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
