package main

import (
	"fmt"

	"pos-tienda/internal/auth"
	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var starterProducts = []struct {
	name  string
	price string
	stock int
}{
	{"Dog Food Adult 3kg", "18.50", 40},
	{"Dog Food Puppy 1kg", "7.90", 25},
	{"Cat Food Salmon 1.5kg", "11.25", 30},
	{"Cat Litter 10L", "6.40", 50},
	{"Chew Bone Large", "3.20", 60},
	{"Rope Toy", "4.75", 35},
	{"Nylon Leash 1.2m", "9.99", 15},
	{"Pet Shampoo 250ml", "5.60", 20},
	{"Bird Seed Mix 500g", "2.80", 45},
	{"Aquarium Filter", "24.00", 4},
}

var customerNames = []string{"Lucia Gomez", "Martin Perez", "Sofia Rossi", "Diego Fernandez"}

func seedSellers(tx *gorm.DB) ([]models.Seller, error) {
	accounts := []struct {
		username string
		password string
		role     string
		fullName string
		rate     int64
		target   int64
	}{
		{"admin", "admin123", models.RoleAdmin, "Store Owner", 0, 0},
		{"ana", "seller123", models.RoleSeller, "Ana Torres", 5, 3000},
		{"bruno", "seller123", models.RoleSeller, "Bruno Diaz", 3, 2000},
	}

	var sellers []models.Seller
	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return nil, err
		}
		s := models.Seller{
			Username:       a.username,
			PasswordHash:   hash,
			Role:           a.role,
			FullName:       a.fullName,
			CommissionRate: decimal.NewFromInt(a.rate),
			MonthlyTarget:  decimal.NewFromInt(a.target),
			Active:         true,
		}
		if err := tx.Create(&s).Error; err != nil {
			return nil, fmt.Errorf("seller %s: %w", a.username, err)
		}
		if s.Role == models.RoleSeller {
			sellers = append(sellers, s)
		}
	}
	return sellers, nil
}

func seedProducts(tx *gorm.DB) error {
	for i, p := range starterProducts {
		barcode := fmt.Sprintf("7790000%06d", i+1)
		product := models.Product{
			Name:    p.name,
			Barcode: &barcode,
			Price:   decimal.RequireFromString(p.price),
			Stock:   p.stock,
		}
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("product %s: %w", p.name, err)
		}
		if p.stock > 0 {
			movement := models.StockMovement{
				ProductID:  product.ID,
				Delta:      p.stock,
				StockAfter: p.stock,
				Reason:     models.MovementAdjust,
				Note:       "initial stock",
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedCustomers(tx *gorm.DB, sellers []models.Seller) error {
	for i, name := range customerNames {
		c := models.Customer{Name: name}
		if len(sellers) > 0 {
			c.SellerID = &sellers[i%len(sellers)].ID
		}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("customer %s: %w", name, err)
		}
	}
	return nil
}
