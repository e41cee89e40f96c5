// Command seeder fills an empty database with an admin, two sellers, a few
// customers and a starter catalog of pet supplies.
package main

import (
	"log"

	"pos-tienda/internal/config"
	"pos-tienda/internal/database"
	"pos-tienda/internal/models"

	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	database.Connect(cfg)

	var count int64
	if err := database.DB.Model(&models.Seller{}).Count(&count).Error; err != nil {
		log.Fatal(err)
	}
	if count > 0 {
		log.Println("Database already has accounts, nothing to seed.")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		sellers, err := seedSellers(tx)
		if err != nil {
			return err
		}
		if err := seedProducts(tx); err != nil {
			return err
		}
		return seedCustomers(tx, sellers)
	})
	if err != nil {
		log.Fatal("Seeding failed: ", err)
	}
	log.Println("✅ Seed data created. Log in as admin / admin123")
}
