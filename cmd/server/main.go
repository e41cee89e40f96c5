package main

import (
	"context"
	"log"
	"os"
	"time"

	"pos-tienda/internal/auth"
	"pos-tienda/internal/cache"
	"pos-tienda/internal/catalog"
	"pos-tienda/internal/config"
	"pos-tienda/internal/database"
	"pos-tienda/internal/handlers"
	"pos-tienda/internal/invoice"
	"pos-tienda/internal/sales"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	auth.SetSecret(cfg.JWTSecret)

	database.Connect(cfg)

	// --- Barcode cache (optional) ---
	var index catalog.BarcodeIndex
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr, 24*time.Hour)
		if err != nil {
			log.Printf("⚠️ WARNING: barcode cache disabled: %v", err)
		} else {
			defer redisClient.Close()
			index = redisClient
		}
	}

	engine, err := sales.New(context.Background(), database.DB, sales.Options{
		InvoicePrefix:   cfg.InvoicePrefix,
		InvoiceDigits:   cfg.InvoiceDigits,
		RestockOnCancel: cfg.RestockOnCancel,
	})
	if err != nil {
		log.Fatal("Failed to start the sale engine: ", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload dir: ", err)
	}

	handlers.Setup(engine, catalog.New(database.DB, index), invoice.Renderer{StoreName: cfg.StoreName}, cfg)
	r := handlers.NewRouter(cfg)

	// --- DEPLOYMENT: Serve React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: If the user refreshes on "/dashboard",
	// serve index.html so React can handle the routing.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	log.Println("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
