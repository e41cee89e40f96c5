package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"pos-tienda/internal/catalog"
	"pos-tienda/internal/config"
	"pos-tienda/internal/invoice"
	"pos-tienda/internal/middleware"
	"pos-tienda/internal/models"
	"pos-tienda/internal/sales"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	engine   *sales.Engine
	products *catalog.Catalog
	renderer invoice.Renderer
	settings *config.Config
)

// Setup hands the handlers their collaborators. database.DB must already be
// connected.
func Setup(e *sales.Engine, c *catalog.Catalog, r invoice.Renderer, cfg *config.Config) {
	engine, products, renderer, settings = e, c, r, cfg
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", Login)
	r.Static("/uploads", cfg.UploadDir)

	// --- FEATURE FLAG: Admin Registration ---
	if cfg.AllowRegistration {
		r.POST("/register", Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// STAFF & ADMIN
		api.GET("/products", GetProducts)
		api.GET("/products/scan/:barcode", ScanProduct)
		api.GET("/customers", GetCustomers)
		api.POST("/customers/quick", QuickAddCustomer)

		api.POST("/checkout", Checkout)
		api.GET("/sales", GetSales)
		api.GET("/sales/:id", GetSale)
		api.POST("/sales/:id/items", AddSaleItem)
		api.DELETE("/sales/:id/items/:itemID", RemoveSaleItem)
		api.PUT("/sales/:id/status", UpdateSaleStatus)
		api.POST("/sales/:id/proof", UploadPaymentProof)
		api.GET("/sales/:id/invoice", GetInvoicePDF)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/ask", AskAI)

			admin.POST("/upload", UploadImage)
			admin.POST("/products", AddProduct)
			admin.PUT("/products/:id", UpdateProduct)
			admin.DELETE("/products/:id", DeleteProduct)
			admin.POST("/products/:id/stock", AdjustStock)
			admin.GET("/products/:id/movements", GetStockMovements)
			admin.POST("/products/import", ImportProducts)

			admin.PUT("/customers/:id", UpdateCustomer)
			admin.DELETE("/customers/:id", DeleteCustomer)

			admin.GET("/sellers", GetSellers)
			admin.POST("/sellers", CreateSeller)
			admin.PUT("/sellers/:id", UpdateSeller)
			admin.DELETE("/sellers/:id", DeleteSeller)

			admin.DELETE("/sales/:id", DeleteSale)

			admin.GET("/reports", GetSalesReport)
			admin.GET("/reports/dashboard", GetDashboard)
			admin.GET("/reports/sellers", GetSellerPerformance)
			admin.GET("/reports/export", ExportSales)
			admin.GET("/reports/valuation", GetStockValuation)
		}
	}

	return r
}

// idParam reads a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// scope limits sellers to their own sales; admins see everything.
func scope(c *gin.Context) sales.Scope {
	if c.GetString(middleware.KeyRole) == models.RoleAdmin {
		return sales.Scope{}
	}
	id := middleware.SellerID(c)
	return sales.Scope{SellerID: &id}
}
