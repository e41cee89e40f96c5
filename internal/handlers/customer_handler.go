package handlers

import (
	"errors"
	"net/http"
	"strings"

	"pos-tienda/internal/database"
	"pos-tienda/internal/middleware"
	"pos-tienda/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	SellerID *uint  `json:"seller_id"`
}

// --- GET: /api/customers ---
func GetCustomers(c *gin.Context) {
	var customers []models.Customer
	q := database.DB.WithContext(c.Request.Context()).Preload("Seller").Order("name")
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	if err := q.Find(&customers).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// --- POST: /api/customers/quick ---
// Quick add from the sale screen. The customer is assigned to the seller
// ringing the sale.
func QuickAddCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "Name is required")
		return
	}

	customer := models.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if c.GetString(middleware.KeyRole) == models.RoleSeller {
		id := middleware.SellerID(c)
		customer.SellerID = &id
	} else if req.SellerID != nil {
		customer.SellerID = req.SellerID
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// --- PUT: /api/customers/:id ---
func UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name is required")
		return
	}

	ctx := c.Request.Context()
	var customer models.Customer
	if err := database.DB.WithContext(ctx).Take(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, database.ErrNotFound)
			return
		}
		respondError(c, err)
		return
	}

	err := database.DB.WithContext(ctx).Model(&customer).Updates(map[string]any{
		"name":      strings.TrimSpace(req.Name),
		"email":     strings.TrimSpace(req.Email),
		"phone":     strings.TrimSpace(req.Phone),
		"address":   strings.TrimSpace(req.Address),
		"seller_id": req.SellerID,
	}).Error
	if err != nil {
		respondError(c, err)
		return
	}
	if err := database.DB.WithContext(ctx).Preload("Seller").Take(&customer, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// --- DELETE: /api/customers/:id ---
// Past sales of the customer become walk-in sales.
func DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := database.DeleteCustomer(c.Request.Context(), database.DB, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}
