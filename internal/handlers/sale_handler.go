package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"pos-tienda/internal/invoice"
	"pos-tienda/internal/middleware"
	"pos-tienda/internal/models"
	"pos-tienda/internal/sales"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest defines what the Frontend sends us
type CheckoutRequest struct {
	CustomerID    *uint                `json:"customer_id"`
	SellerID      *uint                `json:"seller_id"`
	Items         []sales.CartLine     `json:"items"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	// CashTendered may be sent as a JSON number or a string; the digits are
	// kept exactly as typed.
	CashTendered json.RawMessage   `json:"cash_tendered"`
	Status       models.SaleStatus `json:"status"`
	Notes        string            `json:"notes"`
}

func rawAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}

// --- POST: /api/checkout ---
func Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	// Sellers always ring sales in their own name
	sellerID := req.SellerID
	if c.GetString(middleware.KeyRole) == models.RoleSeller {
		id := middleware.SellerID(c)
		sellerID = &id
	}

	sale, err := engine.CreateSale(c.Request.Context(), sales.CreateSaleRequest{
		CustomerID:    req.CustomerID,
		SellerID:      sellerID,
		Cart:          req.Items,
		PaymentMethod: req.PaymentMethod,
		CashTendered:  rawAmount(req.CashTendered),
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// --- GET: /api/sales ---
func GetSales(c *gin.Context) {
	limit := 200
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	list, err := engine.ListSales(c.Request.Context(), scope(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// loadSale fetches a sale the caller may see. Sales of other sellers look
// missing to a seller.
func loadSale(c *gin.Context) (*models.Sale, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	sale, err := engine.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if s := scope(c); s.SellerID != nil && (sale.SellerID == nil || *sale.SellerID != *s.SellerID) {
		respondError(c, sales.ErrSaleNotFound)
		return nil, false
	}
	return sale, true
}

// --- GET: /api/sales/:id ---
func GetSale(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sale)
}

// --- POST: /api/sales/:id/items ---
func AddSaleItem(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}
	var line sales.CartLine
	if err := c.ShouldBindJSON(&line); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	updated, err := engine.AddItem(c.Request.Context(), sale.ID, line)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// --- DELETE: /api/sales/:id/items/:itemID ---
func RemoveSaleItem(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemID")
	if !ok {
		return
	}

	updated, err := engine.RemoveItem(c.Request.Context(), sale.ID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type StatusRequest struct {
	Status models.SaleStatus `json:"status" binding:"required"`
}

// --- PUT: /api/sales/:id/status ---
func UpdateSaleStatus(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	updated, err := engine.SetStatus(c.Request.Context(), sale.ID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

var proofExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true}

// --- POST: /api/sales/:id/proof ---
func UploadPaymentProof(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}
	url, ok := saveUpload(c, proofExtensions)
	if !ok {
		return
	}

	updated, err := engine.AttachPaymentProof(c.Request.Context(), sale.ID, url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// --- GET: /api/sales/:id/invoice ---
func GetInvoicePDF(c *gin.Context) {
	sale, ok := loadSale(c)
	if !ok {
		return
	}

	pdf, err := renderer.Render(sale)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+invoice.Filename(sale)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// --- DELETE: /api/sales/:id ---
// Admin only. Stock of every line item goes back on the shelf.
func DeleteSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := engine.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted, stock restored"})
}
