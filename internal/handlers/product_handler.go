package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"pos-tienda/internal/database"
	"pos-tienda/internal/models"
	"pos-tienda/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        *string          `json:"name"`
	Barcode     *string          `json:"barcode"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
}

func (in ProductInput) validate(creating bool) string {
	if creating && (in.Name == nil || strings.TrimSpace(*in.Name) == "") {
		return "Name is required"
	}
	if creating && in.Price == nil {
		return "Price is required"
	}
	if in.Price != nil && in.Price.IsNegative() {
		return "Price can not be negative"
	}
	if in.Price != nil && !models.FitsAmount(*in.Price) {
		return "Price is too large"
	}
	if in.Stock != nil && *in.Stock < 0 {
		return "Stock can not be negative"
	}
	return ""
}

// barcode of "" means no barcode
func normalizeBarcode(b *string) *string {
	if b == nil {
		return nil
	}
	v := strings.TrimSpace(*b)
	if v == "" {
		return nil
	}
	return &v
}

// --- GET: List all products ---
func GetProducts(c *gin.Context) {
	var list []models.Product

	q := database.DB.WithContext(c.Request.Context()).Order("name")
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR barcode LIKE ?", like, like)
	}
	if err := q.Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// --- GET: /api/products/scan/:barcode ---
func ScanProduct(c *gin.Context) {
	p, err := products.FindByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- POST: Add a new product ---
func AddProduct(c *gin.Context) {
	var in ProductInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if msg := in.validate(true); msg != "" {
		badRequest(c, msg)
		return
	}

	// 2. Save to DB
	p := models.Product{
		Name:    strings.TrimSpace(*in.Name),
		Barcode: normalizeBarcode(in.Barcode),
		Price:   *in.Price,
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Barcode already in use", "code": "duplicate_barcode"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// --- PUT: Update product details ---
// Stock is set to the absolute value sent; the difference is journaled like
// any manual adjustment.
func UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// 1. Only update what was sent (partial update)
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if msg := in.validate(false); msg != "" {
		badRequest(c, msg)
		return
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Barcode != nil {
		fields["barcode"] = normalizeBarcode(in.Barcode)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}

	// 2. Fields and stock change together under the row lock
	p, err := products.UpdateProduct(c.Request.Context(), id, fields, in.Stock, "product edit")
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Barcode already in use", "code": "duplicate_barcode"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// --- DELETE: Remove a product ---
func DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Products referenced by a sale stay, the line item snapshot points at them
	var used int64
	if err := database.DB.WithContext(ctx).Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&used).Error; err != nil {
		respondError(c, err)
		return
	}
	if used > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not delete product. It is linked to past sales.", "code": "product_in_use"})
		return
	}

	var p models.Product
	if err := database.DB.WithContext(ctx).Take(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "code": "not_found"})
			return
		}
		respondError(c, err)
		return
	}
	if err := database.DB.WithContext(ctx).Delete(&p).Error; err != nil {
		respondError(c, err)
		return
	}
	products.Forget(ctx, p.Barcode)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type StockAdjustRequest struct {
	Delta int    `json:"delta" binding:"required"`
	Note  string `json:"note"`
}

// --- POST: /api/products/:id/stock ---
func AdjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required and must be non-zero")
		return
	}

	p, err := products.AdjustStock(c.Request.Context(), id, req.Delta, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- GET: /api/products/:id/movements ---
func GetStockMovements(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	moves, err := products.Movements(c.Request.Context(), id, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

// --- POST: /api/products/import ---
// Bulk catalog load from an .xlsx sheet: name, barcode, price, stock.
func ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		badRequest(c, "Only .xlsx files can be imported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	rows, err := reports.ParseProductSheet(file)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := products.ImportProducts(c.Request.Context(), rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// --- UPLOAD: Handle Image Files ---
func UploadImage(c *gin.Context) {
	url, ok := saveUpload(c, imageExtensions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     url,
	})
}

// saveUpload stores the multipart "file" under a random name and returns its
// public URL.
func saveUpload(c *gin.Context, allowed map[string]bool) (string, bool) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return "", false
	}

	// 2. Only allow known extensions
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowed[ext] {
		badRequest(c, "File type not allowed")
		return "", false
	}

	// 3. Generate a safe unique filename
	filename := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(settings.UploadDir, filename)); err != nil {
		respondError(c, err)
		return "", false
	}

	return settings.BaseURL + "/uploads/" + filename, true
}
