package handlers

import (
	"errors"
	"net/http"
	"strings"

	"pos-tienda/internal/auth"
	"pos-tienda/internal/database"
	"pos-tienda/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SellerRequest struct {
	Username       *string          `json:"username"`
	Password       *string          `json:"password"`
	Role           *string          `json:"role"`
	FullName       *string          `json:"full_name"`
	Phone          *string          `json:"phone"`
	Address        *string          `json:"address"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	MonthlyTarget  *decimal.Decimal `json:"monthly_target"`
	Active         *bool            `json:"active"`
}

var hundred = decimal.NewFromInt(100)

func (r SellerRequest) validate(creating bool) string {
	if creating {
		if r.Username == nil || strings.TrimSpace(*r.Username) == "" {
			return "Username is required"
		}
		if r.Password == nil || len(*r.Password) < 6 {
			return "Password must be at least 6 characters"
		}
	}
	if r.Role != nil && *r.Role != models.RoleAdmin && *r.Role != models.RoleSeller {
		return "Role must be admin or seller"
	}
	if r.CommissionRate != nil && (r.CommissionRate.IsNegative() || r.CommissionRate.GreaterThan(hundred)) {
		return "Commission rate must be between 0 and 100"
	}
	if r.MonthlyTarget != nil && r.MonthlyTarget.IsNegative() {
		return "Monthly target can not be negative"
	}
	if r.MonthlyTarget != nil && !r.MonthlyTarget.LessThan(models.MaxTarget) {
		return "Monthly target is too large"
	}
	return ""
}

// --- GET: /api/sellers ---
func GetSellers(c *gin.Context) {
	var sellers []models.Seller
	if err := database.DB.WithContext(c.Request.Context()).Order("username").Find(&sellers).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sellers)
}

// --- POST: /api/sellers ---
func CreateSeller(c *gin.Context) {
	var req SellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if msg := req.validate(true); msg != "" {
		badRequest(c, msg)
		return
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	seller := models.Seller{
		Username:     strings.TrimSpace(*req.Username),
		PasswordHash: hash,
		Role:         models.RoleSeller,
		Active:       true,
	}
	if req.Role != nil {
		seller.Role = *req.Role
	}
	if req.FullName != nil {
		seller.FullName = *req.FullName
	}
	if req.Phone != nil {
		seller.Phone = *req.Phone
	}
	if req.Address != nil {
		seller.Address = *req.Address
	}
	if req.CommissionRate != nil {
		seller.CommissionRate = *req.CommissionRate
	}
	if req.MonthlyTarget != nil {
		seller.MonthlyTarget = *req.MonthlyTarget
	}

	ctx := c.Request.Context()
	if err := database.DB.WithContext(ctx).Create(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken", "code": "duplicate_username"})
			return
		}
		respondError(c, err)
		return
	}
	// Active carries a column default, false has to be written explicitly
	if req.Active != nil && !*req.Active {
		if err := database.DB.WithContext(ctx).Model(&seller).Update("active", false).Error; err != nil {
			respondError(c, err)
			return
		}
		seller.Active = false
	}

	c.JSON(http.StatusCreated, seller)
}

// --- PUT: /api/sellers/:id ---
func UpdateSeller(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if msg := req.validate(false); msg != "" {
		badRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	var seller models.Seller
	if err := database.DB.WithContext(ctx).Take(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, database.ErrNotFound)
			return
		}
		respondError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Username != nil {
		updates["username"] = strings.TrimSpace(*req.Username)
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			badRequest(c, "Password must be at least 6 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		updates["password_hash"] = hash
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.CommissionRate != nil {
		updates["commission_rate"] = *req.CommissionRate
	}
	if req.MonthlyTarget != nil {
		updates["monthly_target"] = *req.MonthlyTarget
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Username already taken", "code": "duplicate_username"})
				return
			}
			respondError(c, err)
			return
		}
	}
	if err := database.DB.WithContext(ctx).Take(&seller, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

// --- DELETE: /api/sellers/:id ---
// Customers and sales of the seller are kept with the link cleared.
func DeleteSeller(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := database.DeleteSeller(c.Request.Context(), database.DB, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Seller deleted"})
}
