package handlers

import (
	"errors"
	"net/http"

	"pos-tienda/internal/auth"
	"pos-tienda/internal/database"
	"pos-tienda/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find the seller account
	var seller models.Seller
	if err := database.DB.Where("username = ?", input.Username).Take(&seller).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthorized"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(seller.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthorized"})
		return
	}
	if !seller.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled", "code": "seller_inactive"})
		return
	}

	// 4. Generate JWT Token
	token, err := auth.GenerateToken(seller.ID, seller.Username, seller.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     seller.Role,
		"username": seller.Username,
		"seller":   seller,
	})
}

// Register opens the first admin account. Only routed when ALLOW_REGISTRATION
// is set.
func Register(c *gin.Context) {
	var input LoginRequest

	// 1. Parse JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Hash the Password
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Create the account
	seller := models.Seller{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := database.DB.Create(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken", "code": "duplicate_username"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Account created", "seller": seller})
}
