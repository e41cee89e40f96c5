package handlers

import (
	"log"
	"net/http"

	"pos-tienda/internal/ai"
	"pos-tienda/internal/database"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /api/ask ---
func AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	// 1. The assistant is optional, it needs GEMINI_API_KEY
	if settings.GeminiAPIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI assistant is not configured", "code": "ai_unavailable"})
		return
	}

	// 2. Run the AI Agent
	response, err := ai.RunAgent(c.Request.Context(), database.DB, req.Message, settings.GeminiAPIKey)
	if err != nil {
		log.Printf("ai: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI assistant failed to answer", "code": "ai_failed"})
		return
	}

	// 3. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": response})
}
