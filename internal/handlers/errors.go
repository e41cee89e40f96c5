package handlers

import (
	"errors"
	"log"
	"net/http"

	"pos-tienda/internal/catalog"
	"pos-tienda/internal/database"
	"pos-tienda/internal/sales"

	"github.com/gin-gonic/gin"
)

// respondError is the single place where domain errors become HTTP answers.
// The body is always {"error": reason, "code": kind}, plus the numbers behind
// stock and cash failures.
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error(), "code": sales.Kind(err)}
	status := http.StatusInternalServerError

	var stockErr *sales.InsufficientStockError
	var cashErr *sales.InsufficientCashError

	switch {
	case errors.As(err, &stockErr):
		status = http.StatusConflict
		body["product_id"] = stockErr.ProductID
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	case errors.As(err, &cashErr):
		status = http.StatusUnprocessableEntity
		body["total"] = cashErr.Total.StringFixed(2)
		body["tendered"] = cashErr.Tendered.StringFixed(2)
	case errors.Is(err, sales.ErrSaleNotFound), errors.Is(err, sales.ErrLineItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		body["code"] = "not_found"
	case errors.Is(err, catalog.ErrNegativeStock):
		status = http.StatusConflict
		body["code"] = "negative_stock"
	case errors.Is(err, sales.ErrDuplicateInvoiceNumber),
		errors.Is(err, sales.ErrSaleFinalized),
		errors.Is(err, sales.ErrInvalidStatusTransition):
		status = http.StatusConflict
	case sales.Kind(err) != "internal":
		// remaining engine errors are all about the request itself
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		body = gin.H{"error": "Internal server error", "code": "internal"}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}
