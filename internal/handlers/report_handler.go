package handlers

import (
	"fmt"
	"net/http"
	"time"

	"pos-tienda/internal/database"
	"pos-tienda/internal/models"
	"pos-tienda/internal/reports"
	"pos-tienda/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ReportData defines the shape of our analytics response
type ReportData struct {
	Start string `json:"start"`
	End   string `json:"end"`
	database.SalesReportResult
	TopSelling  []database.TopSellingRow `json:"top_selling"`
	RecentSales []models.Sale            `json:"recent_sales"`
}

// dateRange reads ?start=YYYY-MM-DD&end=YYYY-MM-DD, both inclusive. The
// default is the current month up to today.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var err error
	if v := c.Query("start"); v != "" {
		if start, err = time.ParseInLocation(dateLayout, v, now.Location()); err != nil {
			badRequest(c, "start must be YYYY-MM-DD")
			return start, end, false
		}
	}
	if v := c.Query("end"); v != "" {
		if end, err = time.ParseInLocation(dateLayout, v, now.Location()); err != nil {
			badRequest(c, "end must be YYYY-MM-DD")
			return start, end, false
		}
	}
	if end.Before(start) {
		badRequest(c, "end is before start")
		return start, end, false
	}
	return start, end.Add(24*time.Hour - time.Nanosecond), true
}

// --- GET: /api/reports ---
func GetSalesReport(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	data := ReportData{Start: start.Format(dateLayout), End: end.Format(dateLayout)}

	// 1. Revenue, count and commission for the range
	summary, err := database.GetSalesReport(ctx, database.DB, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	data.SalesReportResult = *summary

	// 2. Top 5 best sellers
	if data.TopSelling, err = database.TopSelling(ctx, database.DB, 5); err != nil {
		respondError(c, err)
		return
	}

	// 3. Last 10 transactions
	if data.RecentSales, err = engine.ListSales(ctx, sales.Scope{}, 10); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/dashboard ---
func GetDashboard(c *gin.Context) {
	d, err := database.GetDashboard(c.Request.Context(), database.DB, time.Now(), settings.LowStockThreshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// --- GET: /api/reports/sellers?month=YYYY-MM ---
func GetSellerPerformance(c *gin.Context) {
	month := time.Now()
	if v := c.Query("month"); v != "" {
		m, err := time.ParseInLocation("2006-01", v, time.Local)
		if err != nil {
			badRequest(c, "month must be YYYY-MM")
			return
		}
		month = m
	}

	perf, err := database.GetSellerPerformance(c.Request.Context(), database.DB, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month.Format("2006-01"), "sellers": perf})
}

// --- GET: /api/reports/export ---
// The full sales history as an .xlsx download.
func ExportSales(c *gin.Context) {
	list, err := engine.ListSales(c.Request.Context(), sales.Scope{}, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := reports.ExportSales(list)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("sales_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

// ValuationItem is one product line of the stock valuation
type ValuationItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`
}

// ValuationResponse is the final payload sent to the frontend
type ValuationResponse struct {
	Items      []ValuationItem `json:"items"`
	TotalUnits int             `json:"total_units"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation is the shelf value of the inventory at current prices.
func GetStockValuation(c *gin.Context) {
	var list []models.Product

	// 1. Fetch all products from the database
	if err := database.DB.WithContext(c.Request.Context()).Order("name").Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}

	// 2. Value every product and keep the running totals
	resp := ValuationResponse{Items: make([]ValuationItem, 0, len(list)), GrandTotal: decimal.Zero}
	for _, p := range list {
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
		resp.Items = append(resp.Items, ValuationItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  p.Stock,
			Price:     p.Price,
			Value:     value,
		})
		resp.TotalUnits += p.Stock
		resp.GrandTotal = resp.GrandTotal.Add(value)
	}

	c.JSON(http.StatusOK, resp)
}
