package database

import (
	"context"
	"time"

	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReportResult summarizes non-cancelled sales in a period.
type SalesReportResult struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalCount      int64           `json:"total_count"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

// GetSalesReport calculates sales within a specific date range (inclusive)
func GetSalesReport(ctx context.Context, db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult
	db = db.WithContext(ctx)

	// 1. Revenue comes from the line item snapshots, never from a stored total
	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_time BETWEEN ? AND ? AND sales.status <> ?", start, end, models.StatusCancelled).
		Select("COALESCE(SUM(sale_items.quantity * sale_items.unit_price), 0)").
		Row().Scan(&result.TotalRevenue)
	if err != nil {
		return nil, err
	}

	// 2. Count Orders
	err = db.Model(&models.Sale{}).
		Where("sale_time BETWEEN ? AND ? AND status <> ?", start, end, models.StatusCancelled).
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	// 3. Commission owed
	err = db.Model(&models.Sale{}).
		Where("sale_time BETWEEN ? AND ? AND status <> ?", start, end, models.StatusCancelled).
		Select("COALESCE(SUM(commission_amount), 0)").
		Row().Scan(&result.TotalCommission)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// TopSellingRow is one product in the best seller ranking.
type TopSellingRow struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int64           `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopSelling ranks products by units sold across non-cancelled sales.
func TopSelling(ctx context.Context, db *gorm.DB, limit int) ([]TopSellingRow, error) {
	var rows []TopSellingRow
	err := db.WithContext(ctx).Table("sale_items").
		Select("products.id as product_id, products.name as product_name, SUM(sale_items.quantity) as sold, SUM(sale_items.quantity * sale_items.unit_price) as revenue").
		Joins("JOIN products ON sale_items.product_id = products.id").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.status <> ?", models.StatusCancelled).
		Group("products.id, products.name").
		Order("sold desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// LowStock lists products at or under the threshold, scarcest first.
func LowStock(ctx context.Context, db *gorm.DB, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := db.WithContext(ctx).Where("stock <= ?", threshold).Order("stock asc, name asc").Find(&products).Error
	return products, err
}

// Dashboard is the landing page summary.
type Dashboard struct {
	CustomersTotal  int64            `json:"customers_total"`
	ItemsSoldToday  int64            `json:"items_sold_today"`
	LowStock        []models.Product `json:"low_stock"`
	TopProduct      *TopSellingRow   `json:"top_product"`
	TodayRevenue    decimal.Decimal  `json:"today_revenue"`
	TodaySalesCount int64            `json:"today_sales_count"`
}

// GetDashboard builds the landing page summary for the day containing now.
func GetDashboard(ctx context.Context, db *gorm.DB, now time.Time, lowStockThreshold int) (*Dashboard, error) {
	var d Dashboard

	if err := db.WithContext(ctx).Model(&models.Customer{}).Count(&d.CustomersTotal).Error; err != nil {
		return nil, err
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	err := db.WithContext(ctx).Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_time BETWEEN ? AND ? AND sales.status <> ?", start, end, models.StatusCancelled).
		Count(&d.ItemsSoldToday).Error
	if err != nil {
		return nil, err
	}

	today, err := GetSalesReport(ctx, db, start, end)
	if err != nil {
		return nil, err
	}
	d.TodayRevenue = today.TotalRevenue
	d.TodaySalesCount = today.TotalCount

	if d.LowStock, err = LowStock(ctx, db, lowStockThreshold); err != nil {
		return nil, err
	}

	top, err := TopSelling(ctx, db, 1)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		d.TopProduct = &top[0]
	}

	return &d, nil
}

// SellerPerformance compares a seller's month against their target.
type SellerPerformance struct {
	SellerID      uint            `json:"seller_id"`
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	SalesCount    int64           `json:"sales_count"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	Commission    decimal.Decimal `json:"commission"`
	MonthlyTarget decimal.Decimal `json:"monthly_target"`
	ProgressPct   decimal.Decimal `json:"progress_pct"`
}

// GetSellerPerformance reports every seller for the calendar month of month.
func GetSellerPerformance(ctx context.Context, db *gorm.DB, month time.Time) ([]SellerPerformance, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var sellers []models.Seller
	if err := db.WithContext(ctx).Order("username").Find(&sellers).Error; err != nil {
		return nil, err
	}

	type totalsRow struct {
		SellerID   uint
		SalesTotal decimal.Decimal
	}
	var totals []totalsRow
	err := db.WithContext(ctx).Table("sale_items").
		Select("sales.seller_id as seller_id, SUM(sale_items.quantity * sale_items.unit_price) as sales_total").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.seller_id IS NOT NULL AND sales.sale_time BETWEEN ? AND ? AND sales.status <> ?", start, end, models.StatusCancelled).
		Group("sales.seller_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	type countsRow struct {
		SellerID   uint
		SalesCount int64
		Commission decimal.Decimal
	}
	var counts []countsRow
	err = db.WithContext(ctx).Model(&models.Sale{}).
		Select("seller_id, COUNT(*) as sales_count, COALESCE(SUM(commission_amount), 0) as commission").
		Where("seller_id IS NOT NULL AND sale_time BETWEEN ? AND ? AND status <> ?", start, end, models.StatusCancelled).
		Group("seller_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byTotal := make(map[uint]decimal.Decimal, len(totals))
	for _, r := range totals {
		byTotal[r.SellerID] = r.SalesTotal
	}
	byCount := make(map[uint]countsRow, len(counts))
	for _, r := range counts {
		byCount[r.SellerID] = r
	}

	out := make([]SellerPerformance, 0, len(sellers))
	for _, s := range sellers {
		p := SellerPerformance{
			SellerID:      s.ID,
			Username:      s.Username,
			FullName:      s.FullName,
			SalesCount:    byCount[s.ID].SalesCount,
			SalesTotal:    byTotal[s.ID],
			Commission:    byCount[s.ID].Commission,
			MonthlyTarget: s.MonthlyTarget,
		}
		if s.MonthlyTarget.IsPositive() {
			p.ProgressPct = p.SalesTotal.Mul(decimal.NewFromInt(100)).Div(s.MonthlyTarget).Round(2)
		}
		out = append(out, p)
	}
	return out, nil
}
