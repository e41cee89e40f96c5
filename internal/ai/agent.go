package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-tienda/internal/database"
	"pos-tienda/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	modelName = "gemini-2.0-flash-001"
	// maxRounds bounds the tool-call back and forth of one question.
	maxRounds = 5
)

var ErrUnknownTool = errors.New("unknown tool")

// tools are the functions the model may call.
var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, Barcode, Price or Stock.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get revenue, number of sales and commission owed for a date range. Cancelled sales are excluded.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "get_low_stock",
				Description: "List products whose stock is at or below a threshold.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"threshold": {Type: genai.TypeInteger, Description: "Stock threshold, default 5"},
					},
				},
			},
			{
				Name:        "get_top_sellers",
				Description: "Rank products by units sold.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"limit": {Type: genai.TypeInteger, Description: "How many products, default 5"},
					},
				},
			},
		},
	},
}

// RunAgent answers one question from the store owner, calling tools against
// the database as the model asks for them.
func RunAgent(ctx context.Context, db *gorm.DB, userMessage, apiKey string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = tools

	today := time.Now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a pet supply store point of sale.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME, do NOT ask them for the ID. Call 'check_inventory' to find the ID, then 'update_product_price'.
	2. READ: For PRICE, STOCK or DETAILS of a product, call 'check_inventory' and read the result.
	3. SALES: For sales, revenue or commission questions use 'get_sales_report'.
	4. Amounts are in the store currency with two decimals.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// --- HANDLE TOOL CALLS ---
	for round := 0; round < maxRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		var replies []genai.Part
		for _, call := range calls {
			result, err := ExecuteTool(ctx, db, call.Name, call.Args)
			if err != nil {
				result = map[string]any{"error": err.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// ExecuteTool runs one tool call and returns the payload handed back to the
// model.
func ExecuteTool(ctx context.Context, db *gorm.DB, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		var list []models.Product
		if err := db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
			return nil, err
		}
		type simpleProduct struct {
			ID      uint   `json:"id"`
			Name    string `json:"name"`
			Barcode string `json:"barcode,omitempty"`
			Stock   int    `json:"stock"`
			Price   string `json:"price"`
		}
		out := make([]simpleProduct, 0, len(list))
		for _, p := range list {
			sp := simpleProduct{ID: p.ID, Name: p.Name, Stock: p.Stock, Price: p.Price.StringFixed(2)}
			if p.Barcode != nil {
				sp.Barcode = *p.Barcode
			}
			out = append(out, sp)
		}
		return map[string]any{"inventory": out}, nil

	case "update_product_price":
		id, ok := number(args, "product_id")
		if !ok || id <= 0 {
			return nil, fmt.Errorf("product_id is required")
		}
		price, ok := number(args, "new_price")
		if !ok || price < 0 {
			return nil, fmt.Errorf("new_price must be a non-negative number")
		}
		newPrice := decimal.NewFromFloat(price).Round(2)
		if !models.FitsAmount(newPrice) {
			return nil, fmt.Errorf("new_price is too large")
		}

		res := db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", uint(id)).Update("price", newPrice)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return map[string]any{"status": "Product ID not found"}, nil
		}
		return map[string]any{"status": "Success", "new_price": newPrice.StringFixed(2)}, nil

	case "get_sales_report":
		startStr, _ := args["start_date"].(string)
		endStr, _ := args["end_date"].(string)
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("dates must be in YYYY-MM-DD format")
		}
		end = end.Add(24*time.Hour - time.Nanosecond)

		report, err := database.GetSalesReport(ctx, db, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"revenue":     report.TotalRevenue.StringFixed(2),
			"sales_count": report.TotalCount,
			"commission":  report.TotalCommission.StringFixed(2),
		}, nil

	case "get_low_stock":
		threshold := 5
		if v, ok := number(args, "threshold"); ok && v >= 0 {
			threshold = int(v)
		}
		list, err := database.LowStock(ctx, db, threshold)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(list))
		for _, p := range list {
			out = append(out, map[string]any{"id": p.ID, "name": p.Name, "stock": p.Stock})
		}
		return map[string]any{"products": out}, nil

	case "get_top_sellers":
		limit := 5
		if v, ok := number(args, "limit"); ok && v > 0 {
			limit = int(v)
		}
		rows, err := database.TopSelling(ctx, db, limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			out = append(out, map[string]any{"name": r.ProductName, "sold": r.Sold, "revenue": r.Revenue.StringFixed(2)})
		}
		return map[string]any{"products": out}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// --- HELPER FUNCTIONS ---

// number reads a numeric argument; the model sends every number as float64.
func number(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
