package reports

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestExportSales(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 5, 0, 0, time.UTC)
	sales := []models.Sale{
		{
			InvoiceNumber:    "FAC0001",
			SaleTime:         at,
			PaymentMethod:    models.PaymentCash,
			Status:           models.StatusPaid,
			CommissionAmount: decimal.RequireFromString("1.5"),
			Customer:         &models.Customer{Name: "Luis"},
			Seller:           &models.Seller{Username: "ana"},
			Items: []models.SaleItem{
				{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
				{Quantity: 1, UnitPrice: decimal.RequireFromString("2.50")},
			},
		},
		{
			InvoiceNumber: "FAC0002",
			SaleTime:      at.Add(time.Hour),
			PaymentMethod: models.PaymentCard,
			Status:        models.StatusCancelled,
			Items:         []models.SaleItem{{Quantity: 4, UnitPrice: decimal.RequireFromString("0.25")}},
		},
	}

	out, err := ExportSales(sales)
	if err != nil {
		t.Fatalf("ExportSales() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(salesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 2 sales + total", len(rows))
	}
	if rows[0][0] != "Invoice" || rows[0][8] != "Commission" {
		t.Errorf("header = %v", rows[0])
	}
	want := []string{"FAC0001", "2026-10-14 09:05", "Luis", "ana", "cash", "paid", "3", "22.5", "1.5"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][2] != "Walk-in" || rows[2][3] != "" {
		t.Errorf("walk-in row = %v", rows[2])
	}
	if rows[3][6] != "Total" || rows[3][7] != "23.5" {
		t.Errorf("total row = %v", rows[3])
	}
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf
}

func TestParseProductSheet(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Product name", "Barcode", "Price", "Stock"},
		{"Dog food", "750100", "10.50", "12"},
		{"", "", "", ""},
		{"Cat toy", "", "3", ""},
	})

	got, err := ParseProductSheet(buf)
	if err != nil {
		t.Fatalf("ParseProductSheet() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].Name != "Dog food" || got[0].Barcode != "750100" || got[0].Stock != 12 || !got[0].Price.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].Line != 4 || got[1].Barcode != "" || got[1].Stock != 0 {
		t.Errorf("second row = %+v", got[1])
	}
}

func TestParseProductSheetErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{"bad price", [][]any{{"Dog food", "1", "cheap", "1"}}},
		{"negative stock", [][]any{{"Dog food", "1", "2", "-4"}}},
		{"missing price", [][]any{{"Dog food", "1"}}},
		{"price too large", [][]any{{"Dog food", "1", "1e2000"}}},
		{"price over column", [][]any{{"Dog food", "1", "100000000"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseProductSheet(workbook(t, tt.rows)); err == nil {
				t.Error("ParseProductSheet() should fail")
			}
		})
	}

	if _, err := ParseProductSheet(workbook(t, [][]any{{"Name", "Barcode", "Price"}})); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("header only error = %v, want ErrEmptySheet", err)
	}
}
