package reports

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const salesSheet = "Sales"

var salesHeader = []any{"Invoice", "Date", "Customer", "Seller", "Payment", "Status", "Items", "Total", "Commission"}

// ExportSales writes the sales history as a workbook, one row per sale.
// Sales must have their items, customer and seller loaded.
func ExportSales(sales []models.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(salesSheet, "A1", &salesHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(salesSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	grand := decimal.Zero
	for i, s := range sales {
		customer := "Walk-in"
		if s.Customer != nil {
			customer = s.Customer.Name
		}
		seller := ""
		if s.Seller != nil {
			seller = s.Seller.Username
		}
		items := 0
		for _, it := range s.Items {
			items += it.Quantity
		}
		total := s.Total()
		grand = grand.Add(total)

		row := []any{
			s.InvoiceNumber,
			s.SaleTime.Format("2006-01-02 15:04"),
			customer,
			seller,
			string(s.PaymentMethod),
			string(s.Status),
			items,
			total.InexactFloat64(),
			s.CommissionAmount.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	// grand total under the Total column
	last := len(sales) + 2
	if err := f.SetCellValue(salesSheet, fmt.Sprintf("G%d", last), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(salesSheet, fmt.Sprintf("H%d", last), grand.InexactFloat64()); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(salesSheet, "A", "D", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ProductRow is one line of a catalog import sheet.
type ProductRow struct {
	Line    int
	Name    string
	Barcode string
	Price   decimal.Decimal
	Stock   int
}

var ErrEmptySheet = errors.New("spreadsheet has no data rows")

// ParseProductSheet reads name, barcode, price and stock columns from the first
// sheet. A header row is detected and skipped.
func ParseProductSheet(r io.Reader) ([]ProductRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToUpper(strings.TrimSpace(rows[0][0]))
		if strings.Contains(first, "NAME") || strings.Contains(first, "PRODUCT") {
			start = 1
		}
	}

	var out []ProductRow
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		p := ProductRow{Line: i + 1, Name: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			p.Barcode = strings.TrimSpace(row[1])
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("line %d: missing price", p.Line)
		}
		if p.Price, err = decimal.NewFromString(strings.TrimSpace(row[2])); err != nil || p.Price.IsNegative() || !models.FitsAmount(p.Price) {
			return nil, fmt.Errorf("line %d: invalid price %q", p.Line, row[2])
		}
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			if p.Stock, err = strconv.Atoi(strings.TrimSpace(row[3])); err != nil || p.Stock < 0 {
				return nil, fmt.Errorf("line %d: invalid stock %q", p.Line, row[3])
			}
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrEmptySheet
	}
	return out, nil
}
