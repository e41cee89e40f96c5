package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"pos-tienda/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006 15:04"

var ErrNoItems = errors.New("invoice: sale has no line items loaded")

// Renderer draws the printable invoice of a sale. It only reads the sale it is
// given; load items, products and customer before calling Render.
type Renderer struct {
	StoreName string
}

// Filename is the download name, e.g. Invoice_FAC0007.pdf.
func Filename(sale *models.Sale) string {
	return "Invoice_" + sale.InvoiceNumber + ".pdf"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render returns the PDF bytes.
func (r Renderer) Render(sale *models.Sale) ([]byte, error) {
	if len(sale.Items) == 0 {
		return nil, ErrNoItems
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+sale.InvoiceNumber, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// 1. Header
	store := r.StoreName
	if store == "" {
		store = "Pet Supply Store"
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(store), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	field(pdf, tr, "Invoice No:", sale.InvoiceNumber)
	field(pdf, tr, "Date:", sale.SaleTime.Format(dateLayout))
	if sale.Seller != nil {
		field(pdf, tr, "Seller:", sellerName(sale.Seller))
	}
	pdf.Ln(4)

	// 2. Customer block
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Customer", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if sale.Customer != nil {
		field(pdf, tr, "Name:", sale.Customer.Name)
		if sale.Customer.Email != "" {
			field(pdf, tr, "Email:", sale.Customer.Email)
		}
		if sale.Customer.Phone != "" {
			field(pdf, tr, "Phone:", sale.Customer.Phone)
		}
	} else {
		pdf.CellFormat(0, 6, "Walk-in customer", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// 3. Items table
	widths := []float64{80, 30, 35, 35}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range []string{"Product", "Quantity", "Unit price", "Subtotal"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range sale.Items {
		name := fmt.Sprintf("Product #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		pdf.CellFormat(widths[0], 7, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(item.Subtotal()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// 4. Payment
	field(pdf, tr, "Payment method:", string(sale.PaymentMethod))
	pdf.SetFont("Helvetica", "B", 13)
	field(pdf, tr, "Total:", money(sale.Total()))
	pdf.SetFont("Helvetica", "", 11)
	if sale.PaymentMethod == models.PaymentCash && sale.CashTendered.Valid {
		field(pdf, tr, "Cash received:", money(sale.CashTendered.Decimal))
		field(pdf, tr, "Change:", money(sale.ChangeDue))
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, "Thank you for your purchase", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", sale.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func field(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.CellFormat(40, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func sellerName(s *models.Seller) string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Username
}
