package sales

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		total, rate, want string
	}{
		{"30.00", "5", "1.50"},
		{"19.99", "12.5", "2.50"},
		{"250.00", "0", "0"},
		{"100.00", "100", "100.00"},
		{"0", "7", "0"},
		{"33.33", "3", "1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.total+"@"+tt.rate, func(t *testing.T) {
			got := Commission(decimal.RequireFromString(tt.total), decimal.RequireFromString(tt.rate))
			assertMoney(t, "commission", got, tt.want)
		})
	}
}

func TestParseCash(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"50", "50", false},
		{" 12.50 ", "12.50", false},
		{"0", "0", false},
		{"10.500", "10.5", false},
		{"", "", true},
		{"abc", "", true},
		{"-1", "", true},
		{"10.005", "", true},
		{"1e3", "1000", false},
		{"99999999.99", "99999999.99", false},
		{"100000000", "", true},
		{"1e2000", "", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got, err := ParseCash(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCashAmount) {
					t.Errorf("ParseCash(%q) error = %v, want ErrInvalidCashAmount", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCash(%q) error = %v", tt.raw, err)
			}
			assertMoney(t, "amount", got, tt.want)
		})
	}
}

func TestInvoiceNumbererFormatParse(t *testing.T) {
	n := InvoiceNumberer{Prefix: "FAC", Digits: 4}
	if got := n.Format(7); got != "FAC0007" {
		t.Errorf("Format(7) = %s", got)
	}
	if got := n.Format(123456); got != "FAC123456" {
		t.Errorf("Format(123456) = %s", got)
	}

	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"FAC0041", 41, true},
		{"FAC123456", 123456, true},
		{"INV0041", 0, false},
		{"FACX01", 0, false},
		{"FAC", 0, false},
		{"FAC+999", 0, false},
		{"FAC-1", 0, false},
		{"FAC 12", 0, false},
	}
	for _, tt := range tests {
		got, ok := n.Parse(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrEmptyCart, "empty_cart"},
		{&InsufficientStockError{ProductName: "x"}, "insufficient_stock"},
		{&InsufficientCashError{}, "insufficient_cash"},
		{&ProductNotFoundError{ProductID: 3}, "product_not_found"},
		{&StatusTransitionError{From: "paid", To: "pending"}, "invalid_status_transition"},
		{fmt.Errorf("%w: FAC0001", ErrDuplicateInvoiceNumber), "duplicate_invoice_number"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
