package sales

import (
	"strings"

	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Commission is total x rate / 100, rounded to cents. It is always computed
// from the full total, never accumulated.
func Commission(total, ratePct decimal.Decimal) decimal.Decimal {
	if ratePct.IsZero() {
		return decimal.Zero
	}
	return total.Mul(ratePct).Div(hundred).Round(2)
}

// ParseCash reads the tendered amount. Negative amounts, more than two decimal
// places and amounts a money column can not hold are rejected.
func ParseCash(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || amount.IsNegative() || !models.FitsAmount(amount) ||
		amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return decimal.Zero, ErrInvalidCashAmount
	}
	return amount, nil
}

// settle recomputes the derived money fields of a sale from its items.
func settle(sale *models.Sale, seller *models.Seller) error {
	total := sale.Total()

	sale.CommissionAmount = decimal.Zero
	if seller != nil {
		sale.CommissionAmount = Commission(total, seller.CommissionRate)
	}

	sale.ChangeDue = decimal.Zero
	if sale.PaymentMethod == models.PaymentCash && sale.CashTendered.Valid {
		if sale.CashTendered.Decimal.LessThan(total) {
			return &InsufficientCashError{Total: total, Tendered: sale.CashTendered.Decimal}
		}
		sale.ChangeDue = sale.CashTendered.Decimal.Sub(total)
	}
	return nil
}
