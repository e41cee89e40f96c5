package sales

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors. Callers match them with errors.Is; the detailed types below
// unwrap to them.
var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInvalidPaymentMethod    = errors.New("payment method must be cash or card")
	ErrProductNotFound         = errors.New("product not found")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrSellerNotFound          = errors.New("seller not found")
	ErrSellerInactive          = errors.New("seller account is inactive")
	ErrInvalidCashAmount       = errors.New("invalid cash amount")
	ErrInsufficientCash        = errors.New("cash tendered is less than the total")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrDuplicateInvoiceNumber  = errors.New("duplicate invoice number")
	ErrSaleNotFound            = errors.New("sale not found")
	ErrLineItemNotFound        = errors.New("line item not found")
	ErrSaleFinalized           = errors.New("sale is no longer pending")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ProductNotFoundError names the missing product.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InsufficientCashError carries the amounts that did not add up.
type InsufficientCashError struct {
	Total    decimal.Decimal
	Tendered decimal.Decimal
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("cash tendered (%s) is less than the total (%s)", e.Tendered.StringFixed(2), e.Total.StringFixed(2))
}

func (e *InsufficientCashError) Unwrap() error { return ErrInsufficientCash }

// InsufficientStockError reports the first line that would oversell.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StatusTransitionError names the refused transition.
type StatusTransitionError struct {
	From, To string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("cannot move a sale from %s to %s", e.From, e.To)
}

func (e *StatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }

// Kind is a short stable name for an engine error, suitable for API payloads.
func Kind(err error) string {
	kinds := []struct {
		err  error
		kind string
	}{
		{ErrEmptyCart, "empty_cart"},
		{ErrInvalidQuantity, "invalid_quantity"},
		{ErrInvalidPaymentMethod, "invalid_payment_method"},
		{ErrProductNotFound, "product_not_found"},
		{ErrCustomerNotFound, "customer_not_found"},
		{ErrSellerNotFound, "seller_not_found"},
		{ErrSellerInactive, "seller_inactive"},
		{ErrInvalidCashAmount, "invalid_cash_amount"},
		{ErrInsufficientCash, "insufficient_cash"},
		{ErrInsufficientStock, "insufficient_stock"},
		{ErrDuplicateInvoiceNumber, "duplicate_invoice_number"},
		{ErrSaleNotFound, "sale_not_found"},
		{ErrLineItemNotFound, "line_item_not_found"},
		{ErrSaleFinalized, "sale_finalized"},
		{ErrInvalidStatusTransition, "invalid_status_transition"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
