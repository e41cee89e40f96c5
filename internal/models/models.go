package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Seller roles. Admins manage the catalog and see every sale.
const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// Money columns are decimal(10,2) and monthly targets decimal(12,2); these are
// the first values they can not hold.
var (
	MaxAmount = decimal.New(1, 8)
	MaxTarget = decimal.New(1, 10)
)

// FitsAmount reports whether d can be stored in a decimal(10,2) money column.
func FitsAmount(d decimal.Decimal) bool {
	return d.LessThan(MaxAmount)
}

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// SaleStatus is the lifecycle state of a sale. Paid and Cancelled are terminal
// for line items.
type SaleStatus string

const (
	StatusPending   SaleStatus = "pending"
	StatusPaid      SaleStatus = "paid"
	StatusCancelled SaleStatus = "cancelled"
)

func (s SaleStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusCancelled
}

// Terminal reports whether line items are frozen in this status.
func (s SaleStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Seller - a salesperson account, also the login identity
type Seller struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Username       string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash   string          `gorm:"size:255;not null" json:"-"` // Never return this in JSON
	Role           string          `gorm:"size:20;not null;default:'seller'" json:"role"`
	FullName       string          `gorm:"size:100" json:"full_name"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Address        string          `gorm:"size:255" json:"address"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"` // percent, 0-100
	MonthlyTarget  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_target"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Product - The Inventory
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Barcode     *string         `gorm:"uniqueIndex;size:50" json:"barcode"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	ImageURL    string          `gorm:"size:255" json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Customer - optionally looked after by a seller. The seller link is a plain
// reference: removing the seller clears it.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"size:200" json:"address"`
	SellerID  *uint     `gorm:"index" json:"seller_id"`
	Seller    *Seller   `gorm:"constraint:OnDelete:SET NULL" json:"seller,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sale - The Transaction Header. The total is never stored; see Total.
type Sale struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	InvoiceNumber    string              `gorm:"uniqueIndex;size:20;not null" json:"invoice_number"`
	CustomerID       *uint               `gorm:"index" json:"customer_id"`
	Customer         *Customer           `gorm:"constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	SellerID         *uint               `gorm:"index" json:"seller_id"`
	Seller           *Seller             `gorm:"constraint:OnDelete:SET NULL" json:"seller,omitempty"`
	SaleTime         time.Time           `gorm:"index;not null" json:"sale_time"`
	PaymentMethod    PaymentMethod       `gorm:"size:10;not null" json:"payment_method"`
	CashTendered     decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"cash_tendered"`
	ChangeDue        decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"change_due"`
	Status           SaleStatus          `gorm:"size:20;not null;index" json:"status"`
	CommissionAmount decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"commission_amount"`
	Notes            string              `gorm:"type:text" json:"notes"`
	PaymentProof     string              `gorm:"size:255" json:"payment_proof"`
	StockRestored    bool                `gorm:"not null;default:false" json:"stock_restored"`
	Items            []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Total is the sum of the line item subtotals.
func (s Sale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// MarshalJSON adds the computed total to the payload.
func (s Sale) MarshalJSON() ([]byte, error) {
	type sale Sale
	return json.Marshal(struct {
		sale
		Total decimal.Decimal `json:"total"`
	}{sale(s), s.Total()})
}

// SaleItem - one line of a sale. UnitPrice is a snapshot taken when the line
// was created and never follows later catalog price changes.
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"` // Preload product details
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

// Subtotal = quantity x unit price
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InvoiceSequence is the dedicated counter behind invoice numbers.
type InvoiceSequence struct {
	Name      string `gorm:"primaryKey;size:20"`
	LastValue int64  `gorm:"not null;default:0"`
}

// Stock movement reasons.
const (
	MovementSale       = "sale"
	MovementSaleDelete = "sale_delete"
	MovementSaleCancel = "sale_cancel"
	MovementItemAdd    = "item_add"
	MovementItemRemove = "item_remove"
	MovementAdjust     = "adjust"
)

// StockMovement journals every change to a product's stock.
type StockMovement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"index;not null" json:"product_id"`
	Delta       int       `gorm:"not null" json:"delta"` // positive = in, negative = out
	StockBefore int       `gorm:"not null" json:"stock_before"`
	StockAfter  int       `gorm:"not null" json:"stock_after"`
	Reason      string    `gorm:"size:20;not null" json:"reason"`
	Note        string    `gorm:"size:255" json:"note"`
	SaleID      *uint     `gorm:"index" json:"sale_id"`
	CreatedAt   time.Time `json:"created_at"`
}
