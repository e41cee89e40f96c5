package sales

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"pos-tienda/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options tune the engine.
type Options struct {
	InvoicePrefix string
	InvoiceDigits int
	// RestockOnCancel returns the stock of a sale when it is cancelled.
	RestockOnCancel bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Engine turns carts into persisted sales. Every mutating operation is one
// database transaction.
type Engine struct {
	db              *gorm.DB
	invoices        InvoiceNumberer
	restockOnCancel bool
	now             func() time.Time
}

// New builds an engine and synchronizes the invoice counter with the sales
// already stored.
func New(ctx context.Context, db *gorm.DB, opts Options) (*Engine, error) {
	if opts.InvoicePrefix == "" {
		opts.InvoicePrefix = "FAC"
	}
	if opts.InvoiceDigits <= 0 {
		opts.InvoiceDigits = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		db:              db,
		invoices:        InvoiceNumberer{Prefix: opts.InvoicePrefix, Digits: opts.InvoiceDigits},
		restockOnCancel: opts.RestockOnCancel,
		now:             opts.Now,
	}
	if err := e.invoices.Sync(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	return e, nil
}

// CartLine is one entry of the caller's cart.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateSaleRequest is everything needed to ring up a sale.
type CreateSaleRequest struct {
	CustomerID    *uint
	SellerID      *uint
	Cart          []CartLine
	PaymentMethod models.PaymentMethod
	CashTendered  string
	// Status defaults to paid; pending keeps the line items editable.
	Status models.SaleStatus
	Notes  string
}

// CreateSale validates the cart, then stamps an invoice number, writes the sale
// and its line items and takes the stock, all in one transaction. Nothing is
// written when it returns an error.
func (e *Engine) CreateSale(ctx context.Context, req CreateSaleRequest) (*models.Sale, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	var sale *models.Sale
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		sale, err = e.createSaleTx(ctx, req)
		if !errors.Is(err, ErrDuplicateInvoiceNumber) || attempt == 2 {
			break
		}
		log.Printf("sales: invoice number collision, resyncing counter and retrying")
		if syncErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.invoices.Sync(tx)
		}); syncErr != nil {
			return nil, syncErr
		}
	}
	if err != nil {
		return nil, err
	}

	log.Printf("sales: %s committed, %d line(s), total %s", sale.InvoiceNumber, len(sale.Items), sale.Total().StringFixed(2))
	return e.GetSale(ctx, sale.ID)
}

func validateRequest(req *CreateSaleRequest) error {
	// 1. Reject empty carts and nonsense quantities
	if len(req.Cart) == 0 {
		return ErrEmptyCart
	}
	for _, line := range req.Cart {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}

	if req.Status == "" {
		req.Status = models.StatusPaid
	}
	if req.Status == models.StatusCancelled || !req.Status.Valid() {
		return &StatusTransitionError{From: "new", To: string(req.Status)}
	}
	return nil
}

func (e *Engine) createSaleTx(ctx context.Context, req CreateSaleRequest) (*models.Sale, error) {
	var sale models.Sale

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Resolve and lock every product in the cart
		products, err := lockProducts(tx, req.Cart)
		if err != nil {
			return err
		}

		// 3. Total from current prices
		total := decimal.Zero
		requested := make(map[uint]int, len(products))
		for _, line := range req.Cart {
			total = total.Add(products[line.ProductID].Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			requested[line.ProductID] += line.Quantity
		}

		// 4. Cash handling
		var tendered decimal.NullDecimal
		if req.PaymentMethod == models.PaymentCash {
			cash, err := ParseCash(req.CashTendered)
			if err != nil {
				return err
			}
			if cash.LessThan(total) {
				return &InsufficientCashError{Total: total, Tendered: cash}
			}
			tendered = decimal.NewNullDecimal(cash)
		}

		// 5. Stock sufficiency for the whole cart before any write
		for _, line := range req.Cart {
			p := products[line.ProductID]
			if want := requested[p.ID]; want > p.Stock {
				return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: want}
			}
		}

		customerID, err := resolveCustomer(tx, req.CustomerID)
		if err != nil {
			return err
		}
		seller, err := resolveSeller(tx, req.SellerID)
		if err != nil {
			return err
		}

		// 6. Writes
		number, err := e.invoices.Next(tx)
		if err != nil {
			return err
		}

		sale = models.Sale{
			InvoiceNumber: number,
			CustomerID:    customerID,
			SaleTime:      e.now(),
			PaymentMethod: req.PaymentMethod,
			CashTendered:  tendered,
			Status:        req.Status,
			Notes:         req.Notes,
		}
		if seller != nil {
			sale.SellerID = &seller.ID
		}
		for _, line := range req.Cart {
			sale.Items = append(sale.Items, models.SaleItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: products[line.ProductID].Price,
			})
		}
		if err := settle(&sale, seller); err != nil {
			return err
		}

		if err := tx.Create(&sale).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, number)
			}
			return fmt.Errorf("create sale: %w", err)
		}

		for _, id := range sortedIDs(requested) {
			if err := takeStock(tx, products[id], requested[id], models.MovementSale, sale.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// lockProducts loads the cart's products FOR UPDATE, in id order so two
// cashiers never lock the same rows in opposite orders.
func lockProducts(tx *gorm.DB, cart []CartLine) (map[uint]*models.Product, error) {
	want := make(map[uint]int, len(cart))
	for _, line := range cart {
		want[line.ProductID] += line.Quantity
	}
	ids := sortedIDs(want)

	var found []models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	products := make(map[uint]*models.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}
	// report the first missing product in cart order
	for _, line := range cart {
		if _, ok := products[line.ProductID]; !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
	}
	return products, nil
}

func resolveCustomer(tx *gorm.DB, id *uint) (*uint, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	var count int64
	if err := tx.Model(&models.Customer{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrCustomerNotFound
	}
	return id, nil
}

func resolveSeller(tx *gorm.DB, id *uint) (*models.Seller, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	var seller models.Seller
	if err := tx.Take(&seller, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	if !seller.Active {
		return nil, ErrSellerInactive
	}
	return &seller, nil
}

// takeStock decrements with a guard on the current value, so even without row
// locks the count can not go below zero.
func takeStock(tx *gorm.DB, p *models.Product, qty int, reason string, saleID uint) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", p.ID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("update stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.Product
		if err := tx.Select("stock").Take(&current, p.ID).Error; err != nil {
			return fmt.Errorf("reload stock: %w", err)
		}
		return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: current.Stock, Requested: qty}
	}

	before := p.Stock
	p.Stock -= qty
	return journal(tx, p.ID, -qty, before, reason, saleID)
}

// returnStock puts quantity back on the shelf.
func returnStock(tx *gorm.DB, productID uint, qty int, reason string, saleID uint) error {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "stock").Take(&p, productID).Error; err != nil {
		return fmt.Errorf("load product %d: %w", productID, err)
	}
	res := tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("restore stock: %w", res.Error)
	}
	return journal(tx, productID, qty, p.Stock, reason, saleID)
}

func journal(tx *gorm.DB, productID uint, delta, before int, reason string, saleID uint) error {
	m := models.StockMovement{
		ProductID:   productID,
		Delta:       delta,
		StockBefore: before,
		StockAfter:  before + delta,
		Reason:      reason,
	}
	if saleID != 0 {
		m.SaleID = &saleID
	}
	if err := tx.Create(&m).Error; err != nil {
		return fmt.Errorf("journal stock movement: %w", err)
	}
	return nil
}

func sortedIDs(m map[uint]int) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
