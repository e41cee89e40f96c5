package sales

import (
	"fmt"
	"strconv"
	"strings"

	"pos-tienda/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceNumberer hands out invoice numbers such as FAC0001 from a dedicated
// counter row. Next must run inside the transaction that inserts the sale: the
// counter update holds the row lock until that transaction ends.
type InvoiceNumberer struct {
	Prefix string
	Digits int
}

// Format renders a sequence value, e.g. 7 -> FAC0007.
func (n InvoiceNumberer) Format(v int64) string {
	return fmt.Sprintf("%s%0*d", n.Prefix, n.Digits, v)
}

// Parse extracts the sequence value from a number with this prefix.
func (n InvoiceNumberer) Parse(number string) (int64, bool) {
	if !strings.HasPrefix(number, n.Prefix) {
		return 0, false
	}
	digits := strings.TrimPrefix(number, n.Prefix)
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (n InvoiceNumberer) sequenceName() string {
	if n.Prefix == "" {
		return "invoice"
	}
	return n.Prefix
}

// Sync creates the counter if needed and raises it to the highest number
// already stamped on a sale, so hand-edited rows are never reissued.
func (n InvoiceNumberer) Sync(tx *gorm.DB) error {
	seq := models.InvoiceSequence{Name: n.sequenceName()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("create invoice sequence: %w", err)
	}

	highest, err := n.highestAssigned(tx)
	if err != nil {
		return err
	}
	err = tx.Model(&models.InvoiceSequence{}).
		Where("name = ? AND last_value < ?", n.sequenceName(), highest).
		UpdateColumn("last_value", highest).Error
	if err != nil {
		return fmt.Errorf("sync invoice sequence: %w", err)
	}
	return nil
}

func (n InvoiceNumberer) highestAssigned(tx *gorm.DB) (int64, error) {
	var numbers []string
	err := tx.Model(&models.Sale{}).
		Where("invoice_number LIKE ?", n.Prefix+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("scan invoice numbers: %w", err)
	}

	var highest int64
	for _, num := range numbers {
		if v, ok := n.Parse(num); ok && v > highest {
			highest = v
		}
	}
	return highest, nil
}

// Next advances the counter and returns the formatted number.
func (n InvoiceNumberer) Next(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		res := tx.Model(&models.InvoiceSequence{}).
			Where("name = ?", n.sequenceName()).
			UpdateColumn("last_value", gorm.Expr("last_value + 1"))
		if res.Error != nil {
			return "", fmt.Errorf("advance invoice sequence: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			var seq models.InvoiceSequence
			if err := tx.Where("name = ?", n.sequenceName()).Take(&seq).Error; err != nil {
				return "", fmt.Errorf("read invoice sequence: %w", err)
			}
			return n.Format(seq.LastValue), nil
		}
		// first sale on a fresh database
		if err := n.Sync(tx); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("invoice sequence %q is missing", n.sequenceName())
}
