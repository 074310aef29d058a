package ingestion

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/tabular"
)

// Transaction CSV column names.
const (
	ColCustomerID = "customer_id"
	ColOrderID    = "order_id"
	ColOrderDate  = "order_date"
	ColQuantity   = "qty"
	ColPrice      = "price"
	ColDiscount   = "discount"
	ColIsReturn   = "is_return"
	ColChannel    = "channel"
	ColCategory   = "category"
)

// RequiredColumns lists the columns every transaction CSV must carry.
var RequiredColumns = []string{
	ColCustomerID, ColOrderID, ColOrderDate, ColQuantity, ColPrice,
	ColDiscount, ColIsReturn, ColChannel, ColCategory,
}

// Load reads and validates the transaction log at path.
// Missing file: *domain.MissingArtifactError. Missing columns: *domain.SchemaError.
// Unparseable or out-of-range cells: *domain.DataTypeError. No partial result is returned on error.
func Load(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingArtifactError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("open transactions: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a transaction table from r.
func Parse(r io.Reader) ([]domain.Transaction, error) {
	tr, err := tabular.NewReader("transactions", r, RequiredColumns)
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	for {
		if err := tr.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		t, err := parseTransaction(tr)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func parseTransaction(tr *tabular.Reader) (domain.Transaction, error) {
	var t domain.Transaction
	var err error

	if t.CustomerID, err = tr.Required(ColCustomerID); err != nil {
		return t, err
	}
	if t.OrderID, err = tr.Required(ColOrderID); err != nil {
		return t, err
	}
	if t.OrderDate, err = tr.Date(ColOrderDate); err != nil {
		return t, err
	}
	if t.Quantity, err = tr.Int(ColQuantity); err != nil {
		return t, err
	}
	if t.Quantity <= 0 {
		return t, tr.Invalid(ColQuantity, "quantity must be positive")
	}
	if t.UnitPrice, err = tr.Float(ColPrice); err != nil {
		return t, err
	}
	if t.UnitPrice < 0 {
		return t, tr.Invalid(ColPrice, "price must be non-negative")
	}
	if t.DiscountRate, err = tr.Float(ColDiscount); err != nil {
		return t, err
	}
	if t.DiscountRate < 0 || t.DiscountRate > 1 {
		return t, tr.Invalid(ColDiscount, "discount must be in [0, 1]")
	}
	if t.IsReturn, err = tr.Bool(ColIsReturn); err != nil {
		return t, err
	}
	if t.Channel, err = tr.Required(ColChannel); err != nil {
		return t, err
	}
	if t.Category, err = tr.Required(ColCategory); err != nil {
		return t, err
	}

	return t, nil
}
