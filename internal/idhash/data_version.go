package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"repeat-purchase-lab/internal/domain"
)

// ComputeDataVersion computes a deterministic fingerprint of a transaction set using SHA256.
// Formula: SHA256 over one line per transaction, in input order:
// customer_id|order_id|order_date|quantity|unit_price|discount_rate|is_return|channel|category
// Returns hex-encoded hash (64 characters).
func ComputeDataVersion(txs []domain.Transaction) string {
	h := sha256.New()
	for _, t := range txs {
		fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s|%t|%s|%s\n",
			t.CustomerID,
			t.OrderID,
			t.OrderDate.Format(domain.DateLayout),
			t.Quantity,
			strconv.FormatFloat(t.UnitPrice, 'g', -1, 64),
			strconv.FormatFloat(t.DiscountRate, 'g', -1, 64),
			t.IsReturn,
			t.Channel,
			t.Category,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
