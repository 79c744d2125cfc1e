package ledger

// LineItem is a priced order line, input to the total calculator.
type LineItem struct {
	ProductID      uint
	Qty            int
	UnitPriceCents int64
}

// CalculateOrderTotal returns sum(qty × unit price) over all line items.
// Pure and deterministic; an empty list totals zero.
func CalculateOrderTotal(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += int64(it.Qty) * it.UnitPriceCents
	}
	return total
}
