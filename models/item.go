package models

import "github.com/shopspring/decimal"

// ShoppingItem is a line entry in either the shopping list or the cart.
// Name is kept verbatim for display; history lookups use its normalised form.
type ShoppingItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // unit price for this trip
	Barcode  string          `json:"barcode,omitempty"`

	// Insight snapshot taken when the item was created or last re-priced.
	LastPurchasePrice *decimal.Decimal `json:"lastPurchasePrice,omitempty"`
	BestOverallPrice  *BestPrice       `json:"bestOverallPrice,omitempty"`
}

// BestPrice is the cheapest known unit price for a product and where it was seen.
type BestPrice struct {
	Price       decimal.Decimal `json:"price"`
	Supermarket string          `json:"supermarket"`
}

// Insights is the result of the insight calculator. A nil field means no data.
type Insights struct {
	LastPurchasePrice *decimal.Decimal
	BestOverallPrice  *BestPrice
}

// LineTotal returns quantity * unit price.
func (i *ShoppingItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ApplyInsights overwrites both insight fields with a fresh snapshot.
func (i *ShoppingItem) ApplyInsights(in Insights) {
	i.LastPurchasePrice = in.LastPurchasePrice
	i.BestOverallPrice = in.BestOverallPrice
}

// HasInsights reports whether any price history was attached to the item.
func (i *ShoppingItem) HasInsights() bool {
	return i.LastPurchasePrice != nil || i.BestOverallPrice != nil
}
