package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals holds the derived sums over the current collections.
type Totals struct {
	ListTotal       decimal.Decimal
	CartTotal       decimal.Decimal
	RemainingBudget *decimal.Decimal // budget - cart total, unclamped; nil if no budget
	OverBudget      bool
}

// CartBreakdown splits the budget into what the cart already spends and what is left.
type CartBreakdown struct {
	Spent     decimal.Decimal
	Remaining decimal.Decimal // clamped at zero
}

// ListBreakdown splits the budget into what the list plans to spend and what is left.
type ListBreakdown struct {
	Planned   decimal.Decimal
	Available decimal.Decimal // clamped at zero
}

// Slice is one labelled value of a pie-style dataset handed to a chart renderer.
type Slice struct {
	Label string
	Value decimal.Decimal
	Color string
}

// PieData holds both chart datasets. Both are empty when no budget is set.
type PieData struct {
	List []Slice
	Cart []Slice
}

// PurchaseSummary is the confirmation emitted when a purchase is finalised.
type PurchaseSummary struct {
	Total       decimal.Decimal
	ItemCount   int
	Supermarket string
	Items       []*ShoppingItem
	FinalizedAt time.Time
}
