package services

import (
	"github.com/shopspring/decimal"

	"smart-grocer/models"
)

// Pie slice labels and colours.
const (
	LabelCartSpent       = "Spent (cart)"
	LabelBudgetRemaining = "Remaining budget"
	LabelListPlanned     = "Planned (list)"
	LabelListAvailable   = "Available for list"

	colorRed   = "#ef4444"
	colorGreen = "#22c55e"
	colorBlue  = "#3b82f6"
	colorGray  = "#6b7280"
)

// SumItems returns the exact sum of quantity * price over items.
func SumItems(items []*models.ShoppingItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ComputeTotals derives list and cart totals and the unclamped remaining budget.
func ComputeTotals(state *models.SessionState) models.Totals {
	t := models.Totals{
		ListTotal: SumItems(state.ShoppingList),
		CartTotal: SumItems(state.Cart),
	}
	if state.Budget != nil {
		remaining := state.Budget.Sub(t.CartTotal)
		t.RemainingBudget = &remaining
		t.OverBudget = remaining.IsNegative()
	}
	return t
}

// CartBreakdownOf splits the budget into cart spend and what is left, or nil without a budget.
func CartBreakdownOf(state *models.SessionState) *models.CartBreakdown {
	if state.Budget == nil {
		return nil
	}
	spent := SumItems(state.Cart)
	return &models.CartBreakdown{
		Spent:     spent,
		Remaining: clampZero(state.Budget.Sub(spent)),
	}
}

// ListBreakdownOf splits the budget into planned list spend and what is left, or nil without a budget.
func ListBreakdownOf(state *models.SessionState) *models.ListBreakdown {
	if state.Budget == nil {
		return nil
	}
	planned := SumItems(state.ShoppingList)
	return &models.ListBreakdown{
		Planned:   planned,
		Available: clampZero(state.Budget.Sub(planned)),
	}
}

// PieDataOf builds the two chart datasets. Both are empty without a budget.
func PieDataOf(state *models.SessionState) models.PieData {
	var data models.PieData
	if lb := ListBreakdownOf(state); lb != nil {
		data.List = []models.Slice{
			{Label: LabelListPlanned, Value: lb.Planned, Color: colorBlue},
			{Label: LabelListAvailable, Value: lb.Available, Color: colorGray},
		}
	}
	if cb := CartBreakdownOf(state); cb != nil {
		data.Cart = []models.Slice{
			{Label: LabelCartSpent, Value: cb.Spent, Color: colorRed},
			{Label: LabelBudgetRemaining, Value: cb.Remaining, Color: colorGreen},
		}
	}
	return data
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
