package models

import "strings"

// Record identifies one independently persisted part of the session.
type Record uint8

const (
	RecordPhase Record = 1 << iota
	RecordSupermarket
	RecordBudget
	RecordShoppingList
	RecordCart
	RecordHistory

	RecordAll = RecordPhase | RecordSupermarket | RecordBudget | RecordShoppingList | RecordCart | RecordHistory
)

// Has reports whether every record in other is set in r.
func (r Record) Has(other Record) bool {
	return r&other == other
}

func (r Record) String() string {
	names := []struct {
		rec  Record
		name string
	}{
		{RecordPhase, "phase"},
		{RecordSupermarket, "supermarket"},
		{RecordBudget, "budget"},
		{RecordShoppingList, "shoppingList"},
		{RecordCart, "cart"},
		{RecordHistory, "priceHistory"},
	}
	var parts []string
	for _, n := range names {
		if r.Has(n.rec) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
