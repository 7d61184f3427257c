package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Phase is the top-level session mode gating which operations are valid.
type Phase int

const (
	PhaseBudgetSetup Phase = iota
	PhaseShopping
)

func (p Phase) String() string {
	switch p {
	case PhaseBudgetSetup:
		return "BudgetSetup"
	case PhaseShopping:
		return "Shopping"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalJSON stores the phase as its numeric value.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// UnmarshalJSON rejects values outside the known phases.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("phase: %w", err)
	}
	switch Phase(n) {
	case PhaseBudgetSetup, PhaseShopping:
		*p = Phase(n)
		return nil
	default:
		return fmt.Errorf("phase: unknown value %d", n)
	}
}

// SessionState is everything the session manager owns and persists.
type SessionState struct {
	Phase        Phase
	Supermarket  string
	Budget       *decimal.Decimal // nil until setup is complete
	ShoppingList []*ShoppingItem
	Cart         []*ShoppingItem
	History      *PriceHistory
}

// PriceBucket holds the last-paid unit price per normalised item name at one supermarket.
type PriceBucket struct {
	Supermarket string                     `json:"supermarket"`
	Prices      map[string]decimal.Decimal `json:"prices"`
}

// PriceHistory maps supermarket -> normalised name -> last-paid unit price.
// Buckets are kept in the order their supermarket was first recorded.
type PriceHistory struct {
	Buckets []*PriceBucket
}

// NewPriceHistory returns an empty history.
func NewPriceHistory() *PriceHistory {
	return &PriceHistory{}
}

// MarshalJSON writes the buckets as an ordered array.
func (h *PriceHistory) MarshalJSON() ([]byte, error) {
	buckets := h.Buckets
	if buckets == nil {
		buckets = []*PriceBucket{}
	}
	return json.Marshal(buckets)
}

// UnmarshalJSON reads an ordered bucket array. Duplicate supermarkets are merged
// into the first occurrence so first-insertion order is preserved.
func (h *PriceHistory) UnmarshalJSON(data []byte) error {
	var buckets []*PriceBucket
	if err := json.Unmarshal(data, &buckets); err != nil {
		return fmt.Errorf("price history: %w", err)
	}

	merged := make([]*PriceBucket, 0, len(buckets))
	index := make(map[string]*PriceBucket, len(buckets))
	for _, b := range buckets {
		if b == nil {
			continue
		}
		if b.Prices == nil {
			b.Prices = make(map[string]decimal.Decimal)
		}
		if existing, ok := index[b.Supermarket]; ok {
			for name, price := range b.Prices {
				existing.Prices[name] = price
			}
			continue
		}
		index[b.Supermarket] = b
		merged = append(merged, b)
	}
	h.Buckets = merged
	return nil
}
