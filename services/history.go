package services

import (
	"github.com/shopspring/decimal"

	"smart-grocer/models"
)

// PriceIndex is the lookup layer over a PriceHistory. It mutates the wrapped
// history in place, so the history value stays the source of truth for persistence.
//
// Supermarkets are scanned in the order they were first recorded; BestPrice
// ties go to the earliest supermarket.
type PriceIndex struct {
	history  *models.PriceHistory
	byMarket map[string]*models.PriceBucket
}

// NewPriceIndex wraps h, creating an empty history when h is nil.
func NewPriceIndex(h *models.PriceHistory) *PriceIndex {
	if h == nil {
		h = models.NewPriceHistory()
	}
	idx := &PriceIndex{
		history:  h,
		byMarket: make(map[string]*models.PriceBucket, len(h.Buckets)),
	}
	for _, b := range h.Buckets {
		if b.Prices == nil {
			b.Prices = make(map[string]decimal.Decimal)
		}
		if _, dup := idx.byMarket[b.Supermarket]; !dup {
			idx.byMarket[b.Supermarket] = b
		}
	}
	return idx
}

// History returns the wrapped history.
func (idx *PriceIndex) History() *models.PriceHistory {
	return idx.history
}

// RecordPrice sets the last-paid price of itemName at supermarket, overwriting
// any earlier value. The supermarket bucket is created on demand.
func (idx *PriceIndex) RecordPrice(itemName string, price decimal.Decimal, supermarket string) {
	bucket, ok := idx.byMarket[supermarket]
	if !ok {
		bucket = &models.PriceBucket{
			Supermarket: supermarket,
			Prices:      make(map[string]decimal.Decimal),
		}
		idx.byMarket[supermarket] = bucket
		idx.history.Buckets = append(idx.history.Buckets, bucket)
	}
	bucket.Prices[NormalizeName(itemName)] = price
}

// LastPriceAt returns the recorded price for normalizedName at supermarket.
func (idx *PriceIndex) LastPriceAt(normalizedName, supermarket string) (decimal.Decimal, bool) {
	bucket, ok := idx.byMarket[supermarket]
	if !ok {
		return decimal.Zero, false
	}
	price, ok := bucket.Prices[normalizedName]
	return price, ok
}

// BestPrice returns the lowest recorded price for normalizedName across all
// supermarkets, or false if it was never recorded.
func (idx *PriceIndex) BestPrice(normalizedName string) (models.BestPrice, bool) {
	var best models.BestPrice
	found := false

	for _, bucket := range idx.history.Buckets {
		price, ok := bucket.Prices[normalizedName]
		if !ok {
			continue
		}
		if !found || price.LessThan(best.Price) {
			best = models.BestPrice{Price: price, Supermarket: bucket.Supermarket}
			found = true
		}
	}
	return best, found
}

// Supermarkets lists every supermarket with recorded prices, in first-recorded order.
func (idx *PriceIndex) Supermarkets() []string {
	names := make([]string, 0, len(idx.history.Buckets))
	for _, b := range idx.history.Buckets {
		names = append(names, b.Supermarket)
	}
	return names
}
