package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"smart-grocer/models"
	"smart-grocer/utils"
)

// ComputeInsights derives the price-history snapshot for itemName as seen from
// currentSupermarket. It never mutates the index.
func ComputeInsights(itemName, currentSupermarket string, idx *PriceIndex) models.Insights {
	var in models.Insights
	if idx == nil {
		return in
	}

	key := NormalizeName(itemName)
	if last, ok := idx.LastPriceAt(key, currentSupermarket); ok {
		in.LastPurchasePrice = &last
	}
	if best, ok := idx.BestPrice(key); ok {
		in.BestOverallPrice = &best
	}
	return in
}

// Trend compares an item's current price with its last purchase price.
type Trend int

const (
	TrendSame Trend = iota
	TrendHigher
	TrendLower
)

// LastComparison is the current price measured against the last purchase here.
type LastComparison struct {
	Trend Trend
	Delta decimal.Decimal // always non-negative
}

// BestVerdict compares an item's current price with the best known price.
type BestVerdict int

const (
	BestIsCurrent BestVerdict = iota // current price equals the best known
	BestNewRecord                    // current price beats the best known
	BestAbove                        // current price is above the best known
)

// BestComparison is the current price measured against the best known price.
type BestComparison struct {
	Verdict BestVerdict
	Delta   decimal.Decimal // how much above the best price, zero otherwise
	Here    bool            // best price was seen at the current supermarket
}

// CompareToLast returns false when the item has no last purchase price.
func CompareToLast(item *models.ShoppingItem) (LastComparison, bool) {
	if item.LastPurchasePrice == nil {
		return LastComparison{}, false
	}
	last := *item.LastPurchasePrice
	switch item.Price.Cmp(last) {
	case 1:
		return LastComparison{Trend: TrendHigher, Delta: item.Price.Sub(last)}, true
	case -1:
		return LastComparison{Trend: TrendLower, Delta: last.Sub(item.Price)}, true
	default:
		return LastComparison{Trend: TrendSame}, true
	}
}

// CompareToBest returns false when the item has no best known price.
func CompareToBest(item *models.ShoppingItem, currentSupermarket string) (BestComparison, bool) {
	if item.BestOverallPrice == nil {
		return BestComparison{}, false
	}
	best := item.BestOverallPrice
	c := BestComparison{Here: best.Supermarket == currentSupermarket}
	switch item.Price.Cmp(best.Price) {
	case 0:
		c.Verdict = BestIsCurrent
	case -1:
		c.Verdict = BestNewRecord
	default:
		c.Verdict = BestAbove
		c.Delta = item.Price.Sub(best.Price)
	}
	return c, true
}

// InsightService turns item insight snapshots into display lines.
type InsightService struct {
	logger   *utils.Logger
	currency string
}

func NewInsightService(logger *utils.Logger, currency string) *InsightService {
	return &InsightService{logger: logger, currency: currency}
}

// Money formats an amount with the configured currency symbol and two decimals.
func (s *InsightService) Money(d decimal.Decimal) string {
	return s.currency + d.StringFixed(2)
}

// Describe returns one line per available insight, or a single
// "no history" line when the item carries none.
func (s *InsightService) Describe(item *models.ShoppingItem, currentSupermarket string) []string {
	var lines []string

	if cmp, ok := CompareToLast(item); ok {
		var suffix string
		switch cmp.Trend {
		case TrendHigher:
			suffix = fmt.Sprintf("now +%s", s.Money(cmp.Delta))
		case TrendLower:
			suffix = fmt.Sprintf("now -%s", s.Money(cmp.Delta))
		default:
			suffix = "same price"
		}
		lines = append(lines, fmt.Sprintf("Last bought here: %s (%s)",
			s.Money(*item.LastPurchasePrice), suffix))
	}

	if cmp, ok := CompareToBest(item, currentSupermarket); ok {
		where := fmt.Sprintf("at %s", item.BestOverallPrice.Supermarket)
		if cmp.Here {
			where = "at this supermarket"
		}
		line := fmt.Sprintf("Best known price: %s (%s)", s.Money(item.BestOverallPrice.Price), where)
		switch cmp.Verdict {
		case BestIsCurrent:
			line += " - current price is the best!"
		case BestNewRecord:
			line += " - new best price!"
		case BestAbove:
			line += fmt.Sprintf(" - now +%s", s.Money(cmp.Delta))
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		lines = append(lines, "No price history for this item.")
	}
	return lines
}
