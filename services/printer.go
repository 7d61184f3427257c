package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smart-grocer/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34d399"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#facc15"))
	dimStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	bestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#38bdf8"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Print writes the full session view: setup, list, cart, totals and the last summary.
func (s *InsightService) Print(w io.Writer, m *SessionManager) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintln(w, titleStyle.Render("🛒 SMART GROCER"))
	fmt.Fprintf(w, "  Supermarket : %s\n", boldStyle.Render(m.Supermarket()))
	fmt.Fprintf(w, "  Phase       : %s\n", m.Phase())
	if b := m.Budget(); b != nil {
		fmt.Fprintf(w, "  Budget      : %s\n", s.Money(*b))
	} else {
		fmt.Fprintf(w, "  Budget      : %s\n", dimStyle.Render("not set"))
	}
	if markets := m.Index().Supermarkets(); len(markets) > 0 {
		fmt.Fprintf(w, "  Prices from : %s\n", strings.Join(markets, ", "))
	}
	fmt.Fprintln(w)

	s.printItems(w, "Shopping list", m.ShoppingList(), m.Supermarket(), thin)
	s.printItems(w, "Cart", m.Cart(), m.Supermarket(), thin)

	totals := m.Totals()
	fmt.Fprintln(w, sectionStyle.Render("  Totals"))
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Planned (list) : %s\n", s.Money(totals.ListTotal))
	fmt.Fprintf(w, "  In cart        : %s\n", s.Money(totals.CartTotal))
	if totals.RemainingBudget != nil {
		remaining := s.Money(*totals.RemainingBudget)
		if totals.OverBudget {
			remaining = upStyle.Render(remaining + "  over budget!")
		} else {
			remaining = downStyle.Render(remaining)
		}
		fmt.Fprintf(w, "  Remaining      : %s\n", remaining)
	}
	fmt.Fprintln(w)

	if summary := m.LastSummary(); summary != nil {
		fmt.Fprintln(w, boxStyle.Render(s.SummaryText(summary)))
		fmt.Fprintln(w)
	}
}

// SummaryText is the confirmation shown after a purchase is finalised.
func (s *InsightService) SummaryText(summary *models.PurchaseSummary) string {
	return fmt.Sprintf("Purchase finalized!\nTotal: %s\nItems: %d",
		s.Money(summary.Total), summary.ItemCount)
}

// PrintPieData writes both chart datasets as text, for when no renderer is available.
func (s *InsightService) PrintPieData(w io.Writer, data models.PieData) {
	if len(data.List) == 0 && len(data.Cart) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  No budget set, nothing to chart"))
		return
	}
	for _, set := range []struct {
		title  string
		slices []models.Slice
	}{
		{"List vs available", data.List},
		{"Cart vs remaining", data.Cart},
	} {
		fmt.Fprintln(w, sectionStyle.Render("  "+set.title))
		for _, sl := range set.slices {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(sl.Color)).Render("■")
			fmt.Fprintf(w, "  %s %-20s %s\n", swatch, sl.Label, s.Money(sl.Value))
		}
	}
}

func (s *InsightService) printItems(w io.Writer, title string, items []*models.ShoppingItem, supermarket, thin string) {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("  %s (%d)", title, len(items))))
	fmt.Fprintf(w, "  %s\n", thin)
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("empty"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  %s  %s x%-3d %s\n",
			shortID(it.ID), padRight(truncate(it.Name, 28), 28), it.Quantity, s.Money(it.Price))
		for _, line := range s.Describe(it, supermarket) {
			fmt.Fprintf(w, "            %s\n", s.styleInsight(it, line))
		}
	}
	fmt.Fprintln(w)
}

func (s *InsightService) styleInsight(item *models.ShoppingItem, line string) string {
	switch {
	case !item.HasInsights():
		return dimStyle.Render(line)
	case strings.HasPrefix(line, "Last bought"):
		if cmp, ok := CompareToLast(item); ok {
			switch cmp.Trend {
			case TrendHigher:
				return upStyle.Render(line)
			case TrendLower:
				return downStyle.Render(line)
			}
		}
	case strings.HasPrefix(line, "Best known"):
		return bestStyle.Render(line)
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// padRight pads s with spaces to the given display width.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
