package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smart-grocer/models"
	"smart-grocer/utils"
)

const testDefaultMarket = "Mercado Padrão"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

// recordingSaver captures every SaveState call.
type recordingSaver struct {
	calls []models.Record
}

func (r *recordingSaver) SaveState(_ *models.SessionState, changed models.Record) {
	r.calls = append(r.calls, changed)
}

func (r *recordingSaver) last() models.Record {
	if len(r.calls) == 0 {
		return 0
	}
	return r.calls[len(r.calls)-1]
}

// newShoppingSession returns a manager already in the shopping phase with
// deterministic ids ("item-1", "item-2", ...).
func newShoppingSession(t *testing.T, supermarket string, budget string) (*SessionManager, *recordingSaver) {
	t.Helper()
	saver := &recordingSaver{}
	m := NewSessionManager(nil, testDefaultMarket, saver, utils.NewNopLogger())
	seq := 0
	m.newID = func() string {
		seq++
		return fmt.Sprintf("item-%d", seq)
	}
	m.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	if err := m.StartShopping(supermarket, dec(budget)); err != nil {
		t.Fatalf("StartShopping: %v", err)
	}
	return m, saver
}

func mustAdd(t *testing.T, m *SessionManager, name string, qty int, price string) *models.ShoppingItem {
	t.Helper()
	item, err := m.AddToList(name, qty, dec(price), "")
	if err != nil {
		t.Fatalf("AddToList(%q): %v", name, err)
	}
	return item
}
