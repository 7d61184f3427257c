package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smart-grocer/models"
	"smart-grocer/utils"
)

// Saver receives the session state after every successful mutation together
// with the records that changed. Implementations must not block.
type Saver interface {
	SaveState(state *models.SessionState, changed models.Record)
}

// SessionManager owns the shopping list, the cart and the price history and
// applies every user operation to them. It is not safe for concurrent use.
type SessionManager struct {
	state              *models.SessionState
	index              *PriceIndex
	saver              Saver
	logger             *utils.Logger
	defaultSupermarket string

	lastSummary *models.PurchaseSummary

	newID func() string
	now   func() time.Time
}

// NewSessionManager takes ownership of state. A nil state starts a fresh
// session; a nil saver disables persistence.
func NewSessionManager(state *models.SessionState, defaultSupermarket string, saver Saver, logger *utils.Logger) *SessionManager {
	if state == nil {
		state = DefaultState(defaultSupermarket)
	}
	if state.History == nil {
		state.History = models.NewPriceHistory()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SessionManager{
		state:              state,
		index:              NewPriceIndex(state.History),
		saver:              saver,
		logger:             logger,
		defaultSupermarket: defaultSupermarket,
		newID:              func() string { return uuid.NewString() },
		now:                time.Now,
	}
}

// DefaultState is the state of a session that was never set up.
func DefaultState(defaultSupermarket string) *models.SessionState {
	return &models.SessionState{
		Phase:        models.PhaseBudgetSetup,
		Supermarket:  defaultSupermarket,
		ShoppingList: []*models.ShoppingItem{},
		Cart:         []*models.ShoppingItem{},
		History:      models.NewPriceHistory(),
	}
}

// ── reads ────────────────────────────────────────────────────────────────

func (m *SessionManager) Phase() models.Phase { return m.state.Phase }

func (m *SessionManager) Supermarket() string { return m.state.Supermarket }

// Budget returns a copy of the budget, or nil when unset.
func (m *SessionManager) Budget() *decimal.Decimal {
	if m.state.Budget == nil {
		return nil
	}
	b := *m.state.Budget
	return &b
}

// ShoppingList returns copies of the list items in display order.
func (m *SessionManager) ShoppingList() []*models.ShoppingItem { return cloneItems(m.state.ShoppingList) }

// Cart returns copies of the cart items in display order.
func (m *SessionManager) Cart() []*models.ShoppingItem { return cloneItems(m.state.Cart) }

// Index exposes the price history for read-only lookups.
func (m *SessionManager) Index() *PriceIndex { return m.index }

// State returns the live state. Callers must treat it as read-only.
func (m *SessionManager) State() *models.SessionState { return m.state }

func (m *SessionManager) Totals() models.Totals { return ComputeTotals(m.state) }

func (m *SessionManager) CartBreakdown() *models.CartBreakdown { return CartBreakdownOf(m.state) }

func (m *SessionManager) ListBreakdown() *models.ListBreakdown { return ListBreakdownOf(m.state) }

func (m *SessionManager) PieData() models.PieData { return PieDataOf(m.state) }

// LastSummary is the confirmation of the most recent finalised purchase, if any.
func (m *SessionManager) LastSummary() *models.PurchaseSummary { return m.lastSummary }

// ResolveListID expands an id prefix to the id of a shopping list item.
// An exact match always wins. A prefix matching nothing is returned unchanged.
func (m *SessionManager) ResolveListID(prefix string) (string, error) {
	return resolveID(m.state.ShoppingList, prefix)
}

// ResolveCartID is ResolveListID for the cart.
func (m *SessionManager) ResolveCartID(prefix string) (string, error) {
	return resolveID(m.state.Cart, prefix)
}

func resolveID(items []*models.ShoppingItem, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	var matches []string
	for _, it := range items {
		if it.ID == prefix {
			return it.ID, nil
		}
		if prefix != "" && strings.HasPrefix(it.ID, prefix) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return prefix, nil
	case 1:
		return matches[0], nil
	default:
		return "", NewInvalidArgument(ErrMsgAmbiguousID)
	}
}

// ── setup ────────────────────────────────────────────────────────────────

// SetSupermarket edits the supermarket name while in budget setup.
func (m *SessionManager) SetSupermarket(name string) error {
	if m.state.Phase != models.PhaseBudgetSetup {
		return NewFailedPrecondition(ErrMsgNotInSetup)
	}
	m.state.Supermarket = name
	m.save(models.RecordSupermarket)
	return nil
}

// SetBudget edits the budget while in budget setup. nil clears it.
func (m *SessionManager) SetBudget(budget *decimal.Decimal) error {
	if m.state.Phase != models.PhaseBudgetSetup {
		return NewFailedPrecondition(ErrMsgNotInSetup)
	}
	if budget == nil {
		m.state.Budget = nil
	} else {
		b := *budget
		m.state.Budget = &b
	}
	m.save(models.RecordBudget)
	return nil
}

// StartShopping completes the setup and enters the shopping phase.
func (m *SessionManager) StartShopping(supermarket string, budget decimal.Decimal) error {
	supermarket = strings.TrimSpace(supermarket)
	if supermarket == "" {
		return NewInvalidArgument(ErrMsgSupermarketRequired)
	}
	if !budget.IsPositive() {
		return NewInvalidArgument(ErrMsgBudgetPositive)
	}

	m.state.Supermarket = supermarket
	m.state.Budget = &budget
	m.state.Phase = models.PhaseShopping
	m.lastSummary = nil

	m.logger.Info("[session] Shopping at %s with budget %s", supermarket, budget.StringFixed(2))
	m.save(models.RecordPhase | models.RecordSupermarket | models.RecordBudget)
	return nil
}

// EditSetup returns to budget setup keeping the list, the cart and the budget.
func (m *SessionManager) EditSetup() {
	m.state.Phase = models.PhaseBudgetSetup
	m.save(models.RecordPhase)
}

// ── list and cart ────────────────────────────────────────────────────────

// AddToList creates an item with fresh insights and appends it to the list.
func (m *SessionManager) AddToList(name string, quantity int, price decimal.Decimal, barcode string) (*models.ShoppingItem, error) {
	if err := m.requireShopping(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidArgument(ErrMsgNameRequired)
	}
	if quantity < 1 {
		return nil, NewInvalidArgument(ErrMsgQuantityPositive)
	}
	if price.IsNegative() {
		return nil, NewInvalidArgument(ErrMsgPriceNegative)
	}

	item := &models.ShoppingItem{
		ID:       m.newID(),
		Name:     name,
		Quantity: quantity,
		Price:    price,
		Barcode:  strings.TrimSpace(barcode),
	}
	item.ApplyInsights(ComputeInsights(item.Name, m.state.Supermarket, m.index))
	m.state.ShoppingList = append(m.state.ShoppingList, item)

	m.logger.Debug("[session] Added %q x%d to list", item.Name, item.Quantity)
	m.save(models.RecordShoppingList)
	return cloneItem(item), nil
}

// RemoveFromList drops the item with id from the list. Unknown ids are ignored.
func (m *SessionManager) RemoveFromList(id string) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	var removed bool
	m.state.ShoppingList, _, removed = removeByID(m.state.ShoppingList, id)
	if removed {
		m.save(models.RecordShoppingList)
	}
	return nil
}

// RemoveFromCart drops the item with id from the cart. Unknown ids are ignored.
func (m *SessionManager) RemoveFromCart(id string) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	var removed bool
	m.state.Cart, _, removed = removeByID(m.state.Cart, id)
	if removed {
		m.save(models.RecordCart)
	}
	return nil
}

// UpdateListItem changes quantity and/or price of a list item. Values are
// clamped to quantity >= 1 and price >= 0. A new price refreshes the item's
// insights but is not recorded to history.
func (m *SessionManager) UpdateListItem(id string, quantity *int, price *decimal.Decimal) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	item := findByID(m.state.ShoppingList, id)
	if item == nil {
		return NewFailedPrecondition(ErrMsgItemNotInList)
	}

	applyUpdate(item, quantity, price)
	if price != nil {
		item.ApplyInsights(ComputeInsights(item.Name, m.state.Supermarket, m.index))
	}
	m.save(models.RecordShoppingList)
	return nil
}

// UpdateCartItem changes quantity and/or price of a cart item with the same
// clamping as UpdateListItem. A new price is recorded to history for the
// current supermarket.
func (m *SessionManager) UpdateCartItem(id string, quantity *int, price *decimal.Decimal) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	item := findByID(m.state.Cart, id)
	if item == nil {
		return NewFailedPrecondition(ErrMsgItemNotInCart)
	}

	applyUpdate(item, quantity, price)
	changed := models.RecordCart
	if price != nil {
		m.index.RecordPrice(item.Name, item.Price, m.state.Supermarket)
		changed |= models.RecordHistory
	}
	m.save(changed)
	return nil
}

// MoveToCart moves a list item, unchanged, to the end of the cart and records
// its price to history for the current supermarket.
func (m *SessionManager) MoveToCart(id string) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	var item *models.ShoppingItem
	var ok bool
	m.state.ShoppingList, item, ok = removeByID(m.state.ShoppingList, id)
	if !ok {
		return NewFailedPrecondition(ErrMsgItemNotInList)
	}

	m.state.Cart = append(m.state.Cart, item)
	m.index.RecordPrice(item.Name, item.Price, m.state.Supermarket)

	m.logger.Debug("[session] Moved %q to cart at %s", item.Name, item.Price.StringFixed(2))
	m.save(models.RecordShoppingList | models.RecordCart | models.RecordHistory)
	return nil
}

// MoveToList moves a cart item back to the end of the list with refreshed insights.
func (m *SessionManager) MoveToList(id string) error {
	if err := m.requireShopping(); err != nil {
		return err
	}
	var item *models.ShoppingItem
	var ok bool
	m.state.Cart, item, ok = removeByID(m.state.Cart, id)
	if !ok {
		return NewFailedPrecondition(ErrMsgItemNotInCart)
	}

	item.ApplyInsights(ComputeInsights(item.Name, m.state.Supermarket, m.index))
	m.state.ShoppingList = append(m.state.ShoppingList, item)

	m.save(models.RecordShoppingList | models.RecordCart)
	return nil
}

// FinalizePurchase closes the current cart and returns its summary.
// The list is left untouched.
func (m *SessionManager) FinalizePurchase() (*models.PurchaseSummary, error) {
	if err := m.requireShopping(); err != nil {
		return nil, err
	}
	if len(m.state.Cart) == 0 {
		return nil, NewFailedPrecondition(ErrMsgCartEmpty)
	}

	summary := &models.PurchaseSummary{
		Total:       SumItems(m.state.Cart),
		ItemCount:   len(m.state.Cart),
		Supermarket: m.state.Supermarket,
		Items:       m.state.Cart,
		FinalizedAt: m.now(),
	}
	m.state.Cart = []*models.ShoppingItem{}
	m.lastSummary = summary

	m.logger.Info("[session] Purchase finalized at %s: %d items, total %s",
		summary.Supermarket, summary.ItemCount, summary.Total.StringFixed(2))
	m.save(models.RecordCart)
	return summary, nil
}

// StartNewPurchase resets list, cart, budget, supermarket and phase. Price
// history is kept.
func (m *SessionManager) StartNewPurchase() {
	m.state.ShoppingList = []*models.ShoppingItem{}
	m.state.Cart = []*models.ShoppingItem{}
	m.state.Budget = nil
	m.state.Supermarket = m.defaultSupermarket
	m.state.Phase = models.PhaseBudgetSetup
	m.lastSummary = nil

	m.logger.Info("[session] New purchase started")
	m.save(models.RecordAll &^ models.RecordHistory)
}

// ── helpers ──────────────────────────────────────────────────────────────

func (m *SessionManager) requireShopping() error {
	if m.state.Phase != models.PhaseShopping {
		return NewFailedPrecondition(ErrMsgNotShopping)
	}
	return nil
}

func (m *SessionManager) save(changed models.Record) {
	if m.saver == nil {
		return
	}
	m.saver.SaveState(m.state, changed)
}

func applyUpdate(item *models.ShoppingItem, quantity *int, price *decimal.Decimal) {
	if quantity != nil {
		item.Quantity = max(1, *quantity)
	}
	if price != nil {
		p := *price
		if p.IsNegative() {
			p = decimal.Zero
		}
		item.Price = p
	}
}

func findByID(items []*models.ShoppingItem, id string) *models.ShoppingItem {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// removeByID returns a new slice without the item, the removed item, and whether it was found.
func removeByID(items []*models.ShoppingItem, id string) ([]*models.ShoppingItem, *models.ShoppingItem, bool) {
	for i, it := range items {
		if it.ID == id {
			out := make([]*models.ShoppingItem, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out, it, true
		}
	}
	return items, nil, false
}

func cloneItem(it *models.ShoppingItem) *models.ShoppingItem {
	c := *it
	if it.LastPurchasePrice != nil {
		p := *it.LastPurchasePrice
		c.LastPurchasePrice = &p
	}
	if it.BestOverallPrice != nil {
		b := *it.BestOverallPrice
		c.BestOverallPrice = &b
	}
	return &c
}

func cloneItems(items []*models.ShoppingItem) []*models.ShoppingItem {
	out := make([]*models.ShoppingItem, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}
