package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smart-grocer/models"
	"smart-grocer/utils"
)

// Record keys. Each record is read and written independently.
const (
	KeyPhase        = "smartGrocer_appPhase"
	KeySupermarket  = "smartGrocer_supermarket"
	KeyBudget       = "smartGrocer_budget"
	KeyShoppingList = "smartGrocer_shoppingList"
	KeyCart         = "smartGrocer_cart"
	KeyHistory      = "smartGrocer_priceHistory"
)

// recordKeys lists the keys in the order the Persister writes them.
var recordKeys = []struct {
	rec models.Record
	key string
}{
	{models.RecordPhase, KeyPhase},
	{models.RecordSupermarket, KeySupermarket},
	{models.RecordBudget, KeyBudget},
	{models.RecordShoppingList, KeyShoppingList},
	{models.RecordCart, KeyCart},
	{models.RecordHistory, KeyHistory},
}

// LoadSession reads the six session records. A record that is missing or
// cannot be parsed falls back to its default without affecting the others.
func LoadSession(store Store, defaultSupermarket string, logger *utils.Logger) *models.SessionState {
	state := &models.SessionState{
		Phase:        models.PhaseBudgetSetup,
		Supermarket:  defaultSupermarket,
		ShoppingList: []*models.ShoppingItem{},
		Cart:         []*models.ShoppingItem{},
		History:      models.NewPriceHistory(),
	}

	load := func(key string, decode func([]byte) error) {
		raw, err := store.Get(key)
		if errors.Is(err, ErrNotFound) {
			return
		}
		if err != nil {
			logger.Warn("[storage] Reading %s failed, using default: %v", key, err)
			return
		}
		if err := decode(raw); err != nil {
			logger.Warn("[storage] Record %s is unreadable, using default: %v", key, err)
		}
	}

	load(KeyPhase, func(raw []byte) error {
		var p models.Phase
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		state.Phase = p
		return nil
	})

	load(KeySupermarket, func(raw []byte) error {
		if name := strings.TrimSpace(string(raw)); name != "" {
			state.Supermarket = name
		}
		return nil
	})

	load(KeyBudget, func(raw []byte) error {
		b, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(string(raw)), `"`))
		if err != nil {
			return err
		}
		if !b.IsPositive() {
			return fmt.Errorf("budget %s is not positive", b)
		}
		state.Budget = &b
		return nil
	})

	load(KeyShoppingList, func(raw []byte) error {
		items, err := decodeItems(raw)
		if err != nil {
			return err
		}
		state.ShoppingList = items
		return nil
	})

	load(KeyCart, func(raw []byte) error {
		items, err := decodeItems(raw)
		if err != nil {
			return err
		}
		state.Cart = items
		return nil
	})

	load(KeyHistory, func(raw []byte) error {
		h, err := decodeHistory(raw)
		if err != nil {
			return err
		}
		state.History = h
		return nil
	})

	if dropped := enforceDisjoint(state); dropped > 0 {
		logger.Warn("[storage] Dropped %d list items that were also in the cart", dropped)
	}
	return state
}

// EncodeRecord serialises one record of state. A nil value with remove=true
// means the record should be deleted (an unset budget).
func EncodeRecord(state *models.SessionState, rec models.Record) (key string, value []byte, remove bool, err error) {
	switch rec {
	case models.RecordPhase:
		value, err = json.Marshal(state.Phase)
		return KeyPhase, value, false, err
	case models.RecordSupermarket:
		return KeySupermarket, []byte(state.Supermarket), false, nil
	case models.RecordBudget:
		if state.Budget == nil {
			return KeyBudget, nil, true, nil
		}
		return KeyBudget, []byte(state.Budget.String()), false, nil
	case models.RecordShoppingList:
		value, err = json.Marshal(nonNil(state.ShoppingList))
		return KeyShoppingList, value, false, err
	case models.RecordCart:
		value, err = json.Marshal(nonNil(state.Cart))
		return KeyCart, value, false, err
	case models.RecordHistory:
		value, err = json.Marshal(state.History)
		return KeyHistory, value, false, err
	default:
		return "", nil, false, fmt.Errorf("encode record: unknown record %s", rec)
	}
}

// decodeItems parses a list or cart record and repairs item-level invariants:
// missing ids get a fresh one, quantity is at least 1, price is never negative,
// nameless items are dropped.
func decodeItems(raw []byte) ([]*models.ShoppingItem, error) {
	var items []*models.ShoppingItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make([]*models.ShoppingItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it == nil || strings.TrimSpace(it.Name) == "" {
			continue
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if it.Price.IsNegative() {
			it.Price = decimal.Zero
		}
		out = append(out, it)
	}
	return out, nil
}

// decodeHistory accepts the ordered bucket array, and also the nested-object
// form {"market": {"item": price}} keeping the object's key order.
func decodeHistory(raw []byte) (*models.PriceHistory, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return decodeNestedHistory(trimmed)
	}
	h := models.NewPriceHistory()
	if err := json.Unmarshal(trimmed, h); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeNestedHistory(raw []byte) (*models.PriceHistory, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, err
	}

	h := models.NewPriceHistory()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		market, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("price history: unexpected key %v", tok)
		}
		var prices map[string]decimal.Decimal
		if err := dec.Decode(&prices); err != nil {
			return nil, fmt.Errorf("price history %q: %w", market, err)
		}
		if prices == nil {
			prices = make(map[string]decimal.Decimal)
		}
		h.Buckets = append(h.Buckets, &models.PriceBucket{Supermarket: market, Prices: prices})
	}
	return h, nil
}

// enforceDisjoint removes list items whose id is also in the cart.
func enforceDisjoint(state *models.SessionState) int {
	inCart := make(map[string]struct{}, len(state.Cart))
	for _, it := range state.Cart {
		inCart[it.ID] = struct{}{}
	}
	kept := state.ShoppingList[:0]
	dropped := 0
	for _, it := range state.ShoppingList {
		if _, dup := inCart[it.ID]; dup {
			dropped++
			continue
		}
		kept = append(kept, it)
	}
	state.ShoppingList = kept
	return dropped
}

func nonNil(items []*models.ShoppingItem) []*models.ShoppingItem {
	if items == nil {
		return []*models.ShoppingItem{}
	}
	return items
}
