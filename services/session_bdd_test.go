package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"smart-grocer/models"
	"smart-grocer/utils"
)

type sessionTestContext struct {
	manager *SessionManager
	summary *models.PurchaseSummary
	err     error
}

func (c *sessionTestContext) reset() {
	c.manager = nil
	c.summary = nil
	c.err = nil
}

func (c *sessionTestContext) aShoppingSessionAtWithABudgetOf(supermarket string, budget float64) error {
	c.manager = NewSessionManager(nil, testDefaultMarket, nil, utils.NewNopLogger())
	return c.manager.StartShopping(supermarket, decimal.NewFromFloat(budget))
}

func (c *sessionTestContext) wasPaidAt(name, price, supermarket string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.manager.Index().RecordPrice(name, p, supermarket)
	return nil
}

func (c *sessionTestContext) iAddToTheList(qty int, name, price string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	_, err = c.manager.AddToList(name, qty, p, "")
	return err
}

func (c *sessionTestContext) iTryToAddToTheList(qty int, name, price string) error {
	c.err = c.iAddToTheList(qty, name, price)
	return nil
}

func (c *sessionTestContext) findIn(items []*models.ShoppingItem, name string) (*models.ShoppingItem, error) {
	for _, it := range items {
		if it.Name == name {
			return it, nil
		}
	}
	return nil, fmt.Errorf("no item named %q", name)
}

func (c *sessionTestContext) iMoveToTheCart(name string) error {
	it, err := c.findIn(c.manager.ShoppingList(), name)
	if err != nil {
		return err
	}
	return c.manager.MoveToCart(it.ID)
}

func (c *sessionTestContext) iMoveBackToTheList(name string) error {
	it, err := c.findIn(c.manager.Cart(), name)
	if err != nil {
		return err
	}
	return c.manager.MoveToList(it.ID)
}

func (c *sessionTestContext) iChangeTheListPriceOfTo(name, price string) error {
	it, err := c.findIn(c.manager.ShoppingList(), name)
	if err != nil {
		return err
	}
	p := decimal.RequireFromString(price)
	return c.manager.UpdateListItem(it.ID, nil, &p)
}

func (c *sessionTestContext) iChangeTheCartPriceOfTo(name, price string) error {
	it, err := c.findIn(c.manager.Cart(), name)
	if err != nil {
		return err
	}
	p := decimal.RequireFromString(price)
	return c.manager.UpdateCartItem(it.ID, nil, &p)
}

func (c *sessionTestContext) iFinalizeThePurchase() error {
	summary, err := c.manager.FinalizePurchase()
	c.summary = summary
	return err
}

func (c *sessionTestContext) iStartANewPurchase() error {
	c.manager.StartNewPurchase()
	return nil
}

func (c *sessionTestContext) theListHasItems(n int) error {
	if got := len(c.manager.ShoppingList()); got != n {
		return fmt.Errorf("list has %d items, want %d", got, n)
	}
	return nil
}

func (c *sessionTestContext) theCartIsEmpty() error {
	if got := len(c.manager.Cart()); got != 0 {
		return fmt.Errorf("cart has %d items", got)
	}
	return nil
}

func (c *sessionTestContext) theListItemHasNoPriceInsights(name string) error {
	it, err := c.findIn(c.manager.ShoppingList(), name)
	if err != nil {
		return err
	}
	if it.HasInsights() {
		return fmt.Errorf("%q has insights %+v / %+v", name, it.LastPurchasePrice, it.BestOverallPrice)
	}
	return nil
}

func (c *sessionTestContext) theListItemHasLastPurchasePrice(name, price string) error {
	it, err := c.findIn(c.manager.ShoppingList(), name)
	if err != nil {
		return err
	}
	if it.LastPurchasePrice == nil || !it.LastPurchasePrice.Equal(decimal.RequireFromString(price)) {
		return fmt.Errorf("%q last purchase price is %v, want %s", name, it.LastPurchasePrice, price)
	}
	return nil
}

func (c *sessionTestContext) theListItemHasBestPriceAt(name, price, supermarket string) error {
	it, err := c.findIn(c.manager.ShoppingList(), name)
	if err != nil {
		return err
	}
	best := it.BestOverallPrice
	if best == nil || !best.Price.Equal(decimal.RequireFromString(price)) || best.Supermarket != supermarket {
		return fmt.Errorf("%q best price is %+v, want %s at %s", name, best, price, supermarket)
	}
	return nil
}

func (c *sessionTestContext) thereIsNoRecordedPriceForAt(name, supermarket string) error {
	if p, ok := c.manager.Index().LastPriceAt(name, supermarket); ok {
		return fmt.Errorf("unexpected recorded price %s", p)
	}
	return nil
}

func (c *sessionTestContext) theRecordedPriceForAtIs(name, supermarket, price string) error {
	p, ok := c.manager.Index().LastPriceAt(name, supermarket)
	if !ok || !p.Equal(decimal.RequireFromString(price)) {
		return fmt.Errorf("recorded price is %s (present=%v), want %s", p, ok, price)
	}
	return nil
}

func (c *sessionTestContext) theRemainingBudgetIs(amount string) error {
	rem := c.manager.Totals().RemainingBudget
	if rem == nil || !rem.Equal(decimal.RequireFromString(amount)) {
		return fmt.Errorf("remaining budget is %v, want %s", rem, amount)
	}
	return nil
}

func (c *sessionTestContext) theCartBreakdownShowsSpentAndRemaining(spent, remaining string) error {
	cb := c.manager.CartBreakdown()
	if cb == nil {
		return errors.New("no cart breakdown")
	}
	if !cb.Spent.Equal(decimal.RequireFromString(spent)) || !cb.Remaining.Equal(decimal.RequireFromString(remaining)) {
		return fmt.Errorf("breakdown is spent %s remaining %s", cb.Spent, cb.Remaining)
	}
	return nil
}

func (c *sessionTestContext) thePurchaseSummaryReportsTotalAndItems(total string, count int) error {
	if c.summary == nil {
		return errors.New("no purchase summary")
	}
	if !c.summary.Total.Equal(decimal.RequireFromString(total)) || c.summary.ItemCount != count {
		return fmt.Errorf("summary is %s / %d items", c.summary.Total, c.summary.ItemCount)
	}
	return nil
}

func (c *sessionTestContext) theSessionIsBackInBudgetSetup() error {
	if c.manager.Phase() != models.PhaseBudgetSetup {
		return fmt.Errorf("phase is %s", c.manager.Phase())
	}
	return nil
}

func (c *sessionTestContext) theOperationFailsWithStatus(status string) error {
	var ce *CommandError
	if !errors.As(c.err, &ce) {
		return fmt.Errorf("expected a command error, got %v", c.err)
	}
	if ce.Code.String() != status {
		return fmt.Errorf("status is %s, want %s", ce.Code, status)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &sessionTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a shopping session at "([^"]*)" with a budget of (\d+(?:\.\d+)?)$`, tc.aShoppingSessionAtWithABudgetOf)
	ctx.Step(`^"([^"]*)" was paid (\d+(?:\.\d+)?) at "([^"]*)"$`, tc.wasPaidAt)
	ctx.Step(`^I add (\d+) "([^"]*)" at (\d+(?:\.\d+)?) to the list$`, tc.iAddToTheList)
	ctx.Step(`^I try to add (-?\d+) "([^"]*)" at (-?\d+(?:\.\d+)?) to the list$`, tc.iTryToAddToTheList)
	ctx.Step(`^I move "([^"]*)" to the cart$`, tc.iMoveToTheCart)
	ctx.Step(`^I move "([^"]*)" back to the list$`, tc.iMoveBackToTheList)
	ctx.Step(`^I change the list price of "([^"]*)" to (\d+(?:\.\d+)?)$`, tc.iChangeTheListPriceOfTo)
	ctx.Step(`^I change the cart price of "([^"]*)" to (\d+(?:\.\d+)?)$`, tc.iChangeTheCartPriceOfTo)
	ctx.Step(`^I finalize the purchase$`, tc.iFinalizeThePurchase)
	ctx.Step(`^I start a new purchase$`, tc.iStartANewPurchase)
	ctx.Step(`^the list has (\d+) items?$`, tc.theListHasItems)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the list item "([^"]*)" has no price insights$`, tc.theListItemHasNoPriceInsights)
	ctx.Step(`^the list item "([^"]*)" has last purchase price (\d+(?:\.\d+)?)$`, tc.theListItemHasLastPurchasePrice)
	ctx.Step(`^the list item "([^"]*)" has best price (\d+(?:\.\d+)?) at "([^"]*)"$`, tc.theListItemHasBestPriceAt)
	ctx.Step(`^there is no recorded price for "([^"]*)" at "([^"]*)"$`, tc.thereIsNoRecordedPriceForAt)
	ctx.Step(`^the recorded price for "([^"]*)" at "([^"]*)" is (\d+(?:\.\d+)?)$`, tc.theRecordedPriceForAtIs)
	ctx.Step(`^the remaining budget is (-?\d+(?:\.\d+)?)$`, tc.theRemainingBudgetIs)
	ctx.Step(`^the cart breakdown shows spent (\d+(?:\.\d+)?) and remaining (\d+(?:\.\d+)?)$`, tc.theCartBreakdownShowsSpentAndRemaining)
	ctx.Step(`^the purchase summary reports total (\d+(?:\.\d+)?) and (\d+) items$`, tc.thePurchaseSummaryReportsTotalAndItems)
	ctx.Step(`^the session is back in budget setup$`, tc.theSessionIsBackInBudgetSetup)
	ctx.Step(`^the operation fails with status "([^"]*)"$`, tc.theOperationFailsWithStatus)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features/session.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
