package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smart-grocer/chart"
	"smart-grocer/models"
	"smart-grocer/services"
	"smart-grocer/storage"
	"smart-grocer/utils"
)

type fakeReceipts struct {
	got []*models.PurchaseSummary
	err error
}

func (f *fakeReceipts) WriteReceipt(s *models.PurchaseSummary) error {
	f.got = append(f.got, s)
	return f.err
}

func (f *fakeReceipts) Close() error { return nil }

type fakeRenderer struct {
	paths []string
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, _ string, _ []models.Slice, path string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	return nil
}

type harness struct {
	app      *App
	out      *bytes.Buffer
	store    *storage.MemoryStore
	persist  *storage.Persister
	receipts *fakeReceipts
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := utils.NewNopLogger()
	store := storage.NewMemoryStore()
	persist := storage.NewPersister(store, 64, logger)
	t.Cleanup(persist.Close)

	out := &bytes.Buffer{}
	receipts := &fakeReceipts{}
	app := New(Deps{
		Session:  services.NewSessionManager(nil, "Mercado Padrão", persist, logger),
		Printer:  services.NewInsightService(logger, "R$"),
		Receipts: receipts,
		ChartDir: t.TempDir(),
		Out:      out,
		Logger:   logger,
	})
	return &harness{app: app, out: out, store: store, persist: persist, receipts: receipts}
}

func (h *harness) run(t *testing.T, line string) error {
	t.Helper()
	args, err := SplitArgs(line)
	if err != nil {
		t.Fatalf("SplitArgs(%q): %v", line, err)
	}
	return h.app.Run(context.Background(), args)
}

func (h *harness) mustRun(t *testing.T, line string) {
	t.Helper()
	if err := h.run(t, line); err != nil {
		t.Fatalf("%s: %v", line, err)
	}
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, `setup --supermarket "Market A" --budget "R$ 100,00"`)
	h.mustRun(t, `add "Whole milk" --qty 2 --price 4,50`)
	h.mustRun(t, `add Bread --price 7.99 --barcode 789100`)

	list := h.app.Session.ShoppingList()
	if len(list) != 2 {
		t.Fatalf("list: got %d items, want 2", len(list))
	}
	if list[0].Name != "Whole milk" || list[0].Quantity != 2 || !list[0].Price.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("milk: got %+v", list[0])
	}
	if list[1].Barcode != "789100" {
		t.Errorf("barcode: got %q", list[1].Barcode)
	}

	h.mustRun(t, "to-cart "+list[0].ID[:8])
	if got := len(h.app.Session.Cart()); got != 1 {
		t.Fatalf("cart: got %d items, want 1", got)
	}

	h.out.Reset()
	h.mustRun(t, "show")
	for _, want := range []string{"Market A", "Whole milk", "Bread", "R$9.00"} {
		if !strings.Contains(h.out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, h.out.String())
		}
	}

	h.out.Reset()
	h.mustRun(t, "finalize")
	if !strings.Contains(h.out.String(), "Purchase finalized!") || !strings.Contains(h.out.String(), "Total: R$9.00") {
		t.Errorf("finalize output: %q", h.out.String())
	}
	if len(h.receipts.got) != 1 || h.receipts.got[0].ItemCount != 1 {
		t.Errorf("receipts: got %+v", h.receipts.got)
	}

	h.persist.Flush()
	state := storage.LoadSession(h.store, "Mercado Padrão", utils.NewNopLogger())
	if len(state.Cart) != 0 || len(state.ShoppingList) != 1 {
		t.Errorf("persisted: got %d cart, %d list", len(state.Cart), len(state.ShoppingList))
	}
	if len(state.History.Buckets) != 1 || state.History.Buckets[0].Supermarket != "Market A" {
		t.Errorf("persisted history: got %+v", state.History.Buckets)
	}
}

func TestCommandsRejectedBeforeSetup(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, "add Milk")
	if !services.IsFailedPrecondition(err) {
		t.Fatalf("add before setup: got %v, want FailedPrecondition", err)
	}
	if got := len(h.app.Session.ShoppingList()); got != 0 {
		t.Errorf("list: got %d items, want 0", got)
	}
}

func TestSetupValidation(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing budget", `setup --supermarket X`},
		{"zero budget", `setup --supermarket X --budget 0`},
		{"garbage budget", `setup --supermarket X --budget abc`},
		{"blank supermarket", `setup --supermarket "  " --budget 10`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if err := h.run(t, tc.line); !services.IsInvalidArgument(err) {
				t.Errorf("got %v, want InvalidArgument", err)
			}
			if h.app.Session.Phase() != models.PhaseBudgetSetup {
				t.Errorf("phase: got %v, want BudgetSetup", h.app.Session.Phase())
			}
		})
	}
}

func TestEditSetupKeepsBudgetForResume(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.mustRun(t, "add Rice --price 10")
	h.mustRun(t, "edit-setup --supermarket B")

	if h.app.Session.Phase() != models.PhaseBudgetSetup {
		t.Fatalf("phase: got %v, want BudgetSetup", h.app.Session.Phase())
	}
	if err := h.run(t, "setup --budget 80"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := h.app.Session.Supermarket(); got != "B" {
		t.Errorf("supermarket: got %q, want B", got)
	}
	if b := h.app.Session.Budget(); b == nil || b.String() != "80" {
		t.Errorf("budget: got %v, want 80", b)
	}
	if got := len(h.app.Session.ShoppingList()); got != 1 {
		t.Errorf("list: got %d items, want 1", got)
	}
	if err := h.run(t, "setup --budget 90"); !services.IsFailedPrecondition(err) {
		t.Errorf("setup while shopping: got %v, want FailedPrecondition", err)
	}
}

func TestUpdateOnlyChangesGivenFlags(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.mustRun(t, "add Rice --qty 3 --price 10")
	id := h.app.Session.ShoppingList()[0].ID

	h.mustRun(t, "update-list "+id+" --price 12.5")
	item := h.app.Session.ShoppingList()[0]
	if item.Quantity != 3 || item.Price.String() != "12.5" {
		t.Errorf("after price update: got qty %d price %s", item.Quantity, item.Price)
	}

	h.mustRun(t, "update-list "+id+" --qty 0")
	if got := h.app.Session.ShoppingList()[0].Quantity; got != 1 {
		t.Errorf("clamped qty: got %d, want 1", got)
	}

	if err := h.run(t, "update-cart "+id+" --qty 2"); !services.IsFailedPrecondition(err) {
		t.Errorf("update-cart on list item: got %v, want FailedPrecondition", err)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	for _, line := range []string{"bogus", "rm-list", "to-cart a b", "add --nope"} {
		if err := h.run(t, line); !errors.Is(err, ErrUsage) {
			t.Errorf("%q: got %v, want ErrUsage", line, err)
		}
	}
}

func TestReceiptFailureDoesNotUndoFinalize(t *testing.T) {
	h := newHarness(t)
	h.receipts.err = errors.New("disk full")
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.mustRun(t, "add Rice --price 10")
	h.mustRun(t, "to-cart "+h.app.Session.ShoppingList()[0].ID)

	if err := h.run(t, "finalize"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := len(h.app.Session.Cart()); got != 0 {
		t.Errorf("cart: got %d items, want 0", got)
	}
}

func TestChartFallsBackWithoutRenderer(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.out.Reset()

	h.mustRun(t, "chart")
	if !strings.Contains(h.out.String(), "chart unavailable") {
		t.Errorf("output: %q", h.out.String())
	}
	if !strings.Contains(h.out.String(), "Remaining budget") {
		t.Errorf("fallback table missing:\n%s", h.out.String())
	}
}

func TestChartRendersWhenAvailable(t *testing.T) {
	h := newHarness(t)
	renderer := &fakeRenderer{}
	h.app.Renderer = renderer
	h.app.Probe = chart.NewProbe(chart.CheckerFunc(func(context.Context) error { return nil }),
		time.Millisecond, 3, utils.NewNopLogger())
	h.mustRun(t, "setup --supermarket A --budget 50")

	h.mustRun(t, "chart")
	if len(renderer.paths) != 2 {
		t.Fatalf("rendered: got %v, want 2 charts", renderer.paths)
	}
	if !strings.HasSuffix(renderer.paths[0], "list.png") || !strings.HasSuffix(renderer.paths[1], "cart.png") {
		t.Errorf("paths: got %v", renderer.paths)
	}
}

func TestChartRenderErrorFallsBack(t *testing.T) {
	h := newHarness(t)
	h.app.Renderer = &fakeRenderer{err: errors.New("crashed")}
	h.app.Probe = chart.NewProbe(chart.CheckerFunc(func(context.Context) error { return nil }),
		time.Millisecond, 3, utils.NewNopLogger())
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.out.Reset()

	h.mustRun(t, "chart")
	if !strings.Contains(h.out.String(), "chart unavailable") {
		t.Errorf("output: %q", h.out.String())
	}
}

func TestChartDoesNotWaitPastProbeBudget(t *testing.T) {
	h := newHarness(t)
	h.app.Renderer = &fakeRenderer{}
	block := make(chan struct{})
	defer close(block)
	h.app.Probe = chart.NewProbe(chart.CheckerFunc(func(context.Context) error {
		<-block
		return nil
	}), 5*time.Millisecond, 4, utils.NewNopLogger())
	h.mustRun(t, "setup --supermarket A --budget 50")
	h.out.Reset()

	begin := time.Now()
	h.mustRun(t, "chart")
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("chart blocked for %v", elapsed)
	}
	if !strings.Contains(h.out.String(), "chart unavailable") {
		t.Errorf("output: %q", h.out.String())
	}
}

func TestEditSetupRejectedChangesNothing(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"negative budget", "edit-setup --supermarket MarketB --budget -5"},
		{"garbage budget", "edit-setup --supermarket MarketB --budget abc"},
		{"blank supermarket", `edit-setup --supermarket "  " --budget 80`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.mustRun(t, "setup --supermarket MarketA --budget 100")
			h.persist.Flush()

			if err := h.run(t, tc.line); !services.IsInvalidArgument(err) {
				t.Fatalf("got %v, want InvalidArgument", err)
			}
			if got := h.app.Session.Phase(); got != models.PhaseShopping {
				t.Errorf("phase: got %v, want Shopping", got)
			}
			if got := h.app.Session.Supermarket(); got != "MarketA" {
				t.Errorf("supermarket: got %q, want MarketA", got)
			}
			if b := h.app.Session.Budget(); b == nil || b.String() != "100" {
				t.Errorf("budget: got %v, want 100", b)
			}

			h.persist.Flush()
			stored := storage.LoadSession(h.store, "Mercado Padrão", utils.NewNopLogger())
			if stored.Phase != models.PhaseShopping || stored.Supermarket != "MarketA" {
				t.Errorf("stored: got phase %v supermarket %q", stored.Phase, stored.Supermarket)
			}
		})
	}
}

func TestShell(t *testing.T) {
	h := newHarness(t)
	h.app.In = strings.NewReader(strings.Join([]string{
		`setup --supermarket "Market A" --budget 40`,
		`add "Orange juice" --price 8`,
		`add ""`,
		`shell`,
		`exit`,
		`add ignored`,
	}, "\n"))

	if err := h.app.Run(context.Background(), []string{"shell"}); err != nil {
		t.Fatalf("shell: %v", err)
	}
	list := h.app.Session.ShoppingList()
	if len(list) != 1 || list[0].Name != "Orange juice" {
		t.Errorf("list: got %+v", list)
	}
	if !strings.Contains(h.out.String(), services.ErrMsgNameRequired) {
		t.Errorf("shell output missing validation error:\n%s", h.out.String())
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"show", []string{"show"}, false},
		{`add "Whole milk" --qty 2`, []string{"add", "Whole milk", "--qty", "2"}, false},
		{`add 'Pão francês'   --price 0,50`, []string{"add", "Pão francês", "--price", "0,50"}, false},
		{`add ""`, []string{"add", ""}, false},
		{`add "open`, nil, true},
	}
	for _, tc := range tests {
		got, err := SplitArgs(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("SplitArgs(%q) err: got %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("SplitArgs(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
