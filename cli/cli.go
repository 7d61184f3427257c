package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"smart-grocer/chart"
	"smart-grocer/models"
	"smart-grocer/services"
	"smart-grocer/storage"
	"smart-grocer/utils"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true)
	hintStyle = lipgloss.NewStyle().Faint(true)
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

// Renderer draws one pie chart to a file.
type Renderer interface {
	Render(ctx context.Context, title string, slices []models.Slice, path string) error
}

// Deps are the collaborators a command needs. Receipts, Probe and Renderer
// are optional.
type Deps struct {
	Session  *services.SessionManager
	Printer  *services.InsightService
	Receipts storage.ReceiptWriter
	Probe    *chart.Probe
	Renderer Renderer
	ChartDir string
	In       io.Reader
	Out      io.Writer
	Logger   *utils.Logger
}

// App dispatches command lines to the session manager.
type App struct {
	Deps
	commands map[string]command
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

func New(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	a := &App{Deps: deps}
	a.commands = map[string]command{
		"setup":       {"setup [--supermarket NAME] [--budget AMOUNT]", a.setup},
		"edit-setup":  {"edit-setup [--supermarket NAME] [--budget AMOUNT]", a.editSetup},
		"add":         {"add NAME [--qty N] [--price P] [--barcode CODE]", a.add},
		"rm-list":     {"rm-list ID", a.removeFromList},
		"rm-cart":     {"rm-cart ID", a.removeFromCart},
		"update-list": {"update-list ID [--qty N] [--price P]", a.updateList},
		"update-cart": {"update-cart ID [--qty N] [--price P]", a.updateCart},
		"to-cart":     {"to-cart ID", a.toCart},
		"to-list":     {"to-list ID", a.toList},
		"finalize":    {"finalize", a.finalize},
		"new":         {"new", a.newPurchase},
		"show":        {"show", a.show},
		"chart":       {"chart", a.chart},
		"help":        {"help", a.help},
	}
	return a
}

// Run executes one command. No arguments shows the session.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.show(ctx, nil)
	}
	name, rest := args[0], args[1:]
	if name == "shell" {
		return a.Shell(ctx)
	}
	cmd, ok := a.commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q, try help", ErrUsage, name)
	}
	return cmd.run(ctx, rest)
}

// Report writes err the way the user should see it.
func (a *App) Report(err error) {
	fmt.Fprintln(a.Out, errStyle.Render("✗ "+err.Error()))

	var ce *services.CommandError
	if !errors.As(err, &ce) && !errors.Is(err, ErrUsage) {
		a.Logger.Error("[cli] %v", err)
	}
}

func (a *App) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *App) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

// resolver expands an id prefix within one collection.
type resolver func(prefix string) (string, error)

// singleID parses a command taking exactly one item id and resolves prefixes.
func (a *App) singleID(name string, args []string, resolve resolver) (string, error) {
	fs := a.flagSet(name)
	if err := a.parse(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s", ErrUsage, a.commands[name].usage)
	}
	return resolve(fs.Arg(0))
}

func (a *App) done(format string, args ...interface{}) {
	fmt.Fprintln(a.Out, okStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// ── setup ────────────────────────────────────────────────────────────────

func (a *App) setup(_ context.Context, args []string) error {
	fs := a.flagSet("setup")
	supermarket := fs.String("supermarket", a.Session.Supermarket(), "supermarket name")
	budget := fs.String("budget", "", "shopping budget")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if a.Session.Phase() != models.PhaseBudgetSetup {
		return services.NewFailedPrecondition(services.ErrMsgNotInSetup)
	}

	amount, err := a.budgetArg(fs.Changed("budget"), *budget)
	if err != nil {
		return err
	}
	if err := a.Session.StartShopping(*supermarket, amount); err != nil {
		return err
	}
	a.done("Shopping at %s with a budget of %s", a.Session.Supermarket(), a.Printer.Money(amount))
	return nil
}

// budgetArg returns the parsed --budget value, or the stored budget when the
// flag was not given.
func (a *App) budgetArg(given bool, raw string) (decimal.Decimal, error) {
	if !given {
		if b := a.Session.Budget(); b != nil {
			return *b, nil
		}
		return decimal.Zero, services.NewInvalidArgument(services.ErrMsgBudgetPositive)
	}
	amount, err := services.ParsePrice(raw)
	if err != nil {
		return decimal.Zero, services.NewInvalidArgument(services.ErrMsgBudgetPositive)
	}
	return amount, nil
}

func (a *App) editSetup(_ context.Context, args []string) error {
	fs := a.flagSet("edit-setup")
	supermarket := fs.String("supermarket", "", "new supermarket name")
	budget := fs.String("budget", "", "new budget")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	// Flags are validated before any mutation.
	name := strings.TrimSpace(*supermarket)
	if fs.Changed("supermarket") && name == "" {
		return services.NewInvalidArgument(services.ErrMsgSupermarketRequired)
	}
	var amount decimal.Decimal
	if fs.Changed("budget") {
		var err error
		amount, err = services.ParsePrice(*budget)
		if err != nil || !amount.IsPositive() {
			return services.NewInvalidArgument(services.ErrMsgBudgetPositive)
		}
	}

	a.Session.EditSetup()
	if fs.Changed("supermarket") {
		if err := a.Session.SetSupermarket(name); err != nil {
			return err
		}
	}
	if fs.Changed("budget") {
		if err := a.Session.SetBudget(&amount); err != nil {
			return err
		}
	}
	a.done("Back to budget setup, run setup to continue shopping")
	return nil
}

// ── list and cart ────────────────────────────────────────────────────────

func (a *App) add(_ context.Context, args []string) error {
	fs := a.flagSet("add")
	qty := fs.String("qty", "1", "quantity")
	price := fs.String("price", "0", "unit price")
	barcode := fs.String("barcode", "", "optional barcode")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	quantity, err := services.ParseQuantity(*qty)
	if err != nil {
		return services.NewInvalidArgument(services.ErrMsgQuantityPositive)
	}
	amount, err := services.ParsePrice(*price)
	if err != nil {
		return services.NewInvalidArgument(services.ErrMsgPriceNegative)
	}

	item, err := a.Session.AddToList(strings.Join(fs.Args(), " "), quantity, amount, *barcode)
	if err != nil {
		return err
	}
	a.done("Added %s x%d (%s)", item.Name, item.Quantity, item.ID)
	for _, line := range a.Printer.Describe(item, a.Session.Supermarket()) {
		fmt.Fprintln(a.Out, hintStyle.Render("  "+line))
	}
	return nil
}

func (a *App) removeFromList(_ context.Context, args []string) error {
	id, err := a.singleID("rm-list", args, a.Session.ResolveListID)
	if err != nil {
		return err
	}
	if err := a.Session.RemoveFromList(id); err != nil {
		return err
	}
	a.done("Removed %s from the list", id)
	return nil
}

func (a *App) removeFromCart(_ context.Context, args []string) error {
	id, err := a.singleID("rm-cart", args, a.Session.ResolveCartID)
	if err != nil {
		return err
	}
	if err := a.Session.RemoveFromCart(id); err != nil {
		return err
	}
	a.done("Removed %s from the cart", id)
	return nil
}

// updateArgs parses "ID [--qty N] [--price P]". Absent flags stay nil.
func (a *App) updateArgs(name string, args []string, resolve resolver) (string, *int, *decimal.Decimal, error) {
	fs := a.flagSet(name)
	qty := fs.String("qty", "", "new quantity")
	price := fs.String("price", "", "new unit price")
	if err := a.parse(fs, args); err != nil {
		return "", nil, nil, err
	}
	if fs.NArg() != 1 {
		return "", nil, nil, fmt.Errorf("%w: %s", ErrUsage, a.commands[name].usage)
	}
	id, err := resolve(fs.Arg(0))
	if err != nil {
		return "", nil, nil, err
	}

	var quantity *int
	if fs.Changed("qty") {
		n, err := services.ParseQuantity(*qty)
		if err != nil {
			return "", nil, nil, services.NewInvalidArgument(services.ErrMsgQuantityPositive)
		}
		quantity = &n
	}
	var amount *decimal.Decimal
	if fs.Changed("price") {
		p, err := services.ParsePrice(*price)
		if err != nil {
			return "", nil, nil, services.NewInvalidArgument(services.ErrMsgPriceNegative)
		}
		amount = &p
	}
	return id, quantity, amount, nil
}

func (a *App) updateList(_ context.Context, args []string) error {
	id, qty, price, err := a.updateArgs("update-list", args, a.Session.ResolveListID)
	if err != nil {
		return err
	}
	if err := a.Session.UpdateListItem(id, qty, price); err != nil {
		return err
	}
	a.done("Updated %s", id)
	return nil
}

func (a *App) updateCart(_ context.Context, args []string) error {
	id, qty, price, err := a.updateArgs("update-cart", args, a.Session.ResolveCartID)
	if err != nil {
		return err
	}
	if err := a.Session.UpdateCartItem(id, qty, price); err != nil {
		return err
	}
	a.done("Updated %s", id)
	return nil
}

func (a *App) toCart(_ context.Context, args []string) error {
	id, err := a.singleID("to-cart", args, a.Session.ResolveListID)
	if err != nil {
		return err
	}
	if err := a.Session.MoveToCart(id); err != nil {
		return err
	}
	a.done("Moved %s to the cart", id)
	return nil
}

func (a *App) toList(_ context.Context, args []string) error {
	id, err := a.singleID("to-list", args, a.Session.ResolveCartID)
	if err != nil {
		return err
	}
	if err := a.Session.MoveToList(id); err != nil {
		return err
	}
	a.done("Moved %s back to the list", id)
	return nil
}

// ── purchase ─────────────────────────────────────────────────────────────

func (a *App) finalize(_ context.Context, _ []string) error {
	summary, err := a.Session.FinalizePurchase()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, a.Printer.SummaryText(summary))

	if a.Receipts != nil {
		if err := a.Receipts.WriteReceipt(summary); err != nil {
			a.Logger.Warn("[cli] Receipt not saved: %v", err)
		}
	}
	return nil
}

func (a *App) newPurchase(_ context.Context, _ []string) error {
	a.Session.StartNewPurchase()
	a.done("New purchase started, price history kept")
	return nil
}

func (a *App) show(_ context.Context, _ []string) error {
	a.Printer.Print(a.Out, a.Session)
	return nil
}

// chart renders both pies when a renderer is available and falls back to a
// text table otherwise.
func (a *App) chart(ctx context.Context, _ []string) error {
	data := a.Session.PieData()
	if len(data.List) == 0 && len(data.Cart) == 0 {
		a.Printer.PrintPieData(a.Out, data)
		return nil
	}

	state := chart.StateUnavailable
	if a.Probe != nil && a.Renderer != nil {
		a.Probe.Start(ctx)
		waitCtx, cancel := context.WithTimeout(ctx, a.Probe.Budget())
		state = a.Probe.Wait(waitCtx)
		cancel()
	}
	if state != chart.StateAvailable {
		fmt.Fprintln(a.Out, hintStyle.Render("  chart unavailable ("+state.String()+"), showing values"))
		a.Printer.PrintPieData(a.Out, data)
		return nil
	}

	charts := []struct {
		title, file string
		slices      []models.Slice
	}{
		{"Shopping list vs budget", "list.png", data.List},
		{"Cart vs budget", "cart.png", data.Cart},
	}
	for _, c := range charts {
		path := filepath.Join(a.ChartDir, c.file)
		if err := a.Renderer.Render(ctx, c.title, c.slices, path); err != nil {
			a.Logger.Warn("[cli] Chart %q failed: %v", c.title, err)
			fmt.Fprintln(a.Out, hintStyle.Render("  chart unavailable, showing values"))
			a.Printer.PrintPieData(a.Out, data)
			return nil
		}
		a.done("Saved %s", path)
	}
	return nil
}

func (a *App) help(_ context.Context, _ []string) error {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.Out, "Commands:")
	for _, name := range names {
		fmt.Fprintf(a.Out, "  %s\n", a.commands[name].usage)
	}
	fmt.Fprintln(a.Out, "  shell")
	fmt.Fprintln(a.Out, hintStyle.Render("Item ids accept any unique prefix."))
	return nil
}
