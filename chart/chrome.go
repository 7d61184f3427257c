package chart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrNoBrowser is returned when no Chrome or Chromium binary can be found.
var ErrNoBrowser = errors.New("chart: no chrome binary found")

// FindChromeBinary locates a Chrome/Chromium binary. An explicit path wins,
// then CHROME_BIN, then PATH lookups, then well-known install locations.
func FindChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// allocatorOptions are the headless flags used for every browser launch.
func allocatorOptions(bin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(640, 480),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return opts
}

// newBrowser starts a headless browser and returns a tab context with chromedp
// log noise suppressed. The returned cancel func tears everything down.
func newBrowser(ctx context.Context, bin string) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(bin)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return tabCtx, func() {
		cancelTab()
		cancelAlloc()
	}
}

// ChromeChecker succeeds once a browser binary exists and can be launched.
type ChromeChecker struct {
	Bin     string
	Timeout time.Duration
}

func (c *ChromeChecker) Check(ctx context.Context) error {
	bin := FindChromeBinary(c.Bin)
	if bin == "" {
		return ErrNoBrowser
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tabCtx, closeBrowser := newBrowser(ctx, bin)
	defer closeBrowser()

	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("chart: launch %s: %w", bin, err)
	}
	return nil
}
