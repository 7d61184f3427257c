package chart

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"smart-grocer/models"
	"smart-grocer/utils"
)

const (
	pieRadius = 120.0
	pieCenter = 140.0
)

// Renderer draws pie charts in headless Chrome and saves them as PNG.
type Renderer struct {
	bin     string
	timeout time.Duration
	logger  *utils.Logger
}

func NewRenderer(bin string, timeout time.Duration, logger *utils.Logger) *Renderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{bin: FindChromeBinary(bin), timeout: timeout, logger: logger}
}

// Render writes a PNG of the pie described by slices to path.
func (r *Renderer) Render(ctx context.Context, title string, slices []models.Slice, path string) error {
	if r.bin == "" {
		return ErrNoBrowser
	}

	page, err := PieHTML(title, slices)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("chart: create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tabCtx, closeBrowser := newBrowser(ctx, r.bin)
	defer closeBrowser()

	var png []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("data:text/html;charset=utf-8,"+url.PathEscape(page)),
		chromedp.WaitVisible("#pie", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return fmt.Errorf("chart: render %q: %w", title, err)
	}

	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("chart: write %q: %w", path, err)
	}
	r.logger.Info("[chart] Saved %q to %s", title, path)
	return nil
}

type wedge struct {
	Path  string
	Color string
	Label string
	Value string
	Full  bool
}

var pageTmpl = template.Must(template.New("pie").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:16px;background:#fff}h1{font-size:18px}li{list-style:none}span.sw{display:inline-block;width:12px;height:12px;margin-right:6px}</style>
</head><body>
<h1>{{.Title}}</h1>
<svg id="pie" width="280" height="280" viewBox="0 0 280 280" xmlns="http://www.w3.org/2000/svg">
{{- range .Wedges}}
{{- if .Full}}<circle cx="140" cy="140" r="120" fill="{{.Color}}"/>
{{- else}}<path d="{{.Path}}" fill="{{.Color}}"/>{{end}}
{{- end}}
{{- if not .Wedges}}<circle cx="140" cy="140" r="120" fill="none" stroke="#ccc"/>{{end}}
</svg>
<ul>{{range .Legend}}<li><span class="sw" style="background:{{.Color}}"></span>{{.Label}}: {{.Value}}</li>{{end}}</ul>
</body></html>`))

// PieHTML builds a standalone page with an inline SVG pie. Zero-valued slices
// appear in the legend but draw no wedge.
func PieHTML(title string, slices []models.Slice) (string, error) {
	total := 0.0
	for _, s := range slices {
		if s.Value.IsPositive() {
			total += s.Value.InexactFloat64()
		}
	}

	var wedges, legend []wedge
	angle := -math.Pi / 2
	for _, s := range slices {
		w := wedge{Color: s.Color, Label: s.Label, Value: s.Value.StringFixed(2)}
		legend = append(legend, w)
		if total == 0 || !s.Value.IsPositive() {
			continue
		}
		frac := s.Value.InexactFloat64() / total
		if frac >= 1 {
			w.Full = true
			wedges = append(wedges, w)
			continue
		}
		end := angle + frac*2*math.Pi
		w.Path = arcPath(angle, end)
		wedges = append(wedges, w)
		angle = end
	}

	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Title  string
		Wedges []wedge
		Legend []wedge
	}{title, wedges, legend})
	if err != nil {
		return "", fmt.Errorf("chart: build page: %w", err)
	}
	return buf.String(), nil
}

func arcPath(start, end float64) string {
	x1 := pieCenter + pieRadius*math.Cos(start)
	y1 := pieCenter + pieRadius*math.Sin(start)
	x2 := pieCenter + pieRadius*math.Cos(end)
	y2 := pieCenter + pieRadius*math.Sin(end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f A%.0f,%.0f 0 %d,1 %.2f,%.2f Z",
		pieCenter, pieCenter, x1, y1, pieRadius, pieRadius, large, x2, y2)
}
