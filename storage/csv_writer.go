package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"smart-grocer/models"
)

var receiptHeader = []string{
	"finalized_at", "supermarket", "item_id", "name", "barcode",
	"quantity", "unit_price", "line_total", "purchase_total",
}

// CSVReceiptWriter appends finalised purchases to a CSV file, one row per item.
// It is safe for concurrent use.
type CSVReceiptWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVReceiptWriter opens the CSV file at path for appending. The header row
// is written only when the file is new or empty. Intermediate directories are
// created automatically.
func NewCSVReceiptWriter(path string) (*CSVReceiptWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(receiptHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVReceiptWriter{file: f, writer: w}, nil
}

// WriteReceipt appends one row per purchased item.
func (c *CSVReceiptWriter) WriteReceipt(summary *models.PurchaseSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	finalizedAt := summary.FinalizedAt.Format(time.RFC3339)
	total := summary.Total.StringFixed(2)
	for _, it := range summary.Items {
		row := []string{
			finalizedAt,
			summary.Supermarket,
			it.ID,
			it.Name,
			it.Barcode,
			strconv.Itoa(it.Quantity),
			it.Price.StringFixed(2),
			it.LineTotal().StringFixed(2),
			total,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVReceiptWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
