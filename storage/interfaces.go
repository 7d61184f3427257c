package storage

import (
	"errors"

	"smart-grocer/models"
)

// ErrNotFound is returned by Store.Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("storage: record not found")

// Store is the key-value backend holding the persisted session records.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// ReceiptWriter persists finalised purchases.
type ReceiptWriter interface {
	WriteReceipt(summary *models.PurchaseSummary) error
	Close() error
}
