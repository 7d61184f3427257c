package storage

import (
	"smart-grocer/models"
	"smart-grocer/utils"
)

// Persister writes changed session records in the background. Records are
// encoded when SaveState is called, so later mutations never race the write.
// A failed write is logged and otherwise ignored.
type Persister struct {
	store  Store
	pool   *utils.WorkerPool
	logger *utils.Logger
}

// NewPersister starts a single-worker queue in front of store, so writes land
// in the order they were saved.
func NewPersister(store Store, queueSize int, logger *utils.Logger) *Persister {
	return &Persister{
		store:  store,
		pool:   utils.NewWorkerPool(1, queueSize),
		logger: logger,
	}
}

// SaveState queues one write per changed record.
func (p *Persister) SaveState(state *models.SessionState, changed models.Record) {
	for _, rk := range recordKeys {
		if !changed.Has(rk.rec) {
			continue
		}
		key, value, remove, err := EncodeRecord(state, rk.rec)
		if err != nil {
			p.logger.Warn("[persist] Encoding %s failed: %v", rk.key, err)
			continue
		}

		queued := p.pool.TrySubmit(func() {
			var werr error
			if remove {
				werr = p.store.Delete(key)
			} else {
				werr = p.store.Set(key, value)
			}
			if werr != nil {
				p.logger.Warn("[persist] Writing %s failed: %v", key, werr)
				return
			}
			p.logger.Debug("[persist] Wrote %s (%d bytes)", key, len(value))
		})
		if !queued {
			p.logger.Warn("[persist] Write queue full or closed, dropped update of %s", key)
		}
	}
}

// Flush blocks until every queued write has been attempted.
func (p *Persister) Flush() {
	p.pool.Wait()
}

// Close flushes pending writes and stops the worker. Saves after Close are dropped.
func (p *Persister) Close() {
	p.pool.Close()
}
