package queue

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/store"
)

// Handler reconciles one record. It must always return a result for rec.SKU.
type Handler func(ctx context.Context, rec model.StockRecord) model.UpdateResult

// Manager coordinates workers processing queued records and scaling.
type Manager struct {
	cfg     config.Config
	q       *Queue
	results *store.Results
	handle  Handler
	ctx     context.Context
	cancel  context.CancelFunc

	mu            sync.Mutex
	workerCancels []context.CancelFunc
}

// NewManager constructs a Manager with the given config, queue, result set and handler.
func NewManager(cfg config.Config, q *Queue, results *store.Results, h Handler) *Manager {
	return &Manager{cfg: cfg, q: q, results: results, handle: h}
}

// Start begins processing and autoscaling in the background.
func (m *Manager) Start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)
	m.q.Start(m.ctx, m.cfg.ScaleUpBacklogPerWorker*m.cfg.WorkerMax*10)
	n := m.cfg.InitialWorkerCount
	if n < 1 {
		n = 1
	}
	m.addWorkers(n)
	if m.cfg.ScaleInterval > 0 {
		go m.scaler()
	}
}

// Stop cancels background routines and stops workers.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	for _, c := range m.workerCancels {
		c()
	}
	m.workerCancels = nil
	m.mu.Unlock()
}

// scaler adjusts worker count based on backlog and configuration.
func (m *Manager) scaler() {
	t := time.NewTicker(m.cfg.ScaleInterval)
	defer t.Stop()
	idleTicks := 0
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-t.C:
			backlog := m.q.BacklogSize()
			wc := m.WorkerCount()
			if backlog > wc*m.cfg.ScaleUpBacklogPerWorker && wc < m.cfg.WorkerMax {
				m.addWorkers(1)
				idleTicks = 0
				continue
			}
			if backlog == 0 {
				idleTicks++
				if idleTicks >= m.cfg.ScaleDownIdleTicks && wc > max(m.cfg.WorkerMin, 1) {
					m.removeWorkers(1)
					idleTicks = 0
				}
			} else {
				idleTicks = 0
			}
		}
	}
}

// addWorkers spawns n workers.
func (m *Manager) addWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		wctx, cancel := context.WithCancel(m.ctx)
		m.workerCancels = append(m.workerCancels, cancel)
		go m.worker(wctx)
	}
	obs.Logger.Debug("workers_scaled", "worker_count", len(m.workerCancels))
}

// removeWorkers stops up to n workers.
func (m *Manager) removeWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.workerCancels) {
		n = len(m.workerCancels)
	}
	for i := 0; i < n; i++ {
		c := m.workerCancels[len(m.workerCancels)-1]
		m.workerCancels = m.workerCancels[:len(m.workerCancels)-1]
		c()
	}
	obs.Logger.Debug("workers_scaled", "worker_count", len(m.workerCancels))
}

// worker drains records from the queue and records one result per SKU. The
// handler runs on the run context so scaling down never aborts an item.
func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-m.q.Out():
			if !ok {
				return
			}
			r := m.handle(m.ctx, rec)
			if r.SKU == "" {
				r.SKU = rec.SKU
			}
			if !m.results.Record(r) {
				obs.Logger.Warn("duplicate_result_dropped", "sku", rec.SKU)
			}
			m.q.MarkProcessed()
		}
	}
}

// Enqueue proxies to the underlying queue.
func (m *Manager) Enqueue(rec model.StockRecord) bool { return m.q.Enqueue(rec) }

// CloseIntake disallows future enqueues.
func (m *Manager) CloseIntake() { m.q.CloseIntake() }

// BacklogSize returns pending items in the queue.
func (m *Manager) BacklogSize() int { return m.q.BacklogSize() }

// WorkerCount returns the current number of workers.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workerCancels)
}

// DrainUntil blocks until every enqueued record is processed or ctx is done.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	for {
		enq, proc, backlog, depth := m.q.Metrics()
		if backlog == 0 && depth == 0 && enq == proc {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
