package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/listingwatch"
)

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
type MemoryStore struct {
	mu        sync.RWMutex
	results   map[string]listingwatch.MonitorRunResult
	lastBatch *Batch

	subMu       sync.RWMutex
	subscribers map[chan listingwatch.MonitorRunResult]struct{}

	now func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:     make(map[string]listingwatch.MonitorRunResult),
		subscribers: make(map[chan listingwatch.MonitorRunResult]struct{}),
		now:         time.Now,
	}
}

// Update stores result under its MonitorID, replacing any previous one, and
// notifies every subscriber whose buffer has room.
func (m *MemoryStore) Update(result listingwatch.MonitorRunResult) {
	m.mu.Lock()
	m.results[result.MonitorID] = result
	m.mu.Unlock()

	m.notifySubscribers(result)
}

// RecordBatch stores the summary of batch.
func (m *MemoryStore) RecordBatch(batch listingwatch.BatchResult) {
	b := Batch{
		RunID:         batch.RunID,
		OverallStatus: batch.OverallStatus,
		Cancelled:     batch.Cancelled,
		FinishedAt:    m.now(),
	}

	m.mu.Lock()
	m.lastBatch = &b
	m.mu.Unlock()
}

// LastBatch returns the most recent batch summary.
func (m *MemoryStore) LastBatch() (Batch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastBatch == nil {
		return Batch{}, false
	}
	return *m.lastBatch, true
}

// GetAll returns a copy of every stored result, ordered by monitor id.
func (m *MemoryStore) GetAll() []listingwatch.MonitorRunResult {
	m.mu.RLock()
	results := make([]listingwatch.MonitorRunResult, 0, len(m.results))
	for _, r := range m.results {
		results = append(results, r)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].MonitorID < results[j].MonitorID
	})
	return results
}

// Subscribe creates a subscription with a buffer of 100 results.
func (m *MemoryStore) Subscribe() <-chan listingwatch.MonitorRunResult {
	ch := make(chan listingwatch.MonitorRunResult, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan listingwatch.MonitorRunResult) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(result listingwatch.MonitorRunResult) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- result:
		default:
			// slow subscriber, drop
		}
	}
}
