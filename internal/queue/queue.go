// Package queue implements the durable multi-stage pipeline substrate:
// FIFO queues with states {Queued, Processing, Completed, Failed},
// lease-based recovery, retry counters, a per-queue notifier channel, and
// periodic cleanup.
//
// The default implementation ([MemStore]) is in-process and safe for
// concurrent use; it satisfies the full state machine and ordering
// guarantees without a second SQL schema layer (the graph backend in
// internal/graphstore/pgstore does not model a FIFO queue and adding one
// there would duplicate internal/queue's own bookkeeping).
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// Status is a queue item's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrNotFound is returned when an operation references an unknown item ID.
var ErrNotFound = errors.New("queue: item not found")

// ErrWrongStatus is returned when complete/fail is called on an item that is
// not currently Processing.
var ErrWrongStatus = errors.New("queue: item is not in the expected status")

// Item is the generic queue-item shape.
type Item struct {
	ID            ids.QueueItemID
	Kind          string
	Payload       []byte // JSON-encoded payload
	Status        Status
	Attempts      int
	LeaseExpires  time.Time
	EnqueuedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time
	LastError     string
}

// Store is the persistence contract a [Queue] drives. [MemStore] is the
// provided implementation.
type Store interface {
	Enqueue(ctx context.Context, kind string, payload []byte) (ids.QueueItemID, error)
	NextForProcessing(ctx context.Context, lease time.Duration) (*Item, error)
	Complete(ctx context.Context, id ids.QueueItemID) error
	Fail(ctx context.Context, id ids.QueueItemID, maxAttempts int, cause error) (terminal bool, err error)
	Cleanup(ctx context.Context, retention time.Duration) (int, error)
	PendingCount(ctx context.Context) (int, error)
	Get(ctx context.Context, id ids.QueueItemID) (*Item, error)
}

// MemStore is an in-memory, mutex-guarded [Store] implementation. Items are
// held in enqueue order; NextForProcessing scans from the front for the
// oldest Queued item or a Processing item whose lease has expired
// (recovery), satisfying the FIFO-per-queue ordering guarantee.
type MemStore struct {
	mu    sync.Mutex
	items []*Item
	byID  map[ids.QueueItemID]*Item
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[ids.QueueItemID]*Item)}
}

// Enqueue appends a new item with status Queued.
func (s *MemStore) Enqueue(_ context.Context, kind string, payload []byte) (ids.QueueItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &Item{
		ID:         ids.NewQueueItemID(),
		Kind:       kind,
		Payload:    payload,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}
	s.items = append(s.items, it)
	s.byID[it.ID] = it
	return it.ID, nil
}

// NextForProcessing atomically selects the oldest Queued item, or the
// oldest Processing item whose lease has expired, marks it Processing,
// extends its lease, and increments Attempts.
func (s *MemStore) NextForProcessing(_ context.Context, lease time.Duration) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, it := range s.items {
		eligible := it.Status == StatusQueued || (it.Status == StatusProcessing && now.After(it.LeaseExpires))
		if !eligible {
			continue
		}
		it.Status = StatusProcessing
		it.Attempts++
		it.LeaseExpires = now.Add(lease)
		if it.StartedAt.IsZero() {
			it.StartedAt = now
		}
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

// Complete marks id Completed.
func (s *MemStore) Complete(_ context.Context, id ids.QueueItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if it.Status != StatusProcessing {
		return ErrWrongStatus
	}
	it.Status = StatusCompleted
	it.CompletedAt = time.Now()
	return nil
}

// Fail records a failure. If attempts have been exhausted (Attempts >=
// maxAttempts) the item transitions to Failed (terminal=true); otherwise it
// returns to Queued for retry (terminal=false). Passing maxAttempts<=0
// treats the failure as poisonous and fails immediately regardless of
// attempt count.1 "Poisonous failures ... go straight to
// Failed."
func (s *MemStore) Fail(_ context.Context, id ids.QueueItemID, maxAttempts int, cause error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if it.Status != StatusProcessing {
		return false, ErrWrongStatus
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	it.LastError = msg
	if maxAttempts <= 0 || it.Attempts >= maxAttempts {
		it.Status = StatusFailed
		it.CompletedAt = time.Now()
		return true, nil
	}
	it.Status = StatusQueued
	it.LeaseExpires = time.Time{}
	return false, nil
}

// Cleanup removes terminal (Completed or Failed) items older than
// retention, returning the number removed.
func (s *MemStore) Cleanup(_ context.Context, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-retention)
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		terminal := it.Status == StatusCompleted || it.Status == StatusFailed
		if terminal && it.CompletedAt.Before(cutoff) {
			delete(s.byID, it.ID)
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed, nil
}

// PendingCount returns the number of items currently Queued or Processing.
func (s *MemStore) PendingCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.Status == StatusQueued || it.Status == StatusProcessing {
			n++
		}
	}
	return n, nil
}

// Get returns a copy of the item with the given ID, or ErrNotFound.
func (s *MemStore) Get(_ context.Context, id ids.QueueItemID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

// Queue pairs a Store with a notifier channel, satisfying the
// enqueue/wake-up contract of.1: notify() after each enqueue,
// wait(timeout) in the worker loop.
type Queue struct {
	Name  string
	store Store
	wake  chan struct{}
}

// New wraps store with a notifier under the given queue name (used in
// metrics/log attributes).
func New(name string, store Store) *Queue {
	return &Queue{Name: name, store: store, wake: make(chan struct{}, 1)}
}

// Store returns the underlying Store.
func (q *Queue) Store() Store { return q.store }

// Enqueue appends payload and wakes any waiting worker.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload []byte) (ids.QueueItemID, error) {
	id, err := q.store.Enqueue(ctx, kind, payload)
	if err != nil {
		return id, fmt.Errorf("queue %s: enqueue: %w", q.Name, err)
	}
	q.notify()
	return id, nil
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until notify() has been called since the last Wait, or until
// timeout elapses, or ctx is done — whichever comes first. It always
// returns promptly; callers re-poll NextForProcessing afterward regardless
// of why Wait returned, so that lease-expiry recovery is caught even
// without an explicit notify.
func (q *Queue) Wait(ctx context.Context, timeout time.Duration) {
	select {
	case <-q.wake:
	case <-time.After(timeout):
	case <-ctx.Done():
	}
}
