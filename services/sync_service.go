// Package services, sync engine'in iş mantığı katmanıdır.
//
// SyncService nedir?
// Transport'tan gelen event batch'lerini sırayla middleware chain'inden
// geçirir. Her batch tek bir write transaction'ı içinde işlenir; chain'in
// forward ettiği event'ler commit sonrası listener'lara (ws.Hub) iletilir.
//
// Neden tek goroutine?
// Event'lerin sırası önemlidir: message.new'den önce gelen message.deleted
// farklı sonuç verir. Batch'ler Run goroutine'inde sırayla işlenir ve
// ProcessBatch ayrıca mutex tutar, iki transaction asla çakışmaz.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/middleware"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// Transactor opens one write session per batch. *repository.Store
// implements it.
type Transactor interface {
	InTx(ctx context.Context, fn func(session repository.DatabaseSession) error) error
}

// Listener receives the events a batch forwarded, after the batch
// committed (or failed to). It runs on the sync goroutine and must not block.
type Listener interface {
	OnBatch(batchID string, forwarded []events.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(batchID string, forwarded []events.Event)

func (f ListenerFunc) OnBatch(batchID string, forwarded []events.Event) { f(batchID, forwarded) }

// Stats is a snapshot of the service counters.
type Stats struct {
	Batches        int64 `json:"batches"`
	Events         int64 `json:"events"`
	Forwarded      int64 `json:"forwarded"`
	Stopped        int64 `json:"stopped"`
	CommitFailures int64 `json:"commit_failures"`
	Synthetic      int64 `json:"synthetic"`
	QueueDropped   int64 `json:"queue_dropped"`
}

// SyncService is the dispatcher: it runs the middleware chain over each
// batch inside one write transaction and publishes what the chain forwarded.
//
// Writers never overlap: ProcessBatch holds mu for the whole transaction.
// Run drains two inputs on a single goroutine: the bounded transport queue
// (Submit), which drops when full, and the synthetic list (Emit), which
// never drops. A timer that already fired has no second chance, so its
// cleanup event must always get through.
type SyncService struct {
	store Transactor
	chain *middleware.Chain

	mu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []Listener

	queue chan []events.Event

	syntheticMu sync.Mutex
	pending     []events.Event
	wake        chan struct{}

	batches        atomic.Int64
	events         atomic.Int64
	forwarded      atomic.Int64
	stopped        atomic.Int64
	commitFailures atomic.Int64
	synthetic      atomic.Int64
	queueDropped   atomic.Int64
}

func NewSyncService(store Transactor, chain *middleware.Chain, queueSize int) *SyncService {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &SyncService{
		store: store,
		chain: chain,
		queue: make(chan []events.Event, queueSize),
		wake:  make(chan struct{}, 1),
	}
}

// AddListener registers l for every future batch.
func (s *SyncService) AddListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// ProcessBatch runs the chain over every event of batch in order, all in
// one transaction, and returns the events that made it through.
//
// Middlewares swallow their own store failures, so the returned error is
// only ever a transaction failure, wrapped with pkg.ErrStoreWrite. The
// forwarded events are published and returned either way: the stream is
// authoritative, the store is a cache.
func (s *SyncService) ProcessBatch(ctx context.Context, batch []events.Event) ([]events.Event, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	batchID := uuid.New().String()

	s.mu.Lock()
	forwarded, err := s.runChain(ctx, batch)
	s.mu.Unlock()

	s.batches.Add(1)
	s.events.Add(int64(len(batch)))
	s.forwarded.Add(int64(len(forwarded)))
	s.stopped.Add(int64(len(batch) - len(forwarded)))

	if err != nil {
		s.commitFailures.Add(1)
		err = fmt.Errorf("%w: batch %s: %w", pkg.ErrStoreWrite, batchID, err)
		log.Printf("[sync] %v", err)
	}

	s.publish(batchID, forwarded)
	return forwarded, err
}

// runChain returns what the chain forwarded even when the transaction
// fails: the chain already ran, only its writes are lost.
func (s *SyncService) runChain(ctx context.Context, batch []events.Event) ([]events.Event, error) {
	var forwarded []events.Event

	err := s.store.InTx(ctx, func(session repository.DatabaseSession) error {
		forwarded = forwarded[:0]
		for _, ev := range batch {
			if out := s.chain.Process(ctx, ev, session); out != nil {
				forwarded = append(forwarded, out)
			}
		}
		return nil
	})
	return forwarded, err
}

func (s *SyncService) publish(batchID string, forwarded []events.Event) {
	s.listenersMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l.OnBatch(batchID, forwarded)
	}
}

// Submit enqueues a batch for Run. It never blocks: when the queue is full
// the batch is dropped and counted.
func (s *SyncService) Submit(batch []events.Event) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case s.queue <- batch:
		return true
	default:
		s.queueDropped.Add(1)
		log.Printf("[sync] queue full, dropped batch of %d events", len(batch))
		return false
	}
}

// Emit enqueues a synthetic event. It never blocks and never drops; the
// typing timers call it from their own goroutines.
func (s *SyncService) Emit(ev events.Event) {
	s.syntheticMu.Lock()
	s.pending = append(s.pending, ev)
	s.syntheticMu.Unlock()
	s.synthetic.Add(1)

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// takePending empties the synthetic list.
func (s *SyncService) takePending() []events.Event {
	s.syntheticMu.Lock()
	defer s.syntheticMu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Pending is the number of synthetic events waiting for Run.
func (s *SyncService) Pending() int {
	s.syntheticMu.Lock()
	defer s.syntheticMu.Unlock()
	return len(s.pending)
}

// Run processes queued batches until ctx is done. Each synthetic event runs
// as its own batch. Whatever is still queued at that point is discarded.
func (s *SyncService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-s.queue:
			if !s.process(ctx, batch) {
				return
			}
		case <-s.wake:
			for _, ev := range s.takePending() {
				if !s.process(ctx, []events.Event{ev}) {
					return
				}
			}
		}
	}
}

// process reports false once ctx is cancelled.
func (s *SyncService) process(ctx context.Context, batch []events.Event) bool {
	_, err := s.ProcessBatch(ctx, batch)
	return err == nil || !errors.Is(err, context.Canceled)
}

func (s *SyncService) Stats() Stats {
	return Stats{
		Batches:        s.batches.Load(),
		Events:         s.events.Load(),
		Forwarded:      s.forwarded.Load(),
		Stopped:        s.stopped.Load(),
		CommitFailures: s.commitFailures.Load(),
		Synthetic:      s.synthetic.Load(),
		QueueDropped:   s.queueDropped.Load(),
	}
}

// EnsureCurrentUser stores the logged-in user if none is stored yet, or
// replaces it when the id changed. Mutes of an unchanged user are kept.
func (s *SyncService) EnsureCurrentUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", pkg.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.InTx(ctx, func(session repository.DatabaseSession) error {
		me, err := session.CurrentUser(ctx)
		if err == nil && me.UserID == userID {
			return nil
		}
		if err != nil && !errors.Is(err, pkg.ErrNoCurrentUser) {
			return err
		}
		return session.SaveCurrentUser(ctx, &models.CurrentUser{
			UserID:                  userID,
			DeliveryReceiptsEnabled: true,
		})
	})
	if errors.Is(err, database.ErrCommit) {
		return fmt.Errorf("%w: %w", pkg.ErrStoreWrite, err)
	}
	return err
}
