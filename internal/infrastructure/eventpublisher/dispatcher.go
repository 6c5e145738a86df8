package eventpublisher

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
)

const (
	DefaultQueueSize = 1024
	DefaultWorkers   = 4

	queueFullReason = "dispatch queue full"
	stoppedReason   = "dispatcher stopped"
)

// resultPublisher is the part of Publisher the dispatcher drives.
type resultPublisher interface {
	PublishResult(ctx context.Context, event *domain.TransactionResultEvent)
	DeadLetter(ctx context.Context, event *domain.TransactionResultEvent, reason string)
}

// DispatcherConfig for Dispatcher.
type DispatcherConfig struct {
	Publisher resultPublisher
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	QueueSize int
	Workers   int
}

// Dispatcher hands result events from the request path to background
// workers. Dispatch never blocks: when the queue is full the event goes
// straight to the dead-letter store.
type Dispatcher struct {
	publisher resultPublisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	workers   int

	queue chan *domain.TransactionResultEvent

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher. Call Start before dispatching.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	return &Dispatcher{
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With().Str("component", "result_dispatcher").Logger(),
		metrics:   cfg.Metrics,
		workers:   cfg.Workers,
		queue:     make(chan *domain.TransactionResultEvent, cfg.QueueSize),
	}
}

// Start launches the workers. They publish with ctx until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.work(ctx, i)
	}

	d.logger.Info().
		Int("workers", d.workers).
		Int("queue_size", cap(d.queue)).
		Msg("result dispatcher started")
}

// Stop closes the queue and waits for the workers to drain it. Events
// dispatched after Stop are dead-lettered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// Nobody will consume what is left.
		for event := range d.queue {
			d.publisher.DeadLetter(context.Background(), event, stoppedReason)
		}
		return
	}

	d.wg.Wait()
	d.cancel()

	d.logger.Info().Msg("result dispatcher stopped")
}

// Dispatch enqueues the event for publication.
func (d *Dispatcher) Dispatch(event *domain.TransactionResultEvent) {
	if d.metrics != nil {
		d.metrics.TransactionResults.WithLabelValues(string(event.FinalStatus)).Inc()
		if event.IsSuccess() {
			d.metrics.TransactionAmount.Observe(event.Amount.Abs().InexactFloat64())
		}
	}

	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		d.publisher.DeadLetter(context.Background(), event, stoppedReason)
		return
	}

	select {
	case d.queue <- event:
		d.mu.RUnlock()
		d.observeDepth()
	default:
		d.mu.RUnlock()
		d.logger.Warn().
			Str("transaction_id", event.TransactionID).
			Msg("dispatch queue full, dead-lettering result event")
		d.publisher.DeadLetter(context.Background(), event, queueFullReason)
	}
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()

	for event := range d.queue {
		d.observeDepth()
		d.logger.Debug().
			Int("worker", id).
			Str("transaction_id", event.TransactionID).
			Msg("publishing result event")
		d.publisher.PublishResult(ctx, event)
	}
}

func (d *Dispatcher) observeDepth() {
	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
	}
}
