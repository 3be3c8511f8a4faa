package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/integration"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

var (
	ErrQueueFull = errors.New("sync queue full")
	ErrStopped   = errors.New("sync worker stopped")
)

// ApplyFunc mirrors one ticket change to a collaborator.
type ApplyFunc func(ctx context.Context, ticket domain.Ticket, op integration.Operation) integration.Result

// Target is one external collaborator fed by the outbox.
type Target struct {
	Name  string
	Apply ApplyFunc
}

// SyncTask is a queued change for one ticket.
type SyncTask struct {
	Ticket domain.Ticket
	Op     integration.Operation
	seq    uint64
}

// SyncWorkerDependencies configures the outbox.
type SyncWorkerDependencies struct {
	Targets []Target
	Config  config.SyncConfig
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// SyncWorker drains ticket changes to the external targets. Tasks for the
// same ticket id land on the same shard and are delivered in order.
type SyncWorker struct {
	targets []Target
	cfg     config.SyncConfig
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	shards []chan SyncTask

	mu      sync.RWMutex
	stopped bool

	statusMu sync.Mutex
	status   map[string]domain.SyncStatus
	latest   map[string]uint64
	seq      uint64

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSyncWorker allocates the shard queues. Call Start to begin draining.
func NewSyncWorker(deps SyncWorkerDependencies) *SyncWorker {
	cfg := deps.Config
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	shards := make([]chan SyncTask, cfg.Workers)
	for i := range shards {
		shards[i] = make(chan SyncTask, cfg.QueueSize)
	}
	return &SyncWorker{
		targets: deps.Targets,
		cfg:     cfg,
		metrics: deps.Metrics,
		logger:  logger,
		now:     time.Now,
		shards:  shards,
		status:  make(map[string]domain.SyncStatus),
		latest:  make(map[string]uint64),
		cancel:  func() {},
	}
}

// Start launches one goroutine per shard.
func (w *SyncWorker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	for i, ch := range w.shards {
		w.wg.Add(1)
		go w.run(ctx, i, ch)
	}
	w.logger.Info("sync worker started", zap.Int("shards", len(w.shards)), zap.Int("targets", len(w.targets)))
}

// Stop refuses new tasks and waits for queued ones. When ctx expires first,
// in-flight retries are abandoned.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for _, ch := range w.shards {
		close(ch)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.stopWorkers()
		w.logger.Info("sync worker drained")
		return nil
	case <-ctx.Done():
		w.stopWorkers()
		<-done
		return ctx.Err()
	}
}

func (w *SyncWorker) stopWorkers() {
	if w.cancel != nil {
		w.cancel()
	}
}

// Enqueue hands a change to the outbox without blocking.
func (w *SyncWorker) Enqueue(ticket domain.Ticket, op integration.Operation) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}

	task := SyncTask{Ticket: ticket.Clone(), Op: op}
	task.seq = w.markPending(task)
	w.metrics.AddQueueDepth(1)
	select {
	case w.shards[w.shardFor(ticket.ID)] <- task:
	default:
		w.metrics.AddQueueDepth(-1)
		w.logger.Warn("sync queue full",
			zap.String("ticket_id", ticket.ID),
			zap.String("operation", string(op)))
		for _, t := range w.targets {
			w.record(task, t.Name, domain.SyncTargetStatus{
				Operation: string(op),
				State:     domain.SyncStateFailed,
				Error:     ErrQueueFull.Error(),
				UpdatedAt: w.now().UTC(),
			})
		}
		return ErrQueueFull
	}
	return nil
}

// Status reports the latest delivery state for a ticket.
func (w *SyncWorker) Status(ticketID string) (domain.SyncStatus, bool) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	st, ok := w.status[ticketID]
	if !ok {
		return domain.SyncStatus{}, false
	}
	targets := make(map[string]domain.SyncTargetStatus, len(st.Targets))
	for k, v := range st.Targets {
		targets[k] = v
	}
	return domain.SyncStatus{TicketID: st.TicketID, Targets: targets}, true
}

// RegisterHandlers feeds ticket events into the outbox. A refused task is
// returned to the publisher.
func (w *SyncWorker) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, w.handle(integration.OperationInsert))
	dispatcher.Subscribe(events.EventTicketUpdated, w.handle(integration.OperationUpdate))
	dispatcher.Subscribe(events.EventTicketDeleted, w.handle(integration.OperationDelete))
}

func (w *SyncWorker) handle(op integration.Operation) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		switch p := event.Payload.(type) {
		case events.TicketPayload:
			return w.Enqueue(p.Ticket, op)
		case *events.TicketPayload:
			return w.Enqueue(p.Ticket, op)
		}
		w.logger.Warn("unexpected ticket event payload", zap.String("event_type", string(event.Type)))
		return nil
	}
}

func (w *SyncWorker) run(ctx context.Context, shard int, ch <-chan SyncTask) {
	defer w.wg.Done()
	for task := range ch {
		w.metrics.AddQueueDepth(-1)
		for _, target := range w.targets {
			w.deliver(ctx, target, task)
		}
		if task.Op == integration.OperationDelete {
			w.forget(task)
		}
	}
	w.logger.Debug("sync shard stopped", zap.Int("shard", shard))
}

func (w *SyncWorker) deliver(ctx context.Context, target Target, task SyncTask) {
	attempts := 0
	var last integration.Result

	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempts++
		callCtx, cancel := w.callContext(ctx)
		defer cancel()

		last = target.Apply(callCtx, task.Ticket, task.Op)
		w.metrics.RecordSync(target.Name, string(task.Op), last.Success)
		if last.Success {
			return nil
		}
		if last.Permanent() {
			return last.Err()
		}
		return retry.RetryableError(last.Err())
	})

	state := domain.SyncStateSynced
	msg := ""
	if err != nil {
		state = domain.SyncStateFailed
		msg = err.Error()
		if last.Error != "" {
			msg = last.Error
		}
		w.logger.Warn("ticket sync failed",
			zap.String("target", target.Name),
			zap.String("ticket_id", task.Ticket.ID),
			zap.String("ticket_no", task.Ticket.TicketNo),
			zap.String("operation", string(task.Op)),
			zap.Int("attempts", attempts),
			zap.String("error", msg))
	}
	w.record(task, target.Name, domain.SyncTargetStatus{
		Operation: string(task.Op),
		State:     state,
		Error:     msg,
		Attempts:  attempts,
		UpdatedAt: w.now().UTC(),
	})
}

func (w *SyncWorker) backoff() retry.Backoff {
	base := w.cfg.BaseBackoff()
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if ceiling := w.cfg.MaxBackoff(); ceiling > 0 {
		b = retry.WithCappedDuration(ceiling, b)
	}
	retries := w.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

func (w *SyncWorker) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := w.cfg.CallTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (w *SyncWorker) shardFor(ticketID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticketID))
	return int(h.Sum32() % uint32(len(w.shards)))
}

// markPending numbers the task and resets the ticket's status to pending.
func (w *SyncWorker) markPending(task SyncTask) uint64 {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.seq++
	id := task.Ticket.ID
	w.latest[id] = w.seq
	targets := make(map[string]domain.SyncTargetStatus, len(w.targets))
	for _, t := range w.targets {
		targets[t.Name] = domain.SyncTargetStatus{
			Operation: string(task.Op),
			State:     domain.SyncStatePending,
			UpdatedAt: w.now().UTC(),
		}
	}
	w.status[id] = domain.SyncStatus{TicketID: id, Targets: targets}
	return w.seq
}

// forget drops the status of a deleted ticket once every target synced it.
// Failed deletes stay visible.
func (w *SyncWorker) forget(task SyncTask) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	id := task.Ticket.ID
	if w.latest[id] != task.seq {
		return
	}
	for _, st := range w.status[id].Targets {
		if st.State != domain.SyncStateSynced {
			return
		}
	}
	delete(w.status, id)
	delete(w.latest, id)
}

// record stores a delivery outcome unless a newer change for the ticket is queued.
func (w *SyncWorker) record(task SyncTask, target string, st domain.SyncTargetStatus) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	id := task.Ticket.ID
	if w.latest[id] != task.seq {
		return
	}
	current, ok := w.status[id]
	if !ok {
		current = domain.SyncStatus{TicketID: id, Targets: map[string]domain.SyncTargetStatus{}}
	}
	current.Targets[target] = st
	w.status[id] = current
}
