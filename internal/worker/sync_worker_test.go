package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/integration"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) apply(results ...integration.Result) ApplyFunc {
	n := 0
	return func(ctx context.Context, ticket domain.Ticket, op integration.Operation) integration.Result {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, ticket.ID+":"+string(op))
		if n < len(results) {
			res := results[n]
			n++
			return res
		}
		return integration.OK()
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func fastConfig() config.SyncConfig {
	return config.SyncConfig{
		Workers:            2,
		QueueSize:          16,
		MaxRetries:         3,
		BaseBackoffMillis:  1,
		MaxBackoffSeconds:  1,
		CallTimeoutSeconds: 1,
	}
}

func newTestWorker(t *testing.T, cfg config.SyncConfig, targets ...Target) *SyncWorker {
	return NewSyncWorker(SyncWorkerDependencies{
		Targets: targets,
		Config:  cfg,
		Logger:  zaptest.NewLogger(t),
	})
}

func stop(t *testing.T, w *SyncWorker) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestSyncWorkerKeepsPerTicketOrder(t *testing.T) {
	rec := &recorder{}
	w := newTestWorker(t, fastConfig(), Target{Name: "sheets", Apply: rec.apply()})
	w.Start(context.Background())

	ticket := domain.Ticket{ID: "t-1", TicketNo: "1"}
	require.NoError(t, w.Enqueue(ticket, integration.OperationInsert))
	require.NoError(t, w.Enqueue(ticket, integration.OperationUpdate))
	require.NoError(t, w.Enqueue(ticket, integration.OperationDelete))
	stop(t, w)

	assert.Equal(t, []string{"t-1:insert", "t-1:update", "t-1:delete"}, rec.snapshot())
}

func TestSyncWorkerForgetsSyncedDeletes(t *testing.T) {
	rec := &recorder{}
	w := newTestWorker(t, fastConfig(), Target{Name: "sheets", Apply: rec.apply()})
	w.Start(context.Background())

	ticket := domain.Ticket{ID: "t-6", TicketNo: "6"}
	require.NoError(t, w.Enqueue(ticket, integration.OperationInsert))
	require.NoError(t, w.Enqueue(ticket, integration.OperationDelete))
	stop(t, w)

	_, ok := w.Status("t-6")
	assert.False(t, ok)
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	assert.Empty(t, w.status)
	assert.Empty(t, w.latest)
}

func TestSyncWorkerKeepsFailedDeleteStatus(t *testing.T) {
	rec := &recorder{}
	missing := integration.Result{Success: false, Error: integration.CredentialsMissing}
	w := newTestWorker(t, fastConfig(), Target{Name: "analytics", Apply: rec.apply(missing)})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue(domain.Ticket{ID: "t-7"}, integration.OperationDelete))
	stop(t, w)

	st, ok := w.Status("t-7")
	require.True(t, ok)
	assert.Equal(t, domain.SyncStateFailed, st.Targets["analytics"].State)
}

func TestSyncWorkerRetriesTransientFailures(t *testing.T) {
	rec := &recorder{}
	flaky := rec.apply(
		integration.Failed(errors.New("timeout")),
		integration.Failed(errors.New("timeout")),
	)
	w := newTestWorker(t, fastConfig(), Target{Name: "analytics", Apply: flaky})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue(domain.Ticket{ID: "t-2"}, integration.OperationInsert))
	stop(t, w)

	assert.Len(t, rec.snapshot(), 3)
	st, ok := w.Status("t-2")
	require.True(t, ok)
	assert.Equal(t, domain.SyncStateSynced, st.Targets["analytics"].State)
	assert.Equal(t, 3, st.Targets["analytics"].Attempts)
}

func TestSyncWorkerGivesUpAfterMaxRetries(t *testing.T) {
	rec := &recorder{}
	failing := make([]integration.Result, 10)
	for i := range failing {
		failing[i] = integration.Failed(errors.New("Ticket not found in sheet"))
	}
	cfg := fastConfig()
	cfg.MaxRetries = 2
	w := newTestWorker(t, cfg, Target{Name: "sheets", Apply: rec.apply(failing...)})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue(domain.Ticket{ID: "t-3"}, integration.OperationUpdate))
	stop(t, w)

	st, _ := w.Status("t-3")
	assert.Equal(t, domain.SyncStateFailed, st.Targets["sheets"].State)
	assert.Equal(t, "Ticket not found in sheet", st.Targets["sheets"].Error)
	assert.Equal(t, 3, st.Targets["sheets"].Attempts)
}

func TestSyncWorkerDoesNotRetryMissingCredentials(t *testing.T) {
	rec := &recorder{}
	missing := integration.Result{Success: false, Error: integration.CredentialsMissing}
	w := newTestWorker(t, fastConfig(),
		Target{Name: "sheets", Apply: rec.apply(missing)},
	)
	w.Start(context.Background())

	require.NoError(t, w.Enqueue(domain.Ticket{ID: "t-4"}, integration.OperationInsert))
	stop(t, w)

	assert.Len(t, rec.snapshot(), 1)
	st, _ := w.Status("t-4")
	assert.Equal(t, domain.SyncStateFailed, st.Targets["sheets"].State)
	assert.Equal(t, integration.CredentialsMissing, st.Targets["sheets"].Error)
}

func TestSyncWorkerRefusesWhenQueueFull(t *testing.T) {
	cfg := fastConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	w := newTestWorker(t, cfg, Target{Name: "sheets", Apply: (&recorder{}).apply()})

	require.NoError(t, w.Enqueue(domain.Ticket{ID: "a"}, integration.OperationInsert))
	err := w.Enqueue(domain.Ticket{ID: "b"}, integration.OperationInsert)
	assert.ErrorIs(t, err, ErrQueueFull)

	st, ok := w.Status("b")
	require.True(t, ok)
	assert.Equal(t, domain.SyncStateFailed, st.Targets["sheets"].State)

	pending, _ := w.Status("a")
	assert.Equal(t, domain.SyncStatePending, pending.Targets["sheets"].State)
	stop(t, w)
}

func TestSyncWorkerRefusesAfterStop(t *testing.T) {
	w := newTestWorker(t, fastConfig())
	w.Start(context.Background())
	stop(t, w)

	assert.ErrorIs(t, w.Enqueue(domain.Ticket{ID: "x"}, integration.OperationInsert), ErrStopped)
	require.NoError(t, w.Stop(context.Background()))
}

func TestSyncWorkerConsumesTicketEvents(t *testing.T) {
	rec := &recorder{}
	w := newTestWorker(t, fastConfig(), Target{Name: "sheets", Apply: rec.apply()})
	dispatcher := events.NewInMemoryDispatcher()
	w.RegisterHandlers(dispatcher)
	w.Start(context.Background())

	ticket := domain.Ticket{ID: "t-5"}
	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketCreated, EntityID: ticket.ID, Payload: events.TicketPayload{Ticket: ticket}}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketDeleted, EntityID: ticket.ID, Payload: events.TicketPayload{Ticket: ticket}}))
	stop(t, w)

	assert.Equal(t, []string{"t-5:insert", "t-5:delete"}, rec.snapshot())
}

func TestStatusUnknownTicket(t *testing.T) {
	w := newTestWorker(t, fastConfig())
	_, ok := w.Status("missing")
	assert.False(t, ok)
}
