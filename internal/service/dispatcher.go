package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LeventeLantos/scheduled-messaging/internal/client"
	"github.com/LeventeLantos/scheduled-messaging/internal/model"
	"github.com/LeventeLantos/scheduled-messaging/internal/notify"
	"github.com/LeventeLantos/scheduled-messaging/internal/repo"
)

// Transport is the external delivery capability: a readiness probe and
// an opaque send.
type Transport interface {
	IsReady(ctx context.Context) bool
	Send(ctx context.Context, destination, text string) (remoteMessageID string, err error)
}

// Dispatcher drains the due set on every tick and hands entries to the
// transport one at a time, oldest scheduled_at first. A failing entry
// stays pending and never blocks the rest of the tick.
type Dispatcher struct {
	repo      repo.ScheduleRepository
	transport Transport
	notifier  Notifier

	sendTimeout time.Duration
	sendPause   time.Duration

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	mu       sync.Mutex
	wasReady bool
}

func NewDispatcher(r repo.ScheduleRepository, t Transport, n Notifier, sendTimeout, sendPause time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	if sendPause < 0 {
		sendPause = 0
	}
	return &Dispatcher{
		repo:        r,
		transport:   t,
		notifier:    n,
		sendTimeout: sendTimeout,
		sendPause:   sendPause,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Tick processes everything currently due. Invocations are serialized:
// a second caller blocks until the first returns, so two ticks can
// never read the same entry as due before either marks it sent.
func (d *Dispatcher) Tick(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ready := d.transport.IsReady(ctx)
	if ready != d.wasReady {
		d.wasReady = ready
		if d.notifier != nil {
			d.notifier.Publish(notify.ConnectivityChanged, map[string]bool{"connected": ready})
		}
		slog.Info("transport connectivity changed", "connected", ready)
	}
	if !ready {
		return
	}

	due, err := d.repo.ListDue(ctx, d.now().UTC())
	if err != nil {
		slog.Error("failed to query due messages", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("processing due messages", "count", len(due))

	for i, m := range due {
		if ctx.Err() != nil {
			return
		}
		// Fixed pacing between consecutive sends within one tick, on
		// top of the pre-computed typing offsets.
		if i > 0 {
			d.sleep(ctx, d.sendPause)
		}
		d.dispatchOne(ctx, m)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, m model.ScheduledMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	remoteID, err := d.transport.Send(sendCtx, client.NormalizeDestination(m.Destination), m.Text)
	if err != nil {
		// Entry stays unsent and becomes due again next tick.
		slog.Warn("send failed, message stays pending",
			"id", m.ID,
			"batch_id", m.BatchID,
			"destination", m.Destination,
			"error", err,
		)
		return
	}

	if err := d.repo.MarkSent(ctx, m.ID, remoteID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Already flipped; nothing left to do.
			return
		}
		// The send went out but the flag write failed, so the entry
		// may be sent again next tick. At-least-once is the accepted
		// tradeoff here.
		slog.Error("failed to mark message sent", "id", m.ID, "error", err)
		return
	}

	slog.Info("message dispatched", "id", m.ID, "batch_id", m.BatchID, "remote_id", remoteID)

	if d.notifier != nil {
		pending, err := d.repo.ListPending(ctx)
		if err != nil {
			slog.Warn("failed to load pending set for broadcast", "error", err)
			return
		}
		d.notifier.Publish(notify.ScheduleSetChanged, pending)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
