package service

import (
	"context"
	"log/slog"

	"github.com/digkill/PresetStore/internal/models"
)

// Notifier pushes events that need the admin's attention. Delivery is best effort and
// never affects the outcome of the command that raised the event.
type Notifier interface {
	TopUpRequested(ctx context.Context, trx models.Transaction)
	SecurityEvent(ctx context.Context, message string)
}

type NopNotifier struct{}

func (NopNotifier) TopUpRequested(context.Context, models.Transaction) {}

func (NopNotifier) SecurityEvent(context.Context, string) {}

const defaultNotifyBuffer = 64

// AsyncNotifier queues events for a slower Notifier and delivers them from Run. When
// the queue is full the event is dropped and logged.
type AsyncNotifier struct {
	next   Notifier
	log    *slog.Logger
	events chan func(ctx context.Context)
}

func NewAsyncNotifier(next Notifier, log *slog.Logger, buffer int) *AsyncNotifier {
	if buffer <= 0 {
		buffer = defaultNotifyBuffer
	}
	return &AsyncNotifier{
		next:   next,
		log:    log,
		events: make(chan func(ctx context.Context), buffer),
	}
}

// Run delivers queued events until ctx is done. Events still queued at that point are
// discarded.
func (n *AsyncNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case deliver := <-n.events:
			deliver(ctx)
		}
	}
}

func (n *AsyncNotifier) TopUpRequested(_ context.Context, trx models.Transaction) {
	n.enqueue("topup_requested", func(ctx context.Context) {
		n.next.TopUpRequested(ctx, trx)
	})
}

func (n *AsyncNotifier) SecurityEvent(_ context.Context, message string) {
	n.enqueue("security_event", func(ctx context.Context) {
		n.next.SecurityEvent(ctx, message)
	})
}

func (n *AsyncNotifier) enqueue(kind string, deliver func(ctx context.Context)) {
	select {
	case n.events <- deliver:
	default:
		n.log.Warn("notification dropped, queue full", "kind", kind)
	}
}
