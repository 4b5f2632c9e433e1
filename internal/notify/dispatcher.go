package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sumire/storefront/internal/domain"
)

// EventSink receives events taken off the event queue.
type EventSink interface {
	Deliver(ctx context.Context, event domain.Event) error
}

// EmailSender delivers an email taken off the mail queue.
type EmailSender interface {
	Send(ctx context.Context, email domain.Email) error
}

// Dispatcher queues events and emails for background delivery. It satisfies
// the service Notifier and Mailer ports.
type Dispatcher struct {
	events *Queue[domain.Event]
	emails *Queue[domain.Email]
	sink   EventSink
	sender EmailSender
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher whose queues each hold queueSize items.
func NewDispatcher(sink EventSink, sender EmailSender, queueSize int, logger *zap.Logger) *Dispatcher {
	logger = logger.With(zap.String("component", "dispatcher"))
	return &Dispatcher{
		events: NewQueue[domain.Event]("events", queueSize, logger),
		emails: NewQueue[domain.Email]("emails", queueSize, logger),
		sink:   sink,
		sender: sender,
		now:    time.Now,
	}
}

// NotifySubscribers stamps the event with an ID and timestamp and queues it.
func (d *Dispatcher) NotifySubscribers(_ context.Context, event domain.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}
	d.events.Enqueue(event)
}

// EnqueueEmail queues an email.
func (d *Dispatcher) EnqueueEmail(_ context.Context, email domain.Email) {
	d.emails.Enqueue(email)
}

// Run drains both queues until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.events.Run(gctx, d.sink.Deliver)
		return nil
	})
	g.Go(func() error {
		d.emails.Run(gctx, d.sender.Send)
		return nil
	})
	return g.Wait()
}
