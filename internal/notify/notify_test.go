package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	got    chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: make(chan struct{}, 16)}
}

func (s *recordingSink) Deliver(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.got <- struct{}{}
	return nil
}

func (s *recordingSink) Send(_ context.Context, email domain.Email) error {
	s.got <- struct{}{}
	if email.To == "" {
		return errors.New("no recipient")
	}
	return nil
}

func (s *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestQueue_DropsNewestWhenFull(t *testing.T) {
	q := NewQueue[int]("test", 2, zap.NewNop())

	if !q.Enqueue(1) || !q.Enqueue(2) {
		t.Fatal("expected first two items to be accepted")
	}
	if q.Enqueue(3) {
		t.Error("expected third item to be dropped")
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", q.Dropped())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(_ context.Context, v int) error {
			got = append(got, v)
			if len(got) == 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2] in order, got %v", got)
	}
}

func TestDispatcher_StampsAndDelivers(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, sink, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	d.NotifySubscribers(ctx, domain.Event{Type: domain.EventCategoryCreated, ResourceID: 7})
	d.EnqueueEmail(ctx, domain.Email{To: "admin@example.com", Subject: "hi"})
	d.EnqueueEmail(ctx, domain.Email{})
	sink.wait(t, 3)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("expected event to be stamped, got %+v", e)
	}
	if e.ResourceID != 7 {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestDispatcher_NeverBlocksCaller(t *testing.T) {
	d := NewDispatcher(newRecordingSink(), newRecordingSink(), 1, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.NotifySubscribers(context.Background(), domain.Event{Type: domain.EventOrderPlaced})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifySubscribers blocked without a running worker")
	}
	if d.events.Dropped() != 9 {
		t.Errorf("expected 9 dropped events, got %d", d.events.Dropped())
	}
}

type fakePublisher struct {
	channel string
	event   domain.Event
}

func (p *fakePublisher) Publish(_ context.Context, channel string, event domain.Event) error {
	p.channel = channel
	p.event = event
	return nil
}

func TestPublishSinkAndRelay(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewPublishSink(pub, "events")
	if err := sink.Deliver(context.Background(), domain.Event{ID: "e1"}); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if pub.channel != "events" || pub.event.ID != "e1" {
		t.Errorf("unexpected publish %+v", pub)
	}

	in := make(chan domain.Event, 2)
	in <- domain.Event{ID: "a"}
	in <- domain.Event{ID: "b"}
	close(in)

	out := newRecordingSink()
	Relay(context.Background(), in, out, zap.NewNop())
	if len(out.events) != 2 || out.events[1].ID != "b" {
		t.Errorf("expected both events relayed in order, got %+v", out.events)
	}
}

func TestViewer_CanSee(t *testing.T) {
	anonymous := Viewer{}
	buyer := Viewer{UserID: 7}
	other := Viewer{UserID: 8}
	admin := Viewer{UserID: 1, Admin: true}

	tests := []struct {
		name   string
		event  domain.Event
		viewer Viewer
		want   bool
	}{
		{name: "category to anonymous", event: domain.Event{Type: domain.EventCategoryCreated}, viewer: anonymous, want: true},
		{name: "user to anonymous", event: domain.Event{Type: domain.EventUserCreated}, viewer: anonymous, want: false},
		{name: "user to customer", event: domain.Event{Type: domain.EventUserUpdated}, viewer: buyer, want: false},
		{name: "user to admin", event: domain.Event{Type: domain.EventUserDeleted}, viewer: admin, want: true},
		{name: "order to anonymous", event: domain.Event{Type: domain.EventOrderPlaced, OwnerID: 7}, viewer: anonymous, want: false},
		{name: "order to buyer", event: domain.Event{Type: domain.EventOrderPlaced, OwnerID: 7}, viewer: buyer, want: true},
		{name: "order to another customer", event: domain.Event{Type: domain.EventOrderCancelled, OwnerID: 7}, viewer: other, want: false},
		{name: "ownerless order to anonymous", event: domain.Event{Type: domain.EventOrderPlaced}, viewer: anonymous, want: false},
		{name: "order to admin", event: domain.Event{Type: domain.EventOrderCancelled, OwnerID: 7}, viewer: admin, want: true},
		{name: "unknown kind to customer", event: domain.Event{Type: "audit.logged"}, viewer: buyer, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.viewer.CanSee(tt.event); got != tt.want {
				t.Errorf("CanSee = %v, want %v", got, tt.want)
			}
		})
	}
}
