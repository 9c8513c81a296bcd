package stream

import (
	"context"
	"testing"
	"time"

	"pharmadesk.org/internal/store"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)
	if got := b.Subscribers(); got != 2 {
		t.Fatalf("Subscribers = %d", got)
	}

	b.Publish(ActivityEvent{Kind: "mutation", Action: "CREATE", Resource: "product"})

	for i, ch := range []<-chan ActivityEvent{first, second} {
		select {
		case evt := <-ch:
			if evt.Kind != "mutation" || evt.Action != "CREATE" {
				t.Fatalf("subscriber %d got %+v", i, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestSubscribeClosesOnContextDone(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	deadline := time.Now().Add(time.Second)
	for b.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not unregistered: %d", b.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	// Channel buffer is 16; publishing more must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(ActivityEvent{Kind: "refresh"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	var received int
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received == 0 || received > 16 {
		t.Fatalf("received %d events, want 1..16", received)
	}
}

func TestFanoutRelaysMutation(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx)

	f := NewFanout(b)
	f.Record(context.Background(), store.MutationEvent{
		Action:     store.ActionDelete,
		Resource:   store.ResourceOrder,
		ResourceID: "o1",
		Name:       "CMD-2025-0412",
		Actor:      store.Session{Name: "Marie Lambert"},
		OccurredAt: time.Date(2025, 8, 21, 9, 5, 0, 0, time.UTC),
	})

	select {
	case evt := <-ch:
		if evt.Kind != "mutation" || evt.Action != "DELETE" || evt.Title != "CMD-2025-0412" {
			t.Fatalf("unexpected event: %+v", evt)
		}
		if evt.Actor != "Marie Lambert" {
			t.Fatalf("actor = %q", evt.Actor)
		}
	case <-time.After(time.Second):
		t.Fatal("no event relayed")
	}
}

func TestStartRefreshPublishesHeartbeat(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx)

	stop := b.StartRefresh(10 * time.Millisecond)
	defer stop()

	select {
	case evt := <-ch:
		if evt.Kind != "refresh" {
			t.Fatalf("kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no heartbeat received")
	}
}
