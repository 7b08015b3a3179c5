package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestNotificationDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNotification(42, "Task completed: Buy milk", true)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: notification") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"message":"Task completed: Buy milk"`) {
			t.Errorf("missing message in %q", s)
		}
		if !strings.Contains(s, `"sound":true`) {
			t.Errorf("missing sound flag in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestDismissedDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDismissed(7)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: notification.dismissed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":7`) {
			t.Errorf("missing id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestStateChanged_StatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First task change should carry a stats.changed event.
	b.PublishStateChanged("tasks")
	// A second change right away should not repeat it.
	b.PublishStateChanged("tasks")
	// Note scope never touches stats at all.
	b.PublishStateChanged("notes")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	stateCount := 0
	statsCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "stats.changed") {
				statsCount++
			} else {
				stateCount++
			}
		default:
			break loop
		}
	}

	if stateCount != 3 {
		t.Errorf("state events = %d, want 3", stateCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishStateChanged("reminders")
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: state.changed") {
		t.Errorf("missing event in body %q", body)
	}
	if !strings.Contains(body, `"scope":"reminders"`) {
		t.Errorf("missing scope in body %q", body)
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed")
	}
	b.PublishNotification(1, "after close", false)
	if b.ClientCount() != 0 {
		t.Errorf("count after close = %d", b.ClientCount())
	}
}
