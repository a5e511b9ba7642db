package progress

import (
	"testing"
	"time"

	"telemed-booking-core/internal/domain/ports"
)

func TestPublishDeliversToJobSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("job-1")
	defer cancel()

	hub.Publish(ports.ProgressEvent{JobID: "job-1", Status: "Processing"})

	select {
	case ev := <-ch:
		if ev.Status != "Processing" {
			t.Fatalf("expected Processing, got %s", ev.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishIgnoresOtherJobs(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("job-1")
	defer cancel()

	hub.Publish(ports.ProgressEvent{JobID: "job-2", Status: "Processing"})

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeGlobalReceivesEveryJob(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.SubscribeGlobal()
	defer cancel()

	hub.Publish(ports.ProgressEvent{JobID: "job-1", Status: "Queued"})
	hub.Publish(ports.ProgressEvent{JobID: "job-2", Status: "Queued"})

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for global event")
		}
	}
}

func TestPublishDropsForFullChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("job-1")
	defer cancel()

	for i := 0; i < channelCapacity+5; i++ {
		hub.Publish(ports.ProgressEvent{JobID: "job-1", Status: "Queued"})
	}

	count := 0
	draining := true
	for draining {
		select {
		case <-ch:
			count++
		default:
			draining = false
		}
	}
	if count > channelCapacity {
		t.Fatalf("expected at most %d buffered events, got %d", channelCapacity, count)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("job-1")
	cancel()

	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestSubscribeAgainEvictsPriorSubscriber(t *testing.T) {
	hub := NewHub()
	first, firstCancel := hub.Subscribe("job-1")
	defer firstCancel()

	second, secondCancel := hub.Subscribe("job-1")
	defer secondCancel()

	if _, ok := <-first; ok {
		t.Fatal("expected the first subscriber's channel to be closed when a second Subscribe call replaces it")
	}

	hub.Publish(ports.ProgressEvent{JobID: "job-1", Status: "Processing"})
	select {
	case ev := <-second:
		if ev.Status != "Processing" {
			t.Fatalf("expected Processing, got %s", ev.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on the surviving subscriber")
	}
}

func TestCancelAfterEvictionIsNoop(t *testing.T) {
	hub := NewHub()
	_, firstCancel := hub.Subscribe("job-1")
	second, secondCancel := hub.Subscribe("job-1")
	defer secondCancel()

	// The first subscriber's cancel must not tear down the second
	// subscriber that replaced it.
	firstCancel()

	hub.Publish(ports.ProgressEvent{JobID: "job-1", Status: "Processing"})
	select {
	case _, ok := <-second:
		if !ok {
			t.Fatal("expected the surviving subscriber's channel to remain open after the evicted subscriber's cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on the surviving subscriber")
	}
}
