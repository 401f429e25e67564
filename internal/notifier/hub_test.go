package notifier

import (
    "testing"
    "time"
)

// recvEvent receives one event with a timeout so tests never hang.
func recvEvent(t *testing.T, ch <-chan Event, within time.Duration) Event {
    t.Helper()
    select {
    case ev, ok := <-ch:
        if !ok {
            t.Fatalf("subscriber channel closed unexpectedly")
        }
        return ev
    case <-time.After(within):
        t.Fatalf("timed out waiting for event")
        return Event{} // unreachable
    }
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
    h := NewHub()
    a, cancelA := h.Subscribe()
    b, cancelB := h.Subscribe()
    defer cancelA()
    defer cancelB()

    h.Broadcast(Event{Type: EventGameReset, Data: map[string]int{"roundNumber": 2}})

    for _, ch := range []<-chan Event{a, b} {
        ev := recvEvent(t, ch, time.Second)
        if ev.Type != EventGameReset {
            t.Fatalf("expected %s, got %s", EventGameReset, ev.Type)
        }
    }
}

func TestUnsubscribedObserverMissesEvents(t *testing.T) {
    h := NewHub()
    ch, cancel := h.Subscribe()
    cancel()

    h.Broadcast(Event{Type: EventStatsUpdate})

    if _, ok := <-ch; ok {
        t.Fatalf("cancelled subscriber should see a closed channel, not an event")
    }
    if h.Count() != 0 {
        t.Fatalf("expected 0 subscribers, got %d", h.Count())
    }
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
    h := NewHub()
    ch, cancel := h.Subscribe()
    defer cancel()

    // Overfill the buffer; Broadcast must never block.
    done := make(chan struct{})
    go func() {
        for i := 0; i < subscriberBuffer*2; i++ {
            h.Broadcast(Event{Type: EventSquareUpdate, Data: i})
        }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatalf("Broadcast blocked on a slow subscriber")
    }

    // The buffer holds at most subscriberBuffer events; the rest were dropped.
    received := 0
    for {
        select {
        case <-ch:
            received++
        default:
            if received != subscriberBuffer {
                t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, received)
            }
            return
        }
    }
}

func TestCancelTwiceIsSafe(t *testing.T) {
    h := NewHub()
    _, cancel := h.Subscribe()
    cancel()
    cancel() // must not panic
}
