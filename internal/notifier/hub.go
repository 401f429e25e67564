// Package notifier fans board-state events out to connected observers
// (seller and admin UIs).  Delivery is best-effort and at-most-once:
// observers that are not subscribed when an event is broadcast miss it
// entirely, and an observer whose buffer is full has the event dropped.
// There is no replay and no ordering guarantee across observers;
// clients reconcile by re-reading the authoritative endpoints.
package notifier

import "sync"

// Event types understood by board clients.
const (
    EventSquareUpdate  = "SQUARE_UPDATE"
    EventParticipant   = "PARTICIPANT_ADDED"
    EventGameReset     = "GAME_RESET"
    EventStatsUpdate   = "STATS_UPDATE"
    EventWinnerDrawn   = "WINNER_DRAWN"
    EventSelection     = "SQUARE_SELECTION"
    EventConnected     = "CONNECTION_ESTABLISHED"
)

// Event is one board update message.
type Event struct {
    Type string      `json:"type"`
    Data interface{} `json:"data"`
}

// subscriberBuffer is the per-observer channel capacity.  A slow
// observer loses events once the buffer fills rather than blocking the
// broadcaster.
const subscriberBuffer = 16

// Hub is the fan-out registry.  Zero value is not usable; construct
// with NewHub.
type Hub struct {
    mu   sync.Mutex
    subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
    return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers an observer and returns its event channel plus a
// cancel function.  The channel is closed by the cancel function;
// cancelling twice is safe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
    ch := make(chan Event, subscriberBuffer)
    h.mu.Lock()
    h.subs[ch] = struct{}{}
    h.mu.Unlock()
    var once sync.Once
    cancel := func() {
        once.Do(func() {
            h.mu.Lock()
            delete(h.subs, ch)
            h.mu.Unlock()
            close(ch)
        })
    }
    return ch, cancel
}

// Broadcast delivers the event to every current subscriber without
// blocking; subscribers with full buffers are skipped.
func (h *Hub) Broadcast(ev Event) {
    h.mu.Lock()
    defer h.mu.Unlock()
    for ch := range h.subs {
        select {
        case ch <- ev:
        default: // observer too slow, drop
        }
    }
}

// Count returns the number of currently connected observers.
func (h *Hub) Count() int {
    h.mu.Lock()
    defer h.mu.Unlock()
    return len(h.subs)
}
