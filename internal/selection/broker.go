// Package selection implements the in-memory registry of transient
// square picks shared across concurrent seller sessions.  A selection
// is advisory: it lets sellers see each other's in-progress picks and
// discourages double-picking before a reservation is committed, but it
// carries no transactional guarantee.  Broker state is process-local
// and is acceptable to lose on restart.
package selection

import (
    "sort"
    "sync"
    "time"
)

// Staleness is the window after which an untouched selection becomes
// invalid and is purged lazily.
const Staleness = 2 * time.Minute

// Actions accepted by Apply.
const (
    ActionSelect   = "select"
    ActionDeselect = "deselect"
    ActionClear    = "clear"
)

// Selection is one transient claim: a session considering a square.
type Selection struct {
    Square     int    `json:"square"`
    SelectedBy string `json:"selectedBy"`
    Timestamp  int64  `json:"timestamp"` // unix milliseconds
}

type entry struct {
    sessionID string
    at        time.Time
}

// Broker owns the selection map.  All methods are safe for concurrent
// use.  The clock is injected so staleness can be tested without
// sleeping.
type Broker struct {
    mu      sync.Mutex
    entries map[int]entry
    now     func() time.Time
}

// NewBroker returns an empty Broker using the real clock.
func NewBroker() *Broker {
    return &Broker{entries: make(map[int]entry), now: time.Now}
}

// NewBrokerWithClock returns an empty Broker reading time from now.
func NewBrokerWithClock(now func() time.Time) *Broker {
    return &Broker{entries: make(map[int]entry), now: now}
}

// purgeLocked drops entries older than the staleness window.  Callers
// must hold the mutex.
func (b *Broker) purgeLocked() {
    cutoff := b.now().Add(-Staleness)
    for sq, e := range b.entries {
        if e.at.Before(cutoff) {
            delete(b.entries, sq)
        }
    }
}

// ListActive purges stale entries and returns the remaining selections
// ordered by square number.
func (b *Broker) ListActive() []Selection {
    b.mu.Lock()
    defer b.mu.Unlock()
    b.purgeLocked()
    result := make([]Selection, 0, len(b.entries))
    for sq, e := range b.entries {
        result = append(result, Selection{
            Square:     sq,
            SelectedBy: e.sessionID,
            Timestamp:  e.at.UnixMilli(),
        })
    }
    sort.Slice(result, func(i, j int) bool { return result[i].Square < result[j].Square })
    return result
}

// Apply performs a select, deselect or clear action for a session and
// returns the number of selections currently held.  Select follows
// first-claim-wins: squares already claimed by a different session are
// silently skipped, with no queueing.  Deselect only removes claims
// owned by the same session.  Clear removes every claim of the
// session.  Unknown actions are ignored.
func (b *Broker) Apply(squares []int, action, sessionID string) int {
    b.mu.Lock()
    defer b.mu.Unlock()
    b.purgeLocked()
    switch action {
    case ActionSelect:
        now := b.now()
        for _, sq := range squares {
            if _, taken := b.entries[sq]; !taken {
                b.entries[sq] = entry{sessionID: sessionID, at: now}
            }
        }
    case ActionDeselect:
        for _, sq := range squares {
            if e, ok := b.entries[sq]; ok && e.sessionID == sessionID {
                delete(b.entries, sq)
            }
        }
    case ActionClear:
        for sq, e := range b.entries {
            if e.sessionID == sessionID {
                delete(b.entries, sq)
            }
        }
    }
    return len(b.entries)
}

// Reset empties the registry entirely.  Used by the full system reset,
// after which no claim can refer to an existing board.
func (b *Broker) Reset() {
    b.mu.Lock()
    defer b.mu.Unlock()
    b.entries = make(map[int]entry)
}

// Drop removes the given squares from the registry regardless of which
// session claimed them.  Called after a reservation commits, when the
// soft claims have served their purpose.
func (b *Broker) Drop(squares []int) {
    b.mu.Lock()
    defer b.mu.Unlock()
    for _, sq := range squares {
        delete(b.entries, sq)
    }
}
