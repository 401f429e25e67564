package selection

import (
    "testing"
    "time"
)

// fakeClock returns a clock function plus an advance helper so tests
// can cross the staleness window without sleeping.
func fakeClock(start time.Time) (func() time.Time, func(d time.Duration)) {
    current := start
    return func() time.Time { return current },
        func(d time.Duration) { current = current.Add(d) }
}

func activeSquares(t *testing.T, b *Broker) []int {
    t.Helper()
    sels := b.ListActive()
    nums := make([]int, 0, len(sels))
    for _, s := range sels {
        nums = append(nums, s.Square)
    }
    return nums
}

func TestApplySelectFirstClaimWins(t *testing.T) {
    now, _ := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{5}, ActionSelect, "sessionA")
    b.Apply([]int{5}, ActionSelect, "sessionB")

    sels := b.ListActive()
    if len(sels) != 1 {
        t.Fatalf("expected 1 selection, got %d", len(sels))
    }
    if sels[0].Square != 5 || sels[0].SelectedBy != "sessionA" {
        t.Fatalf("square 5 should stay with sessionA, got %+v", sels[0])
    }
}

func TestApplyDeselectIsOwnerOnly(t *testing.T) {
    now, _ := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{1, 2}, ActionSelect, "sessionA")
    b.Apply([]int{1}, ActionDeselect, "sessionB") // not the owner: no-op
    if got := activeSquares(t, b); len(got) != 2 {
        t.Fatalf("foreign deselect must be ignored, got %v", got)
    }

    b.Apply([]int{1}, ActionDeselect, "sessionA")
    if got := activeSquares(t, b); len(got) != 1 || got[0] != 2 {
        t.Fatalf("owner deselect should leave only square 2, got %v", got)
    }
}

func TestApplyClearRemovesOnlyOwnSession(t *testing.T) {
    now, _ := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{1, 2, 3}, ActionSelect, "sessionA")
    b.Apply([]int{10}, ActionSelect, "sessionB")

    if n := b.Apply(nil, ActionClear, "sessionA"); n != 1 {
        t.Fatalf("expected 1 remaining selection after clear, got %d", n)
    }
    if got := activeSquares(t, b); len(got) != 1 || got[0] != 10 {
        t.Fatalf("sessionB's selection must survive sessionA's clear, got %v", got)
    }
}

func TestListActivePurgesStaleEntries(t *testing.T) {
    now, advance := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{7}, ActionSelect, "sessionA")
    advance(Staleness + time.Second) // T+121s

    if got := activeSquares(t, b); len(got) != 0 {
        t.Fatalf("selection older than the staleness window must be purged, got %v", got)
    }
}

func TestStaleClaimCanBeRetaken(t *testing.T) {
    now, advance := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{9}, ActionSelect, "sessionA")
    advance(Staleness + time.Millisecond)
    b.Apply([]int{9}, ActionSelect, "sessionB")

    sels := b.ListActive()
    if len(sels) != 1 || sels[0].SelectedBy != "sessionB" {
        t.Fatalf("expired claim should be retakeable, got %+v", sels)
    }
}

func TestDropIgnoresOwnership(t *testing.T) {
    now, _ := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{4, 5}, ActionSelect, "sessionA")
    b.Drop([]int{4, 5, 6}) // 6 never selected: harmless

    if got := activeSquares(t, b); len(got) != 0 {
        t.Fatalf("Drop must remove committed squares, got %v", got)
    }
}

func TestListActiveIsSortedByNumber(t *testing.T) {
    now, _ := fakeClock(time.Unix(1_700_000_000, 0))
    b := NewBrokerWithClock(now)

    b.Apply([]int{42, 3, 17}, ActionSelect, "sessionA")
    got := activeSquares(t, b)
    want := []int{3, 17, 42}
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("expected sorted %v, got %v", want, got)
        }
    }
}
