package tasks

import (
    "context"
    "errors"
    "testing"

    "github.com/hibiken/asynq"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/repository"
)

type fakeRounds struct {
    round *model.Round
    err   error
}

func (f *fakeRounds) GetActive(context.Context) (*model.Round, error) {
    return f.round, f.err
}

type fakeExpirer struct {
    calls    []string
    released []int
    err      error
}

func (f *fakeExpirer) ExpireReservations(_ context.Context, roundID string) ([]int, error) {
    f.calls = append(f.calls, roundID)
    return f.released, f.err
}

func cleanupTask(t *testing.T, payload string) *asynq.Task {
    t.Helper()
    return asynq.NewTask(TypeReservationCleanup, []byte(payload))
}

func TestHandleCleanupResolvesActiveRound(t *testing.T) {
    rounds := &fakeRounds{round: &model.Round{ID: "round-1"}}
    expirer := &fakeExpirer{released: []int{4, 9}}
    w := NewWorker(rounds, expirer)

    if err := w.HandleReservationCleanup(context.Background(), cleanupTask(t, `{"round_id":"active"}`)); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(expirer.calls) != 1 || expirer.calls[0] != "round-1" {
        t.Fatalf("expected one expiry pass on round-1, got %v", expirer.calls)
    }
}

func TestHandleCleanupNoActiveRoundIsNotAnError(t *testing.T) {
    rounds := &fakeRounds{err: repository.ErrRoundNotFound}
    expirer := &fakeExpirer{}
    w := NewWorker(rounds, expirer)

    if err := w.HandleReservationCleanup(context.Background(), cleanupTask(t, `{"round_id":"active"}`)); err != nil {
        t.Fatalf("quiet board should be a no-op, got %v", err)
    }
    if len(expirer.calls) != 0 {
        t.Fatalf("expected no expiry pass, got %v", expirer.calls)
    }
}

func TestHandleCleanupExplicitRoundSkipsLookup(t *testing.T) {
    rounds := &fakeRounds{err: errors.New("lookup should not happen")}
    expirer := &fakeExpirer{}
    w := NewWorker(rounds, expirer)

    if err := w.HandleReservationCleanup(context.Background(), cleanupTask(t, `{"round_id":"round-7"}`)); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(expirer.calls) != 1 || expirer.calls[0] != "round-7" {
        t.Fatalf("expected expiry pass on round-7, got %v", expirer.calls)
    }
}

func TestHandleCleanupPropagatesExpiryError(t *testing.T) {
    rounds := &fakeRounds{round: &model.Round{ID: "round-1"}}
    expirer := &fakeExpirer{err: errors.New("db gone")}
    w := NewWorker(rounds, expirer)

    if err := w.HandleReservationCleanup(context.Background(), cleanupTask(t, `{}`)); err == nil {
        t.Fatal("expected the expiry error to propagate so asynq retries")
    }
}
