// Package tasks wires the optional asynq-backed background jobs.  The
// only job today is the periodic reservation cleanup, which keeps the
// board from starving when nobody calls the cleanup endpoint by hand.
package tasks

import (
    "context"
    "encoding/json"
    "errors"
    "log"

    "github.com/hibiken/asynq"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/repository"
)

// TypeReservationCleanup identifies the periodic cleanup task.
const TypeReservationCleanup = "reservation:cleanup"

// ReservationCleanupPayload is the task payload.  RoundID "active"
// means "whatever round is active when the task runs"; the scheduler
// always enqueues that form since it cannot know future round IDs.
type ReservationCleanupPayload struct {
    RoundID string `json:"round_id"`
}

// ActiveRoundSource yields the currently active round.
type ActiveRoundSource interface {
    GetActive(ctx context.Context) (*model.Round, error)
}

// ReservationExpirer runs one expiry pass over a round's reservations
// and reports the released square numbers.
type ReservationExpirer interface {
    ExpireReservations(ctx context.Context, roundID string) ([]int, error)
}

// Worker holds the collaborators the task handlers need.
type Worker struct {
    rounds  ActiveRoundSource
    expirer ReservationExpirer
}

// NewWorker constructs a Worker and panics if any dependency is nil.
func NewWorker(rounds ActiveRoundSource, expirer ReservationExpirer) *Worker {
    if rounds == nil || expirer == nil {
        panic("nil dependency passed to NewWorker")
    }
    return &Worker{rounds: rounds, expirer: expirer}
}

// HandleReservationCleanup processes one reservation:cleanup task.  No
// active round is not an error: the board is simply quiet.
func (w *Worker) HandleReservationCleanup(ctx context.Context, t *asynq.Task) error {
    var payload ReservationCleanupPayload
    if err := json.Unmarshal(t.Payload(), &payload); err != nil {
        return err
    }
    roundID := payload.RoundID
    if roundID == "" || roundID == "active" {
        round, err := w.rounds.GetActive(ctx)
        if err != nil {
            if errors.Is(err, repository.ErrRoundNotFound) {
                return nil
            }
            return err
        }
        roundID = round.ID
    }
    released, err := w.expirer.ExpireReservations(ctx, roundID)
    if err != nil {
        return err
    }
    if len(released) > 0 {
        log.Printf("cleanup: released %d expired reservations: %v", len(released), released)
    }
    return nil
}

// Run starts the asynq server and the minutely cleanup schedule.  It
// blocks, so callers run it in a goroutine; any startup failure is
// fatal since a half-started worker would silently never clean up.
func Run(redisAddr string, w *Worker) {
    redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

    srv := asynq.NewServer(redisOpt, asynq.Config{
        Concurrency: 2,
        Queues: map[string]int{
            "default": 1,
        },
    })
    mux := asynq.NewServeMux()
    mux.HandleFunc(TypeReservationCleanup, w.HandleReservationCleanup)

    scheduler := asynq.NewScheduler(redisOpt, nil)
    payload, _ := json.Marshal(ReservationCleanupPayload{RoundID: "active"})
    if _, err := scheduler.Register("*/1 * * * *", asynq.NewTask(TypeReservationCleanup, payload)); err != nil {
        log.Fatal("cleanup scheduler register failed: ", err)
    }
    go func() {
        if err := scheduler.Run(); err != nil {
            log.Fatal("cleanup scheduler failed to start: ", err)
        }
    }()

    if err := srv.Run(mux); err != nil {
        log.Fatal("cleanup worker failed to start: ", err)
    }
}
