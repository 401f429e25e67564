package main // Entry point package

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"
    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/config"
    "github.com/jpaulsen/squares-raffle/internal/database"
    "github.com/jpaulsen/squares-raffle/internal/handler"
    "github.com/jpaulsen/squares-raffle/internal/middleware"
    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/queue"
    "github.com/jpaulsen/squares-raffle/internal/repository"
    "github.com/jpaulsen/squares-raffle/internal/router"
    "github.com/jpaulsen/squares-raffle/internal/selection"
    "github.com/jpaulsen/squares-raffle/internal/tasks"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    rounds := repository.NewRoundRepo(db)
    squares := repository.NewSquareRepo(db)
    participants := repository.NewParticipantRepo(db)

    if err := ensureActiveRound(ctx, db, rounds, squares); err != nil {
        log.Fatalf("bootstrap round: %v", err)
    }

    broker := selection.NewBroker()
    hub := notifier.NewHub()
    h := handler.NewGameHandler(rounds, squares, participants, broker, hub)

    // Redis is optional: when unreachable the cache and rate limiter
    // become pass-throughs and the server runs uncached but correct.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; response cache and rate limiting disabled")
    }
    cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    // Winner audit trail consumer; reconnects on its own.
    go func() {
        if err := queue.StartWinnerConsumer(); err != nil {
            log.Printf("winner consumer stopped: %v", err)
        }
    }()

    if cfg.CleanupScheduler {
        worker := tasks.NewWorker(rounds, h)
        go tasks.Run(config.RedisAddr(), worker)
        log.Println("reservation cleanup scheduler enabled")
    }

    e := echo.New()
    e.HideBanner = true
    router.RegisterRoutes(e, h, cacheMW, rateMW)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

// ensureActiveRound creates Round 1 with a fresh board when the
// database holds no active round, so a new install is playable without
// an admin call.  Installations whose latest round was completed keep
// that state; starting the next round is an explicit admin action.
func ensureActiveRound(ctx context.Context, db *sql.DB, rounds *repository.RoundRepo, squares *repository.SquareRepo) error {
    if _, err := rounds.GetCurrent(ctx); err == nil {
        return nil
    } else if !errors.Is(err, repository.ErrRoundNotFound) {
        return err
    }

    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    round := &model.Round{
        ID:             uuid.NewString(),
        RoundNumber:    1,
        Status:         model.RoundActive,
        PricePerSquare: model.DefaultPriceCents,
    }
    if err := rounds.CreateTx(ctx, tx, round); err != nil {
        return err
    }
    if err := squares.InitializeTx(ctx, tx, round.ID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    log.Printf("created initial round %s (number %d)", round.ID, round.RoundNumber)
    return nil
}
