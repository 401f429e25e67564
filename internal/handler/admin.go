package handler

import (
    "errors"
    "math/rand"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/queue"
    "github.com/jpaulsen/squares-raffle/internal/repository"
    queue_publisher "github.com/jpaulsen/squares-raffle/internal/service"
)

// newRoundForm is the optional request body for POST /api/new-round.
type newRoundForm struct {
    PricePerSquare *int `json:"pricePerSquare"`
}

// updatePriceForm is the request body for POST /api/update-price.
type updatePriceForm struct {
    PricePerSquare int `json:"pricePerSquare"`
}

// manualWinnerForm is the request body for POST /api/manual-winner.
type manualWinnerForm struct {
    WinnerSquare int `json:"winnerSquare"`
}

// NewRound handles POST /api/new-round.  The prior active round, if
// any, is flipped to completed without a winner; the new round gets the
// next sequential number and a fresh board of 65 squares.  The price
// comes from the request body when given, otherwise it is inherited
// from the previous round, falling back to the default for the very
// first round.
func (h *GameHandler) NewRound(c echo.Context) error {
    var form newRoundForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if form.PricePerSquare != nil && *form.PricePerSquare <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "pricePerSquare must be positive"})
    }
    ctx := c.Request().Context()

    price := model.DefaultPriceCents
    prior, err := h.Rounds.GetCurrent(ctx)
    if err != nil && !errors.Is(err, repository.ErrRoundNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start new round"})
    }
    if prior != nil {
        price = prior.PricePerSquare
    }
    if form.PricePerSquare != nil {
        price = *form.PricePerSquare
    }

    tx, err := h.Rounds.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if prior != nil && prior.Status == model.RoundActive {
        if err := h.Rounds.MarkCompletedTx(ctx, tx, prior.ID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete current round"})
        }
    }
    number, err := h.Rounds.NextRoundNumberTx(ctx, tx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start new round"})
    }
    round := &model.Round{
        ID:             uuid.NewString(),
        RoundNumber:    number,
        Status:         model.RoundActive,
        PricePerSquare: price,
    }
    if err := h.Rounds.CreateTx(ctx, tx, round); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create round"})
    }
    if err := h.Squares.InitializeTx(ctx, tx, round.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to initialize squares"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventGameReset, Data: echo.Map{
        "gameRound": round,
    }})
    return c.JSON(http.StatusCreated, echo.Map{"gameRound": round})
}

// UpdatePrice handles POST /api/update-price.  Repricing only applies
// to the active round; already-reserved squares keep the total they
// were priced at.
func (h *GameHandler) UpdatePrice(c echo.Context) error {
    var form updatePriceForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if form.PricePerSquare <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "pricePerSquare must be positive"})
    }
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active game round found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update price"})
    }
    if err := h.Rounds.UpdatePrice(ctx, round.ID, form.PricePerSquare); err != nil {
        if errors.Is(err, repository.ErrInvalidState) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "round is no longer active"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update price"})
    }
    round.PricePerSquare = form.PricePerSquare

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventStatsUpdate, Data: echo.Map{
        "pricePerSquare": form.PricePerSquare,
    }})
    return c.JSON(http.StatusOK, echo.Map{"gameRound": round})
}

// DrawWinner handles POST /api/draw-winner.  The winning square is
// chosen uniformly at random among sold squares only; reserved but
// unpaid squares never win.  Drawing against a round that has already
// been completed is a conflict, not a missing round.
func (h *GameHandler) DrawWinner(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetCurrent(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no game round found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to draw winner"})
    }
    if round.Status != model.RoundActive {
        return c.JSON(http.StatusConflict, echo.Map{"error": "round is already completed"})
    }
    squares, err := h.Squares.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to draw winner"})
    }
    sold := make([]int, 0, len(squares))
    for _, sq := range squares {
        if sq.Status == model.SquareSold {
            sold = append(sold, sq.Number)
        }
    }
    if len(sold) == 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "no sold squares to draw from"})
    }
    winner := pickWinner(sold, rand.Intn)
    return h.completeRound(c, round, winner, false)
}

// ManualWinner handles POST /api/manual-winner.  Used when the draw is
// performed physically (raffle drum, live event) and the result is
// recorded after the fact.  The chosen square must be sold.
func (h *GameHandler) ManualWinner(c echo.Context) error {
    var form manualWinnerForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if form.WinnerSquare < 1 || form.WinnerSquare > model.BoardSize {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "winnerSquare must be between 1 and 65"})
    }
    ctx := c.Request().Context()
    round, err := h.Rounds.GetCurrent(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no game round found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record winner"})
    }
    if round.Status != model.RoundActive {
        return c.JSON(http.StatusConflict, echo.Map{"error": "round is already completed"})
    }
    sq, err := h.Squares.GetByNumber(ctx, form.WinnerSquare, round.ID)
    if err != nil {
        if errors.Is(err, repository.ErrSquareNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "square not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record winner"})
    }
    if sq.Status != model.SquareSold {
        return c.JSON(http.StatusConflict, echo.Map{"error": "winning square must be sold"})
    }
    return h.completeRound(c, round, form.WinnerSquare, true)
}

// completeRound finishes a round with the given winning square: it
// flips the round to completed, looks up the winning participant, and
// announces the result to observers and the message broker.  Both the
// random draw and the manual draw end up here so the two paths cannot
// diverge.
func (h *GameHandler) completeRound(c echo.Context, round *model.Round, winnerSquare int, manual bool) error {
    ctx := c.Request().Context()

    sq, err := h.Squares.GetByNumber(ctx, winnerSquare, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete round"})
    }
    if sq.ParticipantID == nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "winning square has no owner"})
    }
    participant, err := h.Participants.GetByID(ctx, *sq.ParticipantID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete round"})
    }

    tx, err := h.Rounds.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Rounds.CompleteWithWinnerTx(ctx, tx, round.ID, winnerSquare); err != nil {
        if errors.Is(err, repository.ErrInvalidState) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "round is already completed"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete round"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    squares, err := h.Squares.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete round"})
    }
    soldCount := 0
    for _, s := range squares {
        if s.Status == model.SquareSold {
            soldCount++
        }
    }

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventWinnerDrawn, Data: echo.Map{
        "winnerSquare": winnerSquare,
        "winnerId":     participant.ID,
        "winnerName":   participant.Name,
        "totalPot":     round.TotalRevenue,
    }})

    // Broker notification is best effort; the round is already
    // completed in the database and consumers can catch up later.
    _ = queue_publisher.PublishRoundCompleted(ctx, queue.RoundCompletedEvent{
        RoundID:         round.ID,
        RoundNumber:     round.RoundNumber,
        WinnerSquare:    winnerSquare,
        WinnerID:        participant.ID,
        WinnerName:      participant.Name,
        WinnerEmail:     participant.Email,
        TotalPotCents:   round.TotalRevenue,
        SquaresSold:     soldCount,
        ManualSelection: manual,
        CompletedAt:     time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{
        "winnerSquare": winnerSquare,
        "winnerId":     participant.ID,
        "winnerName":   participant.Name,
        "totalPot":     round.TotalRevenue,
    })
}

// ResetSystem handles POST /api/reset-system.  Everything goes: all
// squares, participants and rounds are deleted in foreign key order and
// a fresh Round 1 is created at the default price.  The soft selection
// layer is emptied too since none of its claims can refer to anything
// anymore.
func (h *GameHandler) ResetSystem(c echo.Context) error {
    ctx := c.Request().Context()

    tx, err := h.Rounds.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Squares.DeleteAllTx(ctx, tx); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset system"})
    }
    if err := h.Participants.DeleteAllTx(ctx, tx); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset system"})
    }
    if err := h.Rounds.DeleteAllTx(ctx, tx); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset system"})
    }
    round := &model.Round{
        ID:             uuid.NewString(),
        RoundNumber:    1,
        Status:         model.RoundActive,
        PricePerSquare: model.DefaultPriceCents,
    }
    if err := h.Rounds.CreateTx(ctx, tx, round); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset system"})
    }
    if err := h.Squares.InitializeTx(ctx, tx, round.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset system"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.Broker.Reset()
    h.Hub.Broadcast(notifier.Event{Type: notifier.EventGameReset, Data: echo.Map{
        "gameRound": round,
    }})
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "gameRound": round,
    })
}
