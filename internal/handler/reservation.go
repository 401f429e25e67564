package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/repository"
)

// Reserve handles POST /api/reserve.  It is the only path that turns a
// soft selection into a committed, payable reservation.  The
// availability check and the reservation commit run inside one
// transaction, and the per-square updates are conditional on
// status=available, so two concurrent requests for the same square
// cannot both succeed: the loser observes a shortfall and the whole
// request is rolled back with the conflicting numbers enumerated.
func (h *GameHandler) Reserve(c echo.Context) error {
    var form ReserveForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    numbers, err := form.Validate()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active game round"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve squares"})
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

    unavailable, err := h.Squares.UnavailableTx(ctx, tx, numbers, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
    }
    if len(unavailable) > 0 {
        uerr := &repository.UnavailableError{Numbers: unavailable}
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       uerr.Error(),
            "unavailable": unavailable,
        })
    }

    participant := &model.Participant{
        ID:            uuid.NewString(),
        Name:          form.Name,
        Email:         form.Email,
        Phone:         form.Phone,
        RoundID:       round.ID,
        Squares:       numbers,
        TotalAmount:   len(numbers) * round.PricePerSquare,
        PaymentStatus: model.PaymentPending,
    }
    if err := h.Participants.CreateTx(ctx, tx, participant); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create participant"})
    }

    reserved, err := h.Squares.ReserveTx(ctx, tx, numbers, round.ID, participant.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve squares"})
    }
    if len(reserved) != len(numbers) {
        // A concurrent request won the race between our availability
        // check and the conditional updates.  Roll everything back.
        lost := missingNumbers(numbers, reserved)
        uerr := &repository.UnavailableError{Numbers: lost}
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       uerr.Error(),
            "unavailable": lost,
        })
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    // The soft claims are spent now that the reservation is committed.
    h.Broker.Drop(numbers)
    h.Hub.Broadcast(notifier.Event{Type: notifier.EventSquareUpdate, Data: echo.Map{
        "squares":       numbers,
        "status":        model.SquareReserved,
        "participantId": participant.ID,
        "action":        "reserve",
    }})

    return c.JSON(http.StatusCreated, echo.Map{"participant": participant})
}

// ConfirmPayment handles POST /api/confirm-payment/:participantId.  It
// flips the participant to paid, marks their squares sold and accrues
// the participant's total onto the round's revenue, all in one
// transaction.  Confirming an unknown participant is a hard 404;
// confirming twice is a 409.
func (h *GameHandler) ConfirmPayment(c echo.Context) error {
    participantID := c.Param("participantId")
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

    if err := h.Participants.SetPaymentStatusTx(ctx, tx, participantID, model.PaymentPending, model.PaymentPaid); err != nil {
        if errors.Is(err, repository.ErrParticipantNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
        }
        if errors.Is(err, repository.ErrInvalidState) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "payment already confirmed"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
    }
    soldNumbers, err := h.Squares.MarkSoldTx(ctx, tx, participantID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update squares"})
    }
    participant, err := h.Participants.GetByIDTx(ctx, tx, participantID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
    }
    if err := h.Rounds.AddRevenueTx(ctx, tx, participant.RoundID, participant.TotalAmount); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update revenue"})
    }
    round, err := h.Rounds.GetByID(ctx, participant.RoundID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventSquareUpdate, Data: echo.Map{
        "squares":       participant.Squares,
        "status":        model.SquareSold,
        "participantId": participant.ID,
        "action":        "confirm",
    }})
    h.Hub.Broadcast(notifier.Event{Type: notifier.EventParticipant, Data: participant})
    h.Hub.Broadcast(notifier.Event{Type: notifier.EventStatsUpdate, Data: echo.Map{
        "totalRevenue": round.TotalRevenue + participant.TotalAmount,
    }})

    return c.JSON(http.StatusOK, echo.Map{
        "participant": participant,
        "squares":     soldNumbers,
    })
}

// CancelReservation handles POST /api/cancel-reservation/:participantId.
// Cancelling is only permitted while payment is still pending; the
// squares are released and the participant record deleted.  Soft
// selections are deliberately left alone: selections and reservations
// are separate layers and any leftover entries simply age out.
func (h *GameHandler) CancelReservation(c echo.Context) error {
    participantID := c.Param("participantId")
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

    participant, err := h.Participants.GetByIDTx(ctx, tx, participantID)
    if err != nil {
        if errors.Is(err, repository.ErrParticipantNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
    }
    if participant.PaymentStatus != model.PaymentPending {
        return c.JSON(http.StatusConflict, echo.Map{"error": "cannot cancel paid reservation"})
    }
    if err := h.Squares.ReleaseTx(ctx, tx, participant.Squares, participant.RoundID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release squares"})
    }
    if err := h.Participants.DeleteTx(ctx, tx, participantID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete participant"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventSquareUpdate, Data: echo.Map{
        "squares":       participant.Squares,
        "status":        model.SquareAvailable,
        "participantId": nil,
        "action":        "cancel",
    }})

    return c.JSON(http.StatusOK, echo.Map{
        "success":         true,
        "releasedSquares": participant.Squares,
    })
}

// CleanupReservations handles POST /api/cleanup-reservations.  It
// reclaims reserved squares whose reservation has outlived the timeout
// and deletes participants left with no squares at all.  Running it
// when nothing is stale is a success with an empty effect list, so
// periodic callers need no special casing.
func (h *GameHandler) CleanupReservations(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active game round found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cleanup reservations"})
    }
    released, err := h.expireReservations(c, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cleanup reservations"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":        true,
        "message":        fmt.Sprintf("cleaned up %d expired reservations", len(released)),
        "cleanedSquares": released,
    })
}

// expireReservations runs one expiry pass for a round: it releases
// reserved squares whose reservation has outlived the timeout, deletes
// participants left holding no squares, and broadcasts the released
// numbers when there are any.  It is shared by the HTTP endpoint and
// the background cleanup task.
func (h *GameHandler) expireReservations(c echo.Context, roundID string) ([]int, error) {
    return h.ExpireReservations(c.Request().Context(), roundID)
}

// ExpireReservations is the context form of the expiry pass so non-HTTP
// callers can invoke it directly.
func (h *GameHandler) ExpireReservations(ctx context.Context, roundID string) ([]int, error) {
    tx, err := h.Rounds.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    released, owners, err := h.Squares.ExpireReservationsTx(ctx, tx, roundID, repository.ReservationTimeout)
    if err != nil {
        return nil, err
    }
    // A participant whose every reservation expired has nothing left
    // to pay for; drop the record rather than keep an orphan around.
    for _, ownerID := range owners {
        remaining, err := h.Squares.CountByParticipantTx(ctx, tx, ownerID)
        if err != nil {
            return nil, err
        }
        if remaining == 0 {
            if err := h.Participants.DeleteTx(ctx, tx, ownerID); err != nil {
                return nil, err
            }
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    if len(released) > 0 {
        h.Hub.Broadcast(notifier.Event{Type: notifier.EventSquareUpdate, Data: echo.Map{
            "squares":       released,
            "status":        model.SquareAvailable,
            "participantId": nil,
            "action":        "expire",
        }})
    }
    return released, nil
}
