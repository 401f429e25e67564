package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/repository"
)

// winnerEntry is the serialized form of one decided round.
type winnerEntry struct {
    RoundID      string `json:"gameRoundId"`
    RoundNumber  int    `json:"roundNumber"`
    WinnerSquare int    `json:"winnerSquare"`
    WinnerID     string `json:"winnerId,omitempty"`
    WinnerName   string `json:"winnerName,omitempty"`
    TotalPot     int    `json:"totalPot"`
    CompletedAt  string `json:"completedAt,omitempty"`
}

// winnerFor resolves the winning participant of a completed round.  A
// round completed without a draw (superseded by a new round) has no
// winner and yields ErrRoundNotFound; a winner whose participant record
// was since deleted still reports the square and pot.
func (h *GameHandler) winnerFor(ctx context.Context, round *model.Round) (*winnerEntry, error) {
    if round.WinnerSquare == nil {
        return nil, repository.ErrRoundNotFound
    }
    entry := &winnerEntry{
        RoundID:      round.ID,
        RoundNumber:  round.RoundNumber,
        WinnerSquare: *round.WinnerSquare,
        TotalPot:     round.TotalRevenue,
    }
    if round.CompletedAt != nil {
        entry.CompletedAt = round.CompletedAt.UTC().Format(time.RFC3339)
    }
    sq, err := h.Squares.GetByNumber(ctx, *round.WinnerSquare, round.ID)
    if err != nil {
        if errors.Is(err, repository.ErrSquareNotFound) {
            return entry, nil
        }
        return nil, err
    }
    if sq.ParticipantID != nil {
        participant, err := h.Participants.GetByID(ctx, *sq.ParticipantID)
        if err == nil {
            entry.WinnerID = participant.ID
            entry.WinnerName = participant.Name
        } else if !errors.Is(err, repository.ErrParticipantNotFound) {
            return nil, err
        }
    }
    return entry, nil
}

// Winner handles GET /api/winner: the winner of the most recent round.
// A round still in progress, or one superseded without a draw, has no
// winner yet.
func (h *GameHandler) Winner(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetCurrent(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no game round found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winner"})
    }
    entry, err := h.winnerFor(ctx, round)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no winner has been drawn yet"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winner"})
    }
    return c.JSON(http.StatusOK, echo.Map{"winner": entry})
}

// WinnerByRound handles GET /api/winner/:roundId.
func (h *GameHandler) WinnerByRound(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetByID(ctx, c.Param("roundId"))
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "game round not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winner"})
    }
    entry, err := h.winnerFor(ctx, round)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "round has no winner"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winner"})
    }
    return c.JSON(http.StatusOK, echo.Map{"winner": entry})
}

// Winners handles GET /api/winners: every decided round, most recent
// first.  Superseded rounds without a winner are skipped.
func (h *GameHandler) Winners(c echo.Context) error {
    ctx := c.Request().Context()
    rounds, err := h.Rounds.ListCompleted(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winners"})
    }
    winners := make([]*winnerEntry, 0, len(rounds))
    for i := range rounds {
        entry, err := h.winnerFor(ctx, &rounds[i])
        if err != nil {
            if errors.Is(err, repository.ErrRoundNotFound) {
                continue
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch winners"})
        }
        winners = append(winners, entry)
    }
    return c.JSON(http.StatusOK, echo.Map{"winners": winners})
}

// MarketingParticipants handles GET /api/marketing/participants: every
// participant across all rounds, newest first.
func (h *GameHandler) MarketingParticipants(c echo.Context) error {
    participants, err := h.Participants.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch participants"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "participants": participants,
        "count":        len(participants),
    })
}

// MarketingHistory handles GET /api/marketing/history: all completed
// rounds including those superseded without a winner.
func (h *GameHandler) MarketingHistory(c echo.Context) error {
    rounds, err := h.Rounds.ListCompleted(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch history"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "rounds": rounds,
        "count":  len(rounds),
    })
}

// MarketingWinners handles GET /api/marketing/winners.  Same data as
// /api/winners, kept as a separate route so the marketing surface can
// evolve independently.
func (h *GameHandler) MarketingWinners(c echo.Context) error {
    return h.Winners(c)
}

// MarketingByEmail handles GET /api/marketing/participant/email/:email.
func (h *GameHandler) MarketingByEmail(c echo.Context) error {
    participants, err := h.Participants.ListByEmail(c.Request().Context(), c.Param("email"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch participants"})
    }
    if len(participants) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no participants found for email"})
    }
    return c.JSON(http.StatusOK, echo.Map{"participants": participants})
}

// MarketingByPhone handles GET /api/marketing/participant/phone/:phone.
func (h *GameHandler) MarketingByPhone(c echo.Context) error {
    participants, err := h.Participants.ListByPhone(c.Request().Context(), c.Param("phone"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch participants"})
    }
    if len(participants) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no participants found for phone"})
    }
    return c.JSON(http.StatusOK, echo.Map{"participants": participants})
}
