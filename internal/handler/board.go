package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/repository"
)

// GetStats handles GET /api/stats.  It derives the dashboard summary
// from the active round.  When no round is active it returns the
// zero-state (empty board, round 1) rather than an error so fresh
// deployments render a usable dashboard.
func (h *GameHandler) GetStats(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusOK, model.GameStats{
                AvailableCount: model.BoardSize,
                CurrentRound:   1,
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch stats"})
    }
    squares, err := h.Squares.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch stats"})
    }
    participants, err := h.Participants.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch stats"})
    }
    return c.JSON(http.StatusOK, model.StatsFor(round, squares, len(participants)))
}

// GetGame handles GET /api/game.  It returns the active round together
// with its squares and participants, which is everything a seller UI
// needs to render the board.
func (h *GameHandler) GetGame(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active game round"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch game data"})
    }
    squares, err := h.Squares.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch game data"})
    }
    participants, err := h.Participants.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch game data"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "gameRound":    round,
        "squares":      squares,
        "participants": participants,
    })
}

// GetRound handles GET /api/game-round/:id for receipt views of past rounds.
func (h *GameHandler) GetRound(c echo.Context) error {
    round, err := h.Rounds.GetByID(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "game round not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get game round"})
    }
    return c.JSON(http.StatusOK, echo.Map{"gameRound": round})
}

// ListParticipants handles GET /api/participants, the admin view of
// all purchases in the active round.
func (h *GameHandler) ListParticipants(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active game round"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch participants"})
    }
    participants, err := h.Participants.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch participants"})
    }
    return c.JSON(http.StatusOK, participants)
}

// GetParticipant handles GET /api/participant/:id.
func (h *GameHandler) GetParticipant(c echo.Context) error {
    p, err := h.Participants.GetByID(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrParticipantNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get participant"})
    }
    return c.JSON(http.StatusOK, p)
}

// Export handles GET /api/export.  It returns the active round and its
// participants for external reporting.  When no round is active it
// returns an empty data set rather than an error.
func (h *GameHandler) Export(c echo.Context) error {
    ctx := c.Request().Context()
    round, err := h.Rounds.GetActive(ctx)
    if err != nil {
        if errors.Is(err, repository.ErrRoundNotFound) {
            return c.JSON(http.StatusOK, echo.Map{
                "participants": []model.Participant{},
                "gameRound":    nil,
                "message":      "no active game round",
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export data"})
    }
    participants, err := h.Participants.ListByRound(ctx, round.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export data"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "participants": participants,
        "gameRound":    round,
        "exportDate":   time.Now().UTC().Format(time.RFC3339),
    })
}
