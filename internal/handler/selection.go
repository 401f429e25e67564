package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/selection"
)

// selectionForm is the request body for POST /api/selections.
type selectionForm struct {
    Squares   []int  `json:"squares"`
    Action    string `json:"action"`
    SessionID string `json:"sessionId"`
}

// ListSelections handles GET /api/selections.  Stale claims are purged
// as a side effect, so the response only ever shows live ones.
func (h *GameHandler) ListSelections(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "selections": h.Broker.ListActive(),
    })
}

// ApplySelection handles POST /api/selections.  Selections are
// advisory claims, not reservations: select follows first-claim-wins
// and silently skips squares already claimed by someone else, deselect
// and clear only touch the caller's own claims.  Sessions that do not
// identify themselves share the anonymous bucket.
func (h *GameHandler) ApplySelection(c echo.Context) error {
    var form selectionForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    switch form.Action {
    case selection.ActionSelect, selection.ActionDeselect:
        if len(form.Squares) == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one square is required"})
        }
        for _, n := range form.Squares {
            if n < 1 || n > model.BoardSize {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "square number out of range"})
            }
        }
    case selection.ActionClear:
        // No square list needed; clear applies to the whole session.
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be select, deselect or clear"})
    }
    sessionID := form.SessionID
    if sessionID == "" {
        sessionID = "anonymous"
    }

    held := h.Broker.Apply(form.Squares, form.Action, sessionID)

    h.Hub.Broadcast(notifier.Event{Type: notifier.EventSelection, Data: echo.Map{
        "squares":   form.Squares,
        "action":    form.Action,
        "sessionId": sessionID,
    }})
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "held":       held,
        "selections": h.Broker.ListActive(),
    })
}
