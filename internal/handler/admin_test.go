package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/model"
)

func squareRows(statuses []string) *sqlmock.Rows {
    now := time.Now().UTC()
    rows := sqlmock.NewRows([]string{
        "id", "number", "game_round_id", "participant_id", "status",
        "reserved_at", "sold_at", "created_at", "updated_at",
    })
    for i, status := range statuses {
        rows.AddRow(int64(i+1), i+1, "round-1", nil, status, nil, nil, now, now)
    }
    return rows
}

func drawWinner(t *testing.T, h *GameHandler) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/draw-winner", nil)
    rec := httptest.NewRecorder()
    if err := h.DrawWinner(e.NewContext(req, rec)); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func TestDrawWinnerOnCompletedRoundConflicts(t *testing.T) {
    h, mock := newMockHandler(t)

    // A second draw sees the round already completed and must stop
    // before touching the board.
    mock.ExpectQuery(`FROM game_rounds`).
        WillReturnRows(roundRows(model.RoundCompleted, 1000, 3000))

    rec := drawWinner(t, h)
    if rec.Code != http.StatusConflict {
        t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusConflict, rec.Body.String())
    }
    got := decodeBody(t, rec)
    if msg := got["error"].(string); msg != "round is already completed" {
        t.Fatalf("error = %q, want completion conflict", msg)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestDrawWinnerWithNoSoldSquaresConflicts(t *testing.T) {
    h, mock := newMockHandler(t)

    mock.ExpectQuery(`FROM game_rounds`).
        WillReturnRows(roundRows(model.RoundActive, 1000, 0))
    mock.ExpectQuery(`FROM squares`).
        WithArgs("round-1").
        WillReturnRows(squareRows([]string{model.SquareAvailable, model.SquareReserved}))

    rec := drawWinner(t, h)
    if rec.Code != http.StatusConflict {
        t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusConflict, rec.Body.String())
    }
    got := decodeBody(t, rec)
    if msg := got["error"].(string); msg != "no sold squares to draw from" {
        t.Fatalf("error = %q, want empty-pool conflict", msg)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}
