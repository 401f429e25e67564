package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/repository"
    "github.com/jpaulsen/squares-raffle/internal/selection"
)

// newSelectionHandler builds a GameHandler whose selection endpoints
// are exercisable without a database; the repositories are never
// touched by the broker paths.
func newSelectionHandler() *GameHandler {
    return NewGameHandler(
        repository.NewRoundRepo(nil),
        repository.NewSquareRepo(nil),
        repository.NewParticipantRepo(nil),
        selection.NewBroker(),
        notifier.NewHub(),
    )
}

func postSelections(t *testing.T, h *GameHandler, body string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/selections", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    if err := h.ApplySelection(e.NewContext(req, rec)); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func listSelections(t *testing.T, h *GameHandler) []selection.Selection {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/selections", nil)
    rec := httptest.NewRecorder()
    if err := h.ListSelections(e.NewContext(req, rec)); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    var resp struct {
        Selections []selection.Selection `json:"selections"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("bad response body: %v", err)
    }
    return resp.Selections
}

func TestApplySelectionRoundTrip(t *testing.T) {
    h := newSelectionHandler()

    rec := postSelections(t, h, `{"squares":[5,9],"action":"select","sessionId":"sellerA"}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
    }

    sels := listSelections(t, h)
    if len(sels) != 2 {
        t.Fatalf("expected 2 selections, got %d", len(sels))
    }
    if sels[0].Square != 5 || sels[0].SelectedBy != "sellerA" {
        t.Fatalf("unexpected first selection: %+v", sels[0])
    }
}

func TestApplySelectionDefaultsToAnonymousSession(t *testing.T) {
    h := newSelectionHandler()

    postSelections(t, h, `{"squares":[12],"action":"select"}`)

    sels := listSelections(t, h)
    if len(sels) != 1 || sels[0].SelectedBy != "anonymous" {
        t.Fatalf("expected anonymous claim on square 12, got %+v", sels)
    }
}

func TestApplySelectionRejectsBadInput(t *testing.T) {
    h := newSelectionHandler()

    cases := []struct {
        name string
        body string
    }{
        {"unknown action", `{"squares":[1],"action":"grab","sessionId":"s"}`},
        {"no squares for select", `{"squares":[],"action":"select","sessionId":"s"}`},
        {"square out of range", `{"squares":[99],"action":"select","sessionId":"s"}`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := postSelections(t, h, tc.body)
            if rec.Code != http.StatusBadRequest {
                t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
            }
        })
    }
}

func TestApplySelectionClearNeedsNoSquares(t *testing.T) {
    h := newSelectionHandler()

    postSelections(t, h, `{"squares":[3,4],"action":"select","sessionId":"sellerA"}`)
    rec := postSelections(t, h, `{"action":"clear","sessionId":"sellerA"}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
    }
    if sels := listSelections(t, h); len(sels) != 0 {
        t.Fatalf("expected empty board after clear, got %+v", sels)
    }
}

func TestApplySelectionBroadcastsEvent(t *testing.T) {
    h := newSelectionHandler()
    events, cancel := h.Hub.Subscribe()
    defer cancel()

    postSelections(t, h, `{"squares":[7],"action":"select","sessionId":"sellerB"}`)

    select {
    case ev := <-events:
        if ev.Type != notifier.EventSelection {
            t.Fatalf("expected %s event, got %s", notifier.EventSelection, ev.Type)
        }
    default:
        t.Fatal("expected a selection event to be broadcast")
    }
}
