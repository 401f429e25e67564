package handler // handler defines http handlers

import (
    "errors"
    "fmt"
    "strings"

    "github.com/jpaulsen/squares-raffle/internal/model"
    "github.com/jpaulsen/squares-raffle/internal/notifier"
    "github.com/jpaulsen/squares-raffle/internal/repository"
    "github.com/jpaulsen/squares-raffle/internal/selection"
)

// GameHandler bundles the repositories and collaborators used by the
// seller-facing board and reservation endpoints.  Reservation state
// changes run inside a single transaction so availability checks and
// commits cannot interleave with a competing request.
type GameHandler struct {
    Rounds       *repository.RoundRepo       // round lookups and revenue accrual
    Squares      *repository.SquareRepo      // authoritative board state
    Participants *repository.ParticipantRepo // purchase records
    Broker       *selection.Broker           // transient soft selections
    Hub          *notifier.Hub               // board event fan-out
}

// NewGameHandler constructs a GameHandler and panics if any dependency is nil.
func NewGameHandler(rounds *repository.RoundRepo, squares *repository.SquareRepo, participants *repository.ParticipantRepo, broker *selection.Broker, hub *notifier.Hub) *GameHandler {
    if rounds == nil || squares == nil || participants == nil || broker == nil || hub == nil {
        panic("nil dependency passed to NewGameHandler")
    }
    return &GameHandler{
        Rounds:       rounds,
        Squares:      squares,
        Participants: participants,
        Broker:       broker,
        Hub:          hub,
    }
}

// ReserveForm is the request body for POST /api/reserve.
type ReserveForm struct {
    Name    string `json:"name"`
    Email   string `json:"email"`
    Phone   string `json:"phone"`
    Squares []int  `json:"squares"`
}

// Validate checks the form fields and returns the deduplicated square
// numbers in request order, or a message suitable for a 400 response.
func (f *ReserveForm) Validate() ([]int, error) {
    if strings.TrimSpace(f.Name) == "" {
        return nil, errors.New("name is required")
    }
    email := strings.TrimSpace(f.Email)
    at := strings.Index(email, "@")
    if at < 1 || !strings.Contains(email[at:], ".") {
        return nil, errors.New("valid email is required")
    }
    digits := 0
    for _, r := range f.Phone {
        if r >= '0' && r <= '9' {
            digits++
        }
    }
    if digits < 10 {
        return nil, errors.New("valid phone number is required")
    }
    if len(f.Squares) == 0 {
        return nil, errors.New("at least one square must be selected")
    }
    unique := make([]int, 0, len(f.Squares))
    seen := make(map[int]struct{}, len(f.Squares))
    for _, n := range f.Squares {
        if n < 1 || n > model.BoardSize {
            return nil, fmt.Errorf("square number %d is out of range (1-%d)", n, model.BoardSize)
        }
        if _, ok := seen[n]; !ok {
            seen[n] = struct{}{}
            unique = append(unique, n)
        }
    }
    return unique, nil
}

// pickWinner selects one square number from the candidates using intn,
// a func(n) returning a value in [0,n).  Candidates must be non-empty;
// a single candidate is returned deterministically.
func pickWinner(candidates []int, intn func(int) int) int {
    if len(candidates) == 1 {
        return candidates[0]
    }
    return candidates[intn(len(candidates))]
}

// missingNumbers returns the members of want absent from got,
// preserving the order of want.  Used to report which squares lost a
// reservation race.
func missingNumbers(want, got []int) []int {
    have := make(map[int]struct{}, len(got))
    for _, n := range got {
        have[n] = struct{}{}
    }
    missing := make([]int, 0)
    for _, n := range want {
        if _, ok := have[n]; !ok {
            missing = append(missing, n)
        }
    }
    return missing
}
