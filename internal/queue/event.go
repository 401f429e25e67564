// Package queue defines message payloads exchanged over the message broker.
package queue

// RoundCompletedEvent is published when a game round is completed by a
// winner draw. It carries enough information for downstream consumers
// to log, notify, or trigger payout workflows without querying the
// primary database.
type RoundCompletedEvent struct {
    RoundID          string `json:"round_id"`
    RoundNumber      int    `json:"round_number"`
    WinnerSquare     int    `json:"winner_square"`
    WinnerID         string `json:"winner_id"`
    WinnerName       string `json:"winner_name"`
    WinnerEmail      string `json:"winner_email"`
    TotalPotCents    int    `json:"total_pot_cents"`
    SquaresSold      int    `json:"squares_sold"`
    ManualSelection  bool   `json:"manual_selection"`
    CompletedAt      string `json:"completed_at"`
}
