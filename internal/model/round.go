package model

import "time"

// Round statuses.  A round is active while squares are being sold and
// completed once a winning square has been designated (or the round has
// been superseded by a newer one).
const (
    RoundActive    = "active"
    RoundCompleted = "completed"
)

// BoardSize is the number of squares on the board.  Every round owns
// exactly this many squares, numbered 1..BoardSize.
const BoardSize = 65

// DefaultPriceCents is the price per square used when no price is
// carried over from a previous round ($10.00).
const DefaultPriceCents = 1000

// Round represents one complete play of the squares game.  Each round
// has its own price per square, its own set of squares and its own
// accumulated revenue.  At most one round is active at any time.
//
// Fields:
//  ID             – primary key (UUID).
//  RoundNumber    – sequential number of the round, starting at 1.
//  Status         – RoundActive or RoundCompleted.
//  PricePerSquare – price per square in integer cents.
//  TotalRevenue   – accumulated confirmed revenue in integer cents.
//  WinnerSquare   – the winning square number (nil until completion with
//                   a winner; a superseded round never gets one).
//  StartedAt      – when the round was started.
//  CompletedAt    – when the round was completed (nil while active).
type Round struct {
    ID             string     `json:"id"`             // game_rounds.id
    RoundNumber    int        `json:"roundNumber"`    // game_rounds.round_number
    Status         string     `json:"status"`         // game_rounds.status
    PricePerSquare int        `json:"pricePerSquare"` // game_rounds.price_per_square (cents)
    TotalRevenue   int        `json:"totalRevenue"`   // game_rounds.total_revenue (cents)
    WinnerSquare   *int       `json:"winnerSquare"`   // game_rounds.winner_square (nullable)
    StartedAt      time.Time  `json:"startedAt"`      // game_rounds.started_at
    CompletedAt    *time.Time `json:"completedAt"`    // game_rounds.completed_at (nullable)
    CreatedAt      time.Time  `json:"createdAt"`      // game_rounds.created_at
    UpdatedAt      time.Time  `json:"updatedAt"`      // game_rounds.updated_at
}
