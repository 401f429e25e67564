package model

import "time"

// Square statuses.  A square moves available -> reserved -> sold, back
// to available on release or expiry, and to available from sold only
// through a full system reset.
const (
    SquareAvailable = "available"
    SquareReserved  = "reserved"
    SquareSold      = "sold"
)

// Square is one of the numbered cells on the board, scoped to a round.
// The invariant status=available <=> ParticipantID==nil holds at all
// times; reserved and sold squares always reference their owner.
//
// Fields:
//  ID            – primary key.
//  Number        – 1..BoardSize, unique within the round.
//  RoundID       – round that owns this square.
//  ParticipantID – owning participant (nil while available).
//  Status        – SquareAvailable, SquareReserved or SquareSold.
//  ReservedAt    – when the square was reserved (nil otherwise).
//  SoldAt        – when the sale was confirmed (nil otherwise).
type Square struct {
    ID            uint64     `json:"id"`            // squares.id
    Number        int        `json:"number"`        // squares.number
    RoundID       string     `json:"gameRoundId"`   // squares.game_round_id
    ParticipantID *string    `json:"participantId"` // squares.participant_id (nullable)
    Status        string     `json:"status"`        // squares.status
    ReservedAt    *time.Time `json:"reservedAt"`    // squares.reserved_at (nullable)
    SoldAt        *time.Time `json:"soldAt"`        // squares.sold_at (nullable)
    CreatedAt     time.Time  `json:"createdAt"`     // squares.created_at
    UpdatedAt     time.Time  `json:"updatedAt"`     // squares.updated_at
}
