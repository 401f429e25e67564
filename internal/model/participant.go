package model

import "time"

// Payment statuses for a participant's reservation.
const (
    PaymentPending = "pending"
    PaymentPaid    = "paid"
)

// Participant records one purchase transaction: the buyer's contact
// details and the squares they reserved in a single request.  The
// Squares list must exactly match the set of squares whose participant
// reference points at this participant.  A participant is created
// atomically with its reservation and deleted again if the reservation
// is cancelled or expires before payment.
//
// Fields:
//  ID            – primary key (UUID).
//  Name          – buyer's name.
//  Email         – buyer's email address.
//  Phone         – buyer's phone number.
//  RoundID       – round the squares belong to.
//  Squares       – the purchased square numbers (non-empty).
//  TotalAmount   – len(Squares) × the round's price at reservation
//                  time, in integer cents.
//  PaymentStatus – PaymentPending or PaymentPaid.
type Participant struct {
    ID            string    `json:"id"`            // participants.id
    Name          string    `json:"name"`          // participants.name
    Email         string    `json:"email"`         // participants.email
    Phone         string    `json:"phone"`         // participants.phone
    RoundID       string    `json:"gameRoundId"`   // participants.game_round_id
    Squares       []int     `json:"squares"`       // participants.squares (JSON column)
    TotalAmount   int       `json:"totalAmount"`   // participants.total_amount (cents)
    PaymentStatus string    `json:"paymentStatus"` // participants.payment_status
    CreatedAt     time.Time `json:"createdAt"`     // participants.created_at
    UpdatedAt     time.Time `json:"updatedAt"`     // participants.updated_at
}
