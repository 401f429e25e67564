package model

// GameStats is the derived summary of the active round shown on the
// seller and admin dashboards.  None of these figures are stored;
// they are computed from the round and its squares on every request.
// SquaresSold counts reserved plus sold squares, since a reserved
// square is no longer purchasable.
type GameStats struct {
    TotalRevenue     int `json:"totalRevenue"`     // confirmed revenue in cents
    ParticipantCount int `json:"participantCount"` // participants in the round
    SquaresSold      int `json:"squaresSold"`      // reserved + sold
    PercentFilled    int `json:"percentFilled"`    // rounded percentage of the board
    AvailableCount   int `json:"availableCount"`   // squares still purchasable
    CurrentRound     int `json:"currentRound"`     // round number of the active round
}

// StatsFor derives GameStats from a round and its squares.  participants
// is the number of participant records in the round.
func StatsFor(round *Round, squares []Square, participants int) GameStats {
    taken := 0
    for _, s := range squares {
        if s.Status == SquareReserved || s.Status == SquareSold {
            taken++
        }
    }
    pct := int(float64(taken)/float64(BoardSize)*100 + 0.5)
    return GameStats{
        TotalRevenue:     round.TotalRevenue,
        ParticipantCount: participants,
        SquaresSold:      taken,
        PercentFilled:    pct,
        AvailableCount:   BoardSize - taken,
        CurrentRound:     round.RoundNumber,
    }
}
