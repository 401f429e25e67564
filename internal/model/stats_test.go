package model

import "testing"

// boardWith returns a full 65-square board with the given numbers
// reserved and sold respectively; everything else is available.
func boardWith(reserved, sold []int) []Square {
    status := make(map[int]string, len(reserved)+len(sold))
    for _, n := range reserved {
        status[n] = SquareReserved
    }
    for _, n := range sold {
        status[n] = SquareSold
    }
    squares := make([]Square, 0, BoardSize)
    for n := 1; n <= BoardSize; n++ {
        st := SquareAvailable
        if s, ok := status[n]; ok {
            st = s
        }
        squares = append(squares, Square{Number: n, Status: st})
    }
    return squares
}

func TestStatsForEmptyBoard(t *testing.T) {
    round := &Round{RoundNumber: 1, TotalRevenue: 0}
    stats := StatsFor(round, boardWith(nil, nil), 0)

    if stats.SquaresSold != 0 {
        t.Fatalf("expected 0 squares sold, got %d", stats.SquaresSold)
    }
    if stats.AvailableCount != BoardSize {
        t.Fatalf("expected %d available, got %d", BoardSize, stats.AvailableCount)
    }
    if stats.PercentFilled != 0 {
        t.Fatalf("expected 0%% filled, got %d", stats.PercentFilled)
    }
    if stats.CurrentRound != 1 {
        t.Fatalf("expected round 1, got %d", stats.CurrentRound)
    }
}

func TestStatsForCountsReservedAsTaken(t *testing.T) {
    round := &Round{RoundNumber: 3, TotalRevenue: 5000}
    stats := StatsFor(round, boardWith([]int{1, 2}, []int{10, 11, 12}), 2)

    if stats.SquaresSold != 5 {
        t.Fatalf("reserved+sold should count 5, got %d", stats.SquaresSold)
    }
    if stats.AvailableCount != BoardSize-5 {
        t.Fatalf("expected %d available, got %d", BoardSize-5, stats.AvailableCount)
    }
    if stats.TotalRevenue != 5000 {
        t.Fatalf("expected revenue 5000, got %d", stats.TotalRevenue)
    }
    if stats.ParticipantCount != 2 {
        t.Fatalf("expected 2 participants, got %d", stats.ParticipantCount)
    }
}

func TestStatsForPercentRounds(t *testing.T) {
    round := &Round{RoundNumber: 1}

    // 1/65 = 1.54%, rounds to 2.
    stats := StatsFor(round, boardWith(nil, []int{1}), 1)
    if stats.PercentFilled != 2 {
        t.Fatalf("1 of 65 should round to 2%%, got %d", stats.PercentFilled)
    }

    // Full board is exactly 100.
    all := make([]int, 0, BoardSize)
    for n := 1; n <= BoardSize; n++ {
        all = append(all, n)
    }
    stats = StatsFor(round, boardWith(nil, all), 10)
    if stats.PercentFilled != 100 {
        t.Fatalf("full board should be 100%%, got %d", stats.PercentFilled)
    }
    if stats.AvailableCount != 0 {
        t.Fatalf("full board should have 0 available, got %d", stats.AvailableCount)
    }
}
