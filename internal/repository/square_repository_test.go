package repository

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestReserveTxUpdatesInAscendingNumberOrder(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("opening mock database: %v", err)
    }
    defer db.Close()

    mock.ExpectBegin()
    // Drivers take the row locks in statement order; the repository
    // must sort the numbers so that two overlapping reservations lock
    // rows in the same order and cannot deadlock each other.
    for _, n := range []int{1, 2, 3} {
        mock.ExpectExec(`UPDATE squares`).
            WithArgs("participant-1", n, "round-1").
            WillReturnResult(sqlmock.NewResult(0, 1))
    }
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("beginning mock transaction: %v", err)
    }

    repo := NewSquareRepo(db)
    reserved, err := repo.ReserveTx(context.Background(), tx, []int{3, 1, 2}, "round-1", "participant-1")
    if err != nil {
        t.Fatalf("ReserveTx returned error: %v", err)
    }
    if len(reserved) != 3 {
        t.Fatalf("reserved %v, want all three squares", reserved)
    }
    if err := tx.Rollback(); err != nil {
        t.Fatalf("rolling back: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestReserveTxSkipsSquaresLostToAnotherWriter(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("opening mock database: %v", err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec(`UPDATE squares`).
        WithArgs("participant-1", 4, "round-1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    // Square 5 was taken by a concurrent request, so the conditional
    // UPDATE matches no rows and the square is not reported reserved.
    mock.ExpectExec(`UPDATE squares`).
        WithArgs("participant-1", 5, "round-1").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("beginning mock transaction: %v", err)
    }

    repo := NewSquareRepo(db)
    reserved, err := repo.ReserveTx(context.Background(), tx, []int{4, 5}, "round-1", "participant-1")
    if err != nil {
        t.Fatalf("ReserveTx returned error: %v", err)
    }
    if len(reserved) != 1 || reserved[0] != 4 {
        t.Fatalf("reserved %v, want only square 4", reserved)
    }
    if err := tx.Rollback(); err != nil {
        t.Fatalf("rolling back: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}
