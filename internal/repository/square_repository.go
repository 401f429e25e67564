package repository

import (
    "context"
    "database/sql"
    "errors"
    "sort"
    "strings"
    "time"

    "github.com/jpaulsen/squares-raffle/internal/model"
)

// ReservationTimeout is how long a square may sit in reserved state
// before a cleanup pass reclaims it.
const ReservationTimeout = 2 * time.Minute

// SquareRepo provides data access to the squares table.  Squares are
// the authoritative record of board state; status transitions are
// expressed as conditional UPDATEs so that concurrent requests cannot
// double-reserve a square – an update that matches zero rows simply
// did not win the race, and callers detect that via the returned
// numbers.  All timestamps are stored in UTC.
type SquareRepo struct {
    db *sql.DB
}

// NewSquareRepo returns a new SquareRepo bound to the provided database.
func NewSquareRepo(db *sql.DB) *SquareRepo { return &SquareRepo{db: db} }

const squareColumns = `id, number, game_round_id, participant_id, status,
                       reserved_at, sold_at, created_at, updated_at`

// scanSquare reads one squares row from the given scanner.
func scanSquare(row interface{ Scan(...interface{}) error }) (*model.Square, error) {
    var sq model.Square
    var participantID sql.NullString
    var reservedAt, soldAt sql.NullTime
    if err := row.Scan(
        &sq.ID, &sq.Number, &sq.RoundID, &participantID, &sq.Status,
        &reservedAt, &soldAt, &sq.CreatedAt, &sq.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if participantID.Valid {
        pid := participantID.String
        sq.ParticipantID = &pid
    }
    if reservedAt.Valid {
        t := reservedAt.Time
        sq.ReservedAt = &t
    }
    if soldAt.Valid {
        t := soldAt.Time
        sq.SoldAt = &t
    }
    return &sq, nil
}

// InitializeTx creates the full board for a round: squares numbered
// 1..BoardSize, all available, inserted in one statement.  Calling it
// again for a round that already has squares returns ErrConflict
// rather than duplicating rows.
func (r *SquareRepo) InitializeTx(ctx context.Context, tx *sql.Tx, roundID string) error {
    var existing int
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM squares WHERE game_round_id = ?`, roundID,
    ).Scan(&existing); err != nil {
        return err
    }
    if existing > 0 {
        return ErrConflict
    }
    query := `INSERT INTO squares (number, game_round_id, status) VALUES `
    args := make([]interface{}, 0, model.BoardSize*3)
    for n := 1; n <= model.BoardSize; n++ {
        if n > 1 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, n, roundID, model.SquareAvailable)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ListByRound returns all squares of a round ordered by number.
func (r *SquareRepo) ListByRound(ctx context.Context, roundID string) ([]model.Square, error) {
    const q = `SELECT ` + squareColumns + `
               FROM squares
               WHERE game_round_id = ?
               ORDER BY number`
    rows, err := r.db.QueryContext(ctx, q, roundID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Square, 0, model.BoardSize)
    for rows.Next() {
        sq, err := scanSquare(rows)
        if err != nil {
            return nil, err
        }
        result = append(result, *sq)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// GetByNumber returns the square with the given number in a round, or
// ErrSquareNotFound.
func (r *SquareRepo) GetByNumber(ctx context.Context, number int, roundID string) (*model.Square, error) {
    const q = `SELECT ` + squareColumns + `
               FROM squares
               WHERE number = ? AND game_round_id = ?`
    sq, err := scanSquare(r.db.QueryRowContext(ctx, q, number, roundID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrSquareNotFound
        }
        return nil, err
    }
    return sq, nil
}

// UnavailableTx returns, within the provided transaction, the subset
// of the requested numbers that cannot currently be reserved: squares
// that are not in available status plus numbers with no row at all
// (out of range for this round).  An empty result means every
// requested square is free.
func (r *SquareRepo) UnavailableTx(ctx context.Context, tx *sql.Tx, numbers []int, roundID string) ([]int, error) {
    if len(numbers) == 0 {
        return []int{}, nil
    }
    placeholders := make([]string, 0, len(numbers))
    args := make([]interface{}, 0, len(numbers)+1)
    args = append(args, roundID)
    for _, n := range numbers {
        placeholders = append(placeholders, "?")
        args = append(args, n)
    }
    query := `SELECT number FROM squares
              WHERE game_round_id = ? AND number IN (` + strings.Join(placeholders, ",") + `)
              AND status = 'available'`
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    free := make(map[int]struct{}, len(numbers))
    for rows.Next() {
        var n int
        if scanErr := rows.Scan(&n); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        free[n] = struct{}{}
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    unavailable := make([]int, 0)
    for _, n := range numbers {
        if _, ok := free[n]; !ok {
            unavailable = append(unavailable, n)
        }
    }
    return unavailable, nil
}

// ReserveTx transitions each requested square from available to
// reserved within the provided transaction, assigning the owning
// participant and stamping reserved_at.  The update is conditional on
// the current status, so squares taken by a concurrent request are
// skipped; the returned slice contains the numbers actually reserved.
// Callers that require all-or-nothing semantics compare the result
// against the request and roll the transaction back on a shortfall.
// Rows are always updated in ascending number order so two concurrent
// reservations for overlapping sets take their row locks in the same
// order and cannot deadlock each other.
func (r *SquareRepo) ReserveTx(ctx context.Context, tx *sql.Tx, numbers []int, roundID, participantID string) ([]int, error) {
    const q = `UPDATE squares
               SET status = 'reserved', participant_id = ?, reserved_at = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
               WHERE number = ? AND game_round_id = ? AND status = 'available'`
    ordered := make([]int, len(numbers))
    copy(ordered, numbers)
    sort.Ints(ordered)
    reserved := make([]int, 0, len(ordered))
    for _, n := range ordered {
        res, err := tx.ExecContext(ctx, q, participantID, n, roundID)
        if err != nil {
            return nil, err
        }
        if affected, _ := res.RowsAffected(); affected == 1 {
            reserved = append(reserved, n)
        }
    }
    return reserved, nil
}

// MarkSoldTx transitions every reserved square owned by the given
// participant to sold and stamps sold_at.  It returns the numbers that
// changed.
func (r *SquareRepo) MarkSoldTx(ctx context.Context, tx *sql.Tx, participantID string) ([]int, error) {
    const sel = `SELECT number FROM squares WHERE participant_id = ? AND status = 'reserved'`
    rows, err := tx.QueryContext(ctx, sel, participantID)
    if err != nil {
        return nil, err
    }
    var numbers []int
    for rows.Next() {
        var n int
        if scanErr := rows.Scan(&n); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        numbers = append(numbers, n)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    const q = `UPDATE squares
               SET status = 'sold', sold_at = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
               WHERE participant_id = ? AND status = 'reserved'`
    if _, err := tx.ExecContext(ctx, q, participantID); err != nil {
        return nil, err
    }
    return numbers, nil
}

// ReleaseTx returns the given squares to available regardless of
// whether they are reserved or sold, clearing the participant
// reference and both timestamps.  Squares already available are
// untouched.
func (r *SquareRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, numbers []int, roundID string) error {
    if len(numbers) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(numbers))
    args := make([]interface{}, 0, len(numbers)+1)
    args = append(args, roundID)
    for _, n := range numbers {
        placeholders = append(placeholders, "?")
        args = append(args, n)
    }
    query := `UPDATE squares
              SET status = 'available', participant_id = NULL, reserved_at = NULL, sold_at = NULL, updated_at = UTC_TIMESTAMP()
              WHERE game_round_id = ? AND number IN (` + strings.Join(placeholders, ",") + `)`
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// CountByParticipantTx returns how many squares currently reference
// the given participant, in any round.  Used by expiry cleanup to
// decide whether a participant record has become an orphan.
func (r *SquareRepo) CountByParticipantTx(ctx context.Context, tx *sql.Tx, participantID string) (int, error) {
    const q = `SELECT COUNT(*) FROM squares WHERE participant_id = ?`
    var n int
    if err := tx.QueryRowContext(ctx, q, participantID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// ExpireReservationsTx finds squares in reserved state whose
// reserved_at is older than the timeout, releases them, and returns
// the released numbers together with the distinct participant IDs that
// owned them.  Running it when nothing is stale is a no-op returning
// empty slices.  The caller deletes participants left with no squares.
func (r *SquareRepo) ExpireReservationsTx(ctx context.Context, tx *sql.Tx, roundID string, timeout time.Duration) ([]int, []string, error) {
    cutoff := time.Now().UTC().Add(-timeout).Format("2006-01-02 15:04:05")
    const sel = `SELECT number, participant_id FROM squares
                 WHERE game_round_id = ? AND status = 'reserved' AND reserved_at < ?`
    rows, err := tx.QueryContext(ctx, sel, roundID, cutoff)
    if err != nil {
        return nil, nil, err
    }
    numbers := make([]int, 0)
    seen := make(map[string]struct{})
    owners := make([]string, 0)
    for rows.Next() {
        var n int
        var pid sql.NullString
        if scanErr := rows.Scan(&n, &pid); scanErr != nil {
            rows.Close()
            return nil, nil, scanErr
        }
        numbers = append(numbers, n)
        if pid.Valid {
            if _, ok := seen[pid.String]; !ok {
                seen[pid.String] = struct{}{}
                owners = append(owners, pid.String)
            }
        }
    }
    if err := rows.Close(); err != nil {
        return nil, nil, err
    }
    if len(numbers) == 0 {
        return numbers, owners, nil
    }
    const rel = `UPDATE squares
                 SET status = 'available', participant_id = NULL, reserved_at = NULL, updated_at = UTC_TIMESTAMP()
                 WHERE game_round_id = ? AND status = 'reserved' AND reserved_at < ?`
    if _, err := tx.ExecContext(ctx, rel, roundID, cutoff); err != nil {
        return nil, nil, err
    }
    return numbers, owners, nil
}

// DeleteAllTx removes every square.  Only used by the full system reset.
func (r *SquareRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM squares`)
    return err
}
