package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/jpaulsen/squares-raffle/internal/model"
)

// RoundRepo provides data access to the game_rounds table.  All
// timestamps are stored and compared in UTC.  The invariant that at
// most one round is active at a time is maintained by the round
// lifecycle handlers, which complete the prior active round inside the
// same transaction that creates a new one.
type RoundRepo struct {
    db *sql.DB
}

// NewRoundRepo returns a new RoundRepo bound to the provided database.
func NewRoundRepo(db *sql.DB) *RoundRepo { return &RoundRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *RoundRepo) DB() *sql.DB { return r.db }

const roundColumns = `id, round_number, status, price_per_square, total_revenue,
                      winner_square, started_at, completed_at, created_at, updated_at`

// scanRound reads one game_rounds row from the given scanner.
func scanRound(row interface{ Scan(...interface{}) error }) (*model.Round, error) {
    var rd model.Round
    var winner sql.NullInt64
    var completedAt sql.NullTime
    if err := row.Scan(
        &rd.ID, &rd.RoundNumber, &rd.Status, &rd.PricePerSquare, &rd.TotalRevenue,
        &winner, &rd.StartedAt, &completedAt, &rd.CreatedAt, &rd.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if winner.Valid {
        n := int(winner.Int64)
        rd.WinnerSquare = &n
    }
    if completedAt.Valid {
        t := completedAt.Time
        rd.CompletedAt = &t
    }
    return &rd, nil
}

// GetActive returns the current active round.  When no round is active
// it returns ErrRoundNotFound.
func (r *RoundRepo) GetActive(ctx context.Context) (*model.Round, error) {
    const q = `SELECT ` + roundColumns + `
               FROM game_rounds
               WHERE status = 'active'
               ORDER BY created_at DESC
               LIMIT 1`
    rd, err := scanRound(r.db.QueryRowContext(ctx, q))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoundNotFound
        }
        return nil, err
    }
    return rd, nil
}

// GetCurrent returns the most recently created round regardless of its
// status.  Winner lookups use it so that drawing against an already
// completed round can be distinguished from having no rounds at all.
func (r *RoundRepo) GetCurrent(ctx context.Context) (*model.Round, error) {
    const q = `SELECT ` + roundColumns + `
               FROM game_rounds
               ORDER BY created_at DESC
               LIMIT 1`
    rd, err := scanRound(r.db.QueryRowContext(ctx, q))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoundNotFound
        }
        return nil, err
    }
    return rd, nil
}

// GetByID returns the round with the given ID or ErrRoundNotFound.
func (r *RoundRepo) GetByID(ctx context.Context, id string) (*model.Round, error) {
    const q = `SELECT ` + roundColumns + ` FROM game_rounds WHERE id = ?`
    rd, err := scanRound(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoundNotFound
        }
        return nil, err
    }
    return rd, nil
}

// NextRoundNumberTx computes the next sequential round number within
// the provided transaction: max(round_number)+1, or 1 when no rounds
// exist yet.
func (r *RoundRepo) NextRoundNumberTx(ctx context.Context, tx *sql.Tx) (int, error) {
    const q = `SELECT COALESCE(MAX(round_number), 0) + 1 FROM game_rounds`
    var n int
    if err := tx.QueryRowContext(ctx, q).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// CreateTx inserts a new round within the provided transaction.  The
// caller supplies the ID (a UUID), round number, status and price; the
// timestamps are populated by querying the row back so the returned
// struct reflects the database defaults.
func (r *RoundRepo) CreateTx(ctx context.Context, tx *sql.Tx, rd *model.Round) error {
    const q = `INSERT INTO game_rounds (id, round_number, status, price_per_square, total_revenue)
               VALUES (?, ?, ?, ?, ?)`
    if _, err := tx.ExecContext(ctx, q, rd.ID, rd.RoundNumber, rd.Status, rd.PricePerSquare, rd.TotalRevenue); err != nil {
        return err
    }
    const sel = `SELECT ` + roundColumns + ` FROM game_rounds WHERE id = ?`
    got, err := scanRound(tx.QueryRowContext(ctx, sel, rd.ID))
    if err != nil {
        return err
    }
    *rd = *got
    return nil
}

// MarkCompletedTx flips an active round to completed without recording
// a winner.  It is used when a round is superseded by a new one.  A
// round that is already completed is left untouched.
func (r *RoundRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id string) error {
    const q = `UPDATE game_rounds
               SET status = 'completed', updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = 'active'`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// CompleteWithWinnerTx completes a round with the given winning square
// number, setting completed_at.  It only applies to active rounds;
// zero rows affected means the round was already completed (or does not
// exist) and is reported as ErrInvalidState.
func (r *RoundRepo) CompleteWithWinnerTx(ctx context.Context, tx *sql.Tx, id string, winnerSquare int) error {
    const q = `UPDATE game_rounds
               SET status = 'completed', winner_square = ?, completed_at = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = 'active'`
    res, err := tx.ExecContext(ctx, q, winnerSquare, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrInvalidState
    }
    return nil
}

// UpdatePrice sets price_per_square on the given round while it is
// active.  Zero rows affected means the round is missing or no longer
// active and is reported as ErrInvalidState.
func (r *RoundRepo) UpdatePrice(ctx context.Context, id string, priceCents int) error {
    const q = `UPDATE game_rounds
               SET price_per_square = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = 'active'`
    res, err := r.db.ExecContext(ctx, q, priceCents, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrInvalidState
    }
    return nil
}

// AddRevenueTx accrues confirmed revenue onto a round within the
// provided transaction.
func (r *RoundRepo) AddRevenueTx(ctx context.Context, tx *sql.Tx, id string, amountCents int) error {
    const q = `UPDATE game_rounds
               SET total_revenue = total_revenue + ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, amountCents, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrRoundNotFound
    }
    return nil
}

// ListCompleted returns all completed rounds, most recently completed
// first.  Rounds superseded without a winner are included; callers that
// only care about winners filter on WinnerSquare.
func (r *RoundRepo) ListCompleted(ctx context.Context) ([]model.Round, error) {
    const q = `SELECT ` + roundColumns + `
               FROM game_rounds
               WHERE status = 'completed'
               ORDER BY completed_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Round, 0)
    for rows.Next() {
        rd, err := scanRound(rows)
        if err != nil {
            return nil, err
        }
        result = append(result, *rd)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// DeleteAllTx removes every round.  Only used by the full system
// reset, after squares and participants have been deleted.
func (r *RoundRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM game_rounds`)
    return err
}
