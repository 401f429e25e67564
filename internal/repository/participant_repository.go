package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/jpaulsen/squares-raffle/internal/model"
)

// ParticipantRepo provides data access to the participants table.  The
// purchased square numbers are stored denormalized in a JSON column,
// mirroring the authoritative participant_id references on the squares
// themselves; reservation handlers keep the two in sync by writing both
// inside one transaction.
type ParticipantRepo struct {
    db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the provided database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

const participantColumns = `id, name, email, phone, game_round_id, squares,
                            total_amount, payment_status, created_at, updated_at`

// scanParticipant reads one participants row from the given scanner.
func scanParticipant(row interface{ Scan(...interface{}) error }) (*model.Participant, error) {
    var p model.Participant
    var squaresJSON []byte
    if err := row.Scan(
        &p.ID, &p.Name, &p.Email, &p.Phone, &p.RoundID, &squaresJSON,
        &p.TotalAmount, &p.PaymentStatus, &p.CreatedAt, &p.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(squaresJSON, &p.Squares); err != nil {
        return nil, err
    }
    return &p, nil
}

// CreateTx inserts a new participant within the provided transaction.
// The caller supplies the ID (a UUID); timestamps are populated by
// querying the row back.
func (r *ParticipantRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Participant) error {
    squaresJSON, err := json.Marshal(p.Squares)
    if err != nil {
        return err
    }
    const q = `INSERT INTO participants (id, name, email, phone, game_round_id, squares, total_amount, payment_status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err := tx.ExecContext(ctx, q,
        p.ID, p.Name, p.Email, p.Phone, p.RoundID, squaresJSON, p.TotalAmount, p.PaymentStatus,
    ); err != nil {
        return err
    }
    const sel = `SELECT ` + participantColumns + ` FROM participants WHERE id = ?`
    got, err := scanParticipant(tx.QueryRowContext(ctx, sel, p.ID))
    if err != nil {
        return err
    }
    *p = *got
    return nil
}

// GetByID returns the participant with the given ID or ErrParticipantNotFound.
func (r *ParticipantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
    const q = `SELECT ` + participantColumns + ` FROM participants WHERE id = ?`
    p, err := scanParticipant(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrParticipantNotFound
        }
        return nil, err
    }
    return p, nil
}

// GetByIDTx is GetByID executed inside an existing transaction.
func (r *ParticipantRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Participant, error) {
    const q = `SELECT ` + participantColumns + ` FROM participants WHERE id = ?`
    p, err := scanParticipant(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrParticipantNotFound
        }
        return nil, err
    }
    return p, nil
}

// list runs a participants query and scans all rows.
func (r *ParticipantRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Participant, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Participant, 0)
    for rows.Next() {
        p, err := scanParticipant(rows)
        if err != nil {
            return nil, err
        }
        result = append(result, *p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// ListByRound returns all participants of a round, newest first.
func (r *ParticipantRepo) ListByRound(ctx context.Context, roundID string) ([]model.Participant, error) {
    const q = `SELECT ` + participantColumns + `
               FROM participants
               WHERE game_round_id = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, roundID)
}

// ListAll returns every participant across all rounds, newest first.
// Used by the marketing endpoints.
func (r *ParticipantRepo) ListAll(ctx context.Context) ([]model.Participant, error) {
    const q = `SELECT ` + participantColumns + `
               FROM participants
               ORDER BY created_at DESC`
    return r.list(ctx, q)
}

// ListByEmail returns all participants sharing an email address, newest
// first.  Used for returning-customer lookup.
func (r *ParticipantRepo) ListByEmail(ctx context.Context, email string) ([]model.Participant, error) {
    const q = `SELECT ` + participantColumns + `
               FROM participants
               WHERE email = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, email)
}

// ListByPhone returns all participants sharing a phone number, newest first.
func (r *ParticipantRepo) ListByPhone(ctx context.Context, phone string) ([]model.Participant, error) {
    const q = `SELECT ` + participantColumns + `
               FROM participants
               WHERE phone = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, phone)
}

// SetPaymentStatusTx transitions a participant's payment status within
// the provided transaction.  The update is conditional on the expected
// current status so a double confirmation is detected; zero rows
// affected is reported as ErrInvalidState when the participant exists
// and ErrParticipantNotFound otherwise.
func (r *ParticipantRepo) SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, id, from, to string) error {
    const q = `UPDATE participants
               SET payment_status = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND payment_status = ?`
    res, err := tx.ExecContext(ctx, q, to, id, from)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByIDTx(ctx, tx, id); err != nil {
            return err
        }
        return ErrInvalidState
    }
    return nil
}

// DeleteTx removes a participant record within the provided transaction.
func (r *ParticipantRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
    return err
}

// DeleteAllTx removes every participant.  Only used by the full system reset.
func (r *ParticipantRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM participants`)
    return err
}
