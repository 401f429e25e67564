package database

import (
    "context"
    "database/sql"
    "log"
)

// Migrate creates the application tables when they do not exist yet.
// Statements are idempotent so the server can run them on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS game_rounds (
            id               CHAR(36)    NOT NULL,
            round_number     INT         NOT NULL,
            status           ENUM('active','completed') NOT NULL DEFAULT 'active',
            price_per_square INT         NOT NULL DEFAULT 1000,
            total_revenue    INT         NOT NULL DEFAULT 0,
            winner_square    INT         NULL,
            started_at       DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
            completed_at     DATETIME    NULL,
            created_at       DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at       DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
            PRIMARY KEY (id),
            KEY idx_game_rounds_status (status)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
        `CREATE TABLE IF NOT EXISTS participants (
            id             CHAR(36)     NOT NULL,
            name           VARCHAR(255) NOT NULL,
            email          VARCHAR(255) NOT NULL,
            phone          VARCHAR(64)  NOT NULL,
            game_round_id  CHAR(36)     NOT NULL,
            squares        JSON         NOT NULL,
            total_amount   INT          NOT NULL,
            payment_status ENUM('pending','paid') NOT NULL DEFAULT 'pending',
            created_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
            PRIMARY KEY (id),
            KEY idx_participants_round (game_round_id),
            KEY idx_participants_email (email),
            KEY idx_participants_phone (phone),
            CONSTRAINT fk_participants_round FOREIGN KEY (game_round_id) REFERENCES game_rounds (id)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
        `CREATE TABLE IF NOT EXISTS squares (
            id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
            number         INT             NOT NULL,
            game_round_id  CHAR(36)        NOT NULL,
            participant_id CHAR(36)        NULL,
            status         ENUM('available','reserved','sold') NOT NULL DEFAULT 'available',
            reserved_at    DATETIME        NULL,
            sold_at        DATETIME        NULL,
            created_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
            PRIMARY KEY (id),
            UNIQUE KEY uq_squares_round_number (game_round_id, number),
            KEY idx_squares_participant (participant_id),
            CONSTRAINT fk_squares_round FOREIGN KEY (game_round_id) REFERENCES game_rounds (id)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
    }
    for _, stmt := range stmts {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    log.Println("database migration completed")
    return nil
}
