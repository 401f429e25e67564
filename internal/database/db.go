package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Pool sizing for the board workload: one live fundraiser serves a
// handful of seller kiosks, and every write path is a short
// transaction over at most 65 rows, so a small pool keeps connections
// warm without hoarding them on the MySQL side.
const (
    maxOpenConns    = 10
    maxIdleConns    = 5
    connMaxLifetime = 30 * time.Minute
    pingTimeout     = 5 * time.Second
)

// dsnOptions are required by the repositories: parseTime maps DATETIME
// columns onto time.Time, and loc=UTC keeps reservation timestamps
// comparable with the UTC_TIMESTAMP() values written by the SQL layer.
const dsnOptions = "charset=utf8mb4&parseTime=true&loc=UTC"

// Open connects to MySQL, configures the pool and verifies the
// connection with a bounded ping.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?%s", auth, host, port, name, dsnOptions)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(maxOpenConns)
    db.SetMaxIdleConns(maxIdleConns)
    db.SetConnMaxLifetime(connMaxLifetime)

    ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
