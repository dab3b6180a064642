package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"Herald/internal/domain"
	"Herald/internal/ports"
)

const defaultQueryTimeout = 10 * time.Second

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists editions, intelligence and tasks into Postgres and
// reads the community content tables. A store without a database reports
// domain.ErrStoreUnavailable from every call.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

var _ ports.Store = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.db == nil {
		return ctx, func() {}, domain.ErrStoreUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, nil
}

func closeRows(rows *sql.Rows, err error) error {
	if rowsErr := rows.Err(); rowsErr != nil && err == nil {
		err = fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close rows: %w", closeErr)
	}
	return err
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
