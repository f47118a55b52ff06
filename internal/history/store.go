// Package history keeps a local record of every transaction the bot has
// committed to the ledger, so past activity survives ledger-side edits and
// can be exported on demand.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Record is one committed transaction as the bot saw it.
type Record struct {
	ID        string
	CreatedAt time.Time
	TxDate    time.Time
	Store     string
	Amount    decimal.Decimal
	Account   string
	Payee     string
	LedgerID  string // server-assigned transaction id, may be empty
}

// Recorder is the write side the pipeline depends on.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	tx_date    TEXT NOT NULL,
	store      TEXT NOT NULL,
	amount     TEXT NOT NULL,
	account    TEXT NOT NULL,
	payee      TEXT NOT NULL,
	ledger_id  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
`

// Store persists records in an embedded sqlite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	logger.Debug("history.db.opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Record inserts one committed transaction. An empty ID gets a fresh uuid.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, created_at, tx_date, store, amount, account, payee, ledger_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(time.RFC3339),
		rec.TxDate.Format("2006-01-02"),
		rec.Store,
		rec.Amount.String(),
		rec.Account,
		rec.Payee,
		rec.LedgerID,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	s.logger.Debug("history.record.ok", "id", rec.ID, "store", rec.Store)
	return nil
}

// List returns all records, oldest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, tx_date, store, amount, account, payee, ledger_id
		 FROM transactions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("history.rows_close_error", "error", cerr)
		}
	}()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			createdAt string
			txDate    string
			amount    string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &txDate, &rec.Store, &amount, &rec.Account, &rec.Payee, &rec.LedgerID); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		if rec.TxDate, err = time.Parse("2006-01-02", txDate); err != nil {
			return nil, fmt.Errorf("parse tx_date %q: %w", txDate, err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
