package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/budgetline/releve/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	currency       TEXT NOT NULL,
	anchor_balance TEXT,
	anchor_as_of   TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id  TEXT NOT NULL REFERENCES accounts(id),
	date        TEXT NOT NULL,
	description TEXT NOT NULL,
	amount      TEXT NOT NULL,
	type        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL,
	UNIQUE(account_id, fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date
	ON transactions(account_id, date);

CREATE TABLE IF NOT EXISTS mappings (
	header_fingerprint TEXT PRIMARY KEY,
	mapping            TEXT NOT NULL
);
`

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the database at path. Use
// ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// modernc sqlite serializes writes per connection; a single connection
	// also keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// EnsureAccount creates the account if it does not exist yet.
func (s *SQLiteStore) EnsureAccount(ctx context.Context, account domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (id, name, currency) VALUES (?, ?, ?)`,
		account.ID, account.Name, account.Currency)
	if err != nil {
		return fmt.Errorf("failed to ensure account %s: %w", account.ID, err)
	}
	return nil
}

// Account returns the account with its anchor, or ErrNotFound.
func (s *SQLiteStore) Account(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, currency, anchor_balance, anchor_as_of FROM accounts WHERE id = ?`, id)

	var (
		account       domain.Account
		anchorBalance sql.NullString
		anchorAsOf    sql.NullString
	)
	err := row.Scan(&account.ID, &account.Name, &account.Currency, &anchorBalance, &anchorAsOf)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}

	if anchorBalance.Valid {
		balance, err := decimal.NewFromString(anchorBalance.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt anchor balance for account %s: %w", id, err)
		}
		account.Anchor = &domain.BalanceAnchor{Balance: balance, AsOf: anchorAsOf.String}
	}
	return &account, nil
}

// Fingerprints returns every fingerprint already imported for the account.
func (s *SQLiteStore) Fingerprints(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprints for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints = append(fingerprints, fp)
	}
	return fingerprints, rows.Err()
}

// InsertTransactions inserts the batch inside one transaction, counting only
// rows actually written. The UNIQUE(account_id, fingerprint) constraint
// absorbs duplicates racing in from concurrent imports.
func (s *SQLiteStore) InsertTransactions(ctx context.Context, accountID string, txs []Transaction) (int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO transactions (account_id, date, description, amount, type, category, fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		res, err := stmt.ExecContext(ctx,
			accountID, tx.Date, tx.Description, tx.Amount.StringFixed(2), string(tx.Type), tx.Category, tx.Fingerprint)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s/%s: %w", tx.Date, tx.Description, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		inserted += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// Transactions returns the account's transactions ordered by date.
func (s *SQLiteStore) Transactions(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, description, amount, type, category, fingerprint
		 FROM transactions WHERE account_id = ? ORDER BY date, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var (
			tx     Transaction
			amount string
			txType string
		)
		if err := rows.Scan(&tx.Date, &tx.Description, &amount, &txType, &tx.Category, &tx.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		tx.Type = domain.TxType(txType)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// UpdateAnchor replaces the account's balance anchor.
func (s *SQLiteStore) UpdateAnchor(ctx context.Context, accountID string, anchor domain.BalanceAnchor) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET anchor_balance = ?, anchor_as_of = ? WHERE id = ?`,
		anchor.Balance.StringFixed(2), anchor.AsOf, accountID)
	if err != nil {
		return fmt.Errorf("failed to update anchor for account %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check anchor update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

// SaveMapping persists a confirmed column mapping as JSON under the header
// shape fingerprint.
func (s *SQLiteStore) SaveMapping(ctx context.Context, headerFingerprint string, mapping domain.ColumnMapping) error {
	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid mapping: %w", err)
	}
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mappings (header_fingerprint, mapping) VALUES (?, ?)
		 ON CONFLICT(header_fingerprint) DO UPDATE SET mapping = excluded.mapping`,
		headerFingerprint, string(data))
	if err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	return nil
}

// Mapping returns the mapping stored for a header shape, or ErrNotFound.
func (s *SQLiteStore) Mapping(ctx context.Context, headerFingerprint string) (*domain.ColumnMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mapping FROM mappings WHERE header_fingerprint = ?`, headerFingerprint)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mapping for header %s: %w", headerFingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}

	var mapping domain.ColumnMapping
	if err := json.Unmarshal([]byte(data), &mapping); err != nil {
		return nil, fmt.Errorf("corrupt stored mapping: %w", err)
	}
	return &mapping, nil
}
