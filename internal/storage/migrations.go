package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				// Discriminated single account table; balances and amounts are
				// stored as fixed-point text with exactly two fractional digits.
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					kind TEXT NOT NULL CHECK (kind IN ('category','real','draft','charge')),
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					balance TEXT NOT NULL DEFAULT '0.00',
					companion_real_id TEXT UNIQUE REFERENCES accounts(id),
					deactivated_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX idx_accounts_active_name
					ON accounts(budget_id, name) WHERE deactivated_at IS NULL`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					description TEXT NOT NULL,
					date DATETIME NOT NULL,
					clears_tx_id TEXT REFERENCES transactions(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				// Exactly one account column is non-null per item.
				`CREATE TABLE IF NOT EXISTS transaction_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					transaction_id TEXT NOT NULL REFERENCES transactions(id),
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					description TEXT,
					amount TEXT NOT NULL,
					category_account_id TEXT REFERENCES accounts(id),
					real_account_id TEXT REFERENCES accounts(id),
					draft_account_id TEXT REFERENCES accounts(id),
					charge_account_id TEXT REFERENCES accounts(id),
					status TEXT NOT NULL DEFAULT '',
					CHECK (
						(category_account_id IS NOT NULL) +
						(real_account_id IS NOT NULL) +
						(draft_account_id IS NOT NULL) +
						(charge_account_id IS NOT NULL) = 1
					)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Pagination indexes",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date DESC, budget_id)`,
				`CREATE INDEX IF NOT EXISTS idx_items_category ON transaction_items(category_account_id, budget_id)`,
				`CREATE INDEX IF NOT EXISTS idx_items_real ON transaction_items(real_account_id, budget_id)`,
				`CREATE INDEX IF NOT EXISTS idx_items_draft ON transaction_items(draft_account_id, budget_id)`,
				`CREATE INDEX IF NOT EXISTS idx_items_charge ON transaction_items(charge_account_id, budget_id)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index outstanding items for reconciliation lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_items_status
				ON transaction_items(status) WHERE status = 'outstanding'`)
			return err
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
