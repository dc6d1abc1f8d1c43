package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
)

// InitBudget creates the budget row consumed by the first-run bootstrap flow.
func (s *SQLiteStorage) InitBudget(ctx context.Context, budgetID, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, name) VALUES (?, ?)`, budgetID, name)
	if err != nil {
		return common.NewPersistenceError("init budget", err)
	}
	return nil
}

// SaveLedger upserts account metadata, matching existing rows by id or by
// active name, inserting unmatched rows. Rows are never deleted.
func (s *SQLiteStorage) SaveLedger(ctx context.Context, budgetID string, accounts []model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewPersistenceError("save ledger", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range accounts {
		a := &accounts[i]
		if err := validateAccount(a); err != nil {
			return err
		}
		if err := s.upsertAccountTx(ctx, tx, budgetID, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewPersistenceError("save ledger", err)
	}
	slog.Debug("saved ledger", "budget", budgetID, "accounts", len(accounts))
	return nil
}

func (s *SQLiteStorage) upsertAccountTx(ctx context.Context, tx *sql.Tx, budgetID string, a *model.Account) error {
	var existingID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM accounts
		WHERE id = ? OR (budget_id = ? AND name = ? AND deactivated_at IS NULL)`,
		a.ID, budgetID, a.Name,
	).Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO accounts (id, budget_id, kind, name, description, balance, companion_real_id, deactivated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, budgetID, string(a.Kind), a.Name, a.Description,
			model.MoneyString(a.Balance), nullString(a.CompanionID), nullTime(a.DeactivatedAt),
		)
		if err != nil {
			return common.NewPersistenceError("save ledger", err)
		}
	case err != nil:
		return common.NewPersistenceError("save ledger", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE accounts
			SET name = ?, description = ?, balance = ?, deactivated_at = ?
			WHERE id = ?`,
			a.Name, a.Description, model.MoneyString(a.Balance), nullTime(a.DeactivatedAt), existingID,
		)
		if err != nil {
			return common.NewPersistenceError("save ledger", err)
		}
	}
	return nil
}

// LoadLedger reconstructs the account roster with current balances. A missing
// budget row fails with common.ErrNotConfigured so callers can offer
// first-run bootstrap instead of treating it as fatal.
func (s *SQLiteStorage) LoadLedger(ctx context.Context, budgetID string) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM budgets WHERE id = ?`, budgetID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: budget %s", common.ErrNotConfigured, budgetID)
	}
	if err != nil {
		return nil, common.NewPersistenceError("load ledger", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, description, balance, companion_real_id, deactivated_at
		FROM accounts
		WHERE budget_id = ?
		ORDER BY name`, budgetID)
	if err != nil {
		return nil, common.NewPersistenceError("load ledger", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var (
			a             model.Account
			kind          string
			balText       string
			companion     sql.NullString
			deactivatedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &kind, &a.Name, &a.Description, &balText, &companion, &deactivatedAt); err != nil {
			return nil, common.NewPersistenceError("load ledger", err)
		}
		a.Kind = model.AccountKind(kind)
		a.Balance, err = decimal.NewFromString(balText)
		if err != nil {
			return nil, common.NewPersistenceError("load ledger", fmt.Errorf("bad balance %q on account %s: %w", balText, a.ID, err))
		}
		if companion.Valid {
			a.CompanionID = companion.String
		}
		if deactivatedAt.Valid {
			t := deactivatedAt.Time
			a.DeactivatedAt = &t
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewPersistenceError("load ledger", err)
	}

	slog.Debug("loaded ledger", "budget", budgetID, "accounts", len(accounts))
	return accounts, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
