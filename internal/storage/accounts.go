package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
)

// CreateAccount inserts a new account row with a zero balance.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, budgetID string, kind model.AccountKind, name, description string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid account kind %q", kind)
	}

	account := &model.Account{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Kind:        kind,
		Balance:     decimal.Zero,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, budget_id, kind, name, description, balance)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, budgetID, string(kind), name, description, model.MoneyString(decimal.Zero),
	)
	if err != nil {
		return nil, mapAccountError("create account", err, name)
	}

	slog.Debug("created account", "id", account.ID, "kind", kind, "name", name)
	return account, nil
}

// CreateRealAndDraftPair creates a real account and its draft companion as
// one atomic unit of work; both rows persist or neither does.
func (s *SQLiteStorage) CreateRealAndDraftPair(ctx context.Context, budgetID, name, description string) (*model.Account, *model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, nil, err
	}

	real := &model.Account{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Kind:        model.KindReal,
		Balance:     decimal.Zero,
	}
	draft := &model.Account{
		ID:          uuid.NewString(),
		Name:        name + " (draft)",
		Description: description,
		Kind:        model.KindDraft,
		CompanionID: real.ID,
		Balance:     decimal.Zero,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, common.NewPersistenceError("create real/draft pair", err)
	}
	defer func() { _ = tx.Rollback() }()

	zero := model.MoneyString(decimal.Zero)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, budget_id, kind, name, description, balance)
		VALUES (?, ?, ?, ?, ?, ?)`,
		real.ID, budgetID, string(model.KindReal), real.Name, description, zero,
	); err != nil {
		return nil, nil, mapAccountError("create real/draft pair", err, real.Name)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, budget_id, kind, name, description, balance, companion_real_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, budgetID, string(model.KindDraft), draft.Name, description, zero, real.ID,
	); err != nil {
		return nil, nil, mapAccountError("create real/draft pair", err, draft.Name)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, common.NewPersistenceError("create real/draft pair", err)
	}

	slog.Debug("created real/draft pair", "real", real.ID, "draft", draft.ID, "name", name)
	return real, draft, nil
}

// DeactivateAccount records an inactive period for a zero-balance account.
// Rows are never deleted.
func (s *SQLiteStorage) DeactivateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewPersistenceError("deactivate account", err)
	}
	defer func() { _ = tx.Rollback() }()

	var balText string
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ? AND deactivated_at IS NULL`,
		account.ID,
	).Scan(&balText)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, account.ID)
	}
	if err != nil {
		return common.NewPersistenceError("deactivate account", err)
	}

	balance, err := decimal.NewFromString(balText)
	if err != nil {
		return common.NewPersistenceError("deactivate account", err)
	}
	if !balance.IsZero() {
		return fmt.Errorf("%w: account %q holds %s", common.ErrAccountNotEmpty, account.Name, balText)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET deactivated_at = ? WHERE id = ?`,
		time.Now().UTC(), account.ID,
	); err != nil {
		return common.NewPersistenceError("deactivate account", err)
	}

	if err := tx.Commit(); err != nil {
		return common.NewPersistenceError("deactivate account", err)
	}
	return nil
}

// RenameAccount changes an account's name, rejecting active-name collisions.
func (s *SQLiteStorage) RenameAccount(ctx context.Context, account *model.Account, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	if err := validateString(newName, "newName"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ? WHERE id = ?`, newName, account.ID)
	if err != nil {
		return mapAccountError("rename account", err, newName)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("rename account", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, account.ID)
	}
	return nil
}

// RedescribeAccount changes an account's description.
func (s *SQLiteStorage) RedescribeAccount(ctx context.Context, account *model.Account, newDescription string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET description = ? WHERE id = ?`, newDescription, account.ID)
	if err != nil {
		return common.NewPersistenceError("redescribe account", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("redescribe account", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, account.ID)
	}
	return nil
}

// mapAccountError turns a unique-constraint violation on the active-name
// index into the validation-level name conflict callers can recover from.
func mapAccountError(op string, err error, name string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %q", common.ErrNameConflict, name)
	}
	return common.NewPersistenceError(op, err)
}

// accountColumn maps an account kind to its transaction_items column.
func accountColumn(kind model.AccountKind) (string, error) {
	switch kind {
	case model.KindCategory:
		return "category_account_id", nil
	case model.KindReal:
		return "real_account_id", nil
	case model.KindDraft:
		return "draft_account_id", nil
	case model.KindCharge:
		return "charge_account_id", nil
	default:
		return "", fmt.Errorf("invalid account kind %q", kind)
	}
}
