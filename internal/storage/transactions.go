package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/service"
)

// CommitTransaction durably commits a built transaction: the transaction row,
// every item row, every balance delta, and the status flip of superseded
// items execute inside one database transaction with manual commit/rollback.
// Any statement failure rolls the whole unit back and surfaces a
// PersistenceError; no partial effect remains visible.
func (s *SQLiteStorage) CommitTransaction(ctx context.Context, txn *model.Transaction, budgetID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, budget_id, description, date, clears_tx_id)
		VALUES (?, ?, ?, ?, ?)`,
		txn.ID(), budgetID, txn.Description(), txn.Date(), nullString(txn.ClearsTxID()),
	); err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transaction_items (
			transaction_id, budget_id, description, amount,
			category_account_id, real_account_id, draft_account_id, charge_account_id,
			status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}
	defer func() { _ = stmt.Close() }()

	deltas := make(map[string]decimal.Decimal)
	for _, p := range txn.Postings() {
		cols := map[model.AccountKind]any{
			model.KindCategory: nil,
			model.KindReal:     nil,
			model.KindDraft:    nil,
			model.KindCharge:   nil,
		}
		cols[p.Kind] = p.AccountID

		if _, err := stmt.ExecContext(ctx,
			txn.ID(), budgetID, nullString(p.Description), model.MoneyString(p.Amount),
			cols[model.KindCategory], cols[model.KindReal], cols[model.KindDraft], cols[model.KindCharge],
			string(p.Status),
		); err != nil {
			return common.NewPersistenceError("commit transaction", err)
		}

		deltas[p.AccountID] = deltas[p.AccountID].Add(p.Amount)
	}

	for accountID, delta := range deltas {
		if err := applyBalanceDeltaTx(ctx, tx, accountID, delta); err != nil {
			return err
		}
	}

	for _, itemID := range txn.ClearedItemIDs() {
		res, err := tx.ExecContext(ctx, `
			UPDATE transaction_items SET status = ?
			WHERE id = ? AND status = ?`,
			string(model.StatusCleared), itemID, string(model.StatusOutstanding),
		)
		if err != nil {
			return common.NewPersistenceError("commit transaction", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return common.NewPersistenceError("commit transaction", err)
		}
		if affected != 1 {
			return common.NewPersistenceError("commit transaction",
				fmt.Errorf("item %d is not outstanding", itemID))
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}

	slog.Debug("durably committed transaction", "tx", txn.ID(), "budget", budgetID, "accounts", len(deltas))
	return nil
}

func applyBalanceDeltaTx(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	var balText string
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ? AND deactivated_at IS NULL`,
		accountID,
	).Scan(&balText)
	if err != nil {
		return common.NewPersistenceError("commit transaction",
			fmt.Errorf("account %s: %w", accountID, err))
	}

	balance, err := decimal.NewFromString(balText)
	if err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}

	next := model.RoundMoney(balance.Add(delta))
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		model.MoneyString(next), accountID,
	); err != nil {
		return common.NewPersistenceError("commit transaction", err)
	}
	return nil
}

// FetchPostingsPage returns postings touching the account in
// reverse-chronological order, each carrying its transaction's timestamp,
// description and sibling postings, sufficient to render without further
// round trips.
func (s *SQLiteStorage) FetchPostingsPage(ctx context.Context, account model.View, limit, offset int) ([]service.PageEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}
	column, err := accountColumn(account.Kind)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // column comes from accountColumn's fixed set, never from input
	query := fmt.Sprintf(`
		SELECT i.id, i.transaction_id, i.description, i.amount, i.status, t.date, t.description
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE i.%s = ?
		ORDER BY t.date DESC, t.id DESC, i.id DESC
		LIMIT ? OFFSET ?`, column)

	rows, err := s.db.QueryContext(ctx, query, account.ID, limit, offset)
	if err != nil {
		return nil, common.NewPersistenceError("fetch postings page", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []service.PageEntry
	txIDs := make([]string, 0, limit)
	seen := make(map[string]bool)

	for rows.Next() {
		var (
			e        service.PageEntry
			itemDesc sql.NullString
			amtText  string
			status   string
			txDesc   string
		)
		if err := rows.Scan(&e.ItemID, &e.TransactionID, &itemDesc, &amtText, &status, &e.Date, &txDesc); err != nil {
			return nil, common.NewPersistenceError("fetch postings page", err)
		}
		e.Amount, err = decimal.NewFromString(amtText)
		if err != nil {
			return nil, common.NewPersistenceError("fetch postings page", err)
		}
		e.Status = model.DraftStatus(status)
		e.Description = txDesc
		if itemDesc.Valid && itemDesc.String != "" {
			e.Description = itemDesc.String
		}
		entries = append(entries, e)
		if !seen[e.TransactionID] {
			seen[e.TransactionID] = true
			txIDs = append(txIDs, e.TransactionID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewPersistenceError("fetch postings page", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	siblings, err := s.fetchSiblings(ctx, txIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Siblings = siblings[entries[i].TransactionID]
	}
	return entries, nil
}

func (s *SQLiteStorage) fetchSiblings(ctx context.Context, txIDs []string) (map[string][]model.Posting, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(txIDs)), ",")
	//nolint:gosec // placeholders are generated, values are bound
	query := fmt.Sprintf(`
		SELECT transaction_id, description, amount, status,
		       category_account_id, real_account_id, draft_account_id, charge_account_id
		FROM transaction_items
		WHERE transaction_id IN (%s)
		ORDER BY id`, placeholders)

	args := make([]any, len(txIDs))
	for i, id := range txIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewPersistenceError("fetch postings page", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]model.Posting, len(txIDs))
	for rows.Next() {
		var (
			txID            string
			desc            sql.NullString
			amtText         string
			status          string
			cat, re, dr, ch sql.NullString
		)
		if err := rows.Scan(&txID, &desc, &amtText, &status, &cat, &re, &dr, &ch); err != nil {
			return nil, common.NewPersistenceError("fetch postings page", err)
		}

		p := model.Posting{Status: model.DraftStatus(status)}
		if desc.Valid {
			p.Description = desc.String
		}
		p.Amount, err = decimal.NewFromString(amtText)
		if err != nil {
			return nil, common.NewPersistenceError("fetch postings page", err)
		}
		switch {
		case cat.Valid:
			p.AccountID, p.Kind = cat.String, model.KindCategory
		case re.Valid:
			p.AccountID, p.Kind = re.String, model.KindReal
		case dr.Valid:
			p.AccountID, p.Kind = dr.String, model.KindDraft
		case ch.Valid:
			p.AccountID, p.Kind = ch.String, model.KindCharge
		}
		out[txID] = append(out[txID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewPersistenceError("fetch postings page", err)
	}
	return out, nil
}

// OutstandingItems returns the account's uncleared draft or charge postings,
// oldest first, as offered to check clearing and bill reconciliation.
func (s *SQLiteStorage) OutstandingItems(ctx context.Context, account model.View) ([]service.OutstandingItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	column, err := accountColumn(account.Kind)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // column comes from accountColumn's fixed set, never from input
	query := fmt.Sprintf(`
		SELECT i.id, i.transaction_id, i.description, i.amount, t.date, t.description
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE i.%s = ? AND i.status = ?
		ORDER BY t.date ASC, i.id ASC`, column)

	rows, err := s.db.QueryContext(ctx, query, account.ID, string(model.StatusOutstanding))
	if err != nil {
		return nil, common.NewPersistenceError("outstanding items", err)
	}
	defer func() { _ = rows.Close() }()

	var items []service.OutstandingItem
	for rows.Next() {
		var (
			item     service.OutstandingItem
			itemDesc sql.NullString
			amtText  string
			txDesc   string
		)
		if err := rows.Scan(&item.ItemID, &item.TransactionID, &itemDesc, &amtText, &item.Date, &txDesc); err != nil {
			return nil, common.NewPersistenceError("outstanding items", err)
		}
		item.Amount, err = decimal.NewFromString(amtText)
		if err != nil {
			return nil, common.NewPersistenceError("outstanding items", err)
		}
		item.AccountID = account.ID
		item.Description = txDesc
		if itemDesc.Valid && itemDesc.String != "" {
			item.Description = itemDesc.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewPersistenceError("outstanding items", err)
	}
	return items, nil
}
