// Package service defines the contracts between the ledger core and its
// persistence layer.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/model"
)

// PageEntry is one posting row in an account's history page. It carries the
// owning transaction's timestamp, description and sibling postings so a page
// renders without further round trips.
type PageEntry struct {
	Date          time.Time
	TransactionID string
	Description   string
	Status        model.DraftStatus
	Siblings      []model.Posting
	ItemID        int64
	Amount        decimal.Decimal
}

// OutstandingItem is an uncleared draft or charge posting, as offered to the
// check-clearing and bill-reconciliation flows.
type OutstandingItem struct {
	Date          time.Time
	TransactionID string
	AccountID     string
	Description   string
	ItemID        int64
	Amount        decimal.Decimal
}

// Storage defines the contract for the persistence port.
type Storage interface {
	// Budget bootstrap
	InitBudget(ctx context.Context, budgetID, name string) error

	// Account registry
	CreateAccount(ctx context.Context, budgetID string, kind model.AccountKind, name, description string) (*model.Account, error)
	CreateRealAndDraftPair(ctx context.Context, budgetID, name, description string) (*model.Account, *model.Account, error)
	DeactivateAccount(ctx context.Context, account *model.Account) error
	RenameAccount(ctx context.Context, account *model.Account, newName string) error
	RedescribeAccount(ctx context.Context, account *model.Account, newDescription string) error

	// Ledger synchronization
	CommitTransaction(ctx context.Context, txn *model.Transaction, budgetID string) error
	SaveLedger(ctx context.Context, budgetID string, accounts []model.Account) error
	LoadLedger(ctx context.Context, budgetID string) ([]model.Account, error)

	// Posting retrieval
	FetchPostingsPage(ctx context.Context, account model.View, limit, offset int) ([]PageEntry, error)
	OutstandingItems(ctx context.Context, account model.View) ([]OutstandingItem, error)

	// Database management
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
