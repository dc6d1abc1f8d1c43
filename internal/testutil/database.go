// Package testutil provides test fixtures for the budgeteer core: an
// in-memory store and a bootstrapped budget with its general category.
package testutil

import (
	"context"
	"testing"

	"github.com/quillhollow/budgeteer/internal/ledger"
	"github.com/quillhollow/budgeteer/internal/storage"
)

// TestBudget bundles a migrated in-memory store with a bootstrapped service.
type TestBudget struct {
	Store    *storage.SQLiteStorage
	Service  *ledger.Service
	BudgetID string
}

// SetupStore creates a migrated in-memory SQLite store with cleanup attached.
func SetupStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to migrate test store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SetupBudget creates a store and bootstraps a budget on it, so tests start
// from a valid ledger containing the general category account.
func SetupBudget(t *testing.T) *TestBudget {
	t.Helper()

	store := SetupStore(t)
	budgetID := "budget-test"
	svc := ledger.NewService(store, budgetID)

	if err := svc.Bootstrap(context.Background(), "test budget"); err != nil {
		t.Fatalf("failed to bootstrap budget: %v", err)
	}

	return &TestBudget{
		Store:    store,
		Service:  svc,
		BudgetID: budgetID,
	}
}
