package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/ledger"
	"github.com/quillhollow/budgeteer/internal/storage"
)

const keepaliveInterval = 30 * time.Second

func databasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "budgeteer", "budgeteer.db"), nil
}

// initStorage opens and migrates the store and starts its liveness probe.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	path, err := databasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	store.StartKeepalive(ctx, keepaliveInterval)
	return store, nil
}

// loadService opens the store and loads the configured budget's ledger.
// The caller closes the returned store.
func loadService(ctx context.Context) (*ledger.Service, *storage.SQLiteStorage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := ledger.NewService(store, viper.GetString("budget.id"))
	if err := svc.Load(ctx); err != nil {
		_ = store.Close()
		if errors.Is(err, common.ErrNotConfigured) {
			return nil, nil, common.NewUserError("no budget found; run 'budgeteer init' first", err)
		}
		return nil, nil, err
	}
	return svc, store, nil
}
