package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/ledger"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new budget",
		Long: `Create the budget and its mandatory "general" category account.

Run this once before any other command; everything else fails with
"budget not configured" until the budget exists.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	budgetID := viper.GetString("budget.id")
	name := budgetID
	if len(args) == 1 {
		name = args[0]
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	svc := ledger.NewService(store, budgetID)
	if err := svc.Load(ctx); err == nil {
		return fmt.Errorf("budget %q already exists", budgetID)
	} else if !errors.Is(err, common.ErrNotConfigured) {
		return err
	}

	if err := svc.Bootstrap(ctx, name); err != nil {
		return fmt.Errorf("failed to bootstrap budget: %w", err)
	}
	common.LogInfo("budget bootstrapped", common.Fields{"budget": budgetID, "name": name})

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Created budget %q", name))) //nolint:forbidigo // User-facing output
	return nil
}
