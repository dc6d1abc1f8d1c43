package main

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quillhollow/budgeteer/internal/model"
)

func spendCmd() *cobra.Command {
	var (
		from     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "spend <amount> <description>",
		Short: "Record a purchase paid from a real account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			svc, store, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			l := svc.Ledger()
			cat, err := l.AccountByName(category)
			if err != nil {
				return err
			}
			real, err := l.AccountByName(from)
			if err != nil {
				return err
			}

			if _, err := svc.Spend(ctx, cat.ID, real.ID, amount, args[1]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Spent %s from %s (%s)", //nolint:forbidigo // User-facing output
				model.MoneyString(amount), from, category)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "real account to pay from")
	cmd.Flags().StringVar(&category, "category", model.GeneralCategoryName, "category to spend against")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func chargeCmd() *cobra.Command {
	var (
		on       string
		category string
	)
	cmd := &cobra.Command{
		Use:   "charge <amount> <description>",
		Short: "Record a purchase on a credit instrument",
		Long: `Record a credit purchase: the category is spent now and the charge
account accrues an outstanding posting, cleared later by 'budgeteer paybill'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			svc, store, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			l := svc.Ledger()
			cat, err := l.AccountByName(category)
			if err != nil {
				return err
			}
			chargeAcct, err := l.AccountByName(on)
			if err != nil {
				return err
			}

			if _, err := svc.ChargePurchase(ctx, cat.ID, chargeAcct.ID, amount, args[1]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Charged %s on %s (%s)", //nolint:forbidigo // User-facing output
				model.MoneyString(amount), on, category)))
			return nil
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "charge account the purchase goes on")
	cmd.Flags().StringVar(&category, "category", model.GeneralCategoryName, "category to spend against")
	_ = cmd.MarkFlagRequired("on")
	return cmd
}
