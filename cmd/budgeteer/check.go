package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quillhollow/budgeteer/internal/model"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Write and clear checks against a draft account",
	}
	cmd.AddCommand(checkWriteCmd())
	cmd.AddCommand(checkOutstandingCmd())
	cmd.AddCommand(checkClearCmd())
	return cmd
}

func checkWriteCmd() *cobra.Command {
	var (
		draft    string
		category string
	)
	cmd := &cobra.Command{
		Use:   "write <amount> <description>",
		Short: "Write a check",
		Long: `Write a check: the category is spent immediately, the draft account
tracks the uncleared amount, and the companion real account stays untouched
until the check clears.`,
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
			draftAcct, err := l.AccountByName(draft)
			if err != nil {
				return err
			}

			if _, err := svc.WriteCheck(ctx, cat.ID, draftAcct.ID, amount, args[1]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Wrote check for %s on %s", //nolint:forbidigo // User-facing output
				model.MoneyString(amount), draft)))
			return nil
		},
	}
	cmd.Flags().StringVar(&draft, "draft", "", "draft account the check is written against")
	cmd.Flags().StringVar(&category, "category", model.GeneralCategoryName, "category to spend against")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

func checkOutstandingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outstanding <draft-account>",
		Short: "List uncleared checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			view, err := svc.Ledger().AccountByName(args[0])
			if err != nil {
				return err
			}
			items, err := svc.Outstanding(ctx, view.ID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(subtleStyle.Render("No outstanding checks.")) //nolint:forbidigo // User-facing output
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("Item"),
				headerStyle.Render("Date"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Description"))
			for _, item := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					item.ItemID, item.Date.Format("2006-01-02"),
					formatAmount(model.MoneyString(item.Amount)), item.Description)
			}
			return nil
		},
	}
}

func checkClearCmd() *cobra.Command {
	var itemID int64
	cmd := &cobra.Command{
		Use:   "clear <draft-account>",
		Short: "Clear an outstanding check",
		Long: `Clear a check: one transaction unwinds the draft balance and debits the
companion real account, superseding the outstanding posting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			view, err := svc.Ledger().AccountByName(args[0])
			if err != nil {
				return err
			}
			items, err := svc.Outstanding(ctx, view.ID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if item.ItemID == itemID {
					if _, err := svc.ClearCheck(ctx, item); err != nil {
						return err
					}
					fmt.Println(successStyle.Render(fmt.Sprintf("✓ Cleared check %d (%s)", //nolint:forbidigo // User-facing output
						item.ItemID, model.MoneyString(item.Amount))))
					return nil
				}
			}
			return fmt.Errorf("no outstanding check with item id %d on %q", itemID, args[0])
		},
	}
	cmd.Flags().Int64Var(&itemID, "item", 0, "item id of the check to clear (see 'check outstanding')")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}
