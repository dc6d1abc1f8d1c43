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

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage ledger accounts",
	}
	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsAddCmd())
	cmd.AddCommand(accountsDeactivateCmd())
	cmd.AddCommand(accountsRenameCmd())
	cmd.AddCommand(accountsDescribeCmd())
	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all active accounts with balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			fmt.Println(formatTitle("Accounts")) //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("Name"),
				headerStyle.Render("Kind"),
				headerStyle.Render("Balance"),
				headerStyle.Render("Description"))

			for _, a := range svc.Ledger().Accounts() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					a.Name, a.Kind, formatAmount(model.MoneyString(a.Balance)),
					subtleStyle.Render(a.Description))
			}
			return nil
		},
	}
}

func accountsAddCmd() *cobra.Command {
	var (
		kind        string
		description string
		opening     string
		withDraft   bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new account",
		Long: `Create an account of the given kind (category, real, charge).

Real accounts may carry an opening balance, posted against the general
category in the same transaction, and may be created together with their
draft companion for check tracking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			svc, store, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			switch model.AccountKind(kind) {
			case model.KindCategory:
				_, err = svc.CreateCategoryAccount(ctx, name, description)
			case model.KindCharge:
				_, err = svc.CreateChargeAccount(ctx, name, description)
			case model.KindReal:
				if withDraft {
					_, _, err = svc.CreateRealAndDraftPair(ctx, name, description)
					break
				}
				amount := decimal.Zero
				if opening != "" {
					amount, err = decimal.NewFromString(opening)
					if err != nil {
						return fmt.Errorf("invalid opening balance %q: %w", opening, err)
					}
				}
				_, err = svc.CreateRealAccount(ctx, name, description, amount)
			default:
				return fmt.Errorf("unknown account kind %q (want category, real or charge)", kind)
			}
			if err != nil {
				return err
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Created %s account %q", kind, name))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "category", "account kind: category, real, charge")
	cmd.Flags().StringVar(&description, "description", "", "account description")
	cmd.Flags().StringVar(&opening, "opening", "", "opening balance (real accounts only)")
	cmd.Flags().BoolVar(&withDraft, "with-draft", false, "also create the draft companion (real accounts only)")
	return cmd
}

func accountsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <name>",
		Short: "Deactivate a zero-balance account",
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
			if err := svc.DeactivateAccount(ctx, view.ID); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Deactivated %q", args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func accountsDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name> <description>",
		Short: "Update an account's description",
		Args:  cobra.ExactArgs(2),
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
			if err := svc.RedescribeAccount(ctx, view.ID, args[1]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Updated description of %q", args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func accountsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
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
			if err := svc.RenameAccount(ctx, view.ID, args[1]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Renamed %q to %q", args[0], args[1]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
