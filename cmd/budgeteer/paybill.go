package main

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/reconcile"
)

func paybillCmd() *cobra.Command {
	var (
		from  string
		items []int64
	)
	cmd := &cobra.Command{
		Use:   "paybill <charge-account> <amount>",
		Short: "Pay a credit-instrument bill against outstanding charges",
		Long: `Match a bill payment against outstanding charge postings.

The payment commits only when the selected items exactly cover the bill
amount; a selection that overshoots is rejected and a shortfall is reported
with the remainder still owed. Without --items, all outstanding postings are
selected in order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
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
			chargeAcct, err := l.AccountByName(args[0])
			if err != nil {
				return err
			}
			source, err := l.AccountByName(from)
			if err != nil {
				return err
			}

			outstanding, err := svc.Outstanding(ctx, chargeAcct.ID)
			if err != nil {
				return err
			}

			wf := reconcile.New(svc, chargeAcct)
			if err := wf.SetBillAmount(amount); err != nil {
				return err
			}
			if err := wf.SelectSource(source); err != nil {
				return err
			}

			wanted := func(id int64) bool {
				if len(items) == 0 {
					return true
				}
				for _, w := range items {
					if w == id {
						return true
					}
				}
				return false
			}

			for _, item := range outstanding {
				if !wanted(item.ItemID) {
					continue
				}
				outcome, err := wf.Select(ctx, item)
				if err != nil {
					return err
				}
				switch outcome {
				case reconcile.OutcomeCovered:
					fmt.Println(successStyle.Render(fmt.Sprintf("✓ Bill of %s covered by %d charges", //nolint:forbidigo // User-facing output
						model.MoneyString(amount), len(wf.Selected()))))
					return nil
				case reconcile.OutcomeOvershot:
					fmt.Println(warningStyle.Render(fmt.Sprintf("Item %d would overshoot the bill; skipped", item.ItemID))) //nolint:forbidigo // User-facing output
				case reconcile.OutcomeAwaitingMore:
					// keep collecting
				}
			}

			return fmt.Errorf("selection does not cover the bill: %s still owed (record the missing charge first)",
				model.MoneyString(wf.Remaining()))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "real account the payment draws from")
	cmd.Flags().Int64SliceVar(&items, "items", nil, "item ids to match (default: all outstanding, in order)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
