package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillhollow/budgeteer/internal/history"
	"github.com/quillhollow/budgeteer/internal/model"
)

func historyCmd() *cobra.Command {
	var (
		limit int
		pages int
	)
	cmd := &cobra.Command{
		Use:   "history <account>",
		Short: "Browse an account's posting history",
		Long: `Show an account's postings newest-first with running balances.

Balances come from page checkpoints, never from re-summing full history, so
rendering stays cheap no matter how many transactions the account has.`,
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

			account, err := svc.Ledger().AccountByName(args[0])
			if err != nil {
				return err
			}

			page, cursor, err := history.Open(ctx, store, account, limit)
			if err != nil {
				return err
			}

			fmt.Println(formatTitle(fmt.Sprintf("History: %s (balance %s)", //nolint:forbidigo // User-facing output
				account.Name, model.MoneyString(account.Balance))))

			for i := 0; ; i++ {
				renderHistoryPage(page)
				if pages > 0 && i+1 >= pages {
					break
				}
				if len(page.Rows) < limit {
					break
				}
				page, cursor, err = history.NextPage(ctx, store, cursor)
				if err != nil {
					return err
				}
				if len(page.Rows) == 0 {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "postings per page")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of pages to print (0 = all)")
	return cmd
}

func renderHistoryPage(page history.Page) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Date"),
		headerStyle.Render("Description"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Balance"),
		headerStyle.Render("Status"))

	for _, row := range page.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Entry.Date.Format("2006-01-02"),
			row.Entry.Description,
			formatAmount(model.MoneyString(row.Entry.Amount)),
			model.MoneyString(row.BalanceAfter),
			subtleStyle.Render(string(row.Entry.Status)))
	}
}
