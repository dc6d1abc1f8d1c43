// Package history implements balance-checkpointed browsing of an account's
// posting history.
//
// Transaction volume can be large, so a page render never re-sums full
// history. Each visited page boundary caches one checkpoint balance; the next
// page's checkpoint is derived from the current one and the displayed page's
// net amount, making forward navigation O(limit) and backward navigation
// O(1).
package history

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/service"
)

// ErrNoPreviousPage is returned when PrevPage is called on the first page.
var ErrNoPreviousPage = errors.New("already on the first page")

// Row is one rendered posting with its running balance.
type Row struct {
	Entry service.PageEntry
	// BalanceAfter is the account balance immediately after this posting,
	// derived by walking the page top-down from its checkpoint.
	BalanceAfter decimal.Decimal
}

// Page is one rendered page of account history.
type Page struct {
	Rows []Row
	// Checkpoint is the account balance after the newest posting on this page.
	Checkpoint decimal.Decimal
	Offset     int
}

// Net returns the sum of the page's posting amounts.
func (p Page) Net() decimal.Decimal {
	net := decimal.Zero
	for _, r := range p.Rows {
		net = net.Add(r.Entry.Amount)
	}
	return net
}

// Cursor is the paginator's explicit state, threaded through NextPage and
// PrevPage as a value. Holding it by value (rather than as shared mutable
// state) keeps concurrent page views of the same account from corrupting each
// other.
type Cursor struct {
	Account model.View
	// checkpoints holds one balance per visited page boundary; the top entry
	// is the current page's checkpoint.
	checkpoints []decimal.Decimal
	// pageNet is the displayed page's net amount, consumed when deriving the
	// next checkpoint.
	pageNet decimal.Decimal
	offset  int
	limit   int
}

// Offset returns the cursor's current page offset.
func (c Cursor) Offset() int { return c.offset }

// Depth returns how many page boundaries have been visited.
func (c Cursor) Depth() int { return len(c.checkpoints) }

// Open fetches the first page of an account's history. The page checkpoint is
// the account's live balance; an account with no postings yields an empty
// page with that same checkpoint.
func Open(ctx context.Context, store service.Storage, account model.View, limit int) (Page, Cursor, error) {
	cursor := Cursor{
		Account:     account,
		limit:       limit,
		offset:      0,
		checkpoints: []decimal.Decimal{account.Balance},
	}
	page, err := render(ctx, store, cursor)
	if err != nil {
		return Page{}, Cursor{}, err
	}
	cursor.pageNet = page.Net()
	return page, cursor, nil
}

// NextPage advances to the next (older) page. The new checkpoint is derived
// by subtracting the just-displayed page's net amount from the current
// checkpoint; it is never re-queried from the store.
func NextPage(ctx context.Context, store service.Storage, cursor Cursor) (Page, Cursor, error) {
	next := cursor
	next.offset = cursor.offset + cursor.limit
	derived := top(cursor.checkpoints).Sub(cursor.pageNet)
	next.checkpoints = append(append([]decimal.Decimal{}, cursor.checkpoints...), derived)

	page, err := render(ctx, store, next)
	if err != nil {
		return Page{}, Cursor{}, err
	}
	next.pageNet = page.Net()
	return page, next, nil
}

// PrevPage pops the checkpoint stack and re-renders the previous (newer)
// page. No balance is recomputed; the popped-to checkpoint is reused as is.
func PrevPage(ctx context.Context, store service.Storage, cursor Cursor) (Page, Cursor, error) {
	if len(cursor.checkpoints) <= 1 {
		return Page{}, Cursor{}, ErrNoPreviousPage
	}

	prev := cursor
	prev.checkpoints = append([]decimal.Decimal{}, cursor.checkpoints[:len(cursor.checkpoints)-1]...)
	prev.offset = cursor.offset - cursor.limit
	if prev.offset < 0 {
		prev.offset = 0
	}

	page, err := render(ctx, store, prev)
	if err != nil {
		return Page{}, Cursor{}, err
	}
	prev.pageNet = page.Net()
	return page, prev, nil
}

// render fetches the cursor's page and computes each row's running balance by
// walking the reverse-chronological entries, subtracting amounts cumulatively
// from the page's checkpoint.
func render(ctx context.Context, store service.Storage, cursor Cursor) (Page, error) {
	entries, err := store.FetchPostingsPage(ctx, cursor.Account, cursor.limit, cursor.offset)
	if err != nil {
		return Page{}, err
	}

	checkpoint := top(cursor.checkpoints)
	page := Page{
		Rows:       make([]Row, len(entries)),
		Checkpoint: checkpoint,
		Offset:     cursor.offset,
	}

	running := checkpoint
	for i, e := range entries {
		page.Rows[i] = Row{Entry: e, BalanceAfter: running}
		running = running.Sub(e.Amount)
	}
	return page, nil
}

func top(stack []decimal.Decimal) decimal.Decimal {
	return stack[len(stack)-1]
}
