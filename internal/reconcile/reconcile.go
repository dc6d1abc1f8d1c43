// Package reconcile implements the bill-payment workflow that matches a
// payment amount against outstanding charge postings.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/ledger"
	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/service"
)

// State names a step of the reconciliation workflow.
type State string

const (
	// StateCollectingAmount waits for the bill amount.
	StateCollectingAmount State = "collecting_amount"
	// StateSelectingRealSource waits for the paying real account.
	StateSelectingRealSource State = "selecting_real_source"
	// StateMatchingCharges accumulates outstanding charge selections.
	StateMatchingCharges State = "matching_charges"
	// StateCovered means the selection exactly covers the bill and the
	// compound transaction has been committed.
	StateCovered State = "covered"
)

// Outcome reports the effect of one selection step.
type Outcome string

const (
	// OutcomeCovered: remaining hit zero; the payment was committed.
	OutcomeCovered Outcome = "covered"
	// OutcomeOvershot: the selection would exceed the bill and was rejected.
	OutcomeOvershot Outcome = "overshot"
	// OutcomeAwaitingMore: the bill is not yet covered; select more items or
	// record a missing charge.
	OutcomeAwaitingMore Outcome = "awaiting_more"
)

// Workflow errors.
var (
	ErrWrongState     = errors.New("operation not valid in this workflow state")
	ErrNotPositive    = errors.New("bill amount must be positive")
	ErrNotOutstanding = errors.New("selected item is not an outstanding charge")
	ErrAlreadyChosen  = errors.New("item already selected")
)

// Workflow matches one bill payment against outstanding charge postings. A
// payment commits only when it exactly covers an explicit set of prior
// charges; ambiguous partial payments are rejected by construction.
//
// The maintained invariant: remaining = bill + sum(selected amounts), where
// outstanding charge amounts are negative.
type Workflow struct {
	svc      *ledger.Service
	charge   model.View
	source   model.View
	selected []service.OutstandingItem
	bill     decimal.Decimal
	state    State
}

// New starts a reconciliation against the given charge account.
func New(svc *ledger.Service, charge model.View) *Workflow {
	return &Workflow{
		svc:    svc,
		charge: charge,
		state:  StateCollectingAmount,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State { return w.state }

// Selected returns the currently selected outstanding items.
func (w *Workflow) Selected() []service.OutstandingItem {
	out := make([]service.OutstandingItem, len(w.selected))
	copy(out, w.selected)
	return out
}

// Remaining returns bill + sum(selected amounts). Zero means exact cover.
func (w *Workflow) Remaining() decimal.Decimal {
	remaining := w.bill
	for _, item := range w.selected {
		remaining = remaining.Add(item.Amount)
	}
	return remaining
}

// SetBillAmount records the payment amount and advances to source selection.
func (w *Workflow) SetBillAmount(amount decimal.Decimal) error {
	if w.state != StateCollectingAmount {
		return fmt.Errorf("%w: %s", ErrWrongState, w.state)
	}
	amount = model.RoundMoney(amount)
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNotPositive, model.MoneyString(amount))
	}
	w.bill = amount
	w.state = StateSelectingRealSource
	return nil
}

// SelectSource records the real account the payment draws from and advances
// to charge matching.
func (w *Workflow) SelectSource(source model.View) error {
	if w.state != StateSelectingRealSource {
		return fmt.Errorf("%w: %s", ErrWrongState, w.state)
	}
	if source.Kind != model.KindReal {
		return fmt.Errorf("%w: %s is not a real account", ErrWrongState, source.Name)
	}
	w.source = source
	w.state = StateMatchingCharges
	return nil
}

// Select adds one outstanding charge item to the selection and evaluates the
// invariant:
//
//	remaining == 0  -> commit the compound payment, workflow covered
//	remaining  < 0  -> reject the item, selection unchanged
//	remaining  > 0  -> keep collecting
func (w *Workflow) Select(ctx context.Context, item service.OutstandingItem) (Outcome, error) {
	if w.state != StateMatchingCharges {
		return "", fmt.Errorf("%w: %s", ErrWrongState, w.state)
	}
	if item.AccountID != w.charge.ID {
		return "", fmt.Errorf("%w: item %d belongs to another account", ErrNotOutstanding, item.ItemID)
	}
	if !item.Amount.IsNegative() {
		return "", fmt.Errorf("%w: item %d has amount %s", ErrNotOutstanding, item.ItemID, model.MoneyString(item.Amount))
	}
	for _, chosen := range w.selected {
		if chosen.ItemID == item.ItemID {
			return "", fmt.Errorf("%w: item %d", ErrAlreadyChosen, item.ItemID)
		}
	}

	remaining := w.Remaining().Add(item.Amount)
	switch {
	case remaining.IsNegative():
		slog.Debug("selection overshoots bill, rejected",
			"item", item.ItemID, "remaining", model.MoneyString(remaining))
		return OutcomeOvershot, nil
	case remaining.IsZero():
		w.selected = append(w.selected, item)
		if err := w.commit(ctx); err != nil {
			w.selected = w.selected[:len(w.selected)-1]
			return "", err
		}
		w.state = StateCovered
		return OutcomeCovered, nil
	default:
		w.selected = append(w.selected, item)
		return OutcomeAwaitingMore, nil
	}
}

// RecordMissingCharge runs the sub-flow for a charge that was never entered:
// it commits a new purchase transaction against the charge account and
// returns the fresh outstanding item so the caller can re-enter the loop.
func (w *Workflow) RecordMissingCharge(ctx context.Context, categoryID string, amount decimal.Decimal, description string) (service.OutstandingItem, error) {
	if w.state != StateMatchingCharges {
		return service.OutstandingItem{}, fmt.Errorf("%w: %s", ErrWrongState, w.state)
	}
	amount = model.RoundMoney(amount)
	if !amount.IsPositive() {
		return service.OutstandingItem{}, fmt.Errorf("%w: %s", ErrNotPositive, model.MoneyString(amount))
	}

	txn, err := w.svc.ChargePurchase(ctx, categoryID, w.charge.ID, amount, description)
	if err != nil {
		return service.OutstandingItem{}, err
	}

	items, err := w.svc.Outstanding(ctx, w.charge.ID)
	if err != nil {
		return service.OutstandingItem{}, err
	}
	for _, item := range items {
		if item.TransactionID == txn.ID() {
			return item, nil
		}
	}
	return service.OutstandingItem{}, fmt.Errorf("recorded charge %s not found among outstanding items", txn.ID())
}

// commit builds and durably commits the compound payment: one real-account
// debit for the bill amount and one clearing charge posting per selected
// item.
func (w *Workflow) commit(ctx context.Context) error {
	b := model.NewBuilder("bill payment: " + w.charge.Name).
		Real(w.source.ID, w.bill.Neg())
	for _, item := range w.selected {
		b.Posting(model.Posting{
			AccountID:    w.charge.ID,
			Kind:         model.KindCharge,
			Amount:       item.Amount.Neg(),
			Status:       model.StatusClearing,
			ClearsItemID: item.ItemID,
			Description:  item.Description,
		})
	}

	txn, err := b.Build()
	if err != nil {
		return err
	}
	if err := w.svc.Commit(ctx, txn); err != nil {
		return err
	}

	slog.Info("bill payment committed",
		"charge", w.charge.Name, "source", w.source.Name,
		"amount", model.MoneyString(w.bill), "items", len(w.selected))
	return nil
}
