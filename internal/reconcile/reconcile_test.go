package reconcile_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/reconcile"
	"github.com/quillhollow/budgeteer/internal/service"
	"github.com/quillhollow/budgeteer/internal/testutil"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type fixture struct {
	tb       *testutil.TestBudget
	charge   model.View
	checking model.View
	cat      model.View
	items    []service.OutstandingItem
}

// setupBill seeds a charge account with three outstanding purchases of 30.00,
// 45.00 and 25.00, and a checking account holding 200.00.
func setupBill(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	tb := testutil.SetupBudget(t)

	charge, err := tb.Service.CreateChargeAccount(ctx, "visa", "")
	require.NoError(t, err)
	checking, err := tb.Service.CreateRealAccount(ctx, "checking", "", dec(t, "200.00"))
	require.NoError(t, err)
	cat, err := tb.Service.CreateCategoryAccount(ctx, "household", "")
	require.NoError(t, err)

	for _, amount := range []string{"30.00", "45.00", "25.00"} {
		_, err := tb.Service.ChargePurchase(ctx, cat.ID, charge.ID, dec(t, amount), "purchase "+amount)
		require.NoError(t, err)
	}

	items, err := tb.Service.Outstanding(ctx, charge.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	chargeView, err := tb.Service.Ledger().AccountByID(charge.ID, model.KindCharge)
	require.NoError(t, err)
	checkingView, err := tb.Service.Ledger().AccountByID(checking.ID, model.KindReal)
	require.NoError(t, err)

	return fixture{tb: tb, charge: chargeView, checking: checkingView, cat: cat, items: items}
}

func TestWorkflow_ExactCoverCommitsCompoundPayment(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	w := reconcile.New(f.tb.Service, f.charge)
	assert.Equal(t, reconcile.StateCollectingAmount, w.State())

	require.NoError(t, w.SetBillAmount(dec(t, "100.00")))
	require.NoError(t, w.SelectSource(f.checking))
	assert.Equal(t, reconcile.StateMatchingCharges, w.State())

	outcome, err := w.Select(ctx, f.items[0])
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeAwaitingMore, outcome)
	assert.True(t, w.Remaining().Equal(dec(t, "70.00")))

	outcome, err = w.Select(ctx, f.items[1])
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeAwaitingMore, outcome)
	assert.True(t, w.Remaining().Equal(dec(t, "25.00")))

	outcome, err = w.Select(ctx, f.items[2])
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeCovered, outcome)
	assert.Equal(t, reconcile.StateCovered, w.State())
	assert.True(t, w.Remaining().IsZero())

	// Checking drops by the bill; the charge account returns to zero.
	l := f.tb.Service.Ledger()
	checking, err := l.AccountByID(f.checking.ID, model.KindReal)
	require.NoError(t, err)
	assert.True(t, checking.Balance.Equal(dec(t, "100.00")))

	charge, err := l.AccountByID(f.charge.ID, model.KindCharge)
	require.NoError(t, err)
	assert.True(t, charge.Balance.IsZero())

	items, err := f.tb.Service.Outstanding(ctx, f.charge.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "every selected item was cleared by the payment")
}

func TestWorkflow_OvershootRejectsAndKeepsSelection(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	w := reconcile.New(f.tb.Service, f.charge)
	require.NoError(t, w.SetBillAmount(dec(t, "50.00")))
	require.NoError(t, w.SelectSource(f.checking))

	outcome, err := w.Select(ctx, f.items[0]) // -30.00
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeAwaitingMore, outcome)

	outcome, err = w.Select(ctx, f.items[1]) // -45.00 would overshoot
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeOvershot, outcome)
	assert.Len(t, w.Selected(), 1, "a rejected item leaves the selection unchanged")
	assert.True(t, w.Remaining().Equal(dec(t, "20.00")))
	assert.Equal(t, reconcile.StateMatchingCharges, w.State())
}

func TestWorkflow_SelectValidation(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	w := reconcile.New(f.tb.Service, f.charge)
	require.NoError(t, w.SetBillAmount(dec(t, "100.00")))
	require.NoError(t, w.SelectSource(f.checking))

	t.Run("wrong account", func(t *testing.T) {
		foreign := f.items[0]
		foreign.AccountID = "some-other-account"
		_, err := w.Select(ctx, foreign)
		assert.ErrorIs(t, err, reconcile.ErrNotOutstanding)
	})

	t.Run("non-negative amount", func(t *testing.T) {
		positive := f.items[0]
		positive.Amount = dec(t, "30.00")
		_, err := w.Select(ctx, positive)
		assert.ErrorIs(t, err, reconcile.ErrNotOutstanding)
	})

	t.Run("duplicate item", func(t *testing.T) {
		_, err := w.Select(ctx, f.items[0])
		require.NoError(t, err)
		_, err = w.Select(ctx, f.items[0])
		assert.ErrorIs(t, err, reconcile.ErrAlreadyChosen)
	})
}

func TestWorkflow_StateGuards(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	w := reconcile.New(f.tb.Service, f.charge)

	_, err := w.Select(ctx, f.items[0])
	assert.ErrorIs(t, err, reconcile.ErrWrongState, "matching before the amount is set")

	err = w.SelectSource(f.checking)
	assert.ErrorIs(t, err, reconcile.ErrWrongState, "source before the amount is set")

	assert.ErrorIs(t, w.SetBillAmount(dec(t, "0.00")), reconcile.ErrNotPositive)
	assert.ErrorIs(t, w.SetBillAmount(dec(t, "-5.00")), reconcile.ErrNotPositive)

	require.NoError(t, w.SetBillAmount(dec(t, "100.00")))
	assert.ErrorIs(t, w.SetBillAmount(dec(t, "100.00")), reconcile.ErrWrongState)

	err = w.SelectSource(f.cat)
	assert.ErrorIs(t, err, reconcile.ErrWrongState, "only real accounts can pay a bill")
}

func TestWorkflow_RecordMissingCharge(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	// Bill is 112.50: the three known charges leave 12.50 unaccounted for.
	w := reconcile.New(f.tb.Service, f.charge)
	require.NoError(t, w.SetBillAmount(dec(t, "112.50")))
	require.NoError(t, w.SelectSource(f.checking))

	for _, item := range f.items {
		outcome, err := w.Select(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeAwaitingMore, outcome)
	}
	assert.True(t, w.Remaining().Equal(dec(t, "12.50")))

	fresh, err := w.RecordMissingCharge(ctx, f.cat.ID, dec(t, "12.50"), "forgotten coffee")
	require.NoError(t, err)
	assert.True(t, fresh.Amount.Equal(dec(t, "-12.50")))
	assert.Equal(t, "forgotten coffee", fresh.Description)

	outcome, err := w.Select(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeCovered, outcome)

	charge, err := f.tb.Service.Ledger().AccountByID(f.charge.ID, model.KindCharge)
	require.NoError(t, err)
	assert.True(t, charge.Balance.IsZero())
}

func TestWorkflow_RecordMissingChargeGuards(t *testing.T) {
	ctx := context.Background()
	f := setupBill(t)

	w := reconcile.New(f.tb.Service, f.charge)
	_, err := w.RecordMissingCharge(ctx, f.cat.ID, dec(t, "5.00"), "too early")
	assert.ErrorIs(t, err, reconcile.ErrWrongState)

	require.NoError(t, w.SetBillAmount(dec(t, "10.00")))
	require.NoError(t, w.SelectSource(f.checking))
	_, err = w.RecordMissingCharge(ctx, f.cat.ID, dec(t, "-5.00"), "negative")
	assert.ErrorIs(t, err, reconcile.ErrNotPositive)
}
