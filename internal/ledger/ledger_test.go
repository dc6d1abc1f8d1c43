package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/ledger"
	"github.com/quillhollow/budgeteer/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New("budget-1")
	accounts := []*model.Account{
		{ID: "cat-general", Name: model.GeneralCategoryName, Kind: model.KindCategory},
		{ID: "cat-food", Name: "food", Kind: model.KindCategory},
		{ID: "real-checking", Name: "checking", Kind: model.KindReal},
		{ID: "draft-checking", Name: "checking (draft)", Kind: model.KindDraft, CompanionID: "real-checking"},
		{ID: "charge-visa", Name: "visa", Kind: model.KindCharge},
	}
	for _, a := range accounts {
		require.NoError(t, l.AddAccount(a))
	}
	return l
}

func TestLedger_AddAccount(t *testing.T) {
	l := newTestLedger(t)

	t.Run("name conflict with active account", func(t *testing.T) {
		err := l.AddAccount(&model.Account{ID: "cat-dup", Name: "food", Kind: model.KindCategory})
		assert.ErrorIs(t, err, common.ErrNameConflict)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := l.AddAccount(&model.Account{ID: "cat-food", Name: "food 2", Kind: model.KindCategory})
		assert.ErrorIs(t, err, common.ErrInvalidAccount)
	})

	t.Run("roster stays name sorted", func(t *testing.T) {
		require.NoError(t, l.AddAccount(&model.Account{ID: "cat-auto", Name: "auto", Kind: model.KindCategory}))
		views := l.Accounts()
		for i := 1; i < len(views); i++ {
			assert.LessOrEqual(t, views[i-1].Name, views[i].Name)
		}
	})
}

func TestLedger_CommitAndValidate(t *testing.T) {
	l := newTestLedger(t)

	txn, err := model.NewBuilder("opening").
		Real("real-checking", dec("100.00")).
		Category("cat-general", dec("100.00")).
		Build()
	require.NoError(t, err)
	require.NoError(t, l.Commit(txn))

	checking, err := l.AccountByID("real-checking", model.KindReal)
	require.NoError(t, err)
	assert.True(t, checking.Balance.Equal(dec("100.00")))
	assert.True(t, l.Validate())

	spend, err := model.NewBuilder("groceries").
		Category("cat-food", dec("-30.00")).
		Real("real-checking", dec("-30.00")).
		Build()
	require.NoError(t, err)
	require.NoError(t, l.Commit(spend))

	food, err := l.AccountByID("cat-food", model.KindCategory)
	require.NoError(t, err)
	assert.True(t, food.Balance.Equal(dec("-30.00")))
	assert.True(t, l.Validate(), "category+draft must equal real+charge after every commit")
}

func TestLedger_CommitUnknownAccountLeavesBalancesUntouched(t *testing.T) {
	l := newTestLedger(t)

	txn, err := model.NewBuilder("bad").
		Category("cat-food", dec("-10.00")).
		Real("real-missing", dec("-10.00")).
		Build()
	require.NoError(t, err)

	err = l.Commit(txn)
	assert.ErrorIs(t, err, common.ErrNotFound)

	food, err := l.AccountByID("cat-food", model.KindCategory)
	require.NoError(t, err)
	assert.True(t, food.Balance.IsZero(), "no posting of a failed commit may be applied")
}

func TestLedger_AccountByID_KindMismatch(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AccountByID("real-checking", model.KindCategory)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = l.AccountByID("nope", model.KindReal)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedger_ValidateRequiresGeneralAccount(t *testing.T) {
	l := ledger.New("budget-1")
	require.NoError(t, l.AddAccount(&model.Account{ID: "cat-food", Name: "food", Kind: model.KindCategory}))
	assert.False(t, l.Validate(), "a ledger without the general category is corrupt")
}

func TestLedger_FromAccountsIsOrderIndependent(t *testing.T) {
	accounts := []model.Account{
		{ID: "real-checking", Name: "checking", Kind: model.KindReal, Balance: dec("80.00")},
		{ID: "cat-general", Name: model.GeneralCategoryName, Kind: model.KindCategory, Balance: dec("80.00")},
	}
	reversed := []model.Account{accounts[1], accounts[0]}

	l1, err := ledger.FromAccounts("budget-1", accounts)
	require.NoError(t, err)
	l2, err := ledger.FromAccounts("budget-1", reversed)
	require.NoError(t, err)

	assert.Equal(t, l1.Accounts(), l2.Accounts())
	assert.True(t, l1.Validate())
}

func TestLedger_DeactivatedAccountFreesItsName(t *testing.T) {
	at := time.Now().UTC()
	deactivated := &model.Account{ID: "cat-old", Name: "food", Kind: model.KindCategory, DeactivatedAt: &at}
	fresh := ledger.New("budget-2")
	require.NoError(t, fresh.AddAccount(deactivated))
	require.NoError(t, fresh.AddAccount(&model.Account{ID: "cat-new", Name: "food", Kind: model.KindCategory}))

	view, err := fresh.AccountByName("food")
	require.NoError(t, err)
	assert.Equal(t, "cat-new", view.ID)
}
