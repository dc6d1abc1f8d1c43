package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuilder_ZeroSumRule(t *testing.T) {
	tests := []struct {
		build   func() (*model.Transaction, error)
		name    string
		wantErr error
	}{
		{
			name: "unbalanced category against real fails",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("groceries").
					Category("cat-1", dec("-30.00")).
					Real("real-1", dec("20.00")).
					Build()
			},
			wantErr: common.ErrUnbalanced,
		},
		{
			name: "cash purchase balances",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("groceries").
					Category("cat-1", dec("-30.00")).
					Real("real-1", dec("-30.00")).
					Build()
			},
		},
		{
			name: "credit purchase balances without a real posting",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("new tires").
					Category("cat-1", dec("-120.00")).
					Charge("charge-1", dec("-120.00"), model.StatusOutstanding).
					Build()
			},
		},
		{
			name: "check write balances category against draft",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("rent check").
					Category("cat-1", dec("-20.00")).
					Draft("draft-1", dec("20.00"), model.StatusOutstanding).
					Build()
			},
		},
		{
			name: "empty transaction fails",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("nothing").Build()
			},
			wantErr: common.ErrInvalidTransaction,
		},
		{
			name: "zero amount posting fails",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("noop").
					Category("cat-1", decimal.Zero).
					Real("real-1", decimal.Zero).
					Build()
			},
			wantErr: common.ErrInvalidTransaction,
		},
		{
			name: "draft status on a real posting fails",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("bad").
					Posting(model.Posting{AccountID: "real-1", Kind: model.KindReal, Amount: dec("5.00"), Status: model.StatusOutstanding}).
					Category("cat-1", dec("5.00")).
					Build()
			},
			wantErr: common.ErrInvalidTransaction,
		},
		{
			name: "posting without account fails",
			build: func() (*model.Transaction, error) {
				return model.NewBuilder("bad").
					Category("", dec("1.00")).
					Real("real-1", dec("1.00")).
					Build()
			},
			wantErr: common.ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := tt.build()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, txn)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, txn)
		})
	}
}

func TestBuilder_AssignsIDAndUTCDate(t *testing.T) {
	txn, err := model.NewBuilder("groceries").
		Category("cat-1", dec("-10.00")).
		Real("real-1", dec("-10.00")).
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, txn.ID())
	assert.False(t, txn.Date().IsZero())
	assert.Equal(t, time.UTC, txn.Date().Location())
}

func TestBuilder_KeepsExplicitIDAndDate(t *testing.T) {
	at := time.Date(2024, 3, 10, 15, 4, 0, 0, time.FixedZone("CET", 3600))
	txn, err := model.NewBuilder("groceries").
		WithID("txn-42").
		At(at).
		Category("cat-1", dec("-10.00")).
		Real("real-1", dec("-10.00")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "txn-42", txn.ID())
	assert.True(t, txn.Date().Equal(at))
	assert.Equal(t, time.UTC, txn.Date().Location())
}

func TestBuilder_PartitionsPostings(t *testing.T) {
	txn, err := model.NewBuilder("mixed").
		Category("cat-1", dec("-50.00")).
		Draft("draft-1", dec("20.00"), model.StatusOutstanding).
		Real("real-1", dec("-45.00")).
		Charge("charge-1", dec("15.00"), model.StatusClearing).
		Build()
	require.NoError(t, err)

	assert.Len(t, txn.CategoryPostings(), 1)
	assert.Len(t, txn.RealPostings(), 1)
	assert.Len(t, txn.DraftPostings(), 1)
	assert.Len(t, txn.ChargePostings(), 1)
	assert.Len(t, txn.Postings(), 4)
}

func TestTransaction_PostingListsAreCopies(t *testing.T) {
	txn, err := model.NewBuilder("copy check").
		Category("cat-1", dec("-10.00")).
		Real("real-1", dec("-10.00")).
		Build()
	require.NoError(t, err)

	got := txn.RealPostings()
	got[0].Amount = dec("999.99")

	assert.True(t, txn.RealPostings()[0].Amount.Equal(dec("-10.00")),
		"mutating a returned posting list must not touch the transaction")
}

func TestTransaction_ClearedItemIDs(t *testing.T) {
	txn, err := model.NewBuilder("clear check").
		Posting(model.Posting{AccountID: "draft-1", Kind: model.KindDraft, Amount: dec("-20.00"), Status: model.StatusClearing, ClearsItemID: 7}).
		Real("real-1", dec("-20.00")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, txn.ClearedItemIDs())
}

func TestPosting_EffectiveDescription(t *testing.T) {
	p := model.Posting{}
	assert.Equal(t, "weekly shop", p.EffectiveDescription("weekly shop"))

	p.Description = "milk"
	assert.Equal(t, "milk", p.EffectiveDescription("weekly shop"))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.12", model.MoneyString(model.RoundMoney(dec("10.125"))))
	assert.Equal(t, "10.14", model.MoneyString(model.RoundMoney(dec("10.135"))))
	assert.Equal(t, "0.00", model.MoneyString(model.RoundMoney(decimal.Zero)))
}
