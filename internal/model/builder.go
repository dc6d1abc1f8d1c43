package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
)

// Builder accumulates postings for a transaction. Build is the terminal
// operation; until it succeeds no transaction exists, so an unbalanced
// posting set can never reach the ledger or the store.
type Builder struct {
	date        time.Time
	id          string
	description string
	clearsTxID  string
	category    []Posting
	real        []Posting
	draft       []Posting
	charge      []Posting
}

// NewBuilder returns an empty transaction builder.
func NewBuilder(description string) *Builder {
	return &Builder{description: description}
}

// WithID sets an explicit transaction id. Build assigns one when absent.
func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

// At sets the transaction timestamp; it is normalized to UTC.
func (b *Builder) At(t time.Time) *Builder {
	b.date = t.UTC()
	return b
}

// Clears records the transaction this one supersedes.
func (b *Builder) Clears(txID string) *Builder {
	b.clearsTxID = txID
	return b
}

// Category adds a posting against a category account.
func (b *Builder) Category(accountID string, amount decimal.Decimal) *Builder {
	b.category = append(b.category, Posting{AccountID: accountID, Kind: KindCategory, Amount: RoundMoney(amount)})
	return b
}

// Real adds a posting against a real account.
func (b *Builder) Real(accountID string, amount decimal.Decimal) *Builder {
	b.real = append(b.real, Posting{AccountID: accountID, Kind: KindReal, Amount: RoundMoney(amount)})
	return b
}

// Draft adds a posting against a draft account with the given status.
func (b *Builder) Draft(accountID string, amount decimal.Decimal, status DraftStatus) *Builder {
	b.draft = append(b.draft, Posting{AccountID: accountID, Kind: KindDraft, Amount: RoundMoney(amount), Status: status})
	return b
}

// Charge adds a posting against a charge account with the given status.
func (b *Builder) Charge(accountID string, amount decimal.Decimal, status DraftStatus) *Builder {
	b.charge = append(b.charge, Posting{AccountID: accountID, Kind: KindCharge, Amount: RoundMoney(amount), Status: status})
	return b
}

// Posting adds a fully specified posting, dispatching on its kind. It is the
// variant used when a description override or a cleared-item reference is
// needed.
func (b *Builder) Posting(p Posting) *Builder {
	p.Amount = RoundMoney(p.Amount)
	switch p.Kind {
	case KindCategory:
		b.category = append(b.category, p)
	case KindReal:
		b.real = append(b.real, p)
	case KindDraft:
		b.draft = append(b.draft, p)
	case KindCharge:
		b.charge = append(b.charge, p)
	}
	return b
}

// Build freezes the accumulated postings into a Transaction, assigning an id
// and UTC timestamp when absent. It fails with common.ErrUnbalanced when the
// postings do not satisfy the zero-sum rule
//
//	sum(category) + sum(draft) == sum(real) + sum(charge)
//
// and with common.ErrInvalidTransaction on malformed postings.
func (b *Builder) Build() (*Transaction, error) {
	total := len(b.category) + len(b.real) + len(b.draft) + len(b.charge)
	if total == 0 {
		return nil, fmt.Errorf("%w: no postings", common.ErrInvalidTransaction)
	}

	for _, p := range b.Postings() {
		if p.AccountID == "" {
			return nil, fmt.Errorf("%w: posting without account", common.ErrInvalidTransaction)
		}
		if p.Amount.IsZero() {
			return nil, fmt.Errorf("%w: zero-amount posting on account %s", common.ErrInvalidTransaction, p.AccountID)
		}
		if (p.Kind == KindCategory || p.Kind == KindReal) && p.Status != StatusNone {
			return nil, fmt.Errorf("%w: draft status %q on %s posting", common.ErrInvalidTransaction, p.Status, p.Kind)
		}
	}

	allocated := sumPostings(b.category, b.draft)
	backing := sumPostings(b.real, b.charge)
	if !allocated.Equal(backing) {
		return nil, fmt.Errorf("%w: category+draft %s != real+charge %s",
			common.ErrUnbalanced, MoneyString(allocated), MoneyString(backing))
	}

	id := b.id
	if id == "" {
		id = uuid.NewString()
	}
	date := b.date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return &Transaction{
		id:          id,
		description: b.description,
		date:        date,
		clearsTxID:  b.clearsTxID,
		category:    copyPostings(b.category),
		real:        copyPostings(b.real),
		draft:       copyPostings(b.draft),
		charge:      copyPostings(b.charge),
	}, nil
}

// Postings returns the accumulated postings without freezing them.
func (b *Builder) Postings() []Posting {
	out := make([]Posting, 0, len(b.category)+len(b.real)+len(b.draft)+len(b.charge))
	out = append(out, b.category...)
	out = append(out, b.real...)
	out = append(out, b.draft...)
	out = append(out, b.charge...)
	return out
}
