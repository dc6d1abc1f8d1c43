package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftStatus tracks the lifecycle of a draft or charge posting.
type DraftStatus string

const (
	// StatusNone marks postings with no draft semantics (category, real).
	StatusNone DraftStatus = ""
	// StatusOutstanding marks a committed-but-uncleared draft or charge posting.
	StatusOutstanding DraftStatus = "outstanding"
	// StatusClearing marks a posting that supersedes an outstanding one.
	StatusClearing DraftStatus = "clearing"
	// StatusCleared marks an outstanding posting consumed by a clearing transaction.
	StatusCleared DraftStatus = "cleared"
)

// Posting applies one signed amount to exactly one account as part of a
// transaction.
type Posting struct {
	// Description overrides the transaction description when non-empty.
	Description string
	AccountID   string
	Kind        AccountKind
	// Status is meaningful only on draft and charge postings.
	Status DraftStatus
	// ClearsItemID is the durable id of the outstanding item this posting
	// supersedes; zero when the posting clears nothing.
	ClearsItemID int64
	Amount       decimal.Decimal
}

// EffectiveDescription resolves the posting description, falling back to the
// owning transaction's description.
func (p Posting) EffectiveDescription(txDescription string) string {
	if p.Description != "" {
		return p.Description
	}
	return txDescription
}

// Transaction is an immutable, balanced set of postings. Instances can only
// be produced by Builder.Build, which is the single place the zero-sum rule
// is enforced.
type Transaction struct {
	date        time.Time
	id          string
	description string
	clearsTxID  string
	category    []Posting
	real        []Posting
	draft       []Posting
	charge      []Posting
}

// ID returns the transaction id.
func (t *Transaction) ID() string { return t.id }

// Description returns the transaction description.
func (t *Transaction) Description() string { return t.description }

// Date returns the transaction's UTC timestamp.
func (t *Transaction) Date() time.Time { return t.date }

// ClearsTxID returns the id of the transaction this one supersedes, or "".
func (t *Transaction) ClearsTxID() string { return t.clearsTxID }

// CategoryPostings returns a copy of the category posting list.
func (t *Transaction) CategoryPostings() []Posting { return copyPostings(t.category) }

// RealPostings returns a copy of the real posting list.
func (t *Transaction) RealPostings() []Posting { return copyPostings(t.real) }

// DraftPostings returns a copy of the draft posting list.
func (t *Transaction) DraftPostings() []Posting { return copyPostings(t.draft) }

// ChargePostings returns a copy of the charge posting list.
func (t *Transaction) ChargePostings() []Posting { return copyPostings(t.charge) }

// Postings returns every posting in category, real, draft, charge order.
func (t *Transaction) Postings() []Posting {
	out := make([]Posting, 0, len(t.category)+len(t.real)+len(t.draft)+len(t.charge))
	out = append(out, t.category...)
	out = append(out, t.real...)
	out = append(out, t.draft...)
	out = append(out, t.charge...)
	return out
}

// ClearedItemIDs returns the durable item ids this transaction supersedes.
func (t *Transaction) ClearedItemIDs() []int64 {
	var ids []int64
	for _, p := range t.Postings() {
		if p.ClearsItemID != 0 {
			ids = append(ids, p.ClearsItemID)
		}
	}
	return ids
}

func copyPostings(src []Posting) []Posting {
	out := make([]Posting, len(src))
	copy(out, src)
	return out
}

func sumPostings(lists ...[]Posting) decimal.Decimal {
	sum := decimal.Zero
	for _, list := range lists {
		for _, p := range list {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}
