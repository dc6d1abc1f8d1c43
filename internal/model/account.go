// Package model defines the core data types for the budgeteer ledger.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies the four account categories in a budget.
type AccountKind string

const (
	// KindCategory tracks an allocated spending bucket (Food, Rent).
	KindCategory AccountKind = "category"
	// KindReal tracks an actual money-holding account (checking, cash).
	KindReal AccountKind = "real"
	// KindDraft tracks money committed but not yet cleared against a companion real account.
	KindDraft AccountKind = "draft"
	// KindCharge tracks a credit instrument's owed balance.
	KindCharge AccountKind = "charge"
)

// Valid reports whether k is one of the four known kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case KindCategory, KindReal, KindDraft, KindCharge:
		return true
	}
	return false
}

// GeneralCategoryName is the category account that must exist in every budget.
// Opening balances and uncategorized flows post against it.
const GeneralCategoryName = "general"

// Account represents one ledger account. Balances always carry exactly two
// fractional digits; only the Ledger may mutate them.
type Account struct {
	DeactivatedAt *time.Time
	ID            string
	Name          string
	Description   string
	// CompanionID links a draft account to its real account. Set only when
	// Kind == KindDraft; the pairing is exclusive.
	CompanionID string
	Kind        AccountKind
	Balance     decimal.Decimal
}

// Active reports whether the account is currently usable.
func (a *Account) Active() bool {
	return a.DeactivatedAt == nil
}

// View is a read-only snapshot of an account handed to consumers outside the
// Ledger, so no caller can mutate a balance out from under the aggregate.
type View struct {
	ID          string
	Name        string
	Description string
	CompanionID string
	Kind        AccountKind
	Balance     decimal.Decimal
	Active      bool
}

// View returns a read-only copy of the account.
func (a *Account) View() View {
	return View{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		CompanionID: a.CompanionID,
		Kind:        a.Kind,
		Balance:     a.Balance,
		Active:      a.Active(),
	}
}
