// Package ledger owns the in-memory account aggregate for one budget and the
// service that keeps it synchronized with the persistence port.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
)

// Ledger aggregates every account of one budget. It is the single owner of
// balance state: no other component mutates a balance. Ledger is not safe for
// concurrent mutation; callers serialize access externally.
type Ledger struct {
	byID     map[string]*model.Account
	budgetID string
	accounts []*model.Account
}

// New returns an empty ledger for the given budget.
func New(budgetID string) *Ledger {
	return &Ledger{
		budgetID: budgetID,
		byID:     make(map[string]*model.Account),
	}
}

// FromAccounts reconstructs a ledger from a persisted account roster.
func FromAccounts(budgetID string, accounts []model.Account) (*Ledger, error) {
	l := New(budgetID)
	for i := range accounts {
		a := accounts[i]
		if err := l.AddAccount(&a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// BudgetID returns the budget this ledger belongs to.
func (l *Ledger) BudgetID() string { return l.budgetID }

// AddAccount appends a newly created account, preserving name-sorted order
// for deterministic display. It fails with common.ErrNameConflict when the
// name collides with an existing active account.
func (l *Ledger) AddAccount(a *model.Account) error {
	if a.ID == "" || a.Name == "" {
		return fmt.Errorf("%w: missing id or name", common.ErrInvalidAccount)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", common.ErrInvalidAccount, a.Kind)
	}
	if _, ok := l.byID[a.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", common.ErrInvalidAccount, a.ID)
	}
	if a.Active() {
		if existing := l.findActiveByName(a.Name); existing != nil {
			return fmt.Errorf("%w: %q", common.ErrNameConflict, a.Name)
		}
	}

	a.Balance = model.RoundMoney(a.Balance)
	l.byID[a.ID] = a

	idx := sort.Search(len(l.accounts), func(i int) bool {
		return l.accounts[i].Name >= a.Name
	})
	l.accounts = append(l.accounts, nil)
	copy(l.accounts[idx+1:], l.accounts[idx:])
	l.accounts[idx] = a
	return nil
}

// Commit applies every posting of a built transaction to its target account
// balance. It is a pure in-memory operation; durable commit happens first,
// through the persistence port.
func (l *Ledger) Commit(txn *model.Transaction) error {
	// Resolve all targets before touching any balance so an unknown account
	// cannot leave a half-applied transaction.
	postings := txn.Postings()
	targets := make([]*model.Account, len(postings))
	for i, p := range postings {
		a, ok := l.byID[p.AccountID]
		if !ok {
			return fmt.Errorf("%w: account %s", common.ErrNotFound, p.AccountID)
		}
		if a.Kind != p.Kind {
			return fmt.Errorf("%w: account %s is %s, posting says %s",
				common.ErrInvalidAccount, p.AccountID, a.Kind, p.Kind)
		}
		targets[i] = a
	}
	for i, p := range postings {
		targets[i].Balance = model.RoundMoney(targets[i].Balance.Add(p.Amount))
	}
	return nil
}

// Validate recomputes both side sums and confirms the general category
// account's membership. It returns false on corruption.
func (l *Ledger) Validate() bool {
	allocated := decimal.Zero
	backing := decimal.Zero
	hasGeneral := false

	for _, a := range l.accounts {
		switch a.Kind {
		case model.KindCategory, model.KindDraft:
			allocated = allocated.Add(a.Balance)
		case model.KindReal, model.KindCharge:
			backing = backing.Add(a.Balance)
		}
		if a.Kind == model.KindCategory && a.Name == model.GeneralCategoryName && a.Active() {
			hasGeneral = true
		}
	}

	return hasGeneral && allocated.Equal(backing)
}

// AccountByID returns a read-only view of the account with the given id,
// failing when the id is unknown or the account is not of the wanted kind.
func (l *Ledger) AccountByID(id string, kind model.AccountKind) (model.View, error) {
	a, ok := l.byID[id]
	if !ok {
		return model.View{}, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if a.Kind != kind {
		return model.View{}, fmt.Errorf("%w: account %s is %s, not %s", common.ErrNotFound, id, a.Kind, kind)
	}
	return a.View(), nil
}

// AccountByName returns a read-only view of the active account with the
// given name.
func (l *Ledger) AccountByName(name string) (model.View, error) {
	a := l.findActiveByName(name)
	if a == nil {
		return model.View{}, fmt.Errorf("%w: account %q", common.ErrNotFound, name)
	}
	return a.View(), nil
}

// General returns the mandatory general category account.
func (l *Ledger) General() (model.View, error) {
	return l.AccountByName(model.GeneralCategoryName)
}

// Accounts returns read-only views of every active account in name order.
func (l *Ledger) Accounts() []model.View {
	views := make([]model.View, 0, len(l.accounts))
	for _, a := range l.accounts {
		if a.Active() {
			views = append(views, a.View())
		}
	}
	return views
}

// AccountsOfKind returns read-only views of active accounts of one kind.
func (l *Ledger) AccountsOfKind(kind model.AccountKind) []model.View {
	var views []model.View
	for _, a := range l.accounts {
		if a.Active() && a.Kind == kind {
			views = append(views, a.View())
		}
	}
	return views
}

// Records returns value copies of every account, active or not, for the
// persistence port's upsert.
func (l *Ledger) Records() []model.Account {
	out := make([]model.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, *a)
	}
	return out
}

// rename changes an account's name after checking for an active-name clash.
func (l *Ledger) rename(id, newName string) error {
	a, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if newName == "" {
		return fmt.Errorf("%w: empty name", common.ErrInvalidAccount)
	}
	if existing := l.findActiveByName(newName); existing != nil && existing.ID != id {
		return fmt.Errorf("%w: %q", common.ErrNameConflict, newName)
	}
	a.Name = newName
	sort.SliceStable(l.accounts, func(i, j int) bool {
		return l.accounts[i].Name < l.accounts[j].Name
	})
	return nil
}

// redescribe changes an account's description.
func (l *Ledger) redescribe(id, description string) error {
	a, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	a.Description = description
	return nil
}

// deactivate marks an account inactive. Accounts are never deleted; removal
// is an inactive period, permitted only at zero balance.
func (l *Ledger) deactivate(id string, at time.Time) error {
	a, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if !a.Balance.IsZero() {
		return fmt.Errorf("%w: account %q holds %s", common.ErrAccountNotEmpty, a.Name, model.MoneyString(a.Balance))
	}
	at = at.UTC()
	a.DeactivatedAt = &at
	return nil
}

func (l *Ledger) account(id string) (*model.Account, error) {
	a, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	return a, nil
}

func (l *Ledger) findActiveByName(name string) *model.Account {
	for _, a := range l.accounts {
		if a.Active() && a.Name == name {
			return a
		}
	}
	return nil
}
