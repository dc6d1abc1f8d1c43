package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillhollow/budgeteer/internal/common"
	"github.com/quillhollow/budgeteer/internal/model"
	"github.com/quillhollow/budgeteer/internal/service"
)

// Service couples one Ledger to its persistence port. Every mutation goes
// durable-first: the store confirms the commit before the in-memory ledger is
// touched, so a crash between the two never leaves memory ahead of disk.
//
// Service is built for a single interactive session; its mutating methods
// must be externally serialized.
type Service struct {
	store    service.Storage
	ledger   *Ledger
	budgetID string
}

// NewService returns a service for the given budget, with no ledger loaded.
func NewService(store service.Storage, budgetID string) *Service {
	return &Service{store: store, budgetID: budgetID}
}

// Bootstrap creates the budget row and its mandatory general category
// account. It is the answer to LoadLedger's ErrNotConfigured.
func (s *Service) Bootstrap(ctx context.Context, name string) error {
	if err := s.store.InitBudget(ctx, s.budgetID, name); err != nil {
		return err
	}
	general, err := s.store.CreateAccount(ctx, s.budgetID, model.KindCategory,
		model.GeneralCategoryName, "unallocated funds")
	if err != nil {
		return err
	}

	s.ledger = New(s.budgetID)
	if err := s.ledger.AddAccount(general); err != nil {
		return err
	}
	slog.Info("bootstrapped budget", "budget", s.budgetID, "name", name)
	return nil
}

// Load reconstructs the in-memory ledger from the store. It passes through
// common.ErrNotConfigured untouched so callers can offer first-run bootstrap.
func (s *Service) Load(ctx context.Context) error {
	accounts, err := s.store.LoadLedger(ctx, s.budgetID)
	if err != nil {
		return err
	}
	l, err := FromAccounts(s.budgetID, accounts)
	if err != nil {
		return err
	}
	if !l.Validate() {
		return fmt.Errorf("%w: budget %s failed validation on load", common.ErrConsistency, s.budgetID)
	}
	s.ledger = l
	return nil
}

// Ledger exposes the aggregate for read access.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Commit durably commits a built transaction, then applies it in memory and
// re-checks the aggregate invariant. A persistence failure aborts before any
// in-memory effect; prior ledger state stays trustworthy.
func (s *Service) Commit(ctx context.Context, txn *model.Transaction) error {
	if s.ledger == nil {
		return common.ErrNotConfigured
	}
	if err := s.store.CommitTransaction(ctx, txn, s.budgetID); err != nil {
		return err
	}
	if err := s.ledger.Commit(txn); err != nil {
		// Durable state is ahead of memory now; reload rather than guess.
		return fmt.Errorf("%w: in-memory apply failed after durable commit: %v", common.ErrConsistency, err)
	}
	if !s.ledger.Validate() {
		return fmt.Errorf("%w: after transaction %s", common.ErrConsistency, txn.ID())
	}
	slog.Debug("committed transaction", "tx", txn.ID(), "postings", len(txn.Postings()))
	return nil
}

// CreateCategoryAccount creates a new spending bucket.
func (s *Service) CreateCategoryAccount(ctx context.Context, name, description string) (model.View, error) {
	return s.createAccount(ctx, model.KindCategory, name, description)
}

// CreateRealAccount creates a money-holding account. A non-zero opening
// balance posts against the general category in the same operation, keeping
// the aggregate invariant intact.
func (s *Service) CreateRealAccount(ctx context.Context, name, description string, opening decimal.Decimal) (model.View, error) {
	view, err := s.createAccount(ctx, model.KindReal, name, description)
	if err != nil {
		return model.View{}, err
	}
	opening = model.RoundMoney(opening)
	if opening.IsZero() {
		return view, nil
	}

	general, err := s.ledger.General()
	if err != nil {
		return model.View{}, err
	}
	txn, err := model.NewBuilder("opening balance: "+name).
		Real(view.ID, opening).
		Category(general.ID, opening).
		Build()
	if err != nil {
		return model.View{}, err
	}
	if err := s.Commit(ctx, txn); err != nil {
		return model.View{}, err
	}
	return s.ledger.AccountByID(view.ID, model.KindReal)
}

// CreateRealAndDraftPair creates a real account and its draft companion as
// one atomic unit; both persist or neither does.
func (s *Service) CreateRealAndDraftPair(ctx context.Context, name, description string) (real, draft model.View, err error) {
	if s.ledger == nil {
		return model.View{}, model.View{}, common.ErrNotConfigured
	}
	// Check both names in memory first so an obvious clash never reaches the store.
	if existing := s.ledger.findActiveByName(name); existing != nil {
		return model.View{}, model.View{}, fmt.Errorf("%w: %q", common.ErrNameConflict, name)
	}
	if existing := s.ledger.findActiveByName(name + " (draft)"); existing != nil {
		return model.View{}, model.View{}, fmt.Errorf("%w: %q", common.ErrNameConflict, name+" (draft)")
	}

	realAcct, draftAcct, err := s.store.CreateRealAndDraftPair(ctx, s.budgetID, name, description)
	if err != nil {
		return model.View{}, model.View{}, err
	}
	if err := s.ledger.AddAccount(realAcct); err != nil {
		return model.View{}, model.View{}, err
	}
	if err := s.ledger.AddAccount(draftAcct); err != nil {
		return model.View{}, model.View{}, err
	}
	return realAcct.View(), draftAcct.View(), nil
}

// CreateChargeAccount creates a credit-instrument account.
func (s *Service) CreateChargeAccount(ctx context.Context, name, description string) (model.View, error) {
	return s.createAccount(ctx, model.KindCharge, name, description)
}

// DeactivateAccount records an inactive period for a zero-balance account.
// The row is never deleted. The general category account cannot be
// deactivated; every budget must keep it.
func (s *Service) DeactivateAccount(ctx context.Context, id string) error {
	if s.ledger == nil {
		return common.ErrNotConfigured
	}
	a, err := s.ledger.account(id)
	if err != nil {
		return err
	}
	if err := s.guardGeneral(a, "deactivate"); err != nil {
		return err
	}
	if !a.Balance.IsZero() {
		return fmt.Errorf("%w: account %q holds %s", common.ErrAccountNotEmpty, a.Name, model.MoneyString(a.Balance))
	}
	if err := s.store.DeactivateAccount(ctx, a); err != nil {
		return err
	}
	return s.ledger.deactivate(id, time.Now())
}

// RenameAccount renames an account, rejecting active-name collisions. The
// general category account keeps its name.
func (s *Service) RenameAccount(ctx context.Context, id, newName string) error {
	if s.ledger == nil {
		return common.ErrNotConfigured
	}
	a, err := s.ledger.account(id)
	if err != nil {
		return err
	}
	if err := s.guardGeneral(a, "rename"); err != nil {
		return err
	}
	if existing := s.ledger.findActiveByName(newName); existing != nil && existing.ID != id {
		return fmt.Errorf("%w: %q", common.ErrNameConflict, newName)
	}
	if err := s.store.RenameAccount(ctx, a, newName); err != nil {
		return err
	}
	return s.ledger.rename(id, newName)
}

// RedescribeAccount updates an account's description.
func (s *Service) RedescribeAccount(ctx context.Context, id, newDescription string) error {
	if s.ledger == nil {
		return common.ErrNotConfigured
	}
	a, err := s.ledger.account(id)
	if err != nil {
		return err
	}
	if err := s.store.RedescribeAccount(ctx, a, newDescription); err != nil {
		return err
	}
	return s.ledger.redescribe(id, newDescription)
}

// Outstanding returns the uncleared items of a draft or charge account.
func (s *Service) Outstanding(ctx context.Context, accountID string) ([]service.OutstandingItem, error) {
	if s.ledger == nil {
		return nil, common.ErrNotConfigured
	}
	a, err := s.ledger.account(accountID)
	if err != nil {
		return nil, err
	}
	if a.Kind != model.KindDraft && a.Kind != model.KindCharge {
		return nil, fmt.Errorf("%w: account %q has no outstanding items", common.ErrInvalidAccount, a.Name)
	}
	return s.store.OutstandingItems(ctx, a.View())
}

// Save upserts the full account roster into the store.
func (s *Service) Save(ctx context.Context) error {
	if s.ledger == nil {
		return common.ErrNotConfigured
	}
	return s.store.SaveLedger(ctx, s.budgetID, s.ledger.Records())
}

// Spend records a purchase paid directly from a real account.
func (s *Service) Spend(ctx context.Context, categoryID, realID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	amount = model.RoundMoney(amount)
	txn, err := model.NewBuilder(description).
		Category(categoryID, amount.Neg()).
		Real(realID, amount.Neg()).
		Build()
	if err != nil {
		return nil, err
	}
	return txn, s.Commit(ctx, txn)
}

// ChargePurchase records a purchase on a credit instrument, leaving an
// outstanding charge posting for later bill reconciliation.
func (s *Service) ChargePurchase(ctx context.Context, categoryID, chargeID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	amount = model.RoundMoney(amount)
	txn, err := model.NewBuilder(description).
		Category(categoryID, amount.Neg()).
		Charge(chargeID, amount.Neg(), model.StatusOutstanding).
		Build()
	if err != nil {
		return nil, err
	}
	return txn, s.Commit(ctx, txn)
}

// WriteCheck records a check against a draft account: the category is spent
// now, the companion real account is untouched until the check clears.
func (s *Service) WriteCheck(ctx context.Context, categoryID, draftID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if s.ledger == nil {
		return nil, common.ErrNotConfigured
	}
	if _, err := s.ledger.AccountByID(draftID, model.KindDraft); err != nil {
		return nil, err
	}
	amount = model.RoundMoney(amount)
	txn, err := model.NewBuilder(description).
		Category(categoryID, amount.Neg()).
		Draft(draftID, amount, model.StatusOutstanding).
		Build()
	if err != nil {
		return nil, err
	}
	return txn, s.Commit(ctx, txn)
}

// ClearCheck supersedes an outstanding check: the draft balance unwinds and
// the companion real account pays out, in one clearing transaction.
func (s *Service) ClearCheck(ctx context.Context, item service.OutstandingItem) (*model.Transaction, error) {
	if s.ledger == nil {
		return nil, common.ErrNotConfigured
	}
	draft, err := s.ledger.AccountByID(item.AccountID, model.KindDraft)
	if err != nil {
		return nil, err
	}
	if draft.CompanionID == "" {
		return nil, fmt.Errorf("%w: draft account %q has no companion", common.ErrInvalidAccount, draft.Name)
	}

	txn, err := model.NewBuilder("clear check: "+item.Description).
		Clears(item.TransactionID).
		Posting(model.Posting{
			AccountID:    draft.ID,
			Kind:         model.KindDraft,
			Amount:       item.Amount.Neg(),
			Status:       model.StatusClearing,
			ClearsItemID: item.ItemID,
		}).
		Real(draft.CompanionID, item.Amount.Neg()).
		Build()
	if err != nil {
		return nil, err
	}
	return txn, s.Commit(ctx, txn)
}

// guardGeneral refuses registry operations on the mandatory general category
// account; removing or renaming it would make every later load fail
// validation with no recovery path.
func (s *Service) guardGeneral(a *model.Account, op string) error {
	if a.Kind == model.KindCategory && a.Name == model.GeneralCategoryName && a.Active() {
		return fmt.Errorf("%w: cannot %s the %q category account", common.ErrInvalidAccount, op, model.GeneralCategoryName)
	}
	return nil
}

func (s *Service) createAccount(ctx context.Context, kind model.AccountKind, name, description string) (model.View, error) {
	if s.ledger == nil {
		return model.View{}, common.ErrNotConfigured
	}
	if existing := s.ledger.findActiveByName(name); existing != nil {
		return model.View{}, fmt.Errorf("%w: %q", common.ErrNameConflict, name)
	}
	a, err := s.store.CreateAccount(ctx, s.budgetID, kind, name, description)
	if err != nil {
		return model.View{}, err
	}
	if err := s.ledger.AddAccount(a); err != nil {
		return model.View{}, err
	}
	return a.View(), nil
}
