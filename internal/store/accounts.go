package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AccountFilter narrows ListAccounts. Every field is optional.
type AccountFilter struct {
	Name          []string
	OwnedBy       []string
	Status        []string
	DueDateFrom   time.Time
	DueDateTo     time.Time
	Tags          []string
	CreatedAtFrom time.Time
	CreatedAtTo   time.Time
	CreatedBy     []string
	UpdatedAtFrom time.Time
	UpdatedAtTo   time.Time
	UpdatedBy     []string
}

func (f AccountFilter) Fields() []FilterField {
	return []FilterField{
		{"name", f.Name},
		{"owned_by", f.OwnedBy},
		{"status", f.Status},
		{"due_date_from", f.DueDateFrom},
		{"due_date_to", f.DueDateTo},
		{"tags", f.Tags},
		{"created_at_from", f.CreatedAtFrom},
		{"created_at_to", f.CreatedAtTo},
		{"created_by", f.CreatedBy},
		{"updated_at_from", f.UpdatedAtFrom},
		{"updated_at_to", f.UpdatedAtTo},
		{"updated_by", f.UpdatedBy},
	}
}

var (
	accountKey = []Column[Account]{
		field("account_id", func(a *Account) *uuid.UUID { return &a.AccountID }),
	}
	accountCommon = func(a *Account) *Common { return &a.Common }

	accounts = newTable("accounts", []string{"account_id"},
		NewColumns(slices.Concat(accountKey, lift(commonPublic, accountCommon))...),
		NewColumns(lift(commonWrite, accountCommon)...),
		NewColumns(slices.Concat(accountKey, lift(commonWrite, accountCommon))...),
	)

	accountOverviewColumns = NewColumns(slices.Concat(
		[]Column[AccountOverview]{field("account_id", func(a *AccountOverview) *uuid.UUID { return &a.AccountID })},
		lift(summaryColumns, func(a *AccountOverview) *Summary { return &a.Summary }),
	)...)
)

var selectAccounts = fmt.Sprintf("SELECT %s FROM accounts", accountOverviewColumns.Names())

func (s *Store) ListAccounts(ctx context.Context, f AccountFilter) ([]AccountOverview, error) {
	where, args := CompileFilter(f.Fields(), "accounts", true, 0)
	q := fmt.Sprintf("%s %s ORDER BY name", selectAccounts, where)
	return queryMany(ctx, s.DB, "list_accounts", accountOverviewColumns, q, args...)
}

func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (Account, bool, error) {
	return accounts.get(ctx, s.DB, accountID)
}

// CreateAccount inserts a. A nil AccountID is replaced by a new one.
func (s *Store) CreateAccount(ctx context.Context, a Account) (Account, error) {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	a.stamp(a.CreatedBy)
	return accounts.create(ctx, s.DB, &a)
}

func (s *Store) UpdateAccount(ctx context.Context, accountID uuid.UUID, u RecordUpdate) (Account, bool, error) {
	if err := u.Validate(); err != nil {
		return Account{}, false, err
	}
	return accounts.update(ctx, s.DB, func(a *Account) error {
		u.Apply(&a.Common)
		return nil
	}, accountID)
}

func (s *Store) DeleteAccount(ctx context.Context, accountID uuid.UUID) (Account, bool, error) {
	return accounts.remove(ctx, s.DB, accountID)
}

func (s *Store) AddAccountAttachment(ctx context.Context, accountID uuid.UUID, objectName string) error {
	return accounts.addAttachment(ctx, s.DB, objectName, accountID)
}

func (s *Store) RemoveAccountAttachment(ctx context.Context, accountID uuid.UUID, objectName string) error {
	return accounts.removeAttachment(ctx, s.DB, objectName, accountID)
}
