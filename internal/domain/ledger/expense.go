package ledger

import (
	"time"

	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpenseDraft holds caller-supplied, unvalidated values for a new or
// replaced expense
type ExpenseDraft struct {
	Date        valueobject.Date `json:"date"`
	Category    string           `json:"category"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
}

// validate checks the draft's invariants and returns the normalized category
func (d ExpenseDraft) validate() (string, error) {
	if d.Date.IsZero() {
		return "", shared.NewValidationError("Expense date is required")
	}
	category := NormalizeCategory(d.Category)
	if category == "" {
		return "", shared.NewValidationError("Expense category cannot be empty")
	}
	if d.Amount.IsNegative() {
		return "", shared.NewValidationError("Expense amount cannot be negative")
	}
	if d.Description == "" {
		return "", shared.NewValidationError("Expense description cannot be empty")
	}
	return category, nil
}

// Expense represents a single expense entry. The category is stored in
// its normalized form so aggregation and display agree on one label.
type Expense struct {
	shared.BaseEntity
	Date        valueobject.Date `json:"date"`
	Category    string           `json:"category"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
}

// NewExpense validates a draft and creates a new expense with a freshly
// assigned identifier
func NewExpense(draft ExpenseDraft) (*Expense, error) {
	category, err := draft.validate()
	if err != nil {
		return nil, err
	}

	return &Expense{
		BaseEntity:  shared.NewBaseEntity(),
		Date:        draft.Date,
		Category:    category,
		Amount:      draft.Amount,
		Description: draft.Description,
	}, nil
}

// Revise replaces the expense's fields from a draft, revalidated as a
// whole. Identifier and creation time are preserved; the expense is left
// untouched when validation fails.
func (e *Expense) Revise(draft ExpenseDraft) error {
	category, err := draft.validate()
	if err != nil {
		return err
	}

	e.Date = draft.Date
	e.Category = category
	e.Amount = draft.Amount
	e.Description = draft.Description
	e.UpdatedAt = time.Now()

	return nil
}

// AmountMoney returns the expense amount as Money
func (e *Expense) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(e.Amount)
}

// Clone returns a copy of the expense
func (e *Expense) Clone() *Expense {
	cp := *e
	return &cp
}
