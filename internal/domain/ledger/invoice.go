package ledger

import (
	"fmt"
	"time"

	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Legal transitions: DRAFT→SENT, SENT→PAID, SENT→OVERDUE, and any
// non-terminal status→CANCELLED. PAID and CANCELLED are terminal.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusOverdue || target == InvoiceStatusCancelled
	case InvoiceStatusOverdue:
		return target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return false
	}
	return false
}

// LineItemDraft holds caller-supplied, unvalidated values for a line item
type LineItemDraft struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineItem represents one line of an invoice. Subtotal is always
// Quantity * UnitPrice; it is recomputed on construction and never
// stored independently of its inputs.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewLineItem validates a draft and builds a line item
func NewLineItem(draft LineItemDraft) (*LineItem, error) {
	if draft.Description == "" {
		return nil, shared.NewValidationError("Line item description cannot be empty")
	}
	if draft.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Line item quantity must be positive")
	}
	if draft.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("Line item unit price cannot be negative")
	}

	return &LineItem{
		ID:          uuid.New(),
		Description: draft.Description,
		Category:    NormalizeCategory(draft.Category),
		Quantity:    draft.Quantity,
		UnitPrice:   draft.UnitPrice,
		Subtotal:    draft.Quantity.Mul(draft.UnitPrice),
	}, nil
}

// SubtotalMoney returns the subtotal as Money
func (i *LineItem) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Subtotal)
}

// InvoiceDraft holds caller-supplied, unvalidated values for a new or
// replaced invoice. No partially-valid Invoice ever exists: a draft is
// either accepted whole or rejected whole.
type InvoiceDraft struct {
	ClientName string           `json:"client_name"`
	IssueDate  valueobject.Date `json:"issue_date"`
	DueDate    valueobject.Date `json:"due_date"`
	Items      []LineItemDraft  `json:"items"`
}

// validate checks the draft's own invariants and builds the line items
func (d InvoiceDraft) validate() ([]LineItem, error) {
	if d.ClientName == "" {
		return nil, shared.NewValidationError("Client name cannot be empty")
	}
	if d.IssueDate.IsZero() {
		return nil, shared.NewValidationError("Issue date is required")
	}
	if d.DueDate.IsZero() {
		return nil, shared.NewValidationError("Due date is required")
	}
	if d.DueDate.Before(d.IssueDate) {
		return nil, shared.NewValidationError("Due date cannot be before issue date")
	}
	if len(d.Items) == 0 {
		return nil, shared.NewValidationError("Invoice requires at least one line item")
	}

	items := make([]LineItem, 0, len(d.Items))
	for idx, itemDraft := range d.Items {
		item, err := NewLineItem(itemDraft)
		if err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("Line item %d: %s", idx+1, err.Error()))
		}
		items = append(items, *item)
	}
	return items, nil
}

// Invoice represents an invoice aggregate root
type Invoice struct {
	shared.BaseEntity
	ClientName string           `json:"client_name"`
	IssueDate  valueobject.Date `json:"issue_date"`
	DueDate    valueobject.Date `json:"due_date"`
	Items      []LineItem       `json:"items"`
	Status     InvoiceStatus    `json:"status"`
	Total      decimal.Decimal  `json:"total"`
}

// NewInvoice validates a draft and creates a new invoice in DRAFT status
// with a freshly assigned identifier
func NewInvoice(draft InvoiceDraft) (*Invoice, error) {
	items, err := draft.validate()
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		ClientName: draft.ClientName,
		IssueDate:  draft.IssueDate,
		DueDate:    draft.DueDate,
		Items:      items,
		Status:     InvoiceStatusDraft,
	}
	inv.recomputeTotal()

	return inv, nil
}

// Revise replaces the invoice's editable fields from a draft, revalidated
// as a whole. Identifier, status and creation time are preserved. The
// invoice is left untouched when validation fails.
func (inv *Invoice) Revise(draft InvoiceDraft) error {
	items, err := draft.validate()
	if err != nil {
		return err
	}

	inv.ClientName = draft.ClientName
	inv.IssueDate = draft.IssueDate
	inv.DueDate = draft.DueDate
	inv.Items = items
	inv.recomputeTotal()
	inv.UpdatedAt = time.Now()

	return nil
}

// TransitionTo moves the invoice to a new status, enforcing the state machine
func (inv *Invoice) TransitionTo(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Unknown invoice status %q", target))
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(
			fmt.Sprintf("Cannot transition invoice from %s to %s", inv.Status, target))
	}

	inv.Status = target
	inv.UpdatedAt = time.Now()

	return nil
}

// recomputeTotal derives the total from the line items
func (inv *Invoice) recomputeTotal() {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Subtotal)
	}
	inv.Total = total
}

// TotalMoney returns the invoice total as Money
func (inv *Invoice) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Total)
}

// IsPaid returns true if the invoice has been paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice was cancelled
func (inv *Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}

// IsTerminal returns true if the invoice is in a terminal status
func (inv *Invoice) IsTerminal() bool {
	return inv.Status.IsTerminal()
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.Items)
}

// Clone returns a deep copy of the invoice. Callers receive clones from
// every read path so mutating a result can never corrupt ledger state.
func (inv *Invoice) Clone() *Invoice {
	cp := *inv
	cp.Items = make([]LineItem, len(inv.Items))
	copy(cp.Items, inv.Items)
	return &cp
}
