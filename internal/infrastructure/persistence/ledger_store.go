package persistence

import (
	"fmt"
	"sync"

	"github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerStore is the in-memory system of record for invoices and
// expenses. Every record going in or out is deep copied, so callers
// can never alias the stored state. Iteration follows creation order.
//
// The store tracks a dirty flag so callers know when an external
// snapshot is stale. Mutations either apply fully or not at all.
type LedgerStore struct {
	mu sync.RWMutex

	invoices     map[uuid.UUID]*ledger.Invoice
	invoiceOrder []uuid.UUID
	expenses     map[uuid.UUID]*ledger.Expense
	expenseOrder []uuid.UUID

	dirty bool
}

// NewLedgerStore creates an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		invoices: make(map[uuid.UUID]*ledger.Invoice),
		expenses: make(map[uuid.UUID]*ledger.Expense),
	}
}

// Seed replaces the entire store contents with a snapshot and clears
// the dirty flag. Used when loading persisted state at startup. A
// snapshot carrying duplicate identifiers is rejected and the store is
// left unchanged.
func (s *LedgerStore) Seed(snapshot ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices := make(map[uuid.UUID]*ledger.Invoice, len(snapshot.Invoices))
	invoiceOrder := make([]uuid.UUID, 0, len(snapshot.Invoices))
	for i := range snapshot.Invoices {
		inv := snapshot.Invoices[i].Clone()
		if _, ok := invoices[inv.ID]; ok {
			return shared.NewValidationError(fmt.Sprintf("Duplicate invoice in snapshot: %s", inv.ID))
		}
		invoices[inv.ID] = inv
		invoiceOrder = append(invoiceOrder, inv.ID)
	}

	expenses := make(map[uuid.UUID]*ledger.Expense, len(snapshot.Expenses))
	expenseOrder := make([]uuid.UUID, 0, len(snapshot.Expenses))
	for i := range snapshot.Expenses {
		exp := snapshot.Expenses[i].Clone()
		if _, ok := expenses[exp.ID]; ok {
			return shared.NewValidationError(fmt.Sprintf("Duplicate expense in snapshot: %s", exp.ID))
		}
		expenses[exp.ID] = exp
		expenseOrder = append(expenseOrder, exp.ID)
	}

	s.invoices = invoices
	s.invoiceOrder = invoiceOrder
	s.expenses = expenses
	s.expenseOrder = expenseOrder
	s.dirty = false
	return nil
}

// AddInvoice stores a new invoice.
func (s *LedgerStore) AddInvoice(inv *ledger.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return shared.NewValidationError(fmt.Sprintf("Invoice already exists: %s", inv.ID))
	}
	s.invoices[inv.ID] = inv.Clone()
	s.invoiceOrder = append(s.invoiceOrder, inv.ID)
	s.dirty = true
	return nil
}

// GetInvoice returns a copy of the invoice with the given ID.
func (s *LedgerStore) GetInvoice(id uuid.UUID) (*ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Invoice not found: %s", id))
	}
	return inv.Clone(), nil
}

// UpdateInvoice replaces the stored invoice with the same ID.
func (s *LedgerStore) UpdateInvoice(inv *ledger.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[inv.ID]; !ok {
		return shared.NewNotFoundError(fmt.Sprintf("Invoice not found: %s", inv.ID))
	}
	s.invoices[inv.ID] = inv.Clone()
	s.dirty = true
	return nil
}

// SetInvoiceStatus applies a status transition atomically and returns
// the updated invoice. The record is untouched when the transition is
// not permitted.
func (s *LedgerStore) SetInvoiceStatus(id uuid.UUID, status ledger.InvoiceStatus) (*ledger.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Invoice not found: %s", id))
	}
	if err := inv.TransitionTo(status); err != nil {
		return nil, err
	}
	s.dirty = true
	return inv.Clone(), nil
}

// DeleteInvoice removes the invoice with the given ID.
func (s *LedgerStore) DeleteInvoice(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return shared.NewNotFoundError(fmt.Sprintf("Invoice not found: %s", id))
	}
	delete(s.invoices, id)
	s.invoiceOrder = removeID(s.invoiceOrder, id)
	s.dirty = true
	return nil
}

// Invoices returns copies of all invoices in creation order.
func (s *LedgerStore) Invoices() []ledger.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Invoice, 0, len(s.invoiceOrder))
	for _, id := range s.invoiceOrder {
		out = append(out, *s.invoices[id].Clone())
	}
	return out
}

// AddExpense stores a new expense.
func (s *LedgerStore) AddExpense(exp *ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[exp.ID]; exists {
		return shared.NewValidationError(fmt.Sprintf("Expense already exists: %s", exp.ID))
	}
	s.expenses[exp.ID] = exp.Clone()
	s.expenseOrder = append(s.expenseOrder, exp.ID)
	s.dirty = true
	return nil
}

// GetExpense returns a copy of the expense with the given ID.
func (s *LedgerStore) GetExpense(id uuid.UUID) (*ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expenses[id]
	if !ok {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Expense not found: %s", id))
	}
	return exp.Clone(), nil
}

// UpdateExpense replaces the stored expense with the same ID.
func (s *LedgerStore) UpdateExpense(exp *ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[exp.ID]; !ok {
		return shared.NewNotFoundError(fmt.Sprintf("Expense not found: %s", exp.ID))
	}
	s.expenses[exp.ID] = exp.Clone()
	s.dirty = true
	return nil
}

// DeleteExpense removes the expense with the given ID.
func (s *LedgerStore) DeleteExpense(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return shared.NewNotFoundError(fmt.Sprintf("Expense not found: %s", id))
	}
	delete(s.expenses, id)
	s.expenseOrder = removeID(s.expenseOrder, id)
	s.dirty = true
	return nil
}

// Expenses returns copies of all expenses in creation order.
func (s *LedgerStore) Expenses() []ledger.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Expense, 0, len(s.expenseOrder))
	for _, id := range s.expenseOrder {
		out = append(out, *s.expenses[id].Clone())
	}
	return out
}

// Snapshot returns a deep copy of the entire store contents in
// creation order, suitable for handing to a Saver.
func (s *LedgerStore) Snapshot() ledger.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := ledger.Snapshot{
		Invoices: make([]ledger.Invoice, 0, len(s.invoiceOrder)),
		Expenses: make([]ledger.Expense, 0, len(s.expenseOrder)),
	}
	for _, id := range s.invoiceOrder {
		snap.Invoices = append(snap.Invoices, *s.invoices[id].Clone())
	}
	for _, id := range s.expenseOrder {
		snap.Expenses = append(snap.Expenses, *s.expenses[id].Clone())
	}
	return snap
}

// Dirty reports whether the store has unsaved changes.
func (s *LedgerStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkClean clears the dirty flag after a successful save.
func (s *LedgerStore) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Counts returns the number of stored invoices and expenses.
func (s *LedgerStore) Counts() (invoices, expenses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoiceOrder), len(s.expenseOrder)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
