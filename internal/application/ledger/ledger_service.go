// Package ledger contains the application services orchestrating the
// invoice and expense ledger.
package ledger

import (
	"context"
	"fmt"
	"time"

	ledgerdomain "github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/bookkeep/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService provides application-level invoice and expense operations
type LedgerService struct {
	store  *persistence.LedgerStore
	saver  ledgerdomain.Saver
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(store *persistence.LedgerStore, saver ledgerdomain.Saver, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		saver:  saver,
		logger: logger,
	}
}

// ===================== Invoice Operations =====================

// LineItemRequest represents one line item in an invoice request
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceRequest represents a request to create or replace an invoice
type InvoiceRequest struct {
	ClientName string            `json:"client_name" binding:"required"`
	IssueDate  valueobject.Date  `json:"issue_date"`
	DueDate    valueobject.Date  `json:"due_date"`
	Items      []LineItemRequest `json:"items" binding:"required"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID         uuid.UUID          `json:"id"`
	ClientName string             `json:"client_name"`
	IssueDate  valueobject.Date   `json:"issue_date"`
	DueDate    valueobject.Date   `json:"due_date"`
	Items      []LineItemResponse `json:"items"`
	Status     string             `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (r InvoiceRequest) toDraft() ledgerdomain.InvoiceDraft {
	items := make([]ledgerdomain.LineItemDraft, len(r.Items))
	for i, item := range r.Items {
		items[i] = ledgerdomain.LineItemDraft{
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return ledgerdomain.InvoiceDraft{
		ClientName: r.ClientName,
		IssueDate:  r.IssueDate,
		DueDate:    r.DueDate,
		Items:      items,
	}
}

func toInvoiceResponse(inv *ledgerdomain.Invoice) *InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}
	return &InvoiceResponse{
		ID:         inv.ID,
		ClientName: inv.ClientName,
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Items:      items,
		Status:     inv.Status.String(),
		Total:      inv.Total,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}

// CreateInvoice validates and stores a new invoice in DRAFT status
func (s *LedgerService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, error) {
	inv, err := ledgerdomain.NewInvoice(req.toDraft())
	if err != nil {
		return nil, err
	}
	if err := s.store.AddInvoice(inv); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("client", inv.ClientName),
		zap.String("total", inv.Total.String()),
	)
	return toInvoiceResponse(inv), nil
}

// GetInvoice returns the invoice with the given ID
func (s *LedgerService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.store.GetInvoice(id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// UpdateInvoice replaces all caller-editable fields of an invoice.
// The update either applies fully or leaves the record untouched.
func (s *LedgerService) UpdateInvoice(ctx context.Context, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.store.GetInvoice(id)
	if err != nil {
		return nil, err
	}
	if err := inv.Revise(req.toDraft()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateInvoice(inv); err != nil {
		return nil, err
	}

	s.logger.Info("invoice updated", zap.String("invoice_id", id.String()))
	return toInvoiceResponse(inv), nil
}

// DeleteInvoice removes an invoice
func (s *LedgerService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteInvoice(id); err != nil {
		return err
	}
	s.logger.Info("invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// TransitionInvoice moves an invoice to a new status if the transition is legal
func (s *LedgerService) TransitionInvoice(ctx context.Context, id uuid.UUID, status string) (*InvoiceResponse, error) {
	inv, err := s.store.SetInvoiceStatus(id, ledgerdomain.InvoiceStatus(status))
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("invoice_id", id.String()),
		zap.String("to", inv.Status.String()),
	)
	return toInvoiceResponse(inv), nil
}

// ListInvoices returns all invoices in creation order
func (s *LedgerService) ListInvoices(ctx context.Context) []*InvoiceResponse {
	invoices := s.store.Invoices()
	out := make([]*InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = toInvoiceResponse(&invoices[i])
	}
	return out
}

// ===================== Expense Operations =====================

// ExpenseRequest represents a request to create or replace an expense
type ExpenseRequest struct {
	Date        valueobject.Date `json:"date"`
	Category    string           `json:"category" binding:"required"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description" binding:"required"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          uuid.UUID        `json:"id"`
	Date        valueobject.Date `json:"date"`
	Category    string           `json:"category"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r ExpenseRequest) toDraft() ledgerdomain.ExpenseDraft {
	return ledgerdomain.ExpenseDraft{
		Date:        r.Date,
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

func toExpenseResponse(exp *ledgerdomain.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:          exp.ID,
		Date:        exp.Date,
		Category:    exp.Category,
		Amount:      exp.Amount,
		Description: exp.Description,
		CreatedAt:   exp.CreatedAt,
		UpdatedAt:   exp.UpdatedAt,
	}
}

// CreateExpense validates and stores a new expense
func (s *LedgerService) CreateExpense(ctx context.Context, req ExpenseRequest) (*ExpenseResponse, error) {
	exp, err := ledgerdomain.NewExpense(req.toDraft())
	if err != nil {
		return nil, err
	}
	if err := s.store.AddExpense(exp); err != nil {
		return nil, err
	}

	s.logger.Info("expense created",
		zap.String("expense_id", exp.ID.String()),
		zap.String("category", exp.Category),
		zap.String("amount", exp.Amount.String()),
	)
	return toExpenseResponse(exp), nil
}

// GetExpense returns the expense with the given ID
func (s *LedgerService) GetExpense(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	exp, err := s.store.GetExpense(id)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(exp), nil
}

// UpdateExpense replaces all fields of an expense
func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, req ExpenseRequest) (*ExpenseResponse, error) {
	exp, err := s.store.GetExpense(id)
	if err != nil {
		return nil, err
	}
	if err := exp.Revise(req.toDraft()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(exp); err != nil {
		return nil, err
	}

	s.logger.Info("expense updated", zap.String("expense_id", id.String()))
	return toExpenseResponse(exp), nil
}

// DeleteExpense removes an expense
func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteExpense(id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", zap.String("expense_id", id.String()))
	return nil
}

// ListExpenses returns all expenses in creation order
func (s *LedgerService) ListExpenses(ctx context.Context) []*ExpenseResponse {
	expenses := s.store.Expenses()
	out := make([]*ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = toExpenseResponse(&expenses[i])
	}
	return out
}

// ===================== Persistence Operations =====================

// Flush saves the current snapshot if the store has unsaved changes.
// It reports whether a save actually happened.
func (s *LedgerService) Flush(ctx context.Context) (bool, error) {
	if !s.store.Dirty() {
		return false, nil
	}

	snap := s.store.Snapshot()
	if err := s.saver.Save(ctx, snap); err != nil {
		return false, fmt.Errorf("flush ledger snapshot: %w", err)
	}
	s.store.MarkClean()

	s.logger.Info("ledger snapshot flushed",
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return true, nil
}

// Dirty reports whether the ledger has unsaved changes
func (s *LedgerService) Dirty() bool {
	return s.store.Dirty()
}
