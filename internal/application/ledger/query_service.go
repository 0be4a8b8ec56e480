package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	ledgerdomain "github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Sort field names accepted by Criteria.SortBy.
const (
	SortByDate   = "date"
	SortByAmount = "amount"
	SortByClient = "client"
)

// Criteria describes a ledger query. All filters are optional and
// combine conjunctively. Date bounds are inclusive.
type Criteria struct {
	Kind           string            `form:"kind"`
	DateFrom       *valueobject.Date `form:"date_from"`
	DateTo         *valueobject.Date `form:"date_to"`
	Category       string            `form:"category"`
	Status         string            `form:"status"`
	Text           string            `form:"text"`
	SortBy         string            `form:"sort_by"`
	SortDescending bool              `form:"sort_desc"`
}

// RecordView is a uniform row over both sides of the ledger, used
// when a query spans invoices and expenses together.
type RecordView struct {
	Kind        string           `json:"kind"`
	ID          string           `json:"id"`
	Date        valueobject.Date `json:"date"`
	Amount      decimal.Decimal  `json:"amount"`
	ClientName  string           `json:"client_name,omitempty"`
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status,omitempty"`
}

// QueryService evaluates filtered, sorted views over the ledger store.
type QueryService struct {
	store RecordSource
}

// RecordSource is the read surface the query engine needs.
type RecordSource interface {
	Invoices() []ledgerdomain.Invoice
	Expenses() []ledgerdomain.Expense
}

// NewQueryService creates a new QueryService
func NewQueryService(store RecordSource) *QueryService {
	return &QueryService{store: store}
}

func (c Criteria) validate() error {
	switch c.Kind {
	case "", "invoice", "expense":
	default:
		return shared.NewValidationError(fmt.Sprintf("Unknown record kind: %s", c.Kind))
	}
	switch c.SortBy {
	case "", SortByDate, SortByAmount, SortByClient:
	default:
		return shared.NewValidationError(fmt.Sprintf("Unknown sort field: %s", c.SortBy))
	}
	if c.Status != "" && !ledgerdomain.InvoiceStatus(c.Status).IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Unknown invoice status: %s", c.Status))
	}
	if c.DateFrom != nil && c.DateTo != nil && c.DateTo.Before(*c.DateFrom) {
		return shared.NewValidationError("Date range end must not precede its start")
	}
	return nil
}

func (c Criteria) dateRange() valueobject.DateRange {
	return valueobject.NewDateRange(c.DateFrom, c.DateTo)
}

// foldContains reports whether haystack contains needle, ignoring case.
func foldContains(haystack, needle string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

func (c Criteria) matchInvoice(inv *ledgerdomain.Invoice) bool {
	if !c.dateRange().Contains(inv.IssueDate) {
		return false
	}
	if c.Status != "" && inv.Status != ledgerdomain.InvoiceStatus(c.Status) {
		return false
	}
	if c.Category != "" {
		want := ledgerdomain.NormalizeCategory(c.Category)
		found := false
		for _, item := range inv.Items {
			if item.Category == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.Text != "" {
		if foldContains(inv.ClientName, c.Text) {
			return true
		}
		for _, item := range inv.Items {
			if foldContains(item.Description, c.Text) {
				return true
			}
		}
		return false
	}
	return true
}

func (c Criteria) matchExpense(exp *ledgerdomain.Expense) bool {
	// A status filter can never match an expense.
	if c.Status != "" {
		return false
	}
	if !c.dateRange().Contains(exp.Date) {
		return false
	}
	if c.Category != "" && exp.Category != ledgerdomain.NormalizeCategory(c.Category) {
		return false
	}
	if c.Text != "" && !foldContains(exp.Description, c.Text) && !foldContains(exp.Category, c.Text) {
		return false
	}
	return true
}

// QueryInvoices returns the invoices matching the criteria, sorted.
func (s *QueryService) QueryInvoices(ctx context.Context, c Criteria) ([]ledgerdomain.Invoice, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	matched := make([]ledgerdomain.Invoice, 0)
	for _, inv := range s.store.Invoices() {
		if c.matchInvoice(&inv) {
			matched = append(matched, inv)
		}
	}
	sortViews := invoiceViews(matched)
	sortRecords(sortViews, matched, c)
	return matched, nil
}

// QueryExpenses returns the expenses matching the criteria, sorted.
func (s *QueryService) QueryExpenses(ctx context.Context, c Criteria) ([]ledgerdomain.Expense, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	matched := make([]ledgerdomain.Expense, 0)
	for _, exp := range s.store.Expenses() {
		if c.matchExpense(&exp) {
			matched = append(matched, exp)
		}
	}
	sortViews := expenseViews(matched)
	sortRecords(sortViews, matched, c)
	return matched, nil
}

// Query evaluates the criteria over the requested kinds and returns a
// uniform view. With no kind filter both sides of the ledger are
// searched.
func (s *QueryService) Query(ctx context.Context, c Criteria) ([]RecordView, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	views := make([]RecordView, 0)
	if c.Kind == "" || c.Kind == "invoice" {
		for _, inv := range s.store.Invoices() {
			if c.matchInvoice(&inv) {
				views = append(views, invoiceView(&inv))
			}
		}
	}
	if c.Kind == "" || c.Kind == "expense" {
		for _, exp := range s.store.Expenses() {
			if c.matchExpense(&exp) {
				views = append(views, expenseView(&exp))
			}
		}
	}
	sortRecords(views, views, c)
	return views, nil
}

func invoiceView(inv *ledgerdomain.Invoice) RecordView {
	return RecordView{
		Kind:       "invoice",
		ID:         inv.ID.String(),
		Date:       inv.IssueDate,
		Amount:     inv.Total,
		ClientName: inv.ClientName,
		Status:     inv.Status.String(),
	}
}

func expenseView(exp *ledgerdomain.Expense) RecordView {
	return RecordView{
		Kind:        "expense",
		ID:          exp.ID.String(),
		Date:        exp.Date,
		Amount:      exp.Amount,
		Category:    exp.Category,
		Description: exp.Description,
	}
}

func invoiceViews(invoices []ledgerdomain.Invoice) []RecordView {
	views := make([]RecordView, len(invoices))
	for i := range invoices {
		views[i] = invoiceView(&invoices[i])
	}
	return views
}

func expenseViews(expenses []ledgerdomain.Expense) []RecordView {
	views := make([]RecordView, len(expenses))
	for i := range expenses {
		views[i] = expenseView(&expenses[i])
	}
	return views
}

// sortRecords reorders records in place using the sort keys of the
// view at the same index. Equal keys fall back to the record ID so
// ordering is deterministic.
func sortRecords[T any](views []RecordView, records []T, c Criteria) {
	less := func(a, b RecordView) bool {
		var cmp int
		switch c.SortBy {
		case SortByAmount:
			cmp = a.Amount.Cmp(b.Amount)
		case SortByClient:
			cmp = strings.Compare(a.ClientName, b.ClientName)
		default:
			cmp = compareDates(a.Date, b.Date)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if c.SortDescending {
			return cmp > 0
		}
		return cmp < 0
	}

	// Sort a permutation so the key slice stays aligned with the
	// records while comparisons run.
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return less(views[idx[i]], views[idx[j]])
	})

	sorted := make([]T, len(records))
	for pos, i := range idx {
		sorted[pos] = records[i]
	}
	copy(records, sorted)
}

func compareDates(a, b valueobject.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
