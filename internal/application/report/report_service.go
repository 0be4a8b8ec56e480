// Package report computes aggregated views over the ledger.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	ledgerdomain "github.com/bookkeep/backend/internal/domain/ledger"
	reportdomain "github.com/bookkeep/backend/internal/domain/report"
	"github.com/bookkeep/backend/internal/domain/shared"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordSource is the read surface the aggregations need.
type RecordSource interface {
	Invoices() []ledgerdomain.Invoice
	Expenses() []ledgerdomain.Expense
}

// ReportService provides aggregation and export operations
type ReportService struct {
	store   RecordSource
	taxRate decimal.Decimal
	logger  *zap.Logger
}

// NewReportService creates a new ReportService. taxRate is the
// fraction of positive net profit reported as estimated tax.
func NewReportService(store RecordSource, taxRate float64, logger *zap.Logger) *ReportService {
	return &ReportService{
		store:   store,
		taxRate: decimal.NewFromFloat(taxRate),
		logger:  logger,
	}
}

// activeInvoices returns invoices that count toward aggregates.
// Cancelled invoices are skipped.
func (s *ReportService) activeInvoices() []ledgerdomain.Invoice {
	all := s.store.Invoices()
	out := make([]ledgerdomain.Invoice, 0, len(all))
	for _, inv := range all {
		if !inv.IsCancelled() {
			out = append(out, inv)
		}
	}
	return out
}

// TotalsByCategory sums amounts per category for one side of the
// ledger. Categories with no records are absent, never zero-valued.
// Rows come back sorted by category name.
func (s *ReportService) TotalsByCategory(ctx context.Context, kind reportdomain.RecordKind, rng valueobject.DateRange) ([]reportdomain.CategoryTotal, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown record kind: %s", kind))
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return nil, shared.NewValidationError("Date range end must not precede its start")
	}

	totals := make(map[string]decimal.Decimal)
	switch kind {
	case reportdomain.RecordKindExpense:
		for _, exp := range s.store.Expenses() {
			if !rng.Contains(exp.Date) {
				continue
			}
			totals[exp.Category] = totals[exp.Category].Add(exp.Amount)
		}
	case reportdomain.RecordKindInvoice:
		for _, inv := range s.activeInvoices() {
			if !rng.Contains(inv.IssueDate) {
				continue
			}
			for _, item := range inv.Items {
				// Uncategorized items have no bucket to land in.
				if item.Category == "" {
					continue
				}
				totals[item.Category] = totals[item.Category].Add(item.Subtotal)
			}
		}
	}

	out := make([]reportdomain.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, reportdomain.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// datedAmount is one record's contribution to a time series.
type datedAmount struct {
	date   valueobject.Date
	amount decimal.Decimal
}

// SeriesByPeriod buckets amounts into consecutive day or month
// periods. Every period between the bounds appears, zero-filled when
// nothing matched. Open-ended bounds clamp to the observed data, and
// an empty ledger with open bounds yields an empty series.
func (s *ReportService) SeriesByPeriod(ctx context.Context, kind reportdomain.RecordKind, granularity reportdomain.Granularity, rng valueobject.DateRange) ([]reportdomain.PeriodBucket, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown record kind: %s", kind))
	}
	if !granularity.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown granularity: %s", granularity))
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return nil, shared.NewValidationError("Date range end must not precede its start")
	}

	var records []datedAmount
	switch kind {
	case reportdomain.RecordKindInvoice:
		for _, inv := range s.activeInvoices() {
			records = append(records, datedAmount{inv.IssueDate, inv.Total})
		}
	case reportdomain.RecordKindExpense:
		for _, exp := range s.store.Expenses() {
			records = append(records, datedAmount{exp.Date, exp.Amount})
		}
	}

	start, end, ok := seriesBounds(rng, records)
	if !ok {
		return []reportdomain.PeriodBucket{}, nil
	}

	layout := granularity.PeriodLayout()
	if granularity == reportdomain.GranularityMonth {
		start = start.StartOfMonth()
	}

	var buckets []reportdomain.PeriodBucket
	index := make(map[string]int)
	for cur := start; !cur.After(end); {
		label := cur.Time().Format(layout)
		index[label] = len(buckets)
		buckets = append(buckets, reportdomain.PeriodBucket{Period: label, Total: decimal.Zero})
		if granularity == reportdomain.GranularityMonth {
			cur = cur.AddMonths(1)
		} else {
			cur = cur.AddDays(1)
		}
	}

	for _, rec := range records {
		if !rng.Contains(rec.date) {
			continue
		}
		label := rec.date.Time().Format(layout)
		if i, ok := index[label]; ok {
			buckets[i].Total = buckets[i].Total.Add(rec.amount)
		}
	}
	return buckets, nil
}

// seriesBounds resolves the concrete first and last date of a series.
// Open ends clamp to the earliest and latest observed record. A fully
// unresolvable series (open end with no data) reports ok=false.
func seriesBounds(rng valueobject.DateRange, records []datedAmount) (start, end valueobject.Date, ok bool) {
	var minDate, maxDate valueobject.Date
	for _, rec := range records {
		if minDate.IsZero() || rec.date.Before(minDate) {
			minDate = rec.date
		}
		if maxDate.IsZero() || rec.date.After(maxDate) {
			maxDate = rec.date
		}
	}

	if rng.From != nil {
		start = *rng.From
	} else if !minDate.IsZero() {
		start = minDate
	} else {
		return valueobject.Date{}, valueobject.Date{}, false
	}

	if rng.To != nil {
		end = *rng.To
	} else if !maxDate.IsZero() {
		end = maxDate
	} else {
		return valueobject.Date{}, valueobject.Date{}, false
	}

	if end.Before(start) {
		return valueobject.Date{}, valueobject.Date{}, false
	}
	return start, end, true
}

// NetPosition is realized revenue (paid invoices) minus expenses,
// both restricted to the date range. Unpaid, draft and cancelled
// invoices contribute nothing to revenue.
func (s *ReportService) NetPosition(ctx context.Context, rng valueobject.DateRange) reportdomain.NetPosition {
	revenue := decimal.Zero
	for _, inv := range s.store.Invoices() {
		if inv.IsPaid() && rng.Contains(inv.IssueDate) {
			revenue = revenue.Add(inv.Total)
		}
	}
	expenses := decimal.Zero
	for _, exp := range s.store.Expenses() {
		if rng.Contains(exp.Date) {
			expenses = expenses.Add(exp.Amount)
		}
	}
	return reportdomain.NetPosition{
		Revenue:  revenue,
		Expenses: expenses,
		Net:      revenue.Sub(expenses),
	}
}

// DashboardSummary computes the headline figures for the whole ledger
func (s *ReportService) DashboardSummary(ctx context.Context) reportdomain.DashboardSummary {
	totalInvoiced := decimal.Zero
	totalPaid := decimal.Zero
	statusCounts := map[string]int{
		ledgerdomain.InvoiceStatusDraft.String():     0,
		ledgerdomain.InvoiceStatusSent.String():      0,
		ledgerdomain.InvoiceStatusPaid.String():      0,
		ledgerdomain.InvoiceStatusOverdue.String():   0,
		ledgerdomain.InvoiceStatusCancelled.String(): 0,
	}
	for _, inv := range s.store.Invoices() {
		statusCounts[inv.Status.String()]++
		if inv.IsCancelled() {
			continue
		}
		totalInvoiced = totalInvoiced.Add(inv.Total)
		if inv.IsPaid() {
			totalPaid = totalPaid.Add(inv.Total)
		}
	}

	totalExpenses := decimal.Zero
	for _, exp := range s.store.Expenses() {
		totalExpenses = totalExpenses.Add(exp.Amount)
	}

	netProfit := totalPaid.Sub(totalExpenses)
	estimatedTax := decimal.Zero
	if netProfit.IsPositive() {
		estimatedTax = netProfit.Mul(s.taxRate)
	}

	return reportdomain.DashboardSummary{
		TotalInvoiced: totalInvoiced,
		TotalPaid:     totalPaid,
		TotalExpenses: totalExpenses,
		NetProfit:     netProfit,
		EstimatedTax:  estimatedTax,
		StatusCounts:  statusCounts,
	}
}

// ExportCSV writes the full ledger as CSV, the invoices section first,
// then a blank line and the expenses section.
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Invoices"},
		{"ID", "Client", "Issue Date", "Due Date", "Status", "Total"},
	}
	for _, inv := range s.store.Invoices() {
		rows = append(rows, []string{
			inv.ID.String(),
			inv.ClientName,
			inv.IssueDate.String(),
			inv.DueDate.String(),
			inv.Status.String(),
			inv.Total.StringFixed(2),
		})
	}
	rows = append(rows,
		[]string{""},
		[]string{"Expenses"},
		[]string{"ID", "Date", "Category", "Amount", "Description"},
	)
	for _, exp := range s.store.Expenses() {
		rows = append(rows, []string{
			exp.ID.String(),
			exp.Date.String(),
			exp.Category,
			exp.Amount.StringFixed(2),
			exp.Description,
		})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("ledger exported to csv", zap.Int("rows", len(rows)))
	return nil
}
