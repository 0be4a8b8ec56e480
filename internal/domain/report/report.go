// Package report holds the read models produced by the aggregation
// services. These types are computed views over the ledger, never
// stored.
package report

import (
	"github.com/shopspring/decimal"
)

// Granularity selects the bucket width of a time series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func (g Granularity) IsValid() bool {
	return g == GranularityDay || g == GranularityMonth
}

func (g Granularity) String() string {
	return string(g)
}

// PeriodLayout returns the label format for a bucket of this granularity.
func (g Granularity) PeriodLayout() string {
	if g == GranularityMonth {
		return "2006-01"
	}
	return "2006-01-02"
}

// RecordKind selects which side of the ledger a series draws from.
type RecordKind string

const (
	RecordKindInvoice RecordKind = "invoice"
	RecordKindExpense RecordKind = "expense"
)

func (k RecordKind) IsValid() bool {
	return k == RecordKindInvoice || k == RecordKindExpense
}

func (k RecordKind) String() string {
	return string(k)
}

// CategoryTotal is one row of a totals-by-category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// PeriodBucket is one bucket of a time series. Buckets with no
// matching records carry a zero total rather than being omitted.
type PeriodBucket struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// NetPosition is realized revenue against recorded spending.
// Revenue counts paid invoices only.
type NetPosition struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// DashboardSummary is the headline view of the whole ledger.
// EstimatedTax is applied to positive net profit only.
type DashboardSummary struct {
	TotalInvoiced decimal.Decimal `json:"totalInvoiced"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	EstimatedTax  decimal.Decimal `json:"estimatedTax"`
	StatusCounts  map[string]int  `json:"statusCounts"`
}
