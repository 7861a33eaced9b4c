// Package metrics derives display KPIs from reconciliation and payables
// output. Everything here is a pure formula with divide-by-zero guards that
// return 0 instead of failing; zero-valued metrics are valid outcomes.
package metrics

import (
	"github.com/shopspring/decimal"

	"golang-finops-engine/internal/models"
)

// Snapshot bundles the derived KPIs for one reporting period.
type Snapshot struct {
	ReconciliationRate     float64 `json:"reconciliationRate"`
	Accuracy               float64 `json:"accuracy"`
	DaysPayableOutstanding float64 `json:"daysPayableOutstanding,omitempty"`
	TurnoverRatio          float64 `json:"turnoverRatio,omitempty"`
}

// ReconciliationRate is the share of items that reconciled:
// reconciled / (reconciled + unmatched bank + unmatched book), 0 when there
// were no items at all.
func ReconciliationRate(reconciled, unmatchedBank, unmatchedBook int) float64 {
	denominator := reconciled + unmatchedBank + unmatchedBook
	if denominator == 0 {
		return 0
	}
	return float64(reconciled) / float64(denominator)
}

// Accuracy is the reconciled share of all transactions, as a percentage.
func Accuracy(reconciled, totalTransactions int) float64 {
	if totalTransactions == 0 {
		return 0
	}
	return float64(reconciled) / float64(totalTransactions) * 100
}

// DaysPayableOutstanding applies DPO = outstanding / annual COGS * 365.
// Returns 0 when COGS is zero.
func DaysPayableOutstanding(totalOutstanding, annualCOGS decimal.Decimal) float64 {
	if annualCOGS.IsZero() {
		return 0
	}
	ratio, _ := totalOutstanding.Div(annualCOGS).Mul(decimal.NewFromInt(365)).Float64()
	return ratio
}

// TurnoverRatio applies turnover = annual purchases / average payables.
// Returns 0 when average payables is zero.
func TurnoverRatio(annualPurchases, averagePayables decimal.Decimal) float64 {
	if averagePayables.IsZero() {
		return 0
	}
	ratio, _ := annualPurchases.Div(averagePayables).Float64()
	return ratio
}

// FromReport derives the reconciliation KPIs of a finished report.
func FromReport(report *models.ReconciliationReport) Snapshot {
	reconciled := len(report.ReconciledItems)
	unmatchedBank := len(report.UnmatchedBankItems)
	unmatchedBook := len(report.UnmatchedBookItems)
	total := reconciled + unmatchedBank + unmatchedBook

	return Snapshot{
		ReconciliationRate: ReconciliationRate(reconciled, unmatchedBank, unmatchedBook),
		Accuracy:           Accuracy(reconciled, total),
	}
}
