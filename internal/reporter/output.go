package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang-finops-engine/internal/metrics"
	"golang-finops-engine/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Writer renders reconciliation reports and payment recommendations.
type Writer struct {
	format OutputFormat
}

// NewWriter creates a writer for the given format.
func NewWriter(format OutputFormat) (*Writer, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
	return &Writer{format: format}, nil
}

// reportDocument is the JSON envelope for a reconciliation run.
type reportDocument struct {
	Report   *models.ReconciliationReport `json:"report"`
	Disputes []models.DisputeCase         `json:"disputes"`
	Metrics  metrics.Snapshot             `json:"metrics"`
}

// WriteReconciliation renders a finished reconciliation run.
func (w *Writer) WriteReconciliation(
	report *models.ReconciliationReport,
	disputes []models.DisputeCase,
	snapshot metrics.Snapshot,
	out io.Writer,
) error {
	if report == nil {
		return fmt.Errorf("reconciliation report cannot be nil")
	}

	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reportDocument{Report: report, Disputes: disputes, Metrics: snapshot})
	case FormatCSV:
		return writeReconciliationCSV(report, out)
	default:
		return writeReconciliationConsole(report, disputes, snapshot, out)
	}
}

func writeReconciliationConsole(
	report *models.ReconciliationReport,
	disputes []models.DisputeCase,
	snapshot metrics.Snapshot,
	out io.Writer,
) error {
	fmt.Fprintf(out, "RECONCILIATION REPORT\n")
	fmt.Fprintf(out, "Period: %s to %s\n\n",
		report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02"))

	fmt.Fprintf(out, "=== SUMMARY ===\n")
	fmt.Fprintf(out, "  Reconciled items:      %d\n", len(report.ReconciledItems))
	fmt.Fprintf(out, "  Unmatched bank items:  %d\n", len(report.UnmatchedBankItems))
	fmt.Fprintf(out, "  Unmatched book items:  %d\n", len(report.UnmatchedBookItems))
	fmt.Fprintf(out, "  Variance:              %s\n", models.FormatMinorUnits(report.Variance))
	fmt.Fprintf(out, "  Reconciliation rate:   %.1f%%\n", snapshot.ReconciliationRate*100)
	fmt.Fprintf(out, "  Overall risk score:    %.2f\n\n", report.RiskAssessment.OverallRiskScore)

	if len(report.ReconciledItems) > 0 {
		fmt.Fprintf(out, "=== MATCHES ===\n")
		for _, match := range report.ReconciledItems {
			fmt.Fprintf(out, "  %-12s <-> %-12s  %.2f  %-12s  %s\n",
				match.BankTransactionID, match.BookTransactionID,
				match.ConfidenceScore, match.MatchType, match.Explanation)
		}
		fmt.Fprintf(out, "\n")
	}

	if len(report.UnmatchedBankItems) > 0 {
		fmt.Fprintf(out, "=== UNMATCHED BANK ITEMS ===\n")
		for _, tx := range report.UnmatchedBankItems {
			fmt.Fprintf(out, "  %-12s  %s  %10s  %s\n",
				tx.ID, tx.Date.Format("2006-01-02"), models.FormatMinorUnits(tx.Amount), tx.Description)
		}
		fmt.Fprintf(out, "\n")
	}

	if len(report.UnmatchedBookItems) > 0 {
		fmt.Fprintf(out, "=== UNMATCHED BOOK ITEMS ===\n")
		for _, tx := range report.UnmatchedBookItems {
			fmt.Fprintf(out, "  %-12s  %s  %10s  %s\n",
				tx.ID, tx.Date.Format("2006-01-02"), models.FormatMinorUnits(tx.Amount), tx.Description)
		}
		fmt.Fprintf(out, "\n")
	}

	if len(disputes) > 0 {
		fmt.Fprintf(out, "=== DISPUTES ===\n")
		for _, dispute := range disputes {
			fmt.Fprintf(out, "  [%s] %s  %s  success probability %.2f\n",
				dispute.Type, models.FormatMinorUnits(dispute.Amount),
				dispute.Description, dispute.AISuccessProbability)
		}
		fmt.Fprintf(out, "\n")
	}

	if len(report.Suggestions) > 0 {
		fmt.Fprintf(out, "=== SUGGESTIONS ===\n")
		for _, suggestion := range report.Suggestions {
			fmt.Fprintf(out, "  %-12s (%s): %s [impact %s]\n",
				suggestion.TransactionID, suggestion.Side, suggestion.Message,
				models.FormatMinorUnits(suggestion.PotentialImpact))
		}
	}

	return nil
}

func writeReconciliationCSV(report *models.ReconciliationReport, out io.Writer) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"record_type", "bank_id", "book_id", "confidence", "match_type", "amount", "date", "detail"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, match := range report.ReconciledItems {
		row := []string{
			"match", match.BankTransactionID, match.BookTransactionID,
			strconv.FormatFloat(match.ConfidenceScore, 'f', 4, 64),
			string(match.MatchType), "", "", match.Explanation,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writeUnmatched := func(recordType string, txns []*models.Transaction) error {
		for _, tx := range txns {
			row := []string{
				recordType, "", "", "", "",
				models.FormatMinorUnits(tx.Amount),
				tx.Date.Format("2006-01-02"),
				tx.Description,
			}
			if recordType == "unmatched_bank" {
				row[1] = tx.ID
			} else {
				row[2] = tx.ID
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	}

	if err := writeUnmatched("unmatched_bank", report.UnmatchedBankItems); err != nil {
		return err
	}
	return writeUnmatched("unmatched_book", report.UnmatchedBookItems)
}

// WriteRecommendations renders grouped payment recommendations.
func (w *Writer) WriteRecommendations(recommendations []*models.PaymentRecommendation, out io.Writer) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(recommendations)
	case FormatCSV:
		return writeRecommendationsCSV(recommendations, out)
	default:
		return writeRecommendationsConsole(recommendations, out)
	}
}

func writeRecommendationsConsole(recommendations []*models.PaymentRecommendation, out io.Writer) error {
	fmt.Fprintf(out, "PAYMENT RECOMMENDATIONS\n\n")

	if len(recommendations) == 0 {
		fmt.Fprintf(out, "No bills due within the requested horizon.\n")
		return nil
	}

	for _, recommendation := range recommendations {
		fmt.Fprintf(out, "=== %s: %s (potential savings %s) ===\n",
			recommendation.Priority, recommendation.Action,
			models.FormatMinorUnits(recommendation.PotentialSavings))
		for _, bill := range recommendation.Bills {
			fmt.Fprintf(out, "  %-12s vendor %-10s due %s  balance %s\n",
				bill.ID, bill.VendorID, bill.DueDate.Format("2006-01-02"),
				models.FormatMinorUnits(bill.Balance))
		}
		fmt.Fprintf(out, "\n")
	}

	return nil
}

func writeRecommendationsCSV(recommendations []*models.PaymentRecommendation, out io.Writer) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"priority", "action", "bill_id", "vendor_id", "due_date", "balance", "group_savings"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, recommendation := range recommendations {
		for _, bill := range recommendation.Bills {
			row := []string{
				string(recommendation.Priority),
				recommendation.Action,
				bill.ID,
				bill.VendorID,
				bill.DueDate.Format("2006-01-02"),
				models.FormatMinorUnits(bill.Balance),
				models.FormatMinorUnits(recommendation.PotentialSavings),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	return nil
}
