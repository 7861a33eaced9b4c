package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang-finops-engine/cmd/finops/config"
	"golang-finops-engine/internal/engine"
	"golang-finops-engine/internal/ingest"
	"golang-finops-engine/internal/reporter"
	"golang-finops-engine/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	bankFile     string
	ledgerFile   string
	historyFile  string
	asOfDate     string
	periodStart  string
	periodEnd    string
	dateWindow   int
	acceptScore  float64
	outputFormat string
	outputFile   string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile bank statement activity against the book ledger",
	Long: `Reconcile pairs bank statement records with book ledger records using
exact and fuzzy matching, flags dispute-worthy anomalies in the residue,
and reports variance, risk, and suggested follow-ups.

Examples:
  # Basic reconciliation
  finops reconcile --bank-file bank.csv --ledger-file ledger.csv

  # With dispute history and an explicit as-of date
  finops reconcile --bank-file bank.csv --ledger-file ledger.csv \
    --history-file history.csv --as-of 2024-01-31

  # JSON report to a file with a wider fuzzy window
  finops reconcile --bank-file bank.csv --ledger-file ledger.csv \
    --date-window 5 --output-format json --output-file report.json`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&bankFile, "bank-file", "b", "", "path to bank statement CSV file (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to book ledger CSV file (required)")

	// Optional inputs
	reconcileCmd.Flags().StringVar(&historyFile, "history-file", "", "path to trailing bank history CSV for dispute thresholds")
	reconcileCmd.Flags().StringVar(&asOfDate, "as-of", "", "run date (YYYY-MM-DD, default today)")
	reconcileCmd.Flags().StringVar(&periodStart, "period-start", "", "reporting period start (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&periodEnd, "period-end", "", "reporting period end (YYYY-MM-DD)")

	// Matching configuration flags
	reconcileCmd.Flags().IntVarP(&dateWindow, "date-window", "d", 3, "fuzzy date window in days")
	reconcileCmd.Flags().Float64VarP(&acceptScore, "accept-threshold", "a", 0.6, "minimum fuzzy score accepted as a match")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reconcileCmd.MarkFlagRequired("bank-file")
	reconcileCmd.MarkFlagRequired("ledger-file")

	viper.BindPFlag("bank-file", reconcileCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("history-file", reconcileCmd.Flags().Lookup("history-file"))
	viper.BindPFlag("as-of", reconcileCmd.Flags().Lookup("as-of"))
	viper.BindPFlag("period-start", reconcileCmd.Flags().Lookup("period-start"))
	viper.BindPFlag("period-end", reconcileCmd.Flags().Lookup("period-end"))
	viper.BindPFlag("date-window", reconcileCmd.Flags().Lookup("date-window"))
	viper.BindPFlag("accept-threshold", reconcileCmd.Flags().Lookup("accept-threshold"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Values may be overridden from a config file or environment.
	bankFile = viper.GetString("bank-file")
	ledgerFile = viper.GetString("ledger-file")
	historyFile = viper.GetString("history-file")
	asOfDate = viper.GetString("as-of")
	periodStart = viper.GetString("period-start")
	periodEnd = viper.GetString("period-end")
	dateWindow = viper.GetInt("date-window")
	acceptScore = viper.GetFloat64("accept-threshold")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")

	if bankFile == "" {
		return fmt.Errorf("bank-file is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}

	if err := validateFileExists(bankFile, "bank statement file"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "book ledger file"); err != nil {
		return err
	}
	if historyFile != "" {
		if err := validateFileExists(historyFile, "history file"); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	for name, value := range map[string]string{
		"as-of":        asOfDate,
		"period-start": periodStart,
		"period-end":   periodEnd,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("invalid %s date format. Use YYYY-MM-DD: %w", name, err)
		}
	}

	if periodStart != "" && periodEnd != "" {
		start, _ := time.Parse("2006-01-02", periodStart)
		end, _ := time.Parse("2006-01-02", periodEnd)
		if start.After(end) {
			return fmt.Errorf("period start cannot be after period end")
		}
	}

	if dateWindow < 0 {
		return fmt.Errorf("date window cannot be negative")
	}
	if acceptScore < 0.0 || acceptScore > 1.0 {
		return fmt.Errorf("accept threshold must be between 0.0 and 1.0")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger().WithComponent("reconcile")

	asOf, err := config.ResolveAsOf(asOfDate)
	if err != nil {
		return err
	}

	ingestConfig := config.CreateIngestConfig()

	rawBank, bankStats, err := ingest.ReadRecords(bankFile, ingestConfig)
	if err != nil {
		return fmt.Errorf("failed to read bank statement file: %w", err)
	}
	rawBook, ledgerStats, err := ingest.ReadRecords(ledgerFile, ingestConfig)
	if err != nil {
		return fmt.Errorf("failed to read book ledger file: %w", err)
	}

	request := &engine.Request{
		RawBank: rawBank,
		RawBook: rawBook,
		AsOf:    asOf,
	}

	if historyFile != "" {
		history, _, err := ingest.ReadRecords(historyFile, ingestConfig)
		if err != nil {
			return fmt.Errorf("failed to read history file: %w", err)
		}
		request.RawHistory = history
	}

	if periodStart != "" {
		t, _ := time.Parse("2006-01-02", periodStart)
		request.PeriodStart = t
	}
	if periodEnd != "" {
		t, _ := time.Parse("2006-01-02", periodEnd)
		request.PeriodEnd = t
	}

	log.WithFields(logger.Fields{
		"bank_rows":   bankStats.RowsParsed,
		"ledger_rows": ledgerStats.RowsParsed,
	}).Debug("Input files loaded")

	pipeline, err := engine.NewPipeline(config.CreatePipelineConfig(dateWindow, acceptScore), log)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, request)
	if err != nil {
		return err
	}

	writer, err := reporter.NewWriter(reporter.OutputFormat(outputFormat))
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := writer.WriteReconciliation(result.Report, result.Disputes, result.Metrics, out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d bank and %d book transactions.\n",
			result.MatchSummary.TotalBank, result.MatchSummary.TotalBook)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d unmatched bank items, %d unmatched book items, %d disputes.\n",
			result.MatchSummary.Matched, result.MatchSummary.UnmatchedBank,
			result.MatchSummary.UnmatchedBook, len(result.Disputes))
	}

	return nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
