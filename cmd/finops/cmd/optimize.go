package cmd

import (
	"fmt"
	"time"

	"golang-finops-engine/cmd/finops/config"
	"golang-finops-engine/internal/ingest"
	"golang-finops-engine/internal/models"
	"golang-finops-engine/internal/payments"
	"golang-finops-engine/internal/reporter"
	"golang-finops-engine/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the optimize command
var (
	billsFile     string
	availableCash string
	optimizeAsOf  string
	daysAhead     int
	optOutFormat  string
	optOutFile    string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Recommend a payment schedule for outstanding bills",
	Long: `Optimize inspects outstanding bills and available cash, then groups
bills into prioritized payment recommendations: overdue bills first,
then bills with a capturable early-payment discount, then routine
bills to pay on their due date.

Examples:
  # Bills due within the next week
  finops optimize --bills-file bills.csv --cash 50000.00

  # Longer horizon with a fixed run date
  finops optimize --bills-file bills.csv --cash 50000.00 \
    --days-ahead 30 --as-of 2024-02-01 --output-format json`,

	PreRunE: validateOptimizeFlags,
	RunE:    runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&billsFile, "bills-file", "b", "", "path to bills CSV file (required)")
	optimizeCmd.Flags().StringVarP(&availableCash, "cash", "c", "", "available cash, e.g. 50000.00 (required)")
	optimizeCmd.Flags().StringVar(&optimizeAsOf, "as-of", "", "run date (YYYY-MM-DD, default today)")
	optimizeCmd.Flags().IntVar(&daysAhead, "days-ahead", 7, "planning horizon in days")
	optimizeCmd.Flags().StringVarP(&optOutFormat, "output-format", "f", "console", "output format: console, json, csv")
	optimizeCmd.Flags().StringVarP(&optOutFile, "output-file", "o", "", "output file path (default: stdout)")

	optimizeCmd.MarkFlagRequired("bills-file")
	optimizeCmd.MarkFlagRequired("cash")

	viper.BindPFlag("bills-file", optimizeCmd.Flags().Lookup("bills-file"))
	viper.BindPFlag("cash", optimizeCmd.Flags().Lookup("cash"))
	viper.BindPFlag("days-ahead", optimizeCmd.Flags().Lookup("days-ahead"))
}

func validateOptimizeFlags(cmd *cobra.Command, args []string) error {
	if billsFile == "" {
		billsFile = viper.GetString("bills-file")
	}
	if availableCash == "" {
		availableCash = viper.GetString("cash")
	}

	if err := validateFileExists(billsFile, "bills file"); err != nil {
		return err
	}

	if _, err := models.ParseAmountToMinorUnits(availableCash); err != nil {
		return fmt.Errorf("invalid cash amount '%s': %w", availableCash, err)
	}

	if optimizeAsOf != "" {
		if _, err := time.Parse("2006-01-02", optimizeAsOf); err != nil {
			return fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
		}
	}

	if daysAhead < 0 {
		return fmt.Errorf("days ahead cannot be negative")
	}

	if !reporter.OutputFormat(optOutFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", optOutFormat)
	}

	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("optimize")

	asOf, err := config.ResolveAsOf(optimizeAsOf)
	if err != nil {
		return err
	}

	cash, err := models.ParseAmountToMinorUnits(availableCash)
	if err != nil {
		return err
	}

	bills, stats, err := ingest.ReadBills(billsFile, config.CreateIngestConfig())
	if err != nil {
		return fmt.Errorf("failed to read bills file: %w", err)
	}

	log.WithFields(logger.Fields{
		"bills":      stats.RowsParsed,
		"cash":       models.FormatMinorUnits(cash),
		"days_ahead": daysAhead,
	}).Debug("Bills loaded")

	optimizer := payments.NewOptimizer(config.CreatePaymentsConfig())
	recommendations, err := optimizer.Recommendations(bills, cash, asOf, daysAhead)
	if err != nil {
		return err
	}

	writer, err := reporter.NewWriter(reporter.OutputFormat(optOutFormat))
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(optOutFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := writer.WriteRecommendations(recommendations, out); err != nil {
		return fmt.Errorf("failed to write recommendations: %w", err)
	}

	return nil
}
