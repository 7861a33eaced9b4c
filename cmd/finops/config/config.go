// Package config assembles component configurations for the finops CLI,
// layering command-line flags over viper-managed settings.
package config

import (
	"fmt"
	"time"

	"golang-finops-engine/internal/disputes"
	"golang-finops-engine/internal/engine"
	"golang-finops-engine/internal/ingest"
	"golang-finops-engine/internal/matcher"
	"golang-finops-engine/internal/payments"
	"golang-finops-engine/internal/reporter"

	"github.com/spf13/viper"
)

// ResolveAsOf parses an explicit run date or falls back to today. The run
// date anchors overdue checks, discount deadlines, and trailing-history
// windows so repeated runs over the same inputs stay reproducible.
func ResolveAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	asOf, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date %q: %w", value, err)
	}
	return asOf, nil
}

// CreateIngestConfig creates the CSV reading configuration, honoring
// overrides from the config file or environment.
func CreateIngestConfig() *ingest.Config {
	config := ingest.DefaultConfig()

	if viper.IsSet("ingest.max-errors") {
		config.MaxErrors = viper.GetInt("ingest.max-errors")
	}
	if delimiter := viper.GetString("ingest.delimiter"); delimiter != "" {
		config.Delimiter = rune(delimiter[0])
	}

	return config
}

// CreateMatcherConfig creates a matching configuration with CLI overrides.
func CreateMatcherConfig(dateWindow int, acceptThreshold float64) *matcher.Config {
	config := matcher.DefaultConfig()

	config.DateWindowDays = dateWindow
	config.AcceptThreshold = acceptThreshold

	if viper.IsSet("matcher.near-miss-threshold") {
		config.NearMissThreshold = viper.GetFloat64("matcher.near-miss-threshold")
	}

	return config
}

// CreateDetectorConfig creates the dispute detection configuration.
func CreateDetectorConfig() *disputes.Config {
	config := disputes.DefaultConfig()

	if viper.IsSet("disputes.large-amount-multiplier") {
		config.LargeAmountMultiplier = viper.GetFloat64("disputes.large-amount-multiplier")
	}
	if viper.IsSet("disputes.trailing-window-days") {
		config.TrailingWindowDays = viper.GetInt("disputes.trailing-window-days")
	}

	return config
}

// CreatePipelineConfig bundles matcher, detector, and reporter
// configurations for one reconciliation run.
func CreatePipelineConfig(dateWindow int, acceptThreshold float64) *engine.Config {
	return &engine.Config{
		Matcher:  CreateMatcherConfig(dateWindow, acceptThreshold),
		Detector: CreateDetectorConfig(),
		Reporter: reporter.DefaultConfig(),
	}
}

// CreatePaymentsConfig creates the payment optimizer configuration.
func CreatePaymentsConfig() *payments.Config {
	config := payments.DefaultConfig()

	if viper.IsSet("payments.discount-urgency-days") {
		config.DiscountUrgencyDays = viper.GetInt("payments.discount-urgency-days")
	}

	return config
}
